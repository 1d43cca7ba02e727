package services

import (
	"context"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// StatusResolver is the remote familiarity service.
type StatusResolver interface {
	// QueryStatus returns the records the service knows about. Lemmas with
	// no record are simply absent from the map.
	QueryStatus(ctx context.Context, lemmas []string) (map[string]model.LemmaStatusRecord, error)
	// UpdateStatus changes the status and/or familiarity level of a lemma family.
	// Nil arguments are left untouched by the service.
	UpdateStatus(ctx context.Context, lemma string, status *model.Status, familiarityLevel *int) (model.UpdateResult, error)
	IncreaseFamiliarity(ctx context.Context, lemma string) (model.UpdateResult, error)
}

// Analysis is what a lemmatization capability knows about a single word.
type Analysis struct {
	Infinitive  string `json:"infinitive,omitempty"`
	Singular    string `json:"singular,omitempty"`
	IsAdjective bool   `json:"is_adjective"`
	IsAdverb    bool   `json:"is_adverb"`
}

// Analyzer is a black-box lemmatization oracle. Implementations must be pure.
type Analyzer interface {
	Analyze(word string) Analysis
}

// ConfigKey names one learner setting held by the configuration store.
type ConfigKey string

const (
	ConfigKeyIgnoredWords     ConfigKey = "ignored_words"
	ConfigKeyPalette          ConfigKey = "palette"
	ConfigKeyEnabled          ConfigKey = "enabled"
	ConfigKeyHighlightEnabled ConfigKey = "highlight_enabled"
	ConfigKeySiteLists        ConfigKey = "site_lists"
)

// ConfigChange is delivered on the store's event feed after a write.
type ConfigChange struct {
	Keys     []ConfigKey
	Settings config.LearnerSettings
}

// Has reports whether the change touched key.
func (c ConfigChange) Has(key ConfigKey) bool {
	for _, k := range c.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// ConfigStore is the persisted learner configuration. Reads are served from
// a synchronous cache; writes persist and then notify subscribers.
type ConfigStore interface {
	Get() config.LearnerSettings
	Update(ctx context.Context, keys []ConfigKey, mutate func(*config.LearnerSettings)) error
	// Subscribe returns the change feed and a function that cancels the subscription.
	Subscribe() (<-chan ConfigChange, func())
}

// DisplaySurface is the presentation layer that shows cards.
type DisplaySurface interface {
	ShowDefinition(ctx context.Context, req model.DefinitionRequest) error
	ShowTranslation(ctx context.Context, req model.TranslationRequest) error
}

// ChangeFeed yields batches of document mutations until ctx is done.
type ChangeFeed interface {
	Subscribe(ctx context.Context) <-chan model.ChangeBatch
}

// Cursor is the pointer style the renderer shows over the document.
type Cursor string

const (
	CursorDefault Cursor = "default"
	CursorPointer Cursor = "pointer"
)

// Renderer is the write-only overlay surface. Highlight sets are keyed by name.
type Renderer interface {
	SetHighlightSet(name string, spans []model.Anchor)
	ClearHighlightSet(name string)
	SetStyle(name string, color string)
	SetCursor(cursor Cursor)
}

// Layout maps anchors to screen geometry and back.
type Layout interface {
	// Rects returns every bounding rectangle of the anchor; nil when the anchor
	// is not visible.
	Rects(anchor model.Anchor) []model.Rect
	// CaretAt returns the unit and byte offset under a point.
	CaretAt(x, y float64) (model.UnitID, int, bool)
}

// UnitSource is read access to the live document.
type UnitSource interface {
	// Units returns all attached units in document order.
	Units() []model.ContentUnit
	Unit(id model.UnitID) (model.ContentUnit, bool)
	// BlockUnits returns the units sharing a block-level ancestor, in order.
	BlockUnits(block model.BlockID) []model.ContentUnit
	UnitsInContainer(container string) []model.ContentUnit
	Version() uint64
}

// PassReader gives read access to tracked scan passes.
type PassReader interface {
	GetPass(passID string) (*model.ScanPass, error)
}
