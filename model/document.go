package model

// UnitID identifies a content unit inside the live document.
type UnitID uint32

// BlockID identifies the nearest block-level ancestor shared by a run of units.
type BlockID uint32

// ContentUnit is a span of raw visible text owned by the document.
// Units are the unit of traversal; the text is treated as immutable for the
// duration of a scan pass.
type ContentUnit struct {
	ID            UnitID  `json:"id"`
	Text          string  `json:"text"`
	Block         BlockID `json:"block"`
	Tag           string  `json:"tag,omitempty"`           // tag of the parent element
	Container     string  `json:"container,omitempty"`     // key of the enclosing high-frequency container
	HighFrequency bool    `json:"high_frequency,omitempty"` // inside a caption/subtitle style container
	Hidden        bool    `json:"hidden,omitempty"`
}

// Anchor is a positional reference into a unit's text: byte offsets [Start, End).
// Anchors are recomputed every pass and never assumed valid across unrelated mutations.
type Anchor struct {
	Unit  UnitID `json:"unit"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Empty reports whether the anchor covers no text.
func (a Anchor) Empty() bool {
	return a.End <= a.Start
}

// Rect is an axis-aligned bounding box in layout coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Contains reports whether the point lies inside the rectangle (edges inclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Point is a pointer position in layout coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WordOccurrence is one concrete appearance of a word, scoped to a scan pass.
type WordOccurrence struct {
	OriginalText   string   `json:"original_text"`
	NormalizedText string   `json:"normalized_text"`
	Lemmas         []string `json:"lemmas"`
	Anchor         Anchor   `json:"anchor"`
}

// ChangeBatch is one notification from a change feed. The document has
// already been mutated when the batch is delivered.
type ChangeBatch struct {
	Added           []ContentUnit `json:"added,omitempty"`
	Removed         []UnitID      `json:"removed,omitempty"`
	FreeTextChanged bool          `json:"free_text_changed,omitempty"`
	Changed         []UnitID      `json:"changed,omitempty"` // units whose text was edited in place
}

// Empty reports whether the batch carries no change at all.
func (b ChangeBatch) Empty() bool {
	return len(b.Added) == 0 && len(b.Removed) == 0 && !b.FreeTextChanged && len(b.Changed) == 0
}

// MutationOp names one kind of document edit accepted by the host.
type MutationOp string

const (
	MutationAppendHTML       MutationOp = "append_html"
	MutationAppendText       MutationOp = "append_text"
	MutationReplaceText      MutationOp = "replace_text"
	MutationReplaceContainer MutationOp = "replace_container"
	MutationRemove           MutationOp = "remove"
	MutationSetHidden        MutationOp = "set_hidden"
)

// Mutation is a document edit. Which fields are read depends on Op.
type Mutation struct {
	Op        MutationOp `json:"op" binding:"required"`
	HTML      string     `json:"html,omitempty"`
	Text      string     `json:"text,omitempty"`
	Unit      UnitID     `json:"unit,omitempty"`
	Units     []UnitID   `json:"units,omitempty"`
	Block     BlockID    `json:"block,omitempty"`
	Container string     `json:"container,omitempty"`
	Hidden    bool       `json:"hidden,omitempty"`
}
