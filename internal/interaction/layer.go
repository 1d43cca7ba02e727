// Package interaction handles pointer input over the document: hover
// tracking, click-to-define, sentence translation and live status edits.
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/index"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/lemma"
	"github.com/gcbaptista/go-vocab-highlighter/internal/tokenizer"
	"github.com/gcbaptista/go-vocab-highlighter/internal/vocab"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Path tells which route a click took.
type Path string

const (
	PathNone        Path = "none"
	PathEntry       Path = "entry"
	PathFallback    Path = "fallback"
	PathTranslation Path = "translation"
)

// ClickResult describes what a click produced.
type ClickResult struct {
	Path        Path                      `json:"path"`
	Definition  *model.DefinitionRequest  `json:"definition,omitempty"`
	Translation *model.TranslationRequest `json:"translation,omitempty"`
}

// Options configures a Layer.
type Options struct {
	Settings config.ScanSettings
	Logger   *slog.Logger
}

// lookup remembers where a fallback lookup found its word so a later status
// change can anchor a new entry there.
type lookup struct {
	original   string
	lemmas     []string
	familyRoot string
	level      int
	anchor     model.Anchor
}

// Layer is the interaction layer.
type Layer struct {
	registry   *index.Registry
	layout     services.Layout
	source     services.UnitSource
	lemmatizer *lemma.Lemmatizer
	filter     *vocab.Filter
	resolver   services.StatusResolver
	display    services.DisplaySurface

	definitionMods  model.Modifiers
	translationMods model.Modifiers
	autoIncrease    bool

	group   singleflight.Group
	mu      sync.Mutex
	lookups map[string]lookup
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// New creates an interaction layer.
func New(registry *index.Registry, layout services.Layout, source services.UnitSource, lemmatizer *lemma.Lemmatizer,
	filter *vocab.Filter, resolver services.StatusResolver, display services.DisplaySurface, opts Options) *Layer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if lemmatizer == nil {
		lemmatizer = lemma.NewLemmatizer(nil)
	}
	opts.Settings.ApplyDefaults()

	l := &Layer{
		registry:     registry,
		layout:       layout,
		source:       source,
		lemmatizer:   lemmatizer,
		filter:       filter,
		resolver:     resolver,
		display:      display,
		autoIncrease: opts.Settings.AutoIncreaseFamiliarity,
		lookups:      make(map[string]lookup),
		logger:       opts.Logger.With("component", "interaction"),
	}
	l.definitionMods, _ = config.ParseModifiers(opts.Settings.DefinitionModifier)
	l.translationMods, _ = config.ParseModifiers(opts.Settings.TranslationModifier)
	return l
}

// PointerMove updates the hover set and returns the hovered lemma, or "".
func (l *Layer) PointerMove(x, y float64) string {
	lemma := ""
	if entry, ok := l.registry.HitTest(x, y); ok {
		lemma = entry.Lemma()
	}
	l.registry.SetHovered(lemma)
	return lemma
}

// Click dispatches a click by modifier state. The translation gesture is
// checked first since it usually extends the definition gesture.
func (l *Layer) Click(ctx context.Context, x, y float64, mods model.Modifiers) (ClickResult, error) {
	if config.ModifiersSatisfied(l.translationMods, mods) && l.translationMods != l.definitionMods {
		return l.Translate(ctx, x, y)
	}
	if config.ModifiersSatisfied(l.definitionMods, mods) {
		return l.Define(ctx, x, y)
	}
	return ClickResult{Path: PathNone}, nil
}

// Define shows the definition of the word under the point. Registry entries
// are used directly; otherwise the word is derived from the raw text.
func (l *Layer) Define(ctx context.Context, x, y float64) (ClickResult, error) {
	if entry, ok := l.registry.HitTest(x, y); ok {
		return l.defineEntry(ctx, entry, x, y)
	}
	return l.defineFallback(ctx, x, y)
}

func (l *Layer) defineEntry(ctx context.Context, entry model.HighlightEntry, x, y float64) (ClickResult, error) {
	lemma := entry.Lemma()
	_, sentence := l.sentenceAt(entry.Occurrence.Anchor.Unit, entry.Occurrence.Anchor.Start)
	req := model.DefinitionRequest{
		Word:             lemma,
		Lemmas:           append([]string{}, entry.Occurrence.Lemmas...),
		FamilyRoot:       entry.FamilyRoot,
		Status:           entry.Status,
		FamiliarityLevel: entry.FamiliarityLevel,
		Position:         model.Point{X: x, Y: y},
		Sentence:         sentence,
	}

	if l.autoIncrease && entry.Status != model.StatusKnown {
		l.bump(lemma)
	}

	if err := l.display.ShowDefinition(ctx, req); err != nil {
		return ClickResult{Path: PathEntry, Definition: &req}, fmt.Errorf("show definition: %w", err)
	}
	return ClickResult{Path: PathEntry, Definition: &req}, nil
}

// bump issues the auto-increase side request without blocking the click.
func (l *Layer) bump(lemma string) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		res, err := l.resolver.IncreaseFamiliarity(context.Background(), lemma)
		if err != nil {
			l.logger.Warn("auto-increase familiarity failed", slog.String("lemma", lemma), slog.String("error", err.Error()))
			return
		}
		if !res.Success {
			l.logger.Debug("auto-increase familiarity refused", slog.String("lemma", lemma), slog.String("message", res.Message))
		}
	}()
}

func (l *Layer) defineFallback(ctx context.Context, x, y float64) (ClickResult, error) {
	if l.layout == nil {
		return ClickResult{Path: PathNone}, nil
	}
	unitID, offset, ok := l.layout.CaretAt(x, y)
	if !ok {
		return ClickResult{Path: PathNone}, nil
	}
	unit, ok := l.source.Unit(unitID)
	if !ok {
		return ClickResult{Path: PathNone}, nil
	}

	word, start, end := tokenizer.WordAt(unit.Text, offset)
	if first, _ := utf8.DecodeRuneInString(word); word == "" || !unicode.IsLetter(first) {
		return ClickResult{Path: PathNone}, nil
	}

	lemmas := l.lemmatizer.GetLemmasForWord(word)
	_, sentence := l.sentenceAt(unitID, start)
	req := model.DefinitionRequest{
		Word:       word,
		Lemmas:     lemmas,
		FamilyRoot: lemmas[0],
		Status:     model.StatusUnknown,
		Position:   model.Point{X: x, Y: y},
		Sentence:   sentence,
	}

	if l.isIgnored(word, lemmas) {
		req.Status = model.StatusIgnored
	} else {
		rec, found, err := l.lookupStatus(ctx, lemmas)
		switch {
		case err != nil:
			req.Error = fmt.Sprintf("could not resolve status for '%s'", word)
			l.logger.Warn("fallback status lookup failed", slog.String("word", word), slog.String("error", err.Error()))
		case found:
			req.Word = rec.Lemma
			req.Status = rec.Status
			req.FamilyRoot = rec.FamilyRoot
			req.FamiliarityLevel = rec.FamiliarityLevel
		}
	}
	if req.FamilyRoot == "" {
		req.FamilyRoot = lemmas[0]
	}

	l.remember(word, lookup{
		original:   word,
		lemmas:     lemmas,
		familyRoot: req.FamilyRoot,
		level:      req.FamiliarityLevel,
		anchor:     model.Anchor{Unit: unitID, Start: start, End: end},
	})

	if err := l.display.ShowDefinition(ctx, req); err != nil {
		return ClickResult{Path: PathFallback, Definition: &req}, fmt.Errorf("show definition: %w", err)
	}
	return ClickResult{Path: PathFallback, Definition: &req}, nil
}

func (l *Layer) isIgnored(word string, lemmas []string) bool {
	if vocab.IsAbbreviationFilterWord(word) || l.filter.IsIgnoredWord(word) {
		return true
	}
	for _, lm := range lemmas {
		if l.filter.IsIgnoredWord(lm) {
			return true
		}
	}
	return false
}

// lookupStatus collapses concurrent lookups of the same lemma set into one
// remote query and returns the first record found in lemma order.
func (l *Layer) lookupStatus(ctx context.Context, lemmas []string) (model.LemmaStatusRecord, bool, error) {
	v, err, _ := l.group.Do(strings.Join(lemmas, "\x00"), func() (interface{}, error) {
		return l.resolver.QueryStatus(ctx, lemmas)
	})
	if err != nil {
		return model.LemmaStatusRecord{}, false, internalErrors.NewStatusQueryError(len(lemmas), err)
	}
	records, _ := v.(map[string]model.LemmaStatusRecord)
	for _, lm := range lemmas {
		if rec, ok := records[lm]; ok {
			if rec.Lemma == "" {
				rec.Lemma = lm
			}
			if rec.FamilyRoot == "" {
				rec.FamilyRoot = lm
			}
			return rec, true, nil
		}
	}
	return model.LemmaStatusRecord{}, false, nil
}

// Translate extracts the paragraph and sentence under the point and asks for
// a translation card.
func (l *Layer) Translate(ctx context.Context, x, y float64) (ClickResult, error) {
	var unitID model.UnitID
	var offset int
	if entry, ok := l.registry.HitTest(x, y); ok {
		unitID, offset = entry.Occurrence.Anchor.Unit, entry.Occurrence.Anchor.Start
	} else {
		if l.layout == nil {
			return ClickResult{Path: PathNone}, nil
		}
		var ok bool
		unitID, offset, ok = l.layout.CaretAt(x, y)
		if !ok {
			return ClickResult{Path: PathNone}, nil
		}
	}

	paragraph, sentence := l.sentenceAt(unitID, offset)
	if strings.TrimSpace(paragraph) == "" {
		return ClickResult{Path: PathNone}, nil
	}
	req := model.TranslationRequest{
		Paragraph: paragraph,
		Sentence:  sentence,
		Streaming: true,
		Position:  model.Point{X: x, Y: y},
	}
	if err := l.display.ShowTranslation(ctx, req); err != nil {
		return ClickResult{Path: PathTranslation, Translation: &req}, fmt.Errorf("show translation: %w", err)
	}
	return ClickResult{Path: PathTranslation, Translation: &req}, nil
}

// sentenceAt returns the text of the unit's block and the sentence around
// the byte offset within the unit.
func (l *Layer) sentenceAt(unitID model.UnitID, offset int) (string, string) {
	unit, ok := l.source.Unit(unitID)
	if !ok {
		return "", ""
	}
	var b strings.Builder
	blockOffset := offset
	for _, u := range l.source.BlockUnits(unit.Block) {
		if u.ID == unitID {
			blockOffset = b.Len() + offset
		}
		b.WriteString(u.Text)
	}
	paragraph := b.String()
	return strings.TrimSpace(paragraph), ExtractSentence(paragraph, blockOffset)
}

// SetStatus changes the status of a word family remotely and then locally.
// When no entry carries the lemma, the word is anchored where it was last
// looked up, or at its first literal occurrence in the document.
func (l *Layer) SetStatus(ctx context.Context, word string, lemmas []string, status model.Status) error {
	if status == model.StatusIgnored {
		return l.Ignore(ctx, word)
	}
	if _, ok := model.ParseStatus(string(status)); !ok {
		return internalErrors.NewValidationError("status", fmt.Sprintf("unknown status '%s'", status))
	}
	if len(lemmas) == 0 {
		if strings.TrimSpace(word) == "" {
			return internalErrors.NewValidationError("word", "cannot be empty")
		}
		lemmas = l.lemmatizer.GetLemmasForWord(word)
	}
	lemma := lemmas[0]

	res, err := l.resolver.UpdateStatus(ctx, lemma, &status, nil)
	if err != nil {
		return fmt.Errorf("update status of '%s': %w", lemma, err)
	}
	if !res.Success {
		return fmt.Errorf("update status of '%s' refused: %s", lemma, res.Message)
	}

	if n := l.registry.UpdateStatus(lemma, status, nil); n > 0 {
		l.logger.Debug("status updated", slog.String("lemma", lemma), slog.String("status", string(status)), slog.Int("entries", n))
		return nil
	}

	found, ok := l.recall(word)
	if !ok {
		anchor, original, located := l.LocateLiteral(word)
		if !located {
			l.logger.Debug("status updated, no occurrence to anchor", slog.String("lemma", lemma))
			return nil
		}
		found = lookup{original: original, lemmas: lemmas, familyRoot: lemma, anchor: anchor}
	}
	familyRoot := found.familyRoot
	if familyRoot == "" {
		familyRoot = lemma
	}
	l.registry.AddDynamic(word, found.original, lemmas, status, familyRoot, found.level, found.anchor)
	return nil
}

// Ignore adds word to the ignore list and removes its occurrences.
func (l *Layer) Ignore(ctx context.Context, word string) error {
	if err := l.filter.AddIgnoredWord(ctx, word); err != nil {
		return err
	}
	n := l.registry.RemoveByWord(word)
	l.forget(word)
	l.logger.Debug("word ignored", slog.String("word", word), slog.Int("removed", n))
	return nil
}

// Unignore removes word from the ignore list. Occurrences come back on the
// next scan.
func (l *Layer) Unignore(ctx context.Context, word string) error {
	return l.filter.RemoveIgnoredWord(ctx, word)
}

// LocateLiteral scans the whole document for the first occurrence of word.
// It costs a pass over every unit and is only used when no anchor is known.
func (l *Layer) LocateLiteral(word string) (model.Anchor, string, bool) {
	target := tokenizer.NormalizeWord(tokenizer.CleanWord(word))
	if target == "" {
		return model.Anchor{}, "", false
	}
	for _, u := range l.source.Units() {
		if u.Hidden {
			continue
		}
		for _, c := range tokenizer.Candidates(u.Text, tokenizer.HardMinWordLength) {
			if c.Normalized == target {
				return model.Anchor{Unit: u.ID, Start: c.Start, End: c.End}, c.Original, true
			}
		}
	}
	return model.Anchor{}, "", false
}

// Wait blocks until every auto-increase side request has finished.
func (l *Layer) Wait() {
	l.wg.Wait()
}

func (l *Layer) remember(word string, lk lookup) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookups[tokenizer.NormalizeWord(word)] = lk
}

func (l *Layer) recall(word string) (lookup, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.lookups[tokenizer.NormalizeWord(word)]
	if !ok {
		return lookup{}, false
	}
	// The remembered anchor is only good while the unit still holds the word.
	u, exists := l.source.Unit(lk.anchor.Unit)
	if !exists || lk.anchor.End > len(u.Text) ||
		tokenizer.NormalizeWord(u.Text[lk.anchor.Start:lk.anchor.End]) != tokenizer.NormalizeWord(word) {
		delete(l.lookups, tokenizer.NormalizeWord(word))
		return lookup{}, false
	}
	return lk, true
}

func (l *Layer) forget(word string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lookups, tokenizer.NormalizeWord(word))
}
