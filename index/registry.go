// Package index holds the highlight registry: every known word occurrence,
// its familiarity status and the visual highlight sets projected from it.
package index

import (
	"log/slog"
	"sync"

	"github.com/gcbaptista/go-vocab-highlighter/internal/tokenizer"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Names of the visual highlight sets handed to the renderer.
const (
	SetUnknown  = "vocab-unknown"
	SetLearning = "vocab-learning"
	SetHover    = "vocab-hover"
)

// Options configures a Registry.
type Options struct {
	MinWordLength     int
	MaxMatchesPerUnit int
	Palette           model.Palette
	Logger            *slog.Logger
}

// Registry owns all highlight entries. The flat entry list and the visual
// sets are always mutated together under mu.
type Registry struct {
	mu       sync.RWMutex
	entries  []*model.HighlightEntry
	byAnchor map[model.Anchor]*model.HighlightEntry
	unknown  map[model.Anchor]struct{}
	learning map[model.Anchor]struct{}

	hoveredLemma string
	hover        []model.Anchor

	renderer services.Renderer
	layout   services.Layout
	palette  model.Palette

	minWordLength     int
	maxMatchesPerUnit int

	listeners []func()
	logger    *slog.Logger
}

// RenderResult summarizes one Render call.
type RenderResult struct {
	Created    int `json:"created"`
	Degenerate int `json:"degenerate"` // anchors with no visible region
	Dropped    int `json:"dropped"`    // over the per-unit cap
	Duplicates int `json:"duplicates"` // anchor already held by an entry
}

// NewRegistry creates an empty registry drawing through renderer and
// measuring through layout.
func NewRegistry(renderer services.Renderer, layout services.Layout, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Palette == nil {
		opts.Palette = model.DefaultPalette()
	}
	if opts.MaxMatchesPerUnit <= 0 {
		opts.MaxMatchesPerUnit = 1000
	}

	r := &Registry{
		byAnchor:          make(map[model.Anchor]*model.HighlightEntry),
		unknown:           make(map[model.Anchor]struct{}),
		learning:          make(map[model.Anchor]struct{}),
		renderer:          renderer,
		layout:            layout,
		minWordLength:     opts.MinWordLength,
		maxMatchesPerUnit: opts.MaxMatchesPerUnit,
		logger:            opts.Logger.With("component", "registry"),
	}
	r.SetPalette(opts.Palette)
	return r
}

// SetPalette restyles the visual sets.
func (r *Registry) SetPalette(p model.Palette) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.palette = make(model.Palette, len(p))
	for k, v := range p {
		r.palette[k] = v
	}
	if r.renderer == nil {
		return
	}
	r.renderer.SetStyle(SetUnknown, r.palette.Color(model.StatusUnknown))
	r.renderer.SetStyle(SetLearning, r.palette.Color(model.StatusLearning))
	if r.hoveredLemma != "" {
		r.renderer.SetStyle(SetHover, r.palette.Color(r.hoverStatusLocked()))
	}
}

// OnDestroy registers a listener detached by Destroy.
func (r *Registry) OnDestroy(detach func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, detach)
}

// Render turns resolved word positions in units into entries. With
// clearPrevious the registry is wiped first; otherwise existing entries are
// left untouched and only new anchors are added. wordToLemma maps a
// normalized surface form to its lemma list; statuses is keyed by lemma and
// lemmas absent from it default to unknown.
func (r *Registry) Render(units []model.ContentUnit, statuses map[string]model.LemmaStatusRecord, wordToLemma map[string][]string, clearPrevious bool) RenderResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clearPrevious {
		r.resetLocked()
	}

	var result RenderResult
	for _, unit := range units {
		perUnit := 0
		dropped := 0
		for _, c := range tokenizer.Candidates(unit.Text, r.minWordLength) {
			lemmas, ok := wordToLemma[c.Normalized]
			if !ok || len(lemmas) == 0 {
				continue
			}

			rec, ok := statuses[lemmas[0]]
			if !ok {
				rec = model.LemmaStatusRecord{Lemma: lemmas[0], Status: model.StatusUnknown, FamilyRoot: lemmas[0]}
			}
			if rec.Status == model.StatusIgnored {
				continue
			}
			if rec.Status == "" {
				rec.Status = model.StatusUnknown
			}

			if perUnit >= r.maxMatchesPerUnit {
				dropped++
				continue
			}

			anchor := model.Anchor{Unit: unit.ID, Start: c.Start, End: c.End}
			if _, exists := r.byAnchor[anchor]; exists {
				result.Duplicates++
				perUnit++
				continue
			}
			if !r.visibleLocked(anchor) {
				result.Degenerate++
				continue
			}

			familyRoot := rec.FamilyRoot
			if familyRoot == "" {
				familyRoot = lemmas[0]
			}
			entry := &model.HighlightEntry{
				Occurrence: model.WordOccurrence{
					OriginalText:   c.Original,
					NormalizedText: c.Normalized,
					Lemmas:         append([]string{}, lemmas...),
					Anchor:         anchor,
				},
				Status:           rec.Status,
				FamilyRoot:       familyRoot,
				FamiliarityLevel: model.ClampFamiliarity(rec.FamiliarityLevel),
			}
			r.insertLocked(entry)
			perUnit++
			result.Created++
		}

		if dropped > 0 {
			r.logger.Warn("per-unit match cap reached, dropping matches",
				slog.Int("unit", int(unit.ID)),
				slog.Int("cap", r.maxMatchesPerUnit),
				slog.Int("dropped", dropped))
			result.Dropped += dropped
		}
	}

	r.publishLocked()
	return result
}

// UpdateStatus moves every entry whose lemma list contains lemma to status.
// A nil level keeps each entry's familiarity level. Moving to ignored removes
// the entries. It returns the number of entries touched; zero is not an error.
func (r *Registry) UpdateStatus(lemma string, status model.Status, level *int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status == model.StatusIgnored {
		n := r.removeLocked(func(e *model.HighlightEntry) bool { return e.HasLemma(lemma) })
		if n > 0 {
			r.publishLocked()
		}
		return n
	}

	touched := 0
	for _, e := range r.entries {
		if !e.HasLemma(lemma) {
			continue
		}
		r.moveLocked(e, status)
		if level != nil {
			e.FamiliarityLevel = model.ClampFamiliarity(*level)
		}
		touched++
	}
	if touched > 0 {
		r.publishLocked()
	}
	return touched
}

// RemoveByWord removes every entry whose normalized surface form equals word.
func (r *Registry) RemoveByWord(word string) int {
	word = tokenizer.NormalizeWord(word)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.removeLocked(func(e *model.HighlightEntry) bool { return e.Occurrence.NormalizedText == word })
	if n > 0 {
		r.publishLocked()
	}
	return n
}

// DetachUnits drops entries anchored in units that left the document.
func (r *Registry) DetachUnits(ids []model.UnitID) int {
	if len(ids) == 0 {
		return 0
	}
	gone := make(map[model.UnitID]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.removeLocked(func(e *model.HighlightEntry) bool {
		_, ok := gone[e.Occurrence.Anchor.Unit]
		return ok
	})
	if n > 0 {
		r.publishLocked()
	}
	return n
}

// AddDynamic records an occurrence discovered outside a scan pass. Entries
// sharing any of lemmas are updated in place; otherwise a new entry is
// inserted when the anchor has a visible region. It reports whether a new
// entry was inserted.
func (r *Registry) AddDynamic(word, originalWord string, lemmas []string, status model.Status, familyRoot string, level int, anchor model.Anchor) bool {
	if status == "" {
		status = model.StatusUnknown
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if status == model.StatusIgnored {
		if r.removeLocked(func(e *model.HighlightEntry) bool { return e.SharesLemma(lemmas) }) > 0 {
			r.publishLocked()
		}
		return false
	}

	updated := false
	for _, e := range r.entries {
		if !e.SharesLemma(lemmas) {
			continue
		}
		r.moveLocked(e, status)
		e.FamiliarityLevel = model.ClampFamiliarity(level)
		if familyRoot != "" {
			e.FamilyRoot = familyRoot
		}
		updated = true
	}
	if updated {
		r.publishLocked()
		return false
	}

	if _, exists := r.byAnchor[anchor]; exists || anchor.Empty() || !r.visibleLocked(anchor) {
		return false
	}
	if familyRoot == "" && len(lemmas) > 0 {
		familyRoot = lemmas[0]
	}
	r.insertLocked(&model.HighlightEntry{
		Occurrence: model.WordOccurrence{
			OriginalText:   originalWord,
			NormalizedText: tokenizer.NormalizeWord(word),
			Lemmas:         append([]string{}, lemmas...),
			Anchor:         anchor,
		},
		Status:           status,
		FamilyRoot:       familyRoot,
		FamiliarityLevel: model.ClampFamiliarity(level),
	})
	r.publishLocked()
	return true
}

// HitTest returns the first entry with a bounding rectangle containing the
// point. Known entries are hit-testable even though they are not drawn.
func (r *Registry) HitTest(x, y float64) (model.HighlightEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.layout == nil {
		return model.HighlightEntry{}, false
	}
	for _, e := range r.entries {
		for _, rect := range r.layout.Rects(e.Occurrence.Anchor) {
			if rect.Contains(x, y) {
				return copyEntry(e), true
			}
		}
	}
	return model.HighlightEntry{}, false
}

// SetHovered rebuilds the hover set for lemma; an empty lemma clears it.
func (r *Registry) SetHovered(lemma string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lemma == r.hoveredLemma {
		return
	}
	r.hoveredLemma = lemma
	r.rebuildHoverLocked()

	if r.renderer != nil {
		if lemma == "" {
			r.renderer.SetCursor(services.CursorDefault)
		} else {
			r.renderer.SetCursor(services.CursorPointer)
		}
	}
}

// HoveredLemma returns the lemma currently hovered, or "".
func (r *Registry) HoveredLemma() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hoveredLemma
}

// Clear wipes all entries and visual sets.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
	r.publishLocked()
}

// Destroy clears the registry and detaches every listener it owns.
func (r *Registry) Destroy() {
	r.mu.Lock()
	r.resetLocked()
	r.publishLocked()
	listeners := r.listeners
	r.listeners = nil
	if r.renderer != nil {
		r.renderer.SetCursor(services.CursorDefault)
	}
	r.mu.Unlock()

	for _, detach := range listeners {
		detach()
	}
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a copy of every entry in insertion order.
func (r *Registry) Entries() []model.HighlightEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.HighlightEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, copyEntry(e))
	}
	return out
}

// EntriesForLemma returns a copy of every entry whose lemma list contains lemma.
func (r *Registry) EntriesForLemma(lemma string) []model.HighlightEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.HighlightEntry, 0)
	for _, e := range r.entries {
		if e.HasLemma(lemma) {
			out = append(out, copyEntry(e))
		}
	}
	return out
}

func (r *Registry) insertLocked(e *model.HighlightEntry) {
	r.entries = append(r.entries, e)
	r.byAnchor[e.Occurrence.Anchor] = e
	r.addToSetLocked(e)
}

// removeLocked removes matching entries from the list and every set.
func (r *Registry) removeLocked(match func(*model.HighlightEntry) bool) int {
	kept := r.entries[:0]
	removed := 0
	clearHover := false
	for _, e := range r.entries {
		if !match(e) {
			kept = append(kept, e)
			continue
		}
		removed++
		delete(r.byAnchor, e.Occurrence.Anchor)
		delete(r.unknown, e.Occurrence.Anchor)
		delete(r.learning, e.Occurrence.Anchor)
		if r.hoveredLemma != "" && e.HasLemma(r.hoveredLemma) {
			clearHover = true
		}
	}
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = kept

	if clearHover {
		r.hoveredLemma = ""
		r.rebuildHoverLocked()
		if r.renderer != nil {
			r.renderer.SetCursor(services.CursorDefault)
		}
	}
	return removed
}

// moveLocked changes an entry's status and its visual set membership together.
func (r *Registry) moveLocked(e *model.HighlightEntry, status model.Status) {
	delete(r.unknown, e.Occurrence.Anchor)
	delete(r.learning, e.Occurrence.Anchor)
	e.Status = status
	r.addToSetLocked(e)
}

func (r *Registry) addToSetLocked(e *model.HighlightEntry) {
	switch e.Status {
	case model.StatusUnknown:
		r.unknown[e.Occurrence.Anchor] = struct{}{}
	case model.StatusLearning:
		r.learning[e.Occurrence.Anchor] = struct{}{}
	}
}

func (r *Registry) resetLocked() {
	r.entries = nil
	r.byAnchor = make(map[model.Anchor]*model.HighlightEntry)
	r.unknown = make(map[model.Anchor]struct{})
	r.learning = make(map[model.Anchor]struct{})
	r.hoveredLemma = ""
	r.hover = nil
}

// visibleLocked reports whether the anchor covers a non-empty visible region.
func (r *Registry) visibleLocked(anchor model.Anchor) bool {
	if anchor.Empty() {
		return false
	}
	if r.layout == nil {
		return true
	}
	for _, rect := range r.layout.Rects(anchor) {
		if rect.Area() > 0 {
			return true
		}
	}
	return false
}

func (r *Registry) hoverStatusLocked() model.Status {
	for _, e := range r.entries {
		if e.HasLemma(r.hoveredLemma) {
			return e.Status
		}
	}
	return model.StatusUnknown
}

func (r *Registry) rebuildHoverLocked() {
	r.hover = nil
	if r.hoveredLemma != "" {
		for _, e := range r.entries {
			if e.HasLemma(r.hoveredLemma) {
				r.hover = append(r.hover, e.Occurrence.Anchor)
			}
		}
	}
	if r.renderer == nil {
		return
	}
	if len(r.hover) == 0 {
		r.renderer.ClearHighlightSet(SetHover)
		return
	}
	r.renderer.SetStyle(SetHover, r.palette.Color(r.hoverStatusLocked()))
	r.renderer.SetHighlightSet(SetHover, append([]model.Anchor{}, r.hover...))
}

// publishLocked pushes the visual sets to the renderer in entry order.
func (r *Registry) publishLocked() {
	if r.hoveredLemma != "" {
		r.rebuildHoverLocked()
	} else if r.hover != nil {
		r.hover = nil
		if r.renderer != nil {
			r.renderer.ClearHighlightSet(SetHover)
		}
	}
	if r.renderer == nil {
		return
	}

	unknown := r.setAnchorsLocked(r.unknown)
	learning := r.setAnchorsLocked(r.learning)
	if len(unknown) == 0 {
		r.renderer.ClearHighlightSet(SetUnknown)
	} else {
		r.renderer.SetHighlightSet(SetUnknown, unknown)
	}
	if len(learning) == 0 {
		r.renderer.ClearHighlightSet(SetLearning)
	} else {
		r.renderer.SetHighlightSet(SetLearning, learning)
	}
}

func (r *Registry) setAnchorsLocked(set map[model.Anchor]struct{}) []model.Anchor {
	out := make([]model.Anchor, 0, len(set))
	for _, e := range r.entries {
		if _, ok := set[e.Occurrence.Anchor]; ok {
			out = append(out, e.Occurrence.Anchor)
		}
	}
	return out
}

func copyEntry(e *model.HighlightEntry) model.HighlightEntry {
	out := *e
	out.Occurrence.Lemmas = append([]string{}, e.Occurrence.Lemmas...)
	return out
}
