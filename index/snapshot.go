package index

import (
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// Snapshot is a point-in-time copy of the registry. Two snapshots of the
// same registry state are deeply equal.
type Snapshot struct {
	Entries      []model.HighlightEntry `json:"entries"`
	Unknown      []model.Anchor         `json:"unknown"`
	Learning     []model.Anchor         `json:"learning"`
	Hover        []model.Anchor         `json:"hover"`
	HoveredLemma string                 `json:"hovered_lemma,omitempty"`
}

// Stats counts entries per status.
type Stats struct {
	Entries  int `json:"entries"`
	Unknown  int `json:"unknown"`
	Learning int `json:"learning"`
	Known    int `json:"known"`
}

// Snapshot copies the registry state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Entries:      make([]model.HighlightEntry, 0, len(r.entries)),
		Unknown:      r.setAnchorsLocked(r.unknown),
		Learning:     r.setAnchorsLocked(r.learning),
		Hover:        append([]model.Anchor{}, r.hover...),
		HoveredLemma: r.hoveredLemma,
	}
	for _, e := range r.entries {
		s.Entries = append(s.Entries, copyEntry(e))
	}
	return s
}

// SetOf returns the name of the visual set holding anchor, or "" when the
// anchor is not drawn.
func (r *Registry) SetOf(anchor model.Anchor) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.unknown[anchor]; ok {
		return SetUnknown
	}
	if _, ok := r.learning[anchor]; ok {
		return SetLearning
	}
	return ""
}

// Stats counts the entries per status.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Entries: len(r.entries), Unknown: len(r.unknown), Learning: len(r.learning)}
	for _, e := range r.entries {
		if e.Status == model.StatusKnown {
			s.Known++
		}
	}
	return s
}
