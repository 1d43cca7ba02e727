// Package render provides Renderer bindings.
package render

import (
	"sort"
	"sync"

	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Call is one recorded renderer invocation.
type Call struct {
	Op     string          `json:"op"`
	Name   string          `json:"name,omitempty"`
	Spans  []model.Anchor  `json:"spans,omitempty"`
	Value  string          `json:"value,omitempty"`
	Cursor services.Cursor `json:"cursor,omitempty"`
}

// Recorder is an in-memory Renderer that keeps the current state of every
// highlight set and the history of calls.
type Recorder struct {
	mu       sync.RWMutex
	sets     map[string][]model.Anchor
	styles   map[string]string
	cursor   services.Cursor
	calls    []Call
	maxCalls int
}

// NewRecorder creates a recorder keeping at most maxCalls history entries
// (0 keeps everything).
func NewRecorder(maxCalls int) *Recorder {
	return &Recorder{
		sets:     make(map[string][]model.Anchor),
		styles:   make(map[string]string),
		cursor:   services.CursorDefault,
		maxCalls: maxCalls,
	}
}

var _ services.Renderer = (*Recorder)(nil)

// SetHighlightSet implements services.Renderer.
func (r *Recorder) SetHighlightSet(name string, spans []model.Anchor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[name] = append([]model.Anchor{}, spans...)
	r.recordLocked(Call{Op: "set", Name: name, Spans: r.sets[name]})
}

// ClearHighlightSet implements services.Renderer.
func (r *Recorder) ClearHighlightSet(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sets, name)
	r.recordLocked(Call{Op: "clear", Name: name})
}

// SetStyle implements services.Renderer.
func (r *Recorder) SetStyle(name string, color string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[name] = color
	r.recordLocked(Call{Op: "style", Name: name, Value: color})
}

// SetCursor implements services.Renderer.
func (r *Recorder) SetCursor(cursor services.Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = cursor
	r.recordLocked(Call{Op: "cursor", Cursor: cursor})
}

func (r *Recorder) recordLocked(c Call) {
	r.calls = append(r.calls, c)
	if r.maxCalls > 0 && len(r.calls) > r.maxCalls {
		r.calls = append([]Call{}, r.calls[len(r.calls)-r.maxCalls:]...)
	}
}

// Set returns the spans currently drawn for name.
func (r *Recorder) Set(name string) []model.Anchor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Anchor{}, r.sets[name]...)
}

// SetNames returns the names of the non-empty sets, sorted.
func (r *Recorder) SetNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sets))
	for name, spans := range r.sets {
		if len(spans) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Contains reports whether any set draws anchor.
func (r *Recorder) Contains(anchor model.Anchor) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, spans := range r.sets {
		for _, s := range spans {
			if s == anchor {
				return true
			}
		}
	}
	return false
}

// Style returns the colour assigned to name.
func (r *Recorder) Style(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.styles[name]
}

// Cursor returns the current cursor.
func (r *Recorder) Cursor() services.Cursor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cursor
}

// Calls returns the recorded call history.
func (r *Recorder) Calls() []Call {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Call{}, r.calls...)
}
