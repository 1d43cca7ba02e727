package statusapi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Memory is an in-process status service. Lemmas without a record are unknown.
type Memory struct {
	mu      sync.RWMutex
	records map[string]model.LemmaStatusRecord
}

var _ services.StatusResolver = (*Memory)(nil)

// NewMemory creates a resolver seeded with records.
func NewMemory(records ...model.LemmaStatusRecord) *Memory {
	m := &Memory{records: make(map[string]model.LemmaStatusRecord, len(records))}
	for _, rec := range records {
		m.put(rec)
	}
	return m
}

func (m *Memory) put(rec model.LemmaStatusRecord) {
	rec.Lemma = strings.ToLower(strings.TrimSpace(rec.Lemma))
	if rec.Lemma == "" {
		return
	}
	if rec.FamilyRoot == "" {
		rec.FamilyRoot = rec.Lemma
	}
	if rec.Status == "" {
		rec.Status = model.StatusUnknown
	}
	rec.FamiliarityLevel = model.ClampFamiliarity(rec.FamiliarityLevel)
	m.records[rec.Lemma] = rec
}

// QueryStatus implements services.StatusResolver.
func (m *Memory) QueryStatus(ctx context.Context, lemmas []string) (map[string]model.LemmaStatusRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]model.LemmaStatusRecord, len(lemmas))
	for _, l := range lemmas {
		if rec, ok := m.records[l]; ok {
			out[l] = rec
		}
	}
	return out, nil
}

// UpdateStatus implements services.StatusResolver. Ignored is a client-side
// state and is refused.
func (m *Memory) UpdateStatus(ctx context.Context, lemma string, status *model.Status, familiarityLevel *int) (model.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return model.UpdateResult{}, err
	}
	lemma = strings.ToLower(strings.TrimSpace(lemma))
	if lemma == "" {
		return model.UpdateResult{Success: false, Message: "lemma cannot be empty"}, nil
	}
	if status != nil {
		if s, ok := model.ParseStatus(string(*status)); !ok || s == model.StatusIgnored {
			return model.UpdateResult{Success: false, Message: fmt.Sprintf("status '%s' cannot be stored", *status)}, nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[lemma]
	if !ok {
		rec = model.LemmaStatusRecord{Lemma: lemma, FamilyRoot: lemma, Status: model.StatusUnknown}
	}
	if status != nil {
		rec.Status = *status
	}
	if familiarityLevel != nil {
		rec.FamiliarityLevel = model.ClampFamiliarity(*familiarityLevel)
	}
	m.records[lemma] = rec
	return model.UpdateResult{Success: true, Message: fmt.Sprintf("'%s' is now %s", lemma, rec.Status)}, nil
}

// IncreaseFamiliarity implements services.StatusResolver. An unknown lemma
// moves to learning; known lemmas are left alone.
func (m *Memory) IncreaseFamiliarity(ctx context.Context, lemma string) (model.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return model.UpdateResult{}, err
	}
	lemma = strings.ToLower(strings.TrimSpace(lemma))

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[lemma]
	if !ok {
		rec = model.LemmaStatusRecord{Lemma: lemma, FamilyRoot: lemma, Status: model.StatusUnknown}
	}
	if rec.Status == model.StatusKnown {
		return model.UpdateResult{Success: false, Message: "already known"}, nil
	}
	if rec.Status == model.StatusUnknown {
		rec.Status = model.StatusLearning
	}
	rec.FamiliarityLevel = model.ClampFamiliarity(rec.FamiliarityLevel + 1)
	m.records[lemma] = rec
	return model.UpdateResult{Success: true}, nil
}

// Records returns every record, sorted by lemma.
func (m *Memory) Records() []model.LemmaStatusRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.LemmaStatusRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lemma < out[j].Lemma })
	return out
}
