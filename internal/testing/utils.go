// Package testing provides fakes and helpers for testing the highlighter.
// It only depends on the model, config and services packages so any package
// can use it from its own tests.
package testing

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// RecordingResolver is a StatusResolver backed by a map. Every call is recorded.
type RecordingResolver struct {
	mu      sync.Mutex
	records map[string]model.LemmaStatusRecord
	queries [][]string
	updates []string
	bumps   []string

	// Err, when set, is returned by QueryStatus.
	Err error
	// Block, when set, makes QueryStatus wait until it is closed or ctx is done.
	Block chan struct{}
}

// NewRecordingResolver creates a resolver that knows the given statuses.
func NewRecordingResolver(statuses map[string]model.Status) *RecordingResolver {
	r := &RecordingResolver{records: make(map[string]model.LemmaStatusRecord)}
	for lemma, status := range statuses {
		r.records[lemma] = model.LemmaStatusRecord{Lemma: lemma, Status: status, FamilyRoot: lemma}
	}
	return r
}

// QueryStatus implements services.StatusResolver.
func (r *RecordingResolver) QueryStatus(ctx context.Context, lemmas []string) (map[string]model.LemmaStatusRecord, error) {
	r.mu.Lock()
	r.queries = append(r.queries, append([]string{}, lemmas...))
	block := r.Block
	err := r.Err
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]model.LemmaStatusRecord)
	for _, l := range lemmas {
		if rec, ok := r.records[l]; ok {
			out[l] = rec
		}
	}
	return out, nil
}

// UpdateStatus implements services.StatusResolver.
func (r *RecordingResolver) UpdateStatus(_ context.Context, lemma string, status *model.Status, level *int) (model.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, lemma)
	rec, ok := r.records[lemma]
	if !ok {
		rec = model.LemmaStatusRecord{Lemma: lemma, FamilyRoot: lemma, Status: model.StatusUnknown}
	}
	if status != nil {
		rec.Status = *status
	}
	if level != nil {
		rec.FamiliarityLevel = model.ClampFamiliarity(*level)
	}
	r.records[lemma] = rec
	return model.UpdateResult{Success: true, Message: "updated"}, nil
}

// IncreaseFamiliarity implements services.StatusResolver.
func (r *RecordingResolver) IncreaseFamiliarity(_ context.Context, lemma string) (model.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bumps = append(r.bumps, lemma)
	rec := r.records[lemma]
	rec.FamiliarityLevel = model.ClampFamiliarity(rec.FamiliarityLevel + 1)
	r.records[lemma] = rec
	return model.UpdateResult{Success: true}, nil
}

// Queries returns every QueryStatus lemma list, in call order.
func (r *RecordingResolver) Queries() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string{}, r.queries...)
}

// QueriedLemmas returns the distinct lemmas ever queried, sorted.
func (r *RecordingResolver) QueriedLemmas() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, q := range r.queries {
		for _, l := range q {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Updates returns the lemmas passed to UpdateStatus.
func (r *RecordingResolver) Updates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.updates...)
}

// Bumps returns the lemmas passed to IncreaseFamiliarity.
func (r *RecordingResolver) Bumps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.bumps...)
}

// ConfigStore is an in-memory services.ConfigStore whose writes can be made to fail.
type ConfigStore struct {
	mu       sync.Mutex
	settings config.LearnerSettings
	subs     []chan services.ConfigChange

	// Err, when set, is returned by Update and nothing is written.
	Err error
}

// NewConfigStore creates a store holding the default learner settings.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{settings: config.DefaultLearnerSettings()}
}

// Get implements services.ConfigStore.
func (s *ConfigStore) Get() config.LearnerSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Update implements services.ConfigStore.
func (s *ConfigStore) Update(_ context.Context, keys []services.ConfigKey, mutate func(*config.LearnerSettings)) error {
	s.mu.Lock()
	if s.Err != nil {
		err := s.Err
		s.mu.Unlock()
		return err
	}
	next := s.settings.Clone()
	mutate(&next)
	s.settings = next
	subs := append([]chan services.ConfigChange{}, s.subs...)
	s.mu.Unlock()

	change := services.ConfigChange{Keys: keys, Settings: next.Clone()}
	for _, ch := range subs {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

// Subscribe implements services.ConfigStore.
func (s *ConfigStore) Subscribe() (<-chan services.ConfigChange, func()) {
	ch := make(chan services.ConfigChange, 16)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, c := range s.subs {
				if c == ch {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (s *ConfigStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// RecordingDisplay records every card request.
type RecordingDisplay struct {
	mu           sync.Mutex
	definitions  []model.DefinitionRequest
	translations []model.TranslationRequest
}

// ShowDefinition implements services.DisplaySurface.
func (d *RecordingDisplay) ShowDefinition(_ context.Context, req model.DefinitionRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.definitions = append(d.definitions, req)
	return nil
}

// ShowTranslation implements services.DisplaySurface.
func (d *RecordingDisplay) ShowTranslation(_ context.Context, req model.TranslationRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.translations = append(d.translations, req)
	return nil
}

// Definitions returns the recorded definition requests.
func (d *RecordingDisplay) Definitions() []model.DefinitionRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.DefinitionRequest{}, d.definitions...)
}

// Translations returns the recorded translation requests.
func (d *RecordingDisplay) Translations() []model.TranslationRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.TranslationRequest{}, d.translations...)
}

// Units builds one content unit per text, each in its own block, with IDs from 1.
func Units(texts ...string) []model.ContentUnit {
	units := make([]model.ContentUnit, 0, len(texts))
	for i, text := range texts {
		units = append(units, model.ContentUnit{
			ID:    model.UnitID(i + 1),
			Text:  text,
			Block: model.BlockID(i + 1),
			Tag:   "p",
		})
	}
	return units
}

// PassPollingOptions configures scan pass polling behavior
type PassPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultPassPollingOptions returns sensible defaults for pass polling
func DefaultPassPollingOptions() PassPollingOptions {
	return PassPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForPassFinished polls a scan pass until it leaves the running state or times out
func WaitForPassFinished(t *testing.T, passes services.PassReader, passID string, opts PassPollingOptions) *model.ScanPass {
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Pass %s did not finish within %v timeout", passID, opts.Timeout)
			return nil
		case <-ticker.C:
			pass, err := passes.GetPass(passID)
			require.NoError(t, err, "Failed to get pass status")

			if pass.Finished() {
				if opts.LogProgress {
					t.Logf("Pass %s finished as %s in %v", passID, pass.Status, pass.Duration())
				}
				return pass
			}
		}
	}
}

// AssertPassCompleted verifies that a pass completed successfully
func AssertPassCompleted(t *testing.T, pass *model.ScanPass, expectedKind model.PassKind) {
	assert.Equal(t, model.PassStatusCompleted, pass.Status, "Pass should be completed")
	assert.Equal(t, expectedKind, pass.Kind, "Pass kind should match")
	assert.NotNil(t, pass.CompletedAt, "Pass should have completion timestamp")
	assert.Empty(t, pass.Error, "Pass should not have error")
}
