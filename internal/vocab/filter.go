// Package vocab decides which words are eligible for scanning: the whitelist
// of study lemmas and the learner's ignore set.
package vocab

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/tokenizer"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// abbreviationWords are contraction negatives that are never vocabulary.
// Lookups are made on the normalized form, so typographic apostrophes match too.
var abbreviationWords = map[string]struct{}{
	"ain't": {}, "aren't": {}, "can't": {}, "couldn't": {}, "didn't": {}, "doesn't": {},
	"don't": {}, "hadn't": {}, "hasn't": {}, "haven't": {}, "isn't": {}, "mightn't": {},
	"mustn't": {}, "needn't": {}, "shan't": {}, "shouldn't": {}, "wasn't": {}, "weren't": {},
	"won't": {}, "wouldn't": {},
}

// IsAbbreviationFilterWord reports whether word is a contraction negative.
func IsAbbreviationFilterWord(word string) bool {
	_, ok := abbreviationWords[tokenizer.NormalizeWord(word)]
	return ok
}

// Filter holds the whitelist and the ignore set.
type Filter struct {
	mu        sync.RWMutex
	whitelist map[string]struct{} // nil until a whitelist is loaded
	ignored   map[string]struct{}

	writeMu sync.Mutex // serializes ignore-set persistence
	store   services.ConfigStore
	logger  *slog.Logger

	degradedWarned atomic.Bool
}

// NewFilter creates a filter seeded with the ignore list held by store.
// A nil store keeps ignore changes in memory only.
func NewFilter(store services.ConfigStore, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Filter{
		ignored: make(map[string]struct{}),
		store:   store,
		logger:  logger.With("component", "vocab"),
	}
	if store != nil {
		f.SetIgnored(store.Get().IgnoredWords)
	}
	return f
}

// LoadWhitelist replaces the whitelist. An empty list is a loaded, empty
// whitelist (nothing is eligible), not the degraded mode.
func (f *Filter) LoadWhitelist(words []string) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := tokenizer.NormalizeWord(w); n != "" {
			set[n] = struct{}{}
		}
	}

	f.mu.Lock()
	f.whitelist = set
	f.mu.Unlock()
	f.degradedWarned.Store(false)

	f.logger.Info("whitelist loaded", slog.Int("words", len(set)))
}

// HasWhitelist reports whether a whitelist is loaded.
func (f *Filter) HasWhitelist() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.whitelist != nil
}

// WhitelistSize returns the number of whitelisted lemmas.
func (f *Filter) WhitelistSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.whitelist)
}

// InWhitelist reports literal whitelist membership. It is false when no
// whitelist is loaded and ignores the ignore set, which makes it usable as a
// lemmatizer lexicon.
func (f *Filter) InWhitelist(word string) bool {
	n := tokenizer.NormalizeWord(word)
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.whitelist[n]
	return ok
}

// IsValidWord reports whether word may be highlighted. Ignored words and
// contraction negatives are never valid; without a whitelist every other word is.
func (f *Filter) IsValidWord(word string) bool {
	n := tokenizer.NormalizeWord(word)
	if n == "" {
		return false
	}
	if _, ok := abbreviationWords[n]; ok {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, ok := f.ignored[n]; ok {
		return false
	}
	if f.whitelist == nil {
		if f.degradedWarned.CompareAndSwap(false, true) {
			f.logger.Warn("no whitelist loaded, every word is eligible")
		}
		return true
	}
	_, ok := f.whitelist[n]
	return ok
}

// IsIgnoredWord reports whether word is in the ignore set.
func (f *Filter) IsIgnoredWord(word string) bool {
	n := tokenizer.NormalizeWord(word)
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ignored[n]
	return ok
}

// EligibleLemmas applies the eligibility rule to one candidate: nothing is
// eligible when the surface form or any lemma is ignored or when the surface
// form is a contraction negative; otherwise the lemmas passing IsValidWord
// are returned in order.
func (f *Filter) EligibleLemmas(surface string, lemmas []string) []string {
	if IsAbbreviationFilterWord(surface) || f.IsIgnoredWord(surface) {
		return nil
	}
	for _, l := range lemmas {
		if f.IsIgnoredWord(l) {
			return nil
		}
	}

	var eligible []string
	for _, l := range lemmas {
		if f.IsValidWord(l) {
			eligible = append(eligible, l)
		}
	}
	return eligible
}

// AddIgnoredWord adds word to the ignore set and persists the new list. The
// in-memory set is rolled back when persistence fails.
func (f *Filter) AddIgnoredWord(ctx context.Context, word string) error {
	n := tokenizer.NormalizeWord(word)
	if n == "" {
		return internalErrors.NewValidationError("word", "cannot be empty")
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.mu.Lock()
	if _, ok := f.ignored[n]; ok {
		f.mu.Unlock()
		return nil
	}
	f.ignored[n] = struct{}{}
	snapshot := f.ignoredListLocked()
	f.mu.Unlock()

	if err := f.persist(ctx, snapshot); err != nil {
		f.mu.Lock()
		delete(f.ignored, n)
		f.mu.Unlock()
		f.logger.Warn("ignore add rolled back", slog.String("word", n), slog.String("error", err.Error()))
		return err
	}

	f.logger.Debug("word ignored", slog.String("word", n))
	return nil
}

// RemoveIgnoredWord removes word from the ignore set and persists the new
// list, rolling back on failure.
func (f *Filter) RemoveIgnoredWord(ctx context.Context, word string) error {
	n := tokenizer.NormalizeWord(word)
	if n == "" {
		return internalErrors.NewValidationError("word", "cannot be empty")
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.mu.Lock()
	if _, ok := f.ignored[n]; !ok {
		f.mu.Unlock()
		return nil
	}
	delete(f.ignored, n)
	snapshot := f.ignoredListLocked()
	f.mu.Unlock()

	if err := f.persist(ctx, snapshot); err != nil {
		f.mu.Lock()
		f.ignored[n] = struct{}{}
		f.mu.Unlock()
		f.logger.Warn("ignore removal rolled back", slog.String("word", n), slog.String("error", err.Error()))
		return err
	}

	f.logger.Debug("word unignored", slog.String("word", n))
	return nil
}

func (f *Filter) persist(ctx context.Context, words []string) error {
	if f.store == nil {
		return nil
	}
	err := f.store.Update(ctx, []services.ConfigKey{services.ConfigKeyIgnoredWords}, func(s *config.LearnerSettings) {
		s.IgnoredWords = words
	})
	if err != nil {
		return internalErrors.NewPersistenceError(string(services.ConfigKeyIgnoredWords), err)
	}
	return nil
}

// SetIgnored replaces the ignore set, typically after a configuration change
// notification, and returns the words that were not ignored before.
func (f *Filter) SetIgnored(words []string) []string {
	next := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := tokenizer.NormalizeWord(w); n != "" {
			next[n] = struct{}{}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var added []string
	for w := range next {
		if _, ok := f.ignored[w]; !ok {
			added = append(added, w)
		}
	}
	f.ignored = next
	sort.Strings(added)
	return added
}

// IgnoredWords returns the ignore set, sorted.
func (f *Filter) IgnoredWords() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ignoredListLocked()
}

func (f *Filter) ignoredListLocked() []string {
	out := make([]string, 0, len(f.ignored))
	for w := range f.ignored {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
