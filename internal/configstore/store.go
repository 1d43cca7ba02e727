// Package configstore holds the learner settings. Reads come from an
// in-memory cache; writes persist first and then notify subscribers.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/persistence"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

const subscriberBuffer = 16

// Store is a services.ConfigStore. With a path the settings are persisted
// as gob; without one they live in memory only.
type Store struct {
	path string

	mu       sync.RWMutex
	writeMu  sync.Mutex
	settings config.LearnerSettings

	subsMu sync.Mutex
	subs   map[chan services.ConfigChange]struct{}

	logger *slog.Logger
}

var _ services.ConfigStore = (*Store)(nil)

// NewMemory creates a store that keeps initial in memory.
func NewMemory(initial config.LearnerSettings, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if initial.Palette == nil {
		initial.Palette = config.DefaultLearnerSettings().Palette
	}
	return &Store{
		settings: initial.Clone(),
		subs:     make(map[chan services.ConfigChange]struct{}),
		logger:   logger.With("component", "configstore"),
	}
}

// OpenFile loads the settings saved at path. A missing file starts from the
// defaults; it is written on the first update.
func OpenFile(path string, logger *slog.Logger) (*Store, error) {
	// gob omits zero values, so decode into a zero struct rather than the defaults.
	var settings config.LearnerSettings
	err := persistence.LoadGob(path, &settings)
	switch {
	case errors.Is(err, os.ErrNotExist):
		settings = config.DefaultLearnerSettings()
	case err != nil:
		return nil, fmt.Errorf("load learner settings: %w", err)
	}

	s := NewMemory(settings, logger)
	s.path = path
	s.logger.Info("learner settings loaded",
		slog.String("path", path),
		slog.Int("ignored_words", len(settings.IgnoredWords)),
		slog.Bool("enabled", settings.Enabled))
	return s, nil
}

// Get implements services.ConfigStore.
func (s *Store) Get() config.LearnerSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Update implements services.ConfigStore. mutate works on a copy; nothing
// changes when persistence fails.
func (s *Store) Update(ctx context.Context, keys []services.ConfigKey, mutate func(*config.LearnerSettings)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Get()
	mutate(&next)

	if s.path != "" {
		if err := persistence.SaveGob(s.path, next); err != nil {
			s.logger.Warn("learner settings not saved", slog.String("path", s.path), slog.String("error", err.Error()))
			return fmt.Errorf("save learner settings: %w", err)
		}
	}

	s.mu.Lock()
	s.settings = next.Clone()
	s.mu.Unlock()

	s.notify(services.ConfigChange{Keys: append([]services.ConfigKey{}, keys...), Settings: next})
	return nil
}

// Subscribe implements services.ConfigStore.
func (s *Store) Subscribe() (<-chan services.ConfigChange, func()) {
	ch := make(chan services.ConfigChange, subscriberBuffer)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			delete(s.subs, ch)
			close(ch)
		})
	}
}

func (s *Store) notify(change services.ConfigChange) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- services.ConfigChange{Keys: change.Keys, Settings: change.Settings.Clone()}:
		default:
			s.logger.Warn("config subscriber is slow, change dropped", slog.Any("keys", change.Keys))
		}
	}
}

// SetEnabled switches highlighting on or off globally.
func (s *Store) SetEnabled(ctx context.Context, enabled bool) error {
	return s.Update(ctx, []services.ConfigKey{services.ConfigKeyEnabled}, func(ls *config.LearnerSettings) {
		ls.Enabled = enabled
	})
}

// SetHighlightEnabled switches the overlay on or off.
func (s *Store) SetHighlightEnabled(ctx context.Context, enabled bool) error {
	return s.Update(ctx, []services.ConfigKey{services.ConfigKeyHighlightEnabled}, func(ls *config.LearnerSettings) {
		ls.HighlightEnabled = enabled
	})
}

// SetSiteLists replaces the per-site enable and disable lists.
func (s *Store) SetSiteLists(ctx context.Context, enabled, disabled []string) error {
	return s.Update(ctx, []services.ConfigKey{services.ConfigKeySiteLists}, func(ls *config.LearnerSettings) {
		ls.EnabledSites = append([]string{}, enabled...)
		ls.DisabledSites = append([]string{}, disabled...)
	})
}

// SetPalette merges colors into the palette.
func (s *Store) SetPalette(ctx context.Context, colors model.Palette) error {
	for status, color := range colors {
		if _, ok := model.ParseStatus(string(status)); !ok {
			return internalErrors.NewValidationError("palette", fmt.Sprintf("unknown status '%s'", status))
		}
		if color == "" {
			return internalErrors.NewValidationError("palette", fmt.Sprintf("empty color for '%s'", status))
		}
	}
	return s.Update(ctx, []services.ConfigKey{services.ConfigKeyPalette}, func(ls *config.LearnerSettings) {
		if ls.Palette == nil {
			ls.Palette = model.DefaultPalette()
		}
		for status, color := range colors {
			ls.Palette[status] = color
		}
	})
}
