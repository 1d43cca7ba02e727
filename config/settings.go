// Package config provides configuration structures for the vocabulary highlighter.
// It defines scan settings, learner settings and the host configuration.
package config

import (
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

// DefaultHighFrequencySelectors match caption/subtitle containers that replace
// their content every few hundred milliseconds.
var DefaultHighFrequencySelectors = []string{
	".ytp-caption-segment",
	".caption-window",
	".player-timedtext",
	".vjs-text-track-cue",
	"[data-purpose=captions-cue-text]",
}

// ScanSettings contains the tuning knobs of the scan pipeline and the change feed watcher.
type ScanSettings struct {
	MinWordLength           int           `json:"min_word_length" yaml:"min_word_length"`                     // Tokens shorter than this (in runes) are never scanned
	MaxMatchesPerUnit       int           `json:"max_matches_per_unit" yaml:"max_matches_per_unit"`           // Safety cap for pathological single-unit content
	HighFrequencyDebounce   time.Duration `json:"high_frequency_debounce" yaml:"high_frequency_debounce"`     // Coalescing window for caption-like containers
	IncrementalDebounce     time.Duration `json:"incremental_debounce" yaml:"incremental_debounce"`           // Coalescing window for regular added units
	WatchdogTimeout         time.Duration `json:"watchdog_timeout" yaml:"watchdog_timeout"`                   // Ceiling for a single pass before emergency stop
	HighFrequencySelectors  []string      `json:"high_frequency_selectors" yaml:"high_frequency_selectors"`   // CSS selectors of caption-like containers
	AutoIncreaseFamiliarity bool          `json:"auto_increase_familiarity" yaml:"auto_increase_familiarity"` // Bump familiarity when a highlighted word is looked up
	DefinitionModifier      string        `json:"definition_modifier" yaml:"definition_modifier"`             // Modifier combination for click-to-define, e.g. "alt"
	TranslationModifier     string        `json:"translation_modifier" yaml:"translation_modifier"`           // Modifier combination for sentence translation, e.g. "alt+shift"
}

// DefaultScanSettings returns settings with every default applied.
func DefaultScanSettings() ScanSettings {
	s := ScanSettings{AutoIncreaseFamiliarity: true}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults applies default values to the scan settings
func (settings *ScanSettings) ApplyDefaults() {
	if settings.MinWordLength == 0 {
		settings.MinWordLength = 3
	}
	if settings.MaxMatchesPerUnit == 0 {
		settings.MaxMatchesPerUnit = 1000
	}
	if settings.HighFrequencyDebounce == 0 {
		settings.HighFrequencyDebounce = 100 * time.Millisecond
	}
	if settings.IncrementalDebounce == 0 {
		settings.IncrementalDebounce = 500 * time.Millisecond
	}
	if settings.WatchdogTimeout == 0 {
		settings.WatchdogTimeout = 30 * time.Second
	}
	if settings.HighFrequencySelectors == nil {
		settings.HighFrequencySelectors = append([]string{}, DefaultHighFrequencySelectors...)
	}
	if settings.DefinitionModifier == "" {
		settings.DefinitionModifier = "alt"
	}
	if settings.TranslationModifier == "" {
		settings.TranslationModifier = "alt+shift"
	}
}

// Validate checks the settings and returns one message per problem found.
func (settings *ScanSettings) Validate() []string {
	var errors []string

	if settings.MinWordLength < 3 {
		errors = append(errors, "min_word_length must be at least 3")
	}
	if settings.MaxMatchesPerUnit < 1 {
		errors = append(errors, "max_matches_per_unit must be at least 1")
	}
	if settings.HighFrequencyDebounce < 0 || settings.IncrementalDebounce < 0 {
		errors = append(errors, "debounce durations cannot be negative")
	}
	if settings.WatchdogTimeout <= 0 {
		errors = append(errors, "watchdog_timeout must be positive")
	}
	errors = append(errors, checkDuplicates("high_frequency_selectors", settings.HighFrequencySelectors)...)
	for _, sel := range settings.HighFrequencySelectors {
		if strings.TrimSpace(sel) == "" {
			errors = append(errors, "Selector cannot be empty or whitespace-only")
			continue
		}
		if _, err := cascadia.ParseGroup(sel); err != nil {
			errors = append(errors, "Invalid selector '"+sel+"' in high_frequency_selectors: "+err.Error())
		}
	}
	if _, err := ParseModifiers(settings.DefinitionModifier); err != nil {
		errors = append(errors, "definition_modifier: "+err.Error())
	}
	if _, err := ParseModifiers(settings.TranslationModifier); err != nil {
		errors = append(errors, "translation_modifier: "+err.Error())
	}

	return errors
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate value '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}
