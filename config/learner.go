package config

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// LearnerSettings is the learner-controlled state held by the configuration store.
type LearnerSettings struct {
	IgnoredWords     []string      `json:"ignored_words"`
	Palette          model.Palette `json:"palette"`
	Enabled          bool          `json:"enabled"`           // global on/off switch
	HighlightEnabled bool          `json:"highlight_enabled"` // overlay on/off, lookups keep working
	EnabledSites     []string      `json:"enabled_sites"`     // when non-empty, only these hosts are scanned
	DisabledSites    []string      `json:"disabled_sites"`
}

// DefaultLearnerSettings returns the settings of a fresh install.
func DefaultLearnerSettings() LearnerSettings {
	return LearnerSettings{
		IgnoredWords:     []string{},
		Palette:          model.DefaultPalette(),
		Enabled:          true,
		HighlightEnabled: true,
		EnabledSites:     []string{},
		DisabledSites:    []string{},
	}
}

// Clone returns a deep copy so callers can mutate without touching the cache.
func (s LearnerSettings) Clone() LearnerSettings {
	out := s
	out.IgnoredWords = append([]string{}, s.IgnoredWords...)
	out.EnabledSites = append([]string{}, s.EnabledSites...)
	out.DisabledSites = append([]string{}, s.DisabledSites...)
	out.Palette = make(model.Palette, len(s.Palette))
	for k, v := range s.Palette {
		out.Palette[k] = v
	}
	return out
}

// SiteEnabled reports whether highlighting should run on host.
// The disable list wins over the enable list.
func (s LearnerSettings) SiteEnabled(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	for _, d := range s.DisabledSites {
		if matchesHost(host, d) {
			return false
		}
	}
	if len(s.EnabledSites) == 0 {
		return true
	}
	for _, e := range s.EnabledSites {
		if matchesHost(host, e) {
			return true
		}
	}
	return false
}

// Active reports whether overlays should be drawn on host.
func (s LearnerSettings) Active(host string) bool {
	return s.Enabled && s.HighlightEnabled && s.SiteEnabled(host)
}

// matchesHost matches a host against a pattern; "example.com" also covers subdomains.
func matchesHost(host, pattern string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

// ParseModifiers parses a combination such as "alt+shift" into a modifier set.
func ParseModifiers(s string) (model.Modifiers, error) {
	var m model.Modifiers
	if strings.TrimSpace(s) == "" {
		return m, fmt.Errorf("modifier combination cannot be empty")
	}
	for _, part := range strings.Split(s, "+") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "alt", "option":
			m.Alt = true
		case "shift":
			m.Shift = true
		case "ctrl", "control":
			m.Ctrl = true
		case "meta", "cmd", "command":
			m.Meta = true
		default:
			return model.Modifiers{}, fmt.Errorf("unknown modifier '%s'", part)
		}
	}
	return m, nil
}

// ModifiersSatisfied reports whether every modifier in required is held in actual.
func ModifiersSatisfied(required, actual model.Modifiers) bool {
	if required.Alt && !actual.Alt {
		return false
	}
	if required.Shift && !actual.Shift {
		return false
	}
	if required.Ctrl && !actual.Ctrl {
		return false
	}
	if required.Meta && !actual.Meta {
		return false
	}
	return required != model.Modifiers{}
}
