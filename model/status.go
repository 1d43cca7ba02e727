package model

import "strings"

// Status is the learner's familiarity state for a lemma family.
type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusLearning Status = "learning"
	StatusKnown    Status = "known"
	// StatusIgnored is not a real familiarity state: an ignored word has no
	// registry entry at all.
	StatusIgnored Status = "ignored"
)

// MaxFamiliarityLevel is the upper bound of LemmaStatusRecord.FamiliarityLevel.
const MaxFamiliarityLevel = 7

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusUnknown:
		return StatusUnknown, true
	case StatusLearning:
		return StatusLearning, true
	case StatusKnown:
		return StatusKnown, true
	case StatusIgnored:
		return StatusIgnored, true
	}
	return "", false
}

// Highlighted reports whether occurrences with this status are drawn in a visual set.
func (s Status) Highlighted() bool {
	return s == StatusUnknown || s == StatusLearning
}

// LemmaStatusRecord is the remote service's view of one lemma family.
type LemmaStatusRecord struct {
	Lemma            string `json:"lemma"`
	Status           Status `json:"status"`
	FamilyRoot       string `json:"family_root"`
	FamiliarityLevel int    `json:"familiarity_level"`
}

// ClampFamiliarity bounds a familiarity level to [0, MaxFamiliarityLevel].
func ClampFamiliarity(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxFamiliarityLevel {
		return MaxFamiliarityLevel
	}
	return level
}

// HighlightEntry is the persistent registry unit.
type HighlightEntry struct {
	Occurrence       WordOccurrence `json:"occurrence"`
	Status           Status         `json:"status"`
	FamilyRoot       string         `json:"family_root"`
	FamiliarityLevel int            `json:"familiarity_level"`
}

// Lemma returns the representative lemma (first in the lemma list).
func (e *HighlightEntry) Lemma() string {
	if len(e.Occurrence.Lemmas) == 0 {
		return e.Occurrence.NormalizedText
	}
	return e.Occurrence.Lemmas[0]
}

// HasLemma reports whether the entry's lemma list contains lemma.
func (e *HighlightEntry) HasLemma(lemma string) bool {
	for _, l := range e.Occurrence.Lemmas {
		if l == lemma {
			return true
		}
	}
	return false
}

// SharesLemma reports whether any of lemmas appears in the entry's lemma list.
func (e *HighlightEntry) SharesLemma(lemmas []string) bool {
	for _, l := range lemmas {
		if e.HasLemma(l) {
			return true
		}
	}
	return false
}
