// Package lemma turns surface words into the lemma set used as familiarity keys.
package lemma

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// EnglishAnalyzer is a rule-based English morphology oracle. It recognizes
// irregular verbs from a table, strips -ing/-ed with consonant and silent-e
// repair, and singularizes nouns with inflection. When a lexicon is set it is
// used to choose between competing stems.
type EnglishAnalyzer struct {
	lexicon func(string) bool
}

// Option configures an EnglishAnalyzer.
type Option func(*EnglishAnalyzer)

// WithLexicon makes the analyzer prefer stems the lexicon knows.
func WithLexicon(known func(string) bool) Option {
	return func(a *EnglishAnalyzer) {
		a.lexicon = known
	}
}

// NewEnglishAnalyzer creates the default Analyzer binding.
func NewEnglishAnalyzer(opts ...Option) *EnglishAnalyzer {
	a := &EnglishAnalyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ services.Analyzer = (*EnglishAnalyzer)(nil)

// Analyze implements services.Analyzer. The input is expected lowercase.
func (a *EnglishAnalyzer) Analyze(word string) services.Analysis {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return services.Analysis{}
	}

	return services.Analysis{
		Infinitive:  a.infinitive(w),
		Singular:    a.singular(w),
		IsAdjective: isAdjective(w),
		IsAdverb:    isAdverb(w),
	}
}

func (a *EnglishAnalyzer) infinitive(w string) string {
	if base, ok := irregularVerbs[w]; ok {
		return base
	}

	switch {
	case strings.HasSuffix(w, "ied") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ing") && len(w) > 4:
		if nonVerbIng[w] {
			return ""
		}
		return a.pickStem(w[:len(w)-3])
	case strings.HasSuffix(w, "ed") && len(w) > 4:
		if strings.HasSuffix(w, "eed") || nonVerbEd[w] {
			return ""
		}
		return a.pickStem(w[:len(w)-2])
	}
	return ""
}

// pickStem repairs a stem left after removing an inflectional suffix.
func (a *EnglishAnalyzer) pickStem(stem string) string {
	if len(stem) < 2 || !strings.ContainsAny(stem, "aeiouy") {
		return ""
	}

	if a.lexicon != nil {
		for _, candidate := range stemCandidates(stem) {
			if a.lexicon(candidate) {
				return candidate
			}
		}
	}

	if undoubled, ok := undouble(stem); ok {
		return undoubled
	}
	if needsSilentE(stem) {
		return stem + "e"
	}
	return stem
}

// stemCandidates orders the possible bases so the heuristic favourite comes first.
func stemCandidates(stem string) []string {
	if undoubled, ok := undouble(stem); ok {
		return []string{undoubled, stem, stem + "e"}
	}
	if needsSilentE(stem) {
		return []string{stem + "e", stem}
	}
	return []string{stem, stem + "e"}
}

// undouble turns "runn" into "run". Stems ending in ll, ss, zz or ff keep
// their doubled consonant (fall, kiss, buzz, stuff), as do short stems (add).
func undouble(stem string) (string, bool) {
	n := len(stem)
	if n < 4 {
		return "", false
	}
	last := stem[n-1]
	if last != stem[n-2] || isVowel(last) {
		return "", false
	}
	switch last {
	case 'l', 's', 'z', 'f':
		return "", false
	}
	return stem[:n-1], true
}

func needsSilentE(stem string) bool {
	n := len(stem)
	if n <= 2 {
		return true
	}
	last := stem[n-1]
	switch {
	case last == 'v' || last == 'c':
		return true
	case strings.HasSuffix(stem, "iz") || strings.HasSuffix(stem, "yz"):
		return true
	}

	// consonant + single vowel + consonant
	cvc := !isVowel(stem[n-3]) && isVowel(stem[n-2]) && !isVowel(last) && last != 'w' && last != 'x' && last != 'y'
	if !cvc {
		return false
	}
	if n == 3 {
		return true
	}
	for _, ending := range []string{"at", "ut", "id", "od", "ud", "ir", "ur", "ok", "ak", "um"} {
		if strings.HasSuffix(stem, ending) {
			return true
		}
	}
	return false
}

func (a *EnglishAnalyzer) singular(w string) string {
	if len(w) < 3 || !strings.HasSuffix(w, "s") && !irregularPlural(w) {
		return ""
	}
	if _, ok := irregularVerbs[w]; ok {
		return ""
	}
	if nonPlural[w] {
		return ""
	}
	for _, suffix := range []string{"ss", "us", "is", "ous", "ics"} {
		if strings.HasSuffix(w, suffix) {
			return ""
		}
	}
	s := inflection.Singular(w)
	if s == w || s == "" {
		return ""
	}
	if a.lexicon != nil && !a.lexicon(s) && a.lexicon(w) {
		return ""
	}
	return s
}

// irregularPlural reports plurals without a trailing s that inflection knows.
func irregularPlural(w string) bool {
	switch w {
	case "children", "men", "women", "people", "feet", "teeth", "mice", "geese", "oxen":
		return true
	}
	return false
}

func isAdjective(w string) bool {
	if commonAdjectives[w] {
		return true
	}
	for _, suffix := range adjectiveSuffixes {
		if strings.HasSuffix(w, suffix) && len(w) > len(suffix)+2 {
			return true
		}
	}
	return false
}

func isAdverb(w string) bool {
	if commonAdverbs[w] {
		return true
	}
	if _, ok := adverbToAdjective[w]; ok {
		return true
	}
	return strings.HasSuffix(w, "ly") && len(w) > 4 && !lyNonAdverbs[w]
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
