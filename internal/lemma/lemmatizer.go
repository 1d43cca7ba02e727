package lemma

import (
	"strings"

	"github.com/gcbaptista/go-vocab-highlighter/internal/tokenizer"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Lemmatizer produces lemma sets from an Analyzer plus the adverb heuristics.
type Lemmatizer struct {
	analyzer services.Analyzer
}

// NewLemmatizer creates a lemmatizer over analyzer. A nil analyzer selects
// the EnglishAnalyzer without lexicon.
func NewLemmatizer(analyzer services.Analyzer) *Lemmatizer {
	if analyzer == nil {
		analyzer = NewEnglishAnalyzer()
	}
	return &Lemmatizer{analyzer: analyzer}
}

// GetLemmasForWord returns the ordered, deduplicated lemma set of word:
// infinitive, singular, the word itself when it is an adjective, and the
// adjective behind an adverb. The lowercase word is returned when nothing
// else is produced, so the result is never empty for a non-empty word.
func (l *Lemmatizer) GetLemmasForWord(word string) []string {
	w := tokenizer.NormalizeWord(word)
	if w == "" {
		return []string{}
	}

	lemmas := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	add := func(lemma string) {
		lemma = strings.TrimSpace(lemma)
		if lemma == "" || seen[lemma] {
			return
		}
		seen[lemma] = true
		lemmas = append(lemmas, lemma)
	}

	analysis := l.analyzer.Analyze(w)
	add(analysis.Infinitive)
	add(analysis.Singular)
	if analysis.IsAdjective {
		add(w)
	}

	if adjective, ok := adverbToAdjective[w]; ok {
		add(adjective)
	} else if analysis.IsAdverb {
		for _, candidate := range lyCandidates(w) {
			if l.analyzer.Analyze(candidate).IsAdjective {
				add(candidate)
				break
			}
		}
	}

	if len(lemmas) == 0 {
		add(w)
	}
	return lemmas
}

// lyCandidates lists the adjectives an -ly adverb may derive from, most
// specific first: basically→basic, lazily→lazy, gently→gentle, quickly→quick.
func lyCandidates(w string) []string {
	if !strings.HasSuffix(w, "ly") || len(w) <= 4 {
		return nil
	}
	var candidates []string
	if strings.HasSuffix(w, "ically") {
		candidates = append(candidates, w[:len(w)-4])
	}
	if strings.HasSuffix(w, "ily") {
		candidates = append(candidates, w[:len(w)-3]+"y")
	}
	if strings.HasSuffix(w, "bly") || strings.HasSuffix(w, "ply") || strings.HasSuffix(w, "tly") {
		candidates = append(candidates, w[:len(w)-1]+"e")
	}
	if strings.HasSuffix(w, "lly") {
		candidates = append(candidates, w[:len(w)-1])
	}
	return append(candidates, w[:len(w)-2])
}
