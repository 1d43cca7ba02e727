package lemma

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcbaptista/go-vocab-highlighter/services"
)

func TestGetLemmasForWord(t *testing.T) {
	l := NewLemmatizer(nil)

	tests := []struct {
		name string
		word string
		want []string
	}{
		{"progressive verb", "testing", []string{"test"}},
		{"doubled consonant", "running", []string{"run"}},
		{"silent e restored", "making", []string{"make"}},
		{"past tense", "tested", []string{"test"}},
		{"past tense doubled", "stopped", []string{"stop"}},
		{"past tense ied", "studied", []string{"study"}},
		{"irregular verb", "went", []string{"go"}},
		{"third person or plural", "runs", []string{"run"}},
		{"ies plural", "studies", []string{"study"}},
		{"es plural", "boxes", []string{"box"}},
		{"irregular plural", "children", []string{"child"}},
		{"adverb table", "happily", []string{"happy"}},
		{"adverb table simple", "simply", []string{"simple"}},
		{"adverb ly strip", "quickly", []string{"quick"}},
		{"adverb ly strip validated", "exactly", []string{"exact"}},
		{"adverb lly", "really", []string{"real"}},
		{"adjective is its own lemma", "beautiful", []string{"beautiful"}},
		{"is not singularized", "this", []string{"this"}},
		{"us not singularized", "status", []string{"status"}},
		{"non-verb ing", "morning", []string{"morning"}},
		{"ly adjective kept", "friendly", []string{"friendly"}},
		{"uppercase input", "Testing", []string{"test"}},
		{"contraction falls back", "Don’t", []string{"don't"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.GetLemmasForWord(tt.word))
		})
	}
}

func TestGetLemmasForWord_Deterministic(t *testing.T) {
	l := NewLemmatizer(nil)
	for _, w := range []string{"testing", "quickly", "children", "went"} {
		assert.Equal(t, l.GetLemmasForWord(w), l.GetLemmasForWord(w), w)
	}
}

type stubAnalyzer map[string]services.Analysis

func (s stubAnalyzer) Analyze(word string) services.Analysis {
	return s[word]
}

func TestGetLemmasForWord_DelegatesToAnalyzer(t *testing.T) {
	l := NewLemmatizer(stubAnalyzer{
		"swiftly": {IsAdverb: true},
		"swift":   {IsAdjective: true},
		"geese":   {Singular: "goose"},
		"dreamt":  {Infinitive: "dream"},
		"bravely": {IsAdverb: true},
	})

	assert.Equal(t, []string{"swift"}, l.GetLemmasForWord("swiftly"))
	assert.Equal(t, []string{"goose"}, l.GetLemmasForWord("geese"))
	assert.Equal(t, []string{"dream"}, l.GetLemmasForWord("dreamt"))
	// "brave" is not an adjective according to the stub, so the strip is rejected.
	assert.Equal(t, []string{"bravely"}, l.GetLemmasForWord("bravely"))
}

func TestEnglishAnalyzer_Lexicon(t *testing.T) {
	lexicon := map[string]bool{"hope": true, "hop": true, "bake": true}
	a := NewEnglishAnalyzer(WithLexicon(func(w string) bool { return lexicon[w] }))

	assert.Equal(t, "hope", a.Analyze("hoping").Infinitive)
	assert.Equal(t, "hop", a.Analyze("hopping").Infinitive)
	assert.Equal(t, "bake", a.Analyze("baked").Infinitive)
	// Not in the lexicon: heuristics still apply.
	assert.Equal(t, "test", a.Analyze("testing").Infinitive)
}

func TestEnglishAnalyzer_Analyze(t *testing.T) {
	a := NewEnglishAnalyzer()

	tests := []struct {
		word string
		want services.Analysis
	}{
		{"quick", services.Analysis{IsAdjective: true}},
		{"quickly", services.Analysis{IsAdverb: true}},
		{"cats", services.Analysis{Singular: "cat"}},
		{"was", services.Analysis{Infinitive: "be"}},
		{"need", services.Analysis{}},
		{"", services.Analysis{}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.word))
		})
	}
}
