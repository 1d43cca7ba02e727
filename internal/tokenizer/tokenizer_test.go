package tokenizer

import (
	"reflect"
	"testing"
)

func TestCleanWord(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain word", "hello", "hello"},
		{"quoted", "\"word\"", "word"},
		{"parenthesized", "(hello)", "hello"},
		{"trailing punctuation", "done!?", "done"},
		{"possessive", "grid's", "grid"},
		{"typographic possessive", "grid’s", "grid"},
		{"plural possessive", "students'", "students"},
		{"contraction kept", "don't", "don't"},
		{"case preserved", "Hello,", "Hello"},
		{"only symbols", "...", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanWord(tt.input)
			if got != tt.want {
				t.Errorf("CleanWord(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitCamelCase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Part
	}{
		{"pascal compound", "ExpectTypeOf", []Part{{"Expect", 0, 6}, {"Type", 6, 10}, {"Of", 10, 12}}},
		{"two capitalized words", "DataBase", []Part{{"Data", 0, 4}, {"Base", 4, 8}}},
		{"lower then upper is technical", "userName", []Part{{"userName", 0, 8}}},
		{"acronym inside identifier", "toISOString", []Part{{"toISOString", 0, 11}}},
		{"acronym prefix is technical", "HTTPRequest", []Part{{"HTTPRequest", 0, 11}}},
		{"single lowercase prefix", "iPhone", []Part{{"iPhone", 0, 6}}},
		{"plural acronym", "LLMs", []Part{{"LLMs", 0, 4}}},
		{"plural acronym prefix", "IDsMap", []Part{{"IDsMap", 0, 6}}},
		{"plural acronym before word", "LLMsAre", []Part{{"LLMsAre", 0, 7}}},
		{"all caps", "HELLO", []Part{{"HELLO", 0, 5}}},
		{"hyphenated", "well-known", []Part{{"well", 0, 4}, {"known", 5, 10}}},
		{"snake case", "my_variable", []Part{{"my", 0, 2}, {"variable", 3, 11}}},
		{"leading and trailing separators", "_private_", []Part{{"private", 1, 8}}},
		{"digits", "route66", []Part{{"route", 0, 5}, {"66", 5, 7}}},
		{"only separators", "---", []Part{}},
		{"empty", "", []Part{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCamelCase(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCamelCase(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitCamelCase_OffsetsPointIntoInput(t *testing.T) {
	inputs := []string{"ExpectTypeOf", "__snake_case__", "well-known-fact", "LLMsAndAgents", "plain"}
	for _, input := range inputs {
		for _, p := range SplitCamelCase(input) {
			if input[p.Start:p.End] != p.Text {
				t.Errorf("SplitCamelCase(%q): part %q has offsets [%d,%d) covering %q",
					input, p.Text, p.Start, p.End, input[p.Start:p.End])
			}
		}
	}
}

func TestCandidates(t *testing.T) {
	text := "Testing the gridLayout's ExpectTypeOf helper."
	got := Candidates(text, 3)

	want := []struct {
		original   string
		normalized string
		start, end int
		compound   bool
	}{
		{"Testing", "testing", 0, 7, false},
		{"the", "the", 8, 11, false},
		{"gridLayout", "gridlayout", 12, 22, false},
		{"Expect", "expect", 25, 31, true},
		{"Type", "type", 31, 35, true},
		{"helper", "helper", 38, 44, false},
	}

	if len(got) != len(want) {
		t.Fatalf("Candidates(%q) returned %d candidates, want %d: %+v", text, len(got), len(want), got)
	}
	for i, w := range want {
		c := got[i]
		if c.Original != w.original || c.Normalized != w.normalized || c.Start != w.start || c.End != w.end || c.Compound != w.compound {
			t.Errorf("candidate %d = %+v, want %+v", i, c, w)
		}
	}
}

func TestCandidates_OffsetsMatchText(t *testing.T) {
	texts := []string{
		"Don’t stop believing, said the café’s owner.",
		"  leading spaces and trailing  ",
		"mixedCase, snake_case and kebab-case-words",
		"Ünïcödé wörds with accents",
	}
	for _, text := range texts {
		for _, c := range Candidates(text, 3) {
			if text[c.Start:c.End] != c.Original {
				t.Errorf("Candidates(%q): %q has offsets [%d,%d) covering %q",
					text, c.Original, c.Start, c.End, text[c.Start:c.End])
			}
		}
	}
}

func TestCandidates_LengthCutoff(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		minLength int
		want      []string
	}{
		{"short words dropped", "an ox is big", 3, []string{"big"}},
		{"minimum cannot go below hard floor", "an ox is big", 1, []string{"big"}},
		{"raised minimum", "cat horse", 4, []string{"horse"}},
		{"numbers dropped", "2024 was good", 3, []string{"was", "good"}},
		{"contraction stays whole", "Don’t stop", 3, []string{"don't", "stop"}},
		{"runes not bytes", "été", 3, []string{"été"}},
		{"empty", "", 3, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, c := range Candidates(tt.text, tt.minLength) {
				got = append(got, c.Normalized)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates(%q, %d) = %v, want %v", tt.text, tt.minLength, got, tt.want)
			}
		})
	}
}

func TestNormalizeWord(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello", "hello"},
		{"Don’t", "don't"},
		{"Café", "café"},
	}
	for _, tt := range tests {
		if got := NormalizeWord(tt.input); got != tt.want {
			t.Errorf("NormalizeWord(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWordAt(t *testing.T) {
	text := "The quick-brown fox's den."
	tests := []struct {
		name   string
		offset int
		word   string
		start  int
		end    int
	}{
		{"inside first word", 1, "The", 0, 3},
		{"hyphenated compound", 6, "quick-brown", 4, 15},
		{"possessive stripped", 17, "fox", 16, 19},
		{"at punctuation", 25, "den", 22, 25},
		{"on space between words", 3, "The", 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := WordAt(text, tt.offset)
			if word != tt.word || start != tt.start || end != tt.end {
				t.Errorf("WordAt(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					text, tt.offset, word, start, end, tt.word, tt.start, tt.end)
			}
		})
	}

	if word, _, _ := WordAt(text, -1); word != "" {
		t.Errorf("WordAt with negative offset = %q, want empty", word)
	}
}
