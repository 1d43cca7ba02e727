package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// HardMinWordLength is the floor below which no token is ever scanned.
const HardMinWordLength = 3

// wordRegex matches raw word-like runs inside a content unit. Hyphens,
// underscores and apostrophes are kept so compounds reach SplitCamelCase whole.
var wordRegex = regexp.MustCompile(`[\p{L}\p{M}\p{N}_'’\-]+`)

// camelPartRegex recognizes, in order: uppercase runs with an optional plural
// "s" (LLMs), capitalized or lowercase words, single capitals, digit runs.
var camelPartRegex = regexp.MustCompile(`\p{Lu}{2,}s?|\p{Lu}?[\p{Ll}\p{M}]+|\p{Lu}|\p{N}+`)

// leadingLowerThenUpper catches identifiers such as "userName" or "toISOString".
var leadingLowerThenUpper = regexp.MustCompile(`^\p{Ll}+\p{Lu}`)

// doubleUpperThenLower catches acronym-prefixed identifiers such as
// "XMLHttpRequest", and also plural acronyms such as "IDs".
var doubleUpperThenLower = regexp.MustCompile(`\p{Lu}{2}\p{Ll}`)

// Part is one segment of a word with byte offsets relative to the original string.
type Part struct {
	Text  string
	Start int
	End   int
}

// Candidate is a scannable word span inside a unit's text.
type Candidate struct {
	Original   string // text exactly as it appears in the unit
	Normalized string // NFC, lowercase, apostrophes unified
	Start      int    // byte offset in the unit text
	End        int
	Token      int  // index of the raw token the part came from
	Compound   bool // the raw token split into several parts
}

// CleanWord strips leading and trailing punctuation (internal apostrophes are
// kept) and removes a possessive "'s" suffix.
func CleanWord(raw string) string {
	start, end := cleanSpan(raw)
	return raw[start:end]
}

// cleanSpan returns the byte range CleanWord keeps.
func cleanSpan(raw string) (int, int) {
	start := strings.IndexFunc(raw, isWordRune)
	if start < 0 {
		return 0, 0
	}
	end := strings.LastIndexFunc(raw, isWordRune)
	_, size := utf8.DecodeRuneInString(raw[end:])
	end += size

	word := raw[start:end]
	for _, suffix := range []string{"'s", "'S", "’s", "’S"} {
		if strings.HasSuffix(word, suffix) && utf8.RuneCountInString(word) > 2 {
			end -= len(suffix)
			break
		}
	}
	return start, end
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// NormalizeWord produces the lookup form of a word: NFC, lowercase, with
// typographic apostrophes folded to ASCII.
func NormalizeWord(word string) string {
	return strings.Map(foldApostrophe, strings.ToLower(norm.NFC.String(word)))
}

func foldApostrophe(r rune) rune {
	switch r {
	case '’', 'ʼ', '‘', '`':
		return '\''
	}
	return r
}

// IsTechnicalTerm reports whether a word looks like a code identifier that
// should not be split: lowercase followed by uppercase at the start, or two
// capitals followed by lowercase letters.
func IsTechnicalTerm(word string) bool {
	return leadingLowerThenUpper.MatchString(word) || doubleUpperThenLower.MatchString(word)
}

// SplitCamelCase splits a compound word into its parts. Leading and trailing
// "_" / "-" are excluded from matching; offsets still refer to word.
// Technical terms are returned unsplit.
func SplitCamelCase(word string) []Part {
	prefixLen := len(word) - len(strings.TrimLeft(word, "_-"))
	core := strings.TrimRight(word[prefixLen:], "_-")
	if core == "" {
		return []Part{}
	}

	if IsTechnicalTerm(core) {
		return []Part{{Text: core, Start: prefixLen, End: prefixLen + len(core)}}
	}

	locs := camelPartRegex.FindAllStringIndex(core, -1)
	parts := make([]Part, 0, len(locs))
	for _, loc := range locs {
		parts = append(parts, Part{
			Text:  core[loc[0]:loc[1]],
			Start: prefixLen + loc[0],
			End:   prefixLen + loc[1],
		})
	}
	return parts
}

// Candidates returns every word span of text that is long enough to be scanned,
// with compounds broken into their parts. minLength is raised to
// HardMinWordLength when lower.
func Candidates(text string, minLength int) []Candidate {
	if minLength < HardMinWordLength {
		minLength = HardMinWordLength
	}

	candidates := make([]Candidate, 0)
	for token, loc := range wordRegex.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		cs, ce := cleanSpan(raw)
		if cs >= ce {
			continue
		}
		core := raw[cs:ce]

		var parts []Part
		if strings.ContainsAny(core, "'’") {
			parts = []Part{{Text: core, Start: 0, End: len(core)}}
		} else {
			parts = SplitCamelCase(core)
		}

		for _, p := range parts {
			if utf8.RuneCountInString(p.Text) < minLength || isDigits(p.Text) {
				continue
			}
			base := loc[0] + cs
			candidates = append(candidates, Candidate{
				Original:   p.Text,
				Normalized: NormalizeWord(p.Text),
				Start:      base + p.Start,
				End:        base + p.End,
				Token:      token,
				Compound:   len(parts) > 1,
			})
		}
	}
	return candidates
}

// WordAt expands left and right from a byte offset while characters belong
// to the word class, and returns the literal word with its span.
func WordAt(text string, offset int) (string, int, int) {
	if offset < 0 || offset > len(text) {
		return "", 0, 0
	}
	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !isLiteralWordRune(r) {
			break
		}
		start -= size
	}
	end := offset
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if !isLiteralWordRune(r) {
			break
		}
		end += size
	}
	cs, ce := cleanSpan(text[start:end])
	if cs >= ce {
		return "", offset, offset
	}
	return text[start+cs : start+ce], start + cs, start + ce
}

func isLiteralWordRune(r rune) bool {
	return isWordRune(r) || r == '\'' || r == '’' || r == '-' || unicode.Is(unicode.Mn, r)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
