package interaction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence even though they end with a period.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "sr": true, "jr": true, "st": true,
	"vs": true, "etc": true, "e.g": true, "i.e": true, "cf": true, "al": true, "approx": true,
	"inc": true, "ltd": true, "co": true, "corp": true, "dept": true, "est": true, "fig": true,
	"no": true, "vol": true, "u.s": true, "u.k": true, "a.m": true, "p.m": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true, "aug": true,
	"sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

// ExtractSentence returns the sentence of paragraph containing the byte
// offset. Sentences end at '.', '!' or '?' followed by whitespace or the end
// of the text; a period after a known abbreviation or a single letter does
// not end a sentence.
func ExtractSentence(paragraph string, offset int) string {
	if paragraph == "" {
		return ""
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(paragraph) {
		offset = len(paragraph)
	}

	start := 0
	for _, b := range sentenceBoundaries(paragraph) {
		if b > offset {
			return strings.TrimSpace(paragraph[start:b])
		}
		start = b
	}
	return strings.TrimSpace(paragraph[start:])
}

// splitSentences splits paragraph with the same rules as ExtractSentence.
func splitSentences(paragraph string) []string {
	var out []string
	start := 0
	for _, b := range append(sentenceBoundaries(paragraph), len(paragraph)) {
		if s := strings.TrimSpace(paragraph[start:b]); s != "" {
			out = append(out, s)
		}
		start = b
	}
	return out
}

// sentenceBoundaries returns the byte offsets just past each sentence terminator run.
func sentenceBoundaries(text string) []int {
	var bounds []int
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != '.' && r != '!' && r != '?' {
			i += size
			continue
		}

		end := i + size
		for end < len(text) {
			c, n := utf8.DecodeRuneInString(text[end:])
			if !strings.ContainsRune(".!?\"'”’)", c) {
				break
			}
			end += n
		}
		next, _ := utf8.DecodeRuneInString(text[end:])
		atEnd := end >= len(text)
		if !atEnd && !unicode.IsSpace(next) {
			i = end
			continue
		}
		if r == '.' && isAbbreviation(text[:i]) {
			i = end
			continue
		}
		if !atEnd {
			bounds = append(bounds, end)
		}
		i = end
	}
	return bounds
}

// isAbbreviation reports whether the word right before a period is an
// abbreviation or a single letter (an initial).
func isAbbreviation(before string) bool {
	idx := strings.LastIndexFunc(before, unicode.IsSpace)
	word := strings.ToLower(strings.TrimLeft(before[idx+1:], "(\"'“‘"))
	if word == "" {
		return false
	}
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		return unicode.IsLetter(r)
	}
	return abbreviations[word]
}
