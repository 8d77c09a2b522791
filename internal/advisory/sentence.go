package advisory

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences splits prose into sentences on a terminal mark (. ! ?)
// followed by whitespace and an upper-case letter. The regexp package has
// no lookbehind, so the boundary is found by scanning runes directly.
// Fragments are trimmed; empty ones are dropped. This is a heuristic:
// abbreviations, decimals, and quoted sentences may split incorrectly.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	i := 0

	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != '.' && r != '!' && r != '?' {
			i += size
			continue
		}

		// Consume the whitespace run after the terminal mark.
		j := i + size
		for j < len(text) {
			ws, wsSize := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(ws) {
				break
			}
			j += wsSize
		}

		next, _ := utf8.DecodeRuneInString(text[j:])
		if j > i+size && j < len(text) && unicode.IsUpper(next) {
			sentences = append(sentences, strings.TrimSpace(text[start:i+size]))
			start = j
			i = j
			continue
		}
		i += size
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
