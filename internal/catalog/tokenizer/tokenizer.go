// Package tokenizer provides text tokenisation for the catalog indexes.
// It lower-cases input, splits on non-alphanumeric boundaries, and
// deduplicates tokens while preserving first-seen order.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize breaks text into lowercased tokens. Runs of non-alphanumeric
// characters act as separators, empty fragments are discarded, and a token
// appearing more than once keeps only its first occurrence.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens = append(tokens, word)
	}
	return tokens
}
