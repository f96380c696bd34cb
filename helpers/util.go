package helpers

import (
	"net/url"
	"strings"
)

// QueryTerms collapses whitespace in text, query-escapes every word and joins
// the words with sep, e.g. ("monitor  lg 27", "+") -> "monitor+lg+27".
func QueryTerms(text string, sep string) string {
	words := strings.Fields(text)
	for i, word := range words {
		words[i] = url.QueryEscape(word)
	}
	return strings.Join(words, sep)
}
