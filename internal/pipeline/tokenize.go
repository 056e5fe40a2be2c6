package pipeline

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball"
)

// Stopwords is the canonical stopword set from spec §4.4.
var Stopwords = map[string]struct{}{
	"the": {}, "is": {}, "in": {}, "at": {}, "of": {}, "on": {}, "and": {}, "a": {}, "to": {}, "for": {},
	"this": {}, "that": {}, "it": {}, "as": {}, "an": {}, "by": {}, "be": {}, "from": {}, "with": {},
	"or": {}, "are": {}, "was": {}, "were": {}, "but": {}, "not": {}, "can": {}, "will": {}, "has": {},
	"have": {}, "had": {}, "so": {}, "if": {}, "then": {}, "when": {}, "while": {}, "which": {},
}

var wordRe = regexp.MustCompile(`\w+`)
var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// rawWords returns the \w+ word matches used for the raw word count
// (spec §4.4 step 6), computed before stopword removal or stemming.
func rawWords(text string) []string {
	return wordRe.FindAllString(text, -1)
}

// parseText lowercases, strips non-word/non-space characters, splits
// on whitespace, drops stopwords, and stems each remaining token with
// a Porter-stemmer equivalent (spec §4.4 step 7).
func parseText(text string) []string {
	stripped := nonWordRe.ReplaceAllString(text, "")
	fields := strings.Fields(strings.ToLower(stripped))

	tokens := make([]string, 0, len(fields))
	for _, word := range fields {
		if _, stop := Stopwords[word]; stop {
			continue
		}
		stemmed, err := snowball.Stem(word, "english", false)
		if err != nil || stemmed == "" {
			stemmed = word
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}
