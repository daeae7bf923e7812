// Package keyword provides word tokenization, keyword indexing and spelling
// suggestions over the dataset catalogue.
package keyword

import (
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// The unicode tokenizer and lowercase filter hold no state, so one instance of
// each is shared across goroutines.
var (
	wordTokenizer = unicode.NewUnicodeTokenizer()
	lowerFilter   = lowercase.NewLowerCaseFilter()
)

// Tokenize splits text on Unicode word boundaries and returns the distinct
// lowercase words in first-seen order. Punctuation and whitespace are dropped;
// no stop words are removed and no stemming is applied.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	stream := lowerFilter.Filter(wordTokenizer.Tokenize([]byte(text)))
	seen := make(map[string]struct{}, len(stream))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		term := string(tok.Term)
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// TokenSet returns the distinct lowercase words of text as a set.
func TokenSet(text string) map[string]struct{} {
	terms := Tokenize(text)
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}
