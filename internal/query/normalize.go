// Package query cleans and bounds free-text user input before matching.
package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the maximum query length in characters when none is configured.
const DefaultMaxLength = 500

var (
	// ErrEmptyQuery is returned for empty or whitespace-only input.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrQueryTooLong is returned when the normalized query exceeds the maximum length.
	ErrQueryTooLong = errors.New("query is too long")
)

// Query is a normalized, length-bounded search query. The zero value is not valid;
// construct one with Normalize.
type Query struct {
	text string
}

// String returns the normalized query text.
func (q Query) String() string {
	return q.text
}

// Normalize trims surrounding whitespace, collapses internal whitespace runs to a
// single space, and enforces maxLen (in characters). maxLen <= 0 uses DefaultMaxLength.
func Normalize(raw string, maxLen int) (Query, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return Query{}, ErrEmptyQuery
	}
	if n := utf8.RuneCountInString(text); n > maxLen {
		return Query{}, fmt.Errorf("%w: %d characters (max %d)", ErrQueryTooLong, n, maxLen)
	}
	return Query{text: text}, nil
}
