// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + Ellipsis
}

// TruncateAtWord truncates s to maxLen characters and appends "...". When the
// last space in the kept text lies past 80% of maxLen the cut is moved back to
// that space so the final word is not split.
func TruncateAtWord(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	kept := string(r[:maxLen])
	if i := strings.LastIndex(kept, " "); i >= 0 && float64(len([]rune(kept[:i]))) > float64(maxLen)*0.8 {
		return kept[:i] + Ellipsis
	}
	return kept + Ellipsis
}
