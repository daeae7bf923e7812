package query

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		maxLen  int
		want    string
		wantErr error
	}{
		{"trims and collapses", "  climate \t data\n\nfor   sydney ", 100, "climate data for sydney", nil},
		{"whitespace only", "   ", 100, "", ErrEmptyQuery},
		{"empty", "", 100, "", ErrEmptyQuery},
		{"exactly at limit", "abcde", 5, "abcde", nil},
		{"over limit after trimming", "  abcdef  ", 5, "", ErrQueryTooLong},
		{"padding does not count", "   abc   ", 3, "abc", nil},
		{"counts characters not bytes", "éééé", 4, "éééé", nil},
		{"default limit", strings.Repeat("a", 501), 0, "", ErrQueryTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.maxLen)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
			if got.String() != tt.want {
				t.Errorf("Normalize() = %q, want %q", got.String(), tt.want)
			}
		})
	}
}
