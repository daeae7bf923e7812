// Package llm provides language model backends behind a single text generation capability.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrBackendCall wraps any error returned by a model backend.
	ErrBackendCall = errors.New("model backend call failed")
	// ErrBackendTimeout is returned when a model call exceeds its deadline.
	ErrBackendTimeout = errors.New("model backend timed out")
)

// Options controls a single generation.
type Options struct {
	Temperature float64
	MaxTokens   int
	Stop        []string
}

// Generator produces a text completion for a prompt.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}
