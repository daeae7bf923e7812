package llm

import (
	"context"
	"sync"
	"time"
)

// Mock is a scripted Generator for tests. Each call returns the next response in
// Responses (the last one repeats); Err, when set, is returned instead. Delay
// blocks each call until it elapses or the context is done.
type Mock struct {
	Responses []string
	Err       error
	Delay     time.Duration

	mu      sync.Mutex
	calls   int
	prompts []string
}

// Name identifies the mock backend.
func (m *Mock) Name() string { return "mock" }

// Generate records the prompt and returns the scripted response.
func (m *Mock) Generate(ctx context.Context, prompt string, _ Options) (string, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

// Calls returns how many times Generate was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the prompts received so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
