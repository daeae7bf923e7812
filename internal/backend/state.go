// Package backend selects the relevance backend mode and tracks its health for the process lifetime.
package backend

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Mode is the strategy used to answer relevance queries.
type Mode int32

const (
	// ModeFallback uses the deterministic keyword-overlap scorer only.
	ModeFallback Mode = iota
	// ModeLocalModel calls a language model served from a local model file.
	ModeLocalModel
	// ModeRemoteAPI calls a remote language model API.
	ModeRemoteAPI
)

// DefaultFailureThreshold is the number of consecutive failures that trips a
// backend into permanent fallback.
const DefaultFailureThreshold = 3

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeFallback:
		return "FALLBACK"
	case ModeLocalModel:
		return "LOCAL_MODEL"
	case ModeRemoteAPI:
		return "REMOTE_API"
	default:
		return "UNKNOWN"
	}
}

// ParseMode parses a mode name. It accepts the canonical names and the short
// forms "local", "remote" and "fallback", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOCAL_MODEL", "LOCAL":
		return ModeLocalModel, nil
	case "REMOTE_API", "REMOTE":
		return ModeRemoteAPI, nil
	case "FALLBACK", "NONE", "OFF":
		return ModeFallback, nil
	default:
		return ModeFallback, fmt.Errorf("unknown backend mode %q", s)
	}
}

// State holds the process-wide backend mode and the consecutive failure count.
// All methods are safe for concurrent use. Once the mode becomes ModeFallback it
// never changes again.
type State struct {
	mode      atomic.Int32
	failures  atomic.Int32
	threshold int32
}

// NewState returns a state starting in mode. threshold <= 0 uses DefaultFailureThreshold.
func NewState(mode Mode, threshold int) *State {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	s := &State{threshold: int32(threshold)}
	s.mode.Store(int32(mode))
	return s
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	return Mode(s.mode.Load())
}

// Failures returns the current consecutive failure count.
func (s *State) Failures() int {
	return int(s.failures.Load())
}

// Threshold returns the consecutive failure count that trips permanent fallback.
func (s *State) Threshold() int {
	return int(s.threshold)
}

// RecordSuccess resets the consecutive failure count.
func (s *State) RecordSuccess() {
	s.failures.Store(0)
}

// RecordFailure counts one failure of the current mode. It reports true for the
// single caller whose failure switches the mode to ModeFallback.
func (s *State) RecordFailure() bool {
	n := s.failures.Add(1)
	if n < s.threshold {
		return false
	}
	cur := s.mode.Load()
	if Mode(cur) == ModeFallback {
		return false
	}
	return s.mode.CompareAndSwap(cur, int32(ModeFallback))
}
