package backend

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hyperjump/ausdata/internal/config"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"LOCAL_MODEL", ModeLocalModel, false},
		{"local", ModeLocalModel, false},
		{"remote_api", ModeRemoteAPI, false},
		{" Fallback ", ModeFallback, false},
		{"gpu", ModeFallback, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if ModeRemoteAPI.String() != "REMOTE_API" {
		t.Errorf("String() = %q", ModeRemoteAPI.String())
	}
}

func TestState_TripsAfterThreshold(t *testing.T) {
	s := NewState(ModeRemoteAPI, 3)
	if s.RecordFailure() || s.RecordFailure() {
		t.Fatal("tripped before threshold")
	}
	if s.Mode() != ModeRemoteAPI {
		t.Fatalf("mode changed early: %v", s.Mode())
	}
	if !s.RecordFailure() {
		t.Fatal("third failure should trip")
	}
	if s.Mode() != ModeFallback {
		t.Errorf("mode = %v, want FALLBACK", s.Mode())
	}
	if s.RecordFailure() {
		t.Error("already in fallback; no further trip expected")
	}
	s.RecordSuccess()
	if s.Mode() != ModeFallback {
		t.Error("fallback must be permanent")
	}
}

func TestState_SuccessResetsCount(t *testing.T) {
	s := NewState(ModeLocalModel, 2)
	s.RecordFailure()
	s.RecordSuccess()
	if s.Failures() != 0 {
		t.Fatalf("failures = %d after success", s.Failures())
	}
	if s.RecordFailure() {
		t.Error("single failure after reset should not trip")
	}
	if s.Mode() != ModeLocalModel {
		t.Errorf("mode = %v", s.Mode())
	}
}

func TestState_DefaultThreshold(t *testing.T) {
	s := NewState(ModeRemoteAPI, 0)
	if s.Threshold() != DefaultFailureThreshold {
		t.Errorf("threshold = %d", s.Threshold())
	}
}

func TestState_ConcurrentTripHasOneWinner(t *testing.T) {
	s := NewState(ModeRemoteAPI, 3)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.RecordFailure() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if s.Mode() != ModeFallback {
		t.Errorf("mode = %v", s.Mode())
	}
}

func okProbe(string) error  { return nil }
func badProbe(string) error { return errors.New("missing") }

func TestInitialize(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.ModelConfig
		probe ProbeFunc
		want  Mode
	}{
		{"local model present", config.ModelConfig{ModelPath: "m.gguf", APIKey: "k", APIEndpoint: "https://x"}, okProbe, ModeLocalModel},
		{"local missing, remote configured", config.ModelConfig{ModelPath: "m.gguf", APIKey: "k", APIEndpoint: "https://x"}, badProbe, ModeRemoteAPI},
		{"nothing configured", config.ModelConfig{}, okProbe, ModeFallback},
		{"local missing, no remote", config.ModelConfig{ModelPath: "m.gguf"}, badProbe, ModeFallback},
		{"forced fallback", config.ModelConfig{Mode: "FALLBACK", ModelPath: "m.gguf"}, okProbe, ModeFallback},
		{"forced remote", config.ModelConfig{Mode: "REMOTE_API", ModelPath: "m.gguf", APIKey: "k", APIEndpoint: "https://x"}, okProbe, ModeRemoteAPI},
		{"forced local unavailable", config.ModelConfig{Mode: "LOCAL_MODEL", ModelPath: "m.gguf", APIKey: "k", APIEndpoint: "https://x"}, badProbe, ModeFallback},
		{"unknown forced mode selects automatically", config.ModelConfig{Mode: "gpu", APIKey: "k", APIEndpoint: "https://x"}, badProbe, ModeRemoteAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Initialize(tt.cfg, tt.probe, nil); got != tt.want {
				t.Errorf("Initialize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeModelFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "phi-2.gguf")
	if err := os.WriteFile(good, []byte("GGUF\x03\x00\x00\x00rest"), 0600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	short := filepath.Join(dir, "short.gguf")
	if err := os.WriteFile(short, []byte("GG"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := ProbeModelFile(good); err != nil {
		t.Errorf("good model: %v", err)
	}
	for _, p := range []string{bad, short, dir, filepath.Join(dir, "missing.gguf")} {
		if err := ProbeModelFile(p); err == nil {
			t.Errorf("ProbeModelFile(%s) should fail", p)
		}
	}
}
