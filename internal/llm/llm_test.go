package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/ausdata/internal/config"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
}

func TestOpenAI_Generate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "d1 | 0.9 | climate observations")
	defer srv.Close()

	gen, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	text, err := gen.Generate(context.Background(), "which datasets?", Options{Temperature: 0, MaxTokens: 64})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "d1 | 0.9 | climate observations" {
		t.Errorf("Generate() = %q", text)
	}
}

func TestOpenAI_GenerateServerError(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	gen, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if _, err := gen.Generate(context.Background(), "q", Options{}); !errors.Is(err, ErrBackendCall) {
		t.Errorf("Generate() error = %v, want ErrBackendCall", err)
	}
}

func TestNewOpenAI_Validation(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{Model: "m"}); err == nil {
		t.Error("expected error without base URL")
	}
	if _, err := NewOpenAI(OpenAIConfig{BaseURL: "http://localhost"}); err == nil {
		t.Error("expected error without model")
	}
	if _, err := NewRemote(config.ModelConfig{APIEndpoint: "https://api.example.com/v1", RemoteModel: "m"}); err == nil {
		t.Error("expected error for remote without API key")
	}
}

func TestNewLocalAndRemote_Names(t *testing.T) {
	cfg := config.ModelConfig{
		LocalEndpoint: "http://localhost:8081/v1",
		LocalModel:    "phi-2",
		APIEndpoint:   "https://api.example.com/v1",
		APIKey:        "sk-test",
		RemoteModel:   "gpt-4o-mini",
		TimeoutMS:     1000,
	}
	local, err := NewLocal(cfg)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	remote, err := NewRemote(cfg)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if local.Name() != "local" || remote.Name() != "remote" {
		t.Errorf("names: %s, %s", local.Name(), remote.Name())
	}
}

func TestMock(t *testing.T) {
	m := &Mock{Responses: []string{"first", "second"}}
	ctx := context.Background()
	for _, want := range []string{"first", "second", "second"} {
		got, err := m.Generate(ctx, "p", Options{})
		if err != nil || got != want {
			t.Errorf("Generate() = %q, %v; want %q", got, err, want)
		}
	}
	if m.Calls() != 3 || len(m.Prompts()) != 3 {
		t.Errorf("calls = %d, prompts = %d", m.Calls(), len(m.Prompts()))
	}

	slow := &Mock{Responses: []string{"late"}, Delay: time.Second}
	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := slow.Generate(cctx, "p", Options{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("slow mock error = %v", err)
	}
}
