package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/hyperjump/ausdata/internal/config"
)

// localToken is sent to local OpenAI-compatible servers that do not check authentication.
const localToken = "none"

// OpenAI generates text through an OpenAI-compatible completion API. The same
// client serves the remote API and a local llama.cpp server hosting the model file.
type OpenAI struct {
	model llms.Model
	name  string
}

// OpenAIConfig configures an OpenAI-compatible client.
type OpenAIConfig struct {
	Name    string
	BaseURL string
	Token   string
	Model   string
	// HTTPClient is optional; its timeout bounds connection setup and reads.
	HTTPClient *http.Client
}

// NewOpenAI creates a client for an OpenAI-compatible endpoint.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm: base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	token := cfg.Token
	if token == "" {
		token = localToken
	}
	opts := []openai.Option{
		openai.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, openai.WithHTTPClient(cfg.HTTPClient))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: creating client: %w", err)
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	return &OpenAI{model: client, name: name}, nil
}

// NewLocal creates a client for the local OpenAI-compatible server that hosts the model file.
func NewLocal(cfg config.ModelConfig) (*OpenAI, error) {
	return NewOpenAI(OpenAIConfig{
		Name:       "local",
		BaseURL:    cfg.LocalEndpoint,
		Model:      cfg.LocalModel,
		HTTPClient: httpClient(cfg),
	})
}

// NewRemote creates a client for the remote API.
func NewRemote(cfg config.ModelConfig) (*OpenAI, error) {
	if cfg.APIKey.Value() == "" {
		return nil, fmt.Errorf("llm: remote API key is required")
	}
	return NewOpenAI(OpenAIConfig{
		Name:       "remote",
		BaseURL:    cfg.APIEndpoint,
		Token:      cfg.APIKey.Value(),
		Model:      cfg.RemoteModel,
		HTTPClient: httpClient(cfg),
	})
}

// httpClient gives the transport a ceiling above the matcher's own per-call
// deadline so abandoned calls do not hold connections indefinitely.
func httpClient(cfg config.ModelConfig) *http.Client {
	timeout := 2 * time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Name returns the backend name.
func (o *OpenAI) Name() string { return o.name }

// Generate sends prompt as a single user message and returns the completion text.
func (o *OpenAI) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if len(opts.Stop) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(opts.Stop))
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBackendCall, o.name, err)
	}
	return text, nil
}
