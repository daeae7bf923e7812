package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Data.Path == "" {
		cfg.Data.Path = "./data/datasets.json"
	}
	if cfg.Model.LocalEndpoint == "" {
		cfg.Model.LocalEndpoint = "http://localhost:8081/v1"
	}
	if cfg.Model.LocalModel == "" {
		cfg.Model.LocalModel = "phi-2"
	}
	if cfg.Model.APIEndpoint == "" {
		cfg.Model.APIEndpoint = "https://api.openai.com/v1"
	}
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Model.RemoteModel == "" {
		cfg.Model.RemoteModel = "gpt-4o-mini"
	}
	if cfg.Model.TimeoutMS == 0 {
		cfg.Model.TimeoutMS = 15000
	}
	if cfg.Model.FailureThreshold == 0 {
		cfg.Model.FailureThreshold = 3
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = 256
	}
	if cfg.Model.MaxPromptCandidates == 0 {
		cfg.Model.MaxPromptCandidates = 40
	}
	if cfg.Search.ResultLimit == 0 {
		cfg.Search.ResultLimit = 10
	}
	if cfg.Search.MaxResultLimit == 0 {
		cfg.Search.MaxResultLimit = 50
	}
	if cfg.Search.MaxQueryLength == 0 {
		cfg.Search.MaxQueryLength = 500
	}
	if cfg.Search.PerPage == 0 {
		cfg.Search.PerPage = 20
	}
	if cfg.Search.MaxPerPage == 0 {
		cfg.Search.MaxPerPage = 100
	}
}

// ApplyEnv overrides cfg from environment variables read through getenv.
// Unset or empty variables leave the config unchanged.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", name, v)
		}
		*dst = n
		return nil
	}

	str("AUSDATA_DATA_PATH", &cfg.Data.Path)
	str("AUSDATA_MODEL_MODE", &cfg.Model.Mode)
	str("LOCAL_MODEL_PATH", &cfg.Model.ModelPath)
	str("LOCAL_MODEL_ENDPOINT", &cfg.Model.LocalEndpoint)
	str("OPENAI_API_BASE", &cfg.Model.APIEndpoint)
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = cfg.Model.ResolvedAPIKey(getenv)
	}
	for name, dst := range map[string]*int{
		"AUSDATA_TIMEOUT_MS":        &cfg.Model.TimeoutMS,
		"AUSDATA_FAILURE_THRESHOLD": &cfg.Model.FailureThreshold,
		"AUSDATA_RESULT_LIMIT":      &cfg.Search.ResultLimit,
		"AUSDATA_MAX_QUERY_LENGTH":  &cfg.Search.MaxQueryLength,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	if v := strings.TrimSpace(getenv("AUSDATA_DEBUG")); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUSDATA_DEBUG must be a boolean, got %q", v)
		}
		cfg.Debug = debug
	}
	return nil
}
