package main

import (
	"context"
	"errors"
	"flag"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/internal/config"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/server"
)

const testCatalogue = `[
  {"id": 1, "title": "Climate Sydney", "description": "Daily temperature observations for Sydney", "owner": "Bureau of Meteorology", "topic": "climate", "year": 2024, "coverage": "Sydney, NSW"},
  {"id": 2, "title": "Transport fares", "description": "Opal fare tables", "owner": "Transport for NSW", "topic": "transport", "year": 2023}
]`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"AUSDATA_DATA_PATH", "AUSDATA_MODEL_MODE", "LOCAL_MODEL_PATH", "LOCAL_MODEL_ENDPOINT",
		"OPENAI_API_BASE", "OPENAI_API_KEY", "AUSDATA_TIMEOUT_MS", "AUSDATA_FAILURE_THRESHOLD",
		"AUSDATA_RESULT_LIMIT", "AUSDATA_MAX_QUERY_LENGTH", "AUSDATA_DEBUG",
	} {
		t.Setenv(name, "")
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "datasets.json"), []byte(testCatalogue), 0600); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	content := `
data:
  path: "datasets.json"
model:
  mode: FALLBACK
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"flags after query are moved first", []string{"rainfall sydney", "-limit", "5"}, []string{"-limit", "5", "rainfall sydney"}},
		{"flags first returns unchanged", []string{"-limit", "5", "rainfall sydney"}, []string{"-limit", "5", "rainfall sydney"}},
		{"query only returns unchanged", []string{"rainfall sydney"}, []string{"rainfall sydney"}},
		{"empty args returns unchanged", []string{}, []string{}},
		{"multiple positionals then flags", []string{"school", "enrolments", "-topic", "education"}, []string{"-topic", "education", "school", "enrolments"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"rainfall"}, "rainfall"},
		{"multiple words", []string{"rainfall", "sydney"}, "rainfall sydney"},
		{"quoted phrase", []string{"rainfall sydney"}, "rainfall sydney"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSearchQuery(tt.args); got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestFilterFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := addFilterFlags(fs)
	if err := fs.Parse([]string{"-topic", "climate", "-year", "2024"}); err != nil {
		t.Fatal(err)
	}
	got := f.filter()
	if got.Topic == nil || *got.Topic != "climate" || got.Year == nil || *got.Year != 2024 {
		t.Errorf("filter = %+v", got)
	}
	if got.Owner != nil || got.Coverage != nil || got.DataType != nil {
		t.Errorf("unset flags must stay nil: %+v", got)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	clearEnv(t)
	configPath := writeTestConfig(t)
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Data.Path != filepath.Join(filepath.Dir(configPath), "datasets.json") {
		t.Errorf("data path = %s", cfg.Data.Path)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	clearEnv(t)
	configPath := writeTestConfig(t)
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(filepath.Dir(configPath)); err != nil {
		t.Fatal(err)
	}
	_, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
}

func TestInitializeService(t *testing.T) {
	clearEnv(t)
	cfg, _, err := loadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	svc, err := initializeService(cfg, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	if svc.Len() != 2 || svc.Backend().Mode != "FALLBACK" {
		t.Fatalf("len=%d backend=%+v", svc.Len(), svc.Backend())
	}
	resp, err := svc.Search(context.Background(), models.SearchRequest{Query: "sydney temperature"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Dataset.ID != "1" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestInitializeService_RemoteWithoutKeyFallsBack(t *testing.T) {
	clearEnv(t)
	cfg, _, err := loadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Model.Mode = ""
	svc, err := initializeService(cfg, func(string) error { return errors.New("no model") }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	if svc.Backend().Mode != "FALLBACK" {
		t.Errorf("mode = %s", svc.Backend().Mode)
	}
}

func TestSearchAndBackendViaHTTP(t *testing.T) {
	clearEnv(t)
	cfg, _, err := loadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	svc, err := initializeService(cfg, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	ts := httptest.NewServer(server.NewServer(svc, &cfg.Server, zap.NewNop()).Routes())
	defer ts.Close()

	resp, err := searchViaHTTP(ts.URL, models.SearchRequest{Query: "opal fare"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Dataset.ID != "2" {
		t.Errorf("results = %+v", resp.Results)
	}
	if _, err := searchViaHTTP(ts.URL, models.SearchRequest{Query: "  "}); err == nil {
		t.Error("expected error for empty query")
	}

	status, err := backendViaHTTP(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if status.Mode != "FALLBACK" {
		t.Errorf("status = %+v", status)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatal(err)
	}
	if err := writeDefaultConfig(path, false); !errors.Is(err, errConfigExists) {
		t.Errorf("second write: err = %v", err)
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("forced write: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Data.Watch || cfg.Server.Port != 3000 || cfg.Model.FailureThreshold != 3 {
		t.Errorf("config = %+v", cfg)
	}
}
