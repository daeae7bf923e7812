package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/internal/backend"
	"github.com/hyperjump/ausdata/internal/config"
	"github.com/hyperjump/ausdata/internal/dataset"
	"github.com/hyperjump/ausdata/internal/llm"
	"github.com/hyperjump/ausdata/internal/matcher"
	"github.com/hyperjump/ausdata/internal/search"
)

// newGenerator returns the model client for mode, or nil for ModeFallback.
func newGenerator(mode backend.Mode, cfg config.ModelConfig) (llm.Generator, error) {
	switch mode {
	case backend.ModeLocalModel:
		return llm.NewLocal(cfg)
	case backend.ModeRemoteAPI:
		return llm.NewRemote(cfg)
	default:
		return nil, nil
	}
}

func matcherConfig(cfg *config.Config) matcher.Config {
	return matcher.Config{
		Timeout:             time.Duration(cfg.Model.TimeoutMS) * time.Millisecond,
		DefaultLimit:        cfg.Search.ResultLimit,
		MaxPromptCandidates: cfg.Model.MaxPromptCandidates,
		MaxTokens:           cfg.Model.MaxTokens,
		Temperature:         cfg.Model.Temperature,
	}
}

// initializeService loads the catalogue, selects the backend and assembles the
// discovery pipeline. probe nil checks the model file on disk.
func initializeService(cfg *config.Config, probe backend.ProbeFunc, logger *zap.Logger) (*search.Service, error) {
	store, err := dataset.LoadFile(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}
	logger.Info("datasets loaded", zap.String("path", cfg.Data.Path), zap.Int("count", store.Len()))

	mode := backend.Initialize(cfg.Model, probe, logger)
	gen, err := newGenerator(mode, cfg.Model)
	if err != nil {
		logger.Warn("model client unavailable, using fallback scorer", zap.String("mode", mode.String()), zap.Error(err))
		mode, gen = backend.ModeFallback, nil
	}
	state := backend.NewState(mode, cfg.Model.FailureThreshold)
	m := matcher.New(gen, state, matcherConfig(cfg), logger)

	svc, err := search.NewService(store, m, cfg.Search, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search: %w", err)
	}
	return svc, nil
}
