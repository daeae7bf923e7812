package backend

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/internal/config"
)

// ggufMagic is the header of llama.cpp GGUF model files.
var ggufMagic = []byte("GGUF")

// ProbeFunc reports whether the local model file at path is usable.
type ProbeFunc func(path string) error

// ProbeModelFile checks that path is a readable regular file starting with the GGUF magic.
func ProbeModelFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("model file %s is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("model file: %w", err)
	}
	defer f.Close()
	header := make([]byte, len(ggufMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("model file %s: reading header: %w", path, err)
	}
	if !bytes.Equal(header, ggufMagic) {
		return fmt.Errorf("model file %s is not a GGUF model", path)
	}
	return nil
}

// Initialize picks the backend mode from configuration. An explicit mode wins
// when its prerequisites hold; an explicit mode whose prerequisites fail selects
// ModeFallback rather than another backend. Without an explicit mode: a usable
// local model file selects ModeLocalModel, else a remote API key selects
// ModeRemoteAPI, else ModeFallback. probe nil uses ProbeModelFile.
func Initialize(cfg config.ModelConfig, probe ProbeFunc, logger *zap.Logger) Mode {
	if probe == nil {
		probe = ProbeModelFile
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	localErr := localAvailable(cfg, probe)
	remoteErr := remoteAvailable(cfg)

	if cfg.Mode != "" {
		forced, err := ParseMode(cfg.Mode)
		if err != nil {
			logger.Warn("unknown backend mode, selecting automatically", zap.String("mode", cfg.Mode))
		} else {
			var prereq error
			switch forced {
			case ModeLocalModel:
				prereq = localErr
			case ModeRemoteAPI:
				prereq = remoteErr
			}
			if prereq != nil {
				logger.Warn("configured backend unavailable, using fallback scorer",
					zap.String("mode", forced.String()), zap.Error(prereq))
				return ModeFallback
			}
			logger.Info("backend selected", zap.String("mode", forced.String()), zap.String("reason", "configured"))
			return forced
		}
	}

	switch {
	case localErr == nil:
		logger.Info("backend selected", zap.String("mode", ModeLocalModel.String()), zap.String("model_path", cfg.ModelPath))
		return ModeLocalModel
	case remoteErr == nil:
		if cfg.ModelPath != "" {
			logger.Warn("local model unavailable", zap.String("model_path", cfg.ModelPath), zap.Error(localErr))
		}
		logger.Info("backend selected", zap.String("mode", ModeRemoteAPI.String()), zap.String("endpoint", cfg.APIEndpoint))
		return ModeRemoteAPI
	default:
		logger.Info("backend selected", zap.String("mode", ModeFallback.String()), zap.String("reason", "no model configured"))
		return ModeFallback
	}
}

func localAvailable(cfg config.ModelConfig, probe ProbeFunc) error {
	if cfg.ModelPath == "" {
		return fmt.Errorf("no local model path configured")
	}
	return probe(cfg.ModelPath)
}

func remoteAvailable(cfg config.ModelConfig) error {
	if cfg.APIKey.Value() == "" {
		return fmt.Errorf("no API key configured")
	}
	if cfg.APIEndpoint == "" {
		return fmt.Errorf("no API endpoint configured")
	}
	return nil
}
