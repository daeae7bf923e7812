package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/ausdata/internal/models"
)

// Write encodes datasets in format. The output loads back with Load.
func Write(w io.Writer, datasets []models.Dataset, format Format) error {
	if datasets == nil {
		datasets = []models.Dataset{}
	}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(datasets); err != nil {
			return fmt.Errorf("failed to encode datasets: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(datasets); err != nil {
			return fmt.Errorf("failed to encode datasets: %w", err)
		}
		return nil
	}
}

// WriteFile writes datasets to path in the format its extension selects. The
// file is written beside path and renamed into place, so a watcher on path
// never reads a partial catalogue.
func WriteFile(path string, datasets []models.Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalogue directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".datasets-*")
	if err != nil {
		return fmt.Errorf("failed to create catalogue file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, datasets, FormatForPath(path)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalogue file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace catalogue file: %w", err)
	}
	return nil
}
