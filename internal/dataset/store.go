// Package dataset loads the curated dataset catalogue and serves read-only queries over it.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/ausdata/internal/models"
)

var (
	// ErrDataFormat is returned when a record is missing a required field or has an invalid value.
	ErrDataFormat = errors.New("invalid dataset source")
	// ErrDuplicateID is returned when two records share an id.
	ErrDuplicateID = errors.New("duplicate dataset id")
)

// Format is the encoding of a dataset source.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the source format from the file extension; anything
// other than .yaml/.yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Store is an immutable, in-memory dataset collection. It is safe for concurrent reads.
type Store struct {
	datasets []models.Dataset
	byID     map[string]int
}

// LoadFile reads and parses the dataset source at path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset source: %w", err)
	}
	defer f.Close()
	store, err := Load(f, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Load parses a dataset source in the given format.
// It fails with ErrDataFormat for malformed records and ErrDuplicateID for repeated ids.
func Load(r io.Reader, format Format) (*Store, error) {
	var (
		records []map[string]any
		err     error
	)
	switch format {
	case FormatYAML:
		records, err = decodeYAML(r)
	default:
		records, err = decodeJSON(r)
	}
	if err != nil {
		return nil, err
	}
	datasets := make([]models.Dataset, 0, len(records))
	for i, rec := range records {
		ds, err := recordToDataset(i, rec)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return New(datasets)
}

// New builds a store from already-decoded datasets, rejecting duplicate ids.
func New(datasets []models.Dataset) (*Store, error) {
	s := &Store{
		datasets: make([]models.Dataset, len(datasets)),
		byID:     make(map[string]int, len(datasets)),
	}
	for i, ds := range datasets {
		if ds.ID == "" {
			return nil, fmt.Errorf("%w: record %d: missing field \"id\"", ErrDataFormat, i)
		}
		if prev, ok := s.byID[ds.ID]; ok {
			return nil, fmt.Errorf("%w: %q (records %d and %d)", ErrDuplicateID, ds.ID, prev, i)
		}
		s.byID[ds.ID] = i
		s.datasets[i] = cloneDataset(ds)
	}
	return s, nil
}

// Len returns the number of datasets.
func (s *Store) Len() int {
	return len(s.datasets)
}

// All returns every dataset in source order.
func (s *Store) All() []models.Dataset {
	out := make([]models.Dataset, len(s.datasets))
	for i, ds := range s.datasets {
		out[i] = cloneDataset(ds)
	}
	return out
}

// Get returns the dataset with the given id.
func (s *Store) Get(id string) (models.Dataset, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Dataset{}, false
	}
	return cloneDataset(s.datasets[i]), true
}

// Filter returns datasets matching all non-nil predicates, in source order.
// Topic, owner, year and data type match exactly; coverage matches as a substring.
func (s *Store) Filter(f models.DatasetFilter) []models.Dataset {
	out := make([]models.Dataset, 0)
	for _, ds := range s.datasets {
		if f.Topic != nil && ds.Topic != *f.Topic {
			continue
		}
		if f.Owner != nil && ds.Owner != *f.Owner {
			continue
		}
		if f.Year != nil && ds.Year != *f.Year {
			continue
		}
		if f.Coverage != nil && !strings.Contains(ds.Coverage, *f.Coverage) {
			continue
		}
		if f.DataType != nil && ds.DataType != *f.DataType {
			continue
		}
		out = append(out, cloneDataset(ds))
	}
	return out
}

// Facets returns the sorted distinct topics and owners.
func (s *Store) Facets() models.Facets {
	topics := make(map[string]struct{})
	owners := make(map[string]struct{})
	for _, ds := range s.datasets {
		topics[ds.Topic] = struct{}{}
		owners[ds.Owner] = struct{}{}
	}
	return models.Facets{Topics: sortedKeys(topics), Owners: sortedKeys(owners)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func cloneDataset(ds models.Dataset) models.Dataset {
	if ds.Tags != nil {
		ds.Tags = append([]string(nil), ds.Tags...)
	}
	return ds
}
