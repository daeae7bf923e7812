// Package models defines core data structures for datasets, match results, and search responses.
package models

// Dataset is a curated metadata record describing one open government data resource.
// Records are immutable once loaded.
type Dataset struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Owner       string   `json:"owner" yaml:"owner"`
	Topic       string   `json:"topic" yaml:"topic"`
	Year        int      `json:"year" yaml:"year"`
	Coverage    string   `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	DataType    string   `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DatasetFilter holds optional predicates for filtering datasets.
// A nil field means the predicate is not applied.
type DatasetFilter struct {
	Topic    *string `json:"topic,omitempty"`
	Owner    *string `json:"owner,omitempty"`
	Year     *int    `json:"year,omitempty"`
	Coverage *string `json:"coverage,omitempty"` // substring match
	DataType *string `json:"data_type,omitempty"`
}

// Empty reports whether no predicate is set.
func (f DatasetFilter) Empty() bool {
	return f.Topic == nil && f.Owner == nil && f.Year == nil && f.Coverage == nil && f.DataType == nil
}

// Facets lists the distinct topic and owner values in the catalogue.
type Facets struct {
	Topics []string `json:"topics"`
	Owners []string `json:"owners"`
}
