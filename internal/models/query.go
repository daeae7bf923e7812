package models

import "fmt"

// SearchRequest is a natural-language search request.
// Filter narrows the candidate datasets before matching.
type SearchRequest struct {
	Query  string        `json:"query"`
	Limit  int           `json:"limit,omitempty"`
	Filter DatasetFilter `json:"filter,omitempty"`
}

// Validate ensures the request has a query and normalizes the limit into
// [1, maxLimit], using defaultLimit when unset.
func (r *SearchRequest) Validate(defaultLimit, maxLimit int) error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if r.Limit <= 0 {
		r.Limit = defaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return nil
}

// CatalogueQuery is a browse request over the catalogue.
type CatalogueQuery struct {
	Text    string        `json:"q,omitempty"`
	Filter  DatasetFilter `json:"filter"`
	Page    int           `json:"page,omitempty"`
	PerPage int           `json:"per_page,omitempty"`
}

// Validate applies page defaults: page >= 1 and per page within [1, maxPerPage].
func (q *CatalogueQuery) Validate(defaultPerPage, maxPerPage int) {
	if defaultPerPage <= 0 {
		defaultPerPage = 20
	}
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
}
