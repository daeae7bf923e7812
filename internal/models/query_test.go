package models

import (
	"testing"
)

func TestSearchRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       *SearchRequest
		wantErr   bool
		wantLimit int
	}{
		{"empty query", &SearchRequest{Query: ""}, true, 0},
		{"valid query", &SearchRequest{Query: "climate", Limit: 5}, false, 5},
		{"sets default limit", &SearchRequest{Query: "x", Limit: 0}, false, 10},
		{"caps limit at max", &SearchRequest{Query: "x", Limit: 200}, false, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(10, 50)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.req.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", tt.req.Limit, tt.wantLimit)
			}
		})
	}
}

func TestCatalogueQuery_Validate(t *testing.T) {
	q := &CatalogueQuery{Page: -3, PerPage: 0}
	q.Validate(20, 100)
	if q.Page != 1 || q.PerPage != 20 {
		t.Errorf("defaults: got page=%d per_page=%d", q.Page, q.PerPage)
	}
	q = &CatalogueQuery{Page: 2, PerPage: 500}
	q.Validate(20, 100)
	if q.PerPage != 100 {
		t.Errorf("per_page cap: got %d", q.PerPage)
	}
}

func TestDatasetFilter_Empty(t *testing.T) {
	if !(DatasetFilter{}).Empty() {
		t.Error("zero filter should be empty")
	}
	topic := "climate"
	if (DatasetFilter{Topic: &topic}).Empty() {
		t.Error("filter with topic should not be empty")
	}
}
