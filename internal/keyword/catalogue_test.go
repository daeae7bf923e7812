package keyword

import (
	"testing"

	"github.com/hyperjump/ausdata/internal/models"
)

func testDatasets() []models.Dataset {
	return []models.Dataset{
		{ID: "d1", Title: "Climate Sydney", Description: "Daily rainfall and temperature observations", Owner: "Bureau of Meteorology", Topic: "climate", Year: 2024},
		{ID: "d2", Title: "Transport fares", Description: "Opal fare tables for buses and trains", Owner: "Transport for NSW", Topic: "transport", Year: 2023},
		{ID: "d3", Title: "Rainfall outlook", Description: "Seasonal outlook", Owner: "Bureau of Meteorology", Topic: "climate", Year: 2022},
	}
}

func TestCatalogueIndex_Search(t *testing.T) {
	idx, err := NewCatalogueIndex(testDatasets())
	if err != nil {
		t.Fatalf("NewCatalogueIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title and description hits", "rainfall", []string{"d1", "d3"}},
		{"case insensitive", "OPAL", []string{"d2"}},
		{"all terms required", "rainfall buses", nil},
		{"no match", "hospital", nil},
		{"empty query", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Search(tt.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for _, id := range tt.want {
				if _, ok := got[id]; !ok {
					t.Errorf("Search(%q) missing %s", tt.query, id)
				}
			}
		})
	}
}

func TestCatalogueIndex_Empty(t *testing.T) {
	idx, err := NewCatalogueIndex(nil)
	if err != nil {
		t.Fatalf("NewCatalogueIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()
	got, err := idx.Search("climate")
	if err != nil || len(got) != 0 {
		t.Errorf("Search on empty index = %v, %v", got, err)
	}
}
