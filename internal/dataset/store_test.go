package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/ausdata/internal/models"
)

const sampleJSON = `[
  {"id": "d1", "title": "Climate Sydney", "description": "Daily temperature and rainfall observations.", "owner": "Bureau of Meteorology", "topic": "climate", "year": 2024, "coverage": "Sydney, NSW"},
  {"id": "d2", "title": "Transport fares", "description": "Opal fare tables.", "owner": "Transport for NSW", "topic": "transport", "year": 2023, "coverage": "New South Wales", "data_type": "CSV"},
  {"id": 17, "title": "Census population", "description": "Population counts by region.", "owner": "Australian Bureau of Statistics", "topic": "population", "year": "2021"}
]`

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestLoad_RoundTripFilterByTopic(t *testing.T) {
	src := `[{"id":"d1","title":"Climate Sydney","description":"x","owner":"BOM","topic":"climate","year":2024,"coverage":"Sydney"}]`
	store, err := Load(strings.NewReader(src), FormatJSON)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := store.Filter(models.DatasetFilter{Topic: strPtr("climate")})
	if len(got) != 1 {
		t.Fatalf("Filter(topic=climate) returned %d records, want 1", len(got))
	}
	want := models.Dataset{ID: "d1", Title: "Climate Sydney", Description: "x", Owner: "BOM", Topic: "climate", Year: 2024, Coverage: "Sydney"}
	if got[0].ID != want.ID || got[0].Title != want.Title || got[0].Year != want.Year || got[0].Coverage != want.Coverage {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
}

func TestLoad_AllPreservesSourceOrder(t *testing.T) {
	store, err := Load(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	all := store.All()
	ids := make([]string, len(all))
	for i, ds := range all {
		ids[i] = ds.ID
	}
	if strings.Join(ids, ",") != "d1,d2,17" {
		t.Errorf("All() ids = %v", ids)
	}
	if all[2].Year != 2021 {
		t.Errorf("numeric string year: got %d, want 2021", all[2].Year)
	}
	if all[2].Coverage != "" {
		t.Errorf("coverage should default to empty, got %q", all[2].Coverage)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"missing title", `[{"id":"a","description":"d","owner":"o","topic":"t","year":2020}]`, ErrDataFormat},
		{"missing id", `[{"title":"x","description":"d","owner":"o","topic":"t","year":2020}]`, ErrDataFormat},
		{"missing year", `[{"id":"a","title":"x","description":"d","owner":"o","topic":"t"}]`, ErrDataFormat},
		{"year not integer", `[{"id":"a","title":"x","description":"d","owner":"o","topic":"t","year":"20x4"}]`, ErrDataFormat},
		{"year fractional", `[{"id":"a","title":"x","description":"d","owner":"o","topic":"t","year":2020.5}]`, ErrDataFormat},
		{"topic wrong type", `[{"id":"a","title":"x","description":"d","owner":"o","topic":3,"year":2020}]`, ErrDataFormat},
		{"not an array", `{"id":"a"}`, ErrDataFormat},
		{"duplicate id", `[{"id":"a","title":"x","description":"d","owner":"o","topic":"t","year":2020},{"id":"a","title":"y","description":"d","owner":"o","topic":"t","year":2021}]`, ErrDuplicateID},
		{"duplicate numeric and string id", `[{"id":5,"title":"x","description":"d","owner":"o","topic":"t","year":2020},{"id":"5","title":"y","description":"d","owner":"o","topic":"t","year":2021}]`, ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src), FormatJSON)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	store, err := Load(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tests := []struct {
		name   string
		filter models.DatasetFilter
		want   []string
	}{
		{"no predicates", models.DatasetFilter{}, []string{"d1", "d2", "17"}},
		{"owner exact", models.DatasetFilter{Owner: strPtr("Transport for NSW")}, []string{"d2"}},
		{"owner not substring", models.DatasetFilter{Owner: strPtr("Transport")}, nil},
		{"year", models.DatasetFilter{Year: intPtr(2021)}, []string{"17"}},
		{"coverage substring", models.DatasetFilter{Coverage: strPtr("NSW")}, []string{"d1"}},
		{"data type", models.DatasetFilter{DataType: strPtr("CSV")}, []string{"d2"}},
		{"combined", models.DatasetFilter{Topic: strPtr("climate"), Year: intPtr(2023)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.Filter(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i, ds := range got {
				if ds.ID != tt.want[i] {
					t.Errorf("record %d: got %s, want %s", i, ds.ID, tt.want[i])
				}
			}
		})
	}
}

func TestStore_GetAndFacets(t *testing.T) {
	store, err := Load(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ds, ok := store.Get("17")
	if !ok || ds.Title != "Census population" {
		t.Errorf("Get(17) = %+v, %v", ds, ok)
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
	facets := store.Facets()
	if strings.Join(facets.Topics, ",") != "climate,population,transport" {
		t.Errorf("topics = %v", facets.Topics)
	}
	if len(facets.Owners) != 3 {
		t.Errorf("owners = %v", facets.Owners)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store, err := New([]models.Dataset{{ID: "a", Title: "A", Tags: []string{"x"}}})
	if err != nil {
		t.Fatal(err)
	}
	all := store.All()
	all[0].Title = "changed"
	all[0].Tags[0] = "changed"
	ds, _ := store.Get("a")
	if ds.Title != "A" || ds.Tags[0] != "x" {
		t.Errorf("store was mutated through All(): %+v", ds)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datasets.yaml")
	content := `
- id: d1
  title: Climate Sydney
  description: Daily observations
  owner: Bureau of Meteorology
  topic: climate
  year: 2024
  coverage: Sydney
  tags: [weather, rainfall]
- id: 2
  title: Transport fares
  description: Fare tables
  owner: Transport for NSW
  topic: transport
  year: 2023
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
	ds, ok := store.Get("2")
	if !ok || ds.Year != 2023 {
		t.Errorf("Get(2) = %+v, %v", ds, ok)
	}
	d1, _ := store.Get("d1")
	if len(d1.Tags) != 2 || d1.Tags[1] != "rainfall" {
		t.Errorf("tags = %v", d1.Tags)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("a/b.YML") != FormatYAML {
		t.Error("yml should be YAML")
	}
	if FormatForPath("datasets.json") != FormatJSON {
		t.Error("json should be JSON")
	}
}
