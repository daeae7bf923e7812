// Package ckan converts CKAN package_search results into catalogue datasets.
package ckan

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/ausdata/internal/models"
)

var (
	// ErrNotPackageSearch is returned for JSON that is neither a package_search
	// response nor a bare package array.
	ErrNotPackageSearch = errors.New("not a CKAN package_search response")
	// ErrUnsuccessful is returned when the API reports success=false.
	ErrUnsuccessful = errors.New("CKAN API reported success=false")

	// ErrNoTitle, ErrNoYear and ErrNoDataTypes explain why Transform skipped a package.
	ErrNoTitle     = errors.New("package has no title")
	ErrNoYear      = errors.New("package has no recognisable year")
	ErrNoDataTypes = errors.New("package has no resource formats")
)

// Organization is the publishing organisation of a package.
type Organization struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Group is a CKAN group; groups become the dataset topic.
type Group struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	DisplayName string `json:"display_name"`
}

// Tag is a free-form package keyword.
type Tag struct {
	Name string `json:"name"`
}

// Resource is one downloadable file or API of a package.
type Resource struct {
	Format           string `json:"format"`
	URL              string `json:"url"`
	DownloadURL      string `json:"download_url"`
	Created          string `json:"created"`
	LastModified     string `json:"last_modified"`
	MetadataModified string `json:"metadata_modified"`
}

// Package is the subset of a CKAN package record the importer reads.
type Package struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Title                 string        `json:"title"`
	Notes                 string        `json:"notes"`
	Description           string        `json:"description"`
	Author                string        `json:"author"`
	Maintainer            string        `json:"maintainer"`
	Organization          *Organization `json:"organization"`
	Groups                []Group       `json:"groups"`
	Tags                  []Tag         `json:"tags"`
	Resources             []Resource    `json:"resources"`
	SpatialCoverage       string        `json:"spatial_coverage"`
	Spatial               any           `json:"spatial"`
	TemporalCoverageFrom  any           `json:"temporal_coverage_from"`
	OriginalHarvestSource any           `json:"original_harvest_source"`
}

type searchResponse struct {
	Success *bool `json:"success"`
	Result  *struct {
		Count   *int      `json:"count"`
		Results []Package `json:"results"`
	} `json:"result"`
}

// ParsePage decodes one package_search response. The count is nil when the
// response does not report one.
func ParsePage(data []byte) ([]Package, *int, error) {
	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotPackageSearch, err)
	}
	if resp.Result == nil || resp.Result.Results == nil {
		return nil, nil, ErrNotPackageSearch
	}
	if resp.Success != nil && !*resp.Success {
		return nil, nil, ErrUnsuccessful
	}
	return resp.Result.Results, resp.Result.Count, nil
}

// ParsePackages decodes either a package_search response or a bare JSON array
// of packages, as saved by earlier exports.
func ParsePackages(data []byte) ([]Package, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var pkgs []Package
		if err := json.Unmarshal(data, &pkgs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotPackageSearch, err)
		}
		return pkgs, nil
	}
	pkgs, _, err := ParsePage(data)
	return pkgs, err
}

// maxExtensionLength admits extensions such as "geojson" and "parquet".
const maxExtensionLength = 8

var yearRe = regexp.MustCompile(`\b(?:19|20|21)\d{2}\b`)

// typeAliases normalises resource formats; unlisted formats are kept as is.
var typeAliases = map[string]string{"htm": "html"}

// Transform converts pkg into a dataset with the given id. Packages without a
// title or year are skipped; so are packages without resource formats unless
// keepEmptyTypes is set.
func Transform(pkg Package, id string, keepEmptyTypes bool) (models.Dataset, error) {
	title := clean(firstNonEmpty(pkg.Title, pkg.Name))
	if title == "" {
		return models.Dataset{}, ErrNoTitle
	}
	types := dataTypes(pkg.Resources)
	if types == "" && !keepEmptyTypes {
		return models.Dataset{}, ErrNoDataTypes
	}
	year, ok := guessYear(title, pkg.TemporalCoverageFrom, pkg.Resources)
	if !ok {
		return models.Dataset{}, ErrNoYear
	}

	ds := models.Dataset{
		ID:          id,
		Title:       title,
		Description: clean(firstNonEmpty(pkg.Notes, pkg.Description)),
		Owner:       owner(pkg),
		Topic:       topic(pkg.Groups),
		Year:        year,
		Coverage:    coverage(pkg),
		DataType:    types,
		URL:         sourceURL(pkg),
	}
	for _, tag := range pkg.Tags {
		if name := clean(tag.Name); name != "" {
			ds.Tags = append(ds.Tags, name)
		}
	}
	return ds, nil
}

// Convert transforms pkgs in order, numbering kept datasets from startID
// (1 when startID <= 0). It returns the datasets and the number skipped.
func Convert(pkgs []Package, startID int, keepEmptyTypes bool) ([]models.Dataset, int) {
	if startID <= 0 {
		startID = 1
	}
	out := make([]models.Dataset, 0, len(pkgs))
	skipped := 0
	next := startID
	for _, pkg := range pkgs {
		ds, err := Transform(pkg, strconv.Itoa(next), keepEmptyTypes)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, ds)
		next++
	}
	return out, skipped
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func owner(pkg Package) string {
	if pkg.Organization != nil {
		if org := clean(firstNonEmpty(pkg.Organization.Title, pkg.Organization.Name)); org != "" {
			return org
		}
	}
	return clean(firstNonEmpty(pkg.Author, pkg.Maintainer))
}

// topic joins group titles, dropping case-insensitive duplicates.
func topic(groups []Group) string {
	seen := make(map[string]struct{}, len(groups))
	var names []string
	for _, g := range groups {
		name := clean(firstNonEmpty(g.Title, g.DisplayName, g.Name))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func coverage(pkg Package) string {
	if c := clean(pkg.SpatialCoverage); c != "" {
		return c
	}
	// Spatial is often GeoJSON; only short plain strings are usable as text.
	if s, ok := pkg.Spatial.(string); ok {
		if c := clean(s); c != "" && len([]rune(c)) <= 120 {
			return c
		}
	}
	return ""
}

func sourceURL(pkg Package) string {
	if src, ok := pkg.OriginalHarvestSource.(map[string]any); ok {
		if href, ok := src["href"].(string); ok && strings.TrimSpace(href) != "" {
			return clean(href)
		}
	}
	if name := firstNonEmpty(pkg.Name, pkg.ID); name != "" {
		return "https://data.gov.au/data/dataset/" + name
	}
	return ""
}

// guessYear takes the first year in the title, then in the temporal coverage
// start, then the latest year among resource timestamps.
func guessYear(title string, temporalFrom any, resources []Resource) (int, bool) {
	if y, ok := findYear(title); ok {
		return y, true
	}
	if temporalFrom != nil {
		if y, ok := findYear(fmt.Sprint(temporalFrom)); ok {
			return y, true
		}
	}
	latest := 0
	for _, r := range resources {
		for _, v := range []string{r.LastModified, r.Created, r.MetadataModified} {
			if y, ok := findYear(v); ok && y > latest {
				latest = y
			}
		}
	}
	return latest, latest > 0
}

func findYear(s string) (int, bool) {
	m := yearRe.FindString(s)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	return y, err == nil
}

// dataTypes returns the sorted distinct lowercase formats and URL extensions
// of resources, joined with ", ".
func dataTypes(resources []Resource) string {
	set := make(map[string]struct{})
	add := func(t string) {
		t = strings.ToLower(clean(t))
		if t == "" {
			return
		}
		if alias, ok := typeAliases[t]; ok {
			t = alias
		}
		set[t] = struct{}{}
	}
	for _, r := range resources {
		add(r.Format)
		if ext, ok := urlExtension(firstNonEmpty(r.URL, r.DownloadURL)); ok {
			add(ext)
		}
	}
	types := make([]string, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}

// urlExtension returns the extension of the URL path when it is 1 to
// maxExtensionLength alphanumeric characters.
func urlExtension(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	p := strings.ToLower(u.Path)
	i := strings.LastIndex(p, ".")
	if i < 0 {
		return "", false
	}
	ext := p[i+1:]
	if len(ext) < 1 || len(ext) > maxExtensionLength {
		return "", false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", false
		}
	}
	return ext, true
}
