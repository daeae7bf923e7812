// Package cli provides output helpers for the ausdata command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/ausdata/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d datasets in %dms (source: %s, backend: %s)\n\n",
		response.Total, response.QueryTime, response.Source, response.Mode)
	if response.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean: %s\n\n", response.Suggestion)
	}
	for _, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", r.Rank, r.Score)
		writeDatasetHeader(w, r.Dataset)
		if r.Rationale != "" {
			fmt.Fprintf(w, "Why: %s\n", r.Rationale)
		}
		fmt.Fprintf(w, "\n%s\n\n", r.Summary)
	}
	return nil
}

// WriteCataloguePage writes one page of browsed datasets to w.
func WriteCataloguePage(w io.Writer, page *models.CataloguePage, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, page)
	}
	p := page.Pagination
	fmt.Fprintf(w, "\nShowing %d-%d of %d datasets (page %d of %d)\n\n",
		p.StartIdx, p.EndIdx, p.TotalDatasets, p.CurrentPage, p.TotalPages)
	for _, ds := range page.Datasets {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		writeDatasetHeader(w, ds)
	}
	return nil
}

// WriteBackendStatus writes the backend state to w.
func WriteBackendStatus(w io.Writer, status models.BackendStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Backend mode: %s\n", status.Mode)
	fmt.Fprintf(w, "Failure threshold: %d\n", status.FailureThreshold)
	return nil
}

func writeDatasetHeader(w io.Writer, ds models.Dataset) {
	fmt.Fprintf(w, "ID: %s\n", ds.ID)
	fmt.Fprintf(w, "Title: %s\n", ds.Title)
	fmt.Fprintf(w, "Owner: %s | Topic: %s | Year: %d\n", ds.Owner, ds.Topic, ds.Year)
	if ds.Coverage != "" {
		fmt.Fprintf(w, "Coverage: %s\n", ds.Coverage)
	}
	if ds.URL != "" {
		fmt.Fprintf(w, "URL: %s\n", ds.URL)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
