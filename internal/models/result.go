package models

// MatchSource identifies which strategy produced a match result.
type MatchSource string

const (
	SourceLocalModel MatchSource = "local_model"
	SourceRemoteAPI  MatchSource = "remote_api"
	SourceFallback   MatchSource = "fallback"
)

// Match is a single relevance decision for one dataset.
type Match struct {
	DatasetID string  `json:"dataset_id"`
	Score     float64 `json:"score"` // in [0,1]
	Rationale string  `json:"rationale"`
}

// MatchResult is the ranked output of the relevance matcher.
// Matches are sorted by score descending, ties broken by DatasetID ascending.
type MatchResult struct {
	Matches []Match     `json:"matches"`
	Source  MatchSource `json:"source"`
}

// RankedDataset is a match resolved to its full dataset record.
type RankedDataset struct {
	Dataset   Dataset `json:"dataset"`
	Summary   string  `json:"summary"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
	Rank      int     `json:"rank"`
}

// SearchResponse is the response for a natural-language search request.
// Suggestion is a spelling-corrected query, set only when nothing matched.
type SearchResponse struct {
	RequestID  string          `json:"request_id"`
	Query      string          `json:"query"`
	Source     MatchSource     `json:"source"`
	Mode       string          `json:"mode"`
	Results    []RankedDataset `json:"results"`
	Total      int             `json:"total"`
	QueryTime  int64           `json:"query_time_ms"`
	Suggestion string          `json:"suggestion,omitempty"`
}

// Pagination describes one page of a catalogue listing.
type Pagination struct {
	CurrentPage   int  `json:"current_page"`
	TotalPages    int  `json:"total_pages"`
	TotalDatasets int  `json:"total_datasets"`
	PerPage       int  `json:"per_page"`
	StartIdx      int  `json:"start_idx"` // 1-based, 0 when empty
	EndIdx        int  `json:"end_idx"`
	HasPrev       bool `json:"has_prev"`
	HasNext       bool `json:"has_next"`
}

// CataloguePage is one page of browsed datasets.
type CataloguePage struct {
	Datasets   []Dataset  `json:"datasets"`
	Pagination Pagination `json:"pagination"`
}

// BackendStatus reports the current relevance backend state.
type BackendStatus struct {
	Mode                string `json:"mode"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	FailureThreshold    int    `json:"failure_threshold"`
}
