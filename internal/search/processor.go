package search

import (
	"github.com/hyperjump/ausdata/internal/config"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/query"
)

// ProcessRequest normalizes the request query and applies the configured limit
// bounds. Input errors are query.ErrEmptyQuery and query.ErrQueryTooLong.
func ProcessRequest(req *models.SearchRequest, cfg config.SearchConfig) (query.Query, error) {
	q, err := query.Normalize(req.Query, cfg.MaxQueryLength)
	if err != nil {
		return query.Query{}, err
	}
	req.Query = q.String()
	if err := req.Validate(cfg.ResultLimit, cfg.MaxResultLimit); err != nil {
		return query.Query{}, err
	}
	return q, nil
}
