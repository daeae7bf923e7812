package matcher

import (
	"fmt"
	"strings"

	"github.com/hyperjump/ausdata/internal/keyword"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/query"
)

// ScoreOverlap is the deterministic keyword-overlap scorer: the share of
// distinct query words found in a candidate's title, description and topic.
// Candidates sharing no word with the query are excluded. The result is not
// sorted.
func ScoreOverlap(q query.Query, candidates []models.Dataset) []models.Match {
	terms := keyword.Tokenize(q.String())
	if len(terms) == 0 {
		return nil
	}
	var matches []models.Match
	for _, ds := range candidates {
		words := keyword.TokenSet(ds.Title + " " + ds.Description + " " + ds.Topic)
		var hit []string
		for _, t := range terms {
			if _, ok := words[t]; ok {
				hit = append(hit, t)
			}
		}
		if len(hit) == 0 {
			continue
		}
		matches = append(matches, models.Match{
			DatasetID: ds.ID,
			Score:     float64(len(hit)) / float64(len(terms)),
			Rationale: fmt.Sprintf("matched keywords: %s", strings.Join(hit, ", ")),
		})
	}
	return matches
}
