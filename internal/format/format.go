// Package format resolves match results into ranked dataset records for display.
package format

import (
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/pkg/utils"
)

// SummaryLength is the maximum display summary length in characters.
const SummaryLength = 150

// Lookup resolves a dataset id to its record.
type Lookup interface {
	Get(id string) (models.Dataset, bool)
}

// Format resolves each match to its dataset. Ids the store does not know are
// dropped, repeated ids keep their first occurrence, and the match order is
// preserved. limit > 0 caps the number of results.
func Format(m *models.MatchResult, store Lookup, limit int) []models.RankedDataset {
	if m == nil || store == nil {
		return []models.RankedDataset{}
	}
	out := make([]models.RankedDataset, 0, len(m.Matches))
	seen := make(map[string]struct{}, len(m.Matches))
	for _, match := range m.Matches {
		if limit > 0 && len(out) == limit {
			break
		}
		if _, dup := seen[match.DatasetID]; dup {
			continue
		}
		ds, ok := store.Get(match.DatasetID)
		if !ok {
			continue
		}
		seen[match.DatasetID] = struct{}{}
		out = append(out, models.RankedDataset{
			Dataset:   ds,
			Summary:   utils.TruncateAtWord(ds.Description, SummaryLength),
			Score:     match.Score,
			Rationale: match.Rationale,
			Rank:      len(out) + 1,
		})
	}
	return out
}
