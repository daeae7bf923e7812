package search

import "github.com/hyperjump/ausdata/internal/models"

// Paginate computes the page window over total items. page is clamped into
// [1, total pages]; perPage must be positive.
func Paginate(total, page, perPage int) models.Pagination {
	if perPage <= 0 {
		perPage = 1
	}
	totalPages := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	} else if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	p := models.Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalDatasets: total,
		PerPage:       perPage,
		EndIdx:        end,
		HasPrev:       page > 1,
		HasNext:       page < totalPages,
	}
	if total > 0 {
		p.StartIdx = start + 1
	}
	return p
}

// pageSlice returns the items of datasets inside p.
func pageSlice(datasets []models.Dataset, p models.Pagination) []models.Dataset {
	if p.TotalDatasets == 0 {
		return []models.Dataset{}
	}
	return datasets[p.StartIdx-1 : p.EndIdx]
}
