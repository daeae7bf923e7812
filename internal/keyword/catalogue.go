package keyword

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/ausdata/internal/models"
)

// catalogueDoc is the indexed shape of a dataset.
type catalogueDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
	Topic       string `json:"topic"`
}

// CatalogueIndex is an in-memory Bleve index over dataset titles and descriptions,
// used for free-text browsing of the catalogue.
type CatalogueIndex struct {
	index bleve.Index
	size  int
}

// NewCatalogueIndex builds a memory-only index over datasets.
func NewCatalogueIndex(datasets []models.Dataset) (*CatalogueIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer: lowercase + tokenize + English stop words, no stemming.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("owner", textFieldMapping)
	docMapping.AddFieldMappingsAt("topic", textFieldMapping)
	im.AddDocumentMapping("dataset", docMapping)
	im.DefaultType = "dataset"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalogue index: %w", err)
	}
	batch := index.NewBatch()
	for _, ds := range datasets {
		doc := catalogueDoc{Title: ds.Title, Description: ds.Description, Owner: ds.Owner, Topic: ds.Topic}
		if err := batch.Index(ds.ID, doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index dataset %s: %w", ds.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index catalogue: %w", err)
	}
	return &CatalogueIndex{index: index, size: len(datasets)}, nil
}

// Search returns the ids of datasets whose title or description contain every
// analyzed term of text. An empty text matches nothing.
func (c *CatalogueIndex) Search(text string) (map[string]struct{}, error) {
	text = strings.TrimSpace(text)
	if text == "" || c.size == 0 {
		return map[string]struct{}{}, nil
	}
	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	title.SetOperator(blevequery.MatchQueryOperatorAnd)
	desc := bleve.NewMatchQuery(text)
	desc.SetField("description")
	desc.SetOperator(blevequery.MatchQueryOperatorAnd)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(title, desc))
	req.Size = c.size
	results, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("catalogue search failed: %w", err)
	}
	ids := make(map[string]struct{}, len(results.Hits))
	for _, hit := range results.Hits {
		ids[hit.ID] = struct{}{}
	}
	return ids, nil
}

// Close releases the index.
func (c *CatalogueIndex) Close() error {
	return c.index.Close()
}
