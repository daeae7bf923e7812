// Package search runs the dataset discovery pipeline: query normalization,
// relevance matching and result formatting, plus catalogue browsing.
package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/ausdata/internal/config"
	"github.com/hyperjump/ausdata/internal/dataset"
	"github.com/hyperjump/ausdata/internal/format"
	"github.com/hyperjump/ausdata/internal/keyword"
	"github.com/hyperjump/ausdata/internal/matcher"
	"github.com/hyperjump/ausdata/internal/metrics"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/pkg/utils"
)

// retiredIndexGrace is how long a replaced catalogue index stays open for
// browse requests that loaded it before the swap.
const retiredIndexGrace = time.Minute

// catalogue is one loaded dataset collection with its keyword index and
// query suggester.
type catalogue struct {
	store     *dataset.Store
	index     *keyword.CatalogueIndex
	suggester *keyword.Suggester
}

// Service answers search and browse requests over the current catalogue.
// The catalogue can be replaced while requests are in flight; each request
// sees one consistent collection.
type Service struct {
	current atomic.Pointer[catalogue]
	reloads singleflight.Group
	matcher *matcher.Matcher
	config  config.SearchConfig
	logger  *zap.Logger
}

// NewService creates a service over store using m for relevance matching.
func NewService(store *dataset.Store, m *matcher.Matcher, cfg config.SearchConfig, logger *zap.Logger) (*Service, error) {
	s := &Service{matcher: m, config: cfg, logger: utils.OrNop(logger)}
	if err := s.Replace(store); err != nil {
		return nil, err
	}
	metrics.BackendMode.Set(float64(m.State().Mode()))
	return s, nil
}

// Replace swaps in a new dataset collection.
func (s *Service) Replace(store *dataset.Store) error {
	if store == nil {
		return fmt.Errorf("nil dataset store")
	}
	index, err := keyword.NewCatalogueIndex(store.All())
	if err != nil {
		return err
	}
	suggester := keyword.NewSuggester(keyword.NewVocabulary(store.All()))
	old := s.current.Swap(&catalogue{store: store, index: index, suggester: suggester})
	metrics.DatasetCount.Set(float64(store.Len()))
	if old != nil {
		time.AfterFunc(retiredIndexGrace, func() { _ = old.index.Close() })
	}
	return nil
}

// Reload loads the dataset source at path and swaps it in. On failure the
// current collection is kept. Concurrent reloads of one path share a single load.
func (s *Service) Reload(path string) error {
	_, err, _ := s.reloads.Do(path, func() (interface{}, error) {
		return nil, s.reload(path)
	})
	return err
}

func (s *Service) reload(path string) error {
	store, err := dataset.LoadFile(path)
	if err == nil {
		err = s.Replace(store)
	}
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("catalogue reload failed, keeping current datasets", zap.String("path", path), zap.Error(err))
		return err
	}
	metrics.ReloadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("catalogue reloaded", zap.String("path", path), zap.Int("datasets", store.Len()))
	return nil
}

// Search ranks the catalogue against a natural-language query.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	startTime := time.Now()
	q, err := ProcessRequest(&req, s.config)
	if err != nil {
		return nil, err
	}

	cat := s.current.Load()
	candidates := cat.store.Filter(req.Filter)
	result, err := s.matcher.Match(ctx, q, candidates, req.Limit)
	if err != nil {
		return nil, err
	}
	ranked := format.Format(result, cat.store, req.Limit)

	response := &models.SearchResponse{
		RequestID: uuid.NewString(),
		Query:     q.String(),
		Source:    result.Source,
		Mode:      s.matcher.State().Mode().String(),
		Results:   ranked,
		Total:     len(ranked),
		QueryTime: time.Since(startTime).Milliseconds(),
	}
	if len(ranked) == 0 {
		if corrected, ok := cat.suggester.CorrectQuery(response.Query); ok {
			response.Suggestion = corrected
		}
	}
	s.logger.Info("search completed",
		zap.String("request_id", response.RequestID),
		zap.String("query", response.Query),
		zap.String("source", string(response.Source)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", response.Total),
		zap.Int64("query_time_ms", response.QueryTime))
	return response, nil
}

// Browse lists catalogue datasets matching the filter and, when set, the
// free-text query, in source order and paginated.
func (s *Service) Browse(q models.CatalogueQuery) (*models.CataloguePage, error) {
	q.Validate(s.config.PerPage, s.config.MaxPerPage)
	cat := s.current.Load()
	list := cat.store.Filter(q.Filter)
	if q.Text != "" {
		ids, err := cat.index.Search(q.Text)
		if err != nil {
			return nil, err
		}
		kept := list[:0]
		for _, ds := range list {
			if _, ok := ids[ds.ID]; ok {
				kept = append(kept, ds)
			}
		}
		list = kept
	}
	p := Paginate(len(list), q.Page, q.PerPage)
	return &models.CataloguePage{Datasets: pageSlice(list, p), Pagination: p}, nil
}

// Dataset returns one dataset by id.
func (s *Service) Dataset(id string) (models.Dataset, bool) {
	return s.current.Load().store.Get(id)
}

// Facets returns the distinct topics and owners of the catalogue.
func (s *Service) Facets() models.Facets {
	return s.current.Load().store.Facets()
}

// Len returns the number of datasets in the catalogue.
func (s *Service) Len() int {
	return s.current.Load().store.Len()
}

// Backend reports the relevance backend state.
func (s *Service) Backend() models.BackendStatus {
	st := s.matcher.State()
	return models.BackendStatus{
		Mode:                st.Mode().String(),
		ConsecutiveFailures: st.Failures(),
		FailureThreshold:    st.Threshold(),
	}
}

// Close releases the current catalogue index.
func (s *Service) Close() error {
	if cat := s.current.Load(); cat != nil {
		return cat.index.Close()
	}
	return nil
}
