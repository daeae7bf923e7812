package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/internal/matcher"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/query"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	response, err := s.discovery.Search(r.Context(), req)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, response)
	case errors.Is(err, query.ErrEmptyQuery), errors.Is(err, query.ErrQueryTooLong):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, matcher.ErrNoCandidates):
		if s.discovery.Len() == 0 {
			s.respondError(w, http.StatusServiceUnavailable, "dataset catalogue is empty")
			return
		}
		s.respondError(w, http.StatusNotFound, "no datasets match the filter")
	default:
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	q, err := parseCatalogueQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.discovery.Browse(q)
	if err != nil {
		s.logger.Error("browse failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds, ok := s.discovery.Dataset(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "dataset not found")
		return
	}
	s.respondJSON(w, http.StatusOK, ds)
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.discovery.Facets())
}

func (s *Server) handleBackend(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.discovery.Backend())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"datasets": s.discovery.Len(),
		"backend":  s.discovery.Backend().Mode,
	})
}

// parseCatalogueQuery reads q, topic, owner, year, coverage, data_type, page
// and per_page. Empty parameters are ignored.
func parseCatalogueQuery(v url.Values) (models.CatalogueQuery, error) {
	q := models.CatalogueQuery{Text: strings.TrimSpace(v.Get("q"))}
	optional := func(name string) *string {
		if s := strings.TrimSpace(v.Get(name)); s != "" {
			return &s
		}
		return nil
	}
	q.Filter.Topic = optional("topic")
	q.Filter.Owner = optional("owner")
	q.Filter.Coverage = optional("coverage")
	q.Filter.DataType = optional("data_type")

	for name, dst := range map[string]*int{"page": &q.Page, "per_page": &q.PerPage} {
		if s := strings.TrimSpace(v.Get(name)); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return q, fmt.Errorf("%s must be an integer", name)
			}
			*dst = n
		}
	}
	if s := strings.TrimSpace(v.Get("year")); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("year must be an integer")
		}
		q.Filter.Year = &year
	}
	return q, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
