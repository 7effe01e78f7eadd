package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"researchpub/internal/core"
	"researchpub/internal/markdown"
	"researchpub/internal/store"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	previewChars    = 280
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Uptime string               `json:"uptime"`
	Cache  core.CacheStats      `json:"cache"`
	Runs   map[string]*core.Run `json:"last_runs"`
}

// DraftSummary is one row of the draft listing
type DraftSummary struct {
	ID           string     `json:"id"`
	ItemID       string     `json:"item_id"`
	Format       string     `json:"format"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	Preview      string     `json:"preview"`
	PublishedURL string     `json:"published_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// DraftDetail is a full draft with optional rendered HTML
type DraftDetail struct {
	*core.Draft
	HTML      string          `json:"html,omitempty"`
	Links     []markdown.Link `json:"links"`
	KeyPoints []string        `json:"key_points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.CacheStats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	last := make(map[string]*core.Run)
	for _, kind := range []string{core.RunKindCollect, core.RunKindGenerate, core.RunKindPublish, core.RunKindTrends} {
		runs, err := s.store.ListRuns(r.Context(), kind, 1)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if len(runs) > 0 {
			last[kind] = runs[0]
		}
	}
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Cache:  stats,
		Runs:   last,
	})
}

// handleListItems handles GET /api/items?status=&source=&limit=&offset=
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	opts.Source = r.URL.Query().Get("source")

	items, err := s.store.ListItems(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if items == nil {
		items = []store.StoredItem{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"data": items, "count": len(items)})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.store.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

// handleListDrafts handles GET /api/drafts?status=&format=&limit=&offset=
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	opts.Format = r.URL.Query().Get("format")

	drafts, err := s.store.ListDrafts(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]DraftSummary, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, DraftSummary{
			ID:           d.ID,
			ItemID:       d.ItemID,
			Format:       d.Format,
			Title:        d.Title,
			Status:       d.Status,
			Preview:      markdown.Preview(d.Content, previewChars),
			PublishedURL: d.PublishedURL,
			CreatedAt:    d.CreatedAt,
			PublishedAt:  d.PublishedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
}

// handleGetDraft handles GET /api/drafts/{id}; ?render=html adds rendered markup
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	detail := DraftDetail{
		Draft:     d,
		Links:     markdown.ExtractLinks(d.Content),
		KeyPoints: markdown.KeyPoints(d.Content, 5),
	}
	if detail.Links == nil {
		detail.Links = []markdown.Link{}
	}
	if detail.KeyPoints == nil {
		detail.KeyPoints = []string{}
	}
	if r.URL.Query().Get("render") == "html" {
		detail.HTML = markdown.ToHTML(d.Content)
	}
	s.respondJSON(w, http.StatusOK, detail)
}

// handleListRuns handles GET /api/runs?kind=&limit=
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	runs, err := s.store.ListRuns(r.Context(), r.URL.Query().Get("kind"), opts.Limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*core.Run{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"data": runs, "count": len(runs)})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.CacheStats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func listOptions(r *http.Request) (store.ListOptions, error) {
	q := r.URL.Query()
	opts := store.ListOptions{Status: q.Get("status"), Limit: defaultPageSize}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errors.New("limit must be a positive integer")
		}
		opts.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	return opts, nil
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError maps store errors to status codes
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	s.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
