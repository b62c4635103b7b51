// internal/server/server.go

// Package server exposes the scraper over a JSON HTTP API. Handlers
// validate and normalize request parameters; everything else is delegated
// to the orchestrator, whose envelopes serialize directly.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/monitoring"
	"github.com/valpere/SocialScrapexter/internal/orchestrator"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// Request parameter ceilings. Out-of-range values are rejected, not
// clamped, so callers learn their request was wrong.
const (
	defaultPostLimit    = 20
	maxPostLimit        = 50
	defaultCommentLimit = 50
	maxCommentLimit     = 100
	defaultSearchLimit  = 10
	maxSearchLimit      = 50
	maxQueryLength      = 500
)

// Server wires the orchestrator into HTTP routes.
type Server struct {
	orch     *orchestrator.Orchestrator
	settings *config.Settings
	logger   utils.Logger
	router   *mux.Router
}

// New creates a server around an initialized orchestrator.
func New(orch *orchestrator.Orchestrator, settings *config.Settings, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewLogger()
	}
	s := &Server{
		orch:     orch,
		settings: settings,
		logger:   logger.WithField("component", "server"),
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scrape-page", s.handleScrapePage).Methods(http.MethodPost)
	api.HandleFunc("/scrape-post", s.handleScrapePost).Methods(http.MethodPost)
	api.HandleFunc("/scrape-comments", s.handleScrapeComments).Methods(http.MethodPost)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/parse-url", s.handleParseURL).Methods(http.MethodPost)
	api.HandleFunc("/extract", s.handleExtract).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", monitoring.Handler()).Methods(http.MethodGet)
}

// Handler returns the root handler, usable directly in tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving HTTP until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * s.settings.Timeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.WithField("addr", addr).Info("http server listening")
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithField("error", err.Error()).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 20<<20))
	if err := dec.Decode(into); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

type scrapeRequest struct {
	URL             string `json:"url"`
	Limit           int    `json:"limit"`
	IncludeComments bool   `json:"include_comments"`
	Strategy        string `json:"strategy"`
}

// validateScrape normalizes a scrape request against a limit ceiling.
func (s *Server) validateScrape(w http.ResponseWriter, req *scrapeRequest, defaultLimit, maxLimit int) bool {
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return false
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	if req.Limit < 1 || req.Limit > maxLimit {
		s.writeError(w, http.StatusBadRequest, "limit out of range")
		return false
	}
	if req.Strategy != "" && req.Strategy != types.StrategyAuto && !types.IsValidBackend(req.Strategy) {
		s.writeError(w, http.StatusBadRequest, "unknown strategy: "+req.Strategy)
		return false
	}
	return true
}

func (s *Server) handleScrapePage(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !s.decode(w, r, &req) || !s.validateScrape(w, &req, defaultPostLimit, maxPostLimit) {
		return
	}

	result, err := s.orch.ScrapePage(r.Context(), req.URL, types.ScrapeOptions{
		Limit:    req.Limit,
		Strategy: req.Strategy,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScrapePost(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !s.decode(w, r, &req) || !s.validateScrape(w, &req, defaultPostLimit, maxPostLimit) {
		return
	}

	result, err := s.orch.ScrapePost(r.Context(), req.URL, types.ScrapeOptions{
		Limit:           req.Limit,
		IncludeComments: req.IncludeComments,
		Strategy:        req.Strategy,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScrapeComments(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !s.decode(w, r, &req) || !s.validateScrape(w, &req, defaultCommentLimit, maxCommentLimit) {
		return
	}

	result, err := s.orch.ScrapeComments(r.Context(), req.URL, types.ScrapeOptions{
		Limit:    req.Limit,
		Strategy: req.Strategy,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type searchRequest struct {
	Query    string `json:"query"`
	Type     string `json:"type"`
	Limit    int    `json:"limit"`
	Strategy string `json:"strategy"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" || len(query) > maxQueryLength {
		s.writeError(w, http.StatusBadRequest, "query must be between 1 and 500 characters")
		return
	}
	if req.Type == "" {
		req.Type = string(types.SearchPosts)
	}
	if !types.IsValidSearchType(req.Type) {
		s.writeError(w, http.StatusBadRequest, "unknown search type: "+req.Type)
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultSearchLimit
	}
	if req.Limit < 1 || req.Limit > maxSearchLimit {
		s.writeError(w, http.StatusBadRequest, "limit out of range")
		return
	}
	if req.Strategy != "" && req.Strategy != types.StrategyAuto && !types.IsValidBackend(req.Strategy) {
		s.writeError(w, http.StatusBadRequest, "unknown strategy: "+req.Strategy)
		return
	}

	result, err := s.orch.Search(r.Context(), query, types.SearchOptions{
		Type:     types.SearchType(req.Type),
		Limit:    req.Limit,
		Strategy: req.Strategy,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type parseURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleParseURL(w http.ResponseWriter, r *http.Request) {
	var req parseURLRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	info, err := s.orch.ParseURL(req.URL)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

type extractRequest struct {
	Markup string `json:"markup"`
	Kind   string `json:"kind"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Markup) == "" {
		s.writeError(w, http.StatusBadRequest, "markup is required")
		return
	}

	kind := types.PayloadKind(req.Kind)
	switch kind {
	case "", types.PayloadPosts, types.PayloadPage, types.PayloadComments:
	default:
		s.writeError(w, http.StatusBadRequest, "unknown extract kind: "+req.Kind)
		return
	}

	result, err := s.orch.Extract(req.Markup, kind)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.orch.Status()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
