package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"evsearch/internal/catalog"
	"evsearch/internal/config"
	appLog "evsearch/internal/log"
	"evsearch/internal/model"
)

// Backend is what the HTTP API needs from the catalog.
type Backend interface {
	Search(prefix string, limit int) []catalog.Hit
	Event(id string) (model.Event, bool)
	Stats() catalog.Stats
	Refresh(ctx context.Context) (catalog.Stats, error)
}

// Server exposes the search index over HTTP.
type Server struct {
	cfg     *config.Config
	backend Backend
	limiter *rate.Limiter // nil when unlimited
	mux     *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, backend Backend) *Server {
	s := &Server{
		cfg:     cfg,
		backend: backend,
		mux:     http.NewServeMux(),
	}
	if cfg.Search.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Search.RatePerSecond), cfg.Search.Burst)
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		h = s.basicAuthMiddleware(h)
	}
	return requestIDMiddleware(h)
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/events/{id...}", s.handleEvent)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="evsearch", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// requestIDMiddleware echoes X-Request-ID, generating one when absent.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		appLog.Debug("http request", "method", r.Method, "path", r.URL.Path, "request_id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// recordDTO is the {id, name, location} projection the index stores.
type recordDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type searchResultDTO struct {
	Word  string     `json:"word"`
	Value recordDTO  `json:"value"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type searchResponse struct {
	Query   string            `json:"query"`
	Limit   int               `json:"limit"`
	Results []searchResultDTO `json:"results"`
}

// handleSearch answers one search-box keystroke.
//
// GET /api/search?q=jaz&limit=10
//   - q:     prefix typed so far; empty yields no results
//   - limit: result count, default search.default_limit, capped at search.max_limit
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	q := r.URL.Query()
	prefix := q.Get("q")
	limit := parseIntDefault(q.Get("limit"), s.cfg.Search.DefaultLimit)
	if limit <= 0 {
		limit = s.cfg.Search.DefaultLimit
	}
	if limit > s.cfg.Search.MaxLimit {
		limit = s.cfg.Search.MaxLimit
	}

	hits := s.backend.Search(prefix, limit)
	resp := searchResponse{
		Query:   prefix,
		Limit:   limit,
		Results: make([]searchResultDTO, 0, len(hits)),
	}
	for _, h := range hits {
		dto := searchResultDTO{
			Word: h.Word,
			Value: recordDTO{
				ID:       h.Record.ID,
				Name:     h.Record.Name,
				Location: h.Record.Location,
			},
		}
		if !h.Event.Start.IsZero() {
			start, end := h.Event.Start, h.Event.End
			dto.Start, dto.End = &start, &end
		}
		resp.Results = append(resp.Results, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}

// eventDTO is a JSON-friendly view of an event.
type eventDTO struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Occurrences int       `json:"occurrences"`
}

// handleEvent resolves a search result ID, e.g. GET /api/events/city/jazz-1.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev, ok := s.backend.Event(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, eventDTO{
		ID:          ev.ID(),
		SourceID:    ev.SourceID,
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       ev.Start,
		End:         ev.End,
		Occurrences: ev.Occurrences,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Stats())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	stats, err := s.backend.Refresh(r.Context())
	if err != nil {
		appLog.Error("api refresh failed", err)
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrNoSource) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
