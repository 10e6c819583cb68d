package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pders01/radar/internal/config"
	"github.com/pders01/radar/internal/debuglog"
	"github.com/pders01/radar/internal/radar"
	"github.com/pders01/radar/internal/search"
)

// Aggregator hands out the current snapshot. *radar.Cache implements it.
type Aggregator interface {
	Get(ctx context.Context) (*radar.Snapshot, error)
	Refresh(ctx context.Context) (*radar.Snapshot, error)
	IsStale(now time.Time) bool
}

// Server exposes the aggregated events as JSON for calendar front ends.
type Server struct {
	cache      Aggregator
	searcher   search.Searcher
	httpServer *http.Server
}

// NewServer creates a new HTTP server over cache. searcher may be nil, in
// which case /search responds 404.
func NewServer(cfg *config.Config, cache Aggregator, searcher search.Searcher) *Server {
	s := &Server{
		cache:    cache,
		searcher: searcher,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /sources", s.handleSources)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      withLogging(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Feed.HTTPTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	debuglog.Infof("starting HTTP server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// snapshot resolves the current snapshot, answering 503 when none exists.
// A failed recomputation that still has a previous cycle is served from it.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*radar.Snapshot, bool) {
	snap, err := s.cache.Get(r.Context())
	if err != nil {
		if snap == nil {
			debuglog.Errorf("aggregation failed: %v", err)
			writeError(w, http.StatusServiceUnavailable, "Unavailable", "events are not available yet")
			return nil, false
		}
		debuglog.Warnf("serving previous snapshot: %v", err)
	}
	return snap, true
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day != "" {
		if _, err := time.Parse(radar.DateLayout, day); err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "date must be YYYY-MM-DD")
			return
		}
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	events := snap.Events
	if day != "" {
		events = snap.On(day)
		if events == nil {
			events = []radar.Event{}
		}
	}

	resp := map[string]any{
		"computedAt": snap.ComputedAt,
		"dates":      snap.Dates(),
		"events":     events,
	}
	if day != "" {
		resp["date"] = day
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	resp := map[string]any{
		"computedAt": snap.ComputedAt,
		"history":    snap.History,
		"companies":  snap.Companies(),
	}
	if snap.Ledger != nil {
		resp["ledger"] = snap.Ledger
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	sources := snap.Sources
	if sources == nil {
		sources = []radar.SourceReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"computedAt": snap.ComputedAt,
		"sources":    sources,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		writeError(w, http.StatusNotFound, "NotFound", "search is not enabled")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "q parameter is required")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	day := r.URL.Query().Get("date")
	if day != "" {
		if _, err := time.Parse(radar.DateLayout, day); err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "date must be YYYY-MM-DD")
			return
		}
	}

	// make sure the index reflects a fresh cycle
	if _, ok := s.snapshot(w, r); !ok {
		return
	}

	var results []*search.Result
	var err error
	if day != "" {
		results, err = s.searcher.SearchOn(q, day, limit)
	} else {
		results, err = s.searcher.Search(q, limit)
	}
	if err != nil {
		debuglog.Errorf("search %q: %v", q, err)
		writeError(w, http.StatusInternalServerError, "InternalError", "search failed")
		return
	}

	hits := make([]map[string]any, 0, len(results))
	for _, res := range results {
		hits = append(hits, map[string]any{"event": res.Event, "score": res.Score})
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": hits})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cache.Refresh(r.Context())
	if err != nil {
		debuglog.Errorf("forced refresh failed: %v", err)
		writeError(w, http.StatusBadGateway, "RefreshFailed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"computedAt": snap.ComputedAt,
		"events":     len(snap.Events),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"stale":  s.cache.IsStale(time.Now()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debuglog.Warnf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		debuglog.WithFields(debuglog.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.status,
			"duration": time.Since(start),
		}).Infof("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
