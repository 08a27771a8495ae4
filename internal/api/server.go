// Package api exposes the engine over HTTP: the now-playing endpoint
// with cache freshness headers, the recorded play history, and the
// operational health and metrics routes.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pjw57/nowspinning/internal/engine"
	"github.com/pjw57/nowspinning/internal/history"
	"github.com/pjw57/nowspinning/internal/telemetry"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100

	// unmatchedRoute labels request metrics for paths that resolve to no
	// route; raw paths would give arbitrary clients control over the
	// label space.
	unmatchedRoute = "unmatched"
)

// SnapshotSource provides the current playback snapshot. Satisfied by
// *engine.Engine.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (engine.PlaybackSnapshot, error)
}

// Server serves the HTTP boundary. It never triggers upstream work on
// its own beyond asking the source for a snapshot; polling cadence
// belongs to the engine.
type Server struct {
	source  SnapshotSource
	history *history.Store
	logger  zerolog.Logger
	metrics telemetry.Collector
}

// Options configures a Server.
type Options struct {
	Source  SnapshotSource      // Required: typically the engine
	History *history.Store      // Optional: enables /recently-played
	Logger  zerolog.Logger      // Base logger; the server attaches its component field
	Metrics telemetry.Collector // Optional: defaults to a noop collector
}

// NewServer creates a Server from the given options.
func NewServer(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, errors.New("api: snapshot source is required")
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.Noop()
	}

	return &Server{
		source:  opts.Source,
		history: opts.History,
		logger:  opts.Logger.With().Str("component", "api").Logger(),
		metrics: metrics,
	}, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	r.Get("/now-playing", s.handleNowPlaying)
	if s.history != nil {
		r.Get("/recently-played", s.handleRecentlyPlayed)
	}
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// handleNowPlaying serves the current snapshot with cache directives
// derived from the playing state. A failed fetch degrades to a generic
// error body that intermediate caches must not store.
func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.source.Snapshot(r.Context())
	if err != nil {
		w.Header().Set("Cache-Control", "no-store")
		s.writeJSON(w, http.StatusInternalServerError, degradedBody{
			Error:     degradedSummary(err),
			IsPlaying: false,
		})
		return
	}

	freshness := engine.FreshnessFor(snapshot)
	w.Header().Set("Cache-Control", freshness.CacheControl())
	w.Header().Set("X-Playing-State", freshness.State)

	s.writeJSON(w, http.StatusOK, newNowPlayingBody(snapshot))
}

// handleRecentlyPlayed lists recorded play spans, newest first.
func (s *Server) handleRecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	plays, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read play history")
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "history unavailable"})
		return
	}

	items := make([]playBody, 0, len(plays))
	for _, play := range plays {
		items = append(items, newPlayBody(play))
	}
	s.writeJSON(w, http.StatusOK, recentBody{Items: items})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs each request and feeds the request counter. The
// metric is labelled by route pattern, not raw path, to keep the label
// cardinality bounded.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = unmatchedRoute
		}
		s.metrics.IncHTTPRequest(pattern, ww.Status())
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// degradedSummary reduces a fetch failure to a stable, generic message.
// Classification internals, upstream bodies and credentials never reach
// the response.
func degradedSummary(err error) string {
	var rec *engine.FailureRecord
	if !errors.As(err, &rec) {
		return "internal error"
	}
	switch rec.Classification {
	case engine.AuthError, engine.PermissionError:
		return "upstream authorization failed"
	case engine.RateLimited:
		return "upstream rate limited"
	case engine.UpstreamUnavailable, engine.NetworkError:
		return "upstream unavailable"
	default:
		return "internal error"
	}
}
