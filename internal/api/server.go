// Package api wires the HTTP surface: pass predictions, tracking session
// control, scene snapshots, and the SSE scene stream.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/neurostunt/sattrack/internal/auth"
	"github.com/neurostunt/sattrack/internal/health"
	"github.com/neurostunt/sattrack/internal/metrics"
	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/stream"
	"github.com/neurostunt/sattrack/internal/track"
)

// Config holds server configuration.
type Config struct {
	Addr   string
	APIKey string // default provider key applied when requests omit one
	Auth   auth.Config
}

// Deps are the collaborators the HTTP surface exposes.
type Deps struct {
	Manager *track.Manager
	Scenes  *SceneBuilder
	Passes  provider.PassProvider
	Stream  *stream.Handler
	Ready   func() bool
	Logger  *slog.Logger
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, deps Deps) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /readyz", health.Readyz(deps.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/passes", passesHandler(deps.Logger, deps.Passes, cfg.APIKey))
	mux.HandleFunc("POST /api/v1/track/{norad}/start", startHandler(deps.Logger, deps.Manager, cfg.APIKey))
	mux.HandleFunc("POST /api/v1/track/{norad}/stop", stopHandler(deps.Logger, deps.Manager))
	mux.HandleFunc("GET /api/v1/track/{norad}/scene", sceneHandler(deps.Scenes))
	mux.HandleFunc("GET /api/v1/stream/scene/{norad}", deps.Stream.HandleScene)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(deps.Logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: deps.Logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
