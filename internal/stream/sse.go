// Package stream implements Server-Sent Events (SSE) streaming of sky
// plot scenes. Clients connect via GET /api/v1/stream/scene/{norad} and
// receive one scene snapshot per tick for as long as the satellite is
// being tracked.
//
// SSE message format:
//
//	data: {"norad_id":25544,"generated_at":"...","grid":{...},...}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// idle timeouts on intermediaries.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/neurostunt/sattrack/internal/httputil"
	"github.com/neurostunt/sattrack/internal/metrics"
	"github.com/neurostunt/sattrack/internal/render"
)

// SceneSource produces the current scene for a tracked satellite. The
// second return is false when the satellite is not being tracked.
type SceneSource interface {
	Scene(noradID int) (render.Scene, bool)
}

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	Interval           time.Duration // Scene cadence (default: 1s).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	WriteTimeout       time.Duration // Per-write deadline on the stream (default: 30s).
	TrustProxy         bool          // Trust X-Forwarded-For for rate limiting.
}

// Handler manages SSE streaming connections.
type Handler struct {
	scenes  SceneSource
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(scenes SceneSource, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 30 * time.Second
	}
	return &Handler{
		scenes:  scenes,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
	}
}

// HandleScene serves the SSE scene stream for one satellite.
// GET /api/v1/stream/scene/{norad}
func (h *Handler) HandleScene(w http.ResponseWriter, r *http.Request) {
	noradID, err := strconv.Atoi(r.PathValue("norad"))
	if err != nil || noradID <= 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid NORAD ID"})
		return
	}

	// The stream only exists while a tracking session does.
	if _, ok := h.scenes.Scene(noradID); !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "satellite is not being tracked"})
		return
	}

	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"norad_id", noradID,
		"user_agent", r.Header.Get("User-Agent"),
	)

	// Cleanup on disconnect: release rate limit slot and update metrics.
	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"norad_id", noradID,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	// Verify flusher support (required for SSE).
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	// Set SSE response headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Use ResponseController to manage write deadlines for long-lived SSE.
	// Clear the server's default WriteTimeout for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:            w,
		flusher:      flusher,
		rc:           rc,
		ip:           ip,
		writeTimeout: h.config.WriteTimeout,
		logger:       h.logger,
	}

	// Send jittered retry interval (3-7s) to prevent thundering-herd
	// reconnection storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	ticker := time.NewTicker(h.config.Interval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()

	// First scene goes out immediately so clients draw without waiting a tick.
	if !h.sendScene(c, noradID) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if !h.sendScene(c, noradID) {
				return
			}
			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", c.ip, "error", err)
				return
			}
		}
	}
}

// sendScene builds and sends one scene. Returns false when the stream
// should end: the session was stopped or the client went away.
func (h *Handler) sendScene(c *client, noradID int) bool {
	scene, ok := h.scenes.Scene(noradID)
	if !ok {
		metrics.IncStreamErrors("session_stopped")
		h.logger.Info("stream ended, tracking stopped", "remote_ip", c.ip, "norad_id", noradID)
		return false
	}
	if err := c.sendJSON(scene); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "remote_ip", c.ip, "error", err)
		return false
	}
	return true
}
