package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sattrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sattrack_sessions_active",
			Help: "Number of active tracking sessions.",
		},
	)

	positionFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattrack_position_fetches_total",
			Help: "Forecast fetches against the position provider, by result.",
		},
		[]string{"result"},
	)

	positionFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sattrack_position_fetch_duration_seconds",
			Help:    "Position provider fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	bufferSamples = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sattrack_buffer_samples",
			Help: "Buffered forecast samples per tracked satellite.",
		},
		[]string{"norad_id"},
	)

	tleAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sattrack_tle_age_seconds",
			Help: "Age of the loaded TLE catalog in seconds.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattrack_stream_connections_total",
			Help: "SSE connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sattrack_streams_active",
			Help: "Currently connected SSE clients.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattrack_stream_messages_total",
			Help: "SSE messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattrack_stream_bytes_total",
			Help: "SSE bytes sent.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattrack_stream_errors_total",
			Help: "SSE stream errors, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		sessionsActive,
		positionFetchesTotal,
		positionFetchDuration,
		bufferSamples,
		tleAgeSeconds,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetActiveSessions publishes the active tracking session count.
func SetActiveSessions(n int) {
	sessionsActive.Set(float64(n))
}

// IncPositionFetches counts one provider fetch by result ("success" or "error").
func IncPositionFetches(result string) {
	positionFetchesTotal.WithLabelValues(result).Inc()
}

// ObservePositionFetchDuration records one provider fetch duration.
func ObservePositionFetchDuration(seconds float64) {
	positionFetchDuration.Observe(seconds)
}

// SetBufferSamples publishes the buffered sample count for a satellite.
func SetBufferSamples(noradID, n int) {
	bufferSamples.WithLabelValues(strconv.Itoa(noradID)).Set(float64(n))
}

// DeleteBufferSamples drops the buffer gauge for a stopped session.
func DeleteBufferSamples(noradID int) {
	bufferSamples.DeleteLabelValues(strconv.Itoa(noradID))
}

// SetTLEAgeSeconds publishes the TLE catalog age.
func SetTLEAgeSeconds(seconds float64) {
	tleAgeSeconds.Set(seconds)
}

// IncStreamConnections counts one SSE connection event ("connect" or "disconnect").
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the connected SSE client gauge.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive decrements the connected SSE client gauge.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamMessages counts one SSE message sent.
func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

// AddStreamBytes counts bytes written to SSE clients.
func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

// IncStreamErrors counts one SSE error by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// exactRoutes are the fixed paths allowed through as-is.
var exactRoutes = map[string]bool{
	"/":              true,
	"/healthz":       true,
	"/readyz":        true,
	"/metrics":       true,
	"/api/v1/passes": true,
}

// trackActions are the per-satellite track operations.
var trackActions = map[string]bool{
	"start": true,
	"stop":  true,
	"scene": true,
}

// normalizeRoute collapses parameterized paths to a fixed label so each
// satellite ID (or bot probe) does not mint a new time series.
func normalizeRoute(path string) string {
	if exactRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/track/"); ok {
		id, action, found := strings.Cut(rest, "/")
		if found && isNumeric(id) && trackActions[action] {
			return "/api/v1/track/{norad}/" + action
		}
	}
	if id, ok := strings.CutPrefix(path, "/api/v1/stream/scene/"); ok && isNumeric(id) {
		return "/api/v1/stream/scene/{norad}"
	}
	return "other"
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
