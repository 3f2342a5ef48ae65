package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/neurostunt/sattrack/internal/metrics"
)

// client owns the write side of one SSE connection. Every write renews
// the per-write deadline; the connection-level timeout was cleared when
// the stream started.
type client struct {
	w            http.ResponseWriter
	flusher      http.Flusher
	rc           *http.ResponseController
	ip           string
	writeTimeout time.Duration
	logger       *slog.Logger

	messagesSent int64
	bytesSent    int64
}

func (c *client) renewDeadline() {
	if err := c.rc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "error", err)
	}
}

// sendJSON frames v as one SSE message: "data: {json}\n\n".
func (c *client) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	c.renewDeadline()

	n, err := fmt.Fprintf(c.w, "data: %s\n\n", data)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	c.flusher.Flush()
	c.messagesSent++
	c.bytesSent += int64(n)
	metrics.IncStreamMessages()
	metrics.AddStreamBytes(int64(n))

	return nil
}

// sendKeepalive writes an SSE comment (":\n\n") so idle intermediaries
// keep the connection open.
func (c *client) sendKeepalive() error {
	c.renewDeadline()

	n, err := fmt.Fprint(c.w, ":\n\n")
	if err != nil {
		return fmt.Errorf("keepalive write: %w", err)
	}

	c.flusher.Flush()
	c.bytesSent += int64(n)
	metrics.AddStreamBytes(int64(n))

	return nil
}
