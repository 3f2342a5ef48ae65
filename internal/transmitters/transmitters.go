// Package transmitters fetches the radio transmitter directory for a
// satellite from a SatNOGS DB compatible API.
package transmitters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://db.satnogs.org/api"

// Transmitter is one radio downlink on a satellite.
type Transmitter struct {
	Description string  `json:"description"`
	Mode        string  `json:"mode"`
	DownlinkHz  float64 `json:"downlink_hz"`
	Status      string  `json:"status"`
	Alive       bool    `json:"alive"`
}

// Usable reports whether the transmitter is worth showing Doppler
// corrections for: alive, marked active, and with a known downlink.
func (t Transmitter) Usable() bool {
	return t.Alive && t.Status == "active" && t.DownlinkHz > 0
}

// Config holds client configuration.
type Config struct {
	BaseURL string        // default: the hosted SatNOGS DB endpoint
	Timeout time.Duration // per-request timeout (default: 10s)
}

// Client fetches transmitter directories.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// wireTransmitter mirrors the SatNOGS DB payload. The downlink can be
// null for transmitters without a published frequency.
type wireTransmitter struct {
	Description string   `json:"description"`
	Mode        string   `json:"mode"`
	DownlinkLow *float64 `json:"downlink_low"`
	Status      string   `json:"status"`
	Alive       bool     `json:"alive"`
}

// Fetch returns the transmitter directory for a satellite.
func (c *Client) Fetch(ctx context.Context, noradID int) ([]Transmitter, error) {
	url := fmt.Sprintf("%s/transmitters/?satellite__norad_cat_id=%d&format=json", c.baseURL, noradID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transmitters request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transmitters: unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var wire []wireTransmitter
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decoding transmitters response: %w", err)
	}

	out := make([]Transmitter, 0, len(wire))
	for _, t := range wire {
		var downlink float64
		if t.DownlinkLow != nil {
			downlink = *t.DownlinkLow
		}
		out = append(out, Transmitter{
			Description: t.Description,
			Mode:        t.Mode,
			DownlinkHz:  downlink,
			Status:      t.Status,
			Alive:       t.Alive,
		})
	}

	c.logger.Debug("transmitters fetched", "norad_id", noradID, "count", len(out))
	return out, nil
}
