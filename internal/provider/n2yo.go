package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"
)

const defaultN2YOBaseURL = "https://api.n2yo.com/rest/v1/satellite"

// n2yoMaxWindowSeconds is the largest window the positions endpoint serves
// in one request.
const n2yoMaxWindowSeconds = 300

// N2YOClient talks to the N2YO satellite REST API. The API enforces an
// hourly transaction quota per key, so the client keeps its own budget and
// refuses requests beyond it rather than burning the quota on responses
// that would be rejected anyway.
type N2YOClient struct {
	baseURL    string
	httpClient *http.Client
	budget     *requestBudget
	logger     *slog.Logger
}

// N2YOConfig holds client configuration.
type N2YOConfig struct {
	BaseURL      string        // default: the hosted N2YO endpoint
	Timeout      time.Duration // per-request timeout (default: 10s)
	HourlyBudget int           // max requests per rolling hour (default: 900)
}

// NewN2YOClient creates a client with the given configuration.
func NewN2YOClient(cfg N2YOConfig, logger *slog.Logger) *N2YOClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultN2YOBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HourlyBudget <= 0 {
		cfg.HourlyBudget = 900
	}
	return &N2YOClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		budget:     newRequestBudget(cfg.HourlyBudget),
		logger:     logger,
	}
}

// MaxWindowSeconds implements PositionProvider.
func (c *N2YOClient) MaxWindowSeconds() int { return n2yoMaxWindowSeconds }

// RequiresAPIKey implements PositionProvider.
func (c *N2YOClient) RequiresAPIKey() bool { return true }

// n2yoPositionsResponse mirrors the positions endpoint payload.
type n2yoPositionsResponse struct {
	Info struct {
		SatName           string `json:"satname"`
		TransactionsCount int    `json:"transactionscount"`
	} `json:"info"`
	Positions []struct {
		SatAltitude float64 `json:"sataltitude"`
		Azimuth     float64 `json:"azimuth"`
		Elevation   float64 `json:"elevation"`
		Timestamp   int64   `json:"timestamp"`
	} `json:"positions"`
}

// Positions implements PositionProvider. The forecast's ServerTime is the
// first sample's timestamp: the API generates samples starting at its own
// notion of now.
func (c *N2YOClient) Positions(ctx context.Context, req PositionRequest) (*Forecast, error) {
	if req.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	seconds := req.Seconds
	if seconds <= 0 || seconds > n2yoMaxWindowSeconds {
		seconds = n2yoMaxWindowSeconds
	}

	url := fmt.Sprintf("%s/positions/%d/%.4f/%.4f/%.0f/%d&apiKey=%s",
		c.baseURL, req.NORADID,
		req.Observer.LatDeg, req.Observer.LngDeg, req.Observer.AltM,
		seconds, req.APIKey)

	var resp n2yoPositionsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	if len(resp.Positions) == 0 {
		return nil, fmt.Errorf("n2yo: empty position forecast for NORAD %d", req.NORADID)
	}

	samples := make([]Position, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		samples = append(samples, Position{
			AzimuthDeg:   normalizeAzimuth(p.Azimuth),
			ElevationDeg: p.Elevation,
			RangeKm:      SlantRangeKm(p.SatAltitude, p.Elevation),
			Timestamp:    time.Unix(p.Timestamp, 0).UTC(),
		})
	}

	c.logger.Debug("n2yo positions fetched",
		"norad_id", req.NORADID,
		"samples", len(samples),
		"transactions", resp.Info.TransactionsCount,
	)

	return &Forecast{
		Samples:    samples,
		ServerTime: samples[0].Timestamp,
	}, nil
}

// n2yoRadioPassesResponse mirrors the radiopasses endpoint payload.
type n2yoRadioPassesResponse struct {
	Info struct {
		PassesCount int `json:"passescount"`
	} `json:"info"`
	Passes []struct {
		StartAz  float64 `json:"startAz"`
		StartUTC int64   `json:"startUTC"`
		MaxAz    float64 `json:"maxAz"`
		MaxEl    float64 `json:"maxEl"`
		EndAz    float64 `json:"endAz"`
		EndUTC   int64   `json:"endUTC"`
	} `json:"passes"`
}

// Passes implements PassProvider using the radiopasses endpoint.
func (c *N2YOClient) Passes(ctx context.Context, req PassRequest) ([]Prediction, error) {
	if req.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	days := req.HorizonDays
	if days <= 0 {
		days = 2
	}

	url := fmt.Sprintf("%s/radiopasses/%d/%.4f/%.4f/%.0f/%d/%.0f&apiKey=%s",
		c.baseURL, req.NORADID,
		req.Observer.LatDeg, req.Observer.LngDeg, req.Observer.AltM,
		days, req.MinElevationDeg, req.APIKey)

	var resp n2yoRadioPassesResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	predictions := make([]Prediction, 0, len(resp.Passes))
	for _, p := range resp.Passes {
		start := time.Unix(p.StartUTC, 0).UTC()
		end := time.Unix(p.EndUTC, 0).UTC()
		predictions = append(predictions, Prediction{
			NORADID:         req.NORADID,
			StartTime:       start,
			EndTime:         end,
			StartAzimuthDeg: normalizeAzimuth(p.StartAz),
			EndAzimuthDeg:   normalizeAzimuth(p.EndAz),
			MaxAzimuthDeg:   normalizeAzimuth(p.MaxAz),
			MaxElevationDeg: p.MaxEl,
			Duration:        end.Sub(start),
		})
	}

	return predictions, nil
}

// get performs a budgeted JSON GET.
func (c *N2YOClient) get(ctx context.Context, url string, out any) error {
	if !c.budget.allow() {
		return ErrBudgetExhausted
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("n2yo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("n2yo: unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding n2yo response: %w", err)
	}
	return nil
}

// normalizeAzimuth wraps a value into [0, 360).
func normalizeAzimuth(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// requestBudget tracks requests within a rolling one-hour window.
type requestBudget struct {
	mu          sync.Mutex
	limit       int
	count       int
	windowStart time.Time
}

func newRequestBudget(limit int) *requestBudget {
	return &requestBudget{limit: limit}
}

// allow registers one request if the budget permits.
func (b *requestBudget) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.windowStart) >= time.Hour {
		b.windowStart = now
		b.count = 0
	}
	if b.count >= b.limit {
		return false
	}
	b.count++
	return true
}
