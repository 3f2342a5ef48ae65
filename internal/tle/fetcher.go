package tle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseBytes caps a single source response. The full CelesTrak
// active catalog is under 2 MB; anything past this is a broken source.
const maxResponseBytes = 10 << 20

// Fetcher retrieves raw TLE text from one or more HTTP sources and
// concatenates the results. Individual source failures are logged and
// skipped; fetching fails only when every source does.
type Fetcher struct {
	urls       []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the given source URLs.
func NewFetcher(urls []string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		urls:       urls,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Fetch downloads and concatenates all configured sources.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	if len(f.urls) == 0 {
		return nil, fmt.Errorf("no TLE source URLs configured")
	}

	var combined []byte
	var failures int

	for _, url := range f.urls {
		data, err := f.fetchOne(ctx, url)
		if err != nil {
			failures++
			f.logger.Warn("TLE source fetch failed", "url", url, "error", err)
			continue
		}
		combined = append(combined, data...)
		if len(combined) > 0 && combined[len(combined)-1] != '\n' {
			combined = append(combined, '\n')
		}
	}

	if failures == len(f.urls) {
		return nil, fmt.Errorf("all %d TLE sources failed", len(f.urls))
	}
	return combined, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxResponseBytes)
	}
	return body, nil
}
