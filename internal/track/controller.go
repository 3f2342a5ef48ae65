package track

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neurostunt/sattrack/internal/metrics"
	"github.com/neurostunt/sattrack/internal/provider"
)

// Config holds tracking configuration loaded from environment variables.
type Config struct {
	WindowSeconds int           // forecast window requested per fetch (default: 300)
	SafetyMargin  time.Duration // refresh this long before the window runs out (default: 30s)
	RetryInterval time.Duration // retry cadence after a failed fetch (default: 10s)
	FrameRate     int           // interpolated position updates per second (default: 60)
	FetchTimeout  time.Duration // per-fetch deadline (default: 10s)
}

// DefaultConfig returns the tracking defaults.
func DefaultConfig() Config {
	return Config{
		WindowSeconds: 300,
		SafetyMargin:  30 * time.Second,
		RetryInterval: 10 * time.Second,
		FrameRate:     60,
		FetchTimeout:  10 * time.Second,
	}
}

// Session is one satellite being tracked for one observer. It owns a
// refresh worker that keeps the buffer topped up and an animation worker
// that interpolates the current position between samples.
type Session struct {
	NORADID  int
	Observer provider.Observer

	apiKey string
	buffer *Buffer

	// Server clock minus local clock, updated on every successful fetch.
	clockOffset atomic.Int64 // nanoseconds

	current atomic.Pointer[provider.Position]

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Buffer exposes the session's sample buffer.
func (s *Session) Buffer() *Buffer {
	return s.buffer
}

// Now returns the current time on the provider's clock. All past/future
// decisions use this so a skewed local clock cannot shift the split.
func (s *Session) Now() time.Time {
	return time.Now().Add(time.Duration(s.clockOffset.Load()))
}

// Current returns the latest interpolated position, or false before the
// first fetch lands.
func (s *Session) Current() (provider.Position, bool) {
	p := s.current.Load()
	if p == nil {
		return provider.Position{}, false
	}
	return *p, true
}

// RadialVelocity returns the current range rate in meters per second.
// Positive means receding.
func (s *Session) RadialVelocity() (float64, bool) {
	return s.buffer.RadialVelocity(s.Now())
}

// Manager owns all active tracking sessions.
type Manager struct {
	cfg       Config
	positions provider.PositionProvider
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[int]*Session
}

// NewManager creates a Manager fetching from positions.
func NewManager(cfg Config, positions provider.PositionProvider, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		positions: positions,
		logger:    logger,
		sessions:  make(map[int]*Session),
	}
}

// Start begins tracking a satellite. Starting an already-tracked
// satellite is a no-op returning the existing session. The first fetch
// happens on the refresh worker, so Start never blocks on the provider.
func (m *Manager) Start(noradID int, obs provider.Observer, apiKey string) (*Session, error) {
	if m.positions.RequiresAPIKey() && apiKey == "" {
		return nil, provider.ErrMissingAPIKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[noradID]; ok {
		return s, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		NORADID:  noradID,
		Observer: obs,
		apiKey:   apiKey,
		buffer:   NewBuffer(),
		cancel:   cancel,
	}
	m.sessions[noradID] = s

	s.wg.Add(2)
	go m.refreshLoop(ctx, s)
	go m.animateLoop(ctx, s)

	metrics.SetActiveSessions(len(m.sessions))
	m.logger.Info("tracking started", "norad_id", noradID, "lat", obs.LatDeg, "lng", obs.LngDeg)
	return s, nil
}

// Stop ends tracking of a satellite and waits for its workers to exit.
// An in-flight fetch at stop time is discarded, never merged. Returns
// false if the satellite was not being tracked.
func (m *Manager) Stop(noradID int) bool {
	m.mu.Lock()
	s, ok := m.sessions[noradID]
	if ok {
		delete(m.sessions, noradID)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return false
	}

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	metrics.SetActiveSessions(n)
	metrics.DeleteBufferSamples(noradID)
	m.logger.Info("tracking stopped", "norad_id", noradID)
	return true
}

// Get returns the session for a satellite, if one is active.
func (m *Manager) Get(noradID int) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[noradID]
	return s, ok
}

// Active returns the NORAD IDs of all active sessions.
func (m *Manager) Active() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops every session.
func (m *Manager) Shutdown() {
	for _, id := range m.Active() {
		m.Stop(id)
	}
}

// windowSeconds caps the configured window at what the provider serves.
func (m *Manager) windowSeconds() int {
	w := m.cfg.WindowSeconds
	if max := m.positions.MaxWindowSeconds(); max > 0 && w > max {
		w = max
	}
	return w
}

// refreshLoop fetches a fresh forecast window before the current one runs
// out. A failed fetch keeps the buffer intact so animation continues on
// buffered samples while we retry.
func (m *Manager) refreshLoop(ctx context.Context, s *Session) {
	defer s.wg.Done()

	refresh := time.Duration(m.windowSeconds())*time.Second - m.cfg.SafetyMargin
	if refresh < time.Second {
		refresh = time.Second
	}

	for {
		wait := refresh
		if !m.fetchOnce(ctx, s) {
			wait = m.cfg.RetryInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// fetchOnce requests one forecast window and merges it into the buffer.
// The merge is skipped when the session was stopped while the request was
// in flight.
func (m *Manager) fetchOnce(ctx context.Context, s *Session) bool {
	fctx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	fc, err := m.positions.Positions(fctx, provider.PositionRequest{
		NORADID:  s.NORADID,
		Observer: s.Observer,
		Seconds:  m.windowSeconds(),
		APIKey:   s.apiKey,
	})
	metrics.ObservePositionFetchDuration(time.Since(start).Seconds())

	if err != nil {
		metrics.IncPositionFetches("error")
		if ctx.Err() == nil {
			m.logger.Warn("position fetch failed, retaining buffer",
				"norad_id", s.NORADID, "buffered", s.buffer.Len(), "error", err)
		}
		return false
	}
	metrics.IncPositionFetches("success")

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.clockOffset.Store(int64(fc.ServerTime.Sub(time.Now())))
	s.buffer.Merge(fc.Samples)
	s.mu.Unlock()

	metrics.SetBufferSamples(s.NORADID, s.buffer.Len())
	m.logger.Debug("forecast merged",
		"norad_id", s.NORADID, "samples", len(fc.Samples), "buffered", s.buffer.Len())
	return true
}

// animateLoop interpolates the current position at the configured frame
// rate so readers always see smooth motion between one-second samples.
func (m *Manager) animateLoop(ctx context.Context, s *Session) {
	defer s.wg.Done()

	rate := m.cfg.FrameRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p, ok := s.buffer.At(s.Now()); ok {
				s.current.Store(&p)
			}
		}
	}
}
