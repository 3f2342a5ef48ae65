package ephem

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/tle"
	"github.com/neurostunt/sattrack/internal/transform"
)

// maxWindowSeconds mirrors the hosted provider's per-request cap so the
// tracking controller behaves identically against either implementation.
const maxWindowSeconds = 300

// Service implements provider.PositionProvider and provider.PassProvider
// from the current TLE catalog.
type Service struct {
	store  *tle.Store
	logger *slog.Logger
	now    func() time.Time // injectable for tests

	mu        sync.Mutex
	orbiters  map[int]*Orbiter
	catalogAt time.Time // FetchedAt of the catalog the orbiters were built from
}

// NewService creates a Service reading TLEs from store.
func NewService(store *tle.Store, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		logger:   logger,
		now:      time.Now,
		orbiters: make(map[int]*Orbiter),
	}
}

// MaxWindowSeconds implements provider.PositionProvider.
func (s *Service) MaxWindowSeconds() int { return maxWindowSeconds }

// RequiresAPIKey implements provider.PositionProvider.
func (s *Service) RequiresAPIKey() bool { return false }

// orbiter returns a cached propagator for the satellite, rebuilding the
// cache when the catalog has been replaced.
func (s *Service) orbiter(noradID int) (*Orbiter, error) {
	set := s.store.Current()
	if set == nil {
		return nil, fmt.Errorf("no TLE catalog loaded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !set.FetchedAt.Equal(s.catalogAt) {
		s.orbiters = make(map[int]*Orbiter)
		s.catalogAt = set.FetchedAt
	}
	if orb, ok := s.orbiters[noradID]; ok {
		return orb, nil
	}

	entry, ok := set.Lookup(noradID)
	if !ok {
		return nil, fmt.Errorf("NORAD %d not in TLE catalog", noradID)
	}
	orb, err := NewOrbiter(entry)
	if err != nil {
		return nil, err
	}
	s.orbiters[noradID] = orb
	return orb, nil
}

// lookAnglesAt propagates and reduces to observer look angles.
func (s *Service) lookAnglesAt(orb *Orbiter, site transform.Site, t time.Time) (transform.LookAngles, error) {
	state, err := orb.StateAt(t)
	if err != nil {
		return transform.LookAngles{}, err
	}
	ecef := transform.TEMEToECEF(state, t)
	return site.LookAngles(ecef.Position), nil
}

// Positions implements provider.PositionProvider: one sample per second
// from now over the requested window. The local clock is the reference
// clock, so ServerTime is simply the window start.
func (s *Service) Positions(ctx context.Context, req provider.PositionRequest) (*provider.Forecast, error) {
	orb, err := s.orbiter(req.NORADID)
	if err != nil {
		return nil, err
	}

	seconds := req.Seconds
	if seconds <= 0 || seconds > maxWindowSeconds {
		seconds = maxWindowSeconds
	}

	site := transform.NewSite(req.Observer.LatDeg, req.Observer.LngDeg, req.Observer.AltM)
	start := s.now().UTC().Truncate(time.Second)

	samples := make([]provider.Position, 0, seconds)
	for i := 0; i < seconds; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		t := start.Add(time.Duration(i) * time.Second)
		la, err := s.lookAnglesAt(orb, site, t)
		if err != nil {
			s.logger.Warn("propagation failed mid-forecast", "norad_id", req.NORADID, "time", t, "error", err)
			continue
		}
		samples = append(samples, provider.Position{
			AzimuthDeg:   la.AzimuthDeg,
			ElevationDeg: la.ElevationDeg,
			RangeKm:      la.RangeKm,
			Timestamp:    t,
		})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("propagation produced no samples for NORAD %d", req.NORADID)
	}

	return &provider.Forecast{Samples: samples, ServerTime: start}, nil
}
