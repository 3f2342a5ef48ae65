package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/render"
	"github.com/neurostunt/sattrack/internal/track"
	"github.com/neurostunt/sattrack/internal/transmitters"
)

const (
	// Pass predictions barely move over minutes; transmitter directories
	// over hours. Both are far too slow-moving to refetch per scene tick.
	predictionTTL  = 10 * time.Minute
	transmitterTTL = time.Hour

	// Failed lookups retry sooner so a provider blip does not blank the
	// pass arc for the full TTL.
	errorTTL = time.Minute

	lookupTimeout = 10 * time.Second
)

type cachedPredictions struct {
	preds     []provider.Prediction
	fetchedAt time.Time
	ttl       time.Duration
}

type cachedTransmitters struct {
	txs       []transmitters.Transmitter
	fetchedAt time.Time
	ttl       time.Duration
}

// SceneBuilder assembles render scenes for active tracking sessions,
// caching the slow-moving collaborator lookups between ticks. It is the
// stream handler's SceneSource.
type SceneBuilder struct {
	manager  *track.Manager
	renderer *render.Renderer
	passes   provider.PassProvider
	radios   *transmitters.Client
	apiKey   string
	logger   *slog.Logger

	mu          sync.Mutex
	predictions map[int]cachedPredictions
	directory   map[int]cachedTransmitters
}

// NewSceneBuilder creates a scene builder. radios may be nil to disable
// transmitter rows.
func NewSceneBuilder(manager *track.Manager, renderer *render.Renderer, passes provider.PassProvider, radios *transmitters.Client, apiKey string, logger *slog.Logger) *SceneBuilder {
	return &SceneBuilder{
		manager:     manager,
		renderer:    renderer,
		passes:      passes,
		radios:      radios,
		apiKey:      apiKey,
		logger:      logger,
		predictions: make(map[int]cachedPredictions),
		directory:   make(map[int]cachedTransmitters),
	}
}

// Scene builds the current scene for a tracked satellite. The second
// return is false when the satellite is not being tracked.
func (b *SceneBuilder) Scene(noradID int) (render.Scene, bool) {
	s, ok := b.manager.Get(noradID)
	if !ok {
		return render.Scene{}, false
	}

	now := s.Now()
	past, future := s.Buffer().Split(now)

	var current *provider.Position
	if p, ok := s.Current(); ok {
		current = &p
	}
	rv, hasRV := s.RadialVelocity()

	in := render.Input{
		NORADID:           noradID,
		Prediction:        b.upcomingPass(s, now),
		Past:              past,
		Future:            future,
		Current:           current,
		RadialVelocityMS:  rv,
		HasRadialVelocity: hasRV,
		Transmitters:      b.transmittersFor(noradID),
	}
	return b.renderer.Scene(in), true
}

// upcomingPass returns the first prediction still in progress or ahead of
// now, fetching and caching the pass list when stale.
func (b *SceneBuilder) upcomingPass(s *track.Session, now time.Time) *provider.Prediction {
	b.mu.Lock()
	cached, ok := b.predictions[s.NORADID]
	b.mu.Unlock()

	if !ok || time.Since(cached.fetchedAt) > cached.ttl {
		cached = b.fetchPredictions(s)
		b.mu.Lock()
		b.predictions[s.NORADID] = cached
		b.mu.Unlock()
	}

	for _, p := range cached.preds {
		if p.EndTime.After(now) {
			pass := p
			return &pass
		}
	}
	return nil
}

func (b *SceneBuilder) fetchPredictions(s *track.Session) cachedPredictions {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	preds, err := b.passes.Passes(ctx, provider.PassRequest{
		NORADID:  s.NORADID,
		Observer: s.Observer,
		APIKey:   b.apiKey,
	})
	if err != nil {
		b.logger.Warn("pass lookup for scene failed", "norad_id", s.NORADID, "error", err)
		return cachedPredictions{fetchedAt: time.Now(), ttl: errorTTL}
	}
	return cachedPredictions{preds: preds, fetchedAt: time.Now(), ttl: predictionTTL}
}

// transmittersFor returns the cached transmitter directory for a satellite.
func (b *SceneBuilder) transmittersFor(noradID int) []transmitters.Transmitter {
	if b.radios == nil {
		return nil
	}

	b.mu.Lock()
	cached, ok := b.directory[noradID]
	b.mu.Unlock()

	if ok && time.Since(cached.fetchedAt) <= cached.ttl {
		return cached.txs
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	txs, err := b.radios.Fetch(ctx, noradID)
	if err != nil {
		b.logger.Warn("transmitter lookup failed", "norad_id", noradID, "error", err)
		cached = cachedTransmitters{txs: cached.txs, fetchedAt: time.Now(), ttl: errorTTL}
	} else {
		cached = cachedTransmitters{txs: txs, fetchedAt: time.Now(), ttl: transmitterTTL}
	}

	b.mu.Lock()
	b.directory[noradID] = cached
	b.mu.Unlock()
	return cached.txs
}
