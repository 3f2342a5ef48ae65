// Package track maintains per-satellite forecast buffers and drives
// live tracking sessions against a position provider.
//
// A session owns a rolling buffer of timestamped look angles. A refresh
// worker tops the buffer up before the forecast window runs out, and an
// animation worker interpolates the current position between samples.
package track

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/neurostunt/sattrack/internal/provider"
)

// dedupeBucketMillis is the resolution at which samples from overlapping
// forecast windows are considered duplicates.
const dedupeBucketMillis = 100

// Buffer holds forecast samples for one satellite, ordered by timestamp.
// Safe for concurrent use by multiple goroutines.
type Buffer struct {
	mu      sync.RWMutex
	samples []provider.Position
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

func bucketOf(t time.Time) int64 {
	return t.UnixMilli() / dedupeBucketMillis
}

// Merge folds a batch of samples into the buffer. A sample landing in the
// same 100ms bucket as an existing one replaces it, so overlapping
// forecast windows never accumulate duplicates. The buffer stays sorted.
func (b *Buffer) Merge(batch []provider.Position) {
	if len(batch) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	byBucket := make(map[int64]provider.Position, len(b.samples)+len(batch))
	for _, s := range b.samples {
		byBucket[bucketOf(s.Timestamp)] = s
	}
	for _, s := range batch {
		byBucket[bucketOf(s.Timestamp)] = s
	}

	merged := make([]provider.Position, 0, len(byBucket))
	for _, s := range byBucket {
		merged = append(merged, s)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	b.samples = merged
}

// Len returns the sample count.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Clear drops all samples.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.samples = nil
	b.mu.Unlock()
}

// Bounds returns the first and last sample timestamps.
func (b *Buffer) Bounds() (first, last time.Time, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.samples) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return b.samples[0].Timestamp, b.samples[len(b.samples)-1].Timestamp, true
}

// Split partitions the buffer into samples at or before now and samples
// after it. Both slices are copies, oldest first.
func (b *Buffer) Split(now time.Time) (past, future []provider.Position) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := sort.Search(len(b.samples), func(i int) bool {
		return b.samples[i].Timestamp.After(now)
	})
	past = append([]provider.Position(nil), b.samples[:i]...)
	future = append([]provider.Position(nil), b.samples[i:]...)
	return past, future
}

// At returns the position at time t, linearly interpolated between the
// neighboring samples. Times before the first sample clamp to it, times
// after the last clamp to the last. Azimuth interpolates along the
// shorter angular path so a track crossing north never sweeps the long
// way around the compass.
func (b *Buffer) At(t time.Time) (provider.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.samples)
	if n == 0 {
		return provider.Position{}, false
	}
	if !t.After(b.samples[0].Timestamp) {
		return b.samples[0], true
	}
	if !t.Before(b.samples[n-1].Timestamp) {
		return b.samples[n-1], true
	}

	// First sample strictly after t; the bracket is [i-1, i].
	i := sort.Search(n, func(i int) bool {
		return b.samples[i].Timestamp.After(t)
	})
	s1, s2 := b.samples[i-1], b.samples[i]

	span := s2.Timestamp.Sub(s1.Timestamp).Seconds()
	if span <= 0 {
		return s1, true
	}
	frac := t.Sub(s1.Timestamp).Seconds() / span

	return provider.Position{
		AzimuthDeg:   lerpAzimuth(s1.AzimuthDeg, s2.AzimuthDeg, frac),
		ElevationDeg: s1.ElevationDeg + frac*(s2.ElevationDeg-s1.ElevationDeg),
		RangeKm:      s1.RangeKm + frac*(s2.RangeKm-s1.RangeKm),
		Timestamp:    t,
	}, true
}

// RadialVelocity returns the range rate in meters per second derived from
// the two most recent samples at or before now. Positive means the
// satellite is receding from the observer.
func (b *Buffer) RadialVelocity(now time.Time) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := sort.Search(len(b.samples), func(i int) bool {
		return b.samples[i].Timestamp.After(now)
	})
	if i < 2 {
		return 0, false
	}
	s1, s2 := b.samples[i-2], b.samples[i-1]

	dt := s2.Timestamp.Sub(s1.Timestamp).Seconds()
	if dt <= 0 {
		return 0, false
	}
	return (s2.RangeKm - s1.RangeKm) * 1000 / dt, true
}

// lerpAzimuth interpolates between two compass bearings along the shorter
// arc, normalizing the result to [0, 360).
func lerpAzimuth(a1, a2, frac float64) float64 {
	delta := math.Mod(a2-a1+540, 360) - 180
	az := math.Mod(a1+frac*delta, 360)
	if az < 0 {
		az += 360
	}
	return az
}
