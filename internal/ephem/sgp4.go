// Package ephem is the local implementation of the provider contracts:
// it propagates TLEs with SGP4 and reduces the results to observer
// look-angle samples and pass predictions. It exists so the service runs
// without a hosted position API; the tracking core itself only ever sees
// provider.Position samples.
package ephem

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/neurostunt/sattrack/internal/tle"
	"github.com/neurostunt/sattrack/internal/transform"
)

// SGP4 library: github.com/joshuaferrara/go-satellite. Pure Go, TEME
// output, widely used. Its Propagate takes the Satellite by value, so SGP4
// error codes never reach the caller; failures are detected by NaN and
// magnitude checks on the output instead.

// Orbiter propagates a single satellite.
type Orbiter struct {
	sat     satellite.Satellite
	noradID int
}

// NewOrbiter initializes SGP4 for one element set. TLE lines are
// pre-validated because go-satellite log.Fatals on malformed input.
func NewOrbiter(entry tle.Entry) (*Orbiter, error) {
	if err := validateLines(entry.Line1, entry.Line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", entry.NORADID, err)
	}

	sat := satellite.TLEToSat(entry.Line1, entry.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", entry.NORADID, sat.Error, sat.ErrorStr)
	}
	return &Orbiter{sat: sat, noradID: entry.NORADID}, nil
}

func validateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 || len(line2) != 69 {
		return fmt.Errorf("line lengths %d/%d, expected 69/69", len(line1), len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got %q", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got %q", line2[0])
	}
	return nil
}

// StateAt propagates to the given UTC time and returns the TEME state.
func (o *Orbiter) StateAt(t time.Time) (transform.StateTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(o.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if math.IsNaN(mag) || math.IsInf(mag, 0) {
		return transform.StateTEME{}, fmt.Errorf("sgp4 output NaN/Inf for NORAD %d", o.noradID)
	}
	// Earth orbits live between ~6200 km (surface-grazing) and ~50000 km.
	if mag < 6200 || mag > 50000 {
		return transform.StateTEME{}, fmt.Errorf("sgp4 position magnitude %.1f km implausible for NORAD %d", mag, o.noradID)
	}

	return transform.StateTEME{
		Position: [3]float64{pos.X, pos.Y, pos.Z},
		Velocity: [3]float64{vel.X, vel.Y, vel.Z},
	}, nil
}
