// Package provider defines the external collaborator contracts the
// tracking core consumes — real-time position forecasts and pass
// predictions — and implements the hosted N2YO REST client for both.
//
// The core never computes orbits itself; it only reads Position samples
// and Prediction records through these interfaces. A local SGP4-backed
// implementation lives in internal/ephem for keyless operation.
package provider

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrMissingAPIKey is returned when a provider that requires credentials
// is called without them.
var ErrMissingAPIKey = errors.New("provider: missing API key")

// ErrBudgetExhausted is returned when the hourly request budget for a
// rate-limited provider has been spent.
var ErrBudgetExhausted = errors.New("provider: hourly request budget exhausted")

// Position is one observer-relative satellite sample. Range is the slant
// distance from the observer to the satellite.
type Position struct {
	AzimuthDeg   float64   `json:"azimuth"`
	ElevationDeg float64   `json:"elevation"`
	RangeKm      float64   `json:"rangeKm"`
	Timestamp    time.Time `json:"timestamp"`
}

// Forecast is an ordered run of Position samples plus the provider's own
// reference clock. ServerTime stands in for the local clock when splitting
// past from future, so a skewed client clock cannot shear the plot.
type Forecast struct {
	Samples    []Position
	ServerTime time.Time
}

// Observer is a ground station location.
type Observer struct {
	LatDeg float64
	LngDeg float64
	AltM   float64
}

// PositionRequest asks for a position forecast starting now.
type PositionRequest struct {
	NORADID  int
	Observer Observer
	Seconds  int // forecast window; capped at the provider maximum
	APIKey   string
}

// PositionProvider serves finite-horizon position forecasts.
type PositionProvider interface {
	// Positions returns samples covering up to MaxWindowSeconds from now.
	Positions(ctx context.Context, req PositionRequest) (*Forecast, error)

	// MaxWindowSeconds is the largest window a single request may cover.
	MaxWindowSeconds() int

	// RequiresAPIKey reports whether requests need credentials.
	RequiresAPIKey() bool
}

// Prediction is one predicted visibility pass. Azimuth fields are NaN when
// the source did not report them.
type Prediction struct {
	NORADID         int           `json:"noradId"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	StartAzimuthDeg float64       `json:"startAzimuth"`
	EndAzimuthDeg   float64       `json:"endAzimuth"`
	MaxAzimuthDeg   float64       `json:"maxAzimuth"`
	MaxElevationDeg float64       `json:"maxElevation"`
	Duration        time.Duration `json:"duration"`
}

// PassRequest asks for visibility passes over a prediction horizon.
type PassRequest struct {
	NORADID         int
	Observer        Observer
	HorizonDays     int
	MinElevationDeg float64
	APIKey          string
}

// PassProvider serves pass predictions.
type PassProvider interface {
	Passes(ctx context.Context, req PassRequest) ([]Prediction, error)
}

// earthRadiusKm is the mean equatorial radius used for slant range.
const earthRadiusKm = 6378.137

// SlantRangeKm derives the observer-to-satellite distance from the
// satellite's altitude above the surface and its elevation angle, treating
// the Earth as spherical. Law of cosines on the observer / geocenter /
// satellite triangle.
func SlantRangeKm(altitudeKm, elevationDeg float64) float64 {
	el := elevationDeg * math.Pi / 180
	re := earthRadiusKm
	rs := re + altitudeKm

	r := math.Sqrt(rs*rs-re*re*math.Cos(el)*math.Cos(el)) - re*math.Sin(el)
	if r < 0 {
		return 0
	}
	return r
}
