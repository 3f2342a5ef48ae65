// Package pass derives sky-plot geometry from a pass prediction record:
// entry and exit points on the horizon ring, the peak point, and the
// predicted-path arc through all three.
package pass

import (
	"math"

	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/skyplot"
)

// geostationaryAzimuthDeltaDeg classifies a near-motionless pass. A raw
// start/end azimuth delta under 5 degrees is treated as geostationary and
// suppresses entry/exit/path rendering, since so small a sweep produces a
// degenerate arc. The threshold is a coarse heuristic kept for behavioral
// compatibility; it also catches slow-drifting non-geostationary objects.
const geostationaryAzimuthDeltaDeg = 5

// IsGeostationary reports whether the pass should render as a fixed point
// instead of a path.
func IsGeostationary(p provider.Prediction) bool {
	return math.Abs(p.StartAzimuthDeg-p.EndAzimuthDeg) < geostationaryAzimuthDeltaDeg
}

// EntryPoint is where the satellite rises over the horizon ring. Not
// available for geostationary passes or when the start azimuth is unknown.
func EntryPoint(p provider.Prediction, vp skyplot.Viewport) (skyplot.Point, bool) {
	if IsGeostationary(p) || math.IsNaN(p.StartAzimuthDeg) {
		return skyplot.Point{}, false
	}
	return vp.PlotPoint(p.StartAzimuthDeg, 0), true
}

// ExitPoint is where the satellite sets below the horizon ring.
func ExitPoint(p provider.Prediction, vp skyplot.Viewport) (skyplot.Point, bool) {
	if IsGeostationary(p) || math.IsNaN(p.EndAzimuthDeg) {
		return skyplot.Point{}, false
	}
	return vp.PlotPoint(p.EndAzimuthDeg, 0), true
}

// PeakAzimuth is the azimuth of the pass culmination in [0, 360). The
// provider's reported max azimuth wins when present; otherwise the angular
// midpoint of start and end is used, corrected for the 0/360 seam when the
// raw difference exceeds 180 degrees. The correction branch is selected by
// which endpoint is larger; see DESIGN.md for the known limitation near
// the pole.
func PeakAzimuth(p provider.Prediction) (float64, bool) {
	if !math.IsNaN(p.MaxAzimuthDeg) {
		return normalizeAzimuth(p.MaxAzimuthDeg), true
	}
	if math.IsNaN(p.StartAzimuthDeg) || math.IsNaN(p.EndAzimuthDeg) {
		return 0, false
	}

	start, end := p.StartAzimuthDeg, p.EndAzimuthDeg
	mid := (start + end) / 2
	if math.Abs(start-end) > 180 {
		if end > start {
			mid = (start + end - 360) / 2
		} else {
			mid = (start + end + 360) / 2
		}
	}
	return normalizeAzimuth(mid), true
}

// PeakPoint is the plot position of the pass culmination.
func PeakPoint(p provider.Prediction, vp skyplot.Viewport) (skyplot.Point, bool) {
	az, ok := PeakAzimuth(p)
	if !ok || math.IsNaN(p.MaxElevationDeg) {
		return skyplot.Point{}, false
	}
	return vp.PlotPoint(az, p.MaxElevationDeg), true
}

// PathArc is the predicted path: a single arc from entry through peak to
// exit. Not available for geostationary passes or when any of the three
// points is unknown.
func PathArc(p provider.Prediction, vp skyplot.Viewport) (skyplot.Path, bool) {
	if IsGeostationary(p) {
		return skyplot.Path{}, false
	}

	entry, ok := EntryPoint(p, vp)
	if !ok {
		return skyplot.Path{}, false
	}
	peak, ok := PeakPoint(p, vp)
	if !ok {
		return skyplot.Path{}, false
	}
	exit, ok := ExitPoint(p, vp)
	if !ok {
		return skyplot.Path{}, false
	}

	return skyplot.ArcThroughPoints(entry, peak, exit), true
}

func normalizeAzimuth(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
