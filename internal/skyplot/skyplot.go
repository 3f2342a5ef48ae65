// Package skyplot maps observer-relative satellite directions onto a 2-D
// polar sky plot.
//
// The plot is a square viewport containing a circle: the center is the
// zenith (elevation 90), the outer ring is the horizon (elevation 0), and
// azimuth runs compass-style with 0 degrees (North) straight up and 90
// degrees (East) to the right. All functions here are pure plane geometry;
// validating whether an input is meaningful is the caller's job.
package skyplot

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position in plot coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AzEl is an observer-relative direction in degrees. Azimuth is a compass
// bearing (0 = North, clockwise); elevation is the angle above the horizon.
type AzEl struct {
	AzimuthDeg   float64
	ElevationDeg float64
}

// Viewport describes the plot circle: its center and the outer (horizon)
// radius in plot units.
type Viewport struct {
	CenterX float64
	CenterY float64
	Radius  float64
}

// DefaultViewport matches a 200x200 drawing surface with a small margin
// around the horizon ring for cardinal labels.
var DefaultViewport = Viewport{CenterX: 100, CenterY: 100, Radius: 90}

// ElevationToRadius maps elevation to distance from the plot center:
// elevation 90 is the center (radius 0), elevation 0 is the horizon ring.
// Values outside [0,90] extrapolate linearly rather than clamping, so a
// below-horizon sample plots outside the horizon ring.
func (v Viewport) ElevationToRadius(elevationDeg float64) float64 {
	return v.Radius * (1 - elevationDeg/90)
}

// PlotPoint projects an azimuth/elevation direction into plot coordinates.
// With y growing downward, x = Cx + r*sin(az) and y = Cy - r*cos(az) puts
// azimuth 0 at the top of the plot and azimuth 90 on the right.
func (v Viewport) PlotPoint(azimuthDeg, elevationDeg float64) Point {
	r := v.ElevationToRadius(elevationDeg)
	theta := azimuthDeg * math.Pi / 180
	return Point{
		X: v.CenterX + r*math.Sin(theta),
		Y: v.CenterY - r*math.Cos(theta),
	}
}

// SegmentPath converts an ordered direction sequence into one or more
// polylines, splitting wherever the raw azimuth difference between
// consecutive samples exceeds 180 degrees. A jump that large is the 0/360
// seam, not real angular motion; connecting across it would draw a chord
// through the middle of the plot instead of an edge-hugging path.
//
// Each returned polyline starts a new stroke. Fewer than two input samples
// yields no polylines.
func (v Viewport) SegmentPath(points []AzEl) [][]Point {
	if len(points) < 2 {
		return nil
	}

	var segments [][]Point
	current := []Point{v.PlotPoint(points[0].AzimuthDeg, points[0].ElevationDeg)}

	for i := 1; i < len(points); i++ {
		p := v.PlotPoint(points[i].AzimuthDeg, points[i].ElevationDeg)
		if math.Abs(points[i].AzimuthDeg-points[i-1].AzimuthDeg) > 180 {
			segments = append(segments, current)
			current = []Point{p}
			continue
		}
		current = append(current, p)
	}
	segments = append(segments, current)

	return segments
}

// PolylineSVG renders a polyline as SVG path data ("M x y L x y ...").
// Returns the empty string for fewer than two points.
func PolylineSVG(points []Point) string {
	if len(points) < 2 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %.2f %.2f", points[0].X, points[0].Y)
	for _, p := range points[1:] {
		fmt.Fprintf(&b, " L %.2f %.2f", p.X, p.Y)
	}
	return b.String()
}

// normalizeAngle wraps an angle in radians into [0, 2*pi).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
