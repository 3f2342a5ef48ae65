package skyplot

import (
	"fmt"
	"math"
)

// collinearEps bounds the circumcenter determinant below which three points
// are treated as collinear, in plot-coordinate units.
const collinearEps = 1e-4

// Circle is a circle in plot coordinates.
type Circle struct {
	Center Point
	Radius float64
}

// CircleThroughPoints fits the unique circle through three points using the
// standard circumcenter formula. The second return is false when the points
// are collinear (determinant within collinearEps of zero); callers fall back
// to straight segments in that case.
func CircleThroughPoints(p1, p2, p3 Point) (Circle, bool) {
	d := 2 * (p1.X*(p2.Y-p3.Y) + p2.X*(p3.Y-p1.Y) + p3.X*(p1.Y-p2.Y))
	if math.Abs(d) < collinearEps {
		return Circle{}, false
	}

	s1 := p1.X*p1.X + p1.Y*p1.Y
	s2 := p2.X*p2.X + p2.Y*p2.Y
	s3 := p3.X*p3.X + p3.Y*p3.Y

	cx := (s1*(p2.Y-p3.Y) + s2*(p3.Y-p1.Y) + s3*(p1.Y-p2.Y)) / d
	cy := (s1*(p3.X-p2.X) + s2*(p1.X-p3.X) + s3*(p2.X-p1.X)) / d

	center := Point{X: cx, Y: cy}
	return Circle{
		Center: center,
		Radius: math.Hypot(p1.X-cx, p1.Y-cy),
	}, true
}

// Arc is a single circular arc in SVG elliptical-arc terms.
type Arc struct {
	End      Point   `json:"end"`
	Radius   float64 `json:"radius"`
	LargeArc bool    `json:"largeArc"`
	Sweep    bool    `json:"sweep"`
}

// Path is a drawable path starting at Start. Exactly one of Arc and
// Segments is set: Arc when a circular fit succeeded, Segments (the
// remaining polyline points) when it did not.
type Path struct {
	Start    Point   `json:"start"`
	Arc      *Arc    `json:"arc,omitempty"`
	Segments []Point `json:"segments,omitempty"`
}

// ArcThroughPoints builds a single-arc path from p1 to p3 passing through
// p2. When the three points are collinear it degrades to the two straight
// segments p1->p2->p3.
//
// Sweep selection: measure the angle of each point around the fitted
// center. If the two forward deltas p1->p2 and p2->p3, each normalized to
// [0, 2*pi), sum to under a full turn, the traversal runs in increasing
// angle order (SVG sweep flag set, since the plot's y axis grows downward);
// otherwise it runs the other way. The large-arc flag is set when the total
// angle swept from p1 to p3 in the chosen direction exceeds pi.
func ArcThroughPoints(p1, p2, p3 Point) Path {
	c, ok := CircleThroughPoints(p1, p2, p3)
	if !ok {
		return Path{Start: p1, Segments: []Point{p2, p3}}
	}

	a1 := math.Atan2(p1.Y-c.Center.Y, p1.X-c.Center.X)
	a2 := math.Atan2(p2.Y-c.Center.Y, p2.X-c.Center.X)
	a3 := math.Atan2(p3.Y-c.Center.Y, p3.X-c.Center.X)

	forward := normalizeAngle(a2-a1) + normalizeAngle(a3-a2)

	var sweep bool
	var total float64
	if forward < 2*math.Pi {
		sweep = true
		total = forward
	} else {
		sweep = false
		total = 4*math.Pi - forward
	}

	return Path{
		Start: p1,
		Arc: &Arc{
			End:      p3,
			Radius:   c.Radius,
			LargeArc: total > math.Pi,
			Sweep:    sweep,
		},
	}
}

// SVG renders the path as SVG path data: a single A command for arcs, L
// commands for the segment fallback.
func (p Path) SVG() string {
	if p.Arc != nil {
		return fmt.Sprintf("M %.2f %.2f A %.2f %.2f 0 %d %d %.2f %.2f",
			p.Start.X, p.Start.Y,
			p.Arc.Radius, p.Arc.Radius,
			boolFlag(p.Arc.LargeArc), boolFlag(p.Arc.Sweep),
			p.Arc.End.X, p.Arc.End.Y)
	}
	return PolylineSVG(append([]Point{p.Start}, p.Segments...))
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
