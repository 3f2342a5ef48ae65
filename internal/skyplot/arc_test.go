package skyplot

import (
	"math"
	"strings"
	"testing"
)

// TestCircleThroughPoints fits three points on a known circle and checks
// the recovered center and radius.
func TestCircleThroughPoints(t *testing.T) {
	// Circle of radius 5 centered at (3, 4).
	p1 := Point{X: 8, Y: 4}
	p2 := Point{X: 3, Y: 9}
	p3 := Point{X: -2, Y: 4}

	c, ok := CircleThroughPoints(p1, p2, p3)
	if !ok {
		t.Fatal("expected circle fit to succeed")
	}
	if math.Abs(c.Center.X-3) > 1e-6 || math.Abs(c.Center.Y-4) > 1e-6 {
		t.Errorf("center = (%v, %v), want (3, 4)", c.Center.X, c.Center.Y)
	}
	if math.Abs(c.Radius-5) > 1e-6 {
		t.Errorf("radius = %v, want 5", c.Radius)
	}
}

// TestCircleThroughPointsCollinear verifies the degenerate branch: three
// points on a line have no circumcircle.
func TestCircleThroughPointsCollinear(t *testing.T) {
	_, ok := CircleThroughPoints(Point{X: 0, Y: 0}, Point{X: 1, Y: 1}, Point{X: 2, Y: 2})
	if ok {
		t.Error("expected collinear points to fail the circle fit")
	}
}

// TestArcThroughPoints checks sweep and large-arc selection on a unit
// circle walked in both directions.
func TestArcThroughPoints(t *testing.T) {
	// Half circle traversed in increasing-angle order: (1,0) -> (0,1) -> (-1,0).
	p := ArcThroughPoints(Point{X: 1, Y: 0}, Point{X: 0, Y: 1}, Point{X: -1, Y: 0})
	if p.Arc == nil {
		t.Fatal("expected an arc, got segment fallback")
	}
	if math.Abs(p.Arc.Radius-1) > 1e-6 {
		t.Errorf("radius = %v, want 1", p.Arc.Radius)
	}
	if !p.Arc.Sweep {
		t.Error("expected sweep flag for increasing-angle traversal")
	}
	if p.Arc.LargeArc {
		t.Error("half circle must not set the large-arc flag")
	}

	// Same three points walked the other way reverses the sweep.
	q := ArcThroughPoints(Point{X: -1, Y: 0}, Point{X: 0, Y: 1}, Point{X: 1, Y: 0})
	if q.Arc == nil {
		t.Fatal("expected an arc, got segment fallback")
	}
	if q.Arc.Sweep {
		t.Error("expected cleared sweep flag for decreasing-angle traversal")
	}
	if q.Arc.LargeArc {
		t.Error("half circle must not set the large-arc flag")
	}
}

// TestArcThroughPointsMajorArc verifies the large-arc flag when the
// midpoint forces more than half a turn.
func TestArcThroughPointsMajorArc(t *testing.T) {
	// (1,0) -> (-1,0) -> (0,-1) in increasing-angle order covers 270 degrees
	// of the unit circle (with y growing downward, (0,-1) is at angle 3*pi/2).
	p := ArcThroughPoints(Point{X: 1, Y: 0}, Point{X: -1, Y: 0}, Point{X: 0, Y: -1})
	if p.Arc == nil {
		t.Fatal("expected an arc, got segment fallback")
	}
	if !p.Arc.LargeArc {
		t.Error("expected large-arc flag for a 270 degree sweep")
	}
	if !p.Arc.Sweep {
		t.Error("expected sweep flag for increasing-angle traversal")
	}
}

// TestArcThroughPointsCollinearFallback verifies the straight two-segment
// fallback and its SVG rendering.
func TestArcThroughPointsCollinearFallback(t *testing.T) {
	p := ArcThroughPoints(Point{X: 0, Y: 0}, Point{X: 1, Y: 1}, Point{X: 2, Y: 2})
	if p.Arc != nil {
		t.Fatal("expected segment fallback for collinear points")
	}
	if len(p.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(p.Segments))
	}

	svg := p.SVG()
	if strings.Contains(svg, "A") {
		t.Errorf("fallback SVG must not contain an arc command: %q", svg)
	}
	if strings.Count(svg, "L") != 2 {
		t.Errorf("fallback SVG should have two line commands: %q", svg)
	}
}

func TestArcSVG(t *testing.T) {
	p := ArcThroughPoints(Point{X: 1, Y: 0}, Point{X: 0, Y: 1}, Point{X: -1, Y: 0})
	svg := p.SVG()
	if !strings.HasPrefix(svg, "M 1.00 0.00 A ") {
		t.Errorf("unexpected SVG prefix: %q", svg)
	}
	if !strings.Contains(svg, " 0 1 ") {
		t.Errorf("expected large-arc 0 / sweep 1 flags in %q", svg)
	}
}

func TestGridCached(t *testing.T) {
	g := vp.Grid()
	if len(g.Rings) != 3 {
		t.Errorf("rings = %d, want 3", len(g.Rings))
	}
	if g.Rings[0].Radius != vp.Radius {
		t.Errorf("horizon ring radius = %v, want %v", g.Rings[0].Radius, vp.Radius)
	}
	if len(g.Cross) != 2 {
		t.Errorf("cross lines = %d, want 2", len(g.Cross))
	}
	if len(g.Labels) != 4 {
		t.Errorf("labels = %d, want 4", len(g.Labels))
	}
}
