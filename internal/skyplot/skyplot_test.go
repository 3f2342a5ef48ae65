package skyplot

import (
	"math"
	"testing"
)

var vp = Viewport{CenterX: 100, CenterY: 100, Radius: 90}

// TestElevationToRadius verifies the linear elevation mapping: horizon at
// the outer ring, zenith at the center, strictly decreasing in between.
func TestElevationToRadius(t *testing.T) {
	if r := vp.ElevationToRadius(0); r != 90 {
		t.Errorf("ElevationToRadius(0) = %v, want 90", r)
	}
	if r := vp.ElevationToRadius(90); r != 0 {
		t.Errorf("ElevationToRadius(90) = %v, want 0", r)
	}

	prev := vp.ElevationToRadius(0)
	for el := 1.0; el <= 90; el++ {
		r := vp.ElevationToRadius(el)
		if r >= prev {
			t.Fatalf("mapping not strictly decreasing at elevation %v: %v >= %v", el, r, prev)
		}
		prev = r
	}

	// Out-of-range elevations extrapolate, they are not clamped.
	if r := vp.ElevationToRadius(-10); r <= 90 {
		t.Errorf("ElevationToRadius(-10) = %v, want > 90 (extrapolated)", r)
	}
}

// TestPlotPointCompass verifies the compass convention: azimuth 0 plots
// straight up (North), 90 to the right (East).
func TestPlotPointCompass(t *testing.T) {
	tests := []struct {
		az   float64
		want Point
	}{
		{0, Point{X: 100, Y: 10}},
		{90, Point{X: 190, Y: 100}},
		{180, Point{X: 100, Y: 190}},
		{270, Point{X: 10, Y: 100}},
	}

	for _, tt := range tests {
		got := vp.PlotPoint(tt.az, 0)
		if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
			t.Errorf("PlotPoint(%v, 0) = (%v, %v), want (%v, %v)",
				tt.az, got.X, got.Y, tt.want.X, tt.want.Y)
		}
	}

	// Zenith plots at the center regardless of azimuth.
	got := vp.PlotPoint(123, 90)
	if math.Abs(got.X-100) > 1e-9 || math.Abs(got.Y-100) > 1e-9 {
		t.Errorf("PlotPoint(123, 90) = (%v, %v), want center", got.X, got.Y)
	}
}

// TestSegmentPathWraparound verifies that consecutive azimuths whose raw
// difference exceeds 180 degrees land in different polylines. 355 -> 5 is a
// 10 degree true motion across the seam, but the raw difference of 350
// must still trigger the split.
func TestSegmentPathWraparound(t *testing.T) {
	points := []AzEl{
		{AzimuthDeg: 350, ElevationDeg: 10},
		{AzimuthDeg: 355, ElevationDeg: 12},
		{AzimuthDeg: 5, ElevationDeg: 14},
		{AzimuthDeg: 10, ElevationDeg: 16},
	}

	segments := vp.SegmentPath(points)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments across the 0/360 seam, got %d", len(segments))
	}
	if len(segments[0]) != 2 || len(segments[1]) != 2 {
		t.Errorf("segment lengths = %d, %d, want 2, 2", len(segments[0]), len(segments[1]))
	}
}

// TestSegmentPathContinuous verifies that a path that never crosses the
// seam comes back as a single polyline.
func TestSegmentPathContinuous(t *testing.T) {
	points := []AzEl{
		{AzimuthDeg: 10, ElevationDeg: 0},
		{AzimuthDeg: 60, ElevationDeg: 30},
		{AzimuthDeg: 110, ElevationDeg: 45},
		{AzimuthDeg: 160, ElevationDeg: 20},
	}

	segments := vp.SegmentPath(points)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if len(segments[0]) != 4 {
		t.Errorf("segment length = %d, want 4", len(segments[0]))
	}
}

func TestSegmentPathTooShort(t *testing.T) {
	if got := vp.SegmentPath(nil); got != nil {
		t.Errorf("SegmentPath(nil) = %v, want nil", got)
	}
	if got := vp.SegmentPath([]AzEl{{AzimuthDeg: 10}}); got != nil {
		t.Errorf("SegmentPath(single point) = %v, want nil", got)
	}
}

func TestPolylineSVG(t *testing.T) {
	got := PolylineSVG([]Point{{X: 1, Y: 2}, {X: 3, Y: 4}})
	want := "M 1.00 2.00 L 3.00 4.00"
	if got != want {
		t.Errorf("PolylineSVG = %q, want %q", got, want)
	}
	if got := PolylineSVG([]Point{{X: 1, Y: 2}}); got != "" {
		t.Errorf("PolylineSVG(single point) = %q, want empty", got)
	}
}
