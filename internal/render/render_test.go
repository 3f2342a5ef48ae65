package render

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/skyplot"
	"github.com/neurostunt/sattrack/internal/transmitters"
)

func overheadPass() provider.Prediction {
	now := time.Now().UTC()
	return provider.Prediction{
		NORADID:         25544,
		StartTime:       now,
		EndTime:         now.Add(10 * time.Minute),
		StartAzimuthDeg: 315,
		EndAzimuthDeg:   45,
		MaxAzimuthDeg:   0,
		MaxElevationDeg: 60,
		Duration:        10 * time.Minute,
	}
}

func TestGridCachedAcrossScenes(t *testing.T) {
	r := NewRenderer(skyplot.DefaultViewport)

	g1 := r.Grid()
	g2 := r.Grid()
	if &g1.Rings[0] != &g2.Rings[0] {
		t.Error("grid rebuilt between calls, want cached")
	}

	sc := r.Scene(Input{NORADID: 25544})
	if len(sc.Grid.Rings) != 3 {
		t.Errorf("scene grid has %d rings, want 3", len(sc.Grid.Rings))
	}
}

func TestSceneNoData(t *testing.T) {
	r := NewRenderer(skyplot.DefaultViewport)

	sc := r.Scene(Input{NORADID: 25544})
	if !sc.NoData {
		t.Error("empty input should produce a no-data scene")
	}

	// A zero azimuth/elevation placeholder is not a real position.
	sc = r.Scene(Input{
		NORADID: 25544,
		Current: &provider.Position{AzimuthDeg: 0, ElevationDeg: 0},
	})
	if !sc.NoData {
		t.Error("all-zero current position should produce a no-data scene")
	}

	sc = r.Scene(Input{
		NORADID: 25544,
		Current: &provider.Position{AzimuthDeg: 120, ElevationDeg: 35, RangeKm: 900},
	})
	if sc.NoData {
		t.Error("real current position should not be no-data")
	}
}

func TestScenePass(t *testing.T) {
	r := NewRenderer(skyplot.DefaultViewport)
	p := overheadPass()

	sc := r.Scene(Input{NORADID: 25544, Prediction: &p})
	if sc.NoData {
		t.Fatal("scene with a pass arc should not be no-data")
	}
	if !strings.Contains(sc.PassPath, "A ") {
		t.Errorf("pass path %q should contain an arc command", sc.PassPath)
	}
	if sc.Entry == nil || sc.Peak == nil || sc.Exit == nil {
		t.Fatal("expected entry, peak, and exit markers")
	}
	if sc.Entry.Label != "AOS" || sc.Exit.Label != "LOS" {
		t.Errorf("marker labels %q/%q, want AOS/LOS", sc.Entry.Label, sc.Exit.Label)
	}

	// Peak of a 315→0→45 pass at 60° elevation sits due north of center.
	wantPeak := skyplot.DefaultViewport.PlotPoint(0, 60)
	if math.Abs(sc.Peak.At.X-wantPeak.X) > 1e-9 || math.Abs(sc.Peak.At.Y-wantPeak.Y) > 1e-9 {
		t.Errorf("peak at (%.2f, %.2f), want (%.2f, %.2f)", sc.Peak.At.X, sc.Peak.At.Y, wantPeak.X, wantPeak.Y)
	}
}

func TestSceneGeostationary(t *testing.T) {
	r := NewRenderer(skyplot.DefaultViewport)
	now := time.Now().UTC()
	p := provider.Prediction{
		NORADID:         26038,
		StartTime:       now,
		EndTime:         now.Add(time.Hour),
		StartAzimuthDeg: 172,
		EndAzimuthDeg:   174,
		MaxAzimuthDeg:   173,
		MaxElevationDeg: 41,
	}

	sc := r.Scene(Input{NORADID: 26038, Prediction: &p})
	if !sc.Geostationary {
		t.Fatal("near-constant azimuth should render as geostationary")
	}
	if sc.PassPath != "" {
		t.Error("geostationary satellite should not get a pass arc")
	}
	if sc.Entry != nil || sc.Exit != nil {
		t.Error("geostationary satellite should not get entry/exit markers")
	}
	if sc.Current == nil {
		t.Fatal("geostationary satellite should get a static marker")
	}
	want := skyplot.DefaultViewport.PlotPoint(172, 41)
	if sc.Current.At != want {
		t.Errorf("static marker at %+v, want %+v", sc.Current.At, want)
	}
	if sc.NoData {
		t.Error("geostationary marker is data")
	}
}

func TestSceneTracksAndTelemetry(t *testing.T) {
	r := NewRenderer(skyplot.DefaultViewport)
	base := time.Now().UTC()

	mk := func(az, el float64, offset int) provider.Position {
		return provider.Position{
			AzimuthDeg:   az,
			ElevationDeg: el,
			Timestamp:    base.Add(time.Duration(offset) * time.Second),
		}
	}

	sc := r.Scene(Input{
		NORADID: 25544,
		Past:    []provider.Position{mk(80, 10, -2), mk(85, 15, -1)},
		Future:  []provider.Position{mk(90, 20, 1), mk(95, 25, 2)},
		Current: &provider.Position{AzimuthDeg: 87.5, ElevationDeg: 17.5, RangeKm: 1000},
	})

	if !strings.HasPrefix(sc.PastPath, "M ") {
		t.Errorf("past path %q should be SVG path data", sc.PastPath)
	}
	if !strings.HasPrefix(sc.FuturePath, "M ") {
		t.Errorf("future path %q should be SVG path data", sc.FuturePath)
	}
	if sc.Telemetry == nil {
		t.Fatal("expected telemetry with a current position")
	}
	if sc.Telemetry.Azimuth != "87.5°" {
		t.Errorf("azimuth readout %q, want 87.5°", sc.Telemetry.Azimuth)
	}
	if sc.Telemetry.Range != "1000.0 km (621.4 mi)" {
		t.Errorf("range readout %q, want 1000.0 km (621.4 mi)", sc.Telemetry.Range)
	}

	// A single sample is not a drawable path.
	sc = r.Scene(Input{
		NORADID: 25544,
		Past:    []provider.Position{mk(80, 10, -1)},
		Current: &provider.Position{AzimuthDeg: 80, ElevationDeg: 10},
	})
	if sc.PastPath != "" {
		t.Errorf("one-point past path %q, want empty", sc.PastPath)
	}
}

func TestSceneTransmitters(t *testing.T) {
	r := NewRenderer(skyplot.DefaultViewport)
	txs := []transmitters.Transmitter{
		{Description: "SSTV", Mode: "FM", DownlinkHz: 145.8e6, Status: "active", Alive: true},
		{Description: "Dead packet", Mode: "AFSK", DownlinkHz: 145.825e6, Status: "inactive", Alive: false},
	}
	current := &provider.Position{AzimuthDeg: 120, ElevationDeg: 35, RangeKm: 900}

	// Receding at 7 km/s: corrected frequency drops below nominal.
	sc := r.Scene(Input{
		NORADID:           25544,
		Current:           current,
		RadialVelocityMS:  7000,
		HasRadialVelocity: true,
		Transmitters:      txs,
	})
	if len(sc.Transmitters) != 1 {
		t.Fatalf("got %d transmitter rows, want 1 usable", len(sc.Transmitters))
	}
	row := sc.Transmitters[0]
	if row.CorrectedHz >= row.NominalHz {
		t.Errorf("receding satellite: corrected %.1f should be below nominal %.1f", row.CorrectedHz, row.NominalHz)
	}
	shift := row.NominalHz - row.CorrectedHz
	if math.Abs(shift-3404.2) > 1 {
		t.Errorf("shift %.1f Hz, want ~3404 Hz at 145.8 MHz and 7 km/s", shift)
	}

	// No radial velocity yet: the directory still shows, uncorrected.
	sc = r.Scene(Input{NORADID: 25544, Current: current, Transmitters: txs})
	if len(sc.Transmitters) != 1 {
		t.Fatalf("got %d transmitter rows without radial velocity, want 1", len(sc.Transmitters))
	}
	row = sc.Transmitters[0]
	if row.CorrectedHz != row.NominalHz {
		t.Errorf("no radial velocity: corrected %.1f should equal nominal %.1f", row.CorrectedHz, row.NominalHz)
	}
}

func TestSceneTransmittersGeostationary(t *testing.T) {
	r := NewRenderer(skyplot.DefaultViewport)
	now := time.Now().UTC()
	p := provider.Prediction{
		NORADID:         26038,
		StartTime:       now,
		EndTime:         now.Add(time.Hour),
		StartAzimuthDeg: 172,
		EndAzimuthDeg:   174,
		MaxAzimuthDeg:   173,
		MaxElevationDeg: 41,
	}
	txs := []transmitters.Transmitter{
		{Description: "Beacon", Mode: "CW", DownlinkHz: 2.4e9, Status: "active", Alive: true},
	}

	// A fixed satellite has no Doppler shift but keeps its directory.
	sc := r.Scene(Input{
		NORADID:           26038,
		Prediction:        &p,
		RadialVelocityMS:  12,
		HasRadialVelocity: true,
		Transmitters:      txs,
	})
	if len(sc.Transmitters) != 1 {
		t.Fatalf("got %d transmitter rows, want 1", len(sc.Transmitters))
	}
	row := sc.Transmitters[0]
	if row.CorrectedHz != row.NominalHz {
		t.Errorf("geostationary: corrected %.1f should equal nominal %.1f", row.CorrectedHz, row.NominalHz)
	}
}
