// Package render assembles complete sky plot scenes: the static grid,
// the predicted pass arc, the tracked path split into past and future,
// markers, telemetry readouts, and Doppler-corrected transmitter rows.
//
// A Scene is a plain data structure meant to be serialized as JSON and
// drawn by any client; the SVG path strings slot directly into <path d=...>.
package render

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/neurostunt/sattrack/internal/doppler"
	"github.com/neurostunt/sattrack/internal/pass"
	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/skyplot"
	"github.com/neurostunt/sattrack/internal/transmitters"
)

const kmToMiles = 0.621371

// Marker is a labeled point on the plot.
type Marker struct {
	Label string        `json:"label"`
	At    skyplot.Point `json:"at"`
}

// Telemetry is the human-readable readout for the current position.
type Telemetry struct {
	Azimuth   string `json:"azimuth"`
	Elevation string `json:"elevation"`
	Range     string `json:"range"`
}

// TransmitterRow is one downlink with its Doppler-corrected frequency.
type TransmitterRow struct {
	Description string  `json:"description"`
	Mode        string  `json:"mode"`
	NominalHz   float64 `json:"nominal_hz"`
	CorrectedHz float64 `json:"corrected_hz"`
}

// Scene is everything a client needs to draw one satellite's sky plot.
type Scene struct {
	NORADID     int       `json:"norad_id"`
	GeneratedAt time.Time `json:"generated_at"`
	NoData      bool      `json:"no_data"`

	Grid skyplot.Grid `json:"grid"`

	// SVG path data; empty strings mean nothing to draw.
	PassPath   string `json:"pass_path,omitempty"`
	PastPath   string `json:"past_path,omitempty"`
	FuturePath string `json:"future_path,omitempty"`

	Geostationary bool `json:"geostationary"`

	Entry   *Marker `json:"entry,omitempty"`
	Peak    *Marker `json:"peak,omitempty"`
	Exit    *Marker `json:"exit,omitempty"`
	Current *Marker `json:"current,omitempty"`

	Telemetry    *Telemetry       `json:"telemetry,omitempty"`
	Transmitters []TransmitterRow `json:"transmitters,omitempty"`
}

// Input carries everything the renderer folds into a scene.
type Input struct {
	NORADID    int
	Prediction *provider.Prediction

	Past    []provider.Position
	Future  []provider.Position
	Current *provider.Position

	RadialVelocityMS  float64
	HasRadialVelocity bool

	Transmitters []transmitters.Transmitter
}

// Renderer builds scenes for one viewport. The grid never changes for a
// viewport, so it is built once and shared across every scene.
type Renderer struct {
	vp       skyplot.Viewport
	gridOnce sync.Once
	grid     skyplot.Grid
}

// NewRenderer creates a renderer for the viewport.
func NewRenderer(vp skyplot.Viewport) *Renderer {
	return &Renderer{vp: vp}
}

// Grid returns the cached background grid.
func (r *Renderer) Grid() skyplot.Grid {
	r.gridOnce.Do(func() {
		r.grid = r.vp.Grid()
	})
	return r.grid
}

// Scene assembles a scene from the input.
func (r *Renderer) Scene(in Input) Scene {
	sc := Scene{
		NORADID:     in.NORADID,
		GeneratedAt: time.Now().UTC(),
		Grid:        r.Grid(),
	}

	if in.Prediction != nil {
		r.renderPrediction(&sc, *in.Prediction)
	}

	sc.PastPath = r.trackPath(in.Past)
	sc.FuturePath = r.trackPath(in.Future)

	if in.Current != nil {
		r.renderCurrent(&sc, *in.Current)
	}

	sc.NoData = r.noData(in, sc)
	if sc.NoData {
		return sc
	}

	// Doppler correction needs live radial velocity, which a fixed
	// satellite never has. The directory still shows, uncorrected.
	correct := in.Current != nil && in.HasRadialVelocity && !sc.Geostationary
	sc.Transmitters = transmitterRows(in.Transmitters, in.RadialVelocityMS, correct)

	return sc
}

// renderPrediction draws the predicted pass: an arc with entry, peak, and
// exit markers, or a single static marker for a geostationary satellite.
func (r *Renderer) renderPrediction(sc *Scene, p provider.Prediction) {
	if pass.IsGeostationary(p) {
		sc.Geostationary = true
		at := r.vp.PlotPoint(p.StartAzimuthDeg, p.MaxElevationDeg)
		sc.Current = &Marker{Label: "SAT", At: at}
		return
	}

	if path, ok := pass.PathArc(p, r.vp); ok {
		sc.PassPath = path.SVG()
	}
	if pt, ok := pass.EntryPoint(p, r.vp); ok {
		sc.Entry = &Marker{Label: "AOS", At: pt}
	}
	if pt, ok := pass.PeakPoint(p, r.vp); ok {
		sc.Peak = &Marker{Label: "MAX", At: pt}
	}
	if pt, ok := pass.ExitPoint(p, r.vp); ok {
		sc.Exit = &Marker{Label: "LOS", At: pt}
	}
}

// renderCurrent places the live marker and fills the telemetry readout.
func (r *Renderer) renderCurrent(sc *Scene, p provider.Position) {
	sc.Current = &Marker{
		Label: "SAT",
		At:    r.vp.PlotPoint(p.AzimuthDeg, p.ElevationDeg),
	}
	sc.Telemetry = &Telemetry{
		Azimuth:   fmt.Sprintf("%.1f°", p.AzimuthDeg),
		Elevation: fmt.Sprintf("%.1f°", p.ElevationDeg),
		Range:     fmt.Sprintf("%.1f km (%.1f mi)", p.RangeKm, p.RangeKm*kmToMiles),
	}
}

// trackPath converts samples to plot points and joins the wraparound
// segments into one SVG path string.
func (r *Renderer) trackPath(samples []provider.Position) string {
	if len(samples) < 2 {
		return ""
	}

	points := make([]skyplot.AzEl, len(samples))
	for i, s := range samples {
		points[i] = skyplot.AzEl{AzimuthDeg: s.AzimuthDeg, ElevationDeg: s.ElevationDeg}
	}

	var d string
	for _, seg := range r.vp.SegmentPath(points) {
		if d != "" {
			d += " "
		}
		d += skyplot.PolylineSVG(seg)
	}
	return d
}

// noData reports whether the scene has nothing meaningful to draw: no
// paths, and a current position that is absent or all zero.
func (r *Renderer) noData(in Input, sc Scene) bool {
	if sc.PassPath != "" || sc.PastPath != "" || sc.FuturePath != "" || sc.Geostationary {
		return false
	}
	if in.Current == nil {
		return true
	}
	az, el := in.Current.AzimuthDeg, in.Current.ElevationDeg
	if math.IsNaN(az) || math.IsNaN(el) {
		return true
	}
	return az == 0 && el == 0
}

// transmitterRows builds rows for the usable downlinks. Without a usable
// radial velocity the nominal frequency passes through unshifted.
func transmitterRows(txs []transmitters.Transmitter, radialVelocityMS float64, correct bool) []TransmitterRow {
	var rows []TransmitterRow
	for _, t := range txs {
		if !t.Usable() {
			continue
		}
		corrected := t.DownlinkHz
		if correct {
			corrected = doppler.ShiftedFrequency(t.DownlinkHz, radialVelocityMS)
		}
		rows = append(rows, TransmitterRow{
			Description: t.Description,
			Mode:        t.Mode,
			NominalHz:   t.DownlinkHz,
			CorrectedHz: corrected,
		})
	}
	return rows
}
