package skyplot

// Grid is the fixed background of the sky plot: elevation rings, the N-S
// and E-W crosshairs, and cardinal labels. It depends only on the viewport,
// never on satellite data, so one Grid serves every satellite drawn into
// the same viewport.
type Grid struct {
	Rings  []Ring  `json:"rings"`
	Cross  []Line  `json:"cross"`
	Labels []Label `json:"labels"`
}

// Ring is a circle of constant elevation.
type Ring struct {
	Center       Point   `json:"center"`
	Radius       float64 `json:"radius"`
	ElevationDeg float64 `json:"elevation"`
}

// Line is a straight grid line in plot coordinates.
type Line struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Label is a text anchor in plot coordinates.
type Label struct {
	Text string `json:"text"`
	At   Point  `json:"at"`
}

// gridElevations are the elevations drawn as rings, horizon outward-in.
var gridElevations = []float64{0, 30, 60}

// Grid builds the background grid for the viewport.
func (v Viewport) Grid() Grid {
	center := Point{X: v.CenterX, Y: v.CenterY}

	g := Grid{
		Rings: make([]Ring, 0, len(gridElevations)),
		Cross: []Line{
			{From: v.PlotPoint(0, 0), To: v.PlotPoint(180, 0)},
			{From: v.PlotPoint(270, 0), To: v.PlotPoint(90, 0)},
		},
	}

	for _, el := range gridElevations {
		g.Rings = append(g.Rings, Ring{
			Center:       center,
			Radius:       v.ElevationToRadius(el),
			ElevationDeg: el,
		})
	}

	// Cardinal labels sit just outside the horizon ring.
	offset := v.Radius * 0.08
	g.Labels = []Label{
		{Text: "N", At: Point{X: v.CenterX, Y: v.CenterY - v.Radius - offset}},
		{Text: "E", At: Point{X: v.CenterX + v.Radius + offset, Y: v.CenterY}},
		{Text: "S", At: Point{X: v.CenterX, Y: v.CenterY + v.Radius + offset}},
		{Text: "W", At: Point{X: v.CenterX - v.Radius - offset, Y: v.CenterY}},
	}

	return g
}
