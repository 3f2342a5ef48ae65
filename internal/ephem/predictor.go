package ephem

import (
	"context"
	"time"

	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/transform"
)

const (
	coarseStep      = 30 * time.Second // above-horizon candidate scan
	fineStep        = 1 * time.Second  // rise/peak/set refinement
	minPassDuration = 10 * time.Second
	maxPasses       = 20
)

// Passes implements provider.PassProvider: scan the horizon window in
// coarse steps looking for above-horizon elevation, then refine each
// candidate to find rise, culmination, and set.
func (s *Service) Passes(ctx context.Context, req provider.PassRequest) ([]provider.Prediction, error) {
	orb, err := s.orbiter(req.NORADID)
	if err != nil {
		return nil, err
	}

	days := req.HorizonDays
	if days <= 0 {
		days = 2
	}

	site := transform.NewSite(req.Observer.LatDeg, req.Observer.LngDeg, req.Observer.AltM)
	start := s.now().UTC().Truncate(time.Second)
	end := start.Add(time.Duration(days) * 24 * time.Hour)

	var predictions []provider.Prediction

	t := start
	for t.Before(end) && len(predictions) < maxPasses {
		if ctx.Err() != nil {
			return predictions, nil
		}

		la, err := s.lookAnglesAt(orb, site, t)
		if err != nil {
			t = t.Add(coarseStep)
			continue
		}

		if la.ElevationDeg > 0 {
			pred, windowEnd := s.refinePass(ctx, orb, site, req.NORADID, t, start, end, req.MinElevationDeg)
			if pred != nil && pred.Duration >= minPassDuration {
				predictions = append(predictions, *pred)
			}
			t = windowEnd.Add(coarseStep)
			continue
		}
		t = t.Add(coarseStep)
	}

	return predictions, nil
}

// refinePass walks a coarse above-horizon hit at fine resolution: back up
// to catch the actual rise, then forward through culmination to set.
// Returns the prediction (nil if no complete pass was found) and the time
// the scan stopped.
func (s *Service) refinePass(ctx context.Context, orb *Orbiter, site transform.Site, noradID int, coarseHit, windowStart, windowEnd time.Time, minElev float64) (*provider.Prediction, time.Time) {
	searchStart := coarseHit.Add(-coarseStep)
	if searchStart.Before(windowStart) {
		searchStart = windowStart
	}

	var (
		riseTime  time.Time
		setTime   time.Time
		riseAz    float64
		setAz     float64
		maxEl     float64
		maxAz     float64
		wasAbove  bool
		foundRise bool
	)

	t := searchStart
	for t.Before(windowEnd) {
		if ctx.Err() != nil {
			break
		}

		la, err := s.lookAnglesAt(orb, site, t)
		if err != nil {
			t = t.Add(fineStep)
			continue
		}

		above := la.ElevationDeg >= minElev

		if above && !wasAbove {
			riseTime = t
			riseAz = la.AzimuthDeg
			foundRise = true
			maxEl = la.ElevationDeg
			maxAz = la.AzimuthDeg
		}
		if above && foundRise && la.ElevationDeg > maxEl {
			maxEl = la.ElevationDeg
			maxAz = la.AzimuthDeg
		}
		if !above && wasAbove && foundRise {
			setTime = t
			setAz = la.AzimuthDeg
			break
		}

		wasAbove = above
		t = t.Add(fineStep)
	}

	// Still above the horizon at the scan boundary: close the pass there.
	if foundRise && setTime.IsZero() && wasAbove {
		setTime = t
		if la, err := s.lookAnglesAt(orb, site, t); err == nil {
			setAz = la.AzimuthDeg
			if la.ElevationDeg > maxEl {
				maxEl = la.ElevationDeg
				maxAz = la.AzimuthDeg
			}
		}
	}

	if !foundRise || setTime.IsZero() {
		return nil, t
	}

	return &provider.Prediction{
		NORADID:         noradID,
		StartTime:       riseTime,
		EndTime:         setTime,
		StartAzimuthDeg: riseAz,
		EndAzimuthDeg:   setAz,
		MaxAzimuthDeg:   maxAz,
		MaxElevationDeg: maxEl,
		Duration:        setTime.Sub(riseTime),
	}, setTime
}
