package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/neurostunt/sattrack/internal/ephem"
	"github.com/neurostunt/sattrack/internal/pass"
	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/skyplot"
	"github.com/neurostunt/sattrack/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	tlePath := "/tmp/sattrack/tle.txt"
	if len(os.Args) > 1 {
		tlePath = os.Args[1]
	}
	noradID := 25544
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fmt.Println("ERROR parsing NORAD ID:", err)
			os.Exit(1)
		}
		noradID = n
	}

	data, err := os.ReadFile(tlePath)
	if err != nil {
		fmt.Println("ERROR reading TLE file:", err)
		os.Exit(1)
	}

	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		fmt.Println("ERROR parsing TLE:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE entries\n", len(entries))

	store := tle.NewStore()
	store.Replace(&tle.Set{Source: tlePath, FetchedAt: time.Now().UTC(), Entries: entries})
	svc := ephem.NewService(store, logger)

	obs := provider.Observer{LatDeg: 39.7392, LngDeg: -104.9903, AltM: 1609}
	fmt.Printf("Predicting passes for NORAD %d over %.4f, %.4f\n", noradID, obs.LatDeg, obs.LngDeg)

	predictions, err := svc.Passes(context.Background(), provider.PassRequest{
		NORADID:         noradID,
		Observer:        obs,
		HorizonDays:     3,
		MinElevationDeg: 1,
	})
	if err != nil {
		fmt.Println("ERROR predicting passes:", err)
		os.Exit(1)
	}

	vp := skyplot.DefaultViewport
	fmt.Printf("Found %d passes\n\n", len(predictions))
	for i, p := range predictions {
		fmt.Printf("pass %d: start=%v az %.1f°->%.1f° maxEl=%.1f° dur=%.0fs\n",
			i, p.StartTime.Format(time.RFC3339), p.StartAzimuthDeg, p.EndAzimuthDeg,
			p.MaxElevationDeg, p.Duration.Seconds())
		if arc, ok := pass.PathArc(p, vp); ok {
			fmt.Printf("  arc: %s\n", arc.SVG())
		}
	}
}
