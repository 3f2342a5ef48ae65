package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const positionsBody = `{
  "info": {"satname": "SPACE STATION", "satid": 25544, "transactionscount": 4},
  "positions": [
    {"satlatitude": 40.1, "satlongitude": -70.2, "sataltitude": 420.0, "azimuth": 355.0, "elevation": 10.0, "timestamp": 1700000000},
    {"satlatitude": 40.2, "satlongitude": -70.1, "sataltitude": 420.1, "azimuth": 5.0, "elevation": 12.0, "timestamp": 1700000001}
  ]
}`

func testClient(url string) *N2YOClient {
	return NewN2YOClient(N2YOConfig{BaseURL: url, Timeout: 2 * time.Second}, testLogger)
}

// TestPositions verifies decoding, azimuth normalization, slant-range
// derivation, and the server reference timestamp.
func TestPositions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(positionsBody))
	}))
	defer server.Close()

	client := testClient(server.URL)
	fc, err := client.Positions(context.Background(), PositionRequest{
		NORADID:  25544,
		Observer: Observer{LatDeg: 40.7, LngDeg: -74.0, AltM: 10},
		Seconds:  300,
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("Positions failed: %v", err)
	}

	if len(fc.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(fc.Samples))
	}
	if !fc.ServerTime.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("ServerTime = %v, want first sample timestamp", fc.ServerTime)
	}

	s := fc.Samples[0]
	if s.AzimuthDeg != 355 || s.ElevationDeg != 10 {
		t.Errorf("sample 0 = az %v el %v, want az 355 el 10", s.AzimuthDeg, s.ElevationDeg)
	}
	if s.RangeKm <= 420 || s.RangeKm > 3000 {
		t.Errorf("slant range %v km implausible for a 420 km orbit at 10 deg elevation", s.RangeKm)
	}
}

func TestPositionsMissingAPIKey(t *testing.T) {
	client := testClient("http://unused.invalid")
	_, err := client.Positions(context.Background(), PositionRequest{NORADID: 25544})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestPositionsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Positions(context.Background(), PositionRequest{NORADID: 25544, APIKey: "k"})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

// TestPasses verifies radiopasses decoding into Prediction records.
func TestPasses(t *testing.T) {
	body := `{
	  "info": {"passescount": 1},
	  "passes": [
	    {"startAz": 315.0, "startUTC": 1700000000, "maxAz": 0.0, "maxEl": 60.0, "endAz": 45.0, "endUTC": 1700000600}
	  ]
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := testClient(server.URL)
	passes, err := client.Passes(context.Background(), PassRequest{
		NORADID: 25544,
		APIKey:  "test-key",
	})
	if err != nil {
		t.Fatalf("Passes failed: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("passes = %d, want 1", len(passes))
	}

	p := passes[0]
	if p.StartAzimuthDeg != 315 || p.EndAzimuthDeg != 45 || p.MaxAzimuthDeg != 0 {
		t.Errorf("azimuths = %v/%v/%v, want 315/45/0", p.StartAzimuthDeg, p.EndAzimuthDeg, p.MaxAzimuthDeg)
	}
	if p.Duration != 10*time.Minute {
		t.Errorf("duration = %v, want 10m", p.Duration)
	}
}

// TestRequestBudget verifies the rolling-hour request budget.
func TestRequestBudget(t *testing.T) {
	b := newRequestBudget(2)
	if !b.allow() || !b.allow() {
		t.Fatal("budget should allow the first two requests")
	}
	if b.allow() {
		t.Error("budget should refuse the third request inside the window")
	}

	// Expire the window.
	b.windowStart = time.Now().Add(-2 * time.Hour)
	if !b.allow() {
		t.Error("budget should reset after the window elapses")
	}
}

// TestSlantRange sanity-checks the spherical slant-range derivation at the
// zenith (range equals altitude) and at the horizon (maximum range).
func TestSlantRange(t *testing.T) {
	if r := SlantRangeKm(420, 90); math.Abs(r-420) > 1 {
		t.Errorf("zenith range = %v km, want ~420", r)
	}

	horizon := SlantRangeKm(420, 0)
	if horizon <= 420 {
		t.Errorf("horizon range = %v km, want well above the altitude", horizon)
	}
	if SlantRangeKm(420, 45) >= horizon {
		t.Error("range should shrink as elevation rises")
	}
}
