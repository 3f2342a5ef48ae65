package tle

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const issTLE = `ISS (ZARYA)
1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005
2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09
`

// TestParseThreeLine verifies the named 3-line format.
func TestParseThreeLine(t *testing.T) {
	entries, err := Parse(strings.NewReader(issTLE), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	e := entries[0]
	if e.NORADID != 25544 {
		t.Errorf("NORAD ID = %d, want 25544", e.NORADID)
	}
	if e.Name != "ISS (ZARYA)" {
		t.Errorf("name = %q, want ISS (ZARYA)", e.Name)
	}
	// Epoch 24100.5 = 2024, day 100.5.
	if e.Epoch.Year() != 2024 || e.Epoch.YearDay() != 100 || e.Epoch.Hour() != 12 {
		t.Errorf("epoch = %v, want 2024 day 100 12:00", e.Epoch)
	}
}

// TestParseTwoLine verifies the bare 2-line format parses with an empty
// name.
func TestParseTwoLine(t *testing.T) {
	bare := strings.Join(strings.Split(issTLE, "\n")[1:], "\n")
	entries, err := Parse(strings.NewReader(bare), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Name != "" {
		t.Errorf("name = %q, want empty", entries[0].Name)
	}
}

// TestParseSkipsMalformed verifies that a stray line 1 without its line 2
// is skipped without losing the following entry.
func TestParseSkipsMalformed(t *testing.T) {
	input := "1 11111U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\nGARBAGE\n" + issTLE
	entries, err := Parse(strings.NewReader(input), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 1 || entries[0].NORADID != 25544 {
		t.Fatalf("expected only the ISS entry to survive, got %v", entries)
	}
}

func TestStore(t *testing.T) {
	store := NewStore()
	if store.Current() != nil {
		t.Fatal("new store should be empty")
	}
	if store.AgeSeconds() != -1 {
		t.Errorf("empty store age = %v, want -1", store.AgeSeconds())
	}

	entries, _ := Parse(strings.NewReader(issTLE), testLogger)
	store.Replace(&Set{Source: "test", FetchedAt: time.Now(), Entries: entries})

	set := store.Current()
	if set == nil {
		t.Fatal("expected a loaded set")
	}
	if _, ok := set.Lookup(25544); !ok {
		t.Error("Lookup(25544) should find the ISS entry")
	}
	if _, ok := set.Lookup(99999); ok {
		t.Error("Lookup(99999) should find nothing")
	}
	if store.AgeSeconds() < 0 {
		t.Errorf("age = %v, want >= 0", store.AgeSeconds())
	}
}

// TestFetcherFallback verifies that one dead source does not fail the
// fetch when another succeeds.
func TestFetcherFallback(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issTLE))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	f := NewFetcher([]string{bad.URL, good.URL}, testLogger)
	data, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(string(data), "25544U") {
		t.Error("fetched data missing the ISS entry")
	}

	allBad := NewFetcher([]string{bad.URL}, testLogger)
	if _, err := allBad.Fetch(context.Background()); err == nil {
		t.Error("expected error when every source fails")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tle", "latest.txt")
	snap := NewSnapshot(path)

	if _, _, err := snap.Load(); err == nil {
		t.Fatal("expected error loading a missing snapshot")
	}

	if err := snap.Save([]byte(issTLE)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, ts, err := snap.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != issTLE {
		t.Error("snapshot data mismatch")
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("snapshot timestamp %v too old", ts)
	}
}
