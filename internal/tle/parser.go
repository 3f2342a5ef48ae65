package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads NORAD element sets from r, accepting both the 3-line format
// (name line followed by the two element lines) and the bare 2-line
// format. Malformed entries are skipped with a warning.
func Parse(r io.Reader, logger *slog.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r\n "); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []Entry
	var pendingName string

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if !strings.HasPrefix(line, "1 ") {
			// Anything that is not an element line is a candidate name for
			// the entry that follows.
			pendingName = strings.TrimSpace(line)
			continue
		}
		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "2 ") {
			logger.Warn("skipping TLE line 1 without matching line 2", "line_index", i, "name", pendingName)
			pendingName = ""
			continue
		}

		line1, line2 := line, lines[i+1]
		i++

		entry, err := parseEntry(pendingName, line1, line2)
		pendingName = ""
		if err != nil {
			logger.Warn("skipping malformed TLE entry", "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func parseEntry(name, line1, line2 string) (Entry, error) {
	if len(line1) < 32 {
		return Entry{}, fmt.Errorf("line 1 too short (%d chars)", len(line1))
	}

	// NORAD catalog number: line 1, columns 3-7.
	noradID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid NORAD ID %q: %w", line1[2:7], err)
	}

	// Epoch: line 1, columns 19-32, YYDDD.DDDDDDDD.
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, fmt.Errorf("NORAD %d: %w", noradID, err)
	}

	return Entry{
		NORADID: noradID,
		Name:    name,
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// parseEpoch decodes the TLE epoch field. Two-digit years 00-56 map to the
// 2000s, 57-99 to the 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch %q too short", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year in %q: %w", s, err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day in %q: %w", s, err)
	}

	// Day 1 is January 1.
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
