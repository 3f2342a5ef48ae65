package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot persists the most recent TLE download so the service can start
// with usable orbital data before its first fetch completes.
type Snapshot struct {
	path string
}

// NewSnapshot creates a Snapshot stored at path.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Save writes data to the snapshot file, creating parent directories as
// needed.
func (s *Snapshot) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot and the time it was written.
func (s *Snapshot) Load() ([]byte, time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("no TLE snapshot: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return data, info.ModTime(), nil
}
