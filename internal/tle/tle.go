// Package tle loads and stores two-line element sets for the local
// ephemeris collaborator.
package tle

import (
	"sync/atomic"
	"time"
)

// Entry is one satellite's element set.
type Entry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// Set is a complete catalog loaded from one source at one time.
type Set struct {
	Source    string
	FetchedAt time.Time
	Entries   []Entry
}

// Lookup returns the entry for a NORAD ID.
func (s *Set) Lookup(noradID int) (Entry, bool) {
	for _, e := range s.Entries {
		if e.NORADID == noradID {
			return e, true
		}
	}
	return Entry{}, false
}

// Store holds the current catalog behind an atomic pointer so readers
// never block a refresh.
type Store struct {
	set atomic.Pointer[Set]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the loaded catalog, or nil before the first load.
func (s *Store) Current() *Set {
	return s.set.Load()
}

// Replace atomically swaps in a new catalog.
func (s *Store) Replace(set *Set) {
	s.set.Store(set)
}

// AgeSeconds is the age of the current catalog, or -1 when none is loaded.
func (s *Store) AgeSeconds() float64 {
	set := s.set.Load()
	if set == nil {
		return -1
	}
	return time.Since(set.FetchedAt).Seconds()
}
