package state

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the pipeline counters.
type Snapshot struct {
	LinesRead    int
	Unstructured int
	Records      int
	Invalid      int
	Emitted      int
	LastError    error
	LastUpdated  time.Time
}

// Filtered returns how many decoded records were dropped by filters.
func (s Snapshot) Filtered() int {
	if n := s.Records - s.Emitted; n > 0 {
		return n
	}
	return 0
}

// Store coordinates counter updates between the reader and whoever renders
// progress. A nil *Store is valid and ignores every update.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// LineRead counts one input line. structured reports whether the line carried
// a structured payload.
func (s *Store) LineRead(structured bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LinesRead++
	if !structured {
		s.snapshot.Unstructured++
	}
	s.snapshot.LastUpdated = time.Now()
}

// RecordDecoded counts a payload that became a record. A non-nil err counts
// it as invalid instead and keeps the error for display.
func (s *Store) RecordDecoded(err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.Invalid++
		s.snapshot.LastError = err
	} else {
		s.snapshot.Records++
	}
	s.snapshot.LastUpdated = time.Now()
}

// RecordEmitted counts a record that survived the filters and was written.
func (s *Store) RecordEmitted() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Emitted++
	s.snapshot.LastUpdated = time.Now()
}

// Snapshot returns a copy of the current counters.
func (s *Store) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot
}
