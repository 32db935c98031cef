package state

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStore_CountsLinesAndRecords(t *testing.T) {
	var s Store

	before := time.Now()
	s.LineRead(true)
	s.LineRead(false)
	s.LineRead(true)
	s.RecordDecoded(nil)
	s.RecordDecoded(nil)
	s.RecordEmitted()

	snap := s.Snapshot()
	if snap.LinesRead != 3 {
		t.Fatalf("LinesRead = %d, want 3", snap.LinesRead)
	}
	if snap.Unstructured != 1 {
		t.Fatalf("Unstructured = %d, want 1", snap.Unstructured)
	}
	if snap.Records != 2 || snap.Emitted != 1 {
		t.Fatalf("Records/Emitted = %d/%d, want 2/1", snap.Records, snap.Emitted)
	}
	if snap.Filtered() != 1 {
		t.Fatalf("Filtered = %d, want 1", snap.Filtered())
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
}

func TestStore_InvalidRecordKeepsError(t *testing.T) {
	var s Store

	s.RecordDecoded(nil)
	origErr := errors.New("boom")
	s.RecordDecoded(origErr)

	snap := s.Snapshot()
	if snap.Records != 1 || snap.Invalid != 1 {
		t.Fatalf("Records/Invalid = %d/%d, want 1/1", snap.Records, snap.Invalid)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError = %v, want %v", snap.LastError, origErr)
	}
}

func TestStore_NilIsNoop(t *testing.T) {
	var s *Store
	s.LineRead(false)
	s.RecordDecoded(errors.New("ignored"))
	s.RecordEmitted()
	if snap := s.Snapshot(); snap != (Snapshot{}) {
		t.Fatalf("nil store snapshot = %#v, want zero", snap)
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	var s Store
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.LineRead(true)
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()
	if got := s.Snapshot().LinesRead; got != 800 {
		t.Fatalf("LinesRead = %d, want 800", got)
	}
}
