package logstore

import (
	"io"
	"log"
	"testing"
)

func silenceLogger(t *testing.T) {
	t.Helper()
	out := log.Writer()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(out) })
}

func TestStore_RecentOrderAndIDs(t *testing.T) {
	silenceLogger(t)
	s := New()

	s.Info("first")
	s.Warning("second")
	s.Error("third")

	entries := s.Recent(0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "first" || entries[2].Message != "third" {
		t.Errorf("expected oldest-first order, got %q .. %q", entries[0].Message, entries[2].Message)
	}
	for i, e := range entries {
		if e.ID != i+1 {
			t.Errorf("expected ID %d, got %d", i+1, e.ID)
		}
	}
}

func TestStore_RecentLimit(t *testing.T) {
	silenceLogger(t)
	s := New()
	for i := 0; i < 10; i++ {
		s.Info("entry %d", i)
	}

	entries := s.Recent(3)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "entry 7" || entries[2].Message != "entry 9" {
		t.Errorf("expected the 3 most recent entries, got %q .. %q", entries[0].Message, entries[2].Message)
	}
}

func TestStore_CapsRetainedEntries(t *testing.T) {
	silenceLogger(t)
	s := New()
	for i := 0; i < capacity+5; i++ {
		s.Info("entry %d", i)
	}

	entries := s.Recent(0)
	if len(entries) != capacity {
		t.Fatalf("expected %d retained entries, got %d", capacity, len(entries))
	}
	// The 5 oldest entries were dropped, IDs keep counting.
	if entries[0].ID != 6 {
		t.Errorf("expected oldest retained ID 6, got %d", entries[0].ID)
	}
	if entries[len(entries)-1].ID != capacity+5 {
		t.Errorf("expected newest ID %d, got %d", capacity+5, entries[len(entries)-1].ID)
	}
}

func TestStore_Clear(t *testing.T) {
	silenceLogger(t)
	s := New()
	s.Info("one")
	s.Clear()

	if got := len(s.Recent(0)); got != 0 {
		t.Fatalf("expected no entries after Clear, got %d", got)
	}

	s.Info("two")
	entries := s.Recent(0)
	if len(entries) != 1 || entries[0].ID != 2 {
		t.Errorf("expected ID counter to survive Clear, got %+v", entries)
	}
}
