package logstore

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// capacity bounds the in-memory feed; older entries are dropped.
const capacity = 1000

// Entry is one line of the installation's activity feed.
type Entry struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// Store keeps the most recent entries in memory for the UI and the receipt
// tail, mirroring every entry to the standard logger. Safe for concurrent
// use.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int
}

func New() *Store {
	return &Store{}
}

// Printf records a formatted entry at the given level.
func (s *Store) Printf(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", strings.ToUpper(level), msg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.entries = append(s.entries, Entry{
		ID:        s.nextID,
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
	})
	if len(s.entries) > capacity {
		s.entries = s.entries[len(s.entries)-capacity:]
	}
}

func (s *Store) Info(format string, args ...interface{})    { s.Printf("info", format, args...) }
func (s *Store) Success(format string, args ...interface{}) { s.Printf("success", format, args...) }
func (s *Store) Warning(format string, args ...interface{}) { s.Printf("warning", format, args...) }
func (s *Store) Error(format string, args ...interface{})   { s.Printf("error", format, args...) }

// Recent returns up to limit entries, oldest first. limit <= 0 returns all
// retained entries.
func (s *Store) Recent(limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, limit)
	copy(out, s.entries[n-limit:])
	return out
}

// Clear drops all retained entries. The ID counter keeps counting so entry
// IDs stay unique for the life of the process.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
