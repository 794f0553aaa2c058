package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-web/internal/weather"
)

// Slot is a concurrency-safe, single-entry in-memory store for the weather payload.
// The payload and its timestamp are always read and written together.
type Slot struct {
	mu sync.RWMutex

	snapshot weather.Snapshot
	filled   bool
}

// NewSlot creates an empty Slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Save replaces the stored payload and timestamp.
func (s *Slot) Save(payload weather.Payload, storedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = weather.Snapshot{Payload: payload, StoredAt: storedAt}
	s.filled = true
}

// Load returns the stored snapshot, or false if nothing has been stored yet.
func (s *Slot) Load() (weather.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot, s.filled
}
