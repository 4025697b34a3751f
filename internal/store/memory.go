package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// MemoryReadings is an in-process reading log with the same contract as
// ReadingRepository. Used when no database is configured (dev mode) and in
// tests. Contents do not survive a restart.
type MemoryReadings struct {
	mu       sync.RWMutex
	nextID   int64
	readings []domain.StoredReading
}

// NewMemoryReadings creates an empty in-memory reading log.
func NewMemoryReadings() *MemoryReadings {
	return &MemoryReadings{}
}

// Insert appends a classified reading, assigning the next identity and the
// current timestamp under the write lock so concurrent inserts never
// interleave.
func (s *MemoryReadings) Insert(_ context.Context, in domain.ReadingInput, severity domain.Severity) (domain.StoredReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := domain.StoredReading{
		ID:         s.nextID,
		RecordedAt: domain.Now(),
		PH:         in.PH,
		Turbidity:  in.Turbidity,
		RFC:        in.RFC,
		TDS:        in.TDS,
		Lat:        in.Lat,
		Lon:        in.Lon,
		Severity:   severity,
	}
	s.readings = append(s.readings, stored)
	return stored, nil
}

// ListRecent returns at most limit readings, newest first.
func (s *MemoryReadings) ListRecent(_ context.Context, limit int) ([]domain.StoredReading, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list recent: limit must be positive, got %d", limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.readings) {
		limit = len(s.readings)
	}
	result := make([]domain.StoredReading, 0, limit)
	for i := len(s.readings) - 1; i >= len(s.readings)-limit; i-- {
		result = append(result, s.readings[i])
	}
	return result, nil
}

// ListAll returns every stored reading, newest first.
func (s *MemoryReadings) ListAll(_ context.Context) ([]domain.StoredReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StoredReading, 0, len(s.readings))
	for i := len(s.readings) - 1; i >= 0; i-- {
		result = append(result, s.readings[i])
	}
	return result, nil
}

// Ping always succeeds: memory is always reachable.
func (s *MemoryReadings) Ping(context.Context) error { return nil }

// MemoryThresholds holds the live threshold set in process memory only.
type MemoryThresholds struct {
	mu      sync.RWMutex
	current domain.Thresholds
}

// NewMemoryThresholds creates a threshold store seeded with the factory
// defaults.
func NewMemoryThresholds() *MemoryThresholds {
	return &MemoryThresholds{current: domain.DefaultThresholds()}
}

// Get returns the current threshold set. Never fails.
func (s *MemoryThresholds) Get() domain.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update merges partial into the current set, rejecting merges that violate
// the pH band invariant without mutating anything.
func (s *MemoryThresholds) Update(_ context.Context, partial domain.Thresholds) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.current.Merge(partial)
	if err := merged.Validate(); err != nil {
		return err
	}
	s.current = merged
	return nil
}
