package history

import (
	"fmt"
	"sync"
	"time"

	"advisor/pkg/models"
)

// DefaultCapacity is the retention bound applied when none is configured.
const DefaultCapacity = 1024

// MemoryStore is an in-memory Store with a bounded ring-buffer retention
// policy: once the capacity is reached, appending evicts the oldest record.
// A capacity of 0 disables the bound.
type MemoryStore struct {
	// points holds retained records in append order.
	points []models.DecisionPoint
	// byID indexes retained records for outcome attachment.
	byID map[string]int
	// capacity is the retention bound (0 = unbounded).
	capacity int
	// mu protects all fields.
	mu sync.RWMutex
}

// NewMemoryStore creates a memory store with the given retention capacity.
// Negative capacities fall back to DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		byID:     make(map[string]int),
		capacity: capacity,
	}
}

// Append records a decision point, evicting the oldest record when the
// capacity is reached.
func (s *MemoryStore) Append(dp models.DecisionPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dp.ID == "" {
		return fmt.Errorf("decision point requires an id")
	}
	if _, exists := s.byID[dp.ID]; exists {
		return fmt.Errorf("decision point %q already recorded", dp.ID)
	}
	if dp.Outcome == "" {
		dp.Outcome = models.OutcomePending
	}

	if s.capacity > 0 && len(s.points) >= s.capacity {
		evicted := s.points[0]
		s.points = s.points[1:]
		delete(s.byID, evicted.ID)
		for id, idx := range s.byID {
			s.byID[id] = idx - 1
		}
	}

	s.byID[dp.ID] = len(s.points)
	s.points = append(s.points, dp)
	return nil
}

// AttachOutcome sets the outcome of a retained record, exactly once.
func (s *MemoryStore) AttachOutcome(id string, outcome models.Outcome, metrics map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("decision point %q not found", id)
	}
	if s.points[idx].Outcome != models.OutcomePending {
		return fmt.Errorf("decision point %q outcome already attached", id)
	}
	if !outcome.Valid() || outcome == models.OutcomePending {
		return fmt.Errorf("invalid outcome %q", outcome)
	}

	s.points[idx].Outcome = outcome
	s.points[idx].SuccessMetrics = metrics
	return nil
}

// Recent returns up to n most recent records, newest first.
func (s *MemoryStore) Recent(n int) ([]models.DecisionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.points) == 0 {
		return nil, nil
	}
	if n > len(s.points) {
		n = len(s.points)
	}

	out := make([]models.DecisionPoint, 0, n)
	for i := len(s.points) - 1; i >= len(s.points)-n; i-- {
		out = append(out, s.points[i])
	}
	return out, nil
}

// All returns every retained record in append order.
func (s *MemoryStore) All() ([]models.DecisionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DecisionPoint, len(s.points))
	copy(out, s.points)
	return out, nil
}

// Len returns the number of retained records.
func (s *MemoryStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// CountSince counts records stamped at or after t.
func (s *MemoryStore) CountSince(t time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, dp := range s.points {
		if !dp.Timestamp.Before(t) {
			count++
		}
	}
	return count, nil
}

// TopicCounts returns per-topic frequencies in first-seen order.
func (s *MemoryStore) TopicCounts() ([]TopicCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return topicCounts(s.points), nil
}

// Patterns derives repeated-context aggregates for the signal fields.
func (s *MemoryStore) Patterns(signalFields []string) ([]models.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return derivePatterns(s.points, signalFields), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Verify MemoryStore implements Store at compile time.
var _ Store = (*MemoryStore)(nil)
