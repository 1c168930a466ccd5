package models

import (
	"reflect"
	"time"
)

// Outcome is the recorded result of a coordination cycle.
type Outcome string

const (
	// OutcomePending indicates the cycle's outcome has not been attached yet.
	OutcomePending Outcome = "pending"
	// OutcomeSuccess indicates the cycle completed and returned a result.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure indicates the cycle was recorded as unsuccessful.
	OutcomeFailure Outcome = "failure"
)

// Valid returns true if the outcome is a known value.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomeSuccess, OutcomeFailure:
		return true
	default:
		return false
	}
}

// DecisionPoint is an immutable record of one coordination cycle's inputs
// and eventual outcome. Records are append-only; the outcome is attached
// exactly once after creation.
type DecisionPoint struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`
	// Timestamp is when the cycle ran.
	Timestamp time.Time `json:"timestamp"`
	// Query is the natural-language query that started the cycle.
	Query string `json:"query"`
	// PrimaryWorkerID is the caller-specified primary worker.
	PrimaryWorkerID string `json:"primary_worker_id"`
	// SecondaryWorkerIDs are the secondaries that contributed responses.
	SecondaryWorkerIDs []string `json:"secondary_worker_ids,omitempty"`
	// InitialContext is the caller's context before enhancement.
	InitialContext Context `json:"initial_context,omitempty"`
	// Outcome is the recorded cycle result.
	Outcome Outcome `json:"outcome"`
	// SuccessMetrics holds numeric measurements of the cycle.
	SuccessMetrics map[string]float64 `json:"success_metrics,omitempty"`
}

// Pattern is a derived, non-durable aggregate summarizing repeated
// historical contexts and their outcomes. Patterns are recomputed on demand
// from the history store and never persisted independently.
type Pattern struct {
	// Key identifies the pattern (the serialized signal-field subset).
	Key string `json:"key"`
	// Count is the number of decision points in the group.
	Count int `json:"count"`
	// RepresentativeContext is the signal-field subset shared by the group.
	RepresentativeContext Context `json:"representative_context"`
	// SuccessRate is the fraction of the group's cycles that succeeded.
	SuccessRate float64 `json:"success_rate"`
	// SuccessfulWorkers are workers (primary and secondary) that took part
	// in the group's successful cycles.
	SuccessfulWorkers []string `json:"successful_workers,omitempty"`
}

// Matches reports whether every signal key in the pattern's representative
// context has an equal value in the given context. A pattern with an empty
// representative context matches nothing.
func (p Pattern) Matches(c Context) bool {
	if len(p.RepresentativeContext) == 0 {
		return false
	}
	for k, want := range p.RepresentativeContext {
		got, ok := c[k]
		// Context values may be maps or slices, which panic under ==.
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
