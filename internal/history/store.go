// Package history provides the append-only log of coordination decision
// points and the derived aggregates (topic counts, patterns) that the
// context enhancer and dispatcher consult.
package history

import (
	"time"

	"advisor/pkg/models"
)

// TopicCount is the frequency of one topic key across the store, together
// with the order in which the topic was first seen. First-seen order breaks
// frequency ties in the pattern digest.
type TopicCount struct {
	// Topic is the context "topic" value.
	Topic string
	// Count is how many decision points carried the topic.
	Count int
	// FirstSeen is the index of the first retained record with this topic.
	FirstSeen int
}

// Store is the append-only decision-point log. Appends are monotonic and
// loss-free under concurrency; there is no in-core deletion beyond the
// configured retention policy. Every read path tolerates an empty store.
type Store interface {
	// Append records a decision point. An empty outcome is normalized to
	// pending so it can be attached later.
	Append(dp models.DecisionPoint) error

	// AttachOutcome sets the outcome of a previously appended record.
	// A record's outcome is attached exactly once: attaching to an unknown
	// record or one whose outcome is no longer pending is an error.
	AttachOutcome(id string, outcome models.Outcome, metrics map[string]float64) error

	// Recent returns up to n most recent decision points, newest first.
	Recent(n int) ([]models.DecisionPoint, error)

	// All returns every retained decision point in append order.
	All() ([]models.DecisionPoint, error)

	// Len returns the number of retained decision points.
	Len() (int, error)

	// CountSince counts decision points recorded at or after t.
	CountSince(t time.Time) (int, error)

	// TopicCounts returns per-topic frequencies in first-seen order.
	TopicCounts() ([]TopicCount, error)

	// Patterns derives the repeated-context aggregates for the given signal
	// fields. Patterns are computed on demand and never cached durably.
	Patterns(signalFields []string) ([]models.Pattern, error)

	// Close releases any resources held by the store.
	Close() error
}
