// Package worker defines the advisory worker contract and the registry that
// tracks workers and their declared capabilities.
package worker

import (
	"context"

	"advisor/pkg/models"
)

// Worker is a pluggable unit offering natural-language responses and
// recommendation generation for one or more capability domains. The
// coordination core consumes workers through this interface only; their
// internals (prompting, model choice, domain data) are their own business.
type Worker interface {
	// ID returns the unique worker identifier.
	ID() string

	// Capabilities returns the domain tags this worker declares expertise in.
	Capabilities() []string

	// ConfidenceThreshold is the minimum confidence score, in [0,1], a
	// response attributed to this worker must reach to be merged into an
	// integrated response.
	ConfidenceThreshold() float64

	// Process answers a natural-language query given the request context.
	Process(ctx context.Context, query string, reqCtx models.Context) (string, error)

	// Recommend produces prioritized recommendations for a user-data snapshot.
	Recommend(ctx context.Context, userData models.Context) ([]models.Recommendation, error)
}

// KnowledgeSnapshotter is an optional worker capability. Workers that can
// expose a structured view of their domain knowledge implement it; the
// context enhancer discovers it by type assertion.
type KnowledgeSnapshotter interface {
	// KnowledgeSnapshot returns structured domain data for the given domain tag.
	KnowledgeSnapshot(domain string) (map[string]any, error)
}
