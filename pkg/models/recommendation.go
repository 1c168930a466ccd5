package models

import "math"

// Recommendation is a structured, prioritized suggestion produced by a
// worker for a given user-data snapshot.
type Recommendation struct {
	// Type categorizes the recommendation (e.g. "career_path",
	// "skill_development", "market_opportunity").
	Type string `json:"type"`
	// Priority is an ordering hint only. Must be finite.
	Priority float64 `json:"priority"`
	// Summary is a short human-readable description.
	Summary string `json:"summary,omitempty"`
	// Tags are domain tags used for synergy detection.
	Tags []string `json:"tags,omitempty"`
	// RequiredSkills lists skills this recommendation depends on.
	RequiredSkills []string `json:"required_skills,omitempty"`
	// ProvidedSkills lists skills following this recommendation yields.
	ProvidedSkills []string `json:"provided_skills,omitempty"`
	// Details holds domain-specific payload fields.
	Details map[string]any `json:"details,omitempty"`
	// WorkerID attributes the recommendation to its producing worker.
	// Filled during analysis; empty on the wire from a worker.
	WorkerID string `json:"worker_id,omitempty"`
}

// Valid reports whether the recommendation is well-formed enough to take
// part in analysis: a non-empty type and a finite, non-NaN priority.
func (r Recommendation) Valid() bool {
	if r.Type == "" {
		return false
	}
	return !math.IsNaN(r.Priority) && !math.IsInf(r.Priority, 0)
}
