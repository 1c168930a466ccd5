package models

import "time"

// Status reports whether an API-level operation succeeded.
type Status string

const (
	// StatusSuccess indicates the operation produced a usable result.
	StatusSuccess Status = "success"
	// StatusError indicates the operation failed; Error carries the cause.
	StatusError Status = "error"
)

// WorkerResponse is one secondary worker's contribution to a cycle.
type WorkerResponse struct {
	// Response is the worker's verbatim text output.
	Response string `json:"response"`
	// Confidence is the heuristic [0,1] reliability score for the response.
	Confidence float64 `json:"confidence"`
}

// CoordinationResult is the caller-facing outcome of one coordinate call.
// It mirrors the shape returned by Coordinate: a status, the primary
// worker's verbatim response, the scored secondary responses, and the merged
// text.
type CoordinationResult struct {
	Status             Status                    `json:"status"`
	PrimaryResponse    string                    `json:"primary_response,omitempty"`
	RelatedResponses   map[string]WorkerResponse `json:"related_responses,omitempty"`
	IntegratedResponse string                    `json:"integrated_response,omitempty"`
	Error              string                    `json:"error,omitempty"`
	Timestamp          time.Time                 `json:"timestamp"`
}

// RecommendationResult is the caller-facing outcome of a recommendation
// generation call: the conflict-free ordered recommendation list.
type RecommendationResult struct {
	Status          Status           `json:"status"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Error           string           `json:"error,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
}
