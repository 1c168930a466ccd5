package history

import (
	"fmt"
	"sort"
	"strings"

	"advisor/pkg/models"
)

// topicCounts tallies the "topic" context value across decision points,
// preserving the order in which each topic was first seen.
func topicCounts(points []models.DecisionPoint) []TopicCount {
	byTopic := make(map[string]*TopicCount)
	var order []string

	for i, dp := range points {
		topic := dp.InitialContext.String("topic")
		if topic == "" {
			continue
		}
		tc, ok := byTopic[topic]
		if !ok {
			tc = &TopicCount{Topic: topic, FirstSeen: i}
			byTopic[topic] = tc
			order = append(order, topic)
		}
		tc.Count++
	}

	out := make([]TopicCount, 0, len(order))
	for _, topic := range order {
		out = append(out, *byTopic[topic])
	}
	return out
}

// derivePatterns groups decision points by their signal-field subset and
// summarizes each group. Points carrying none of the signal fields are
// skipped. Output order follows first appearance of each group.
func derivePatterns(points []models.DecisionPoint, signalFields []string) []models.Pattern {
	type group struct {
		pattern models.Pattern
		success int
		workers map[string]struct{}
	}

	byKey := make(map[string]*group)
	var order []string

	for _, dp := range points {
		subset := signalSubset(dp.InitialContext, signalFields)
		if len(subset) == 0 {
			continue
		}
		key := patternKey(subset)

		g, ok := byKey[key]
		if !ok {
			g = &group{
				pattern: models.Pattern{Key: key, RepresentativeContext: subset},
				workers: make(map[string]struct{}),
			}
			byKey[key] = g
			order = append(order, key)
		}
		g.pattern.Count++

		if dp.Outcome == models.OutcomeSuccess {
			g.success++
			if dp.PrimaryWorkerID != "" {
				g.workers[dp.PrimaryWorkerID] = struct{}{}
			}
			for _, id := range dp.SecondaryWorkerIDs {
				g.workers[id] = struct{}{}
			}
		}
	}

	patterns := make([]models.Pattern, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		g.pattern.SuccessRate = float64(g.success) / float64(g.pattern.Count)

		ids := make([]string, 0, len(g.workers))
		for id := range g.workers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		g.pattern.SuccessfulWorkers = ids

		patterns = append(patterns, g.pattern)
	}
	return patterns
}

// signalSubset extracts the signal fields present in the context.
func signalSubset(c models.Context, signalFields []string) models.Context {
	subset := models.Context{}
	for _, field := range signalFields {
		if v, ok := c[field]; ok {
			subset[field] = v
		}
	}
	return subset
}

// patternKey renders a signal subset as a canonical "field=value" string.
func patternKey(subset models.Context) string {
	fields := make([]string, 0, len(subset))
	for f := range subset {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f, subset[f]))
	}
	return strings.Join(parts, ";")
}
