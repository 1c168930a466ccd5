// Package enhance derives routing signals from coordination history and
// worker knowledge, and folds them into a request context before dispatch.
package enhance

import (
	"sort"
	"time"

	"advisor/internal/history"
	"advisor/internal/worker"
	"advisor/pkg/models"
)

// DigestSize is the number of topic keys carried in the pattern digest.
const DigestSize = 5

// Enhancer augments a request context with a pattern digest, a
// cross-capability knowledge digest, and a temporal bucket. Enhancement is
// read-only: it never writes history and never mutates the input context.
type Enhancer struct {
	registry *worker.Registry
	store    history.Store
	now      func() time.Time
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Enhancer) { e.now = now }
}

// New creates an Enhancer over the given registry and history store.
func New(registry *worker.Registry, store history.Store, opts ...Option) *Enhancer {
	e := &Enhancer{
		registry: registry,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance returns a copy of reqCtx with the derived signals attached. It
// never fails: a store that cannot be read contributes empty digests.
func (e *Enhancer) Enhance(reqCtx models.Context) models.Context {
	enhanced := reqCtx.Clone()
	enhanced[models.KeyPatternDigest] = e.patternDigest()
	enhanced[models.KeyCrossCapabilityDigest] = e.crossCapabilityDigest()
	enhanced[models.KeyTemporalBucket] = e.temporalBucket()
	return enhanced
}

// patternDigest returns the top topic keys by descending frequency, ties
// broken by first-seen order.
func (e *Enhancer) patternDigest() []string {
	counts, err := e.store.TopicCounts()
	if err != nil || len(counts) == 0 {
		return []string{}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].FirstSeen < counts[j].FirstSeen
	})

	n := len(counts)
	if n > DigestSize {
		n = DigestSize
	}
	digest := make([]string, 0, n)
	for _, tc := range counts[:n] {
		digest = append(digest, tc.Topic)
	}
	return digest
}

// crossCapabilityDigest collects knowledge snapshots per capability from
// workers that both declare the capability and can snapshot it. Workers
// without snapshot support and failed snapshots contribute nothing;
// capabilities left empty are omitted.
func (e *Enhancer) crossCapabilityDigest() map[string]map[string]any {
	digest := make(map[string]map[string]any)

	for _, tag := range e.registry.Capabilities() {
		for _, id := range e.registry.CapabilityOwners(tag) {
			w, err := e.registry.Lookup(id)
			if err != nil {
				continue
			}
			snapshotter, ok := w.(worker.KnowledgeSnapshotter)
			if !ok {
				continue
			}
			snapshot, err := snapshotter.KnowledgeSnapshot(tag)
			if err != nil || snapshot == nil {
				continue
			}
			if digest[tag] == nil {
				digest[tag] = make(map[string]any)
			}
			digest[tag][id] = snapshot
		}
	}
	return digest
}

// temporalBucket summarizes when the request arrives and how busy the
// preceding week was.
func (e *Enhancer) temporalBucket() models.TemporalBucket {
	now := e.now()
	count, err := e.store.CountSince(now.Add(-7 * 24 * time.Hour))
	if err != nil {
		count = 0
	}
	return models.TemporalBucket{
		HourOfDay:      now.Hour(),
		DayOfWeek:      int(now.Weekday()),
		CountLast7Days: count,
	}
}
