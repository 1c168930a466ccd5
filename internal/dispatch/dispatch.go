// Package dispatch resolves which workers serve a coordination request: the
// explicitly requested primary plus secondaries inferred from context
// signals, trigger rules, and historical patterns.
package dispatch

import (
	"sort"
	"strings"
	"sync"

	"advisor/internal/history"
	"advisor/internal/worker"
	"advisor/pkg/models"
)

// Dispatcher selects the primary and secondary workers for a request. The
// ruleset can be swapped at runtime (rules-file hot reload); selection holds
// a read lock for the duration of one call, so a swap never tears a request.
type Dispatcher struct {
	registry *worker.Registry
	store    history.Store

	// mu guards rules.
	mu    sync.RWMutex
	rules Rules
}

// New creates a Dispatcher over the registry and history store with the
// given ruleset.
func New(registry *worker.Registry, store history.Store, rules Rules) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		store:    store,
		rules:    rules,
	}
}

// Rules returns the active ruleset.
func (d *Dispatcher) Rules() Rules {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rules
}

// SetRules atomically replaces the active ruleset.
func (d *Dispatcher) SetRules(rules Rules) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = rules
}

// SelectPrimary resolves the requested primary worker through the registry.
func (d *Dispatcher) SelectPrimary(primaryID string) (worker.Worker, error) {
	w, err := d.registry.Lookup(primaryID)
	if err != nil {
		return nil, &UnknownPrimaryError{ID: primaryID, err: err}
	}
	return w, nil
}

// SelectSecondary returns the IDs of registered workers that should
// contribute secondary responses: capability matches from the context's
// signal fields and the trigger table, plus workers that succeeded on
// matching historical patterns. The primary is excluded; the result is
// deduplicated and sorted for determinism, implying no execution order.
func (d *Dispatcher) SelectSecondary(primaryID, query string, enhanced models.Context) []string {
	d.mu.RLock()
	rules := d.rules
	d.mu.RUnlock()

	candidates := make(map[string]struct{})

	for _, tag := range d.candidateTags(rules, query, enhanced) {
		for _, id := range d.registry.CapabilityOwners(tag) {
			candidates[id] = struct{}{}
		}
	}

	for _, id := range d.patternWorkers(rules, enhanced) {
		if _, err := d.registry.Lookup(id); err != nil {
			continue
		}
		candidates[id] = struct{}{}
	}

	delete(candidates, primaryID)

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// candidateTags collects capability tags from the signal fields of the
// context and from triggers fired by the topic value or the query text.
func (d *Dispatcher) candidateTags(rules Rules, query string, enhanced models.Context) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, field := range rules.SignalFields {
		add(enhanced.String(field))
	}

	topic := enhanced.String("topic")
	lowered := strings.ToLower(query)
	for _, trigger := range rules.Triggers {
		if trigger.Topic != "" && trigger.Topic == topic {
			add(trigger.Capability)
			continue
		}
		for _, keyword := range trigger.Keywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				add(trigger.Capability)
				break
			}
		}
	}
	return tags
}

// patternWorkers returns the successful workers of every stored pattern
// whose representative context matches the current one. History read
// failures contribute nothing.
func (d *Dispatcher) patternWorkers(rules Rules, enhanced models.Context) []string {
	patterns, err := d.store.Patterns(rules.SignalFields)
	if err != nil {
		return nil
	}

	var ids []string
	for _, p := range patterns {
		if !p.Matches(enhanced) {
			continue
		}
		ids = append(ids, p.SuccessfulWorkers...)
	}
	return ids
}
