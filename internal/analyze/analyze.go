// Package analyze examines recommendation batches for conflicts, synergies,
// and dependencies, and integrates them into one conflict-free ranked list.
package analyze

import (
	"sort"

	"advisor/pkg/models"
)

// ConflictPredicate reports whether two recommendations compete. The
// baseline treats items of the same type that both carry positive priority
// as competing claims on the same decision.
type ConflictPredicate func(a, b models.Recommendation) bool

// SynergyPredicate reports whether two recommendations reinforce each
// other. The baseline requires different types plus an overlapping tag or
// skill vocabulary.
type SynergyPredicate func(a, b models.Recommendation) bool

// LogFunc receives debug messages. A nil LogFunc discards them.
type LogFunc func(format string, args ...any)

// Pair references two recommendations by index into Analysis.Recommendations.
type Pair struct {
	First  int
	Second int
}

// Analysis is the relationship report over one flattened recommendation
// batch. Pair indices always satisfy First < Second.
type Analysis struct {
	// Recommendations is the flattened batch with worker attribution, in
	// deterministic order: sorted worker IDs, then each worker's own order.
	Recommendations []models.Recommendation
	Conflicts       []Pair
	Synergies       []Pair
	Dependencies    []Pair
}

// Analyzer detects recommendation relationships with pluggable predicates.
type Analyzer struct {
	conflict ConflictPredicate
	synergy  SynergyPredicate
	logf     LogFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConflictPredicate replaces the baseline conflict test.
func WithConflictPredicate(p ConflictPredicate) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.conflict = p
		}
	}
}

// WithSynergyPredicate replaces the baseline synergy test.
func WithSynergyPredicate(p SynergyPredicate) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.synergy = p
		}
	}
}

// WithLogger sets the debug log sink.
func WithLogger(logf LogFunc) Option {
	return func(a *Analyzer) { a.logf = logf }
}

// New creates an Analyzer with the baseline predicates.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		conflict: DefaultConflict,
		synergy:  DefaultSynergy,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) log(format string, args ...any) {
	if a.logf != nil {
		a.logf(format, args...)
	}
}

// DefaultConflict is the baseline conflict test: same type, both priorities
// positive.
func DefaultConflict(a, b models.Recommendation) bool {
	return a.Type == b.Type && a.Priority > 0 && b.Priority > 0
}

// DefaultSynergy is the baseline synergy test: different types with an
// overlapping tag or skill vocabulary.
func DefaultSynergy(a, b models.Recommendation) bool {
	return a.Type != b.Type && intersects(vocabulary(a), vocabulary(b))
}

// dependent reports whether either item requires a skill the other provides.
func dependent(a, b models.Recommendation) bool {
	return intersects(a.RequiredSkills, b.ProvidedSkills) ||
		intersects(b.RequiredSkills, a.ProvidedSkills)
}

// vocabulary is the item's combined tag and skill term set.
func vocabulary(r models.Recommendation) []string {
	terms := make([]string, 0, len(r.Tags)+len(r.ProvidedSkills)+len(r.RequiredSkills))
	terms = append(terms, r.Tags...)
	terms = append(terms, r.ProvidedSkills...)
	terms = append(terms, r.RequiredSkills...)
	return terms
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

// Analyze flattens the per-worker batches and reports every pairwise
// relationship. Malformed items are skipped and logged; the batch
// continues. The pair scan is all-pairs, fine at the tens of items one
// coordination cycle produces.
func (a *Analyzer) Analyze(byWorker map[string][]models.Recommendation) Analysis {
	analysis := Analysis{
		Recommendations: a.flatten(byWorker),
	}

	items := analysis.Recommendations
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			pair := Pair{First: i, Second: j}
			if a.conflict(items[i], items[j]) {
				analysis.Conflicts = append(analysis.Conflicts, pair)
			}
			if a.synergy(items[i], items[j]) {
				analysis.Synergies = append(analysis.Synergies, pair)
			}
			if dependent(items[i], items[j]) {
				analysis.Dependencies = append(analysis.Dependencies, pair)
			}
		}
	}
	return analysis
}

// flatten merges the batches in sorted worker-ID order, attributing each
// item to its worker and dropping malformed ones.
func (a *Analyzer) flatten(byWorker map[string][]models.Recommendation) []models.Recommendation {
	workerIDs := make([]string, 0, len(byWorker))
	for id := range byWorker {
		workerIDs = append(workerIDs, id)
	}
	sort.Strings(workerIDs)

	var out []models.Recommendation
	for _, id := range workerIDs {
		for _, rec := range byWorker[id] {
			if !rec.Valid() {
				a.log("dropping malformed recommendation from %s: type=%q priority=%v", id, rec.Type, rec.Priority)
				continue
			}
			rec.WorkerID = id
			out = append(out, rec)
		}
	}
	return out
}

// Integrate ranks the analyzed batch by priority, synergy count, and
// conflict count, then greedily admits items that do not conflict with any
// already admitted item. The output never contains both members of a
// conflict pair.
func (a *Analyzer) Integrate(analysis Analysis) []models.Recommendation {
	n := len(analysis.Recommendations)
	if n == 0 {
		return nil
	}

	synergyCount := make([]int, n)
	for _, p := range analysis.Synergies {
		synergyCount[p.First]++
		synergyCount[p.Second]++
	}
	conflictCount := make([]int, n)
	conflicts := make(map[Pair]struct{}, len(analysis.Conflicts))
	for _, p := range analysis.Conflicts {
		conflictCount[p.First]++
		conflictCount[p.Second]++
		conflicts[p] = struct{}{}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		i, j := order[x], order[y]
		a, b := analysis.Recommendations[i], analysis.Recommendations[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if synergyCount[i] != synergyCount[j] {
			return synergyCount[i] > synergyCount[j]
		}
		return conflictCount[i] < conflictCount[j]
	})

	conflictsWith := func(i, j int) bool {
		if i > j {
			i, j = j, i
		}
		_, ok := conflicts[Pair{First: i, Second: j}]
		return ok
	}

	var admitted []int
	for _, i := range order {
		blocked := false
		for _, j := range admitted {
			if conflictsWith(i, j) {
				blocked = true
				break
			}
		}
		if !blocked {
			admitted = append(admitted, i)
		}
	}

	out := make([]models.Recommendation, 0, len(admitted))
	for _, i := range admitted {
		out = append(out, analysis.Recommendations[i])
	}
	return out
}
