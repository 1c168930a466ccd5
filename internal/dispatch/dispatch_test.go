package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"advisor/internal/history"
	"advisor/internal/worker"
	"advisor/pkg/models"
)

type stubWorker struct {
	id   string
	tags []string
}

func (s *stubWorker) ID() string                   { return s.id }
func (s *stubWorker) Capabilities() []string       { return s.tags }
func (s *stubWorker) ConfidenceThreshold() float64 { return 0.5 }
func (s *stubWorker) Process(context.Context, string, models.Context) (string, error) {
	return "", nil
}
func (s *stubWorker) Recommend(context.Context, models.Context) ([]models.Recommendation, error) {
	return nil, nil
}

func newTestRegistry(t *testing.T, workers ...*stubWorker) *worker.Registry {
	t.Helper()
	registry := worker.NewRegistry()
	for _, w := range workers {
		if err := registry.Register(w); err != nil {
			t.Fatalf("Register %s failed: %v", w.id, err)
		}
	}
	return registry
}

func TestSelectPrimary(t *testing.T) {
	registry := newTestRegistry(t, &stubWorker{id: "career", tags: []string{"career"}})
	d := New(registry, history.NewMemoryStore(0), DefaultRules())

	w, err := d.SelectPrimary("career")
	if err != nil {
		t.Fatalf("SelectPrimary failed: %v", err)
	}
	if w.ID() != "career" {
		t.Errorf("primary = %q, want career", w.ID())
	}
}

func TestSelectPrimary_Unknown(t *testing.T) {
	d := New(newTestRegistry(t), history.NewMemoryStore(0), DefaultRules())

	_, err := d.SelectPrimary("ghost")
	if err == nil {
		t.Fatal("expected error for unknown primary")
	}

	var unknownErr *UnknownPrimaryError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("error type = %T, want *UnknownPrimaryError", err)
	}
	var notFound *worker.NotFoundError
	if !errors.As(err, &notFound) {
		t.Error("UnknownPrimaryError must wrap the registry lookup error")
	}
}

func TestSelectSecondary_TopicTrigger(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "finance", tags: []string{"finance"}},
		&stubWorker{id: "health", tags: []string{"health"}},
	)
	d := New(registry, history.NewMemoryStore(0), DefaultRules())

	got := d.SelectSecondary("career", "thinking about switching industries",
		models.Context{"topic": "career_change"})
	if diff := cmp.Diff([]string{"finance"}, got); diff != "" {
		t.Errorf("secondaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectSecondary_KeywordTrigger(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "finance", tags: []string{"finance"}},
		&stubWorker{id: "health", tags: []string{"health"}},
	)
	d := New(registry, history.NewMemoryStore(0), DefaultRules())

	// "Salary" and "burnout" fire the finance and health keyword rows;
	// matching is case-insensitive.
	got := d.SelectSecondary("career", "Salary worries are causing burnout", models.Context{})
	if diff := cmp.Diff([]string{"finance", "health"}, got); diff != "" {
		t.Errorf("secondaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectSecondary_SignalFieldTag(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "fin-1", tags: []string{"finance"}},
		&stubWorker{id: "fin-2", tags: []string{"finance"}},
	)
	d := New(registry, history.NewMemoryStore(0), DefaultRules())

	// The industry field's value is itself a candidate capability tag; both
	// owners are selected.
	got := d.SelectSecondary("career", "plain query", models.Context{"industry": "finance"})
	if diff := cmp.Diff([]string{"fin-1", "fin-2"}, got); diff != "" {
		t.Errorf("secondaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectSecondary_ExcludesPrimaryAndDeduplicates(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "finance", tags: []string{"finance"}},
	)
	d := New(registry, history.NewMemoryStore(0), DefaultRules())

	// "career" and "job" both route to the career capability; the topic and
	// the salary keyword both route to finance. The primary must not appear
	// and finance appears once.
	got := d.SelectSecondary("career", "new job with a better salary",
		models.Context{"topic": "career_change"})
	if diff := cmp.Diff([]string{"finance"}, got); diff != "" {
		t.Errorf("secondaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectSecondary_PatternInfluence(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "finance", tags: []string{"finance"}},
		&stubWorker{id: "health", tags: []string{"health"}},
	)
	store := history.NewMemoryStore(0)
	d := New(registry, store, DefaultRules())

	reqCtx := models.Context{"topic": "career_change"}

	before := d.SelectSecondary("career", "changing fields", reqCtx)
	if diff := cmp.Diff([]string{"finance"}, before); diff != "" {
		t.Fatalf("pre-history secondaries mismatch (-want +got):\n%s", diff)
	}

	// A successful cycle on the same topic that involved the health worker
	// widens future selection for that pattern.
	err := store.Append(models.DecisionPoint{
		ID:                 "dp-1",
		Timestamp:          time.Now(),
		Query:              "earlier query",
		PrimaryWorkerID:    "career",
		SecondaryWorkerIDs: []string{"health"},
		InitialContext:     reqCtx.Clone(),
		Outcome:            models.OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	after := d.SelectSecondary("career", "changing fields", reqCtx)
	if diff := cmp.Diff([]string{"finance", "health"}, after); diff != "" {
		t.Errorf("post-history secondaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectSecondary_StructuredSignalValues(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "health", tags: []string{"health"}},
	)
	store := history.NewMemoryStore(0)
	d := New(registry, store, DefaultRules())

	// Signal fields can legally hold structured values; pattern matching
	// must compare them without panicking on map/slice equality.
	reqCtx := models.Context{"industry": map[string]any{"sector": "finance"}}

	err := store.Append(models.DecisionPoint{
		ID:                 "dp-1",
		Timestamp:          time.Now(),
		Query:              "earlier query",
		PrimaryWorkerID:    "career",
		SecondaryWorkerIDs: []string{"health"},
		InitialContext:     reqCtx.Clone(),
		Outcome:            models.OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got := d.SelectSecondary("career", "plain query", reqCtx.Clone())
	if diff := cmp.Diff([]string{"health"}, got); diff != "" {
		t.Errorf("secondaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectSecondary_PatternSkipsUnregistered(t *testing.T) {
	registry := newTestRegistry(t, &stubWorker{id: "career", tags: []string{"career"}})
	store := history.NewMemoryStore(0)
	d := New(registry, store, DefaultRules())

	err := store.Append(models.DecisionPoint{
		ID:                 "dp-1",
		Timestamp:          time.Now(),
		Query:              "q",
		PrimaryWorkerID:    "career",
		SecondaryWorkerIDs: []string{"retired-worker"},
		InitialContext:     models.Context{"topic": "relocation"},
		Outcome:            models.OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got := d.SelectSecondary("career", "q", models.Context{"topic": "relocation"})
	if len(got) != 0 {
		t.Errorf("secondaries = %v, want none (pattern worker unregistered)", got)
	}
}

func TestSelectSecondary_NoSignals(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "finance", tags: []string{"finance"}},
	)
	d := New(registry, history.NewMemoryStore(0), DefaultRules())

	got := d.SelectSecondary("career", "tell me something", models.Context{})
	if len(got) != 0 {
		t.Errorf("secondaries = %v, want none", got)
	}
}

func TestSetRules_Swap(t *testing.T) {
	registry := newTestRegistry(t,
		&stubWorker{id: "career", tags: []string{"career"}},
		&stubWorker{id: "legal", tags: []string{"legal"}},
	)
	d := New(registry, history.NewMemoryStore(0), DefaultRules())

	custom := Rules{
		SignalFields: []string{"topic"},
		Triggers: []Trigger{
			{Keywords: []string{"contract"}, Capability: "legal"},
		},
	}
	d.SetRules(custom)

	got := d.SelectSecondary("career", "reviewing my contract", models.Context{})
	if diff := cmp.Diff([]string{"legal"}, got); diff != "" {
		t.Errorf("secondaries mismatch after rules swap (-want +got):\n%s", diff)
	}
	if len(d.Rules().Triggers) != 1 {
		t.Errorf("active rules = %+v, want the swapped ruleset", d.Rules())
	}
}

func TestDefaultRules_Complete(t *testing.T) {
	rules := DefaultRules()
	if diff := cmp.Diff([]string{"topic", "industry", "domain"}, rules.SignalFields); diff != "" {
		t.Errorf("signal fields mismatch (-want +got):\n%s", diff)
	}

	byCapability := make(map[string]int)
	for _, trigger := range rules.Triggers {
		if trigger.Capability == "" {
			t.Errorf("trigger %+v has no capability", trigger)
		}
		byCapability[trigger.Capability]++
	}
	for _, capability := range []string{"finance", "health", "career"} {
		if byCapability[capability] == 0 {
			t.Errorf("no trigger routes to %s: %v", capability, byCapability)
		}
	}
}
