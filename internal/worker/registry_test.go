package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"advisor/pkg/models"
)

// stubWorker is a minimal Worker for registry tests.
type stubWorker struct {
	id        string
	tags      []string
	threshold float64
}

func (s *stubWorker) ID() string                   { return s.id }
func (s *stubWorker) Capabilities() []string       { return s.tags }
func (s *stubWorker) ConfidenceThreshold() float64 { return s.threshold }

func (s *stubWorker) Process(ctx context.Context, query string, reqCtx models.Context) (string, error) {
	return "stub response", nil
}

func (s *stubWorker) Recommend(ctx context.Context, userData models.Context) ([]models.Recommendation, error) {
	return nil, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	w := &stubWorker{id: "career", tags: []string{"career"}}

	if err := r.Register(w); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := r.Lookup("career")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.ID() != "career" {
		t.Errorf("Lookup returned worker %q, want career", got.ID())
	}

	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestRegistry_RegisterDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	original := &stubWorker{id: "career", tags: []string{"career"}}
	imposter := &stubWorker{id: "career", tags: []string{"finance"}}

	if err := r.Register(original); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := r.Register(imposter)
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.ID != "career" {
		t.Errorf("DuplicateError.ID = %q, want career", dup.ID)
	}

	// Original must be untouched; imposter's tags must not leak into the index.
	got, err := r.Lookup("career")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != Worker(original) {
		t.Error("duplicate registration replaced the original worker")
	}
	if owners := r.CapabilityOwners("finance"); len(owners) != 0 {
		t.Errorf("rejected registration indexed capabilities: %v", owners)
	}
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("ghost")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != "ghost" {
		t.Errorf("NotFoundError.ID = %q, want ghost", nf.ID)
	}
}

func TestRegistry_CapabilityOwnersSharedTag(t *testing.T) {
	r := NewRegistry()
	w1 := &stubWorker{id: "career", tags: []string{"career", "planning"}}
	w2 := &stubWorker{id: "mentor", tags: []string{"career"}}

	if err := r.Register(w1); err != nil {
		t.Fatalf("Register w1: %v", err)
	}
	if err := r.Register(w2); err != nil {
		t.Fatalf("Register w2: %v", err)
	}

	if diff := cmp.Diff([]string{"career", "mentor"}, r.CapabilityOwners("career")); diff != "" {
		t.Errorf("CapabilityOwners(career) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"career"}, r.CapabilityOwners("planning")); diff != "" {
		t.Errorf("CapabilityOwners(planning) mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_CapabilityOwnersUnknownTag(t *testing.T) {
	r := NewRegistry()

	owners := r.CapabilityOwners("unknown")
	if len(owners) != 0 {
		t.Errorf("expected empty owner set for unknown tag, got %v", owners)
	}
}

func TestRegistry_UnregisterPurgesIndex(t *testing.T) {
	r := NewRegistry()
	w1 := &stubWorker{id: "career", tags: []string{"career", "planning"}}
	w2 := &stubWorker{id: "mentor", tags: []string{"career"}}

	if err := r.Register(w1); err != nil {
		t.Fatalf("Register w1: %v", err)
	}
	if err := r.Register(w2); err != nil {
		t.Fatalf("Register w2: %v", err)
	}

	if err := r.Unregister("career"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}

	// Shared tag keeps the remaining owner.
	if diff := cmp.Diff([]string{"mentor"}, r.CapabilityOwners("career")); diff != "" {
		t.Errorf("CapabilityOwners(career) mismatch (-want +got):\n%s", diff)
	}

	// Sole-owner tag must be deleted, not left as an empty entry.
	if owners := r.CapabilityOwners("planning"); len(owners) != 0 {
		t.Errorf("expected planning tag purged, got owners %v", owners)
	}
	if diff := cmp.Diff([]string{"career"}, r.Capabilities()); diff != "" {
		t.Errorf("Capabilities mismatch (-want +got):\n%s", diff)
	}

	if _, err := r.Lookup("career"); err == nil {
		t.Error("expected Lookup of unregistered worker to fail")
	}
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	r := NewRegistry()

	err := r.Unregister("ghost")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRegistry_WorkersOrderedByID(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubWorker{id: id}); err != nil {
			t.Fatalf("Register %s: %v", id, err)
		}
	}

	var ids []string
	for _, w := range r.Workers() {
		ids = append(ids, w.ID())
	}
	if diff := cmp.Diff([]string{"alpha", "mid", "zeta"}, ids); diff != "" {
		t.Errorf("Workers order mismatch (-want +got):\n%s", diff)
	}
}
