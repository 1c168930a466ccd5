package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"advisor/internal/worker"
	"advisor/pkg/models"
)

type scriptedWorker struct {
	id        string
	threshold float64
	response  string
	err       error
}

func (s *scriptedWorker) ID() string                   { return s.id }
func (s *scriptedWorker) Capabilities() []string       { return nil }
func (s *scriptedWorker) ConfidenceThreshold() float64 { return s.threshold }
func (s *scriptedWorker) Process(context.Context, string, models.Context) (string, error) {
	return s.response, s.err
}
func (s *scriptedWorker) Recommend(context.Context, models.Context) ([]models.Recommendation, error) {
	return nil, nil
}

const longText = "word " // repeated to cross the 50-word bonus line

func repeatWords(n int) string {
	return strings.TrimSpace(strings.Repeat(longText, n))
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"empty", "", 0.5},
		{"short plain", "keep your resume current", 0.5},
		{"long plain", repeatWords(60), 0.6},
		{"structural colon", "plan: save first", 0.7},
		{"structural bullet", "options\n- stay\n- leave", 0.7},
		{"numeric", "save 20 percent", 0.7},
		{"structure and numbers", "steps:\n- save 20 percent", 0.9},
		{"everything", repeatWords(60) + "\n- step 1: begin", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.response)
			if got != tt.want {
				t.Errorf("Confidence(%q) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestConfidence_Bounds(t *testing.T) {
	responses := []string{
		"",
		repeatWords(500),
		repeatWords(500) + "\n- 1: a; 2: b",
		"1234567890 :;:;:;",
	}
	for _, r := range responses {
		score := Confidence(r)
		if score < 0 || score > 1 {
			t.Errorf("Confidence(%q) = %v, out of [0,1]", r, score)
		}
	}
}

func TestConfidence_MonotonicInDigits(t *testing.T) {
	plain := "consider a gradual transition"
	if Confidence(plain+" over 6 months") < Confidence(plain) {
		t.Error("adding numeric content lowered the score")
	}
}

func TestRun_PrimaryFailureFatal(t *testing.T) {
	a := New()
	primary := &scriptedWorker{id: "career", err: errors.New("model unavailable")}

	_, err := a.Run(context.Background(), primary, nil, "q", models.Context{})
	if err == nil {
		t.Fatal("expected error from failing primary")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error type = %T, want *ExecutionError", err)
	}
	if execErr.WorkerID != "career" {
		t.Errorf("WorkerID = %q, want career", execErr.WorkerID)
	}
}

func TestRun_SecondaryFailureIsolated(t *testing.T) {
	a := New()
	primary := &scriptedWorker{id: "career", response: "primary answer"}
	secondaries := []worker.Worker{
		&scriptedWorker{id: "finance", threshold: 0.5, response: "budget: save 20 percent"},
		&scriptedWorker{id: "health", err: errors.New("timeout")},
		&scriptedWorker{id: "legal", threshold: 0.5, response: "review clause 4: notice periods"},
	}

	result, err := a.Run(context.Background(), primary, secondaries, "q", models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Related) != 2 {
		t.Errorf("related count = %d, want 2 (failed secondary dropped)", len(result.Related))
	}
	if _, ok := result.Related["health"]; ok {
		t.Error("failed secondary must not appear in related responses")
	}
	if result.PrimaryResponse != "primary answer" {
		t.Errorf("primary response = %q", result.PrimaryResponse)
	}
}

// slowWorker never answers; it holds until its call context expires.
type slowWorker struct {
	scriptedWorker
}

func (s *slowWorker) Process(ctx context.Context, _ string, _ models.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRun_OverdueSecondaryDropped(t *testing.T) {
	a := New(WithSecondaryTimeout(20 * time.Millisecond))
	primary := &scriptedWorker{id: "career", response: "primary answer"}
	secondaries := []worker.Worker{
		&slowWorker{scriptedWorker{id: "stuck"}},
		&scriptedWorker{id: "finance", threshold: 0.5, response: "budget: save 20 percent"},
	}

	start := time.Now()
	result, err := a.Run(context.Background(), primary, secondaries, "q", models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("run took %v, overdue secondary was not timed out", elapsed)
	}

	if _, ok := result.Related["stuck"]; ok {
		t.Error("timed-out secondary must not appear in related responses")
	}
	if _, ok := result.Related["finance"]; !ok {
		t.Error("prompt secondary missing from related responses")
	}
	if !strings.Contains(result.Integrated, "Additional insight from finance") {
		t.Errorf("surviving insight missing from merge:\n%s", result.Integrated)
	}
}

func TestRun_MergeRanksAndGates(t *testing.T) {
	a := New()
	primary := &scriptedWorker{id: "career", response: "primary answer"}

	// finance scores 0.9 (structure and digits), health 0.5 (plain). The
	// legal worker also scores 0.9 but its own threshold of 0.95 keeps it
	// out of the merge while it still appears among related responses.
	secondaries := []worker.Worker{
		&scriptedWorker{id: "health", threshold: 0.5, response: "rest more"},
		&scriptedWorker{id: "finance", threshold: 0.5, response: "plan:\n- save 20 percent"},
		&scriptedWorker{id: "legal", threshold: 0.95, response: "check: clause 4"},
	}

	result, err := a.Run(context.Background(), primary, secondaries, "q", models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	financeAt := strings.Index(result.Integrated, "Additional insight from finance")
	healthAt := strings.Index(result.Integrated, "Additional insight from health")
	if financeAt < 0 || healthAt < 0 {
		t.Fatalf("merged text missing insights:\n%s", result.Integrated)
	}
	if financeAt > healthAt {
		t.Error("higher-confidence insight must come first")
	}
	if strings.Contains(result.Integrated, "legal") {
		t.Error("below-threshold insight must not be merged")
	}
	if !strings.HasPrefix(result.Integrated, "primary answer") {
		t.Errorf("merged text must start with the primary response:\n%s", result.Integrated)
	}
	if result.Related["legal"].Confidence != 0.9 {
		t.Errorf("legal confidence = %v, want 0.9", result.Related["legal"].Confidence)
	}
}

func TestRun_TiesKeepDispatchOrder(t *testing.T) {
	a := New()
	primary := &scriptedWorker{id: "career", response: "primary answer"}

	// Both score 0.5; the merge must keep dispatch order.
	secondaries := []worker.Worker{
		&scriptedWorker{id: "beta", threshold: 0.5, response: "short plain reply"},
		&scriptedWorker{id: "alpha", threshold: 0.5, response: "another plain reply"},
	}

	var merged []string
	for i := 0; i < 3; i++ {
		result, err := a.Run(context.Background(), primary, secondaries, "q", models.Context{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		merged = append(merged, result.Integrated)

		betaAt := strings.Index(result.Integrated, "from beta")
		alphaAt := strings.Index(result.Integrated, "from alpha")
		if betaAt < 0 || alphaAt < 0 || betaAt > alphaAt {
			t.Fatalf("tie order broken (beta dispatched first):\n%s", result.Integrated)
		}
	}
	if merged[0] != merged[1] || merged[1] != merged[2] {
		t.Error("identical inputs produced different merges")
	}
}

func TestRun_CustomExtractorAndDelimiter(t *testing.T) {
	a := New(
		WithInsightDelimiter("\n== "),
		WithExtractor(func(workerID, response string) string {
			return fmt.Sprintf("[%s] %s", workerID, strings.Split(response, "\n")[0])
		}),
	)
	primary := &scriptedWorker{id: "career", response: "primary answer"}
	secondaries := []worker.Worker{
		&scriptedWorker{id: "finance", threshold: 0.5, response: "save 20 percent\nmore detail"},
	}

	result, err := a.Run(context.Background(), primary, secondaries, "q", models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(result.Integrated, "== Additional insight from finance:\n[finance] save 20 percent") {
		t.Errorf("extractor or delimiter not applied:\n%s", result.Integrated)
	}
	if strings.Contains(result.Integrated, "more detail") {
		t.Error("extractor output must replace the raw response in the merge")
	}
}

func TestRun_CancellationAborts(t *testing.T) {
	a := New()
	primary := &scriptedWorker{id: "career", response: "primary answer"}
	secondaries := []worker.Worker{
		&scriptedWorker{id: "finance", threshold: 0.5, response: "reply"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, primary, secondaries, "q", models.Context{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
