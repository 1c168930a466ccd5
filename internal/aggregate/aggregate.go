// Package aggregate runs the primary and secondary workers for a request and
// merges their responses into a single integrated answer.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"advisor/internal/worker"
	"advisor/pkg/models"
)

// Defaults applied when the corresponding option is not given.
const (
	DefaultMaxParallel      = 4
	DefaultSecondaryTimeout = 10 * time.Second
	DefaultInsightDelimiter = "\n\n---\n"
)

// Extractor distills a ranked secondary response into the insight text that
// gets merged. The default keeps the response verbatim.
type Extractor func(workerID, response string) string

// LogFunc receives debug messages. A nil LogFunc discards them.
type LogFunc func(format string, args ...any)

// IntegratedResult is the outcome of one aggregation run.
type IntegratedResult struct {
	// PrimaryResponse is the primary worker's verbatim answer.
	PrimaryResponse string
	// Related maps each responding secondary's ID to its scored response.
	Related map[string]models.WorkerResponse
	// Integrated is the merged text: primary first, then ranked insights.
	Integrated string
}

// Aggregator invokes workers and merges their output. Secondaries run
// concurrently under a bounded semaphore, each with its own timeout; a
// failing secondary is dropped and logged, never fatal.
type Aggregator struct {
	maxParallel      int64
	secondaryTimeout time.Duration
	delimiter        string
	extract          Extractor
	logf             LogFunc
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMaxParallel bounds concurrent secondary invocations.
func WithMaxParallel(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxParallel = int64(n)
		}
	}
}

// WithSecondaryTimeout bounds each secondary invocation.
func WithSecondaryTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.secondaryTimeout = d
		}
	}
}

// WithInsightDelimiter sets the text inserted before each merged insight.
func WithInsightDelimiter(delim string) Option {
	return func(a *Aggregator) { a.delimiter = delim }
}

// WithExtractor replaces the identity insight extractor.
func WithExtractor(fn Extractor) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.extract = fn
		}
	}
}

// WithLogger sets the debug log sink.
func WithLogger(logf LogFunc) Option {
	return func(a *Aggregator) { a.logf = logf }
}

// New creates an Aggregator with the given options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		maxParallel:      DefaultMaxParallel,
		secondaryTimeout: DefaultSecondaryTimeout,
		delimiter:        DefaultInsightDelimiter,
		extract:          func(_, response string) string { return response },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) log(format string, args ...any) {
	if a.logf != nil {
		a.logf(format, args...)
	}
}

// secondaryResult holds one secondary invocation's outcome, slot-addressed
// so ranking ties preserve dispatch order.
type secondaryResult struct {
	worker   worker.Worker
	response string
	score    float64
	ok       bool
}

// Run invokes the primary, fans out over the secondaries, scores and ranks
// their responses, and merges everything past each worker's own confidence
// threshold. A primary failure is fatal and returns an ExecutionError;
// caller cancellation aborts the run.
func (a *Aggregator) Run(ctx context.Context, primary worker.Worker, secondaries []worker.Worker, query string, reqCtx models.Context) (*IntegratedResult, error) {
	primaryResponse, err := primary.Process(ctx, query, reqCtx)
	if err != nil {
		return nil, &ExecutionError{WorkerID: primary.ID(), err: err}
	}

	results := a.fanOut(ctx, secondaries, query, reqCtx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := rank(results)

	related := make(map[string]models.WorkerResponse, len(ranked))
	for _, r := range ranked {
		related[r.worker.ID()] = models.WorkerResponse{
			Response:   r.response,
			Confidence: r.score,
		}
	}

	return &IntegratedResult{
		PrimaryResponse: primaryResponse,
		Related:         related,
		Integrated:      a.merge(primaryResponse, ranked),
	}, nil
}

// fanOut runs the secondaries concurrently, at most maxParallel at a time,
// each under its own timeout. Failures and timeouts leave their slot empty.
func (a *Aggregator) fanOut(ctx context.Context, secondaries []worker.Worker, query string, reqCtx models.Context) []secondaryResult {
	results := make([]secondaryResult, len(secondaries))
	sem := semaphore.NewWeighted(a.maxParallel)
	var wg sync.WaitGroup

	for i, w := range secondaries {
		if err := sem.Acquire(ctx, 1); err != nil {
			a.log("secondary fan-out aborted: %v", err)
			break
		}
		wg.Add(1)
		go func(slot int, w worker.Worker) {
			defer wg.Done()
			defer sem.Release(1)

			callCtx, cancel := context.WithTimeout(ctx, a.secondaryTimeout)
			defer cancel()

			response, err := w.Process(callCtx, query, reqCtx)
			if err != nil {
				a.log("secondary %s dropped: %v", w.ID(), err)
				return
			}
			results[slot] = secondaryResult{
				worker:   w,
				response: response,
				score:    Confidence(response),
				ok:       true,
			}
		}(i, w)
	}
	wg.Wait()
	return results
}

// rank orders successful results by confidence descending; the stable sort
// keeps invocation order for equal scores.
func rank(results []secondaryResult) []secondaryResult {
	ranked := make([]secondaryResult, 0, len(results))
	for _, r := range results {
		if r.ok {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// merge appends each ranked insight that clears its own worker's confidence
// threshold to the primary response.
func (a *Aggregator) merge(primaryResponse string, ranked []secondaryResult) string {
	var b strings.Builder
	b.WriteString(primaryResponse)

	for _, r := range ranked {
		if r.score < r.worker.ConfidenceThreshold() {
			continue
		}
		b.WriteString(a.delimiter)
		b.WriteString(fmt.Sprintf("Additional insight from %s:\n", r.worker.ID()))
		b.WriteString(a.extract(r.worker.ID(), r.response))
	}
	return b.String()
}
