// Package coordinator wires the registry, enhancer, dispatcher, aggregator,
// analyzer, and history store into the two caller-facing operations:
// coordinating a query across workers and generating holistic
// recommendations.
package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"advisor/internal/aggregate"
	"advisor/internal/analyze"
	"advisor/internal/dispatch"
	"advisor/internal/enhance"
	"advisor/internal/history"
	"advisor/internal/worker"
	"advisor/pkg/models"
)

// DefaultRequestDeadline bounds one Coordinate call when no deadline option
// is given.
const DefaultRequestDeadline = 30 * time.Second

// Coordinator owns the coordination state for one advisory system instance.
// It is created at startup, passed where needed, and torn down with Close;
// nothing in this package holds global state.
type Coordinator struct {
	registry   *worker.Registry
	store      history.Store
	enhancer   *enhance.Enhancer
	dispatcher *dispatch.Dispatcher
	aggregator *aggregate.Aggregator
	analyzer   *analyze.Analyzer
	logger     *DebugLogger

	requestDeadline time.Duration
	now             func() time.Time
	newID           func() string
}

// New creates a Coordinator over the given registry. Collaborators not
// overridden by options are built with their defaults: a bounded in-memory
// history store, the built-in ruleset, and a no-op logger.
func New(registry *worker.Registry, opts ...Option) *Coordinator {
	o := &coordinatorOptions{
		requestDeadline: DefaultRequestDeadline,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil {
		o.store = history.NewMemoryStore(history.DefaultCapacity)
	}
	if o.logger == nil {
		o.logger = NopLogger()
	}
	if o.rules == nil {
		rules := dispatch.DefaultRules()
		o.rules = &rules
	}
	if o.enhancer == nil {
		o.enhancer = enhance.New(registry, o.store)
	}
	if o.dispatcher == nil {
		o.dispatcher = dispatch.New(registry, o.store, *o.rules)
	}
	if o.aggregator == nil {
		o.aggregator = aggregate.New(aggregate.WithLogger(o.logger.Log))
	}
	if o.analyzer == nil {
		o.analyzer = analyze.New(analyze.WithLogger(o.logger.Log))
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}

	return &Coordinator{
		registry:        registry,
		store:           o.store,
		enhancer:        o.enhancer,
		dispatcher:      o.dispatcher,
		aggregator:      o.aggregator,
		analyzer:        o.analyzer,
		logger:          o.logger,
		requestDeadline: o.requestDeadline,
		now:             o.clock,
		newID:           o.newID,
	}
}

// Registry returns the worker registry the coordinator routes over.
func (c *Coordinator) Registry() *worker.Registry { return c.registry }

// History returns the history store.
func (c *Coordinator) History() history.Store { return c.store }

// Dispatcher returns the dispatcher, for rules hot reload.
func (c *Coordinator) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }

// Close releases the coordinator's resources.
func (c *Coordinator) Close() error {
	if err := c.store.Close(); err != nil {
		return err
	}
	return c.logger.Close()
}

// Coordinate answers a query through the named primary worker, enriched by
// whichever secondaries the dispatcher selects. On success the cycle is
// recorded in history; any primary-path failure returns a structured error
// result and leaves no history record.
func (c *Coordinator) Coordinate(ctx context.Context, query, primaryID string, reqCtx models.Context) models.CoordinationResult {
	if c.requestDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestDeadline)
		defer cancel()
	}

	initialCtx := reqCtx.Clone()
	enhanced := c.enhancer.Enhance(reqCtx)

	primary, err := c.dispatcher.SelectPrimary(primaryID)
	if err != nil {
		c.logger.Log("coordinate: %v", err)
		return c.errorResult(err)
	}

	secondaryIDs := c.dispatcher.SelectSecondary(primaryID, query, enhanced)
	secondaries := make([]worker.Worker, 0, len(secondaryIDs))
	for _, id := range secondaryIDs {
		w, err := c.registry.Lookup(id)
		if err != nil {
			c.logger.Log("coordinate: selected secondary %s vanished: %v", id, err)
			continue
		}
		secondaries = append(secondaries, w)
	}
	c.logger.Log("coordinate: primary=%s secondaries=%v", primaryID, secondaryIDs)

	result, err := c.aggregator.Run(ctx, primary, secondaries, query, enhanced)
	if err != nil {
		c.logger.Log("coordinate: aggregation failed, no history record: %v", err)
		return c.errorResult(err)
	}

	c.record(query, primaryID, initialCtx, result)

	return models.CoordinationResult{
		Status:             models.StatusSuccess,
		PrimaryResponse:    result.PrimaryResponse,
		RelatedResponses:   result.Related,
		IntegratedResponse: result.Integrated,
		Timestamp:          c.now(),
	}
}

// record appends the cycle's decision point. History failures are logged,
// never surfaced; the caller already has their answer.
func (c *Coordinator) record(query, primaryID string, initialCtx models.Context, result *aggregate.IntegratedResult) {
	responded := make([]string, 0, len(result.Related))
	var confidenceSum float64
	for id, response := range result.Related {
		responded = append(responded, id)
		confidenceSum += response.Confidence
	}
	sort.Strings(responded)

	meanConfidence := 0.0
	if len(responded) > 0 {
		meanConfidence = confidenceSum / float64(len(responded))
	}

	dp := models.DecisionPoint{
		ID:                 c.newID(),
		Timestamp:          c.now(),
		Query:              query,
		PrimaryWorkerID:    primaryID,
		SecondaryWorkerIDs: responded,
		InitialContext:     initialCtx,
		Outcome:            models.OutcomeSuccess,
		SuccessMetrics: map[string]float64{
			"secondary_count": float64(len(responded)),
			"mean_confidence": meanConfidence,
		},
	}
	if err := c.store.Append(dp); err != nil {
		c.logger.Log("coordinate: history append failed: %v", err)
	}
}

func (c *Coordinator) errorResult(err error) models.CoordinationResult {
	return models.CoordinationResult{
		Status:    models.StatusError,
		Error:     err.Error(),
		Timestamp: c.now(),
	}
}

// GenerateRecommendations fans Recommend out over every registered worker,
// analyzes the combined batch, and integrates it into one conflict-free
// ranked list. Per-worker failures are isolated: their batch is skipped and
// the rest proceeds.
func (c *Coordinator) GenerateRecommendations(ctx context.Context, userData models.Context) models.RecommendationResult {
	if c.requestDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestDeadline)
		defer cancel()
	}

	workers := c.registry.Workers()

	var (
		mu       sync.Mutex
		byWorker = make(map[string][]models.Recommendation, len(workers))
		wg       sync.WaitGroup
	)
	for _, w := range workers {
		wg.Add(1)
		go func(w worker.Worker) {
			defer wg.Done()
			recs, err := w.Recommend(ctx, userData)
			if err != nil {
				c.logger.Log("recommend: worker %s skipped: %v", w.ID(), err)
				return
			}
			mu.Lock()
			byWorker[w.ID()] = recs
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return models.RecommendationResult{
			Status:    models.StatusError,
			Error:     err.Error(),
			Timestamp: c.now(),
		}
	}

	analysis := c.analyzer.Analyze(byWorker)
	return models.RecommendationResult{
		Status:          models.StatusSuccess,
		Recommendations: c.analyzer.Integrate(analysis),
		Timestamp:       c.now(),
	}
}
