package coordinator

import (
	"time"

	"advisor/internal/aggregate"
	"advisor/internal/analyze"
	"advisor/internal/dispatch"
	"advisor/internal/enhance"
	"advisor/internal/history"
)

// Option configures a Coordinator. Use With* functions to create Options.
type Option func(*coordinatorOptions)

// coordinatorOptions holds all optional configuration, only used during
// construction.
type coordinatorOptions struct {
	store           history.Store
	rules           *dispatch.Rules
	logger          *DebugLogger
	requestDeadline time.Duration

	// Injectable dependencies, mainly for testing.
	enhancer   *enhance.Enhancer
	dispatcher *dispatch.Dispatcher
	aggregator *aggregate.Aggregator
	analyzer   *analyze.Analyzer
	clock      func() time.Time
	newID      func() string
}

// WithHistory sets the history store. Defaults to a bounded in-memory store.
func WithHistory(s history.Store) Option {
	return func(o *coordinatorOptions) { o.store = s }
}

// WithRules sets the orchestration ruleset for the default dispatcher.
func WithRules(r dispatch.Rules) Option {
	return func(o *coordinatorOptions) { o.rules = &r }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *coordinatorOptions) { o.logger = l }
}

// WithRequestDeadline bounds each Coordinate call. Zero disables the bound.
func WithRequestDeadline(d time.Duration) Option {
	return func(o *coordinatorOptions) { o.requestDeadline = d }
}

// WithEnhancer sets a custom context enhancer (mainly for testing).
func WithEnhancer(e *enhance.Enhancer) Option {
	return func(o *coordinatorOptions) { o.enhancer = e }
}

// WithDispatcher sets a custom dispatcher (mainly for testing).
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(o *coordinatorOptions) { o.dispatcher = d }
}

// WithAggregator sets a custom response aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(o *coordinatorOptions) { o.aggregator = a }
}

// WithAnalyzer sets a custom recommendation analyzer.
func WithAnalyzer(a *analyze.Analyzer) Option {
	return func(o *coordinatorOptions) { o.analyzer = a }
}

// WithClock overrides the wall clock (mainly for testing).
func WithClock(now func() time.Time) Option {
	return func(o *coordinatorOptions) { o.clock = now }
}

// WithIDGenerator overrides decision point ID generation (mainly for testing).
func WithIDGenerator(newID func() string) Option {
	return func(o *coordinatorOptions) { o.newID = newID }
}
