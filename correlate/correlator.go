package correlate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/graph"
)

const instrumentationName = "github.com/zero-day-ai/threatgraph/correlate"

// Correlator executes correlation requests against a read-only graph
// store. It is safe for concurrent use; all per-request state lives on
// the stack of Correlate.
type Correlator struct {
	store    graph.Store
	opts     Options
	log      *slog.Logger
	tracer   trace.Tracer
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithOptions sets the tuning block.
func WithOptions(o Options) Option {
	return func(c *Correlator) {
		c.opts = o
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Correlator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracer sets the tracer for correlation spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Correlator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithMeter sets the meter used for the failure counter and duration
// histogram.
func WithMeter(m metric.Meter) Option {
	return func(c *Correlator) {
		if m == nil {
			return
		}
		c.failures, _ = m.Int64Counter("threatgraph.strategy.errors",
			metric.WithDescription("Search strategy and resolve queries that failed and degraded"))
		c.duration, _ = m.Float64Histogram("threatgraph.correlate.duration",
			metric.WithDescription("Correlation request duration"),
			metric.WithUnit("s"))
	}
}

// New creates a correlator backed by the given store.
func New(store graph.Store, opts ...Option) (*Correlator, error) {
	if store == nil {
		return nil, fmt.Errorf("correlate: store is required")
	}

	c := &Correlator{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.opts.Validate(); err != nil {
		return nil, fmt.Errorf("correlate: %w", err)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(instrumentationName)
	}
	if c.failures == nil {
		WithMeter(otel.Meter(instrumentationName))(c)
	}
	return c, nil
}

// Correlate runs the full pipeline for one request: normalize, fan out
// search strategies on a bounded pool, resolve matches to actors, score,
// rank, and package evidence. Data-level conditions come back in the
// Report; an error means cancellation, an invalid request, or the store
// failing every single query.
func (c *Correlator) Correlate(ctx context.Context, req *Request) (*Report, error) {
	if req == nil {
		req = NewRequest()
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("correlate: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "threatgraph.correlate", trace.WithAttributes(
		attribute.Int("artifacts", len(req.Artifacts)),
		attribute.Int("depth", req.Depth),
		attribute.Int("looseness", req.Looseness),
		attribute.Bool("include_incidents", req.IncludeIncidents),
	))
	defer span.End()
	start := time.Now()

	arts := artifact.NormalizeAll(req.Artifacts)
	inputs := artifact.DistinctValues(arts)
	if len(inputs) == 0 {
		report := buildReport(nil, nil, 0, 0)
		c.observe(ctx, report, start)
		return report, nil
	}

	failures := 0
	indexes, indexErr := c.listIndexes(ctx, req)
	if indexErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		failures++
		c.log.Warn("fulltext index discovery failed, fuzzy search disabled",
			slog.Any("error", indexErr))
	}

	jobs := make([]job, 0, len(arts)*4)
	for _, art := range arts {
		for _, s := range buildStrategies(art, req, c.opts, indexes) {
			jobs = append(jobs, job{art: art, strat: s})
		}
	}

	run, err := runJobs(ctx, c.store, jobs, c.opts.GetConcurrency(), c.opts.GetStoreTimeout(), c.log)
	if err != nil {
		return nil, err
	}
	failures += run.failures

	// A run where every query failed has no signal at all; that is
	// infrastructure failure, not an empty result.
	if run.failures == len(jobs) && len(jobs) > 0 {
		return nil, fmt.Errorf("correlate: all %d strategy queries failed: %w", len(jobs), run.lastErr)
	}

	evidence, resolveFailures, err := c.aggregate(ctx, run.candidates, inputs, req.IncludeIncidents)
	if err != nil {
		return nil, err
	}
	failures += resolveFailures

	results := scoreResults(evidence, len(inputs), c.opts)
	records := buildEvidence(results)

	report := buildReport(results, records, len(inputs), failures)
	span.SetAttributes(
		attribute.Int("results", len(results)),
		attribute.String("outcome", report.Outcome.String()),
	)
	c.observe(ctx, report, start)

	c.log.Debug("correlation complete",
		slog.Int("artifacts", len(inputs)),
		slog.Int("candidates", len(run.candidates)),
		slog.Int("results", len(results)),
		slog.Int("failures", failures),
		slog.Duration("elapsed", time.Since(start)))
	return report, nil
}

// listIndexes discovers fulltext indexes when the request's looseness
// can reach the fuzzy strategy at all.
func (c *Correlator) listIndexes(ctx context.Context, req *Request) ([]graph.IndexDescriptor, error) {
	if req.Looseness < c.opts.GetFuzzyCutoff() {
		return nil, nil
	}
	qctx, cancel := context.WithTimeout(ctx, c.opts.GetStoreTimeout())
	defer cancel()
	return c.store.ListFulltextIndexes(qctx)
}

func (c *Correlator) observe(ctx context.Context, report *Report, start time.Time) {
	if c.failures != nil && report.StrategyErrors > 0 {
		c.failures.Add(ctx, int64(report.StrategyErrors))
	}
	if c.duration != nil {
		c.duration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("outcome", report.Outcome.String())))
	}
}
