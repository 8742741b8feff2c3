package threatgraph

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/cache"
	"github.com/zero-day-ai/threatgraph/config"
	"github.com/zero-day-ai/threatgraph/correlate"
	"github.com/zero-day-ai/threatgraph/disambig"
	"github.com/zero-day-ai/threatgraph/graph"
	"github.com/zero-day-ai/threatgraph/ground"
)

const instrumentationName = "github.com/zero-day-ai/threatgraph"

// Engine is the top-level entry point: one grounding resolver and one
// correlator sharing a graph store, a logger, and observability wiring.
// Engines are safe for concurrent use. There is no global instance;
// callers own the lifecycle and must Close when done.
//
// Example:
//
//	store, err := neo4jstore.Open(ctx, neo4jstore.ConfigFromEnv())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := threatgraph.New(store,
//	    threatgraph.WithConfigFile("/etc/threatgraph/threatgraph.yaml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close(context.Background())
type Engine struct {
	store      graph.Store
	grounder   *ground.Resolver
	correlator *correlate.Correlator
	cache      cache.Cache
	ownsCache  bool
	log        *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates an engine backed by the given store. The store is
// adopted: Engine.Close closes it.
func New(store graph.Store, opts ...Option) (*Engine, error) {
	const op = "threatgraph.New"
	if store == nil {
		return nil, NewValidationError(op, ErrStoreRequired)
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	log := s.logger
	if log == nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	cfg := s.cfg
	if cfg == nil && s.configFile != "" {
		loaded, err := config.Load(s.configFile)
		if err != nil {
			return nil, NewConfigurationError(op, err)
		}
		cfg = loaded
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigurationError(op, err)
	}

	decisionCache := s.cache
	ownsCache := false
	if !s.cacheSet {
		switch cfg.Cache.GetBackend() {
		case config.CacheBackendNone:
		case config.CacheBackendRedis:
			rc, err := cache.NewRedis(cfg.Cache.RedisOptions())
			if err != nil {
				return nil, NewConfigurationError(op, err)
			}
			decisionCache = rc
			ownsCache = true
		default:
			ttl := cfg.Cache.GetTTL()
			decisionCache = cache.NewMemory(ttl, ttl)
			ownsCache = true
		}
	}

	resolver := s.disambiguator
	if resolver == nil && cfg.Disambiguation.IsEnabled() {
		oa, err := disambig.NewOpenAI(cfg.Disambiguation.ClientConfig())
		if err != nil {
			if ownsCache {
				CloseWithLog(decisionCache, log, "decision cache")
			}
			return nil, NewConfigurationError(op, err)
		}
		resolver = oa
	}

	var tracer trace.Tracer
	if s.tracerProvider != nil {
		tracer = s.tracerProvider.Tracer(instrumentationName)
	}
	var meter metric.Meter
	if s.meterProvider != nil {
		meter = s.meterProvider.Meter(instrumentationName)
	}

	groundOpts := []ground.Option{
		ground.WithOptions(cfg.Grounding.Options()),
		ground.WithLogger(log),
	}
	if decisionCache != nil {
		groundOpts = append(groundOpts, ground.WithCache(decisionCache))
	}
	if resolver != nil {
		groundOpts = append(groundOpts, ground.WithDisambiguator(resolver))
	}
	if meter != nil {
		groundOpts = append(groundOpts, ground.WithMeter(meter))
	}
	grounder, err := ground.NewResolver(store, groundOpts...)
	if err != nil {
		if ownsCache {
			CloseWithLog(decisionCache, log, "decision cache")
		}
		return nil, NewConfigurationError(op, err)
	}

	corrOpts := []correlate.Option{
		correlate.WithOptions(cfg.Correlation.Options()),
		correlate.WithLogger(log),
	}
	if tracer != nil {
		corrOpts = append(corrOpts, correlate.WithTracer(tracer))
	}
	if meter != nil {
		corrOpts = append(corrOpts, correlate.WithMeter(meter))
	}
	correlator, err := correlate.New(store, corrOpts...)
	if err != nil {
		if ownsCache {
			CloseWithLog(decisionCache, log, "decision cache")
		}
		return nil, NewConfigurationError(op, err)
	}

	return &Engine{
		store:      store,
		grounder:   grounder,
		correlator: correlator,
		cache:      decisionCache,
		ownsCache:  ownsCache,
		log:        log,
	}, nil
}

// GroundEntities normalizes the raw artifacts and resolves each
// surviving value against the graph: existing entity, new entity, or
// disambiguated match. Rejected raw values are dropped silently.
func (e *Engine) GroundEntities(ctx context.Context, artifacts []artifact.Artifact) ([]ground.GroundedEntity, error) {
	const op = "Engine.GroundEntities"
	if err := e.guard(op); err != nil {
		return nil, err
	}
	entities, err := e.grounder.Ground(ctx, artifacts)
	if err != nil {
		return nil, classify(op, err)
	}
	return entities, nil
}

// Correlate searches the graph for threat actors connected to the
// request's artifacts and returns a ranked report. Data-level
// conditions (no artifacts, no matches) come back in the report; an
// error means cancellation, an invalid request, or the store failing
// every query.
func (e *Engine) Correlate(ctx context.Context, req *correlate.Request) (*correlate.Report, error) {
	const op = "Engine.Correlate"
	if err := e.guard(op); err != nil {
		return nil, err
	}
	if req != nil {
		if err := req.Validate(); err != nil {
			return nil, NewValidationError(op, err)
		}
	}
	report, err := e.correlator.Correlate(ctx, req)
	if err != nil {
		return nil, classify(op, err)
	}
	return report, nil
}

// Health verifies the graph store is reachable.
func (e *Engine) Health(ctx context.Context) error {
	const op = "Engine.Health"
	if err := e.guard(op); err != nil {
		return err
	}
	if err := e.store.Verify(ctx); err != nil {
		return classify(op, err)
	}
	return nil
}

// Close releases the engine's resources: the cache when the engine
// built it, and the adopted store. Close is idempotent; calls after
// the first return nil without touching the store again.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if e.ownsCache {
		CloseWithLog(e.cache, e.log, "decision cache")
	}
	if err := e.store.Close(ctx); err != nil {
		return classify("Engine.Close", err)
	}
	return nil
}

func (e *Engine) guard(op string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return NewValidationError(op, ErrEngineClosed)
	}
	return nil
}
