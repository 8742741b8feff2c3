// Package ground resolves raw artifact values to canonical graph
// entities. Each value is normalized, compared against existing graph
// candidates by string similarity, and either accepted as an existing
// entity, confirmed through a disambiguation collaborator, or marked new.
// The package never writes to the graph; entity creation belongs to the
// ingestion pipeline.
package ground

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/cache"
	"github.com/zero-day-ai/threatgraph/disambig"
	"github.com/zero-day-ai/threatgraph/graph"
	"github.com/zero-day-ai/threatgraph/schema"
	"github.com/zero-day-ai/threatgraph/similarity"
)

// GroundedEntity is the outcome of resolving one cleaned artifact value.
type GroundedEntity struct {
	// Artifact is the cleaned artifact the decision applies to.
	Artifact artifact.Artifact `json:"artifact"`

	// NormalizedValue is the canonical value: the matched entity's name
	// when grounded to an existing node, otherwise the cleaned value.
	NormalizedValue string `json:"normalized_value"`

	// ExistingID is the element ID of the matched node. Empty when the
	// value is new.
	ExistingID string `json:"existing_id,omitempty"`

	// IsNew reports that no existing entity claimed the value.
	IsNew bool `json:"is_new"`

	// MatchScore is the similarity against the chosen candidate, in
	// [0,1]. Context values and cache hits carry the score recorded at
	// decision time.
	MatchScore float64 `json:"match_score"`
}

// Resolver grounds artifacts against a graph store.
type Resolver struct {
	store     graph.Store
	collab    disambig.Resolver
	decisions cache.Cache
	opts      Options
	log       *slog.Logger
	counter   metric.Int64Counter
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOptions sets the tuning block.
func WithOptions(o Options) Option {
	return func(r *Resolver) {
		r.opts = o
	}
}

// WithDisambiguator sets the collaborator consulted for ambiguous
// matches. Without one, ambiguous values resolve to new.
func WithDisambiguator(d disambig.Resolver) Option {
	return func(r *Resolver) {
		r.collab = d
	}
}

// WithCache sets the decision cache. Without one every value hits the
// store.
func WithCache(c cache.Cache) Option {
	return func(r *Resolver) {
		r.decisions = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMeter sets the meter used for the grounding decision counter.
func WithMeter(m metric.Meter) Option {
	return func(r *Resolver) {
		if m != nil {
			r.counter, _ = m.Int64Counter("threatgraph.grounding.decisions",
				metric.WithDescription("Grounding decisions by outcome"))
		}
	}
}

// NewResolver creates a grounding resolver backed by the given store.
func NewResolver(store graph.Store, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("ground: store is required")
	}

	r := &Resolver{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.opts.Validate(); err != nil {
		return nil, fmt.Errorf("ground: %w", err)
	}
	if r.counter == nil {
		WithMeter(otel.Meter("github.com/zero-day-ai/threatgraph/ground"))(r)
	}
	return r, nil
}

// Ground normalizes the raw artifacts and resolves every surviving value.
// Rejected raw values are dropped silently; the returned slice holds one
// entry per cleaned artifact in input order. The only returned errors are
// context cancellation and store failures that survived retries.
func (r *Resolver) Ground(ctx context.Context, artifacts []artifact.Artifact) ([]GroundedEntity, error) {
	memo := similarity.NewMemo()
	out := make([]GroundedEntity, 0, len(artifacts))

	for _, raw := range artifacts {
		for _, art := range artifact.Normalize(raw.RawValue, raw.Type) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			entity, err := r.groundOne(ctx, art, memo)
			if err != nil {
				return nil, err
			}
			out = append(out, entity)
		}
	}
	return out, nil
}

// groundOne resolves a single cleaned artifact.
func (r *Resolver) groundOne(ctx context.Context, art artifact.Artifact, memo *similarity.Memo) (GroundedEntity, error) {
	// Incident-class values are canonical as-is and are never
	// deduplicated against each other, so neither the store nor the
	// cache is consulted.
	if art.Type.IsContext() {
		r.count(ctx, "context")
		return GroundedEntity{
			Artifact:        art,
			NormalizedValue: art.CleanedValue,
			IsNew:           true,
			MatchScore:      1.0,
		}, nil
	}

	key := cache.Key(string(art.Type), art.CleanedValue)
	if cached, ok := r.cachedDecision(ctx, key, art); ok {
		r.count(ctx, "cached")
		return cached, nil
	}

	entity, outcome, err := r.resolve(ctx, art, memo)
	if err != nil {
		return GroundedEntity{}, err
	}
	r.count(ctx, outcome)
	r.storeDecision(ctx, key, entity)
	return entity, nil
}

// resolve runs the candidate query and decision tiers for one value.
func (r *Resolver) resolve(ctx context.Context, art artifact.Artifact, memo *similarity.Memo) (GroundedEntity, string, error) {
	entity := GroundedEntity{
		Artifact:        art,
		NormalizedValue: art.CleanedValue,
		IsNew:           true,
	}

	records, err := r.fetchCandidates(ctx, art)
	if err != nil {
		return GroundedEntity{}, "", err
	}
	if len(records) == 0 {
		return entity, "new", nil
	}

	best, bestScore := r.pickBest(art.CleanedValue, records, memo)
	entity.MatchScore = bestScore

	switch {
	case bestScore >= r.opts.GetAcceptThreshold():
		entity.NormalizedValue = best.String(graph.ColName, art.CleanedValue)
		entity.ExistingID = best.String(graph.ColID, "")
		entity.IsNew = false
		return entity, "accepted", nil

	case bestScore >= r.opts.GetAmbiguousThreshold():
		if res, ok := r.disambiguate(ctx, art, records); ok {
			entity.NormalizedValue = res.NormalizedName
			entity.ExistingID = res.MatchedID
			entity.IsNew = false
			return entity, "confirmed", nil
		}
		return entity, "new", nil

	default:
		return entity, "new", nil
	}
}

// fetchCandidates queries the store for containment candidates, retrying
// transient failures with doubling backoff.
func (r *Resolver) fetchCandidates(ctx context.Context, art artifact.Artifact) ([]graph.Record, error) {
	ad := schema.AdapterFor(art.Type)
	cypher, params := graph.BuildContainment(ad, art.CleanedValue, r.opts.GetCandidateLimit())

	backoff := r.opts.GetRetryBackoff()
	attempts := r.opts.GetRetryAttempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		qctx, cancel := context.WithTimeout(ctx, r.opts.GetStoreTimeout())
		records, err := r.store.Query(qctx, cypher, params)
		cancel()
		if err == nil {
			return records, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !graph.IsTransient(err) {
			break
		}
		if attempt < attempts {
			r.log.Warn("candidate query failed, retrying",
				slog.String("value", art.CleanedValue),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("ground: candidate query for %q: %w", art.CleanedValue, lastErr)
}

// pickBest scores every candidate against the value and returns the
// winner.
func (r *Resolver) pickBest(value string, records []graph.Record, memo *similarity.Memo) (graph.Record, float64) {
	var best graph.Record
	bestScore := -1.0
	for _, rec := range records {
		name := rec.String(graph.ColName, "")
		if name == "" {
			continue
		}
		if score := memo.Ratio(value, name); score > bestScore {
			best = rec
			bestScore = score
		}
	}
	if bestScore < 0 {
		return nil, 0
	}
	return best, bestScore
}

// disambiguate consults the collaborator for a middle-band match. Any
// error fails open: the value is treated as new rather than blocking.
func (r *Resolver) disambiguate(ctx context.Context, art artifact.Artifact, records []graph.Record) (disambig.Resolution, bool) {
	if r.collab == nil {
		return disambig.Resolution{}, false
	}

	candidates := make([]disambig.Candidate, 0, len(records))
	for _, rec := range records {
		id := rec.String(graph.ColID, "")
		name := rec.String(graph.ColName, "")
		if id == "" || name == "" {
			continue
		}
		candidates = append(candidates, disambig.Candidate{ID: id, Name: name})
	}
	if len(candidates) == 0 {
		return disambig.Resolution{}, false
	}

	dctx, cancel := context.WithTimeout(ctx, r.opts.GetDisambigTimeout())
	defer cancel()

	res, err := r.collab.Resolve(dctx, art.CleanedValue, art.Type.String(), candidates)
	if err != nil {
		r.log.Warn("disambiguation failed, treating value as new",
			slog.String("value", art.CleanedValue),
			slog.Any("error", err))
		return disambig.Resolution{}, false
	}
	return res, res.IsMatch
}

// cachedDecision loads a prior decision for the key. Cache failures
// degrade to a fresh store resolution.
func (r *Resolver) cachedDecision(ctx context.Context, key string, art artifact.Artifact) (GroundedEntity, bool) {
	if r.decisions == nil {
		return GroundedEntity{}, false
	}

	data, err := r.decisions.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.log.Warn("decision cache read failed",
				slog.Any("error", err))
		}
		return GroundedEntity{}, false
	}

	var entity GroundedEntity
	if err := json.Unmarshal(data, &entity); err != nil {
		r.log.Warn("decision cache entry corrupt, dropping",
			slog.Any("error", err))
		_ = r.decisions.Delete(ctx, key)
		return GroundedEntity{}, false
	}

	// The cached decision was made for the same type and cleaned value;
	// only the artifact's raw form differs between requests.
	entity.Artifact = art
	return entity, true
}

// storeDecision writes a decision through to the cache.
func (r *Resolver) storeDecision(ctx context.Context, key string, entity GroundedEntity) {
	if r.decisions == nil {
		return
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return
	}
	if err := r.decisions.Set(ctx, key, data, r.opts.GetCacheTTL()); err != nil {
		r.log.Warn("decision cache write failed",
			slog.Any("error", err))
	}
}

func (r *Resolver) count(ctx context.Context, outcome string) {
	if r.counter == nil {
		return
	}
	r.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", outcome)))
}
