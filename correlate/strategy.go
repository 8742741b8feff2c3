package correlate

import (
	"context"
	"fmt"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/graph"
	"github.com/zero-day-ai/threatgraph/schema"
)

// Strategy names as they appear in match candidates and logs.
const (
	StrategyExact     = "exact"
	StrategyPartial   = "partial"
	StrategyFuzzy     = "fuzzy"
	StrategyExpansion = "expansion"
)

// strategy is one independently executable search. Strategies never
// short-circuit each other: all built strategies run so evidence
// accumulates.
type strategy interface {
	name() string
	run(ctx context.Context, store graph.Store, art artifact.Artifact) ([]graph.MatchCandidate, error)
}

// buildStrategies assembles the strategy set for one artifact. The fuzzy
// strategy is only included when looseness reaches the cutoff and the
// store has a fulltext index covering the artifact's label.
func buildStrategies(art artifact.Artifact, req *Request, opts Options, indexes []graph.IndexDescriptor) []strategy {
	ad := schema.AdapterFor(art.Type)
	strategies := []strategy{
		exactStrategy{adapter: ad},
		partialStrategy{adapter: ad, limit: opts.GetPartialLimit()},
	}

	if req.Looseness >= opts.GetFuzzyCutoff() {
		if index := indexFor(ad.Label(), indexes); index != "" {
			strategies = append(strategies, fuzzyStrategy{
				index: index,
				limit: opts.GetFuzzyLimit(),
			})
		}
	}

	strategies = append(strategies, expansionStrategy{
		adapter:          ad,
		seedLimit:        opts.GetPartialLimit(),
		pathLimit:        opts.GetPathLimit(),
		depth:            req.Depth,
		includeIncidents: req.IncludeIncidents,
	})
	return strategies
}

// indexFor picks the fulltext index to use for a label, preferring the
// first index that covers it.
func indexFor(label schema.Label, indexes []graph.IndexDescriptor) string {
	for _, idx := range indexes {
		if idx.CoversLabel(label) {
			return idx.Name
		}
	}
	return ""
}

// exactStrategy matches nodes whose comparable value equals the cleaned
// artifact value, case-insensitively. Hits carry distance 0.
type exactStrategy struct {
	adapter schema.Adapter
}

func (s exactStrategy) name() string { return StrategyExact }

func (s exactStrategy) run(ctx context.Context, store graph.Store, art artifact.Artifact) ([]graph.MatchCandidate, error) {
	cypher, params := graph.BuildExact(s.adapter, art.Value())
	records, err := store.Query(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return candidatesFromRecords(art, records, 0, s.name()), nil
}

// partialStrategy matches nodes whose comparable value contains or is
// contained by the cleaned artifact value. Hits carry distance 1.
type partialStrategy struct {
	adapter schema.Adapter
	limit   int
}

func (s partialStrategy) name() string { return StrategyPartial }

func (s partialStrategy) run(ctx context.Context, store graph.Store, art artifact.Artifact) ([]graph.MatchCandidate, error) {
	cypher, params := graph.BuildContainment(s.adapter, art.Value(), s.limit)
	records, err := store.Query(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return candidatesFromRecords(art, records, 1, s.name()), nil
}

// fuzzyStrategy runs an approximate lookup against a fulltext index.
// Hits carry distance 1 regardless of index ranking; the ranking only
// orders which rows survive the limit.
type fuzzyStrategy struct {
	index string
	limit int
}

func (s fuzzyStrategy) name() string { return StrategyFuzzy }

func (s fuzzyStrategy) run(ctx context.Context, store graph.Store, art artifact.Artifact) ([]graph.MatchCandidate, error) {
	scored, err := store.FulltextLookup(ctx, s.index, art.Value(), s.limit)
	if err != nil {
		return nil, err
	}
	out := make([]graph.MatchCandidate, 0, len(scored))
	for _, sr := range scored {
		node := graph.NodeFromRecord(sr.Record)
		if node.ID == "" {
			continue
		}
		out = append(out, graph.NewMatchCandidate(art, node, 1, graph.Path{}, s.name()))
	}
	return out, nil
}

// expansionStrategy finds partial seed nodes, then walks outward through
// the curated relationship and label allowlists. Each explored path
// yields one candidate for its terminal node, at a distance equal to the
// path length.
type expansionStrategy struct {
	adapter          schema.Adapter
	seedLimit        int
	pathLimit        int
	depth            int
	includeIncidents bool
}

func (s expansionStrategy) name() string { return StrategyExpansion }

func (s expansionStrategy) run(ctx context.Context, store graph.Store, art artifact.Artifact) ([]graph.MatchCandidate, error) {
	cypher, params := graph.BuildContainment(s.adapter, art.Value(), s.seedLimit)
	records, err := store.Query(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("seed lookup: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	seedIDs := make([]string, 0, len(records))
	for _, rec := range records {
		if id := rec.String(graph.ColID, ""); id != "" {
			seedIDs = append(seedIDs, id)
		}
	}
	if len(seedIDs) == 0 {
		return nil, nil
	}

	paths, err := store.Expand(ctx, graph.ExpandSpec{
		SeedIDs:       seedIDs,
		Relationships: schema.ExpansionRelationships(),
		Labels:        schema.ExpansionLabels(s.includeIncidents),
		MinLevel:      1,
		MaxLevel:      maxLevel(s.depth),
		Limit:         s.pathLimit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]graph.MatchCandidate, 0, len(paths))
	for _, p := range paths {
		if len(p.Nodes) == 0 {
			continue
		}
		terminal := p.Nodes[len(p.Nodes)-1]
		if terminal.ID == "" {
			continue
		}
		out = append(out, graph.NewMatchCandidate(art, terminal, p.Length(), p, s.name()))
	}
	return out, nil
}

// maxLevel converts the request depth into the traversal ceiling.
func maxLevel(depth int) int {
	if level := depth + 1; level > 3 {
		return level
	}
	return 3
}

func candidatesFromRecords(art artifact.Artifact, records []graph.Record, distance int, strategy string) []graph.MatchCandidate {
	out := make([]graph.MatchCandidate, 0, len(records))
	for _, rec := range records {
		node := graph.NodeFromRecord(rec)
		if node.ID == "" {
			continue
		}
		out = append(out, graph.NewMatchCandidate(art, node, distance, graph.Path{}, strategy))
	}
	return out
}
