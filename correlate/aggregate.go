package correlate

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/zero-day-ai/threatgraph/graph"
	"github.com/zero-day-ai/threatgraph/schema"
)

// maxSamplePaths caps the traversal paths kept per actor for evidence
// output.
const maxSamplePaths = 3

// actorEvidence accumulates everything observed for one candidate actor
// during aggregation. Aggregation runs single-writer after all strategy
// results are joined, so none of this needs locking.
type actorEvidence struct {
	actor          string
	actorID        string
	minDistance    int
	matchedClues   map[string]string
	evidenceNodes  map[string]bool
	samplePaths    []graph.Path
	pathSeen       map[string]bool
	incidentBacked bool
}

// actorRef is one resolved attribution route from a matched node to an
// actor.
type actorRef struct {
	name        string
	id          string
	viaIncident bool
}

// aggregate maps every match candidate back to responsible actors and
// groups the evidence per actor. Actor-labeled candidates attribute
// directly; any other candidate resolves through attribution and alias
// edges, plus curated incident chains when enabled. Candidates that
// reach no actor are dropped silently. Resolve-query failures degrade
// the run (tally + warn) rather than failing it.
func (c *Correlator) aggregate(ctx context.Context, candidates []graph.MatchCandidate, inputs []string, includeIncidents bool) (map[string]*actorEvidence, int, error) {
	evidence := make(map[string]*actorEvidence)

	var indirect []graph.MatchCandidate
	idSeen := make(map[string]bool)
	var ids []string
	for _, cand := range candidates {
		if cand.Node.IsActor() {
			applyCandidate(evidence, cand, actorRef{name: cand.Node.Name, id: cand.Node.ID}, 0, inputs)
			continue
		}
		indirect = append(indirect, cand)
		if cand.Node.ID != "" && !idSeen[cand.Node.ID] {
			idSeen[cand.Node.ID] = true
			ids = append(ids, cand.Node.ID)
		}
	}
	if len(indirect) == 0 {
		return evidence, 0, nil
	}

	resolved := make(map[string][]actorRef)
	failures := 0

	cypher, params := graph.BuildAttributionResolve(ids)
	records, err := c.query(ctx, cypher, params)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, 0, ctx.Err()
	case err != nil:
		failures++
		c.log.Warn("attribution resolve failed",
			slog.Int("nodes", len(ids)),
			slog.Any("error", err))
	default:
		mergeResolved(resolved, records, false)
	}

	if includeIncidents {
		cypher, params = graph.BuildIncidentChainResolve(ids)
		records, err = c.query(ctx, cypher, params)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, 0, ctx.Err()
		case err != nil:
			failures++
			c.log.Warn("incident chain resolve failed",
				slog.Int("nodes", len(ids)),
				slog.Any("error", err))
		default:
			mergeResolved(resolved, records, true)
		}
	}

	penalty := c.opts.GetHopPenalty()
	for _, cand := range indirect {
		for _, ref := range resolved[cand.Node.ID] {
			applyCandidate(evidence, cand, ref, penalty, inputs)
		}
	}
	return evidence, failures, nil
}

// mergeResolved folds resolve-query rows into the source-node -> actors
// map, deduplicating routes to the same actor. An incident-chain route
// to an already-known actor keeps the stronger provenance flag.
func mergeResolved(resolved map[string][]actorRef, records []graph.Record, viaIncident bool) {
	for _, rec := range records {
		sourceID := rec.String(graph.ColSourceID, "")
		name := rec.String(graph.ColActor, "")
		if sourceID == "" || name == "" {
			continue
		}
		id := rec.String(graph.ColActorID, "")

		found := false
		for i, ref := range resolved[sourceID] {
			if ref.id == id && ref.name == name {
				if viaIncident {
					resolved[sourceID][i].viaIncident = true
				}
				found = true
				break
			}
		}
		if !found {
			resolved[sourceID] = append(resolved[sourceID], actorRef{
				name:        name,
				id:          id,
				viaIncident: viaIncident,
			})
		}
	}
}

// applyCandidate folds one (candidate, actor) pair into the evidence
// map.
func applyCandidate(evidence map[string]*actorEvidence, cand graph.MatchCandidate, ref actorRef, penalty int, inputs []string) {
	if ref.name == "" {
		return
	}
	key := strings.ToLower(ref.name)
	ev, ok := evidence[key]
	if !ok {
		ev = &actorEvidence{
			actor:         ref.name,
			actorID:       ref.id,
			minDistance:   math.MaxInt,
			matchedClues:  make(map[string]string),
			evidenceNodes: make(map[string]bool),
			pathSeen:      make(map[string]bool),
		}
		evidence[key] = ev
	}
	if ev.actorID == "" {
		ev.actorID = ref.id
	}

	if distance := cand.Distance + penalty; distance < ev.minDistance {
		ev.minDistance = distance
	}
	if ref.viaIncident || cand.Path.TraversesIncident() {
		ev.incidentBacked = true
	}
	scanPath(ev, cand.Path, inputs)
}

// scanPath walks a candidate's path, marking input artifacts whose
// cleaned value partially matches a node name as clue hits and
// collecting non-input clue-labeled nodes as shared evidence.
func scanPath(ev *actorEvidence, path graph.Path, inputs []string) {
	for _, node := range path.Nodes {
		if node.Name == "" {
			continue
		}
		matched := false
		for _, input := range inputs {
			if containsEither(node.Name, input) {
				ev.matchedClues[strings.ToLower(input)] = input
				matched = true
			}
		}
		if matched || node.IsActor() {
			continue
		}
		if schema.HasClueLabel(node.Labels) {
			ev.evidenceNodes[node.Name] = true
		}
	}

	// Single-node paths are the match itself and say nothing about how
	// the actor was reached.
	if len(path.Nodes) < 2 || len(ev.samplePaths) >= maxSamplePaths {
		return
	}
	key := path.String()
	if !ev.pathSeen[key] {
		ev.pathSeen[key] = true
		ev.samplePaths = append(ev.samplePaths, path)
	}
}

// containsEither reports case-insensitive bidirectional containment.
func containsEither(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// query runs one resolve query under the store timeout.
func (c *Correlator) query(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	qctx, cancel := context.WithTimeout(ctx, c.opts.GetStoreTimeout())
	defer cancel()
	return c.store.Query(qctx, cypher, params)
}
