package correlate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/graph"
	"github.com/zero-day-ai/threatgraph/schema"
)

// fakeNode is one node fixture matched by label and name.
type fakeNode struct {
	id    string
	name  string
	label string
}

type actorPair struct {
	name string
	id   string
}

// fakeStore is a scriptable in-memory Store. The strategy pool queries
// it concurrently, so all counters sit behind one mutex.
type fakeStore struct {
	mu sync.Mutex

	nodes       []fakeNode
	attribution map[string][]actorPair
	incidents   map[string][]actorPair
	paths       map[string][]graph.Path
	indexes     []graph.IndexDescriptor

	queryErr   error
	resolveErr error
	expandErr  error
	lookupErr  error
	indexErr   error

	queryCalls    int
	resolveCalls  int
	incidentCalls int
	expandCalls   int
	lookupCalls   int
	indexCalls    int
	lastExpand    graph.ExpandSpec
}

func (f *fakeStore) Query(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++

	if strings.Contains(cypher, "AS "+graph.ColSourceID) {
		if strings.Contains(cypher, string(schema.RelAttributedTo)+"]->(i)") {
			f.incidentCalls++
			if f.resolveErr != nil {
				return nil, f.resolveErr
			}
			return resolveRecords(f.incidents, params), nil
		}
		f.resolveCalls++
		if f.resolveErr != nil {
			return nil, f.resolveErr
		}
		return resolveRecords(f.attribution, params), nil
	}

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	label := cypherLabel(cypher)
	value, _ := params["p0"].(string)
	exact := strings.Contains(cypher, "= toLower($p0)")

	var out []graph.Record
	for _, n := range f.nodes {
		if n.label != label {
			continue
		}
		if exact && !strings.EqualFold(n.name, value) {
			continue
		}
		if !exact && !containsEither(n.name, value) {
			continue
		}
		out = append(out, graph.Record{
			graph.ColID:     n.id,
			graph.ColName:   n.name,
			graph.ColLabels: []string{n.label},
		})
	}
	return out, nil
}

func (f *fakeStore) FulltextLookup(ctx context.Context, index, text string, limit int) ([]graph.ScoredRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return nil, nil
}

func (f *fakeStore) Expand(ctx context.Context, spec graph.ExpandSpec) ([]graph.Path, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expandCalls++
	f.lastExpand = spec
	if f.expandErr != nil {
		return nil, f.expandErr
	}

	var out []graph.Path
	for _, seed := range spec.SeedIDs {
		for _, p := range f.paths[seed] {
			if p.Length() < spec.MinLevel || p.Length() > spec.MaxLevel {
				continue
			}
			if !pathAllowed(p, spec.Labels) {
				continue
			}
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListFulltextIndexes(ctx context.Context) ([]graph.IndexDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexCalls++
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return f.indexes, nil
}

func (f *fakeStore) Verify(ctx context.Context) error { return nil }

func (f *fakeStore) Close(ctx context.Context) error { return nil }

func resolveRecords(m map[string][]actorPair, params map[string]any) []graph.Record {
	ids, _ := params["p0"].([]string)
	var out []graph.Record
	for _, id := range ids {
		for _, p := range m[id] {
			out = append(out, graph.Record{
				graph.ColSourceID: id,
				graph.ColActor:    p.name,
				graph.ColActorID:  p.id,
			})
		}
	}
	return out
}

func cypherLabel(cypher string) string {
	const prefix = "MATCH (n:"
	i := strings.Index(cypher, prefix)
	if i < 0 {
		return ""
	}
	rest := cypher[i+len(prefix):]
	if j := strings.Index(rest, ")"); j >= 0 {
		return rest[:j]
	}
	return ""
}

// pathAllowed mirrors the store-side label filter: every node beyond the
// seed must carry an allowed label.
func pathAllowed(p graph.Path, labels []schema.Label) bool {
	for _, n := range p.Nodes[1:] {
		ok := false
		for _, l := range n.Labels {
			for _, allowed := range labels {
				if l == string(allowed) {
					ok = true
				}
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// scenarioAStore wires the attribution triangle
// Indicator(1.2.3.4) -INDICATES-> Malware(Emotet) <-USES- ThreatGroup(TA1).
func scenarioAStore() *fakeStore {
	indNode := graph.Node{ID: "4:g:10", Name: "1.2.3.4", Labels: []string{"Indicator"}}
	malNode := graph.Node{ID: "4:g:11", Name: "Emotet", Labels: []string{"Malware"}}
	actNode := graph.Node{ID: "4:g:12", Name: "TA1", Labels: []string{"ThreatGroup"}}

	return &fakeStore{
		nodes: []fakeNode{
			{id: indNode.ID, name: indNode.Name, label: "Indicator"},
			{id: malNode.ID, name: malNode.Name, label: "Malware"},
			{id: actNode.ID, name: actNode.Name, label: "ThreatGroup"},
		},
		attribution: map[string][]actorPair{
			malNode.ID: {{name: "TA1", id: actNode.ID}},
		},
		paths: map[string][]graph.Path{
			indNode.ID: {
				{Nodes: []graph.Node{indNode, malNode}, Relationships: []string{"INDICATES"}},
				{Nodes: []graph.Node{indNode, malNode, actNode}, Relationships: []string{"INDICATES", "USES"}},
			},
			malNode.ID: {
				{Nodes: []graph.Node{malNode, actNode}, Relationships: []string{"USES"}},
			},
		},
	}
}

func scenarioAArtifacts() []artifact.Artifact {
	return []artifact.Artifact{
		{Type: artifact.TypeIndicator, RawValue: "1.2.3.4"},
		{Type: artifact.TypeMalware, RawValue: "Emotet"},
	}
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_RejectsBadWeights(t *testing.T) {
	_, err := New(&fakeStore{}, WithOptions(Options{
		ProximityWeight: 0.5,
		BreadthWeight:   0.6,
		OverlapWeight:   0.2,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestCorrelate_EmptyInput(t *testing.T) {
	store := &fakeStore{}
	c, err := New(store)
	require.NoError(t, err)

	report, err := c.Correlate(context.Background(), NewRequest())
	require.NoError(t, err)

	assert.NotNil(t, report.Results)
	assert.Empty(t, report.Results)
	assert.Equal(t, "no artifacts provided", report.Status)
	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Zero(t, store.queryCalls)
}

func TestCorrelate_AllInputRejected(t *testing.T) {
	store := &fakeStore{}
	c, err := New(store)
	require.NoError(t, err)

	req := NewRequest(
		artifact.Artifact{Type: artifact.TypeMalware, RawValue: "unknown"},
		artifact.Artifact{Type: artifact.TypeIP, RawValue: "ip address"},
	)
	report, err := c.Correlate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "no artifacts provided", report.Status)
	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Zero(t, store.queryCalls)
}

func TestCorrelate_ScenarioA(t *testing.T) {
	store := scenarioAStore()
	c, err := New(store)
	require.NoError(t, err)

	req := NewRequest(scenarioAArtifacts()...).
		WithDepth(2).
		WithLooseness(30).
		WithIncidents(true)

	report, err := c.Correlate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, "TA1", res.Actor)
	assert.Equal(t, "4:g:12", res.ActorID)
	assert.Equal(t, 1, res.MinDistance)
	assert.Equal(t, []string{"1.2.3.4", "Emotet"}, res.MatchedClues)
	assert.InDelta(t, 0.7, res.Score, 1e-9)
	assert.InDelta(t, 70.0, res.Percent, 1e-9)
	assert.Equal(t, BandMedium, res.Band)
	assert.False(t, res.IncidentBacked)
	assert.NotEmpty(t, res.SamplePaths)

	assert.Equal(t, "correlated 2 artifact(s) to 1 candidate actor(s)", report.Status)
	assert.Equal(t, OutcomeComplete, report.Outcome)
	assert.Zero(t, report.StrategyErrors)

	require.Len(t, report.Evidence, 1)
	digest := report.Evidence[0].Digest()
	assert.Contains(t, digest, "Actor: TA1")
	assert.Contains(t, digest, "1.2.3.4")

	// Looseness 30 passes the fuzzy cutoff, but the store reports no
	// indexes, so the fuzzy strategy never runs.
	assert.Equal(t, 1, store.indexCalls)
	assert.Zero(t, store.lookupCalls)

	assert.Equal(t, 1, store.lastExpand.MinLevel)
	assert.Equal(t, 3, store.lastExpand.MaxLevel)
	assert.Equal(t, 200, store.lastExpand.Limit)
	assert.NotEmpty(t, store.lastExpand.Relationships)
}

func TestCorrelate_MatchedCluesAreSubsetOfInputs(t *testing.T) {
	store := scenarioAStore()
	c, err := New(store)
	require.NoError(t, err)

	report, err := c.Correlate(context.Background(), NewRequest(scenarioAArtifacts()...))
	require.NoError(t, err)
	require.NotEmpty(t, report.Results)

	inputs := map[string]bool{"1.2.3.4": true, "emotet": true}
	for _, clue := range report.Results[0].MatchedClues {
		assert.True(t, inputs[strings.ToLower(clue)], "clue %q is not an input value", clue)
	}
}

func TestCorrelate_MonotonicConfidence(t *testing.T) {
	store := scenarioAStore()
	c, err := New(store)
	require.NoError(t, err)

	one, err := c.Correlate(context.Background(), NewRequest(
		artifact.Artifact{Type: artifact.TypeMalware, RawValue: "Emotet"},
	))
	require.NoError(t, err)
	require.NotEmpty(t, one.Results)

	both, err := c.Correlate(context.Background(), NewRequest(scenarioAArtifacts()...))
	require.NoError(t, err)
	require.NotEmpty(t, both.Results)

	assert.GreaterOrEqual(t, both.Results[0].Score, one.Results[0].Score)
}

func TestCorrelate_DuplicateInputsDoNotChangeScore(t *testing.T) {
	store := scenarioAStore()
	c, err := New(store)
	require.NoError(t, err)

	once, err := c.Correlate(context.Background(), NewRequest(
		artifact.Artifact{Type: artifact.TypeMalware, RawValue: "Emotet"},
	))
	require.NoError(t, err)
	require.NotEmpty(t, once.Results)

	twice, err := c.Correlate(context.Background(), NewRequest(
		artifact.Artifact{Type: artifact.TypeMalware, RawValue: "Emotet"},
		artifact.Artifact{Type: artifact.TypeMalware, RawValue: "emotet"},
	))
	require.NoError(t, err)
	require.NotEmpty(t, twice.Results)

	assert.InDelta(t, once.Results[0].Score, twice.Results[0].Score, 1e-9)
}

func TestCorrelate_DepthWidensCandidatePool(t *testing.T) {
	seed := graph.Node{ID: "4:g:20", Name: "10.0.0.5", Labels: []string{"Indicator"}}
	hop1 := graph.Node{ID: "4:g:21", Name: "Cutwail", Labels: []string{"Malware"}}
	hop2 := graph.Node{ID: "4:g:22", Name: "Mimikatz", Labels: []string{"Tool"}}
	hop3 := graph.Node{ID: "4:g:23", Name: "198.51.100.7", Labels: []string{"Indicator"}}
	actor := graph.Node{ID: "4:g:24", Name: "TA9", Labels: []string{"ThreatGroup"}}

	store := &fakeStore{
		nodes: []fakeNode{{id: seed.ID, name: seed.Name, label: "Indicator"}},
		paths: map[string][]graph.Path{
			seed.ID: {
				{
					Nodes:         []graph.Node{seed, hop1, hop2, hop3, actor},
					Relationships: []string{"INDICATES", "USES", "INDICATES", "USES"},
				},
			},
		},
	}
	c, err := New(store)
	require.NoError(t, err)

	art := artifact.Artifact{Type: artifact.TypeIP, RawValue: "10.0.0.5"}

	shallow, err := c.Correlate(context.Background(), NewRequest(art).WithDepth(2))
	require.NoError(t, err)
	assert.Empty(t, shallow.Results, "four-hop actor must be invisible at depth 2")

	deep, err := c.Correlate(context.Background(), NewRequest(art).WithDepth(3))
	require.NoError(t, err)
	require.Len(t, deep.Results, 1)

	res := deep.Results[0]
	assert.Equal(t, "TA9", res.Actor)
	assert.Equal(t, 4, res.MinDistance)
	assert.ElementsMatch(t, []string{"Cutwail", "Mimikatz", "198.51.100.7"}, res.EvidenceNodes)
	assert.Equal(t, 4, store.lastExpand.MaxLevel)
}

func TestCorrelate_IncidentChainAttribution(t *testing.T) {
	hash := graph.Node{ID: "4:g:30", Name: "d41d8cd98f00b204", Labels: []string{"Indicator"}}

	store := &fakeStore{
		nodes: []fakeNode{{id: hash.ID, name: hash.Name, label: "Indicator"}},
		incidents: map[string][]actorPair{
			hash.ID: {{name: "TA7", id: "4:g:31"}},
		},
	}
	c, err := New(store)
	require.NoError(t, err)

	art := artifact.Artifact{Type: artifact.TypeHash, RawValue: "d41d8cd98f00b204"}

	// Without incidents the hash resolves to nobody.
	closed, err := c.Correlate(context.Background(), NewRequest(art))
	require.NoError(t, err)
	assert.Empty(t, closed.Results)
	assert.Zero(t, store.incidentCalls)
	assert.NotContains(t, store.lastExpand.Labels, schema.LabelIncident)

	opened, err := c.Correlate(context.Background(), NewRequest(art).WithIncidents(true))
	require.NoError(t, err)
	require.Len(t, opened.Results, 1)
	assert.Equal(t, 1, store.incidentCalls)
	assert.Contains(t, store.lastExpand.Labels, schema.LabelIncident)

	res := opened.Results[0]
	assert.Equal(t, "TA7", res.Actor)
	assert.True(t, res.IncidentBacked)
	assert.Equal(t, 1, res.MinDistance)
	// 0.1 proximity + 0.6 breadth, then the 1.15 provenance bonus.
	assert.InDelta(t, 80.5, res.Percent, 1e-9)
	assert.Equal(t, BandHigh, res.Band)
}

func TestCorrelate_FuzzyGating(t *testing.T) {
	index := graph.IndexDescriptor{
		Name:       "malwareNames",
		Labels:     []string{"Malware"},
		Properties: []string{"name"},
	}

	t.Run("below cutoff skips discovery and lookup", func(t *testing.T) {
		store := scenarioAStore()
		store.indexes = []graph.IndexDescriptor{index}
		c, err := New(store)
		require.NoError(t, err)

		_, err = c.Correlate(context.Background(), NewRequest(
			artifact.Artifact{Type: artifact.TypeMalware, RawValue: "Emotet"},
		).WithLooseness(10))
		require.NoError(t, err)
		assert.Zero(t, store.indexCalls)
		assert.Zero(t, store.lookupCalls)
	})

	t.Run("above cutoff with covering index runs lookup", func(t *testing.T) {
		store := scenarioAStore()
		store.indexes = []graph.IndexDescriptor{index}
		c, err := New(store)
		require.NoError(t, err)

		_, err = c.Correlate(context.Background(), NewRequest(
			artifact.Artifact{Type: artifact.TypeMalware, RawValue: "Emotet"},
		).WithLooseness(30))
		require.NoError(t, err)
		assert.Equal(t, 1, store.indexCalls)
		assert.Equal(t, 1, store.lookupCalls)
	})

	t.Run("above cutoff without covering index skips lookup", func(t *testing.T) {
		store := scenarioAStore()
		store.indexes = []graph.IndexDescriptor{index}
		c, err := New(store)
		require.NoError(t, err)

		// Indicator artifacts have no covering index in this store.
		_, err = c.Correlate(context.Background(), NewRequest(
			artifact.Artifact{Type: artifact.TypeIndicator, RawValue: "1.2.3.4"},
		).WithLooseness(30))
		require.NoError(t, err)
		assert.Equal(t, 1, store.indexCalls)
		assert.Zero(t, store.lookupCalls)
	})
}

func TestCorrelate_StrategyFailureDegrades(t *testing.T) {
	store := scenarioAStore()
	store.expandErr = fmt.Errorf("apoc missing: %w", graph.ErrQueryFailed)
	c, err := New(store)
	require.NoError(t, err)

	report, err := c.Correlate(context.Background(), NewRequest(scenarioAArtifacts()...).WithLooseness(10))
	require.NoError(t, err)

	// Exact and partial still attribute Emotet to TA1 through the
	// resolve edge; only the expansion evidence is lost.
	require.Len(t, report.Results, 1)
	assert.Equal(t, "TA1", report.Results[0].Actor)

	assert.Equal(t, 2, report.StrategyErrors)
	assert.Equal(t, OutcomeDegraded, report.Outcome)
	assert.Contains(t, report.Status, "degraded: 2 strategy queries failed")
}

func TestCorrelate_IndexDiscoveryFailureDegrades(t *testing.T) {
	store := scenarioAStore()
	store.indexErr = fmt.Errorf("show indexes: %w", graph.ErrQueryFailed)
	c, err := New(store)
	require.NoError(t, err)

	report, err := c.Correlate(context.Background(), NewRequest(scenarioAArtifacts()...).WithLooseness(30))
	require.NoError(t, err)

	require.NotEmpty(t, report.Results)
	assert.Equal(t, OutcomeDegraded, report.Outcome)
	assert.Equal(t, 1, report.StrategyErrors)
}

func TestCorrelate_AllQueriesFailedIsAnError(t *testing.T) {
	store := &fakeStore{
		queryErr:  fmt.Errorf("dial tcp: %w", graph.ErrUnavailable),
		expandErr: fmt.Errorf("dial tcp: %w", graph.ErrUnavailable),
	}
	c, err := New(store)
	require.NoError(t, err)

	_, err = c.Correlate(context.Background(), NewRequest(
		artifact.Artifact{Type: artifact.TypeMalware, RawValue: "Emotet"},
	).WithLooseness(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrUnavailable)
	assert.Contains(t, err.Error(), "all 3 strategy queries failed")
}

func TestCorrelate_ZeroActorCandidatesDropped(t *testing.T) {
	store := &fakeStore{
		nodes: []fakeNode{{id: "4:g:40", name: "loner.example.net", label: "Indicator"}},
	}
	c, err := New(store)
	require.NoError(t, err)

	report, err := c.Correlate(context.Background(), NewRequest(
		artifact.Artifact{Type: artifact.TypeDomain, RawValue: "loner.example.net"},
	))
	require.NoError(t, err)

	assert.Empty(t, report.Results)
	assert.Equal(t, "no correlations found for 1 artifact(s)", report.Status)
	assert.Equal(t, OutcomeEmpty, report.Outcome)
}

func TestCorrelate_Cancellation(t *testing.T) {
	store := scenarioAStore()
	c, err := New(store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Correlate(ctx, NewRequest(scenarioAArtifacts()...).WithLooseness(10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCorrelate_InvalidRequest(t *testing.T) {
	c, err := New(&fakeStore{})
	require.NoError(t, err)

	_, err = c.Correlate(context.Background(), NewRequest().WithDepth(5))
	assert.Error(t, err)

	_, err = c.Correlate(context.Background(), NewRequest().WithLooseness(101))
	assert.Error(t, err)
}

func TestRequestDefaults(t *testing.T) {
	req := NewRequest()

	assert.Equal(t, 2, req.Depth)
	assert.Equal(t, 30, req.Looseness)
	assert.False(t, req.IncludeIncidents)
	assert.NoError(t, req.Validate())
}

func TestRequestChaining(t *testing.T) {
	req := NewRequest().WithDepth(3).WithLooseness(80).WithIncidents(true)

	assert.Equal(t, 3, req.Depth)
	assert.Equal(t, 80, req.Looseness)
	assert.True(t, req.IncludeIncidents)
	assert.NoError(t, req.Validate())
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		depth     int
		looseness int
		wantErr   bool
	}{
		{"valid bounds low", 1, 0, false},
		{"valid bounds high", 3, 100, false},
		{"depth too low", 0, 30, true},
		{"depth too high", 4, 30, true},
		{"looseness negative", 2, -1, true},
		{"looseness too high", 2, 101, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest().WithDepth(tt.depth).WithLooseness(tt.looseness)
			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
