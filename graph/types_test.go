package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/schema"
)

func samplePath() Path {
	return Path{
		Nodes: []Node{
			{ID: "1", Name: "1.2.3.4", Labels: []string{"Indicator"}},
			{ID: "2", Name: "Emotet", Labels: []string{"Malware"}},
			{ID: "3", Name: "TA1", Labels: []string{"ThreatGroup"}},
		},
		Relationships: []string{"INDICATES", "USES"},
	}
}

func TestPath_Length(t *testing.T) {
	assert.Equal(t, 2, samplePath().Length())
	assert.Equal(t, 0, Path{}.Length())
	assert.Equal(t, 0, Path{Nodes: []Node{{Name: "solo"}}}.Length())
}

func TestPath_String(t *testing.T) {
	assert.Equal(t, "1.2.3.4 -[INDICATES]-> Emotet -[USES]-> TA1", samplePath().String())
	assert.Equal(t, "", Path{}.String())

	// Missing relationship types render a generic arrow.
	p := Path{Nodes: []Node{{Name: "a"}, {Name: "b"}}}
	assert.Equal(t, "a -[RELATED]-> b", p.String())
}

func TestPath_TraversesIncident(t *testing.T) {
	assert.False(t, samplePath().TraversesIncident())

	p := Path{Nodes: []Node{
		{Name: "step", Labels: []string{"AttackStep"}},
		{Name: "TA1", Labels: []string{"ThreatGroup"}},
	}}
	assert.True(t, p.TraversesIncident())
}

func TestNode_IsActor(t *testing.T) {
	assert.True(t, Node{Labels: []string{"ThreatGroup"}}.IsActor())
	assert.False(t, Node{Labels: []string{"Malware"}}.IsActor())
}

func TestNewMatchCandidate_ClampsDistance(t *testing.T) {
	art, _ := artifact.New(artifact.TypeMalware, "Emotet")
	node := Node{ID: "2", Name: "Emotet", Labels: []string{"Malware"}}

	mc := NewMatchCandidate(art, node, -3, Path{}, "exact")
	assert.Equal(t, 0, mc.Distance)
	assert.Equal(t, []Node{node}, mc.Path.Nodes)
}

func TestExpandSpec_Validate(t *testing.T) {
	valid := ExpandSpec{
		SeedIDs:       []string{"id-1"},
		Relationships: schema.ExpansionRelationships(),
		Labels:        schema.ExpansionLabels(true),
		MinLevel:      1,
		MaxLevel:      3,
		Limit:         200,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ExpandSpec)
	}{
		{"no seeds", func(s *ExpandSpec) { s.SeedIDs = nil }},
		{"no relationships", func(s *ExpandSpec) { s.Relationships = nil }},
		{"no labels", func(s *ExpandSpec) { s.Labels = nil }},
		{"negative min level", func(s *ExpandSpec) { s.MinLevel = -1 }},
		{"max below min", func(s *ExpandSpec) { s.MaxLevel = 0 }},
		{"zero limit", func(s *ExpandSpec) { s.Limit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid
			tt.mutate(&spec)
			assert.Error(t, spec.Validate())
		})
	}
}
