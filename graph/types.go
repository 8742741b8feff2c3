package graph

import (
	"fmt"
	"strings"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/schema"
)

// Node is a graph node reference as seen by search and expansion results.
type Node struct {
	// ID is the store's element ID for the node.
	ID string `json:"id"`

	// Name is the node's comparable display value.
	Name string `json:"name"`

	// Labels are the node's labels.
	Labels []string `json:"labels"`
}

// IsActor reports whether the node carries an actor label.
func (n Node) IsActor() bool {
	return schema.HasActorLabel(n.Labels)
}

// Path is an ordered traversal result. Relationships[i] connects Nodes[i]
// to Nodes[i+1].
type Path struct {
	Nodes         []Node   `json:"nodes"`
	Relationships []string `json:"relationships,omitempty"`
}

// Length returns the path length in hops.
func (p Path) Length() int {
	if len(p.Nodes) == 0 {
		return 0
	}
	return len(p.Nodes) - 1
}

// TraversesIncident reports whether any node on the path is
// incident-class.
func (p Path) TraversesIncident() bool {
	for _, n := range p.Nodes {
		if schema.HasIncidentLabel(n.Labels) {
			return true
		}
	}
	return false
}

// String renders the path as "A -[REL]-> B -[REL]-> C" for evidence
// output.
func (p Path) String() string {
	if len(p.Nodes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, n := range p.Nodes {
		if i > 0 {
			rel := "RELATED"
			if i-1 < len(p.Relationships) && p.Relationships[i-1] != "" {
				rel = p.Relationships[i-1]
			}
			fmt.Fprintf(&b, " -[%s]-> ", rel)
		}
		b.WriteString(n.Name)
	}
	return b.String()
}

// MatchCandidate is one ephemeral search hit: an input artifact matched a
// graph node at some distance, possibly through a path. Candidates exist
// only between strategy execution and aggregation and are never persisted.
type MatchCandidate struct {
	// Artifact is the input artifact that produced this match.
	Artifact artifact.Artifact

	// Node is the matched graph node.
	Node Node

	// Distance is 0 for exact matches, 1 for partial/fuzzy matches, and
	// the path length for expansion matches. Never negative.
	Distance int

	// Path holds the traversal that reached the node. For direct matches
	// it contains just the node itself.
	Path Path

	// Strategy names the search strategy that produced the match.
	Strategy string
}

// NewMatchCandidate builds a candidate, clamping negative distances to
// zero and defaulting an empty path to the matched node alone.
func NewMatchCandidate(art artifact.Artifact, node Node, distance int, path Path, strategy string) MatchCandidate {
	if distance < 0 {
		distance = 0
	}
	if len(path.Nodes) == 0 {
		path = Path{Nodes: []Node{node}}
	}
	return MatchCandidate{
		Artifact: art,
		Node:     node,
		Distance: distance,
		Path:     path,
		Strategy: strategy,
	}
}
