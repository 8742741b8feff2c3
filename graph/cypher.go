package graph

import (
	"fmt"
	"strings"

	"github.com/zero-day-ai/threatgraph/schema"
)

// Column names returned by the builder queries.
const (
	ColID       = "id"
	ColName     = "name"
	ColLabels   = "labels"
	ColProps    = "props"
	ColSourceID = "source_id"
	ColActor    = "actor"
	ColActorID  = "actor_id"
)

// BuildContainment generates a case-insensitive bidirectional containment
// query for the adapter's label and property: rows match when the stored
// value contains the artifact value or the artifact value contains the
// stored value. The value is bound as $p0; label, property, and limit come
// from code, never from input.
//
// Example:
//
//	cypher, params := BuildContainment(schema.AdapterFor(artifact.TypeMalware), "emotet", 10)
//	// MATCH (n:Malware) WHERE ... CONTAINS toLower($p0) ... LIMIT 10
func BuildContainment(ad schema.Adapter, value string, limit int) (string, map[string]any) {
	prop := "n." + ad.Property()
	cypher := fmt.Sprintf(
		"MATCH (n:%s) WHERE %s IS NOT NULL AND (toLower(%s) CONTAINS toLower($p0) OR toLower($p0) CONTAINS toLower(%s)) "+
			"RETURN elementId(n) AS %s, %s AS %s, labels(n) AS %s, properties(n) AS %s LIMIT %d",
		ad.Label(), prop, prop, prop,
		ColID, prop, ColName, ColLabels, ColProps, limit,
	)
	return cypher, map[string]any{"p0": value}
}

// BuildExact generates a case-insensitive equality query for the adapter's
// label and property. Exact hits carry search distance zero.
func BuildExact(ad schema.Adapter, value string) (string, map[string]any) {
	prop := "n." + ad.Property()
	cypher := fmt.Sprintf(
		"MATCH (n:%s) WHERE toLower(%s) = toLower($p0) "+
			"RETURN elementId(n) AS %s, %s AS %s, labels(n) AS %s, properties(n) AS %s",
		ad.Label(), prop,
		ColID, prop, ColName, ColLabels, ColProps,
	)
	return cypher, map[string]any{"p0": value}
}

// BuildAttributionResolve generates the query that maps matched nodes to
// responsible actors through attribution, usage, and alias edges, bounded
// at two hops. Node IDs are bound as $p0.
//
// A row links one source node to one actor; a node that reaches no actor
// produces no rows.
func BuildAttributionResolve(nodeIDs []string) (string, map[string]any) {
	rels := append(schema.AttributionRelationships(), schema.RelAliasedAs)
	cypher := fmt.Sprintf(
		"MATCH (n) WHERE elementId(n) IN $p0 "+
			"MATCH (g:%s)-[:%s*1..2]-(n) "+
			"RETURN DISTINCT elementId(n) AS %s, g.name AS %s, elementId(g) AS %s",
		schema.LabelThreatGroup, relUnion(rels),
		ColSourceID, ColActor, ColActorID,
	)
	return cypher, map[string]any{"p0": nodeIDs}
}

// BuildIncidentChainResolve generates the query that maps matched nodes to
// actors through curated incident data: the actor is attributed to an
// incident or campaign whose attack flow or involved entities reach the
// node, bounded at three hops total. Node IDs are bound as $p0.
func BuildIncidentChainResolve(nodeIDs []string) (string, map[string]any) {
	cypher := fmt.Sprintf(
		"MATCH (n) WHERE elementId(n) IN $p0 "+
			"MATCH (g:%s)-[:%s]->(i) WHERE (i:%s OR i:%s) "+
			"MATCH (i)-[:%s*0..2]-(n) "+
			"RETURN DISTINCT elementId(n) AS %s, g.name AS %s, elementId(g) AS %s",
		schema.LabelThreatGroup, schema.RelAttributedTo,
		schema.LabelIncident, schema.LabelCampaign,
		relUnion(schema.IncidentChainRelationships()),
		ColSourceID, ColActor, ColActorID,
	)
	return cypher, map[string]any{"p0": nodeIDs}
}

// relUnion joins relationship types into the Cypher union form
// "A|B|C".
func relUnion(rels []schema.Relationship) string {
	parts := make([]string, len(rels))
	for i, r := range rels {
		parts[i] = string(r)
	}
	return strings.Join(parts, "|")
}

// NodeFromRecord builds a Node from a builder-query result row.
func NodeFromRecord(r Record) Node {
	return Node{
		ID:     r.String(ColID, ""),
		Name:   r.String(ColName, ""),
		Labels: r.Strings(ColLabels),
	}
}
