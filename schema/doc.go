// Package schema fixes the graph ontology the engine assumes: node labels,
// relationship types, and the allowlists that bound traversal.
//
// The property graph is populated by an external ingestion pipeline; this
// package is the single place where its vocabulary is spelled out. Search
// and expansion never enumerate node properties at query time. Instead,
// each artifact type resolves at construction to an Adapter that knows the
// canonical label and comparable property for that kind of value:
//
//	ad := schema.AdapterFor(artifact.TypeVulnerability)
//	ad.Label()    // schema.LabelVulnerability
//	ad.Property() // "cve_id"
//
// Expansion allowlists keep bounded traversals on intelligence-bearing
// edges and labels only. Incident-class labels are excluded from expansion
// when a caller disables incident inclusion.
package schema
