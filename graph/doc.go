// Package graph defines the read-only contract between the engine and the
// property-graph store, plus the Cypher builders that generate its queries.
//
// The engine never owns graph data. It consumes an injected Store with an
// explicit lifecycle (construct, Verify, use, Close) and issues only
// parameterized read queries; entity creation belongs to the ingestion
// pipeline. Implementations live elsewhere (see graph/neo4jstore) or in
// caller test doubles.
//
// Query builders return a Cypher string plus a parameter map. Values are
// always bound as $p0, $p1, ... parameters, never interpolated into the
// query text.
package graph
