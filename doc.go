// Package threatgraph provides entity grounding and threat correlation
// over a cyber threat intelligence knowledge graph.
//
// The engine answers two questions for a CTI platform: "is this raw
// artifact value an entity we already know?" (grounding) and "which
// threat actors are plausibly connected to this set of artifacts?"
// (correlation and attribution).
//
// # Core Concepts
//
// The engine is organized around several key concepts:
//
//   - Artifacts: raw observable values (IPs, domains, hashes, malware
//     and threat group names) extracted from intelligence text
//   - Grounding: normalizing an artifact and resolving it to an
//     existing graph entity, a new entity, or a disambiguated match
//   - Correlation: fanning out independent search strategies per
//     artifact and walking the graph from the matches
//   - Attribution: resolving matched nodes to responsible threat
//     actors through attribution, usage, and curated incident edges
//   - Confidence: a weighted blend of match proximity, input breadth,
//     and shared evidence, reported as a score, a percent, and a band
//
// # Getting Started
//
// Open a store, build an engine, and correlate:
//
//	import (
//	    "github.com/zero-day-ai/threatgraph"
//	    "github.com/zero-day-ai/threatgraph/artifact"
//	    "github.com/zero-day-ai/threatgraph/correlate"
//	    "github.com/zero-day-ai/threatgraph/graph/neo4jstore"
//	)
//
//	store, err := neo4jstore.Open(ctx, neo4jstore.ConfigFromEnv(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := threatgraph.New(store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close(context.Background())
//
//	report, err := engine.Correlate(ctx, correlate.NewRequest(
//	    artifact.Artifact{Type: artifact.TypeIP, RawValue: "1.2.3[.]4"},
//	    artifact.Artifact{Type: artifact.TypeMalware, RawValue: "Emotet"},
//	).WithDepth(2).WithLooseness(30))
//
// # Error Handling
//
// Data-level conditions are never errors: an empty artifact list or a
// search with no matches comes back in the Report's Status and
// Outcome. Errors mean cancellation, invalid input, or infrastructure
// failure, and carry a structured kind:
//
//	if err != nil {
//	    var tgErr *threatgraph.Error
//	    if errors.As(err, &tgErr) && tgErr.Kind == threatgraph.KindUnavailable {
//	        // Back off and retry.
//	    }
//	}
//
// # Observability
//
// The engine integrates OpenTelemetry for distributed tracing and
// metrics. Providers are injected through options and default to the
// global providers:
//
//	engine, err := threatgraph.New(store,
//	    threatgraph.WithTracerProvider(tp),
//	    threatgraph.WithMeterProvider(mp),
//	)
//
// # Thread Safety
//
// All engine methods are safe for concurrent use. Per-request state
// never outlives the call, so one engine serves many goroutines.
//
// # Examples
//
// See the examples directory for complete working examples of
// grounding a batch of extracted artifacts, correlating indicators to
// actors, and routing results through triage rules.
package threatgraph
