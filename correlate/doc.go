// Package correlate attributes a set of observed artifacts to candidate
// threat actors with explainable, scored confidence.
//
// A correlation request fans out into independent search strategies per
// artifact (exact, partial, indexed fuzzy, bounded graph expansion),
// executed by a bounded worker pool against a read-only graph store.
// Matched nodes are resolved to responsible actors through attribution
// and alias edges, evidence is aggregated per actor, and a weighted
// confidence model ranks the candidates. The output is a Report carrying
// ranked results plus structured evidence records for a downstream
// narrative generator.
//
// Basic usage:
//
//	c, err := correlate.New(store)
//	if err != nil {
//		return err
//	}
//	req := correlate.NewRequest(artifacts...).WithDepth(2).WithLooseness(30)
//	report, err := c.Correlate(ctx, req)
//
// Strategy failures degrade the report rather than failing it: a
// strategy that errors contributes no candidates, the failure is
// tallied in Report.StrategyErrors, and the Outcome drops to
// OutcomeDegraded. Only infrastructure-level failure (the store
// unreachable for every query) surfaces as an error.
package correlate
