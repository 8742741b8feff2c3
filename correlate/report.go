package correlate

import "fmt"

// Outcome indicates the quality of a correlation run, distinguishing
// "nothing matched" from "some strategies failed" without overloading
// the error return.
type Outcome string

const (
	// OutcomeComplete means every strategy ran and results were found.
	OutcomeComplete Outcome = "complete"

	// OutcomeDegraded means one or more strategies failed; the results
	// reflect only the evidence that could be gathered.
	OutcomeDegraded Outcome = "degraded"

	// OutcomeEmpty means the run completed but produced no results.
	OutcomeEmpty Outcome = "empty"
)

// IsValid returns true if the outcome is one of the defined values.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeComplete, OutcomeDegraded, OutcomeEmpty:
		return true
	default:
		return false
	}
}

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Report is the complete output of one correlation run. Data-level
// conditions (no artifacts, no matches) are reported here, never as an
// error.
type Report struct {
	// Results are the ranked attribution candidates, best first.
	Results []Result `json:"results"`

	// Evidence carries one structured record per result for the
	// narrative generator.
	Evidence []EvidenceRecord `json:"evidence,omitempty"`

	// Status is a human-readable summary of what happened.
	Status string `json:"status"`

	// Outcome is the machine-readable run quality.
	Outcome Outcome `json:"outcome"`

	// StrategyErrors counts strategy and resolve queries that failed
	// and were degraded to empty contributions.
	StrategyErrors int `json:"strategy_errors,omitempty"`
}

// buildReport assembles the report envelope around ranked results. The
// result list is never nil so callers and JSON consumers always see a
// list.
func buildReport(results []Result, evidence []EvidenceRecord, artifactCount, failures int) *Report {
	if results == nil {
		results = []Result{}
	}
	report := &Report{
		Results:        results,
		Evidence:       evidence,
		StrategyErrors: failures,
	}

	switch {
	case artifactCount == 0:
		report.Status = "no artifacts provided"
		report.Outcome = OutcomeEmpty
	case len(results) == 0:
		report.Status = fmt.Sprintf("no correlations found for %d artifact(s)", artifactCount)
		report.Outcome = OutcomeEmpty
	default:
		report.Status = fmt.Sprintf("correlated %d artifact(s) to %d candidate actor(s)",
			artifactCount, len(results))
		report.Outcome = OutcomeComplete
	}

	if failures > 0 {
		report.Status += fmt.Sprintf("; degraded: %d strategy quer%s failed",
			failures, pluralIES(failures))
		report.Outcome = OutcomeDegraded
	}
	return report
}

func pluralIES(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
