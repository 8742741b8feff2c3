package correlate

import (
	"fmt"

	"github.com/zero-day-ai/threatgraph/artifact"
)

// Depth bounds for graph expansion.
const (
	MinDepth = 1
	MaxDepth = 3
)

// Looseness bounds. Looseness widens the search from exact-only toward
// broad fuzzy and expansion matching.
const (
	MinLooseness = 0
	MaxLooseness = 100
)

// Request describes one correlation run with fluent builder pattern.
type Request struct {
	// Artifacts are the observed values to correlate. An empty list is a
	// valid request that yields an empty report.
	Artifacts []artifact.Artifact `json:"artifacts"`

	// Depth is the maximum expansion depth, 1..3.
	Depth int `json:"depth"`

	// Looseness widens matching, 0..100. Below the fuzzy cutoff only
	// exact/partial/expansion strategies run.
	Looseness int `json:"looseness"`

	// IncludeIncidents admits incident-class nodes into expansion and
	// enables attribution through curated incident chains.
	IncludeIncidents bool `json:"include_incidents"`
}

// NewRequest creates a Request with the given artifacts and sensible
// defaults.
// Default values:
//   - Depth: 2
//   - Looseness: 30
//   - IncludeIncidents: false
func NewRequest(artifacts ...artifact.Artifact) *Request {
	return &Request{
		Artifacts: artifacts,
		Depth:     2,
		Looseness: 30,
	}
}

// WithDepth sets the maximum expansion depth.
// Returns the Request for method chaining.
func (r *Request) WithDepth(depth int) *Request {
	r.Depth = depth
	return r
}

// WithLooseness sets the search looseness.
// Returns the Request for method chaining.
func (r *Request) WithLooseness(looseness int) *Request {
	r.Looseness = looseness
	return r
}

// WithIncidents sets whether incident-class data participates in
// correlation.
// Returns the Request for method chaining.
func (r *Request) WithIncidents(include bool) *Request {
	r.IncludeIncidents = include
	return r
}

// Validate returns an error if the request parameters are out of range.
// An empty artifact list is not an error; it is reported through the
// Report status instead.
func (r *Request) Validate() error {
	if r.Depth < MinDepth || r.Depth > MaxDepth {
		return fmt.Errorf("depth %d out of range [%d,%d]", r.Depth, MinDepth, MaxDepth)
	}
	if r.Looseness < MinLooseness || r.Looseness > MaxLooseness {
		return fmt.Errorf("looseness %d out of range [%d,%d]", r.Looseness, MinLooseness, MaxLooseness)
	}
	return nil
}
