// Package disambig resolves ambiguous entity matches through an external
// collaborator. Grounding calls it only for the middle similarity band,
// where string distance alone cannot tell "Remcos" and "RemcosRAT" apart
// from "Remcos" and "Remshell".
//
// Callers must treat every error as "no match": the collaborator is
// advisory and must never block grounding.
package disambig

import "context"

// Candidate is one known entity offered to the resolver.
type Candidate struct {
	// ID is the graph element ID of the candidate node.
	ID string `json:"id"`

	// Name is the candidate's canonical value.
	Name string `json:"name"`
}

// Resolution is the collaborator's verdict on an ambiguous value.
type Resolution struct {
	// IsMatch reports whether the value refers to one of the candidates.
	IsMatch bool `json:"is_match"`

	// MatchedID is the ID of the confirmed candidate. Empty when
	// IsMatch is false.
	MatchedID string `json:"matched_id,omitempty"`

	// NormalizedName is the canonical name to adopt for the value.
	// Empty when IsMatch is false.
	NormalizedName string `json:"normalized_name,omitempty"`
}

// Resolver decides whether a value refers to one of the known candidates.
type Resolver interface {
	Resolve(ctx context.Context, value, typeName string, candidates []Candidate) (Resolution, error)
}
