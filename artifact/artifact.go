package artifact

import "strings"

// Artifact is a single piece of evidence submitted for grounding or
// correlation. RawValue preserves the value exactly as supplied;
// CleanedValue holds the normalized form used for all matching.
// Artifacts live only for the duration of a request and are never
// persisted by this library.
type Artifact struct {
	// Type classifies the artifact.
	Type Type `json:"type"`

	// RawValue is the value as originally supplied.
	RawValue string `json:"raw_value"`

	// CleanedValue is the normalized value. Empty until Normalize has run.
	CleanedValue string `json:"cleaned_value,omitempty"`
}

// New creates a normalized artifact from a raw value. It returns the first
// artifact produced by Normalize, which is the whole cleaned value when the
// input is a composite. Returns a zero Artifact and false when the value is
// rejected as noise.
func New(typ Type, raw string) (Artifact, bool) {
	arts := Normalize(raw, typ)
	if len(arts) == 0 {
		return Artifact{}, false
	}
	return arts[0], true
}

// Value returns the cleaned value when set, falling back to the raw value.
func (a Artifact) Value() string {
	if a.CleanedValue != "" {
		return a.CleanedValue
	}
	return a.RawValue
}

// Key returns a deduplication key for the artifact, combining type and
// case-folded cleaned value.
func (a Artifact) Key() string {
	return string(a.Type) + "|" + strings.ToLower(a.Value())
}

// DistinctValues returns the deduplicated cleaned values of the given
// artifacts, preserving first-seen order. Comparison is case-insensitive.
// This is the denominator set for breadth scoring: submitting the same
// value twice must not change any score.
func DistinctValues(arts []Artifact) []string {
	seen := make(map[string]bool, len(arts))
	out := make([]string, 0, len(arts))
	for _, a := range arts {
		v := a.Value()
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
