package correlate

import (
	"fmt"

	"github.com/zero-day-ai/threatgraph/graph"
)

// Result is one ranked attribution candidate. Results are immutable
// once returned; a fresh slice is built per request.
type Result struct {
	// Actor is the candidate threat actor's canonical name.
	Actor string `json:"actor"`

	// ActorID is the store's element ID for the actor node, when known.
	ActorID string `json:"actor_id,omitempty"`

	// Score is the raw weighted confidence, >= 0.
	Score float64 `json:"score"`

	// Percent is the display confidence, always clamped to [0,100].
	Percent float64 `json:"percent"`

	// Band groups the percent into High/Medium/Low for display. It
	// never affects ranking.
	Band Band `json:"band"`

	// MinDistance is the shortest observed graph distance from any
	// input artifact to this actor, resolution hops included.
	MinDistance int `json:"min_distance"`

	// MatchedClues are the distinct input artifact values with a
	// traceable connection to this actor, sorted.
	MatchedClues []string `json:"matched_clues,omitempty"`

	// EvidenceNodes are non-input intermediate nodes shared between the
	// inputs and the actor, sorted.
	EvidenceNodes []string `json:"evidence_nodes,omitempty"`

	// SamplePaths are representative traversals backing the
	// attribution.
	SamplePaths []graph.Path `json:"sample_paths,omitempty"`

	// IncidentBacked reports that some evidence traverses curated
	// incident data rather than inferred static intelligence.
	IncidentBacked bool `json:"incident_backed"`
}

// Band represents the display confidence band of a correlation result.
type Band string

const (
	// BandHigh indicates strong corroborated attribution.
	BandHigh Band = "high"

	// BandMedium indicates plausible attribution needing review.
	BandMedium Band = "medium"

	// BandLow indicates weak or single-signal attribution.
	BandLow Band = "low"
)

// Percent floors for the confidence bands.
const (
	highBandFloor   = 75.0
	mediumBandFloor = 40.0
)

// IsValid returns true if the band is one of the defined values.
func (b Band) IsValid() bool {
	switch b {
	case BandHigh, BandMedium, BandLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the band.
func (b Band) String() string {
	return string(b)
}

// ParseBand parses a string into a Band value.
// Returns an error if the string is not a valid band.
func ParseBand(s string) (Band, error) {
	band := Band(s)
	if !band.IsValid() {
		return "", fmt.Errorf("invalid band: %s", s)
	}
	return band, nil
}

// BandFor maps a clamped percent onto its confidence band.
func BandFor(percent float64) Band {
	switch {
	case percent >= highBandFloor:
		return BandHigh
	case percent >= mediumBandFloor:
		return BandMedium
	default:
		return BandLow
	}
}

// AllBands returns all bands in order from high to low.
func AllBands() []Band {
	return []Band{BandHigh, BandMedium, BandLow}
}
