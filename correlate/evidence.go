package correlate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EvidenceRecord is the structured hand-off payload for the downstream
// narrative generator. One record is built per reported actor; the
// generator is optional and the engine never blocks on it.
type EvidenceRecord struct {
	// ID is a unique identifier for the record.
	ID string `json:"id"`

	// Actor is the candidate actor's canonical name.
	Actor string `json:"actor"`

	// Percent is the clamped display confidence.
	Percent float64 `json:"percent"`

	// Band is the display confidence band.
	Band Band `json:"band"`

	// MatchedClues are the input values connected to the actor, sorted.
	MatchedClues []string `json:"matched_clues,omitempty"`

	// EvidenceNodes are shared intermediate nodes, sorted.
	EvidenceNodes []string `json:"evidence_nodes,omitempty"`

	// SamplePaths are rendered traversals, at most three.
	SamplePaths []string `json:"sample_paths,omitempty"`

	// IncidentBacked reports curated incident provenance.
	IncidentBacked bool `json:"incident_backed"`

	// GeneratedAt is when the record was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// buildEvidence creates one evidence record per ranked result.
func buildEvidence(results []Result) []EvidenceRecord {
	if len(results) == 0 {
		return nil
	}
	now := time.Now().UTC()
	out := make([]EvidenceRecord, 0, len(results))
	for _, res := range results {
		rec := EvidenceRecord{
			ID:             uuid.New().String(),
			Actor:          res.Actor,
			Percent:        res.Percent,
			Band:           res.Band,
			MatchedClues:   res.MatchedClues,
			EvidenceNodes:  res.EvidenceNodes,
			IncidentBacked: res.IncidentBacked,
			GeneratedAt:    now,
		}
		for i, p := range res.SamplePaths {
			if i >= maxSamplePaths {
				break
			}
			rec.SamplePaths = append(rec.SamplePaths, p.String())
		}
		out = append(out, rec)
	}
	return out
}

// Digest renders the record as a deterministic multi-line text block
// for prompt construction. The ID and timestamp are excluded so
// identical evidence always digests identically.
func (e EvidenceRecord) Digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Actor: %s\n", e.Actor)
	fmt.Fprintf(&b, "Confidence: %.1f%% (%s)\n", e.Percent, e.Band)
	if e.IncidentBacked {
		b.WriteString("Provenance: curated incident data\n")
	}
	if len(e.MatchedClues) > 0 {
		fmt.Fprintf(&b, "Matched artifacts: %s\n", strings.Join(e.MatchedClues, ", "))
	}
	if len(e.EvidenceNodes) > 0 {
		fmt.Fprintf(&b, "Shared evidence: %s\n", strings.Join(e.EvidenceNodes, ", "))
	}
	if len(e.SamplePaths) > 0 {
		b.WriteString("Paths:\n")
		for _, p := range e.SamplePaths {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	return b.String()
}
