package correlate

import (
	"math"
	"sort"
	"strings"
)

// scoreResults turns aggregated evidence into ranked results.
//
// score = proximity*w1 + breadth*w2 + overlap*w3, then the provenance
// multiplier when incident-backed. Breadth is the dominant term: the
// fraction of distinct input values with a traceable connection to the
// actor. The ranking is deterministic: score descending, then actor
// name ascending case-insensitively.
func scoreResults(evidence map[string]*actorEvidence, distinctInputs int, opts Options) []Result {
	results := make([]Result, 0, len(evidence))
	for _, ev := range evidence {
		proximity := 1.0 / float64(1+ev.minDistance)

		breadth := 0.0
		if distinctInputs > 0 {
			breadth = float64(len(ev.matchedClues)) / float64(distinctInputs)
		}

		overlap := float64(len(ev.evidenceNodes)) / float64(opts.GetOverlapNormalizer())
		if overlap > 1 {
			overlap = 1
		}

		score := proximity*opts.GetProximityWeight() +
			breadth*opts.GetBreadthWeight() +
			overlap*opts.GetOverlapWeight()
		if ev.incidentBacked {
			score *= opts.GetProvenanceMultiplier()
		}

		percent := math.Round(score*1000) / 10
		if percent > 100 {
			percent = 100
		}

		results = append(results, Result{
			Actor:          ev.actor,
			ActorID:        ev.actorID,
			Score:          score,
			Percent:        percent,
			Band:           BandFor(percent),
			MinDistance:    ev.minDistance,
			MatchedClues:   sortedValues(ev.matchedClues),
			EvidenceNodes:  sortedKeys(ev.evidenceNodes),
			SamplePaths:    ev.samplePaths,
			IncidentBacked: ev.incidentBacked,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return strings.ToLower(results[i].Actor) < strings.ToLower(results[j].Actor)
	})

	if n := opts.GetTopN(); len(results) > n {
		results = results[:n]
	}
	return results
}

func sortedValues(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
