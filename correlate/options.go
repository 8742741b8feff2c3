package correlate

import (
	"fmt"
	"math"
	"time"
)

// Options tunes correlation behavior. The zero value is usable; every
// accessor substitutes the documented default.
type Options struct {
	// Concurrency is the number of worker goroutines executing search
	// strategies. Size it to the store's connection limit. Default: 4.
	Concurrency int

	// StoreTimeout bounds each individual strategy query. Default: 15s.
	StoreTimeout time.Duration

	// FuzzyCutoff is the minimum looseness at which the indexed fuzzy
	// strategy runs. Default: 20.
	FuzzyCutoff int

	// PartialLimit caps the rows returned by the partial containment
	// strategy per artifact. Default: 25.
	PartialLimit int

	// FuzzyLimit caps the rows returned by the indexed fuzzy strategy
	// per artifact. Default: 10.
	FuzzyLimit int

	// PathLimit caps the paths explored by one expansion call.
	// Default: 200.
	PathLimit int

	// TopN caps the ranked results in the report. Default: 15.
	TopN int

	// ProximityWeight scales the proximity term. Default: 0.2.
	ProximityWeight float64

	// BreadthWeight scales the breadth term, the dominant signal.
	// Default: 0.6.
	BreadthWeight float64

	// OverlapWeight scales the shared-evidence term. Default: 0.2.
	OverlapWeight float64

	// OverlapNormalizer is the shared-evidence count treated as full
	// overlap. Default: 10.
	OverlapNormalizer int

	// ProvenanceMultiplier is the bonus applied when evidence traverses
	// curated incident data. Default: 1.15.
	ProvenanceMultiplier float64

	// HopPenalty is the distance added when a matched node reaches an
	// actor through resolution edges rather than being one. Default: 1.
	HopPenalty int
}

// GetConcurrency returns the configured worker count or the default.
func (o Options) GetConcurrency() int {
	if o.Concurrency <= 0 {
		return 4
	}
	return o.Concurrency
}

// GetStoreTimeout returns the configured store timeout or the default.
func (o Options) GetStoreTimeout() time.Duration {
	if o.StoreTimeout <= 0 {
		return 15 * time.Second
	}
	return o.StoreTimeout
}

// GetFuzzyCutoff returns the configured fuzzy looseness cutoff or the default.
func (o Options) GetFuzzyCutoff() int {
	if o.FuzzyCutoff <= 0 {
		return 20
	}
	return o.FuzzyCutoff
}

// GetPartialLimit returns the configured partial row cap or the default.
func (o Options) GetPartialLimit() int {
	if o.PartialLimit <= 0 {
		return 25
	}
	return o.PartialLimit
}

// GetFuzzyLimit returns the configured fuzzy row cap or the default.
func (o Options) GetFuzzyLimit() int {
	if o.FuzzyLimit <= 0 {
		return 10
	}
	return o.FuzzyLimit
}

// GetPathLimit returns the configured expansion path cap or the default.
func (o Options) GetPathLimit() int {
	if o.PathLimit <= 0 {
		return 200
	}
	return o.PathLimit
}

// GetTopN returns the configured result cap or the default.
func (o Options) GetTopN() int {
	if o.TopN <= 0 {
		return 15
	}
	return o.TopN
}

// GetProximityWeight returns the configured proximity weight or the default.
func (o Options) GetProximityWeight() float64 {
	if o.ProximityWeight <= 0 {
		return 0.2
	}
	return o.ProximityWeight
}

// GetBreadthWeight returns the configured breadth weight or the default.
func (o Options) GetBreadthWeight() float64 {
	if o.BreadthWeight <= 0 {
		return 0.6
	}
	return o.BreadthWeight
}

// GetOverlapWeight returns the configured overlap weight or the default.
func (o Options) GetOverlapWeight() float64 {
	if o.OverlapWeight <= 0 {
		return 0.2
	}
	return o.OverlapWeight
}

// GetOverlapNormalizer returns the configured overlap normalizer or the default.
func (o Options) GetOverlapNormalizer() int {
	if o.OverlapNormalizer <= 0 {
		return 10
	}
	return o.OverlapNormalizer
}

// GetProvenanceMultiplier returns the configured provenance bonus or the default.
func (o Options) GetProvenanceMultiplier() float64 {
	if o.ProvenanceMultiplier < 1 {
		return 1.15
	}
	return o.ProvenanceMultiplier
}

// GetHopPenalty returns the configured resolution hop penalty or the default.
func (o Options) GetHopPenalty() int {
	if o.HopPenalty <= 0 {
		return 1
	}
	return o.HopPenalty
}

// Validate rejects weight combinations that would break the confidence
// model's [0,1] pre-multiplier range.
func (o Options) Validate() error {
	sum := o.GetProximityWeight() + o.GetBreadthWeight() + o.GetOverlapWeight()
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("confidence weights sum to %.3f, want 1.0", sum)
	}
	return nil
}
