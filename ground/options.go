package ground

import (
	"fmt"
	"time"
)

// Options tunes grounding behavior. The zero value is usable; every
// accessor substitutes the documented default.
type Options struct {
	// AcceptThreshold is the similarity at or above which the best
	// candidate is accepted without disambiguation. Default: 0.9.
	AcceptThreshold float64

	// AmbiguousThreshold is the similarity at or above which the best
	// candidate is worth a disambiguation call. Below it the value is
	// new. Default: 0.6.
	AmbiguousThreshold float64

	// CandidateLimit caps the candidates fetched per value. Default: 10.
	CandidateLimit int

	// RetryAttempts is the number of tries for transient store
	// failures. Default: 3.
	RetryAttempts int

	// RetryBackoff is the delay before the second attempt; it doubles
	// after each failure. Default: 250ms.
	RetryBackoff time.Duration

	// StoreTimeout bounds each candidate query. Default: 15s.
	StoreTimeout time.Duration

	// DisambigTimeout bounds each disambiguation call. Default: 20s.
	DisambigTimeout time.Duration

	// CacheTTL is how long grounding decisions stay cached. Default: 15m.
	CacheTTL time.Duration
}

// GetAcceptThreshold returns the configured accept threshold or the default.
func (o Options) GetAcceptThreshold() float64 {
	if o.AcceptThreshold <= 0 || o.AcceptThreshold > 1 {
		return 0.9
	}
	return o.AcceptThreshold
}

// GetAmbiguousThreshold returns the configured ambiguous threshold or the default.
func (o Options) GetAmbiguousThreshold() float64 {
	if o.AmbiguousThreshold <= 0 || o.AmbiguousThreshold > 1 {
		return 0.6
	}
	return o.AmbiguousThreshold
}

// GetCandidateLimit returns the configured candidate cap or the default.
func (o Options) GetCandidateLimit() int {
	if o.CandidateLimit <= 0 {
		return 10
	}
	return o.CandidateLimit
}

// GetRetryAttempts returns the configured attempt count or the default.
func (o Options) GetRetryAttempts() int {
	if o.RetryAttempts <= 0 {
		return 3
	}
	return o.RetryAttempts
}

// GetRetryBackoff returns the configured backoff or the default.
func (o Options) GetRetryBackoff() time.Duration {
	if o.RetryBackoff <= 0 {
		return 250 * time.Millisecond
	}
	return o.RetryBackoff
}

// GetStoreTimeout returns the configured store timeout or the default.
func (o Options) GetStoreTimeout() time.Duration {
	if o.StoreTimeout <= 0 {
		return 15 * time.Second
	}
	return o.StoreTimeout
}

// GetDisambigTimeout returns the configured disambiguation timeout or the default.
func (o Options) GetDisambigTimeout() time.Duration {
	if o.DisambigTimeout <= 0 {
		return 20 * time.Second
	}
	return o.DisambigTimeout
}

// GetCacheTTL returns the configured cache TTL or the default.
func (o Options) GetCacheTTL() time.Duration {
	if o.CacheTTL <= 0 {
		return 15 * time.Minute
	}
	return o.CacheTTL
}

// Validate rejects threshold orderings that would make the decision
// tiers overlap or invert.
func (o Options) Validate() error {
	accept := o.GetAcceptThreshold()
	ambiguous := o.GetAmbiguousThreshold()
	if ambiguous > accept {
		return fmt.Errorf("ambiguous threshold %.2f exceeds accept threshold %.2f", ambiguous, accept)
	}
	return nil
}
