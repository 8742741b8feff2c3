// Package similarity scores how alike two strings are on a [0,1] scale.
//
// The same scorer backs both entity grounding (artifact vs. stored
// candidate) and attribution evidence matching, so the two paths can never
// disagree about what "close" means. Comparison is case-insensitive and
// exact case-insensitive equality always scores exactly 1.0, independent of
// the underlying ratio algorithm.
package similarity

import "strings"

// Ratio returns the similarity of a and b in [0,1]. Equal strings
// (ignoring case) score exactly 1.0. Otherwise the score is the normalized
// longest-common-subsequence ratio 2*lcs/(len(a)+len(b)), the sequence
// ratio family used by classic diff tooling.
func Ratio(a, b string) float64 {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	if la == lb {
		return 1.0
	}
	if la == "" || lb == "" {
		return 0.0
	}

	ra := []rune(la)
	rb := []rune(lb)
	lcs := lcsLength(ra, rb)
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}

// lcsLength computes the longest common subsequence length with two
// rolling rows, keeping memory linear in the shorter input.
func lcsLength(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Memo caches similarity scores for the duration of one request. The same
// candidate names recur across strategies and artifacts, so a request-scoped
// cache avoids recomputing identical pairs. A Memo is not safe for
// concurrent use; create one per request, after query results are joined.
type Memo struct {
	scores map[memoKey]float64
}

type memoKey struct {
	a, b string
}

// NewMemo creates an empty request-scoped similarity cache.
func NewMemo() *Memo {
	return &Memo{scores: make(map[memoKey]float64)}
}

// Ratio returns the cached similarity of a and b, computing and storing it
// on first use. Scores are keyed order-independently since Ratio is
// symmetric.
func (m *Memo) Ratio(a, b string) float64 {
	key := memoKey{a: strings.ToLower(a), b: strings.ToLower(b)}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	if score, ok := m.scores[key]; ok {
		return score
	}
	score := Ratio(a, b)
	m.scores[key] = score
	return score
}

// Size returns the number of cached pairs.
func (m *Memo) Size() int {
	return len(m.scores)
}
