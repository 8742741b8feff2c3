package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/zero-day-ai/threatgraph/schema"
)

// Sentinel errors for store failure classes. Wrap these with fmt.Errorf
// so errors.Is() works through implementation-specific detail.
var (
	// ErrNoFulltextIndex is returned by lookups that require a fulltext
	// index when the store has none configured.
	ErrNoFulltextIndex = errors.New("graph: no fulltext index available")

	// ErrUnavailable indicates the store could not be reached. Callers
	// may retry operations that fail with this error.
	ErrUnavailable = errors.New("graph: store unavailable")

	// ErrQueryFailed indicates the store rejected or could not execute a
	// query. Retrying without changing the query will not help.
	ErrQueryFailed = errors.New("graph: query failed")
)

// IsTransient reports whether an error is worth retrying: connectivity
// loss and deadline expiry pass, query and validation failures do not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

// Store is the read-only graph access contract the engine depends on.
// Implementations must be safe for concurrent use; the engine runs
// independent strategy queries in parallel against one shared store.
type Store interface {
	// Query executes a parameterized read-only Cypher query and returns
	// one Record per result row. An empty slice with a nil error means
	// the query ran and matched nothing, which is distinct from failure.
	Query(ctx context.Context, cypher string, params map[string]any) ([]Record, error)

	// FulltextLookup runs an approximate search against a fulltext index
	// and returns candidates ranked by index score, best first.
	FulltextLookup(ctx context.Context, index, text string, limit int) ([]ScoredRecord, error)

	// Expand performs a bounded multi-hop traversal from the given seed
	// nodes, restricted by the ExpandSpec relationship and label
	// allowlists.
	Expand(ctx context.Context, spec ExpandSpec) ([]Path, error)

	// ListFulltextIndexes reports the fulltext indexes available on the
	// store. Callers use this to decide whether indexed-fuzzy search is
	// possible at all.
	ListFulltextIndexes(ctx context.Context) ([]IndexDescriptor, error)

	// Verify checks that the store is reachable.
	Verify(ctx context.Context) error

	// Close releases the underlying connection resources.
	Close(ctx context.Context) error
}

// ScoredRecord pairs a result row with its index ranking score.
type ScoredRecord struct {
	Record Record
	Score  float64
}

// IndexDescriptor describes one fulltext index on the store.
type IndexDescriptor struct {
	// Name is the index name used in lookup calls.
	Name string

	// Labels are the node labels the index covers.
	Labels []string

	// Properties are the indexed property names.
	Properties []string
}

// CoversLabel reports whether the index covers the given label.
func (d IndexDescriptor) CoversLabel(label schema.Label) bool {
	for _, l := range d.Labels {
		if l == string(label) {
			return true
		}
	}
	return false
}

// ExpandSpec bounds one traversal issued through Store.Expand.
type ExpandSpec struct {
	// SeedIDs are the element IDs of the nodes to expand from.
	SeedIDs []string

	// Relationships is the relationship-type allowlist.
	Relationships []schema.Relationship

	// Labels is the node-label allowlist.
	Labels []schema.Label

	// MinLevel is the minimum path length to report, normally 1 so seeds
	// themselves are not returned.
	MinLevel int

	// MaxLevel is the maximum path length to traverse.
	MaxLevel int

	// Limit caps the number of explored paths.
	Limit int
}

// Validate checks the traversal bounds before they reach the store.
func (s ExpandSpec) Validate() error {
	if len(s.SeedIDs) == 0 {
		return fmt.Errorf("expand spec requires at least one seed node")
	}
	if len(s.Relationships) == 0 {
		return fmt.Errorf("expand spec requires a relationship allowlist")
	}
	if len(s.Labels) == 0 {
		return fmt.Errorf("expand spec requires a label allowlist")
	}
	if s.MinLevel < 0 {
		return fmt.Errorf("expand spec min level must be >= 0, got %d", s.MinLevel)
	}
	if s.MaxLevel < s.MinLevel {
		return fmt.Errorf("expand spec max level %d below min level %d", s.MaxLevel, s.MinLevel)
	}
	if s.Limit <= 0 {
		return fmt.Errorf("expand spec requires a positive path limit, got %d", s.Limit)
	}
	return nil
}
