// Package neo4jstore implements the graph.Store contract against a Neo4j
// server using the official v5 driver. The store is read-only: entity
// creation belongs to the ingestion pipeline, not the correlation engine.
package neo4jstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	gocache "github.com/patrickmn/go-cache"

	"github.com/zero-day-ai/threatgraph/graph"
	"github.com/zero-day-ai/threatgraph/schema"
)

const indexCacheKey = "fulltext_indexes"

// Store is a graph.Store backed by a Neo4j driver. Safe for concurrent
// use; the driver manages its own connection pool.
type Store struct {
	driver       neo4j.DriverWithContext
	database     string
	queryTimeout time.Duration
	indexes      *gocache.Cache
	log          *slog.Logger
}

var _ graph.Store = (*Store)(nil)

// Open connects to Neo4j, verifies connectivity, and returns a ready
// store. The caller owns the store and must Close it.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid neo4j config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.ConnectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init neo4j driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", classify(err))
	}

	log.Info("connected to neo4j",
		slog.String("uri", cfg.URI),
		slog.String("database", cfg.Database))

	return &Store{
		driver:       driver,
		database:     cfg.Database,
		queryTimeout: cfg.QueryTimeout,
		indexes:      gocache.New(cfg.IndexCacheTTL, 2*cfg.IndexCacheTTL),
		log:          log.With(slog.String("component", "neo4jstore")),
	}, nil
}

// Query executes a read-only Cypher query and returns one Record per row.
func (s *Store) Query(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	var out []graph.Record
	err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return err
		}
		for result.Next(ctx) {
			out = append(out, recordToMap(result.Record()))
		}
		return result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", classify(err))
	}
	return out, nil
}

// FulltextLookup searches a fulltext index with per-token Lucene fuzzy
// terms and returns rows ranked by index score. Result records carry the
// same id/name/labels/props columns as the builder queries.
func (s *Store) FulltextLookup(ctx context.Context, index, text string, limit int) ([]graph.ScoredRecord, error) {
	if strings.TrimSpace(index) == "" {
		return nil, graph.ErrNoFulltextIndex
	}
	term := fuzzyTerm(text)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	cypher := "CALL db.index.fulltext.queryNodes($index, $term) YIELD node, score " +
		"RETURN elementId(node) AS id, labels(node) AS labels, properties(node) AS props, score " +
		"ORDER BY score DESC LIMIT $limit"
	params := map[string]any{"index": index, "term": term, "limit": limit}

	var out []graph.ScoredRecord
	err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return err
		}
		for result.Next(ctx) {
			rec := recordToMap(result.Record())
			rec[graph.ColName] = schema.DisplayName(rec.Map(graph.ColProps))
			out = append(out, graph.ScoredRecord{
				Record: rec,
				Score:  rec.Float("score", 0),
			})
		}
		return result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run fulltext lookup on %s: %w", index, classify(err))
	}
	return out, nil
}

// Expand runs a bounded traversal from the seed nodes using
// apoc.path.expandConfig. The filters walk edges in both directions
// because attribution and usage edges point from the actor outward.
func (s *Store) Expand(ctx context.Context, spec graph.ExpandSpec) ([]graph.Path, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid expand spec: %w", err)
	}

	cypher := "UNWIND $seed_ids AS seed_id " +
		"MATCH (start) WHERE elementId(start) = seed_id " +
		"CALL apoc.path.expandConfig(start, {" +
		"relationshipFilter: $rel_filter, " +
		"labelFilter: $label_filter, " +
		"minLevel: $min_level, " +
		"maxLevel: $max_level, " +
		"limit: $path_limit" +
		"}) YIELD path " +
		"RETURN path"
	params := map[string]any{
		"seed_ids":     spec.SeedIDs,
		"rel_filter":   relationshipFilter(spec.Relationships),
		"label_filter": labelFilter(spec.Labels),
		"min_level":    spec.MinLevel,
		"max_level":    spec.MaxLevel,
		"path_limit":   spec.Limit,
	}

	var out []graph.Path
	err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return err
		}
		for result.Next(ctx) {
			val, ok := result.Record().Get("path")
			if !ok {
				continue
			}
			if p, ok := val.(neo4j.Path); ok {
				out = append(out, pathFromDriver(p))
			}
		}
		return result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expand from %d seed(s): %w", len(spec.SeedIDs), classify(err))
	}

	s.log.Debug("expansion complete",
		slog.Int("seeds", len(spec.SeedIDs)),
		slog.Int("paths", len(out)))
	return out, nil
}

// ListFulltextIndexes reports the server's fulltext indexes. Results are
// cached for the configured TTL since index DDL is rare.
func (s *Store) ListFulltextIndexes(ctx context.Context) ([]graph.IndexDescriptor, error) {
	if cached, ok := s.indexes.Get(indexCacheKey); ok {
		return cached.([]graph.IndexDescriptor), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	// SHOW commands are rejected inside explicit transactions, so this
	// bypasses ExecuteRead and uses an auto-commit run.
	result, err := session.Run(ctx, "SHOW FULLTEXT INDEXES YIELD name, labelsOrTypes, properties", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list fulltext indexes: %w", classify(err))
	}

	out := make([]graph.IndexDescriptor, 0, 4)
	for result.Next(ctx) {
		rec := recordToMap(result.Record())
		desc := graph.IndexDescriptor{
			Name:       rec.String("name", ""),
			Labels:     rec.Strings("labelsOrTypes"),
			Properties: rec.Strings("properties"),
		}
		if desc.Name != "" {
			out = append(out, desc)
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to list fulltext indexes: %w", classify(err))
	}

	s.indexes.Set(indexCacheKey, out, gocache.DefaultExpiration)
	return out, nil
}

// Verify checks connectivity to the server.
func (s *Store) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify neo4j connectivity: %w", classify(err))
	}
	return nil
}

// Close releases the driver's connection pool.
func (s *Store) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.driver.Close(ctx)
}

// read runs work inside a managed read transaction bounded by the query
// timeout.
func (s *Store) read(ctx context.Context, work func(context.Context, neo4j.ManagedTransaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(ctx, tx)
	})
	return err
}

// recordToMap flattens a driver record into the engine's column map.
func recordToMap(rec *neo4j.Record) graph.Record {
	out := make(graph.Record, len(rec.Keys))
	for i, key := range rec.Keys {
		if i < len(rec.Values) {
			out[key] = rec.Values[i]
		}
	}
	return out
}

// pathFromDriver converts a driver path into the engine's representation,
// resolving display names across the mixed labels a traversal returns.
func pathFromDriver(p neo4j.Path) graph.Path {
	out := graph.Path{
		Nodes:         make([]graph.Node, 0, len(p.Nodes)),
		Relationships: make([]string, 0, len(p.Relationships)),
	}
	for _, n := range p.Nodes {
		out.Nodes = append(out.Nodes, graph.Node{
			ID:     n.ElementId,
			Name:   schema.DisplayName(n.Props),
			Labels: n.Labels,
		})
	}
	for _, r := range p.Relationships {
		out.Relationships = append(out.Relationships, r.Type)
	}
	return out
}

// relationshipFilter renders the apoc relationshipFilter union, e.g.
// "USES|INDICATES|EXPLOITS". No direction markers: traversal must walk
// edges both ways.
func relationshipFilter(rels []schema.Relationship) string {
	parts := make([]string, len(rels))
	for i, r := range rels {
		parts[i] = string(r)
	}
	return strings.Join(parts, "|")
}

// labelFilter renders the apoc whitelist labelFilter, e.g.
// "+ThreatGroup|+Malware".
func labelFilter(labels []schema.Label) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = "+" + string(l)
	}
	return strings.Join(parts, "|")
}

// luceneSpecials are the characters Lucene query syntax reserves.
const luceneSpecials = `+-!(){}[]^"~*?:\/&|`

// fuzzyTerm builds the Lucene query for an approximate lookup: each
// whitespace-separated token is escaped and given a fuzzy ~ suffix.
func fuzzyTerm(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		var b strings.Builder
		for _, r := range f {
			if strings.ContainsRune(luceneSpecials, r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('~')
		terms = append(terms, b.String())
	}
	return strings.Join(terms, " ")
}

// classify maps driver failures onto the graph package's error classes so
// callers can branch with errors.Is without importing the driver.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	case neo4j.IsConnectivityError(err):
		return fmt.Errorf("%w: %w", graph.ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", graph.ErrQueryFailed, err)
	}
}
