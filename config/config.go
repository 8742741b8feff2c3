// Package config provides loading and parsing of threatgraph.yaml
// configuration files. One file carries the store connection, the
// grounding and correlation tunables, and the optional cache and
// disambiguation collaborators.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/threatgraph/cache"
	"github.com/zero-day-ai/threatgraph/correlate"
	"github.com/zero-day-ai/threatgraph/disambig"
	"github.com/zero-day-ai/threatgraph/graph/neo4jstore"
	"github.com/zero-day-ai/threatgraph/ground"
)

// Config represents a threatgraph.yaml configuration file. Every
// section is optional; a nil section means defaults throughout.
type Config struct {
	// Neo4j holds the graph store connection settings.
	Neo4j *Neo4jConfig `yaml:"neo4j,omitempty"`

	// Grounding tunes the entity grounding resolver.
	Grounding *GroundingConfig `yaml:"grounding,omitempty"`

	// Correlation tunes the correlation engine.
	Correlation *CorrelationConfig `yaml:"correlation,omitempty"`

	// Cache configures the grounding decision cache.
	Cache *CacheConfig `yaml:"cache,omitempty"`

	// Disambiguation configures the LLM disambiguation collaborator.
	Disambiguation *DisambigConfig `yaml:"disambiguation,omitempty"`
}

// Neo4jConfig mirrors neo4jstore.Config with yaml tags. Durations are
// Go duration strings (e.g., "15s", "1m").
type Neo4jConfig struct {
	URI         string `yaml:"uri"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	Database    string `yaml:"database,omitempty"`
	MaxPoolSize int    `yaml:"max_pool_size,omitempty"`

	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
	QueryTimeout   string `yaml:"query_timeout,omitempty"`
	IndexCacheTTL  string `yaml:"index_cache_ttl,omitempty"`
}

// StoreConfig converts the section into the store's config. A nil
// section yields the zero config, which fails store validation for the
// missing URI; environment-based construction covers that path.
func (n *Neo4jConfig) StoreConfig() neo4jstore.Config {
	if n == nil {
		return neo4jstore.Config{}
	}
	return neo4jstore.Config{
		URI:            n.URI,
		Username:       n.Username,
		Password:       n.Password,
		Database:       n.Database,
		MaxPoolSize:    n.MaxPoolSize,
		ConnectTimeout: durationOr(n.ConnectTimeout, 0),
		QueryTimeout:   durationOr(n.QueryTimeout, 0),
		IndexCacheTTL:  durationOr(n.IndexCacheTTL, 0),
	}
}

// GroundingConfig tunes grounding. Zero values defer to the resolver's
// documented defaults.
type GroundingConfig struct {
	// AcceptThreshold is the similarity at or above which the best
	// candidate is accepted outright. Default: 0.9.
	AcceptThreshold float64 `yaml:"accept_threshold,omitempty"`

	// AmbiguousThreshold is the similarity at or above which the best
	// candidate goes to disambiguation. Default: 0.6.
	AmbiguousThreshold float64 `yaml:"ambiguous_threshold,omitempty"`

	// CandidateLimit caps candidates fetched per value. Default: 10.
	CandidateLimit int `yaml:"candidate_limit,omitempty"`

	// RetryAttempts is the try count for transient store failures.
	// Default: 3.
	RetryAttempts int `yaml:"retry_attempts,omitempty"`

	// RetryBackoff is the delay before the second attempt, doubling
	// after each failure. Default: 250ms.
	RetryBackoff string `yaml:"retry_backoff,omitempty"`

	StoreTimeout    string `yaml:"store_timeout,omitempty"`
	DisambigTimeout string `yaml:"disambig_timeout,omitempty"`
	CacheTTL        string `yaml:"cache_ttl,omitempty"`
}

// Options converts the section into grounding options.
func (g *GroundingConfig) Options() ground.Options {
	if g == nil {
		return ground.Options{}
	}
	return ground.Options{
		AcceptThreshold:    g.AcceptThreshold,
		AmbiguousThreshold: g.AmbiguousThreshold,
		CandidateLimit:     g.CandidateLimit,
		RetryAttempts:      g.RetryAttempts,
		RetryBackoff:       durationOr(g.RetryBackoff, 0),
		StoreTimeout:       durationOr(g.StoreTimeout, 0),
		DisambigTimeout:    durationOr(g.DisambigTimeout, 0),
		CacheTTL:           durationOr(g.CacheTTL, 0),
	}
}

// CorrelationConfig tunes correlation. Zero values defer to the
// engine's documented defaults.
type CorrelationConfig struct {
	// Concurrency is the strategy worker pool size. Default: 4.
	Concurrency int `yaml:"concurrency,omitempty"`

	// FuzzyCutoff is the looseness at or above which indexed fuzzy
	// search activates. Default: 20.
	FuzzyCutoff int `yaml:"fuzzy_looseness_cutoff,omitempty"`

	PartialLimit int `yaml:"partial_limit,omitempty"`
	FuzzyLimit   int `yaml:"fuzzy_limit,omitempty"`
	PathLimit    int `yaml:"path_limit,omitempty"`
	TopN         int `yaml:"top_n,omitempty"`

	// ProximityWeight, BreadthWeight, and OverlapWeight must sum to
	// 1.0. Defaults: 0.2 / 0.6 / 0.2.
	ProximityWeight float64 `yaml:"proximity_weight,omitempty"`
	BreadthWeight   float64 `yaml:"breadth_weight,omitempty"`
	OverlapWeight   float64 `yaml:"overlap_weight,omitempty"`

	// OverlapNorm is the shared-evidence count that saturates the
	// overlap term. Default: 10.
	OverlapNorm int `yaml:"overlap_norm,omitempty"`

	// ProvenanceMultiplier boosts incident-backed results. Default: 1.15.
	ProvenanceMultiplier float64 `yaml:"provenance_multiplier,omitempty"`

	// HopPenalty is added per resolution hop when an indirect match is
	// attributed. Default: 1.
	HopPenalty int `yaml:"resolution_hop_penalty,omitempty"`

	StoreTimeout string `yaml:"store_timeout,omitempty"`
}

// Options converts the section into correlation options.
func (c *CorrelationConfig) Options() correlate.Options {
	if c == nil {
		return correlate.Options{}
	}
	return correlate.Options{
		Concurrency:          c.Concurrency,
		StoreTimeout:         durationOr(c.StoreTimeout, 0),
		FuzzyCutoff:          c.FuzzyCutoff,
		PartialLimit:         c.PartialLimit,
		FuzzyLimit:           c.FuzzyLimit,
		PathLimit:            c.PathLimit,
		TopN:                 c.TopN,
		ProximityWeight:      c.ProximityWeight,
		BreadthWeight:        c.BreadthWeight,
		OverlapWeight:        c.OverlapWeight,
		OverlapNormalizer:    c.OverlapNorm,
		ProvenanceMultiplier: c.ProvenanceMultiplier,
		HopPenalty:           c.HopPenalty,
	}
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// CacheConfig selects and tunes the grounding decision cache.
type CacheConfig struct {
	// Backend is "memory", "redis", or "none". Default: memory.
	Backend string `yaml:"backend,omitempty"`

	// RedisURL is the connection string for the redis backend.
	RedisURL string `yaml:"redis_url,omitempty"`

	// TTL is how long decisions stay cached. Default: 15m.
	TTL string `yaml:"ttl,omitempty"`
}

// GetBackend returns the configured backend or the default.
func (c *CacheConfig) GetBackend() string {
	if c == nil || c.Backend == "" {
		return CacheBackendMemory
	}
	return c.Backend
}

// GetTTL returns the configured TTL or the default.
func (c *CacheConfig) GetTTL() time.Duration {
	if c == nil {
		return 15 * time.Minute
	}
	return durationOr(c.TTL, 15*time.Minute)
}

// RedisOptions converts the section into redis cache options.
func (c *CacheConfig) RedisOptions() cache.RedisOptions {
	if c == nil {
		return cache.RedisOptions{}
	}
	return cache.RedisOptions{
		URL:        c.RedisURL,
		DefaultTTL: c.GetTTL(),
	}
}

func (c *CacheConfig) validate() error {
	switch c.GetBackend() {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
		return nil
	default:
		return fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// DisambigConfig configures the LLM disambiguation collaborator. The
// collaborator is advisory: when disabled or unavailable, ambiguous
// groundings fail open to new entities.
type DisambigConfig struct {
	// Enabled turns the collaborator on. Default: off.
	Enabled bool `yaml:"enabled,omitempty"`

	// APIKey authenticates against the API. Falls back to the
	// OPENAI_API_KEY environment variable when empty.
	APIKey string `yaml:"api_key,omitempty"`

	// Model selects the chat model. Empty uses the resolver default.
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	Timeout string `yaml:"timeout,omitempty"`
}

// ClientConfig converts the section into the resolver's config,
// applying the environment fallback for the key.
func (d *DisambigConfig) ClientConfig() disambig.Config {
	if d == nil {
		return disambig.Config{}
	}
	key := d.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	return disambig.Config{
		APIKey:  key,
		Model:   d.Model,
		BaseURL: d.BaseURL,
		Timeout: durationOr(d.Timeout, 0),
	}
}

// IsEnabled reports whether the collaborator should be constructed.
func (d *DisambigConfig) IsEnabled() bool {
	return d != nil && d.Enabled
}

// Default returns a configuration equivalent to an empty file: every
// tunable at its documented default, in-memory cache, no collaborator.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a threatgraph.yaml file from the given path.
// If the path is a directory, it looks for threatgraph.yaml or
// threatgraph.yml in that directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "threatgraph.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "threatgraph.yml")
			if _, err := os.Stat(ymlPath); err != nil {
				return nil, fmt.Errorf("no threatgraph.yaml or threatgraph.yml found in %s", path)
			}
			configPath = ymlPath
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return &config, nil
}

// Validate checks the cross-field constraints of every present section.
func (c *Config) Validate() error {
	if err := c.Grounding.Options().Validate(); err != nil {
		return fmt.Errorf("grounding: %w", err)
	}
	if err := c.Correlation.Options().Validate(); err != nil {
		return fmt.Errorf("correlation: %w", err)
	}
	if err := c.Cache.validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// durationOr parses a Go duration string, returning the fallback when
// the field is empty or unparsable.
func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
