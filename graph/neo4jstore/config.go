package neo4jstore

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the Neo4j connection settings.
type Config struct {
	// URI is the bolt or neo4j scheme connection string
	// (e.g., "neo4j://localhost:7687").
	URI string

	// Username for basic auth. Defaults to "neo4j".
	Username string

	// Password for basic auth.
	Password string

	// Database selects a named database. Empty uses the server default.
	Database string

	// MaxPoolSize caps the driver's connection pool.
	MaxPoolSize int

	// ConnectTimeout bounds socket establishment and the connectivity
	// check performed by Open.
	ConnectTimeout time.Duration

	// QueryTimeout bounds each read issued through the store.
	QueryTimeout time.Duration

	// IndexCacheTTL controls how long the fulltext index listing is
	// reused before being fetched again. Index DDL is rare, so this can
	// be generous.
	IndexCacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Username == "" {
		c.Username = "neo4j"
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 50
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 15 * time.Second
	}
	if c.IndexCacheTTL <= 0 {
		c.IndexCacheTTL = 5 * time.Minute
	}
	return c
}

// Validate checks that the configuration can open a connection.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URI) == "" {
		return fmt.Errorf("neo4j URI is required")
	}
	if c.MaxPoolSize < 0 {
		return fmt.Errorf("max pool size must not be negative, got %d", c.MaxPoolSize)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must not be negative, got %s", c.ConnectTimeout)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query timeout must not be negative, got %s", c.QueryTimeout)
	}
	return nil
}

// ConfigFromEnv builds a Config from the conventional NEO4J_* variables:
// NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD, NEO4J_DATABASE,
// NEO4J_TIMEOUT_SECONDS, and NEO4J_MAX_POOL_SIZE. Unset variables leave
// the zero value so defaults apply at Open.
func ConfigFromEnv() Config {
	cfg := Config{
		URI:      strings.TrimSpace(os.Getenv("NEO4J_URI")),
		Username: strings.TrimSpace(os.Getenv("NEO4J_USER")),
		Password: strings.TrimSpace(os.Getenv("NEO4J_PASSWORD")),
		Database: strings.TrimSpace(os.Getenv("NEO4J_DATABASE")),
	}

	if v := strings.TrimSpace(os.Getenv("NEO4J_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.ConnectTimeout = time.Duration(parsed) * time.Second
			cfg.QueryTimeout = time.Duration(parsed) * time.Second
		}
	}

	if v := strings.TrimSpace(os.Getenv("NEO4J_MAX_POOL_SIZE")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.MaxPoolSize = parsed
		}
	}

	return cfg
}
