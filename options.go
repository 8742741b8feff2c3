package threatgraph

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/threatgraph/cache"
	"github.com/zero-day-ai/threatgraph/config"
	"github.com/zero-day-ai/threatgraph/disambig"
)

// settings collects everything the options configure before the engine
// is assembled.
type settings struct {
	logger         *slog.Logger
	cfg            *config.Config
	configFile     string
	disambiguator  disambig.Resolver
	cache          cache.Cache
	cacheSet       bool
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures the engine during New.
type Option func(*settings)

// WithLogger sets the logger for the engine and every component it
// builds. The default logs JSON to stdout at info level.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig sets the full configuration. Takes precedence over
// WithConfigFile.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithConfigFile loads configuration from the given path during New.
// The path may be a file or a directory holding threatgraph.yaml.
func WithConfigFile(path string) Option {
	return func(s *settings) {
		s.configFile = path
	}
}

// WithDisambiguator injects a disambiguation collaborator, replacing
// the one the configuration would build. The engine never closes an
// injected collaborator.
func WithDisambiguator(r disambig.Resolver) Option {
	return func(s *settings) {
		s.disambiguator = r
	}
}

// WithCache injects a decision cache, replacing the one the
// configuration would build. Passing nil disables caching entirely.
// The engine never closes an injected cache.
func WithCache(c cache.Cache) Option {
	return func(s *settings) {
		s.cache = c
		s.cacheSet = true
	}
}

// WithTracerProvider sets the provider for correlation spans. The
// default is the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracerProvider = tp
	}
}

// WithMeterProvider sets the provider for engine metrics. The default
// is the global OpenTelemetry provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *settings) {
		s.meterProvider = mp
	}
}
