package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/johnnyy06/ComputerBazaar-sub000/pkg/config"
)

// Catalog engine names accepted by CATALOG_ENGINE.
const (
	EngineMemory        = "memory"
	EngineMongoDB       = "mongodb"
	EngineElasticsearch = "elasticsearch"
)

// DefaultJWTSecret is the placeholder secret. It is only accepted in the
// development environment.
const DefaultJWTSecret = "change-me-in-production"

// Config holds all configuration for the catalog service.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"catalog"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort    int `env:"CATALOG_HTTP_PORT" envDefault:"5000"`
	CacheMaxAge int `env:"CATALOG_CACHE_MAX_AGE" envDefault:"60"`

	// Store selection (memory, mongodb or elasticsearch)
	CatalogEngine string `env:"CATALOG_ENGINE" envDefault:"mongodb"`

	// MongoDB
	MongoURI         string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase    string        `env:"MONGODB_DATABASE" envDefault:"computer_bazaar"`
	MongoCollection  string        `env:"MONGODB_COLLECTION" envDefault:"products"`
	MongoMaxPoolSize uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"20"`
	MongoTimeout     time.Duration `env:"MONGODB_TIMEOUT" envDefault:"10s"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"computer_bazaar_products"`

	// Redis backs the facet cache and event idempotency.
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	FacetCacheTTL time.Duration `env:"FACET_CACHE_TTL" envDefault:"60s"`

	// Kafka product event sync
	EventsEnabled       bool          `env:"EVENTS_ENABLED" envDefault:"true"`
	KafkaBrokers        []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID        string        `env:"KAFKA_GROUP_ID" envDefault:"catalog-service"`
	EventIdempotencyTTL time.Duration `env:"EVENT_IDEMPOTENCY_TTL" envDefault:"24h"`

	// Admin API
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me-in-production"`

	// Product service URL for reindex fetching
	ProductServiceURL string `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8080"`

	// Static tables
	Categories      []string `env:"CATALOG_CATEGORIES" envDefault:"Procesoare,Placi video,Placi de baza,Memorii RAM,Stocare,Surse,Carcase,Coolere,Monitoare,Periferice" envSeparator:","`
	PopularSearches []string `env:"POPULAR_SEARCHES" envDefault:"RTX 4070,Ryzen 7 7800X3D,SSD NVMe 1TB,DDR5 32GB,Monitor 144Hz,Sursa 750W" envSeparator:","`

	// Observability
	OTLPEndpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingEnabled     bool          `env:"TRACING_ENABLED" envDefault:"false"`
	TracingSampleRate  float64       `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
	PprofAllowedCIDRs  []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CatalogEngine {
	case EngineMemory, EngineMongoDB, EngineElasticsearch:
	default:
		return fmt.Errorf("invalid CATALOG_ENGINE %q: want memory, mongodb or elasticsearch", c.CatalogEngine)
	}
	if c.FacetCacheTTL <= 0 {
		return fmt.Errorf("FACET_CACHE_TTL must be positive, got %s", c.FacetCacheTTL)
	}
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("CATALOG_CACHE_MAX_AGE must not be negative, got %d", c.CacheMaxAge)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be within [0, 1], got %v", c.TracingSampleRate)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTSecret == DefaultJWTSecret && c.Environment != "development" {
		return fmt.Errorf("JWT_SECRET must be set outside development (ENVIRONMENT=%q)", c.Environment)
	}
	return nil
}

// UseRedis reports whether Redis is enabled and addressed.
func (c *Config) UseRedis() bool {
	return c.RedisEnabled && c.RedisAddr != ""
}

// UseKafka reports whether event sync is enabled and has a broker.
func (c *Config) UseKafka() bool {
	return c.EventsEnabled && len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}
