package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/auth"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/cache"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/config"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine"
	esengine "github.com/johnnyy06/ComputerBazaar-sub000/internal/engine/elasticsearch"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine/memory"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine/mongodb"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/event"
	handler "github.com/johnnyy06/ComputerBazaar-sub000/internal/handler/http"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/service"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/database"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/health"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/httpclient"
	pkgkafka "github.com/johnnyy06/ComputerBazaar-sub000/pkg/kafka"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/tracing"
)

// Version is stamped at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

// closer releases one external resource on shutdown.
type closer struct {
	name  string
	close func(ctx context.Context) error
}

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
	closers    []closer
}

// NewApp creates a new application instance, initializing all dependencies.
// Resources opened before a failure are released before returning.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.closeResources(context.Background())
		}
	}()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.closers = append(a.closers, closer{"tracer", shutdownTracer})
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

	healthHandler := health.NewHandler()

	// Initialize the catalog store based on configuration.
	catalog, err := a.openCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := catalog.(engine.Pinger); ok {
		healthHandler.Register(cfg.CatalogEngine, p.Ping)
	}

	// Redis is optional: without it the facet cache is disabled and event
	// ids are remembered in process.
	var facetCache cache.Facets = cache.Nop{}
	var idempotency pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(cfg.EventIdempotencyTTL)
	if cfg.UseRedis() {
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.closers = append(a.closers, closer{"redis", func(context.Context) error { return client.Close() }})
		healthHandler.Register("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })

		facetCache = cache.NewRedisFacets(client, cfg.FacetCacheTTL, logger)
		idempotency = pkgkafka.NewRedisIdempotencyStore(client, cfg.ServiceName+":events:", cfg.EventIdempotencyTTL)
		logger.Info("redis facet cache enabled",
			slog.String("addr", cfg.RedisAddr),
			slog.Duration("ttl", cfg.FacetCacheTTL),
		)
	} else {
		logger.Warn("redis disabled, facet cache off and event idempotency is process-local")
	}

	// Build the service layer.
	suggestions := service.NewSuggestionService(catalog, cfg.PopularSearches, logger)
	catalogService := service.NewCatalogService(catalog, suggestions, facetCache, logger)
	facetService := service.NewFacetService(catalog, facetCache, cfg.Categories, logger)

	productClient := httpclient.NewBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultBreakerConfig("product-service"),
		logger,
	)
	reindexer := service.NewReindexer(catalogService, productClient, cfg.ProductServiceURL, logger)

	// Initialize Kafka consumers for product events.
	if cfg.UseKafka() {
		a.consumers = a.newConsumers(event.NewConsumer(catalogService, logger), idempotency)
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	} else {
		logger.Warn("kafka event sync disabled")
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Catalog:        handler.NewCatalogHandler(catalogService, facetService, suggestions, logger),
		Admin:          handler.NewAdminHandler(catalogService, reindexer, logger),
		Health:         healthHandler,
		TokenValidator: auth.NewJWTValidator(cfg.JWTSecret).Validate,
		CacheMaxAge:    cfg.CacheMaxAge,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openCatalog connects the configured store and registers its closer.
func (a *App) openCatalog(ctx context.Context) (engine.Catalog, error) {
	cfg := a.cfg
	switch cfg.CatalogEngine {
	case config.EngineMongoDB:
		mongoCfg := database.DefaultMongoConfig()
		mongoCfg.URI = cfg.MongoURI
		mongoCfg.Database = cfg.MongoDatabase
		mongoCfg.AppName = cfg.ServiceName
		mongoCfg.MaxPoolSize = cfg.MongoMaxPoolSize
		mongoCfg.Timeout = cfg.MongoTimeout

		db, err := database.NewMongo(ctx, mongoCfg)
		if err != nil {
			return nil, fmt.Errorf("init mongodb: %w", err)
		}
		a.closers = append(a.closers, closer{"mongodb", db.Close})

		eng := mongodb.New(db.Database, cfg.MongoCollection)
		if err := eng.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure mongodb indexes: %w", err)
		}
		a.logger.Info("mongodb catalog initialized",
			slog.String("database", cfg.MongoDatabase),
			slog.String("collection", cfg.MongoCollection),
		)
		return eng, nil

	case config.EngineElasticsearch:
		eng, err := esengine.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		a.logger.Info("elasticsearch catalog initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
		return eng, nil

	default:
		a.logger.Info("in-memory catalog initialized")
		return memory.New(), nil
	}
}

// newConsumers creates one group consumer per product topic. Handler
// failures are retried, then parked on the topic's DLQ.
func (a *App) newConsumers(c *event.Consumer, idempotency pkgkafka.IdempotencyStore) []*pkgkafka.Consumer {
	dlq := pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)
	a.closers = append(a.closers, closer{"kafka dlq", func(context.Context) error { return dlq.Close() }})

	handle := pkgkafka.IdempotentHandler(idempotency, c.Handle, a.logger)

	consumers := make([]*pkgkafka.Consumer, 0, len(event.Topics()))
	for _, topic := range event.Topics() {
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:      a.cfg.KafkaBrokers,
			GroupID:      a.cfg.KafkaGroupID,
			Topic:        topic,
			MinBytes:     1,
			MaxBytes:     10e6, // 10 MB
			MaxAttempts:  3,
			RetryBackoff: 500 * time.Millisecond,
		}, handle, dlq, a.logger))
	}
	a.logger.Info("kafka consumers initialized",
		slog.Any("brokers", a.cfg.KafkaBrokers),
		slog.String("group_id", a.cfg.KafkaGroupID),
		slog.Int("topic_count", len(consumers)),
	)
	return consumers
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	// Start Kafka consumers in background goroutines.
	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer %s: %w", c.Topic(), err)
			}
		}()
	}

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("component failed, shutting down", slog.String("error", runErr.Error()))
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Close Kafka consumers.
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.closeResources(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases stores and clients in reverse opening order.
func (a *App) closeResources(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(ctx); err != nil {
			a.logger.Error("close error", slog.String("resource", c.name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
