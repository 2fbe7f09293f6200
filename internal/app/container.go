package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"moto-dispatch/internal/auth"
	"moto-dispatch/internal/cache"
	"moto-dispatch/internal/config"
	"moto-dispatch/internal/health"
	"moto-dispatch/internal/http/handlers"
	"moto-dispatch/internal/http/pprofserver"
	"moto-dispatch/internal/http/router"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/metrics"
	"moto-dispatch/internal/service/delivery"
	"moto-dispatch/internal/service/events"
	"moto-dispatch/internal/service/stats"
	"moto-dispatch/internal/service/users"
	"moto-dispatch/internal/service/zones"
	"moto-dispatch/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect  dbConnectFunc
	loadConfig func() (*config.Config, error)
	logFatalf  func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect:  connectDbWithRetry,
		loadConfig: config.Load,
		logFatalf:  log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithConfig makes the container use cfg instead of loading it.
func (b *ContainerBuilder) WithConfig(cfg *config.Config) *ContainerBuilder {
	if cfg != nil {
		b.loadConfig = func() (*config.Config, error) { return cfg, nil }
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds the API container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// MustBuildWorker builds the worker container.
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.buildWorker(ctx)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) registerShared(container *dig.Container, ctx context.Context) error {
	if err := registerCore(container, ctx, b.loadConfig); err != nil {
		return fmt.Errorf("core: %w", err)
	}
	if err := registerStorage(container, b.dbConnect); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := registerCache(container); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := provideAll(container, provideMetrics); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := registerDomainServices(container); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()
	if err := b.registerShared(container, ctx); err != nil {
		return nil, err
	}
	if err := registerHealth(container); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

func (b *ContainerBuilder) buildWorker(ctx context.Context) (*dig.Container, error) {
	container := dig.New()
	if err := b.registerShared(container, ctx); err != nil {
		return nil, err
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns the API container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds and returns the worker container
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, load func() (*config.Config, error)) error {
	if load == nil {
		return fmt.Errorf("config loader is nil")
	}
	return provideAll(container,
		func() context.Context { return ctx },
		load,
		NewLogger,
	)
}

func registerStorage(container *dig.Container, connect dbConnectFunc) error {
	return provideAll(container,
		func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*Stores, error) {
			return newStores(ctx, cfg, logger, connect)
		},
	)
}

func registerCache(container *dig.Container) error {
	return provideAll(container, provideCache)
}

// provideCache connects Redis when REDIS_ADDR is set and falls back to the
// in-process store otherwise. *cache.Redis is nil in the fallback case.
func provideCache(ctx context.Context, cfg *config.Config, logger logx.Logger) (cache.Store, *cache.Redis, error) {
	r, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	if r == nil {
		logger.Warn("REDIS_ADDR is empty, using in-process cache")
		return cache.NewMemory(), nil, nil
	}
	return r, r, nil
}

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) (*auth.Tokens, error) {
			return auth.NewTokens(auth.TokenConfig{
				Secret: cfg.Auth.JWTSecret,
				Issuer: cfg.Auth.JWTIssuer,
				TTL:    cfg.Auth.JWTTTL,
			})
		},
		func(cfg *config.Config) *auth.Passwords {
			return auth.NewPasswords(cfg.Auth.BcryptCost)
		},
		func(cfg *config.Config, s *Stores, logger logx.Logger) *zones.Catalog {
			return zones.NewCatalog(s.Zones, cfg.Pricing.DefaultPrice, cfg.Delivery.OperationTimeout, logger)
		},
		provideStats,
		func(
			cfg *config.Config,
			s *Stores,
			passwords *auth.Passwords,
			tokens *auth.Tokens,
			c cache.Store,
			logger logx.Logger,
		) *users.Service {
			return users.NewService(s.Users, passwords, tokens, c, users.Config{
				ResetTTL:         cfg.Auth.ResetTokenTTL,
				OperationTimeout: cfg.Delivery.OperationTimeout,
			}, logger)
		},
		func(st *stats.Service, logger logx.Logger) *events.Processor {
			return events.NewProcessor(st, logger)
		},
		provideEventSink,
		func(
			cfg *config.Config,
			s *Stores,
			catalog *zones.Catalog,
			sink delivery.EventSink,
			m *metrics.Dispatch,
			logger logx.Logger,
		) *delivery.Service {
			return delivery.NewDeliveryService(s.Deliveries, catalog, cfg.Delivery.OperationTimeout, logger,
				delivery.WithEventSink(sink),
				delivery.WithMetrics(m),
			)
		},
	)
}

type eventSinkIn struct {
	dig.In

	Config    *config.Config
	Logger    logx.Logger
	Processor *events.Processor
	Retries   prometheus.Counter `name:"publish_retries_total"`
}

// provideEventSink publishes to Kafka when brokers are configured; otherwise
// events are handled in-process. The producer is nil in the second case.
func provideStats(cfg *config.Config, s *Stores, c cache.Store, logger logx.Logger) *stats.Service {
	return stats.NewService(s.Stats, c, statsCacheTTL(cfg, logger), cfg.Delivery.OperationTimeout, logger)
}

// statsCacheTTL turns the snapshot cache off when invalidations happen in the
// worker but the cache is process-local: the API would never see them.
func statsCacheTTL(cfg *config.Config, logger logx.Logger) time.Duration {
	if cfg.Kafka.Enabled() && cfg.Redis.Addr == "" && cfg.Redis.StatsCacheTTL > 0 {
		logger.Warn("stats cache disabled: KAFKA_BROKERS set without REDIS_ADDR",
			logx.Duration("configured_ttl", cfg.Redis.StatsCacheTTL))
		return 0
	}
	return cfg.Redis.StatsCacheTTL
}

func provideEventSink(in eventSinkIn) (delivery.EventSink, *kafka.Producer, error) {
	if !in.Config.Kafka.Enabled() {
		return in.Processor, nil, nil
	}
	k := in.Config.Kafka
	producer, err := kafka.NewProducer(in.Logger, k.Brokers, k.Topic)
	if err != nil {
		return nil, nil, err
	}
	sink := kafka.NewRetryingPublisher(producer, in.Logger, in.Retries, kafka.RetryConfig{
		MaxAttempts: k.PublishMaxAttempts,
		BaseDelay:   k.PublishBaseDelay,
		MaxDelay:    k.PublishMaxDelay,
	})
	return sink, producer, nil
}

func registerHealth(container *dig.Container) error {
	return provideAll(container,
		func(s *Stores, c cache.Store, cfg *config.Config) *health.Checker {
			checker := health.NewChecker(2 * time.Second)
			if cfg.Storage.UsesPostgres() {
				checker.Register("postgres", s.Ping)
			}
			if cfg.Redis.Addr != "" {
				checker.Register("redis", c.Ping)
			}
			return checker
		},
		func(cfg *config.Config, checker *health.Checker, logger logx.Logger) *health.GRPCServer {
			return health.NewGRPCServer(cfg.Health.GRPCPort, checker, cfg.Health.CheckInterval, logger)
		},
	)
}

type routerIn struct {
	dig.In

	Config      *config.Config
	Logger      logx.Logger
	Base        *handlers.Handlers
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Zones       *handlers.ZoneHandler
	Deliveries  *handlers.DeliveryHandler
	Stats       *handlers.StatsHandler
	Tokens      *auth.Tokens
	Middlewares rateLimitMiddlewares
}

func newRouter(in routerIn) http.Handler {
	return router.New(router.Deps{
		Logger:        in.Logger,
		Base:          in.Base,
		Auth:          in.Auth,
		Users:         in.Users,
		Zones:         in.Zones,
		Deliveries:    in.Deliveries,
		Stats:         in.Stats,
		Tokens:        in.Tokens,
		RateLimit:     in.Middlewares.API.Handler(),
		AuthRateLimit: in.Middlewares.Auth.Handler(),
		TrustProxy:    in.Config.TrustProxy,
	})
}

type pprofOut struct {
	dig.Out

	Server *http.Server `name:"pprof_server"`
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	pprofProvider := func(cfg *config.Config, logger logx.Logger) pprofOut {
		return pprofOut{Server: pprofserver.New(pprofserver.Config{
			Enabled: cfg.Pprof.Enabled,
			Addr:    cfg.Pprof.Addr,
			User:    cfg.Pprof.User,
			Pass:    cfg.Pprof.Pass,
		}, logger)}
	}
	return provideAll(container,
		func(logger logx.Logger, checker *health.Checker) *handlers.Handlers {
			return handlers.New(logger, checker)
		},
		func(logger logx.Logger, s *users.Service) *handlers.AuthHandler {
			return handlers.NewAuthHandler(logger, s)
		},
		func(logger logx.Logger, s *users.Service) *handlers.UserHandler {
			return handlers.NewUserHandler(logger, s)
		},
		func(logger logx.Logger, c *zones.Catalog) *handlers.ZoneHandler {
			return handlers.NewZoneHandler(logger, c)
		},
		func(logger logx.Logger, s *delivery.Service) *handlers.DeliveryHandler {
			return handlers.NewDeliveryHandler(logger, s)
		},
		func(logger logx.Logger, s *stats.Service) *handlers.StatsHandler {
			return handlers.NewStatsHandler(logger, s)
		},
		newRateLimitClock,
		newRateLimiters,
		newRateLimitMiddleware,
		newRouter,
		serverProvider,
		pprofProvider,
	)
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config, logger logx.Logger, p *events.Processor) (*kafka.Consumer, error) {
			k := cfg.Kafka
			return kafka.NewConsumer(logger, k.Brokers, k.GroupID, k.Topic, p.Handle)
		},
	)
}
