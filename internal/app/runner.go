package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/dig"

	"moto-dispatch/internal/cache"
	"moto-dispatch/internal/config"
	"moto-dispatch/internal/health"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/service/users"
	"moto-dispatch/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// Runner runs the API process.
type Runner struct {
	runFn func(*dig.Container) error
	exit  func(int)
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run, exit: os.Exit}
}

// MustRun starts the servers using the provided DI container and blocks until shutdown.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}

	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		if r.exit != nil {
			r.exit(1)
		}
	}
}

type runIn struct {
	dig.In

	Ctx      context.Context
	Config   *config.Config
	Logger   logx.Logger
	Main     *http.Server
	Pprof    *http.Server `name:"pprof_server" optional:"true"`
	GRPC     *health.GRPCServer
	Users    *users.Service
	Stores   *Stores
	Redis    *cache.Redis
	Producer *kafka.Producer
}

func run(container *dig.Container) error {
	return container.Invoke(appRun)
}

func appRun(in runIn) error {
	if err := bootstrapAdmin(in.Ctx, in.Users, in.Config, in.Logger); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(in.Ctx)
	defer cancel()

	errCh := make(chan error, 3)
	startServer(in.Main, "api", in.Logger, errCh)
	if in.Pprof != nil {
		startServer(in.Pprof, "pprof", in.Logger, errCh)
	}
	go func() {
		if err := in.GRPC.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		in.Logger.Info("shutting down moto-dispatch")
	case runErr = <-errCh:
		in.Logger.Error("server failed, shutting down", logx.Err(runErr))
	}
	cancel()

	gracefulShutdown(in.Main, in.Logger, shutdownTimeout)
	if in.Pprof != nil {
		gracefulShutdown(in.Pprof, in.Logger, shutdownTimeout)
	}
	closeResources(in.Logger, in.Stores, in.Redis, in.Producer)
	return runErr
}

func bootstrapAdmin(ctx context.Context, svc *users.Service, cfg *config.Config, logger logx.Logger) error {
	phone, pass := cfg.Auth.BootstrapAdminPhone, cfg.Auth.BootstrapAdminPassword
	if phone == "" || pass == "" {
		return nil
	}
	if err := svc.EnsureAdmin(ctx, phone, pass); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.Info("bootstrap admin ensured", logx.String("phone", phone))
	return nil
}

func startServer(server *http.Server, name string, logger logx.Logger, errCh chan<- error) {
	go func() {
		logger.Info("http listening", logx.String("server", name), logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s listen: %w", name, err)
		}
	}()
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.String("addr", srv.Addr), logx.Err(err))
	}
}

func closeResources(logger logx.Logger, stores *Stores, redis *cache.Redis, producer *kafka.Producer) {
	if err := producer.Close(); err != nil {
		logger.Error("kafka producer close error", logx.Err(err))
	}
	if err := redis.Close(); err != nil {
		logger.Error("redis close error", logx.Err(err))
	}
	stores.Close()
}
