package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"moto-dispatch/internal/logx"
)

var listen = net.Listen

// GRPCServer exposes grpc.health.v1.Health driven by a Checker.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	checker  *Checker
	addr     string
	interval time.Duration
	logger   logx.Logger
}

// NewGRPCServer returns nil when port is not positive.
func NewGRPCServer(port int, checker *Checker, interval time.Duration, logger logx.Logger) *GRPCServer {
	if port <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &GRPCServer{
		server:   srv,
		health:   hs,
		checker:  checker,
		addr:     fmt.Sprintf(":%d", port),
		interval: interval,
		logger:   logger,
	}
}

// Run serves until ctx is done, refreshing the serving status every interval.
func (s *GRPCServer) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}
	lis, err := listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc health listen: %w", err)
	}
	return s.serve(ctx, lis)
}

func (s *GRPCServer) serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.server.Serve(lis) }()
	s.logger.Info("grpc health listening", logx.String("addr", lis.Addr().String()))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.server.GracefulStop()
			<-serveErr
			return nil
		case err := <-serveErr:
			if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *GRPCServer) refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.checker != nil {
		rep := s.checker.Run(ctx)
		if !rep.Healthy() {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("health degraded", logx.Any("checks", rep.Checks))
		}
	}
	s.health.SetServingStatus("", st)
}
