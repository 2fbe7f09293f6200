package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestChecker_AllUp(t *testing.T) {
	t.Parallel()

	c := NewChecker(time.Second)
	c.Register("postgres", func(context.Context) error { return nil })
	c.Register("redis", func(context.Context) error { return nil })
	c.Register("ignored", nil)

	rep := c.Run(context.Background())
	require.True(t, rep.Healthy())
	require.Equal(t, map[string]string{"postgres": StatusUp, "redis": StatusUp}, rep.Checks)
	require.Equal(t, []string{"postgres", "redis"}, c.Names())
}

func TestChecker_OneDown(t *testing.T) {
	t.Parallel()

	c := NewChecker(time.Second)
	c.Register("postgres", func(context.Context) error { return nil })
	c.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	rep := c.Run(context.Background())
	require.False(t, rep.Healthy())
	require.Equal(t, StatusDown, rep.Status)
	require.Equal(t, StatusDown, rep.Checks["redis"])
	require.Equal(t, StatusUp, rep.Checks["postgres"])
}

func TestChecker_TimeoutMarksSlowCheckDown(t *testing.T) {
	t.Parallel()

	c := NewChecker(20 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	rep := c.Run(context.Background())
	require.Equal(t, StatusDown, rep.Checks["slow"])
}

func TestChecker_Empty(t *testing.T) {
	t.Parallel()

	rep := NewChecker(0).Run(context.Background())
	require.True(t, rep.Healthy())
	require.Empty(t, rep.Checks)
}

func TestGRPCServer_ReportsCheckerStatus(t *testing.T) {
	t.Parallel()

	healthy := make(chan bool, 1)
	healthy <- true
	up := true
	c := NewChecker(time.Second)
	c.Register("postgres", func(context.Context) error {
		select {
		case v := <-healthy:
			up = v
		default:
		}
		if !up {
			return errors.New("down")
		}
		return nil
	})

	s := NewGRPCServer(9091, c, 10*time.Millisecond, nil)
	require.NotNil(t, s)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	healthy <- false
	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewGRPCServer_DisabledWithoutPort(t *testing.T) {
	t.Parallel()

	s := NewGRPCServer(0, NewChecker(0), 0, nil)
	require.Nil(t, s)
	require.NoError(t, s.Run(context.Background()))
}
