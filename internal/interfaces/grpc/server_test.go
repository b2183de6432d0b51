package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/turtacn/NMReportChecker/internal/config"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NMReportChecker/internal/testutil"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s, err := NewServer(config.ServerConfig{Mode: "release", GRPCPort: 0}, opts...)
	require.NoError(t, err)
	return s
}

func startServer(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	t.Cleanup(func() {
		_ = s.Stop(context.Background())
		assert.NoError(t, <-done)
	})

	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	conn, err := grpc.Dial(net.JoinHostPort("127.0.0.1", port), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func checkStatus(t *testing.T, client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestServer_HealthServing(t *testing.T) {
	s := newTestServer(t)
	client := startServer(t, s)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, client))

	s.SetServing(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, client))

	s.SetServing(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, client))
}

func TestServer_SetServingLogsChangesOnly(t *testing.T) {
	log := testutil.NewMockLogger()
	s := newTestServer(t, WithLogger(log))
	defer s.Stop(context.Background())

	s.SetServing(true)
	assert.False(t, log.HasMessage("warn", "grpc health status changed"))
	s.SetServing(false)
	assert.True(t, log.HasMessage("warn", "grpc health status changed"))
}

func TestServer_MonitorHealth(t *testing.T) {
	s := newTestServer(t)
	client := startServer(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.MonitorHealth(ctx, 10*time.Millisecond, func(context.Context) error {
			return errors.New("postgres: connection refused")
		})
	}()

	assert.Eventually(t, func() bool {
		return checkStatus(t, client) == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("MonitorHealth did not return after cancel")
	}
}

func TestServer_DoubleStart(t *testing.T) {
	s := newTestServer(t)
	startServer(t, s)
	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.started
	}, time.Second, 5*time.Millisecond)
	assert.Error(t, s.Start())
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := newTestServer(t)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestNewServer_BindFailure(t *testing.T) {
	_, err := NewServer(config.ServerConfig{GRPCPort: -1})
	assert.Error(t, err)
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	log := testutil.NewMockLogger()
	ic := recoveryUnaryInterceptor(log)
	info := &grpc.UnaryServerInfo{FullMethod: "/nmr.v1.Analysis/Analyze"}

	_, err := ic(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.True(t, log.HasMessage("error", "grpc panic recovered"))

	resp, err := ic(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestLoggingUnaryInterceptor_SkipsHealthChecks(t *testing.T) {
	log := testutil.NewMockLogger()
	ic := loggingUnaryInterceptor(log)
	handler := func(context.Context, interface{}) (interface{}, error) { return nil, nil }

	_, _ = ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	assert.Empty(t, log.GetMessages())

	_, _ = ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/nmr.v1.Analysis/Analyze"}, handler)
	code, ok := log.FieldValue("grpc request", "code")
	require.True(t, ok)
	assert.Equal(t, "OK", code)
}

func TestMetricsUnaryInterceptor(t *testing.T) {
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "t"}, nil)
	require.NoError(t, err)
	m := prometheus.NewNMRMetrics(c)

	ic := metricsUnaryInterceptor(m)
	_, err = ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/nmr.v1.Analysis/Analyze"},
		func(context.Context, interface{}) (interface{}, error) {
			return nil, status.Error(codes.InvalidArgument, "empty report")
		})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	n, err := promtestutil.GatherAndCount(c.Gatherer(), "t_grpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NotPanics(t, func() {
		_, _ = metricsUnaryInterceptor(nil)(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/a/B"},
			func(context.Context, interface{}) (interface{}, error) { return nil, nil })
	})
}

func TestSplitMethodName(t *testing.T) {
	svc, method := splitMethodName("/grpc.health.v1.Health/Check")
	assert.Equal(t, "grpc.health.v1.Health", svc)
	assert.Equal(t, "Check", method)

	svc, method = splitMethodName("Check")
	assert.Equal(t, "unknown", svc)
	assert.Equal(t, "Check", method)
}

//Personal.AI order the ending
