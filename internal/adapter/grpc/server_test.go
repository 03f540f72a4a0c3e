package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/simaogato/fraxion-backend/internal/usecase/health"
)

type stubChecker struct {
	healthy bool
}

func (s *stubChecker) Database(ctx context.Context) health.Database {
	if s.healthy {
		return health.Database{Status: health.StatusOK, Database: health.DatabaseConnected}
	}
	return health.Database{Status: health.StatusError, Database: health.DatabaseDisconnected, Error: "connection refused"}
}

func TestHealthReporter_Refresh(t *testing.T) {
	checker := &stubChecker{}
	reporter := NewHealthReporter(checker, "fraxion", time.Minute, zap.NewNop())
	ctx := context.Background()

	resp, err := reporter.Check(ctx, "fraxion")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	checker.healthy = true
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, reporter.Refresh(ctx))

	for _, service := range []string{"", "fraxion"} {
		resp, err := reporter.Check(ctx, service)
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}

	checker.healthy = false
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, reporter.Refresh(ctx))
}

func TestHealthReporter_RunChecksImmediately(t *testing.T) {
	reporter := NewHealthReporter(&stubChecker{healthy: true}, "fraxion", time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reporter.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		resp, err := reporter.Check(context.Background(), "fraxion")
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestNewServerRegistersHealth(t *testing.T) {
	reporter := NewHealthReporter(&stubChecker{healthy: true}, "fraxion", time.Minute, zap.NewNop())
	server := NewServer("token", reporter, zap.NewNop())
	defer server.Stop()

	info := server.GetServiceInfo()
	assert.Contains(t, info, "grpc.health.v1.Health")
}
