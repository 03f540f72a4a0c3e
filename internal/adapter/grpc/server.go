// Package grpc serves the standard gRPC health protocol for the process.
package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/fraxion-backend/internal/usecase/health"
)

// DatabaseChecker reports store connectivity
type DatabaseChecker interface {
	Database(ctx context.Context) health.Database
}

// NewServer creates a gRPC server with auth and logging interceptors,
// the health service and reflection registered
func NewServer(apiToken string, reporter *HealthReporter, logger *zap.Logger) *grpc.Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(logger),
			AuthInterceptor(apiToken),
		),
	)

	healthpb.RegisterHealthServer(server, reporter.server)
	reflection.Register(server)

	return server
}

// HealthReporter keeps the gRPC health status in step with the store
type HealthReporter struct {
	server   *grpchealth.Server
	checker  DatabaseChecker
	service  string
	interval time.Duration
	logger   *zap.Logger
}

// NewHealthReporter creates a reporter for the named service.
// Status starts as NOT_SERVING until the first check.
func NewHealthReporter(checker DatabaseChecker, service string, interval time.Duration, logger *zap.Logger) *HealthReporter {
	server := grpchealth.NewServer()
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthReporter{
		server:   server,
		checker:  checker,
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run checks immediately and then on every interval until ctx is cancelled
func (r *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh checks the store once and updates the serving status
func (r *HealthReporter) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	report := r.checker.Database(ctx)

	status := healthpb.HealthCheckResponse_SERVING
	if !report.Healthy() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		r.logger.Warn("database health check failed", zap.String("error", report.Error))
	}

	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(r.service, status)
	return status
}

// Check answers a health request directly, mostly useful in tests
func (r *HealthReporter) Check(ctx context.Context, service string) (*healthpb.HealthCheckResponse, error) {
	return r.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
}
