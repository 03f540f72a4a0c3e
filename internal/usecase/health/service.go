package health

import (
	"context"
	"time"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const (
	StatusOK    = "ok"
	StatusError = "error"

	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
)

// Basic is the liveness report
type Basic struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Database is the store connectivity report
type Database struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Healthy reports whether the store answered
func (d Database) Healthy() bool {
	return d.Database == DatabaseConnected
}

// HealthService reports liveness and store connectivity
type HealthService struct {
	Pinger  domain.Pinger
	Service string
	Version string
	Timeout time.Duration
}

// NewHealthService creates a new HealthService instance
func NewHealthService(pinger domain.Pinger, service, version string) *HealthService {
	return &HealthService{
		Pinger:  pinger,
		Service: service,
		Version: version,
		Timeout: 2 * time.Second,
	}
}

// Basic reports that the process is up
func (s *HealthService) Basic() Basic {
	return Basic{
		Status:    StatusOK,
		Service:   s.Service,
		Version:   s.Version,
		Timestamp: time.Now().UTC(),
	}
}

// Database pings the store within the service timeout
func (s *HealthService) Database(ctx context.Context) Database {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	report := Database{
		Status:    StatusOK,
		Database:  DatabaseConnected,
		Timestamp: time.Now().UTC(),
	}
	if err := s.Pinger.Ping(ctx); err != nil {
		report.Status = StatusError
		report.Database = DatabaseDisconnected
		report.Error = err.Error()
	}
	return report
}
