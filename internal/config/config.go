// Package config loads process settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Database holds the postgres connection settings
type Database struct {
	ConnStr         string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionString returns DB_CONN_STR when set, otherwise builds one from the individual settings
func (d Database) ConnectionString() string {
	if d.ConnStr != "" {
		return d.ConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// Config is the full process configuration
type Config struct {
	Environment        string
	LogLevel           string
	GinMode            string
	HTTPPort           string
	GRPCPort           string
	APIToken           string
	Store              string
	RunMigrations      bool
	HealthPollInterval time.Duration
	Database           Database
}

// Load reads .env (when present) and then the process environment
func Load() (*Config, error) {
	// a missing .env is not an error, the environment may already be populated
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		GinMode:     os.Getenv("GIN_MODE"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		GRPCPort:    getEnv("GRPC_PORT", "9090"),
		APIToken:    getEnv("API_TOKEN", "dev-token"),
		Store:       strings.ToLower(getEnv("STORE", StorePostgres)),
		Database: Database{
			ConnStr:  os.Getenv("DB_CONN_STR"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "fraxion"),
		},
	}

	var err error
	if cfg.RunMigrations, err = getBool("RUN_MIGRATIONS", true); err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HealthPollInterval, err = getDuration("HEALTH_POLL_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("invalid STORE %q: must be %s or %s", cfg.Store, StorePostgres, StoreMemory)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
