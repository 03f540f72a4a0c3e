// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment selects the baseline logger profile
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentDevelopment Environment = "development"
	EnvironmentLocal       Environment = "local"
	EnvironmentTest        Environment = "test"
)

// Config holds the logger settings
type Config struct {
	Environment Environment
	Level       string // debug, info, warn, error; empty uses the environment default
}

func (c Config) validate() error {
	switch c.Environment {
	case EnvironmentProduction, EnvironmentStaging, EnvironmentDevelopment, EnvironmentLocal, EnvironmentTest:
		return nil
	default:
		return fmt.Errorf("invalid environment %q", c.Environment)
	}
}

func (c Config) verbose() bool {
	return c.Environment == EnvironmentDevelopment || c.Environment == EnvironmentLocal || c.Environment == EnvironmentTest
}

// New creates a JSON logger for the environment
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	level, err := resolveLevel(cfg)
	if err != nil {
		return nil, err
	}

	base := zap.NewProductionConfig()
	if cfg.verbose() {
		base = zap.NewDevelopmentConfig()
	}
	base.Encoding = "json"
	base.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	base.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	base.Level = level
	base.DisableStacktrace = true

	logger, err := base.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.With(zap.String("env", string(cfg.Environment))), nil
}

func resolveLevel(cfg Config) (zap.AtomicLevel, error) {
	if strings.TrimSpace(cfg.Level) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(cfg.Level); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("invalid level %q: %w", cfg.Level, err)
		}
		return zap.NewAtomicLevelAt(parsed), nil
	}

	if cfg.verbose() {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
}
