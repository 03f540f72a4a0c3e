package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fraxion-backend/internal/config"
	"github.com/simaogato/fraxion-backend/internal/logging"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&migrateCmd{}, "database")
	commander.Register(&seedCmd{}, "database")
	commander.Register(&pingCmd{}, "database")
	commander.Register(&userCmd{}, "accounts")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// env loads config, a logger and an open database for one command run
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *postgres.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Environment: logging.Environment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.Database.ConnectionString(), postgres.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) close() {
	_ = e.db.Close()
	_ = e.logger.Sync()
}
