package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/simaogato/fraxion-backend/internal/adapter/grpc"
	"github.com/simaogato/fraxion-backend/internal/adapter/repository/memory"
	"github.com/simaogato/fraxion-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fraxion-backend/internal/adapter/rest"
	"github.com/simaogato/fraxion-backend/internal/adapter/websocket"
	"github.com/simaogato/fraxion-backend/internal/config"
	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/logging"
	"github.com/simaogato/fraxion-backend/internal/usecase/accounting"
	"github.com/simaogato/fraxion-backend/internal/usecase/asset"
	"github.com/simaogato/fraxion-backend/internal/usecase/health"
	"github.com/simaogato/fraxion-backend/internal/usecase/offer"
	"github.com/simaogato/fraxion-backend/internal/usecase/portfolio"
	"github.com/simaogato/fraxion-backend/internal/usecase/seeder"
	"github.com/simaogato/fraxion-backend/internal/usecase/trading"
	"github.com/simaogato/fraxion-backend/internal/usecase/transaction"
	"github.com/simaogato/fraxion-backend/internal/usecase/user"
)

const (
	serviceName     = "fraxion"
	shutdownTimeout = 15 * time.Second
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// stores bundles the repositories of one backend
type stores struct {
	transactor   domain.Transactor
	pinger       domain.Pinger
	users        domain.UserRepository
	assets       domain.AssetRepository
	fractions    domain.FractionRepository
	offers       domain.OfferRepository
	transactions domain.TransactionRepository
	values       domain.AssetValueRepository
	close        func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Environment: logging.Environment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Setup store
	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	// 2. Seed the bootstrap manager
	if err := seeder.NewManagerSeeder(s.users, seeder.DefaultManager, logger).Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed manager: %w", err)
	}

	// 3. Initialize Services (Use Cases)
	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	ledger := accounting.NewLedger(s.fractions, s.transactions)
	healthService := health.NewHealthService(s.pinger, serviceName, version)

	handler := &rest.Handler{
		Offers:       offer.NewOfferService(s.transactor, s.offers, s.fractions, s.assets, s.users, hub, logger.Named("offer")),
		Trading:      trading.NewTradingService(s.transactor, s.offers, s.fractions, s.users, ledger, hub, logger.Named("trading")),
		Assets:       asset.NewAssetService(s.transactor, s.assets, s.fractions, s.users, s.values, hub, logger.Named("asset")),
		Portfolio:    portfolio.NewPortfolioService(s.fractions, s.assets, s.values, s.transactions),
		Users:        user.NewUserService(s.transactor, s.users, logger.Named("user")),
		Transactions: transaction.NewTransactionService(s.transactions, s.assets, s.fractions, s.users),
		Health:       healthService,
		Events:       hub,
		Logger:       logger.Named("http"),
	}

	// 4. Start HTTP server
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           rest.NewRouter(handler, cfg.APIToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Start gRPC server
	reporter := grpcadapter.NewHealthReporter(healthService, serviceName, cfg.HealthPollInterval, logger.Named("grpc"))
	go reporter.Run(ctx)
	grpcServer := grpcadapter.NewServer(cfg.APIToken, reporter, logger.Named("grpc"))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCPort, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failed, shutting down", zap.Error(err))
		shutdown(httpServer, grpcServer, logger)
		return err
	}

	shutdown(httpServer, grpcServer, logger)
	return nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		m := memory.NewStore()
		return &stores{
			transactor:   m,
			pinger:       m,
			users:        m.Users(),
			assets:       m.Assets(),
			fractions:    m.Fractions(),
			offers:       m.Offers(),
			transactions: m.Transactions(),
			values:       m.AssetValues(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := postgres.NewDB(cfg.Database.ConnectionString(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.RunMigrations {
		if err := postgres.Migrate(db, logger.Named("migrate")); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &stores{
		transactor:   postgres.NewTransactor(db),
		pinger:       db,
		users:        postgres.NewUserRepository(db),
		assets:       postgres.NewAssetRepository(db),
		fractions:    postgres.NewFractionRepository(db),
		offers:       postgres.NewOfferRepository(db),
		transactions: postgres.NewTransactionRepository(db),
		values:       postgres.NewAssetValueRepository(db),
		close:        db.Close,
	}, nil
}

func shutdown(httpServer *http.Server, grpcServer *grpclib.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}
