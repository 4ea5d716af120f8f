package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hendrawn/invoice-monitoring/internal/application/service"
	"github.com/hendrawn/invoice-monitoring/internal/config"
	"github.com/hendrawn/invoice-monitoring/internal/infrastructure/persistence/repository"
	"github.com/hendrawn/invoice-monitoring/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/hendrawn/invoice-monitoring/internal/interfaces/http"
	"github.com/hendrawn/invoice-monitoring/pkg/database"
	"github.com/hendrawn/invoice-monitoring/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice monitoring service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Wire persistence
	txDB := sqlite.NewDB(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(txDB, logger)
	historyRepo := repository.NewHistoryRepository(txDB, logger)
	userRepo := repository.NewUserRepository(txDB, logger)

	// Wire services
	kvLogger := utils.NewKVLogger(logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, historyRepo, txDB, kvLogger)
	authService := service.NewAuthService(userRepo, service.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}, kvLogger)
	exportService := service.NewExportService(invoiceRepo, kvLogger)

	// Wire HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, invoiceService, authService, exportService, kvLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
