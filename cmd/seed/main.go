// Command seed populates the database with the default user accounts and
// a handful of sample invoices for local development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hendrawn/invoice-monitoring/internal/application/service"
	"github.com/hendrawn/invoice-monitoring/internal/config"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
	"github.com/hendrawn/invoice-monitoring/internal/infrastructure/persistence/repository"
	"github.com/hendrawn/invoice-monitoring/internal/infrastructure/persistence/sqlite"
	"github.com/hendrawn/invoice-monitoring/pkg/database"
	"github.com/hendrawn/invoice-monitoring/pkg/utils"
)

type seedUser struct {
	email    string
	name     string
	password string
	role     entity.Role
}

var seedUsers = []seedUser{
	{"admin@monitoring.com", "Super Administrator", "admin123", entity.RoleSuperAdmin},
	{"manager@monitoring.com", "Manager", "manager123", entity.RoleManager},
	{"staff@monitoring.com", "Staff User", "staff123", entity.RoleStaff},
}

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "info", OutputPath: "stdout", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

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

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txDB := sqlite.NewDB(db.DB, logger)
	userRepo := repository.NewUserRepository(txDB, logger)
	invoiceRepo := repository.NewInvoiceRepository(txDB, logger)
	historyRepo := repository.NewHistoryRepository(txDB, logger)
	kvLogger := utils.NewKVLogger(logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, historyRepo, txDB, kvLogger)

	ctx := context.Background()

	users := make(map[entity.Role]*entity.User)
	for _, su := range seedUsers {
		existing, err := userRepo.GetByEmail(ctx, su.email)
		if err != nil {
			logger.Fatal("Failed to look up user", zap.String("email", su.email), zap.Error(err))
		}
		if existing != nil {
			logger.Info("User already exists", zap.String("email", su.email))
			users[su.role] = existing
			continue
		}

		hash, err := service.HashPassword(su.password)
		if err != nil {
			logger.Fatal("Failed to hash password", zap.Error(err))
		}
		user := &entity.User{
			ID:           uuid.NewString(),
			Email:        su.email,
			Name:         su.name,
			PasswordHash: hash,
			Role:         su.role,
			CreatedAt:    time.Now().UTC(),
		}
		if err := userRepo.Create(ctx, user); err != nil {
			logger.Fatal("Failed to create user", zap.String("email", su.email), zap.Error(err))
		}
		logger.Info("User created", zap.String("email", su.email), zap.String("role", string(su.role)))
		users[su.role] = user
	}

	samples := []struct {
		input service.CreateInvoiceInput
		role  entity.Role
	}{
		{
			input: service.CreateInvoiceInput{
				InvoiceNumber: "INV-2025-001",
				ClientName:    "PT. Global Solution",
				IssueDate:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
				DueDate:       time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
				TotalAmount:   25000000,
				Currency:      "IDR",
				Description:   "Jasa konsultasi IT bulan Januari",
				JobTitle:      "Konsultasi IT Infrastructure",
				WorkPeriod:    "Januari 2025 - Maret 2025",
				Position:      entity.PositionMitra,
				WorkRegion:    "BALIKPAPAN",
			},
			role: entity.RoleSuperAdmin,
		},
		{
			input: service.CreateInvoiceInput{
				InvoiceNumber: "INV-2025-002",
				ClientName:    "PT. Teknologi Indonesia",
				IssueDate:     time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
				DueDate:       time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC),
				TotalAmount:   15000000,
				Currency:      "IDR",
				Description:   "Pengembangan aplikasi mobile",
				JobTitle:      "Pengembangan Mobile App",
				WorkPeriod:    "Februari 2025 - April 2025",
				Position:      entity.PositionUser,
				WorkRegion:    "TARAKAN",
			},
			role: entity.RoleManager,
		},
		{
			input: service.CreateInvoiceInput{
				InvoiceNumber: "INV-2025-003",
				ClientName:    "CV. Digital Nusantara",
				IssueDate:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
				DueDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				TotalAmount:   30000000,
				Currency:      "IDR",
				Description:   "Website development package",
				JobTitle:      "Pengembangan Web Application",
				WorkPeriod:    "Maret 2025 - Mei 2025",
				Position:      entity.PositionArea,
				WorkRegion:    "SAMARINDA",
			},
			role: entity.RoleStaff,
		},
	}

	for _, sample := range samples {
		existing, err := invoiceRepo.GetByNumber(ctx, sample.input.InvoiceNumber)
		if err != nil {
			logger.Fatal("Failed to look up invoice", zap.Error(err))
		}
		if existing != nil {
			logger.Info("Invoice already exists", zap.String("invoice_number", sample.input.InvoiceNumber))
			continue
		}

		actor := users[sample.role].Actor()
		if _, err := invoiceService.Create(ctx, sample.input, actor); err != nil {
			logger.Fatal("Failed to create invoice", zap.String("invoice_number", sample.input.InvoiceNumber), zap.Error(err))
		}
		logger.Info("Invoice created", zap.String("invoice_number", sample.input.InvoiceNumber))
	}

	logger.Info("Database seeded successfully")
}
