package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	categorizationhandler "github.com/FACorreiaa/statement-tracker/internal/domain/categorization/handler"
	importhandler "github.com/FACorreiaa/statement-tracker/internal/domain/import/handler"
	importrepo "github.com/FACorreiaa/statement-tracker/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/statement-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/statement-tracker/internal/domain/insights"
	insightshandler "github.com/FACorreiaa/statement-tracker/internal/domain/insights/handler"
	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
	transactionshandler "github.com/FACorreiaa/statement-tracker/internal/domain/transactions/handler"

	"github.com/FACorreiaa/statement-tracker/pkg/config"
	"github.com/FACorreiaa/statement-tracker/pkg/db"
	"github.com/FACorreiaa/statement-tracker/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Repositories
	ImportRepo         importrepo.ImportRepository
	CategorizationRepo *categorization.Repository
	TransactionsRepo   *transactions.Repository
	InsightsRepo       *insights.Repository

	// Services
	ImportService         *importservice.ImportService
	CategorizationService *categorization.Service
	TransactionsService   *transactions.Service
	InsightsService       *insights.Service

	// Handlers
	ImportHandler         *importhandler.ImportHandler
	CategorizationHandler *categorizationhandler.CategorizationHandler
	TransactionsHandler   *transactionshandler.TransactionsHandler
	InsightsHandler       *insightshandler.InsightsHandler
}

// InitDependencies connects to the database, applies migrations and
// builds every layer on top of the pool.
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.wire(deps.DB.Pool)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        int32(d.Config.Database.MinConns),
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// wire builds repositories, services and handlers over pool.
func (d *Dependencies) wire(pool db.Pool) {
	d.initRepositories(pool)
	d.initServices()
	d.initHandlers()
}

func (d *Dependencies) initRepositories(pool db.Pool) {
	d.ImportRepo = importrepo.NewPostgresImportRepository(pool)
	d.CategorizationRepo = categorization.NewRepository(pool)
	d.TransactionsRepo = transactions.NewRepository(pool)
	d.InsightsRepo = insights.NewRepository(pool)
}

func (d *Dependencies) initServices() {
	d.CategorizationService = categorization.NewService(d.CategorizationRepo, d.Logger)

	d.ImportService = importservice.NewImportService(d.ImportRepo, d.Logger).
		WithCategorizationService(newCategorizationAdapter(d.CategorizationService)).
		WithMetrics(d.Metrics)

	d.TransactionsService = transactions.NewService(d.TransactionsRepo, d.Logger).
		WithMappings(d.CategorizationService)

	// hierarchical dashboards resolve through the live mappings
	d.InsightsService = insights.NewService(d.InsightsRepo, d.CategorizationService, d.Logger)
}

func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Config.Import.MaxUploadBytes, d.Logger)
	d.CategorizationHandler = categorizationhandler.NewCategorizationHandler(d.CategorizationService, d.Logger)
	d.TransactionsHandler = transactionshandler.NewTransactionsHandler(d.TransactionsService, d.Logger)
	d.InsightsHandler = insightshandler.NewInsightsHandler(d.InsightsService, d.Logger)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
}
