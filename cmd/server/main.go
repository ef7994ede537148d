package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/application/exchange"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/infrastructure/storage"
	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("path", db.Path()))

	// Run the legacy key migration before anything touches the schema.
	snapshotter := persistence.NewFileSnapshotter(db, cfg.Database.BackupDir, log)
	migrator := migration.NewMigrator(db.DB, snapshotter, log)
	if result, err := migrator.Run(context.Background()); err != nil {
		log.Fatal("Schema migration failed", zap.Error(err))
	} else if result.Migrated {
		log.Info("Schema migration completed", zap.Any("row_counts", result.RowCounts))
	}

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Initialize repositories
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	expenseCategoryRepo := persistence.NewGormExpenseCategoryRepository(db.DB)
	stockMovementRepo := persistence.NewGormStockMovementRepository(db.DB)
	bulkPricingRepo := persistence.NewGormBulkPricingRepository(db.DB)

	// Export artifacts are written next to the store
	exportStore, err := storage.NewLocalFileStore(cfg.Export.Dir, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize export storage", zap.Error(err))
	}

	// Initialize pipelines
	validator := migration.NewValidator(db.DB, log)
	exporter := exchange.NewExporter(categoryRepo, supplierRepo, productRepo,
		customerRepo, saleRepo, expenseRepo, expenseCategoryRepo,
		stockMovementRepo, bulkPricingRepo, exportStore, log)
	importer := exchange.NewImporter(categoryRepo, supplierRepo, productRepo,
		customerRepo, saleRepo, expenseRepo, expenseCategoryRepo,
		stockMovementRepo, bulkPricingRepo, log)

	// Initialize HTTP handlers
	migrationHandler := handler.NewMigrationHandler(migrator, validator, log)
	exchangeHandler := handler.NewExchangeHandler(exporter, importer, validator, log)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler)
	r.Register(migrationHandler)
	r.Register(exchangeHandler)
	r.Setup()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
