// Package integration exercises the HTTP surface against a real SQLite
// store, wired the same way cmd/server wires it.
package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
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

// TestServer wraps the store and the HTTP engine for API testing
type TestServer struct {
	DB        *persistence.Database
	Engine    *gin.Engine
	ExportDir string
	t         *testing.T
}

// NewTestServer builds a server over a fresh file-backed store. The
// store starts empty: tests decide whether to lay down the current
// schema (Migrate) or a legacy integer-keyed one before hitting the
// migration endpoints.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Path:        filepath.Join(dir, "pos.db"),
		BackupDir:   filepath.Join(dir, "backups"),
		BusyTimeout: 5000,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	log := zap.NewNop()

	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	expenseCategoryRepo := persistence.NewGormExpenseCategoryRepository(db.DB)
	stockMovementRepo := persistence.NewGormStockMovementRepository(db.DB)
	bulkPricingRepo := persistence.NewGormBulkPricingRepository(db.DB)

	exportDir := filepath.Join(dir, "exports")
	exportStore, err := storage.NewLocalFileStore(exportDir, storage.WithLogger(log))
	require.NoError(t, err)

	snapshotter := persistence.NewFileSnapshotter(db, filepath.Join(dir, "backups"), log)
	migrator := migration.NewMigrator(db.DB, snapshotter, log)
	validator := migration.NewValidator(db.DB, log)

	exporter := exchange.NewExporter(categoryRepo, supplierRepo, productRepo,
		customerRepo, saleRepo, expenseRepo, expenseCategoryRepo,
		stockMovementRepo, bulkPricingRepo, exportStore, log)
	importer := exchange.NewImporter(categoryRepo, supplierRepo, productRepo,
		customerRepo, saleRepo, expenseRepo, expenseCategoryRepo,
		stockMovementRepo, bulkPricingRepo, log)

	engine := gin.New()
	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(db))
	r.Register(handler.NewMigrationHandler(migrator, validator, log))
	r.Register(handler.NewExchangeHandler(exporter, importer, validator, log))
	r.Setup()

	return &TestServer{
		DB:        db,
		Engine:    engine,
		ExportDir: exportDir,
		t:         t,
	}
}

// Migrate lays down the current UUID schema
func (ts *TestServer) Migrate() {
	ts.t.Helper()
	require.NoError(ts.t, ts.DB.AutoMigrate())
}

// Exec runs raw SQL against the store, failing the test on error
func (ts *TestServer) Exec(sql string, args ...any) {
	ts.t.Helper()
	require.NoError(ts.t, ts.DB.DB.Exec(sql, args...).Error)
}

// Request makes an HTTP request against the engine and returns the recorder
func (ts *TestServer) Request(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	ts.Engine.ServeHTTP(rec, req)
	return rec
}

// decodeResponse unmarshals the standard response envelope with Data
// decoded into out
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success, got error: %+v", envelope.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

// decodeError unmarshals a failed response envelope and returns the
// error code
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}
