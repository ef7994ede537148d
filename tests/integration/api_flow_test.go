package integration

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/application/exchange"
	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/pos/backend/internal/interfaces/http/dto"
)

func TestHealthEndpoint(t *testing.T) {
	ts := NewTestServer(t)

	rec := ts.Request(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]string
	decodeResponse(t, rec, &data)
	assert.Equal(t, "ok", data["status"])
}

func TestLegacyStoreMigrationOverHTTP(t *testing.T) {
	ts := NewTestServer(t)

	// An integer-keyed store left behind by the previous schema.
	ts.Exec(`CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, description TEXT, created_at DATETIME, updated_at DATETIME)`)
	ts.Exec(`CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, barcode TEXT, price REAL NOT NULL, cost REAL, stock INTEGER, category_id INTEGER NOT NULL, supplier_id INTEGER, image_path TEXT, created_at DATETIME, updated_at DATETIME)`)
	ts.Exec(`INSERT INTO categories (id, name, description) VALUES (1, 'Beverages', 'Cold drinks')`)
	ts.Exec(`INSERT INTO products (id, name, price, category_id) VALUES (1, 'Cola', 1.50, 1)`)

	rec := ts.Request(http.MethodGet, "/api/v1/migration/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]bool
	decodeResponse(t, rec, &status)
	assert.False(t, status["migrated"])

	rec = ts.Request(http.MethodPost, "/api/v1/migration/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result migration.Result
	decodeResponse(t, rec, &result)
	assert.True(t, result.Migrated)
	assert.Equal(t, int64(1), result.RowCounts["categories"])
	assert.Equal(t, int64(1), result.RowCounts["products"])
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.Passed)

	rec = ts.Request(http.MethodGet, "/api/v1/migration/status", nil)
	decodeResponse(t, rec, &status)
	assert.True(t, status["migrated"])

	// Running again is a reported no-op.
	rec = ts.Request(http.MethodPost, "/api/v1/migration/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &result)
	assert.False(t, result.Migrated)

	rec = ts.Request(http.MethodGet, "/api/v1/integrity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report migration.Report
	decodeResponse(t, rec, &report)
	assert.True(t, report.Passed)
}

func TestImportExportFlow(t *testing.T) {
	ts := NewTestServer(t)
	ts.Migrate()

	payload := map[string]any{
		"data": exchange.DataSet{
			Categories: []exchange.CategoryRecord{{Name: "Beverages", Description: "Cold drinks"}},
			Suppliers:  []exchange.SupplierRecord{{Name: "Tech Corp", Phone: "555-0100"}},
			Products: []exchange.ProductRecord{{
				Name:         "Cola",
				Barcode:      "4006381333931",
				Price:        decimal.NewFromFloat(1.50),
				Stock:        24,
				CategoryName: "Beverages",
				SupplierName: "Tech Corp",
			}},
			Customers: []exchange.CustomerRecord{{Name: "Walk-in", Phone: "555-0199"}},
			Sales: []exchange.SaleRecord{{
				CustomerName:  "Walk-in",
				Total:         decimal.NewFromFloat(3.00),
				PaymentMethod: "cash",
				Items: []exchange.SaleItemRecord{{
					ProductName: "Cola",
					Quantity:    2,
					UnitPrice:   decimal.NewFromFloat(1.50),
					Subtotal:    decimal.NewFromFloat(3.00),
				}},
			}},
		},
	}

	rec := ts.Request(http.MethodPost, "/api/v1/import", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var imported struct {
		Result    exchange.ImportResult `json:"result"`
		Integrity migration.Report      `json:"integrity"`
	}
	decodeResponse(t, rec, &imported)
	assert.True(t, imported.Result.Success)
	assert.Equal(t, 6, imported.Result.RecordCount)
	assert.Equal(t, 1, imported.Result.Counts["products"].Inserted)
	assert.True(t, imported.Integrity.Passed)

	rec = ts.Request(http.MethodGet, "/api/v1/export/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var exported exchange.ExportResult
	decodeResponse(t, rec, &exported)
	assert.True(t, exported.Success)
	assert.Equal(t, 6, exported.RecordCount)
	require.NotEmpty(t, exported.FilePath)

	// The export artifact on disk is a versioned envelope.
	raw, err := os.ReadFile(exported.FilePath)
	require.NoError(t, err)
	var envelope exchange.Envelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, "2.0", envelope.Version)
	assert.Equal(t, exchange.ScopeComplete, envelope.DataType)
	assert.Len(t, envelope.Data.Products, 1)
	assert.Len(t, envelope.Data.Sales, 1)
	require.NotNil(t, envelope.Relationships)
	assert.Equal(t, 1, envelope.Integrity.RecordCounts["products"])

	// A scoped export carries only its own entities.
	rec = ts.Request(http.MethodGet, "/api/v1/export/sales", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &exported)
	assert.Equal(t, 2, exported.RecordCount)

	raw, err = os.ReadFile(exported.FilePath)
	require.NoError(t, err)
	var scoped exchange.Envelope
	require.NoError(t, json.Unmarshal(raw, &scoped))
	assert.Equal(t, exchange.ScopeSales, scoped.DataType)
	assert.Len(t, scoped.Data.Sales, 1)
	assert.Empty(t, scoped.Data.Products)
	assert.Nil(t, scoped.Relationships)
}

func TestExportScopeAliasAndErrors(t *testing.T) {
	ts := NewTestServer(t)
	ts.Migrate()

	// "all" is accepted as an alias for the complete scope.
	rec := ts.Request(http.MethodGet, "/api/v1/export/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var exported exchange.ExportResult
	decodeResponse(t, rec, &exported)
	assert.True(t, exported.EmptyExport)

	rec = ts.Request(http.MethodGet, "/api/v1/export/bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeError(t, rec))
}

func TestErrorResponsesCarryRequestID(t *testing.T) {
	ts := NewTestServer(t)
	ts.Migrate()

	rec := ts.Request(http.MethodGet, "/api/v1/export/bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Error *struct {
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.NotEmpty(t, envelope.Error.RequestID)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), envelope.Error.RequestID)
}

func TestImportRejectsMalformedPayload(t *testing.T) {
	ts := NewTestServer(t)
	ts.Migrate()

	req := ts.Request(http.MethodPost, "/api/v1/import", "not an object")
	require.Equal(t, http.StatusBadRequest, req.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeError(t, req))
}
