package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/trade"
)

// memFileStore captures written export files in memory
type memFileStore struct {
	files map[string][]byte
	last  string
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[string][]byte)}
}

func (s *memFileStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	s.files[name] = data
	s.last = name
	return "/exports/" + name, nil
}

// countingProductRepo counts FindAll calls to observe scope isolation
type countingProductRepo struct {
	catalog.ProductRepository
	findAll int
}

func (r *countingProductRepo) FindAll(ctx context.Context) ([]catalog.Product, error) {
	r.findAll++
	return r.ProductRepository.FindAll(ctx)
}

type countingCustomerRepo struct {
	partner.CustomerRepository
	findAll int
}

func (r *countingCustomerRepo) FindAll(ctx context.Context) ([]partner.Customer, error) {
	r.findAll++
	return r.CustomerRepository.FindAll(ctx)
}

type countingExpenseRepo struct {
	finance.ExpenseRepository
	findAll int
}

func (r *countingExpenseRepo) FindAll(ctx context.Context) ([]finance.Expense, error) {
	r.findAll++
	return r.ExpenseRepository.FindAll(ctx)
}

func seedTradingDay(t *testing.T, store *testStore) (*catalog.Product, *partner.Customer) {
	t.Helper()
	ctx := context.Background()

	category := store.seedCategory(t, "Beverages")
	supplier := store.seedSupplier(t, "Tech Corp")
	product := store.seedProduct(t, "Cola", "1.50", category.ID)
	product.SetSupplier(&supplier.ID)
	require.NoError(t, store.products.Save(ctx, product))

	customer, err := partner.NewCustomer("Dana")
	require.NoError(t, err)
	require.NoError(t, store.customers.Save(ctx, customer))

	item, err := trade.NewSaleItem(product.ID, product.Name, 2, product.Price)
	require.NoError(t, err)
	sale, err := trade.NewSale(&customer.ID, "cash", []trade.SaleItem{*item})
	require.NoError(t, err)
	require.NoError(t, store.sales.Save(ctx, sale))

	return product, customer
}

func TestExporter_ExportAll(t *testing.T) {
	store := newTestStore(t)
	files := newMemFileStore()
	exporter := store.newExporter(files)

	product, customer := seedTradingDay(t, store)

	var reports []Progress
	result, err := exporter.ExportAll(context.Background(), func(p Progress) {
		reports = append(reports, p)
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.EmptyExport)
	// category, supplier, product, customer, sale, sale item
	assert.Equal(t, 6, result.RecordCount)
	assert.Contains(t, result.FilePath, "pos-export-complete-")

	var envelope Envelope
	require.NoError(t, json.Unmarshal(files.files[files.last], &envelope))

	t.Run("envelope carries version and metadata", func(t *testing.T) {
		assert.Equal(t, EnvelopeVersion, envelope.Version)
		assert.Equal(t, ScopeComplete, envelope.DataType)
		assert.Equal(t, 6, envelope.Metadata.RecordCount)
		assert.Equal(t, 6, envelope.Metadata.ActualRecordCount)
		assert.False(t, envelope.Metadata.EmptyExport)
		assert.Positive(t, envelope.Metadata.FileSize)
		assert.Len(t, envelope.Metadata.Checksum, 64)
		assert.Equal(t, envelope.Metadata.Checksum, envelope.Integrity.Checksum)
		assert.WithinDuration(t, time.Now(), envelope.ExportDate, time.Minute)
	})

	t.Run("integrity section names the validation rules", func(t *testing.T) {
		assert.Equal(t, map[string]int{
			"categories": 1, "suppliers": 1, "products": 1,
			"customers": 1, "sales": 1, "saleItems": 1,
		}, envelope.Integrity.RecordCounts)
		assert.Equal(t, []string{"uuid_format", "foreign_keys", "data_integrity"},
			envelope.Integrity.ValidationRules)
	})

	t.Run("relationships map identifiers to display names", func(t *testing.T) {
		require.NotNil(t, envelope.Relationships)
		assert.Equal(t, "Beverages", envelope.Relationships.ProductCategories[product.ID.String()])
		assert.Equal(t, "Tech Corp", envelope.Relationships.ProductSuppliers[product.ID.String()])
		require.Len(t, envelope.Relationships.SaleCustomers, 1)
		for _, name := range envelope.Relationships.SaleCustomers {
			assert.Equal(t, customer.Name, name)
		}
	})

	t.Run("sale items ride inside their sale", func(t *testing.T) {
		require.Len(t, envelope.Data.Sales, 1)
		require.Len(t, envelope.Data.Sales[0].Items, 1)
		assert.Equal(t, product.ID.String(), envelope.Data.Sales[0].Items[0].ProductID)
	})

	t.Run("progress ends complete at full", func(t *testing.T) {
		require.NotEmpty(t, reports)
		last := reports[len(reports)-1]
		assert.Equal(t, "complete", last.Stage)
		assert.Equal(t, 100.0, last.Percentage)
	})
}

func TestExporter_ScopedExportTouchesOnlyItsRepositories(t *testing.T) {
	store := newTestStore(t)
	seedTradingDay(t, store)

	products := &countingProductRepo{ProductRepository: store.products}
	customers := &countingCustomerRepo{CustomerRepository: store.customers}
	expenses := &countingExpenseRepo{ExpenseRepository: store.expenses}

	files := newMemFileStore()
	exporter := NewExporter(store.categories, store.suppliers, products,
		customers, store.sales, expenses, store.expenseCategories,
		store.stockMovements, store.bulkPricing, files, zap.NewNop())

	result, err := exporter.ExportSales(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RecordCount)
	assert.Zero(t, products.findAll)
	assert.Zero(t, customers.findAll)
	assert.Zero(t, expenses.findAll)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(files.files[files.last], &envelope))
	assert.Equal(t, ScopeSales, envelope.DataType)
	assert.Nil(t, envelope.Relationships)
	assert.Empty(t, envelope.Data.Products)
	assert.Empty(t, envelope.Data.Customers)
}

func TestExporter_EmptyScopeSucceeds(t *testing.T) {
	store := newTestStore(t)
	files := newMemFileStore()
	exporter := store.newExporter(files)

	result, err := exporter.ExportCustomers(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.EmptyExport)
	assert.Zero(t, result.RecordCount)
	assert.NotEmpty(t, result.FilePath)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(files.files[files.last], &envelope))
	assert.True(t, envelope.Metadata.EmptyExport)
	assert.Empty(t, envelope.Integrity.RecordCounts)
}

func TestExporter_UnknownScope(t *testing.T) {
	store := newTestStore(t)
	exporter := store.newExporter(newMemFileStore())

	_, err := exporter.Export(context.Background(), Scope("everything"), nil)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_SCOPE", domainErr.Code)
}

func TestExporter_RoundTripKeepsCounts(t *testing.T) {
	ctx := context.Background()
	source := newTestStore(t)
	files := newMemFileStore()
	seedTradingDay(t, source)

	expenseCategory, err := finance.NewExpenseCategory("Utilities", "")
	require.NoError(t, err)
	require.NoError(t, source.expenseCategories.Save(ctx, expenseCategory))
	expense, err := finance.NewExpense(expenseCategory.ID, "Electricity",
		decimal.RequireFromString("80.00"), time.Now())
	require.NoError(t, err)
	require.NoError(t, source.expenses.Save(ctx, expense))

	result, err := source.newExporter(files).ExportAll(ctx, nil)
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(files.files[files.last], &envelope))

	// A fresh store importing the exported data ends up with every record.
	target := newTestStore(t)
	imported, err := target.newImporter().Import(ctx, &envelope.Data, nil)
	require.NoError(t, err)

	assert.True(t, imported.Success)
	assert.Equal(t, result.RecordCount, imported.RecordCount)
	assert.Empty(t, imported.Conflicts)

	for entity, count := range envelope.Integrity.RecordCounts {
		if entity == "saleItems" {
			continue
		}
		require.Contains(t, imported.Counts, entity)
		assert.Equal(t, count, imported.Counts[entity].Inserted, entity)
	}

	t.Run("references survive the round trip", func(t *testing.T) {
		products, err := target.products.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, products, 1)
		_, err = target.categories.FindByID(ctx, products[0].CategoryID)
		assert.NoError(t, err)

		items, err := target.sales.FindAllItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].ProductID)
		assert.Equal(t, products[0].ID, *items[0].ProductID)
	})
}

func TestExporter_ExportDistinctScopes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	files := newMemFileStore()
	exporter := store.newExporter(files)

	product, _ := seedTradingDay(t, store)
	movement, err := inventory.NewStockMovement(product.ID, inventory.MovementIn, 12, "restock")
	require.NoError(t, err)
	require.NoError(t, store.stockMovements.Save(ctx, movement))

	scoped, err := exporter.ExportStockMovements(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, scoped.RecordCount)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(files.files[files.last], &envelope))
	assert.Equal(t, ScopeStockMovements, envelope.DataType)
	require.Len(t, envelope.Data.StockMovements, 1)
	assert.Equal(t, product.ID.String(), envelope.Data.StockMovements[0].ProductID)
	assert.Empty(t, envelope.Data.Products)
}
