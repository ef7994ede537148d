package exchange

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_ClassifySupplier(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	detector := store.newDetector()

	existing := store.seedSupplier(t, "Tech Corp")

	t.Run("identical record matches clean", func(t *testing.T) {
		m, err := detector.ClassifySupplier(ctx, &SupplierRecord{
			ID: existing.ID.String(), Name: "Tech Corp",
		})
		require.NoError(t, err)
		require.NotNil(t, m.existing)
		assert.Nil(t, m.conflict)
	})

	t.Run("identifier match beats a diverging name", func(t *testing.T) {
		m, err := detector.ClassifySupplier(ctx, &SupplierRecord{
			ID: existing.ID.String(), Name: "Renamed Corp",
		})
		require.NoError(t, err)
		require.NotNil(t, m.existing)
		require.NotNil(t, m.conflict)
		assert.Equal(t, ClassUUIDConflict, m.conflict.Classification)
		assert.Equal(t, MatchedByUUID, m.conflict.MatchedBy)
	})

	t.Run("foreign identifier falls through to the name", func(t *testing.T) {
		// "sup-2" is not a UUID of this store, so only the natural key
		// can match.
		m, err := detector.ClassifySupplier(ctx, &SupplierRecord{
			ID: "sup-2", Name: "Tech Corp",
		})
		require.NoError(t, err)
		require.NotNil(t, m.existing)
		require.NotNil(t, m.conflict)
		assert.Equal(t, ClassNameConflict, m.conflict.Classification)
		assert.Equal(t, MatchedByName, m.conflict.MatchedBy)
		assert.Equal(t, existing.ID, m.existing.ID)
	})

	t.Run("validation runs before any matching", func(t *testing.T) {
		m, err := detector.ClassifySupplier(ctx, &SupplierRecord{
			ID: existing.ID.String(), Name: "",
		})
		require.NoError(t, err)
		assert.Nil(t, m.existing)
		require.NotNil(t, m.conflict)
		assert.Equal(t, ClassValidationFailed, m.conflict.Classification)
	})

	t.Run("unknown record is new", func(t *testing.T) {
		m, err := detector.ClassifySupplier(ctx, &SupplierRecord{Name: "Fresh Corp"})
		require.NoError(t, err)
		assert.Nil(t, m.existing)
		assert.Nil(t, m.conflict)
	})
}

func TestDetector_ClassifyProduct(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	detector := store.newDetector()

	category := store.seedCategory(t, "Beverages")
	existing := store.seedProduct(t, "Cola", "1.50", category.ID)
	require.NoError(t, existing.SetBarcode("4001234567890"))
	require.NoError(t, store.products.Save(ctx, existing))

	t.Run("negative price fails validation", func(t *testing.T) {
		m, err := detector.ClassifyProduct(ctx, &ProductRecord{
			Name: "Broken", Price: decimal.RequireFromString("-1"),
		})
		require.NoError(t, err)
		require.NotNil(t, m.conflict)
		assert.Equal(t, ClassValidationFailed, m.conflict.Classification)
	})

	t.Run("barcode decides the natural-key match", func(t *testing.T) {
		m, err := detector.ClassifyProduct(ctx, &ProductRecord{
			Name: "Cola", Barcode: "4001234567890", Price: decimal.RequireFromString("1.60"),
		})
		require.NoError(t, err)
		require.NotNil(t, m.conflict)
		assert.Equal(t, ClassNameConflict, m.conflict.Classification)
		assert.Equal(t, MatchedByBarcode, m.conflict.MatchedBy)
	})

	t.Run("same name with a different barcode is a new product", func(t *testing.T) {
		m, err := detector.ClassifyProduct(ctx, &ProductRecord{
			Name: "Cola", Barcode: "9999999999999", Price: decimal.RequireFromString("1.50"),
		})
		require.NoError(t, err)
		assert.Nil(t, m.existing)
		assert.Nil(t, m.conflict)
	})

	t.Run("barcodeless records match by name alone", func(t *testing.T) {
		m, err := detector.ClassifyProduct(ctx, &ProductRecord{
			Name: "Cola", Price: decimal.RequireFromString("1.50"),
		})
		require.NoError(t, err)
		require.NotNil(t, m.conflict)
		assert.Equal(t, MatchedByName, m.conflict.MatchedBy)
	})
}

func TestDetector_ClassifySale(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	detector := store.newDetector()

	items := []SaleItemRecord{{ProductName: "Cola", Quantity: 2, UnitPrice: decimal.RequireFromString("1.50")}}

	t.Run("sales without items fail validation", func(t *testing.T) {
		m, err := detector.ClassifySale(ctx, &SaleRecord{})
		require.NoError(t, err)
		require.NotNil(t, m.conflict)
		assert.Equal(t, ClassValidationFailed, m.conflict.Classification)
	})

	t.Run("unknown sales are new", func(t *testing.T) {
		m, err := detector.ClassifySale(ctx, &SaleRecord{Items: items})
		require.NoError(t, err)
		assert.Nil(t, m.existing)
		assert.Nil(t, m.conflict)
	})
}

func TestDetector_DetectAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	detector := store.newDetector()

	store.seedSupplier(t, "Tech Corp")

	report, err := detector.DetectAll(ctx, &DataSet{
		Categories: []CategoryRecord{{Name: "Beverages"}},
		Suppliers: []SupplierRecord{
			{ID: "sup-2", Name: "Tech Corp"},
			{Name: ""},
		},
	})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts())
	assert.Empty(t, report.ByEntity["categories"])
	require.Len(t, report.ByEntity["suppliers"], 2)
	assert.Equal(t, ClassNameConflict, report.ByEntity["suppliers"][0].Classification)
	assert.Equal(t, ClassValidationFailed, report.ByEntity["suppliers"][1].Classification)
}
