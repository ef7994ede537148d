package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormBulkPricingRepository_Save(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormBulkPricingRepository(db.DB)

	category := seedCategory(t, db, "Beverages")
	product := seedProduct(t, db, "Cola", "1.50", category.ID)

	tier, err := catalog.NewBulkPricingTier(product, 10, decimal.RequireFromString("1.20"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tier))

	t.Run("second tier at the same threshold is rejected", func(t *testing.T) {
		duplicate, err := catalog.NewBulkPricingTier(product, 10, decimal.RequireFromString("1.10"))
		require.NoError(t, err)

		err = repo.Save(ctx, duplicate)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "DUPLICATE_THRESHOLD", domainErr.Code)
	})

	t.Run("updating the existing tier keeps its threshold", func(t *testing.T) {
		tier.BulkPrice = decimal.RequireFromString("1.15")
		require.NoError(t, repo.Save(ctx, tier))

		saved, err := repo.FindByID(ctx, tier.ID)
		require.NoError(t, err)
		assert.True(t, saved.BulkPrice.Equal(decimal.RequireFromString("1.15")))
	})

	t.Run("distinct thresholds coexist, ordered ascending", func(t *testing.T) {
		higher, err := catalog.NewBulkPricingTier(product, 50, decimal.RequireFromString("1.00"))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, higher))

		tiers, err := repo.FindByProduct(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, tiers, 2)
		assert.Equal(t, 10, tiers[0].MinQuantity)
		assert.Equal(t, 50, tiers[1].MinQuantity)
	})
}
