package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBulkPricingRepository implements catalog.BulkPricingRepository using GORM
type GormBulkPricingRepository struct {
	db *gorm.DB
}

// NewGormBulkPricingRepository creates a new GormBulkPricingRepository
func NewGormBulkPricingRepository(db *gorm.DB) *GormBulkPricingRepository {
	return &GormBulkPricingRepository{db: db}
}

// FindByID finds a tier by its ID
func (r *GormBulkPricingRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.BulkPricingTier, error) {
	var tier catalog.BulkPricingTier
	if err := r.db.WithContext(ctx).First(&tier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tier, nil
}

// FindByProduct returns all tiers for a product, lowest threshold first
func (r *GormBulkPricingRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.BulkPricingTier, error) {
	var tiers []catalog.BulkPricingTier
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("min_quantity ASC").
		Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// ExistsForThreshold checks whether the product already has a tier at the threshold
func (r *GormBulkPricingRepository) ExistsForThreshold(ctx context.Context, productID uuid.UUID, minQuantity int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.BulkPricingTier{}).
		Where("product_id = ? AND min_quantity = ?", productID, minQuantity).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll returns all tiers
func (r *GormBulkPricingRepository) FindAll(ctx context.Context) ([]catalog.BulkPricingTier, error) {
	var tiers []catalog.BulkPricingTier
	if err := r.db.WithContext(ctx).Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// Save creates or updates a tier. At most one tier may exist per distinct
// threshold per product.
func (r *GormBulkPricingRepository) Save(ctx context.Context, tier *catalog.BulkPricingTier) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.BulkPricingTier{}).
		Where("product_id = ? AND min_quantity = ? AND id <> ?", tier.ProductID, tier.MinQuantity, tier.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("DUPLICATE_THRESHOLD", "Product already has a bulk pricing tier for this quantity")
	}
	return r.db.WithContext(ctx).Save(tier).Error
}

// Delete deletes a tier
func (r *GormBulkPricingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.BulkPricingTier{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts all tiers
func (r *GormBulkPricingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.BulkPricingTier{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormBulkPricingRepository implements catalog.BulkPricingRepository
var _ catalog.BulkPricingRepository = (*GormBulkPricingRepository)(nil)
