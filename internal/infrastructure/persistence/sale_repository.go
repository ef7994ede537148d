package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its items
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var sale trade.Sale
	if err := r.db.WithContext(ctx).Preload("Items").First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll returns all sales without preloading items
func (r *GormSaleRepository) FindAll(ctx context.Context) ([]trade.Sale, error) {
	var sales []trade.Sale
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// FindItemsBySale returns the line items of one sale
func (r *GormSaleRepository) FindItemsBySale(ctx context.Context, saleID uuid.UUID) ([]trade.SaleItem, error) {
	var items []trade.SaleItem
	if err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAllItems returns every sale item
func (r *GormSaleRepository) FindAllItems(ctx context.Context) ([]trade.SaleItem, error) {
	var items []trade.SaleItem
	if err := r.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save writes a sale and its items in one transaction
func (r *GormSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(sale).Error; err != nil {
			return err
		}
		for i := range sale.Items {
			sale.Items[i].SaleID = sale.ID
			if err := tx.Save(&sale.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes a sale; its items cascade with it
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.SaleItem{}, "sale_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.Sale{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts all sales
func (r *GormSaleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&trade.Sale{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountItems counts all sale items
func (r *GormSaleRepository) CountItems(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&trade.SaleItem{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormSaleRepository implements trade.SaleRepository
var _ trade.SaleRepository = (*GormSaleRepository)(nil)
