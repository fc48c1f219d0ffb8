package persistence

import (
	"context"
	"errors"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormListingRepository implements ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing with its store
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).Preload("Store").Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStore lists a store's listings with their products
func (r *GormListingRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]catalog.Listing, error) {
	var rows []models.ListingModel
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("store_id = ?", storeID).
		Order("store_title, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	listings := make([]catalog.Listing, len(rows))
	for i := range rows {
		listings[i] = *rows[i].ToDomain()
	}
	return listings, nil
}

// FindByStoreTitle finds the earliest listing titled exactly title on a store of the platform
func (r *GormListingRepository) FindByStoreTitle(ctx context.Context, platform marketplace.Platform, title string) (*catalog.Listing, error) {
	return r.findOnPlatform(ctx, platform, r.db.Where("listings.store_title = ?", title))
}

// FindByProductCode finds the earliest listing with the external product code on a store of the platform
func (r *GormListingRepository) FindByProductCode(ctx context.Context, platform marketplace.Platform, code string) (*catalog.Listing, error) {
	return r.findOnPlatform(ctx, platform, r.db.Where("listings.product_code = ?", code))
}

// FindByProductSKU finds the earliest listing whose product has the internal SKU on a store of the platform
func (r *GormListingRepository) FindByProductSKU(ctx context.Context, platform marketplace.Platform, sku string) (*catalog.Listing, error) {
	return r.findOnPlatform(ctx, platform, r.db.
		Where("listings.product_id IN (?)", r.db.Model(&models.ProductModel{}).Select("id").Where("sku = ?", sku)))
}

func (r *GormListingRepository) findOnPlatform(ctx context.Context, platform marketplace.Platform, cond *gorm.DB) (*catalog.Listing, error) {
	var model models.ListingModel
	err := r.db.WithContext(ctx).
		Select("listings.*").
		Joins("JOIN stores ON stores.id = listings.store_id").
		Where("stores.platform = ?", platform).
		Where(cond).
		Order("listings.created_at, listings.id").
		Preload("Store").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormListingRepository implements ListingRepository
var _ catalog.ListingRepository = (*GormListingRepository)(nil)
