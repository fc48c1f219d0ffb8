package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormListingMappingRepository implements ListingMappingRepository using GORM
type GormListingMappingRepository struct {
	db *gorm.DB
}

// NewGormListingMappingRepository creates a new GormListingMappingRepository
func NewGormListingMappingRepository(db *gorm.DB) *GormListingMappingRepository {
	return &GormListingMappingRepository{db: db}
}

// FindMatch finds the earliest mapping on the platform matching title or sku.
// Blank arguments take no part; when both are blank nothing matches.
func (r *GormListingMappingRepository) FindMatch(ctx context.Context, platform marketplace.Platform, title, sku string) (*catalog.ListingMapping, error) {
	conds := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if title != "" {
		conds = append(conds, "external_title = ?")
		args = append(args, title)
	}
	if sku != "" {
		conds = append(conds, "external_sku = ?")
		args = append(args, sku)
	}
	if len(conds) == 0 {
		return nil, shared.ErrNotFound
	}

	var model models.ListingMappingModel
	err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("created_at, id").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a mapping by its ID
func (r *GormListingMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ListingMapping, error) {
	var model models.ListingMappingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists mappings matching the filter, newest first
func (r *GormListingMappingRepository) FindAll(ctx context.Context, filter catalog.MappingFilter) ([]catalog.ListingMapping, error) {
	query := r.db.WithContext(ctx).Model(&models.ListingMappingModel{})
	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.ListingID != nil {
		query = query.Where("listing_id = ?", *filter.ListingID)
	}

	var rows []models.ListingMappingModel
	if err := query.Order("created_at DESC, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	mappings := make([]catalog.ListingMapping, len(rows))
	for i := range rows {
		mappings[i] = *rows[i].ToDomain()
	}
	return mappings, nil
}

// Save creates a mapping
func (r *GormListingMappingRepository) Save(ctx context.Context, mapping *catalog.ListingMapping) error {
	model := &models.ListingMappingModel{}
	model.FromDomain(mapping)
	return r.db.WithContext(ctx).Create(model).Error
}

// Delete deletes a mapping
func (r *GormListingMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ListingMappingModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormListingMappingRepository implements ListingMappingRepository
var _ catalog.ListingMappingRepository = (*GormListingMappingRepository)(nil)
