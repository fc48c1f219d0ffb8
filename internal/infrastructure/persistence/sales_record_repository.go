package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesRecordRepository implements SalesRecordRepository using GORM
type GormSalesRecordRepository struct {
	db *gorm.DB
}

// NewGormSalesRecordRepository creates a new GormSalesRecordRepository
func NewGormSalesRecordRepository(db *gorm.DB) *GormSalesRecordRepository {
	return &GormSalesRecordRepository{db: db}
}

// Upsert inserts the record or overwrites the UpsertColumns of the row with
// the same platform order id
func (r *GormSalesRecordRepository) Upsert(ctx context.Context, record *sales.SalesRecord) error {
	model := &models.SalesRecordModel{}
	model.FromDomain(record)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform_order_id"}},
			DoUpdates: clause.AssignmentColumns(sales.UpsertColumns),
		}).
		Create(model).Error
}

// FindByStoreAndOrderIDs returns the store's rows among the given order ids
func (r *GormSalesRecordRepository) FindByStoreAndOrderIDs(ctx context.Context, storeID uuid.UUID, orderIDs []string) ([]sales.SalesRecord, error) {
	if len(orderIDs) == 0 {
		return []sales.SalesRecord{}, nil
	}

	var rows []models.SalesRecordModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND platform_order_id IN ?", storeID, orderIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]sales.SalesRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Ensure GormSalesRecordRepository implements SalesRecordRepository
var _ sales.SalesRecordRepository = (*GormSalesRecordRepository)(nil)
