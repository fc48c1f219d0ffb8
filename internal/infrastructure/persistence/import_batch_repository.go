package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/datascope"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// countryOfBatch matches batches owning a ledger row of a store in a country
const countryOfBatch = "EXISTS (SELECT 1 FROM sales_data sd JOIN stores s ON s.id = sd.store_id " +
	"WHERE sd.import_batch_id = import_batches.id AND s.country_code = ?)"

// GormImportBatchRepository implements ImportBatchRepository using GORM
type GormImportBatchRepository struct {
	db *gorm.DB
}

// NewGormImportBatchRepository creates a new GormImportBatchRepository
func NewGormImportBatchRepository(db *gorm.DB) *GormImportBatchRepository {
	return &GormImportBatchRepository{db: db}
}

// Create inserts a new batch
func (r *GormImportBatchRepository) Create(ctx context.Context, batch *sales.ImportBatch) error {
	model := &models.ImportBatchModel{}
	model.FromDomain(batch)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveOutcome persists the outcome columns of a batch
func (r *GormImportBatchRepository) SaveOutcome(ctx context.Context, batch *sales.ImportBatch) error {
	errorDetails, err := batch.ErrorDetailsJSON()
	if err != nil {
		return fmt.Errorf("failed to encode error details: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&models.ImportBatchModel{}).
		Where("id = ?", batch.ID).
		Updates(map[string]any{
			"total_items":   batch.TotalItems,
			"success_count": batch.SuccessCount,
			"failed_count":  batch.FailedCount,
			"error_details": errorDetails,
			"updated_at":    batch.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a batch by its ID
func (r *GormImportBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.ImportBatch, error) {
	var model models.ImportBatchModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SampledCountry returns the country code of the store of the batch's
// lowest-id ledger row, or "" when the batch owns no rows
func (r *GormImportBatchRepository) SampledCountry(ctx context.Context, batchID uuid.UUID) (string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Table("sales_data").
		Select("stores.country_code").
		Joins("JOIN stores ON stores.id = sales_data.store_id").
		Where("sales_data.import_batch_id = ?", batchID).
		Order("sales_data.id").
		Limit(1).
		Pluck("stores.country_code", &codes).Error
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}

// List returns visible batches matching the filter, newest first
func (r *GormImportBatchRepository) List(ctx context.Context, filter sales.BatchFilter, visibility sales.Visibility, page shared.Page) (shared.Paginated[sales.BatchSummary], error) {
	scope := datascope.NewFilter(visibility)
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.ImportBatchModel{}).
			Scopes(scope.ApplyToQuery(datascope.ResourceImportBatch))
		if filter.Platform != "" {
			q = q.Where("import_batches.platform = ?", filter.Platform)
		}
		if filter.ImportedByID != nil {
			q = q.Where("import_batches.imported_by_id = ?", *filter.ImportedByID)
		}
		if filter.Country != "" {
			q = q.Where(countryOfBatch, filter.Country)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return shared.Paginated[sales.BatchSummary]{}, err
	}

	var rows []models.ImportBatchModel
	if err := query().
		Order("import_batches.imported_at DESC, import_batches.id").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error; err != nil {
		return shared.Paginated[sales.BatchSummary]{}, err
	}

	summaries, err := r.summarize(ctx, rows)
	if err != nil {
		return shared.Paginated[sales.BatchSummary]{}, err
	}
	return shared.NewPaginated(summaries, total, page), nil
}

type batchCount struct {
	ImportBatchID uuid.UUID
	Count         int64
}

type batchCountry struct {
	ImportBatchID uuid.UUID
	Code          string
	Name          *string
}

// summarize attaches importer, live row count and sampled country to a page of batches
func (r *GormImportBatchRepository) summarize(ctx context.Context, rows []models.ImportBatchModel) ([]sales.BatchSummary, error) {
	summaries := make([]sales.BatchSummary, len(rows))
	if len(rows) == 0 {
		return summaries, nil
	}

	batchIDs := make([]uuid.UUID, len(rows))
	importerIDs := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		batchIDs[i] = rows[i].ID
		importerIDs = append(importerIDs, rows[i].ImportedByID)
	}

	db := r.db.WithContext(ctx)

	var users []models.UserModel
	if err := db.Where("id IN ?", importerIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load importers: %w", err)
	}
	usersByID := make(map[uuid.UUID]models.UserModel, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	var counts []batchCount
	if err := db.Model(&models.SalesRecordModel{}).
		Select("import_batch_id, COUNT(*) AS count").
		Where("import_batch_id IN ?", batchIDs).
		Group("import_batch_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count batch rows: %w", err)
	}
	countsByID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		countsByID[c.ImportBatchID] = c.Count
	}

	// The sampled row of each batch is its lowest-id ledger row
	lowestRow := db.Table("sales_data AS x").
		Select("x.id").
		Where("x.import_batch_id = import_batches.id").
		Order("x.id").
		Limit(1)
	sampled := db.Table("import_batches").
		Select("(?)", lowestRow).
		Where("import_batches.id IN ?", batchIDs)

	var countries []batchCountry
	if err := db.Table("sales_data").
		Select("sales_data.import_batch_id, stores.country_code AS code, countries.name").
		Joins("JOIN stores ON stores.id = sales_data.store_id").
		Joins("LEFT JOIN countries ON countries.code = stores.country_code").
		Where("sales_data.id IN (?)", sampled).
		Scan(&countries).Error; err != nil {
		return nil, fmt.Errorf("failed to load batch countries: %w", err)
	}
	countriesByID := make(map[uuid.UUID]batchCountry, len(countries))
	for _, c := range countries {
		countriesByID[c.ImportBatchID] = c
	}

	for i := range rows {
		summary := sales.BatchSummary{
			Batch:    *rows[i].ToDomain(),
			RowCount: countsByID[rows[i].ID],
		}
		if u, ok := usersByID[rows[i].ImportedByID]; ok {
			summary.ImportedBy = &sales.UserRef{Username: u.Username, Nickname: u.Nickname}
		}
		if c, ok := countriesByID[rows[i].ID]; ok {
			ref := &sales.CountryRef{Code: c.Code, Name: c.Code}
			if c.Name != nil {
				ref.Name = *c.Name
			}
			summary.Country = ref
		}
		summaries[i] = summary
	}
	return summaries, nil
}

// DeleteWithRecords deletes the batch's ledger rows and then the batch in one
// transaction, returning the number of ledger rows removed
func (r *GormImportBatchRepository) DeleteWithRecords(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := tx.Where("import_batch_id = ?", batchID).Delete(&models.SalesRecordModel{})
		if rows.Error != nil {
			return fmt.Errorf("failed to delete batch rows: %w", rows.Error)
		}
		removed = rows.RowsAffected

		batch := tx.Where("id = ?", batchID).Delete(&models.ImportBatchModel{})
		if batch.Error != nil {
			return fmt.Errorf("failed to delete batch: %w", batch.Error)
		}
		if batch.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Ensure GormImportBatchRepository implements ImportBatchRepository
var _ sales.ImportBatchRepository = (*GormImportBatchRepository)(nil)
