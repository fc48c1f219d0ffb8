package sales

import (
	"context"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesRecordRepository defines the interface for ledger persistence
type SalesRecordRepository interface {
	// Upsert inserts the record or, when its platform order id exists,
	// overwrites the UpsertColumns of the existing row
	Upsert(ctx context.Context, record *SalesRecord) error

	// FindByStoreAndOrderIDs returns the store's rows among the given order ids
	FindByStoreAndOrderIDs(ctx context.Context, storeID uuid.UUID, orderIDs []string) ([]SalesRecord, error)
}

// BatchFilter narrows a batch listing
type BatchFilter struct {
	Country      string
	Platform     marketplace.Platform
	ImportedByID *uuid.UUID
}

// ImportBatchRepository defines the interface for batch persistence
type ImportBatchRepository interface {
	// Create inserts a new batch
	Create(ctx context.Context, batch *ImportBatch) error

	// SaveOutcome persists the outcome columns of a batch
	SaveOutcome(ctx context.Context, batch *ImportBatch) error

	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ImportBatch, error)

	// SampledCountry returns the country code of the store of the batch's
	// lowest-id ledger row, or "" when the batch owns no rows
	SampledCountry(ctx context.Context, batchID uuid.UUID) (string, error)

	// List returns visible batches matching the filter, newest first
	List(ctx context.Context, filter BatchFilter, visibility Visibility, page shared.Page) (shared.Paginated[BatchSummary], error)

	// DeleteWithRecords deletes the batch's ledger rows and then the batch in
	// one transaction, returning the number of rows removed
	DeleteWithRecords(ctx context.Context, batchID uuid.UUID) (int64, error)
}
