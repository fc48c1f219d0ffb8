package salesimport

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/spreadsheet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]catalog.Listing, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByStoreTitle(ctx context.Context, platform marketplace.Platform, title string) (*catalog.Listing, error) {
	return m.listing(m.Called(ctx, platform, title))
}

func (m *MockListingRepository) FindByProductCode(ctx context.Context, platform marketplace.Platform, code string) (*catalog.Listing, error) {
	return m.listing(m.Called(ctx, platform, code))
}

func (m *MockListingRepository) FindByProductSKU(ctx context.Context, platform marketplace.Platform, sku string) (*catalog.Listing, error) {
	return m.listing(m.Called(ctx, platform, sku))
}

func (m *MockListingRepository) listing(args mock.Arguments) (*catalog.Listing, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Listing), args.Error(1)
}

type MockListingMappingRepository struct {
	mock.Mock
}

func (m *MockListingMappingRepository) FindMatch(ctx context.Context, platform marketplace.Platform, title, sku string) (*catalog.ListingMapping, error) {
	args := m.Called(ctx, platform, title, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ListingMapping), args.Error(1)
}

func (m *MockListingMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ListingMapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ListingMapping), args.Error(1)
}

func (m *MockListingMappingRepository) FindAll(ctx context.Context, filter catalog.MappingFilter) ([]catalog.ListingMapping, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ListingMapping), args.Error(1)
}

func (m *MockListingMappingRepository) Save(ctx context.Context, mapping *catalog.ListingMapping) error {
	return m.Called(ctx, mapping).Error(0)
}

func (m *MockListingMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSalesRecordRepository struct {
	mock.Mock
}

func (m *MockSalesRecordRepository) Upsert(ctx context.Context, record *sales.SalesRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockSalesRecordRepository) FindByStoreAndOrderIDs(ctx context.Context, storeID uuid.UUID, orderIDs []string) ([]sales.SalesRecord, error) {
	args := m.Called(ctx, storeID, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.SalesRecord), args.Error(1)
}

type MockImportBatchRepository struct {
	mock.Mock
}

func (m *MockImportBatchRepository) Create(ctx context.Context, batch *sales.ImportBatch) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *MockImportBatchRepository) SaveOutcome(ctx context.Context, batch *sales.ImportBatch) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *MockImportBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.ImportBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.ImportBatch), args.Error(1)
}

func (m *MockImportBatchRepository) SampledCountry(ctx context.Context, batchID uuid.UUID) (string, error) {
	args := m.Called(ctx, batchID)
	return args.String(0), args.Error(1)
}

func (m *MockImportBatchRepository) List(ctx context.Context, filter sales.BatchFilter, visibility sales.Visibility, page shared.Page) (shared.Paginated[sales.BatchSummary], error) {
	args := m.Called(ctx, filter, visibility, page)
	return args.Get(0).(shared.Paginated[sales.BatchSummary]), args.Error(1)
}

func (m *MockImportBatchRepository) DeleteWithRecords(ctx context.Context, batchID uuid.UUID) (int64, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).(int64), args.Error(1)
}

type MockFileReader struct {
	mock.Mock
}

func (m *MockFileReader) ReadFile(ctx context.Context, path, platformHint string) (*spreadsheet.Result, error) {
	args := m.Called(ctx, path, platformHint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spreadsheet.Result), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, fileName, localPath string) (string, error) {
	args := m.Called(ctx, fileName, localPath)
	return args.String(0), args.Error(1)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

var (
	_ catalog.ListingRepository        = (*MockListingRepository)(nil)
	_ catalog.ListingMappingRepository = (*MockListingMappingRepository)(nil)
	_ sales.SalesRecordRepository      = (*MockSalesRecordRepository)(nil)
	_ sales.ImportBatchRepository      = (*MockImportBatchRepository)(nil)
	_ shared.IdempotencyStore          = (*MockIdempotencyStore)(nil)
	_ FileReader                       = (*MockFileReader)(nil)
	_ Archiver                         = (*MockArchiver)(nil)
)
