package salesimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/spreadsheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type serviceMocks struct {
	reader   *MockFileReader
	listings *MockListingRepository
	mappings *MockListingMappingRepository
	records  *MockSalesRecordRepository
	batches  *MockImportBatchRepository
}

func newTestService(opts ...ServiceOption) (*Service, *serviceMocks) {
	m := &serviceMocks{
		reader:   new(MockFileReader),
		listings: new(MockListingRepository),
		mappings: new(MockListingMappingRepository),
		records:  new(MockSalesRecordRepository),
		batches:  new(MockImportBatchRepository),
	}
	opts = append([]ServiceOption{WithClock(func() time.Time { return testNow })}, opts...)
	svc := NewService(
		m.reader,
		NewMatcher(m.mappings, m.listings),
		m.listings,
		m.records,
		m.batches,
		NewCurrencyResolver("CNY", map[string]string{"ID": "IDR", "MY": "MYR"}),
		opts...,
	)
	return svc, m
}

func newTestActor() identity.Actor {
	return identity.Actor{UserID: uuid.New(), Username: "operator", Role: "OPERATOR"}
}

func newTestListing(country string) *catalog.Listing {
	return &catalog.Listing{
		BaseEntity:  shared.NewBaseEntity(),
		StoreID:     uuid.New(),
		ProductID:   uuid.New(),
		ProductCode: "P-100",
		StoreTitle:  "Blue Mug",
		Store:       &catalog.Store{ID: uuid.New(), Platform: marketplace.PlatformShopee, CountryCode: country},
	}
}

func writeUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))
	return path
}

func TestService_Preview_MatchesAndMarksUpdates(t *testing.T) {
	archive := new(MockArchiver)
	svc, m := newTestService(WithArchiver(archive))
	path := writeUpload(t)
	storeID := uuid.New()
	mappedListing := uuid.New()
	titleListing := newTestListing("ID")
	shipped := marketplace.StatusShipped

	m.reader.On("ReadFile", mock.Anything, path, "").Return(&spreadsheet.Result{
		Platform: marketplace.PlatformShopee,
		Orders: []marketplace.Order{
			{PlatformOrderID: "o-1", Title: "Mapped", SKU: "X-1", Quantity: 1, Platform: marketplace.PlatformShopee},
			{PlatformOrderID: "o-2", Title: "Blue Mug", Quantity: 2, OrderStatus: &shipped, Platform: marketplace.PlatformShopee},
			{PlatformOrderID: "o-3", Title: "Blue Mug", Quantity: 1, Platform: marketplace.PlatformShopee},
			{PlatformOrderID: "o-4", Title: "Unknown", Quantity: 1, Platform: marketplace.PlatformShopee},
		},
	}, nil)
	archive.On("Archive", mock.Anything, "orders.xlsx", path).Return("imports/orders.xlsx", nil)

	m.mappings.On("FindMatch", mock.Anything, marketplace.PlatformShopee, "Mapped", "X-1").
		Return(&catalog.ListingMapping{ListingID: mappedListing}, nil)
	m.mappings.On("FindMatch", mock.Anything, marketplace.PlatformShopee, "Blue Mug", "").
		Return(nil, shared.ErrNotFound).Once()
	m.listings.On("FindByStoreTitle", mock.Anything, marketplace.PlatformShopee, "Blue Mug").
		Return(titleListing, nil).Once()
	m.mappings.On("FindMatch", mock.Anything, marketplace.PlatformShopee, "Unknown", "").
		Return(nil, shared.ErrNotFound)
	m.listings.On("FindByStoreTitle", mock.Anything, marketplace.PlatformShopee, "Unknown").
		Return(nil, shared.ErrNotFound)
	m.records.On("FindByStoreAndOrderIDs", mock.Anything, storeID, []string{"o-1", "o-2", "o-3", "o-4"}).
		Return([]sales.SalesRecord{{PlatformOrderID: "o-2", Revenue: decimal.NewFromInt(50), SalesVolume: 3, OrderStatus: &shipped}}, nil)

	result, err := svc.Preview(context.Background(), PreviewInput{
		FilePath: path,
		FileName: "orders.xlsx",
		StoreID:  &storeID,
	})

	require.NoError(t, err)
	assert.Equal(t, "SHOPEE", result.Platform)
	assert.Equal(t, 4, result.TotalRows)
	require.Len(t, result.Data, 4)

	assert.Equal(t, mappedListing, *result.Data[0].ListingID)
	assert.Equal(t, MatchMapping, *result.Data[0].MatchType)

	assert.Equal(t, titleListing.ID, *result.Data[1].ListingID)
	assert.Equal(t, MatchTitle, *result.Data[1].MatchType)
	assert.Equal(t, "SHIPPED", *result.Data[1].OrderStatus)
	assert.True(t, result.Data[1].IsUpdate)
	require.NotNil(t, result.Data[1].ExistingData)
	assert.Equal(t, 3, result.Data[1].ExistingData.SalesVolume)
	assert.Equal(t, "SHIPPED", *result.Data[1].ExistingData.OrderStatus)

	assert.Equal(t, titleListing.ID, *result.Data[2].ListingID)
	assert.False(t, result.Data[2].IsUpdate)

	assert.Nil(t, result.Data[3].ListingID)
	assert.Nil(t, result.Data[3].MatchType)

	assert.NoFileExists(t, path)
	m.mappings.AssertExpectations(t)
	m.listings.AssertExpectations(t)
	archive.AssertExpectations(t)
}

func TestService_Preview_RemovesUploadOnParseError(t *testing.T) {
	svc, m := newTestService()
	path := writeUpload(t)
	m.reader.On("ReadFile", mock.Anything, path, "LAZADA").Return(nil, shared.ErrUnrecognizedFormat)

	result, err := svc.Preview(context.Background(), PreviewInput{FilePath: path, FileName: "x.csv", PlatformHint: "LAZADA"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrUnrecognizedFormat)
	assert.NoFileExists(t, path)
}

func TestService_Preview_ArchiveFailureIsNotFatal(t *testing.T) {
	archive := new(MockArchiver)
	svc, m := newTestService(WithArchiver(archive))
	path := writeUpload(t)
	archive.On("Archive", mock.Anything, "orders.xlsx", path).Return("", errors.New("bucket gone"))
	m.reader.On("ReadFile", mock.Anything, path, "").
		Return(&spreadsheet.Result{Platform: marketplace.PlatformTikTokShop}, nil)

	result, err := svc.Preview(context.Background(), PreviewInput{FilePath: path, FileName: "orders.xlsx"})

	require.NoError(t, err)
	assert.Equal(t, "TIKTOK_SHOP", result.Platform)
	assert.Empty(t, result.Data)
	m.records.AssertNotCalled(t, "FindByStoreAndOrderIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Confirm_PartialSuccess(t *testing.T) {
	svc, m := newTestService()
	actor := newTestActor()
	storeID := uuid.New()
	listing := newTestListing("ID")
	missingListing := uuid.New()
	orderDate := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	status := "COMPLETED"

	var upserted *sales.SalesRecord
	var saved *sales.ImportBatch
	m.batches.On("Create", mock.Anything, mock.AnythingOfType("*sales.ImportBatch")).Return(nil)
	m.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	m.listings.On("FindByID", mock.Anything, missingListing).Return(nil, shared.ErrNotFound)
	m.records.On("Upsert", mock.Anything, mock.AnythingOfType("*sales.SalesRecord")).
		Run(func(args mock.Arguments) { upserted = args.Get(1).(*sales.SalesRecord) }).
		Return(nil)
	m.batches.On("SaveOutcome", mock.Anything, mock.AnythingOfType("*sales.ImportBatch")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*sales.ImportBatch) }).
		Return(nil)

	result, err := svc.Confirm(context.Background(), ConfirmInput{
		Platform: "shopee",
		StoreID:  storeID,
		FileName: "orders.xlsx",
		Actor:    actor,
		Items: []ConfirmItem{
			{PlatformOrderID: "o-1", ListingID: listing.ID.String(), Quantity: 2, Revenue: decimal.NewFromInt(120), OrderDate: &orderDate, OrderStatus: &status, Title: "Blue Mug"},
			{PlatformOrderID: "o-2"},
			{PlatformOrderID: "o-3", ListingID: missingListing.String()},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, []sales.ItemError{
		{OrderID: "o-2", Error: "Missing platformOrderId or listingId"},
		{OrderID: "o-3", Error: "Listing " + missingListing.String() + " not found"},
	}, result.Errors)

	require.NotNil(t, upserted)
	assert.Equal(t, "o-1", upserted.PlatformOrderID)
	assert.Equal(t, orderDate, upserted.RecordDate)
	assert.Equal(t, "IDR", upserted.Currency)
	assert.Equal(t, "Imported from SHOPEE", upserted.Notes)
	assert.Equal(t, marketplace.PlatformShopee, upserted.Platform)
	assert.Equal(t, marketplace.StatusCompleted, *upserted.OrderStatus)
	assert.Equal(t, "Blue Mug", *upserted.ExternalTitle)
	assert.Nil(t, upserted.ExternalSKU)
	assert.Equal(t, actor.UserID, upserted.EnteredByID)
	assert.Equal(t, storeID, upserted.StoreID)
	assert.Equal(t, listing.ProductID, upserted.ProductID)
	assert.Equal(t, result.BatchID, *upserted.ImportBatchID)

	require.NotNil(t, saved)
	assert.Equal(t, 3, saved.TotalItems)
	assert.Equal(t, 1, saved.SuccessCount)
	assert.Equal(t, 2, saved.FailedCount)
	assert.Equal(t, testNow, saved.ImportedAt)
}

func TestService_Confirm_BadItemsFailIndividually(t *testing.T) {
	svc, m := newTestService()
	listing := newTestListing("ID")
	m.batches.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	m.records.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.batches.On("SaveOutcome", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Confirm(context.Background(), ConfirmInput{
		StoreID: uuid.New(),
		Actor:   newTestActor(),
		Items: []ConfirmItem{
			{PlatformOrderID: "A", ListingID: listing.ID.String()},
			{PlatformOrderID: "B", ListingID: ""},
			{PlatformOrderID: "C", ListingID: " " + listing.ID.String() + " "},
			{PlatformOrderID: "D", ListingID: "not-a-uuid"},
			{PlatformOrderID: "E", ListingID: listing.ID.String(), Invalid: true},
			{PlatformOrderID: "F", ListingID: uuid.Nil.String()},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 4, result.Failed)
	assert.Equal(t, []sales.ItemError{
		{OrderID: "B", Error: "Missing platformOrderId or listingId"},
		{OrderID: "D", Error: "Listing not-a-uuid not found"},
		{OrderID: "E", Error: "Invalid data"},
		{OrderID: "F", Error: "Missing platformOrderId or listingId"},
	}, result.Errors)
	m.records.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestService_Confirm_UpsertFailureOnlyFailsItem(t *testing.T) {
	svc, m := newTestService()
	listing := newTestListing("")
	m.batches.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	m.records.On("Upsert", mock.Anything, mock.MatchedBy(func(r *sales.SalesRecord) bool { return r.PlatformOrderID == "bad" })).
		Return(errors.New("deadlock detected"))
	m.records.On("Upsert", mock.Anything, mock.MatchedBy(func(r *sales.SalesRecord) bool { return r.PlatformOrderID == "good" })).
		Return(nil)
	m.batches.On("SaveOutcome", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	result, err := svc.Confirm(context.Background(), ConfirmInput{
		StoreID: uuid.New(),
		Actor:   newTestActor(),
		Items: []ConfirmItem{
			{PlatformOrderID: "bad", ListingID: listing.ID.String()},
			{PlatformOrderID: "good", ListingID: listing.ID.String()},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, []sales.ItemError{{OrderID: "bad", Error: "deadlock detected"}}, result.Errors)
}

func TestService_Confirm_DefaultsCurrencyAndDate(t *testing.T) {
	svc, m := newTestService()
	listing := newTestListing("VN")
	var upserted *sales.SalesRecord
	var created *sales.ImportBatch
	m.batches.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*sales.ImportBatch) }).
		Return(nil)
	m.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	m.records.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { upserted = args.Get(1).(*sales.SalesRecord) }).
		Return(nil)
	m.batches.On("SaveOutcome", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Confirm(context.Background(), ConfirmInput{
		StoreID: uuid.New(),
		Actor:   newTestActor(),
		Items:   []ConfirmItem{{PlatformOrderID: "o-1", ListingID: listing.ID.String()}},
	})

	require.NoError(t, err)
	assert.Equal(t, marketplace.PlatformOther, created.Platform)
	assert.Equal(t, "Import-2024-05-10T12:00:00Z", created.FileName)
	assert.Equal(t, "CNY", upserted.Currency)
	assert.Equal(t, testNow, upserted.RecordDate)
	assert.Equal(t, "Imported from OTHER", upserted.Notes)
}

func TestService_Confirm_RejectsInvalidRequests(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.Confirm(context.Background(), ConfirmInput{StoreID: uuid.New(), Items: []ConfirmItem{}})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = svc.Confirm(context.Background(), ConfirmInput{Actor: newTestActor(), Items: []ConfirmItem{}})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeValidation, domainErr.Code)
	assert.Equal(t, "storeId is required", domainErr.Message)

	_, err = svc.Confirm(context.Background(), ConfirmInput{Actor: newTestActor(), StoreID: uuid.New()})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "Invalid data", domainErr.Message)

	m.batches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Confirm_EmptyItemsCreatesEmptyBatch(t *testing.T) {
	svc, m := newTestService()
	m.batches.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.batches.On("SaveOutcome", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Confirm(context.Background(), ConfirmInput{Actor: newTestActor(), StoreID: uuid.New(), Items: []ConfirmItem{}})

	require.NoError(t, err)
	assert.Zero(t, result.Success)
	assert.Zero(t, result.Failed)
	assert.NotNil(t, result.Errors)
}

func TestService_Confirm_Idempotency(t *testing.T) {
	store := new(MockIdempotencyStore)
	svc, m := newTestService(WithIdempotency(store, time.Hour))
	actor := newTestActor()
	key := actor.UserID.String() + ":abc"

	store.On("MarkProcessed", mock.Anything, key, time.Hour).Return(false, nil)

	_, err := svc.Confirm(context.Background(), ConfirmInput{
		Actor:          actor,
		StoreID:        uuid.New(),
		Items:          []ConfirmItem{},
		IdempotencyKey: "abc",
	})

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	m.batches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Confirm_ReleasesKeyWhenBatchCreateFails(t *testing.T) {
	store := new(MockIdempotencyStore)
	svc, m := newTestService(WithIdempotency(store, 0))
	actor := newTestActor()
	key := actor.UserID.String() + ":abc"

	store.On("MarkProcessed", mock.Anything, key, DefaultIdempotencyTTL).Return(true, nil)
	store.On("Release", mock.Anything, key).Return(nil)
	m.batches.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Confirm(context.Background(), ConfirmInput{
		Actor:          actor,
		StoreID:        uuid.New(),
		Items:          []ConfirmItem{},
		IdempotencyKey: "abc",
	})

	assert.Error(t, err)
	store.AssertExpectations(t)
}

func TestService_Confirm_ProceedsWhenStoreUnavailable(t *testing.T) {
	store := new(MockIdempotencyStore)
	svc, m := newTestService(WithIdempotency(store, time.Minute))
	store.On("MarkProcessed", mock.Anything, mock.Anything, time.Minute).Return(false, errors.New("redis: connection refused"))
	m.batches.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.batches.On("SaveOutcome", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Confirm(context.Background(), ConfirmInput{
		Actor:          newTestActor(),
		StoreID:        uuid.New(),
		Items:          []ConfirmItem{},
		IdempotencyKey: "abc",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.BatchID)
}

func TestService_ListBatches(t *testing.T) {
	svc, m := newTestService()
	actor := identity.Actor{UserID: uuid.New(), SupervisedCountries: []string{"ID"}}
	userID := uuid.New()
	batch := sales.NewImportBatch(marketplace.PlatformShopee, "orders.xlsx", userID, testNow)
	batch.RecordOutcome(3, 2, []sales.ItemError{{OrderID: "o-3", Error: "x"}})

	page := shared.NewPage(2, 10)
	m.batches.On("List", mock.Anything,
		sales.BatchFilter{Country: "ID", Platform: marketplace.PlatformShopee, ImportedByID: &userID},
		sales.Visibility{ImporterID: actor.UserID, Countries: []string{"ID"}},
		page,
	).Return(shared.NewPaginated([]sales.BatchSummary{{
		Batch:      *batch,
		ImportedBy: &sales.UserRef{Username: "ani", Nickname: "Ani"},
		RowCount:   2,
		Country:    &sales.CountryRef{Code: "ID", Name: "Indonesia"},
	}}, 11, page), nil)

	resp, err := svc.ListBatches(context.Background(), BatchListQuery{
		Page:     2,
		PageSize: 10,
		Country:  "id",
		Platform: "shopee",
		UserID:   &userID,
	}, actor)

	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Data, 1)
	item := resp.Data[0]
	assert.Equal(t, batch.ID, item.ID)
	assert.Equal(t, "SHOPEE", item.Platform)
	assert.Equal(t, int64(2), item.Count)
	assert.Equal(t, "Ani", item.ImportedBy.Nickname)
	assert.Equal(t, "Indonesia", item.Country.Name)
	assert.Equal(t, 1, item.FailedCount)
}

func TestService_Rollback(t *testing.T) {
	importer := uuid.New()

	t.Run("not found", func(t *testing.T) {
		svc, m := newTestService()
		id := uuid.New()
		m.batches.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		err := svc.Rollback(context.Background(), id, newTestActor())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeNotFound, domainErr.Code)
		assert.Equal(t, "Batch not found", domainErr.Message)
	})

	t.Run("forbidden outside supervised country", func(t *testing.T) {
		svc, m := newTestService()
		batch := sales.NewImportBatch(marketplace.PlatformShopee, "a.xlsx", importer, testNow)
		m.batches.On("FindByID", mock.Anything, batch.ID).Return(batch, nil)
		m.batches.On("SampledCountry", mock.Anything, batch.ID).Return("MY", nil)

		err := svc.Rollback(context.Background(), batch.ID, identity.Actor{UserID: uuid.New(), SupervisedCountries: []string{"ID"}})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		m.batches.AssertNotCalled(t, "DeleteWithRecords", mock.Anything, mock.Anything)
	})

	t.Run("supervisor of batch country", func(t *testing.T) {
		svc, m := newTestService()
		batch := sales.NewImportBatch(marketplace.PlatformShopee, "a.xlsx", importer, testNow)
		m.batches.On("FindByID", mock.Anything, batch.ID).Return(batch, nil)
		m.batches.On("SampledCountry", mock.Anything, batch.ID).Return("ID", nil)
		m.batches.On("DeleteWithRecords", mock.Anything, batch.ID).Return(int64(4), nil)

		err := svc.Rollback(context.Background(), batch.ID, identity.Actor{UserID: uuid.New(), SupervisedCountries: []string{"id"}})

		require.NoError(t, err)
		m.batches.AssertExpectations(t)
	})

	t.Run("importer skips country lookup", func(t *testing.T) {
		svc, m := newTestService()
		batch := sales.NewImportBatch(marketplace.PlatformShopee, "a.xlsx", importer, testNow)
		m.batches.On("FindByID", mock.Anything, batch.ID).Return(batch, nil)
		m.batches.On("DeleteWithRecords", mock.Anything, batch.ID).Return(int64(0), nil)

		require.NoError(t, svc.Rollback(context.Background(), batch.ID, identity.Actor{UserID: importer}))
		m.batches.AssertNotCalled(t, "SampledCountry", mock.Anything, mock.Anything)
	})
}

func TestService_ListingOptions(t *testing.T) {
	svc, m := newTestService()
	storeID := uuid.New()
	listing := newTestListing("ID")
	listing.Product = &catalog.Product{ID: listing.ProductID, SKU: "SKU-1", Name: "Mug"}
	m.listings.On("FindByStore", mock.Anything, storeID).Return([]catalog.Listing{*listing}, nil)

	options, err := svc.ListingOptions(context.Background(), storeID)

	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Blue Mug", options[0].StoreTitle)
	assert.Equal(t, "SKU-1", options[0].Product.SKU)

	_, err = svc.ListingOptions(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, shared.NewValidationError("storeId is required"))
}
