// Package salesimport reconciles marketplace order exports into the sales
// ledger: preview, confirm into an import batch, batch listing and rollback.
package salesimport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/spreadsheet"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultIdempotencyTTL is how long a confirm idempotency key stays claimed
	DefaultIdempotencyTTL = 24 * time.Hour

	msgMissingKeys      = "Missing platformOrderId or listingId"
	msgInvalidData      = "Invalid data"
	msgStoreRequired    = "storeId is required"
	msgBatchNotFound    = "Batch not found"
	msgAlreadyConfirmed = "Import already confirmed for this idempotency key"
)

// FileReader parses an uploaded export
type FileReader interface {
	ReadFile(ctx context.Context, path, platformHint string) (*spreadsheet.Result, error)
}

// Archiver keeps a copy of an uploaded export and returns where it went
type Archiver interface {
	Archive(ctx context.Context, fileName, localPath string) (string, error)
}

// Service implements the sales import use cases
type Service struct {
	reader   FileReader
	matcher  *Matcher
	listings catalog.ListingRepository
	records  sales.SalesRecordRepository
	batches  sales.ImportBatchRepository
	currency *CurrencyResolver

	archive        Archiver
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	metrics        *telemetry.ImportMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithArchiver archives every previewed upload
func WithArchiver(a Archiver) ServiceOption {
	return func(s *Service) { s.archive = a }
}

// WithIdempotency guards confirm with store; keys stay claimed for ttl
func WithIdempotency(store shared.IdempotencyStore, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithMetrics records import counters
func WithMetrics(m *telemetry.ImportMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l.Named("salesimport") }
}

// WithClock overrides the clock used for batch timestamps and missing
// order dates
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service
func NewService(
	reader FileReader,
	matcher *Matcher,
	listings catalog.ListingRepository,
	records sales.SalesRecordRepository,
	batches sales.ImportBatchRepository,
	currency *CurrencyResolver,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		reader:         reader,
		matcher:        matcher,
		listings:       listings,
		records:        records,
		batches:        batches,
		currency:       currency,
		idempotencyTTL: DefaultIdempotencyTTL,
		logger:         zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview parses and matches an export without writing to the ledger. The
// upload at in.FilePath is removed whatever the outcome.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (*PreviewResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_import", "preview",
		attribute.String("import.file_name", in.FileName))
	defer span.End()
	defer s.removeUpload(ctx, in.FilePath)

	s.archiveUpload(ctx, in)

	parsed, err := s.reader.ReadFile(ctx, in.FilePath, in.PlatformHint)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	matcher := s.matcher.forPlatform(parsed.Platform)
	items := make([]PreviewItem, 0, len(parsed.Orders))
	for _, order := range parsed.Orders {
		item := newPreviewItem(order)
		match, err := matcher.match(ctx, order.Title, order.SKU)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if match != nil {
			id, typ := match.ListingID, match.Type
			item.ListingID = &id
			item.MatchType = &typ
		}
		items = append(items, item)
	}

	if in.StoreID != nil {
		if err := s.markExisting(ctx, *in.StoreID, items); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	s.metrics.RecordPreview(ctx, parsed.Platform, len(items))
	logger.For(ctx, s.logger).Info("Sales export previewed",
		zap.String("platform", parsed.Platform.String()),
		zap.String("file_name", in.FileName),
		zap.Int("rows", len(items)),
	)
	telemetry.SetOK(span)

	return &PreviewResult{
		Platform:  parsed.Platform.String(),
		TotalRows: len(items),
		Data:      items,
	}, nil
}

func newPreviewItem(o marketplace.Order) PreviewItem {
	item := PreviewItem{
		PlatformOrderID: o.PlatformOrderID,
		CancelReason:    o.CancelReason,
		Title:           o.Title,
		SKU:             o.SKU,
		Quantity:        o.Quantity,
		UnitPrice:       o.UnitPrice,
		Revenue:         o.Revenue,
		OrderDate:       o.OrderDate,
		Platform:        o.Platform.String(),
	}
	if o.OrderStatus != nil {
		status := string(*o.OrderStatus)
		item.OrderStatus = &status
	}
	return item
}

// markExisting flags items whose order id already has a row on the store
func (s *Service) markExisting(ctx context.Context, storeID uuid.UUID, items []PreviewItem) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.PlatformOrderID != "" {
			ids = append(ids, item.PlatformOrderID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := s.records.FindByStoreAndOrderIDs(ctx, storeID, ids)
	if err != nil {
		return fmt.Errorf("failed to load existing sales rows: %w", err)
	}
	existing := make(map[string]*ExistingData, len(rows))
	for _, row := range rows {
		data := &ExistingData{
			PlatformOrderID: row.PlatformOrderID,
			Revenue:         row.Revenue,
			SalesVolume:     row.SalesVolume,
		}
		if row.OrderStatus != nil {
			status := string(*row.OrderStatus)
			data.OrderStatus = &status
		}
		existing[row.PlatformOrderID] = data
	}

	for i := range items {
		if data, ok := existing[items[i].PlatformOrderID]; ok {
			items[i].IsUpdate = true
			items[i].ExistingData = data
		}
	}
	return nil
}

func (s *Service) archiveUpload(ctx context.Context, in PreviewInput) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.Archive(ctx, in.FileName, in.FilePath)
	if err != nil {
		logger.For(ctx, s.logger).Warn("Failed to archive upload",
			zap.String("file_name", in.FileName), zap.Error(err))
		return
	}
	if key != "" {
		logger.For(ctx, s.logger).Debug("Upload archived", zap.String("key", key))
	}
}

func (s *Service) removeUpload(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.For(ctx, s.logger).Warn("Failed to remove uploaded file",
			zap.String("path", path), zap.Error(err))
	}
}

// Confirm writes the submitted items to the ledger under a new import batch.
// Items are upserted one by one; a failing item never stops the others.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	if in.Actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if in.StoreID == uuid.Nil {
		return nil, shared.NewValidationError(msgStoreRequired)
	}
	if in.Items == nil {
		return nil, shared.NewValidationError(msgInvalidData)
	}

	platform := marketplace.Platform(strings.ToUpper(strings.TrimSpace(in.Platform)))
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_import", "confirm",
		attribute.String("import.platform", platform.String()),
		attribute.Int("import.items", len(in.Items)),
	)
	defer span.End()

	claimedKey, err := s.claim(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	batch := sales.NewImportBatch(platform, in.FileName, in.Actor.UserID, s.now())
	if err := s.batches.Create(ctx, batch); err != nil {
		s.release(ctx, claimedKey)
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create import batch: %w", err)
	}
	ctx = logger.WithBatchID(ctx, batch.ID.String())
	span.SetAttributes(attribute.String("import.batch_id", batch.ID.String()))

	itemErrors := make([]sales.ItemError, 0)
	success := 0
	for _, item := range in.Items {
		if err := s.confirmItem(ctx, batch, in, item); err != nil {
			itemErrors = append(itemErrors, sales.ItemError{OrderID: item.PlatformOrderID, Error: err.Error()})
			continue
		}
		success++
	}

	batch.RecordOutcome(len(in.Items), success, itemErrors)
	if err := s.batches.SaveOutcome(ctx, batch); err != nil {
		logger.For(ctx, s.logger).Error("Failed to save import batch outcome", zap.Error(err))
	}

	s.metrics.RecordConfirm(ctx, batch.Platform, success, len(itemErrors))
	logger.For(ctx, s.logger).Info("Sales import confirmed",
		zap.String("platform", batch.Platform.String()),
		zap.Int("success", success),
		zap.Int("failed", len(itemErrors)),
	)
	telemetry.SetOK(span)

	return &ConfirmResult{
		BatchID: batch.ID,
		Success: success,
		Failed:  len(itemErrors),
		Errors:  itemErrors,
	}, nil
}

// claim reserves the request's idempotency key and returns the stored key.
// A store failure is logged and the confirm proceeds unguarded.
func (s *Service) claim(ctx context.Context, in ConfirmInput) (string, error) {
	key := strings.TrimSpace(in.IdempotencyKey)
	if s.idempotency == nil || key == "" {
		return "", nil
	}
	key = in.Actor.UserID.String() + ":" + key

	claimed, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
	if err != nil {
		logger.For(ctx, s.logger).Warn("Idempotency store unavailable", zap.Error(err))
		return "", nil
	}
	if !claimed {
		return "", shared.NewDomainError(shared.CodeAlreadyExists, msgAlreadyConfirmed)
	}
	return key, nil
}

func (s *Service) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.idempotency.Release(ctx, key); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to release idempotency key", zap.Error(err))
	}
}

func (s *Service) confirmItem(ctx context.Context, batch *sales.ImportBatch, in ConfirmInput, item ConfirmItem) error {
	orderID := strings.TrimSpace(item.PlatformOrderID)
	rawListing := strings.TrimSpace(item.ListingID)
	if orderID == "" || rawListing == "" {
		return errors.New(msgMissingKeys)
	}
	if item.Invalid {
		return errors.New(msgInvalidData)
	}
	listingID, err := uuid.Parse(rawListing)
	if err != nil {
		return fmt.Errorf("Listing %s not found", rawListing)
	}
	if listingID == uuid.Nil {
		return errors.New(msgMissingKeys)
	}

	listing, err := s.listings.FindByID(ctx, listingID)
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("Listing %s not found", listingID)
	}
	if err != nil {
		return err
	}

	recordDate := s.now().UTC()
	if item.OrderDate != nil && !item.OrderDate.IsZero() {
		recordDate = *item.OrderDate
	}

	record := &sales.SalesRecord{
		BaseEntity:      shared.NewBaseEntity(),
		PlatformOrderID: orderID,
		RecordDate:      recordDate,
		SalesVolume:     item.Quantity,
		Revenue:         item.Revenue,
		Currency:        s.currency.Resolve(item.Currency, listing.CountryCode()),
		CancelReason:    optionalPtr(item.CancelReason),
		Platform:        batch.Platform,
		ExternalTitle:   optional(item.Title),
		ExternalSKU:     optional(item.SKU),
		Notes:           "Imported from " + batch.Platform.String(),
		EnteredByID:     in.Actor.UserID,
		StoreID:         in.StoreID,
		ProductID:       listing.ProductID,
		ListingID:       listing.ID,
		ImportBatchID:   &batch.ID,
	}
	if status := optionalPtr(item.OrderStatus); status != nil {
		st := marketplace.OrderStatus(*status)
		record.OrderStatus = &st
	}

	return s.records.Upsert(ctx, record)
}

// ListBatches returns the batches visible to actor, newest first
func (s *Service) ListBatches(ctx context.Context, q BatchListQuery, actor identity.Actor) (*BatchListResponse, error) {
	if actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}

	filter := sales.BatchFilter{
		Country:      strings.ToUpper(strings.TrimSpace(q.Country)),
		Platform:     marketplace.Platform(strings.ToUpper(strings.TrimSpace(q.Platform))),
		ImportedByID: q.UserID,
	}
	result, err := s.batches.List(ctx, filter, sales.VisibilityFor(actor), shared.NewPage(q.Page, q.PageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list import batches: %w", err)
	}

	data := make([]BatchResponse, 0, len(result.Items))
	for _, summary := range result.Items {
		data = append(data, toBatchResponse(summary))
	}
	return &BatchListResponse{
		Data:       data,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func toBatchResponse(summary sales.BatchSummary) BatchResponse {
	b := summary.Batch
	resp := BatchResponse{
		ID:           b.ID,
		Platform:     b.Platform.String(),
		FileName:     b.FileName,
		ImportedAt:   b.ImportedAt,
		Count:        summary.RowCount,
		TotalItems:   b.TotalItems,
		SuccessCount: b.SuccessCount,
		FailedCount:  b.FailedCount,
	}
	if summary.ImportedBy != nil {
		resp.ImportedBy = &ImporterResponse{Nickname: summary.ImportedBy.Nickname, Username: summary.ImportedBy.Username}
	}
	if summary.Country != nil {
		resp.Country = &CountryResponse{Code: summary.Country.Code, Name: summary.Country.Name}
	}
	return resp
}

// Rollback deletes a batch and every ledger row it owns
func (s *Service) Rollback(ctx context.Context, batchID uuid.UUID, actor identity.Actor) error {
	if actor.UserID == uuid.Nil {
		return shared.ErrUnauthorized
	}

	ctx = logger.WithBatchID(ctx, batchID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_import", "rollback",
		attribute.String("import.batch_id", batchID.String()))
	defer span.End()

	err := s.rollback(ctx, batchID, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.SetOK(span)
	return nil
}

func (s *Service) rollback(ctx context.Context, batchID uuid.UUID, actor identity.Actor) error {
	batch, err := s.batches.FindByID(ctx, batchID)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(msgBatchNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load import batch: %w", err)
	}

	var country string
	if !actor.IsAdmin() && batch.ImportedByID != actor.UserID {
		if country, err = s.batches.SampledCountry(ctx, batchID); err != nil {
			return fmt.Errorf("failed to resolve batch country: %w", err)
		}
	}
	if !sales.CanRollback(actor, batch, country) {
		logger.For(ctx, s.logger).Warn("Rollback denied", zap.String("country", country))
		return shared.ErrForbidden
	}

	deleted, err := s.batches.DeleteWithRecords(ctx, batchID)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(msgBatchNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to roll back import batch: %w", err)
	}

	s.metrics.RecordRollback(ctx)
	logger.For(ctx, s.logger).Info("Import batch rolled back", zap.Int64("deleted_rows", deleted))
	return nil
}

// ListingOptions returns the listings of a store for manual resolution
func (s *Service) ListingOptions(ctx context.Context, storeID uuid.UUID) ([]ListingOption, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError(msgStoreRequired)
	}
	listings, err := s.listings.FindByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store listings: %w", err)
	}

	options := make([]ListingOption, 0, len(listings))
	for _, l := range listings {
		opt := ListingOption{
			ID:           l.ID,
			StoreTitle:   l.StoreTitle,
			ProductCode:  l.ProductCode,
			CurrentPrice: l.CurrentPrice,
			URL:          l.URL,
		}
		if l.Product != nil {
			opt.Product = &ProductRef{ID: l.Product.ID, SKU: l.Product.SKU, Name: l.Product.Name}
		}
		options = append(options, opt)
	}
	return options, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return optional(*s)
}
