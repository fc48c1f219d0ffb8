package sales

import (
	"time"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesRecord is one reconciled order line of the sales ledger, unique by
// platform order id
type SalesRecord struct {
	shared.BaseEntity
	PlatformOrderID string
	RecordDate      time.Time
	SalesVolume     int
	Revenue         decimal.Decimal
	Currency        string
	OrderStatus     *marketplace.OrderStatus
	CancelReason    *string
	Platform        marketplace.Platform
	ExternalTitle   *string
	ExternalSKU     *string
	Notes           string
	EnteredByID     uuid.UUID
	StoreID         uuid.UUID
	ProductID       uuid.UUID
	ListingID       uuid.UUID
	ImportBatchID   *uuid.UUID
}

// UpsertColumns are overwritten when an imported order id already exists.
// Record date, notes, entering user and store keep their original values.
var UpsertColumns = []string{
	"order_status",
	"cancel_reason",
	"revenue",
	"sales_volume",
	"currency",
	"listing_id",
	"product_id",
	"import_batch_id",
	"platform",
	"external_title",
	"external_sku",
	"updated_at",
}
