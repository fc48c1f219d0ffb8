package salesimport

import (
	"time"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreviewInput is an uploaded export waiting to be previewed. FilePath is a
// temporary file that Preview always removes.
type PreviewInput struct {
	FilePath     string
	FileName     string
	PlatformHint string
	StoreID      *uuid.UUID
}

// ExistingData is the ledger row a previewed order would overwrite
type ExistingData struct {
	PlatformOrderID string          `json:"platformOrderId"`
	OrderStatus     *string         `json:"orderStatus"`
	Revenue         decimal.Decimal `json:"revenue"`
	SalesVolume     int             `json:"salesVolume"`
}

// PreviewItem is one normalized and matched order line
type PreviewItem struct {
	PlatformOrderID string          `json:"platformOrderId"`
	OrderStatus     *string         `json:"orderStatus"`
	CancelReason    *string         `json:"cancelReason"`
	Title           string          `json:"title"`
	SKU             string          `json:"sku"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Revenue         decimal.Decimal `json:"revenue"`
	OrderDate       time.Time       `json:"orderDate"`
	Platform        string          `json:"platform"`
	ListingID       *uuid.UUID      `json:"listingId"`
	MatchType       *MatchType      `json:"matchType"`
	IsUpdate        bool            `json:"isUpdate,omitempty"`
	ExistingData    *ExistingData   `json:"existingData,omitempty"`
}

// PreviewResult is the response of Preview
type PreviewResult struct {
	Platform  string        `json:"platform"`
	TotalRows int           `json:"totalRows"`
	Data      []PreviewItem `json:"data"`
}

// ConfirmItem is an order line submitted for import, usually a PreviewItem
// the operator reviewed. ListingID is parsed per item so that a bad id fails
// only its own line; Invalid marks a line the transport could not decode.
type ConfirmItem struct {
	PlatformOrderID string          `json:"platformOrderId"`
	OrderStatus     *string         `json:"orderStatus"`
	CancelReason    *string         `json:"cancelReason"`
	Title           string          `json:"title"`
	SKU             string          `json:"sku"`
	Quantity        int             `json:"quantity"`
	Revenue         decimal.Decimal `json:"revenue"`
	OrderDate       *time.Time      `json:"orderDate"`
	ListingID       string          `json:"listingId"`
	Currency        string          `json:"currency"`
	Invalid         bool            `json:"-"`
}

// ConfirmInput is a confirm request. A nil Items means the payload carried
// no item array.
type ConfirmInput struct {
	Platform       string
	StoreID        uuid.UUID
	FileName       string
	Items          []ConfirmItem
	Actor          identity.Actor
	IdempotencyKey string
}

// ConfirmResult reports a confirm
type ConfirmResult struct {
	BatchID uuid.UUID         `json:"batchId"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []sales.ItemError `json:"errors"`
}

// BatchListQuery filters and pages a batch listing
type BatchListQuery struct {
	Page     int
	PageSize int
	Country  string
	Platform string
	UserID   *uuid.UUID
}

// ImporterResponse names the user who confirmed a batch
type ImporterResponse struct {
	Nickname string `json:"nickname"`
	Username string `json:"username"`
}

// CountryResponse names a country
type CountryResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BatchResponse is one batch of a listing
type BatchResponse struct {
	ID           uuid.UUID         `json:"id"`
	Platform     string            `json:"platform"`
	FileName     string            `json:"fileName"`
	ImportedAt   time.Time         `json:"importedAt"`
	ImportedBy   *ImporterResponse `json:"importedBy"`
	Count        int64             `json:"count"`
	Country      *CountryResponse  `json:"country"`
	TotalItems   int               `json:"totalItems"`
	SuccessCount int               `json:"successCount"`
	FailedCount  int               `json:"failedCount"`
}

// BatchListResponse is a page of batches
type BatchListResponse struct {
	Data       []BatchResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// ProductRef is the product behind a listing option
type ProductRef struct {
	ID   uuid.UUID `json:"id"`
	SKU  string    `json:"sku"`
	Name string    `json:"name"`
}

// ListingOption is a listing an operator can pick for an unmatched row
type ListingOption struct {
	ID           uuid.UUID       `json:"id"`
	StoreTitle   string          `json:"storeTitle"`
	ProductCode  string          `json:"productCode"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	URL          *string         `json:"url"`
	Product      *ProductRef     `json:"product"`
}

// CreateMappingInput is a new manual mapping
type CreateMappingInput struct {
	Platform      string
	ExternalTitle string
	ExternalSKU   string
	ListingID     uuid.UUID
	Actor         identity.Actor
}

// MappingResponse is a listing mapping
type MappingResponse struct {
	ID            uuid.UUID `json:"id"`
	Platform      string    `json:"platform"`
	ExternalTitle *string   `json:"externalTitle"`
	ExternalSKU   *string   `json:"externalSku"`
	ListingID     uuid.UUID `json:"listingId"`
	CreatedByID   uuid.UUID `json:"createdById"`
	CreatedAt     time.Time `json:"createdAt"`
}
