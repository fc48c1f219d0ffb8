package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportBatchModel is the persistence model for sales.ImportBatch
type ImportBatchModel struct {
	BaseModel
	Platform     marketplace.Platform `gorm:"type:varchar(30);not null;index"`
	FileName     string               `gorm:"type:varchar(255);not null"`
	ImportedByID uuid.UUID            `gorm:"type:uuid;not null;index"`
	ImportedAt   time.Time            `gorm:"not null;index"`
	TotalItems   int                  `gorm:"not null;default:0"`
	SuccessCount int                  `gorm:"not null;default:0"`
	FailedCount  int                  `gorm:"not null;default:0"`
	ErrorDetails string               `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (ImportBatchModel) TableName() string {
	return "import_batches"
}

// ToDomain converts the persistence model to a domain ImportBatch
func (m *ImportBatchModel) ToDomain() *sales.ImportBatch {
	b := &sales.ImportBatch{
		BaseEntity:   m.BaseModel.ToDomain(),
		Platform:     m.Platform,
		FileName:     m.FileName,
		ImportedByID: m.ImportedByID,
		ImportedAt:   m.ImportedAt,
		TotalItems:   m.TotalItems,
		SuccessCount: m.SuccessCount,
		FailedCount:  m.FailedCount,
	}
	_ = b.SetErrorDetailsFromJSON(m.ErrorDetails)
	return b
}

// FromDomain populates the persistence model from a domain ImportBatch
func (m *ImportBatchModel) FromDomain(b *sales.ImportBatch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.Platform = b.Platform
	m.FileName = b.FileName
	m.ImportedByID = b.ImportedByID
	m.ImportedAt = b.ImportedAt
	m.TotalItems = b.TotalItems
	m.SuccessCount = b.SuccessCount
	m.FailedCount = b.FailedCount

	if errorJSON, err := b.ErrorDetailsJSON(); err == nil {
		m.ErrorDetails = errorJSON
	} else {
		m.ErrorDetails = "[]"
	}
}

// SalesRecordModel is the persistence model for sales.SalesRecord
type SalesRecordModel struct {
	BaseModel
	PlatformOrderID *string              `gorm:"type:varchar(100);uniqueIndex"`
	RecordDate      time.Time            `gorm:"not null;index"`
	SalesVolume     int                  `gorm:"not null;default:0"`
	Revenue         decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string               `gorm:"type:varchar(3);not null"`
	OrderStatus     *string              `gorm:"type:varchar(50)"`
	CancelReason    *string              `gorm:"type:varchar(500)"`
	Platform        marketplace.Platform `gorm:"type:varchar(30)"`
	ExternalTitle   *string              `gorm:"type:varchar(500)"`
	ExternalSKU     *string              `gorm:"column:external_sku;type:varchar(100)"`
	Notes           string               `gorm:"type:text"`
	EnteredByID     uuid.UUID            `gorm:"type:uuid;not null"`
	StoreID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID            `gorm:"type:uuid;not null"`
	ListingID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	ImportBatchID   *uuid.UUID           `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (SalesRecordModel) TableName() string {
	return "sales_data"
}

// ToDomain converts the persistence model to a domain SalesRecord
func (m *SalesRecordModel) ToDomain() *sales.SalesRecord {
	r := &sales.SalesRecord{
		BaseEntity:    m.BaseModel.ToDomain(),
		RecordDate:    m.RecordDate,
		SalesVolume:   m.SalesVolume,
		Revenue:       m.Revenue,
		Currency:      m.Currency,
		CancelReason:  m.CancelReason,
		Platform:      m.Platform,
		ExternalTitle: m.ExternalTitle,
		ExternalSKU:   m.ExternalSKU,
		Notes:         m.Notes,
		EnteredByID:   m.EnteredByID,
		StoreID:       m.StoreID,
		ProductID:     m.ProductID,
		ListingID:     m.ListingID,
		ImportBatchID: m.ImportBatchID,
	}
	if m.PlatformOrderID != nil {
		r.PlatformOrderID = *m.PlatformOrderID
	}
	if m.OrderStatus != nil {
		status := marketplace.OrderStatus(*m.OrderStatus)
		r.OrderStatus = &status
	}
	return r
}

// FromDomain populates the persistence model from a domain SalesRecord
func (m *SalesRecordModel) FromDomain(r *sales.SalesRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	if r.PlatformOrderID != "" {
		orderID := r.PlatformOrderID
		m.PlatformOrderID = &orderID
	}
	m.RecordDate = r.RecordDate
	m.SalesVolume = r.SalesVolume
	m.Revenue = r.Revenue
	m.Currency = r.Currency
	if r.OrderStatus != nil {
		status := string(*r.OrderStatus)
		m.OrderStatus = &status
	}
	m.CancelReason = r.CancelReason
	m.Platform = r.Platform
	m.ExternalTitle = r.ExternalTitle
	m.ExternalSKU = r.ExternalSKU
	m.Notes = r.Notes
	m.EnteredByID = r.EnteredByID
	m.StoreID = r.StoreID
	m.ProductID = r.ProductID
	m.ListingID = r.ListingID
	m.ImportBatchID = r.ImportBatchID
}
