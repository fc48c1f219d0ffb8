package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountryModel is a country the operation sells in
type CountryModel struct {
	Code string `gorm:"type:varchar(8);primaryKey"`
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (CountryModel) TableName() string {
	return "countries"
}

// StoreModel is the persistence model for catalog.Store
type StoreModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Name        string               `gorm:"type:varchar(200);not null"`
	Platform    marketplace.Platform `gorm:"type:varchar(30);not null;index"`
	CountryCode string               `gorm:"type:varchar(8);not null;index"`
	CreatedAt   time.Time            `gorm:"not null"`
	UpdatedAt   time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store
func (m *StoreModel) ToDomain() *catalog.Store {
	return &catalog.Store{
		ID:          m.ID,
		Name:        m.Name,
		Platform:    m.Platform,
		CountryCode: m.CountryCode,
	}
}

// ProductModel is the persistence model for catalog.Product
type ProductModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SKU       string    `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:   m.ID,
		SKU:  m.SKU,
		Name: m.Name,
	}
}

// ListingModel is the persistence model for catalog.Listing
type ListingModel struct {
	BaseModel
	StoreID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode  string          `gorm:"type:varchar(100);index"`
	StoreTitle   string          `gorm:"type:varchar(500);index"`
	CurrentPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	URL          *string         `gorm:"column:url;type:varchar(1000)"`

	Store   *StoreModel   `gorm:"foreignKey:StoreID"`
	Product *ProductModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts the persistence model to a domain Listing
func (m *ListingModel) ToDomain() *catalog.Listing {
	l := &catalog.Listing{
		BaseEntity:   m.BaseModel.ToDomain(),
		StoreID:      m.StoreID,
		ProductID:    m.ProductID,
		ProductCode:  m.ProductCode,
		StoreTitle:   m.StoreTitle,
		CurrentPrice: m.CurrentPrice,
		URL:          m.URL,
	}
	if m.Store != nil {
		l.Store = m.Store.ToDomain()
	}
	if m.Product != nil {
		l.Product = m.Product.ToDomain()
	}
	return l
}

// ListingMappingModel is the persistence model for catalog.ListingMapping
type ListingMappingModel struct {
	BaseModel
	Platform      marketplace.Platform `gorm:"type:varchar(30);not null;index:idx_listing_mappings_platform_title;index:idx_listing_mappings_platform_sku"`
	ExternalTitle *string              `gorm:"type:varchar(500);index:idx_listing_mappings_platform_title"`
	ExternalSKU   *string              `gorm:"column:external_sku;type:varchar(100);index:idx_listing_mappings_platform_sku"`
	ListingID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	CreatedByID   uuid.UUID            `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (ListingMappingModel) TableName() string {
	return "listing_mappings"
}

// ToDomain converts the persistence model to a domain ListingMapping
func (m *ListingMappingModel) ToDomain() *catalog.ListingMapping {
	return &catalog.ListingMapping{
		BaseEntity:    m.BaseModel.ToDomain(),
		Platform:      m.Platform,
		ExternalTitle: m.ExternalTitle,
		ExternalSKU:   m.ExternalSKU,
		ListingID:     m.ListingID,
		CreatedByID:   m.CreatedByID,
	}
}

// FromDomain populates the persistence model from a domain ListingMapping
func (m *ListingMappingModel) FromDomain(lm *catalog.ListingMapping) {
	m.FromDomainBaseEntity(lm.BaseEntity)
	m.Platform = lm.Platform
	m.ExternalTitle = lm.ExternalTitle
	m.ExternalSKU = lm.ExternalSKU
	m.ListingID = lm.ListingID
	m.CreatedByID = lm.CreatedByID
}

// UserModel is the read side of the users table, used for importer names
type UserModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Nickname string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
