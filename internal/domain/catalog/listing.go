package catalog

import (
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a shop on one marketplace in one country
type Store struct {
	ID          uuid.UUID
	Name        string
	Platform    marketplace.Platform
	CountryCode string
}

// Product is an internal catalog item
type Product struct {
	ID   uuid.UUID
	SKU  string
	Name string
}

// Listing is a product's page on a store
type Listing struct {
	shared.BaseEntity
	StoreID      uuid.UUID
	ProductID    uuid.UUID
	ProductCode  string
	StoreTitle   string
	CurrentPrice decimal.Decimal
	URL          *string

	// Loaded on demand by repositories
	Store   *Store
	Product *Product
}

// CountryCode returns the country of the listing's store, if loaded
func (l *Listing) CountryCode() string {
	if l.Store == nil {
		return ""
	}
	return l.Store.CountryCode
}
