package catalog

import (
	"context"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/google/uuid"
)

// ListingRepository defines the interface for listing lookups.
// Finders return shared.ErrNotFound when nothing matches.
type ListingRepository interface {
	// FindByID finds a listing with its store
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByStore lists a store's listings with their products
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]Listing, error)

	// FindByStoreTitle finds the earliest listing titled exactly title on a store of the platform
	FindByStoreTitle(ctx context.Context, platform marketplace.Platform, title string) (*Listing, error)

	// FindByProductCode finds the earliest listing with the external product code on a store of the platform
	FindByProductCode(ctx context.Context, platform marketplace.Platform, code string) (*Listing, error)

	// FindByProductSKU finds the earliest listing whose product has the internal SKU on a store of the platform
	FindByProductSKU(ctx context.Context, platform marketplace.Platform, sku string) (*Listing, error)
}

// MappingFilter narrows a listing mapping query
type MappingFilter struct {
	Platform  marketplace.Platform
	ListingID *uuid.UUID
}

// ListingMappingRepository defines the interface for manual mapping persistence
type ListingMappingRepository interface {
	// FindMatch finds the earliest mapping on the platform whose external
	// title equals title or whose external SKU equals sku. Blank arguments
	// take no part in the match.
	FindMatch(ctx context.Context, platform marketplace.Platform, title, sku string) (*ListingMapping, error)

	// FindByID finds a mapping by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ListingMapping, error)

	// FindAll lists mappings matching the filter, newest first
	FindAll(ctx context.Context, filter MappingFilter) ([]ListingMapping, error)

	// Save creates a mapping
	Save(ctx context.Context, mapping *ListingMapping) error

	// Delete deletes a mapping
	Delete(ctx context.Context, id uuid.UUID) error
}
