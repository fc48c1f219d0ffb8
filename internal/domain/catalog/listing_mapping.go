package catalog

import (
	"strings"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// ListingMapping is a manual override routing an external title or SKU on
// a platform to a listing
type ListingMapping struct {
	shared.BaseEntity
	Platform      marketplace.Platform
	ExternalTitle *string
	ExternalSKU   *string
	ListingID     uuid.UUID
	CreatedByID   uuid.UUID
}

// NewListingMapping validates and creates a mapping
func NewListingMapping(platform marketplace.Platform, externalTitle, externalSKU string, listingID, createdBy uuid.UUID) (*ListingMapping, error) {
	if !platform.IsSupported() {
		return nil, shared.NewValidationError("Unsupported platform: " + platform.String())
	}
	if listingID == uuid.Nil {
		return nil, shared.NewValidationError("listingId is required")
	}

	title := optional(externalTitle)
	sku := optional(externalSKU)
	if title == nil && sku == nil {
		return nil, shared.NewValidationError("externalTitle or externalSku is required")
	}

	return &ListingMapping{
		BaseEntity:    shared.NewBaseEntity(),
		Platform:      platform,
		ExternalTitle: title,
		ExternalSKU:   sku,
		ListingID:     listingID,
		CreatedByID:   createdBy,
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
