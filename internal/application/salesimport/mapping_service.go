package salesimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MappingService manages manual listing mappings
type MappingService struct {
	mappings catalog.ListingMappingRepository
	listings catalog.ListingRepository
	logger   *zap.Logger
}

// NewMappingService creates a MappingService
func NewMappingService(mappings catalog.ListingMappingRepository, listings catalog.ListingRepository, log *zap.Logger) *MappingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MappingService{mappings: mappings, listings: listings, logger: log.Named("listing_mapping")}
}

// Create adds a mapping to an existing listing
func (s *MappingService) Create(ctx context.Context, in CreateMappingInput) (*MappingResponse, error) {
	if in.Actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}

	platform := marketplace.Platform(strings.ToUpper(strings.TrimSpace(in.Platform)))
	mapping, err := catalog.NewListingMapping(platform, in.ExternalTitle, in.ExternalSKU, in.ListingID, in.Actor.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.listings.FindByID(ctx, in.ListingID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Listing %s not found", in.ListingID))
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, fmt.Errorf("failed to save listing mapping: %w", err)
	}

	logger.For(ctx, s.logger).Info("Listing mapping created",
		zap.String("mapping_id", mapping.ID.String()),
		zap.String("platform", platform.String()),
		zap.String("listing_id", mapping.ListingID.String()),
	)
	resp := toMappingResponse(*mapping)
	return &resp, nil
}

// List returns mappings, newest first. A blank platform lists every platform.
func (s *MappingService) List(ctx context.Context, platform string, listingID *uuid.UUID) ([]MappingResponse, error) {
	filter := catalog.MappingFilter{
		Platform:  marketplace.Platform(strings.ToUpper(strings.TrimSpace(platform))),
		ListingID: listingID,
	}
	mappings, err := s.mappings.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing mappings: %w", err)
	}

	resp := make([]MappingResponse, 0, len(mappings))
	for _, m := range mappings {
		resp = append(resp, toMappingResponse(m))
	}
	return resp, nil
}

// Delete removes a mapping
func (s *MappingService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.mappings.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError("Listing mapping not found")
		}
		return fmt.Errorf("failed to load listing mapping: %w", err)
	}
	if err := s.mappings.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete listing mapping: %w", err)
	}
	logger.For(ctx, s.logger).Info("Listing mapping deleted", zap.String("mapping_id", id.String()))
	return nil
}

func toMappingResponse(m catalog.ListingMapping) MappingResponse {
	return MappingResponse{
		ID:            m.ID,
		Platform:      m.Platform.String(),
		ExternalTitle: m.ExternalTitle,
		ExternalSKU:   m.ExternalSKU,
		ListingID:     m.ListingID,
		CreatedByID:   m.CreatedByID,
		CreatedAt:     m.CreatedAt,
	}
}
