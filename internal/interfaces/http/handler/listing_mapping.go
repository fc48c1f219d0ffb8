package handler

import (
	"context"

	"github.com/erp/backoffice/internal/application/salesimport"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListingMappingService is the application service behind ListingMappingHandler
type ListingMappingService interface {
	Create(ctx context.Context, in salesimport.CreateMappingInput) (*salesimport.MappingResponse, error)
	List(ctx context.Context, platform string, listingID *uuid.UUID) ([]salesimport.MappingResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListingMappingHandler serves the manual listing mapping endpoints
type ListingMappingHandler struct {
	BaseHandler
	service ListingMappingService
}

// NewListingMappingHandler creates a ListingMappingHandler
func NewListingMappingHandler(service ListingMappingService) *ListingMappingHandler {
	return &ListingMappingHandler{service: service}
}

type createMappingRequest struct {
	Platform      string `json:"platform" binding:"required"`
	ExternalTitle string `json:"externalTitle" binding:"max=512"`
	ExternalSKU   string `json:"externalSku" binding:"max=128"`
	ListingID     string `json:"listingId" binding:"required,uuid"`
}

// Create handles POST /listing-mappings
func (h *ListingMappingHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req createMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), salesimport.CreateMappingInput{
		Platform:      req.Platform,
		ExternalTitle: req.ExternalTitle,
		ExternalSKU:   req.ExternalSKU,
		ListingID:     uuid.MustParse(req.ListingID),
		Actor:         actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /listing-mappings
func (h *ListingMappingHandler) List(c *gin.Context) {
	var listingID *uuid.UUID
	if raw := c.Query("listingId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid listingId")
			return
		}
		listingID = &id
	}

	resp, err := h.service.List(c.Request.Context(), c.Query("platform"), listingID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /listing-mappings/:id
func (h *ListingMappingHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.HandleError(c, shared.NewNotFoundError("Listing mapping not found"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c)
}
