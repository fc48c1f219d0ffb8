package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/erp/backoffice/internal/application/salesimport"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader optionally names a confirm request
const IdempotencyKeyHeader = "Idempotency-Key"

// SalesImportService is the application service behind SalesImportHandler
type SalesImportService interface {
	Preview(ctx context.Context, in salesimport.PreviewInput) (*salesimport.PreviewResult, error)
	Confirm(ctx context.Context, in salesimport.ConfirmInput) (*salesimport.ConfirmResult, error)
	ListBatches(ctx context.Context, q salesimport.BatchListQuery, actor identity.Actor) (*salesimport.BatchListResponse, error)
	Rollback(ctx context.Context, batchID uuid.UUID, actor identity.Actor) error
	ListingOptions(ctx context.Context, storeID uuid.UUID) ([]salesimport.ListingOption, error)
}

// SalesImportHandler serves the sales import endpoints
type SalesImportHandler struct {
	BaseHandler
	service        SalesImportService
	tempDir        string
	maxUploadBytes int64
}

// NewSalesImportHandler creates a handler. Uploads are spooled to tempDir
// and refused above maxUploadBytes.
func NewSalesImportHandler(service SalesImportService, tempDir string, maxUploadBytes int64) *SalesImportHandler {
	return &SalesImportHandler{service: service, tempDir: tempDir, maxUploadBytes: maxUploadBytes}
}

// Preview handles POST /sales-import/preview
func (h *SalesImportHandler) Preview(c *gin.Context) {
	if _, ok := h.actor(c); !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleError(c, err)
			return
		}
		h.BadRequest(c, "file is required")
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("File exceeds the %d byte upload limit", h.maxUploadBytes))
		return
	}

	in := salesimport.PreviewInput{
		FileName:     filepath.Base(fh.Filename),
		PlatformHint: strings.TrimSpace(c.PostForm("platform")),
	}
	if raw := strings.TrimSpace(c.PostForm("storeId")); raw != "" {
		storeID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid storeId")
			return
		}
		in.StoreID = &storeID
	}

	path, err := h.spool(fh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	in.FilePath = path

	result, err := h.service.Preview(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// spool copies an upload to a temp file whose removal Preview owns
func (h *SalesImportHandler) spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.tempDir, "sales-import-*"+strings.ToLower(filepath.Ext(fh.Filename)))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return dst.Name(), nil
}

// confirmRequest keeps items raw so that a non-array payload can be told
// apart from an empty one
type confirmRequest struct {
	Platform string          `json:"platform"`
	StoreID  string          `json:"storeId"`
	FileName string          `json:"fileName"`
	Items    json.RawMessage `json:"items"`
}

// Confirm handles POST /sales-import/confirm
func (h *SalesImportHandler) Confirm(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	in := salesimport.ConfirmInput{
		Platform:       req.Platform,
		FileName:       req.FileName,
		Actor:          actor,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	}
	if raw := strings.TrimSpace(req.StoreID); raw != "" {
		storeID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid storeId")
			return
		}
		in.StoreID = storeID
	}
	items, err := decodeItems(req.Items)
	if err != nil {
		logger.GetGinLogger(c).Debug("Rejected confirm items", zap.Error(err))
		h.HandleError(c, shared.NewValidationError("Invalid data"))
		return
	}
	in.Items = items

	result, err := h.service.Confirm(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// looseString accepts a JSON string or number. Exports often carry order
// ids as numbers.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = looseString(n.String())
	}
	return nil
}

// confirmItemPayload shadows the id fields of ConfirmItem with lenient types
type confirmItemPayload struct {
	salesimport.ConfirmItem
	PlatformOrderID looseString `json:"platformOrderId"`
	ListingID       looseString `json:"listingId"`
}

// decodeItems returns nil items for a missing or non-array payload. Each
// element is decoded on its own; one that does not decode is returned as an
// Invalid item carrying whatever order id could be read.
func decodeItems(raw json.RawMessage) ([]salesimport.ConfirmItem, error) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, err
	}

	items := make([]salesimport.ConfirmItem, 0, len(elements))
	for _, el := range elements {
		var p confirmItemPayload
		if err := json.Unmarshal(el, &p); err != nil {
			var ids struct {
				PlatformOrderID looseString `json:"platformOrderId"`
				ListingID       looseString `json:"listingId"`
			}
			_ = json.Unmarshal(el, &ids)
			items = append(items, salesimport.ConfirmItem{
				PlatformOrderID: string(ids.PlatformOrderID),
				ListingID:       string(ids.ListingID),
				Invalid:         true,
			})
			continue
		}
		item := p.ConfirmItem
		item.PlatformOrderID = string(p.PlatformOrderID)
		item.ListingID = string(p.ListingID)
		items = append(items, item)
	}
	return items, nil
}

type batchListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Country  string `form:"country" binding:"omitempty,max=8"`
	Platform string `form:"platform" binding:"omitempty,max=32"`
	UserID   string `form:"userId" binding:"omitempty,uuid"`
}

// ListBatches handles GET /sales-import/batches
func (h *SalesImportHandler) ListBatches(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req batchListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	q := salesimport.BatchListQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Country:  req.Country,
		Platform: req.Platform,
	}
	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			h.BadRequest(c, "Invalid userId")
			return
		}
		q.UserID = &userID
	}

	resp, err := h.service.ListBatches(c.Request.Context(), q, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Rollback handles DELETE /sales-import/batch/:id
func (h *SalesImportHandler) Rollback(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.HandleError(c, shared.NewNotFoundError("Batch not found"))
		return
	}
	if err := h.service.Rollback(c.Request.Context(), batchID, actor); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c)
}

// ListingOptions handles GET /sales-import/listings
func (h *SalesImportHandler) ListingOptions(c *gin.Context) {
	if _, ok := h.actor(c); !ok {
		return
	}

	storeID, err := uuid.Parse(c.Query("storeId"))
	if err != nil {
		h.BadRequest(c, "storeId is required")
		return
	}
	options, err := h.service.ListingOptions(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, options)
}
