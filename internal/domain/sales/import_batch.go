package sales

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxRecordedErrors caps the item errors kept on a batch record
const MaxRecordedErrors = 100

// ItemError is a confirm failure for one order line
type ItemError struct {
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
}

// ImportBatch groups the ledger rows written by one confirmed import
type ImportBatch struct {
	shared.BaseEntity
	Platform     marketplace.Platform
	FileName     string
	ImportedByID uuid.UUID
	ImportedAt   time.Time
	TotalItems   int
	SuccessCount int
	FailedCount  int
	ErrorDetails []ItemError
}

// NewImportBatch creates a batch. A blank platform is recorded as OTHER
// and a blank file name as Import-<timestamp>.
func NewImportBatch(platform marketplace.Platform, fileName string, importedBy uuid.UUID, at time.Time) *ImportBatch {
	if platform == "" {
		platform = marketplace.PlatformOther
	}
	at = at.UTC()
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = "Import-" + at.Format(time.RFC3339)
	}

	return &ImportBatch{
		BaseEntity:   shared.NewBaseEntityAt(at),
		Platform:     platform,
		FileName:     fileName,
		ImportedByID: importedBy,
		ImportedAt:   at,
		ErrorDetails: make([]ItemError, 0),
	}
}

// RecordOutcome stores the confirm result on the batch
func (b *ImportBatch) RecordOutcome(total, success int, errs []ItemError) {
	b.TotalItems = total
	b.SuccessCount = success
	b.FailedCount = len(errs)
	if len(errs) > MaxRecordedErrors {
		errs = errs[:MaxRecordedErrors]
	}
	b.ErrorDetails = append(make([]ItemError, 0, len(errs)), errs...)
	b.Touch()
}

// ErrorDetailsJSON serializes ErrorDetails for storage
func (b *ImportBatch) ErrorDetailsJSON() (string, error) {
	if len(b.ErrorDetails) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(b.ErrorDetails)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetErrorDetailsFromJSON restores ErrorDetails from storage
func (b *ImportBatch) SetErrorDetailsFromJSON(data string) error {
	if data == "" {
		b.ErrorDetails = make([]ItemError, 0)
		return nil
	}
	return json.Unmarshal([]byte(data), &b.ErrorDetails)
}

// UserRef is the display identity of an importer
type UserRef struct {
	Username string
	Nickname string
}

// CountryRef names a country
type CountryRef struct {
	Code string
	Name string
}

// BatchSummary is a batch as shown in the batch list
type BatchSummary struct {
	Batch      ImportBatch
	ImportedBy *UserRef
	RowCount   int64
	// Country of the sampled store, nil when the batch owns no rows
	Country *CountryRef
}
