package spreadsheet

import (
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Reader errors. All of them surface to callers as UNRECOGNIZED_FORMAT
// domain errors carrying the message below.
var (
	// ErrEmptyFile is returned when the file has no header row
	ErrEmptyFile = errors.New("spreadsheet is empty")

	// ErrNoSheets is returned when a workbook holds no worksheet
	ErrNoSheets = errors.New("workbook contains no sheets")

	// ErrInvalidEncoding is returned when a CSV file is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding, must be UTF-8")

	// ErrLegacyWorkbook is returned for BIFF (.xls) and other compound
	// document files
	ErrLegacyWorkbook = errors.New("legacy .xls workbooks are not supported, save the file as .xlsx or .csv")

	// ErrTooManyRows is returned when the data rows exceed the reader limit
	ErrTooManyRows = errors.New("spreadsheet exceeds maximum allowed rows")
)

// formatError turns a read failure into a FormatDetectionError keeping the
// raw message
func formatError(err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.WrapDomainError(shared.CodeUnrecognizedFormat, err.Error(), err)
}

// tooManyRows reports the configured limit
func tooManyRows(limit int) error {
	return fmt.Errorf("%w (%d)", ErrTooManyRows, limit)
}
