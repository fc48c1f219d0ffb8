// Package spreadsheet reads marketplace order exports and recognizes which
// platform produced them.
package spreadsheet

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultMaxRows bounds the data rows accepted from one file
const DefaultMaxRows = 50000

// Result is a parsed and normalized export
type Result struct {
	Platform marketplace.Platform
	Headers  []string
	Orders   []marketplace.Order
}

// Reader parses export files into normalized orders
type Reader struct {
	normalizer *marketplace.Normalizer
	maxRows    int
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithMaxRows limits the number of data rows per file
func WithMaxRows(n int) ReaderOption {
	return func(r *Reader) {
		r.maxRows = n
	}
}

// NewReader creates a Reader using normalizer for field conversion
func NewReader(normalizer *marketplace.Normalizer, opts ...ReaderOption) *Reader {
	if normalizer == nil {
		normalizer = marketplace.NewNormalizer()
	}
	r := &Reader{
		normalizer: normalizer,
		maxRows:    DefaultMaxRows,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFile reads the export at path. Without a platform hint the platform
// is detected from the header row. Every failure is an UNRECOGNIZED_FORMAT
// domain error.
func (r *Reader) ReadFile(ctx context.Context, path, platformHint string) (*Result, error) {
	_, span := otel.Tracer("spreadsheet").Start(ctx, "spreadsheet.ReadFile")
	defer span.End()

	platform, err := marketplace.ParsePlatform(platformHint)
	if err != nil {
		return nil, err
	}

	sheet, err := r.readSheet(path)
	if err != nil {
		span.RecordError(err)
		return nil, formatError(err)
	}

	if platform == "" {
		platform, err = marketplace.DetectPlatform(sheet.Headers)
		if err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.String("import.platform", platform.String()),
		attribute.Int("import.rows", len(sheet.Rows)),
	)

	return &Result{
		Platform: platform,
		Headers:  sheet.Headers,
		Orders:   r.normalizer.Normalize(platform, sheet.records()),
	}, nil
}

func (r *Reader) readSheet(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		parser, err := NewCSVParser(f)
		if err != nil {
			return nil, err
		}
		return parser.ReadSheet(r.maxRows)
	}
	return readWorkbook(f, r.maxRows)
}
