package telemetry

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ImportMeterName is the instrumentation scope of the sales import counters
const ImportMeterName = "backoffice/salesimport"

// Confirm item results
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// ImportMetrics records sales import activity
type ImportMetrics struct {
	previewRows     *Counter
	confirmItems    *Counter
	batchesRollback *Counter
}

// NewImportMetrics creates the import counters on meter
func NewImportMetrics(meter metric.Meter) (*ImportMetrics, error) {
	previewRows, err := NewCounter(meter, "import_preview_rows_total", "Order rows parsed by preview", "{row}")
	if err != nil {
		return nil, err
	}
	confirmItems, err := NewCounter(meter, "import_confirm_items_total", "Items processed by confirm, by result", "{item}")
	if err != nil {
		return nil, err
	}
	batchesRollback, err := NewCounter(meter, "import_batches_rolled_back_total", "Import batches rolled back", "{batch}")
	if err != nil {
		return nil, err
	}

	return &ImportMetrics{
		previewRows:     previewRows,
		confirmItems:    confirmItems,
		batchesRollback: batchesRollback,
	}, nil
}

// RecordPreview counts the rows a preview parsed
func (m *ImportMetrics) RecordPreview(ctx context.Context, platform marketplace.Platform, rows int) {
	if m == nil {
		return
	}
	m.previewRows.Add(ctx, int64(rows), attribute.String("platform", platform.String()))
}

// RecordConfirm counts confirmed and failed items
func (m *ImportMetrics) RecordConfirm(ctx context.Context, platform marketplace.Platform, success, failed int) {
	if m == nil {
		return
	}
	p := attribute.String("platform", platform.String())
	m.confirmItems.Add(ctx, int64(success), p, attribute.String("result", ResultSuccess))
	m.confirmItems.Add(ctx, int64(failed), p, attribute.String("result", ResultFailed))
}

// RecordRollback counts a rolled back batch
func (m *ImportMetrics) RecordRollback(ctx context.Context) {
	if m == nil {
		return
	}
	m.batchesRollback.Inc(ctx)
}

// Counter records an int64 counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter on meter
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add adds value with the given attributes
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc adds one
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}
