package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// sumOf adds the data points of a counter whose attributes include attrs
func sumOf(rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
		points:
			for _, dp := range sum.DataPoints {
				for _, want := range attrs {
					got, found := dp.Attributes.Value(want.Key)
					if !found || got != want.Value {
						continue points
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

func TestImportMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	m, err := telemetry.NewImportMetrics(provider.Meter(telemetry.ImportMeterName))
	require.NoError(t, err)

	m.RecordPreview(ctx, marketplace.PlatformShopee, 12)
	m.RecordPreview(ctx, marketplace.PlatformTikTokShop, 3)
	m.RecordConfirm(ctx, marketplace.PlatformShopee, 2, 1)
	m.RecordRollback(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(15), sumOf(rm, "import_preview_rows_total"))
	assert.Equal(t, int64(12), sumOf(rm, "import_preview_rows_total", attribute.String("platform", "SHOPEE")))
	assert.Equal(t, int64(2), sumOf(rm, "import_confirm_items_total", attribute.String("result", telemetry.ResultSuccess)))
	assert.Equal(t, int64(1), sumOf(rm, "import_confirm_items_total", attribute.String("result", telemetry.ResultFailed)))
	assert.Equal(t, int64(1), sumOf(rm, "import_batches_rolled_back_total"))
}

func TestImportMetrics_NilIsNoop(t *testing.T) {
	var m *telemetry.ImportMetrics
	assert.NotPanics(t, func() {
		m.RecordPreview(context.Background(), marketplace.PlatformShopee, 1)
		m.RecordConfirm(context.Background(), marketplace.PlatformShopee, 1, 1)
		m.RecordRollback(context.Background())
	})
}
