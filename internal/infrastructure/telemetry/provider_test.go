package telemetry

import (
	"context"
	"testing"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
)

func TestStart_Disabled(t *testing.T) {
	ctx := context.Background()

	p, err := Start(ctx, Settings{Enabled: false, ServiceName: "backoffice-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestProviders_NilIsSafe(t *testing.T) {
	var p *Providers
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSettingsFrom(t *testing.T) {
	s := SettingsFrom(config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.5,
		ServiceName:       "backoffice",
		Insecure:          true,
		DBTraceEnabled:    true,
	})
	assert.Equal(t, Settings{
		Enabled:       true,
		Endpoint:      "otel:4317",
		Insecure:      true,
		ServiceName:   "backoffice",
		SamplingRatio: 0.5,
	}, s)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.0).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNewResource(t *testing.T) {
	res, err := newResource("backoffice-test")
	require.NoError(t, err)
	assert.Contains(t, res.String(), "service.name=backoffice-test")
}
