package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_NoEndpoint_NoOpExporter(t *testing.T) {
	shutdown, err := Init(context.Background(), "vaswallet-test", "test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	defer func() { _ = shutdown(context.Background()) }()

	tracer := otel.Tracer("vaswallet-test")
	_, span := tracer.Start(context.Background(), "test-span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestInit_SetsGlobalTracerProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), "vaswallet-test", "test", "")
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	assert.NotNil(t, otel.GetTracerProvider())
}

func TestInit_Shutdown_Idempotent(t *testing.T) {
	shutdown, err := Init(context.Background(), "vaswallet-test", "test", "")
	require.NoError(t, err)

	require.NoError(t, shutdown(context.Background()))
}
