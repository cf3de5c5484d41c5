package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObserveStorageOp(t *testing.T) {
	before := testutil.CollectAndCount(StorageOperationSeconds)
	ObserveStorageOp("test-backend", "create_user", 5*time.Millisecond)
	ObserveStorageOp("test-backend", "get_user", time.Millisecond)
	assert.Equal(t, before+2, testutil.CollectAndCount(StorageOperationSeconds))
}

func TestObserveStorageError(t *testing.T) {
	ObserveStorageError("test-backend", "delete_post")
	ObserveStorageError("test-backend", "delete_post")
	got := testutil.ToFloat64(StorageErrorsTotal.WithLabelValues("test-backend", "delete_post"))
	assert.Equal(t, float64(2), got)
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "evcircle-test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartStorageSpan(context.Background(), "memory", "get_user")
	assert.Empty(t, TraceID(ctx))
	EndSpan(span, errors.New("boom"))
}

func TestStorageSpanRecordsErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = prev })

	ctx, span := StartStorageSpan(context.Background(), "sqlite", "create_post")
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, errors.New("constraint failed"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "storage.create_post", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", newSampler(1).Description())
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
