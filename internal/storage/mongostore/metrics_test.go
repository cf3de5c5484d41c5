package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"evcircle/internal/observability"
)

func TestCommandMonitorSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := observability.Tracer
	observability.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)).Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })

	m := commandMonitor()
	ctx := context.Background()
	errsBefore := testutil.ToFloat64(observability.StorageErrorsTotal.WithLabelValues(backendName, "insert"))

	m.Started(ctx, &event.CommandStartedEvent{CommandName: "find", RequestID: 1})
	m.Started(ctx, &event.CommandStartedEvent{CommandName: "insert", RequestID: 2})
	m.Succeeded(ctx, &event.CommandSucceededEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{CommandName: "find", RequestID: 1, Duration: time.Millisecond},
	})
	m.Failed(ctx, &event.CommandFailedEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{CommandName: "insert", RequestID: 2, Duration: time.Millisecond},
		Failure:              "E11000 duplicate key error",
	})

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "storage.find", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "storage.insert", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(observability.StorageErrorsTotal.WithLabelValues(backendName, "insert")))
}
