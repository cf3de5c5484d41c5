package mongostore

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/otel/trace"

	"evcircle/internal/observability"
)

// commandMonitor feeds driver command timings into the storage latency
// histogram and opens one client span per command. Spans are matched to
// their outcome by request id.
func commandMonitor() *event.CommandMonitor {
	var spans sync.Map // int64 -> trace.Span

	end := func(requestID int64, err error) {
		if v, ok := spans.LoadAndDelete(requestID); ok {
			observability.EndSpan(v.(trace.Span), err)
		}
	}

	return &event.CommandMonitor{
		Started: func(ctx context.Context, e *event.CommandStartedEvent) {
			_, span := observability.StartStorageSpan(ctx, backendName, e.CommandName)
			spans.Store(e.RequestID, span)
		},
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			end(e.RequestID, nil)
			observability.ObserveStorageOp(backendName, e.CommandName, e.Duration)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			end(e.RequestID, errors.New(e.Failure))
			observability.ObserveStorageOp(backendName, e.CommandName, e.Duration)
			observability.ObserveStorageError(backendName, e.CommandName)
		},
	}
}
