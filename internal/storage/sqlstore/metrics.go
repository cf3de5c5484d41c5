package sqlstore

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"evcircle/internal/observability"
)

const (
	startedAtKey = "evcircle:started_at"
	spanKey      = "evcircle:span"
)

// metricsPlugin times every GORM statement into the storage latency histogram
// and wraps it in a client span.
type metricsPlugin struct {
	backend string
}

func (p *metricsPlugin) Name() string { return "evcircle:metrics" }

func (p *metricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op            string
		before, after registrar
	}{
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
		{"raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}
	for _, h := range hooks {
		if err := h.before.Register("evcircle:before_"+h.op, p.start(h.op)); err != nil {
			return err
		}
		if err := h.after.Register("evcircle:after_"+h.op, p.finish(h.op)); err != nil {
			return err
		}
	}
	return nil
}

type registrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

func (p *metricsPlugin) start(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		tx.InstanceSet(startedAtKey, time.Now())
		if tx.Statement == nil || tx.Statement.Context == nil {
			return
		}
		ctx, span := observability.StartStorageSpan(tx.Statement.Context, p.backend, op)
		tx.Statement.Context = ctx
		tx.InstanceSet(spanKey, span)
	}
}

func (p *metricsPlugin) finish(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		name := op
		if tx.Statement != nil && tx.Statement.Table != "" {
			name = op + "_" + tx.Statement.Table
		}

		// A missing row is an answer, not a failure.
		err := tx.Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = nil
		}

		if v, ok := tx.InstanceGet(spanKey); ok {
			if span, ok := v.(trace.Span); ok {
				span.SetName("storage." + name)
				observability.EndSpan(span, err)
			}
		}
		if err != nil {
			observability.ObserveStorageError(p.backend, name)
		}
		if v, ok := tx.InstanceGet(startedAtKey); ok {
			if started, ok := v.(time.Time); ok {
				observability.ObserveStorageOp(p.backend, name, time.Since(started))
			}
		}
	}
}
