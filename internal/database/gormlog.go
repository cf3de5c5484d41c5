package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"evcircle/internal/middleware"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger sends GORM output to the application slog logger. Missing rows
// are not errors; they are how lookups report "not found".
type gormLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger() logger.Interface {
	return &gormLogger{level: logger.Warn, slow: slowQueryThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *gormLogger) log(ctx context.Context, at logger.LogLevel, lvl slog.Level, msg string, data []interface{}) {
	if l.level >= at {
		middleware.Logger.Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, logger.Error, slog.LevelError, msg, data)
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		lvl, msg = slog.LevelError, "sql error"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow sql"
	case l.level >= logger.Info:
		lvl, msg = slog.LevelDebug, "sql"
	default:
		return
	}

	query, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", query),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if lvl == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	middleware.Logger.LogAttrs(ctx, lvl, msg, attrs...)
}
