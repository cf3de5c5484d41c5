// Package sqlstore implements storage.Storage on GORM. It runs on PostgreSQL
// in production and on SQLite for local development and tests.
//
// Compound operations run inside db.Transaction. Relationship pairs rely on
// unique indexes and INSERT ... ON CONFLICT DO NOTHING, and derived counters
// are adjusted with in-place arithmetic floored at zero.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evcircle/internal/models"
	"evcircle/internal/observability"
	"evcircle/internal/storage"
)

// Store implements storage.Storage over a *gorm.DB.
type Store struct {
	db      *gorm.DB
	backend string

	mu   sync.Mutex
	last time.Time
}

var _ storage.Storage = (*Store)(nil)

// New wraps db and registers the storage metrics callbacks on it.
// The schema must already exist (see database.Migrate).
func New(db *gorm.DB) (*Store, error) {
	s := &Store{db: db, backend: db.Dialector.Name()}
	if err := db.Use(&metricsPlugin{backend: s.backend}); err != nil && !errors.Is(err, gorm.ErrRegistered) {
		return nil, err
	}
	return s, nil
}

func (s *Store) Backend() string { return s.backend }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return s.wrap("ping", err)
	}
	return s.wrap("ping", sqlDB.PingContext(ctx))
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return s.wrap("close", err)
	}
	return s.wrap("close", sqlDB.Close())
}

// now returns a strictly increasing UTC timestamp at microsecond precision,
// the resolution PostgreSQL keeps, so newest-first listings never tie.
func (s *Store) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	observability.ObserveStorageError(s.backend, op)
	return storage.Internal(op, err)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) tx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return s.wrap(op, s.conn(ctx).Transaction(fn))
}

// forUpdate row-locks the selected rows where the dialect supports it.
// SQLite serialises writers on its own.
func (s *Store) forUpdate(tx *gorm.DB) *gorm.DB {
	if s.backend == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// take loads one row matching query, or nil when none does.
func take[T any](tx *gorm.DB, query string, args ...interface{}) (*T, error) {
	var out T
	err := tx.Where(query, args...).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findPage[T any](q *gorm.DB, page storage.Page) ([]T, error) {
	page = page.Normalize()
	out := make([]T, 0)
	err := q.Limit(page.Limit).Offset(page.Offset).Find(&out).Error
	return out, err
}

func findAll[T any](q *gorm.DB) ([]T, error) {
	out := make([]T, 0)
	err := q.Find(&out).Error
	return out, err
}

// patchRow applies updates to the row whose keyColumn equals key and returns
// the fresh row, or nil when no row matched.
func patchRow[T any](s *Store, ctx context.Context, op, keyColumn, key string, updates map[string]interface{}) (*T, error) {
	var out *T
	err := s.tx(ctx, op, func(tx *gorm.DB) error {
		updates["updated_at"] = s.now()
		res := tx.Model(new(T)).Where(keyColumn+" = ?", key).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		var err error
		out, err = take[T](tx, keyColumn+" = ?", key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// adjust adds delta to an integer column, never letting it drop below zero.
func adjust(tx *gorm.DB, model interface{}, column string, delta int, query string, args ...interface{}) error {
	if delta == 0 {
		return nil
	}
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
	}
	return tx.Model(model).Where(query, args...).UpdateColumn(column, expr).Error
}

// toggleMember flips userID in the JSON id list stored in column and
// returns the updated row, or nil when the row is missing.
func toggleMember[T any](s *Store, ctx context.Context, op, column, id, userID string, set func(*T) *datatypes.JSONSlice[string]) (*T, error) {
	var out *T
	err := s.tx(ctx, op, func(tx *gorm.DB) error {
		row, err := take[T](s.forUpdate(tx), "id = ?", id)
		if err != nil || row == nil {
			return err
		}
		ids := set(row)
		*ids = strList(storage.ToggleID(*ids, userID))
		if err := tx.Model(new(T)).Where("id = ?", id).UpdateColumn(column, *ids).Error; err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func strList(in []string) datatypes.JSONSlice[string] {
	return datatypes.JSONSlice[string](storage.StringsOrEmpty(in))
}

func strPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains returns a LIKE pattern matching term anywhere, with the
// term's own wildcards escaped. Use with ESCAPE '\'.
func likeContains(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// jsonElement returns a LIKE pattern matching a lower-cased string element
// inside a JSON array column.
func jsonElement(v string) string {
	b, _ := json.Marshal(strings.ToLower(v))
	return "%" + likeEscaper.Replace(string(b)) + "%"
}

const (
	likeClause      = " LIKE ? ESCAPE '\\'"
	jsonArrayClause = "LOWER(CAST(%s AS TEXT))" + likeClause
)
