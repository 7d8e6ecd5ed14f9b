// Package sqlite persists users, login sessions, posts, plans and bookings in a
// single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/nutrition-site/internal/utils"
	"github.com/jrsteele09/nutrition-site/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store owns the database handle. Each domain repo is a thin view over it.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates the SQLite database at path
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Users() *UserRepo            { return &UserRepo{db: s.sqlDB} }
func (s *Store) Sessions() *LoginSessionRepo { return &LoginSessionRepo{db: s.sqlDB} }
func (s *Store) Posts() *PostRepo            { return &PostRepo{db: s.sqlDB} }
func (s *Store) Plans() *PlanRepo            { return &PlanRepo{db: s.sqlDB} }
func (s *Store) Bookings() *BookingRepo      { return &BookingRepo{db: s.sqlDB} }

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	return utils.Ptr(time.UnixMilli(v.Int64).UTC())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err came from a UNIQUE constraint
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
