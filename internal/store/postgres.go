package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store on the kv_entries table
type PostgresStore struct {
	db            DB
	maxValueBytes int
}

// NewPostgresStore creates a new PostgreSQL-backed store
func NewPostgresStore(pool *pgxpool.Pool, maxValueBytes int) *PostgresStore {
	return NewPostgresStoreWithDB(pool, maxValueBytes)
}

// NewPostgresStoreWithDB creates a PostgreSQL store with custom DB interface
func NewPostgresStoreWithDB(db DB, maxValueBytes int) *PostgresStore {
	if maxValueBytes <= 0 {
		maxValueBytes = DefaultMaxValueBytes
	}
	return &PostgresStore{db: db, maxValueBytes: maxValueBytes}
}

// Get retrieves a value by key
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_entries WHERE key = $1`

	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	return value, nil
}

// Set upserts a value
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > s.maxValueBytes {
		return ErrQuotaExceeded
	}

	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query := `DELETE FROM kv_entries WHERE key = ANY($1)`
	if _, err := s.db.Exec(ctx, query, keys); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

var _ Store = (*PostgresStore)(nil)
