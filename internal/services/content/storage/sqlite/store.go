// Package sqlite provides the durable storage backend: client scopes are rows
// in a SQLite table and survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/postshelf/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/postshelf/internal/services/content/storage"
	"github.com/louisbranch/postshelf/internal/services/content/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists scopes in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Scope returns the KV view of one scope id.
func (s *Store) Scope(id string) (storage.KV, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, storage.ErrScopeRequired
	}
	return &scope{store: s, id: id}, nil
}

// Scopes lists scope ids holding at least one key, sorted.
func (s *Store) Scopes(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT DISTINCT scope FROM kv_entries ORDER BY scope ASC`)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list scopes: %w", err)
		}
		scopes = append(scopes, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	return scopes, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

type scope struct {
	store *Store
	id    string
}

func (s *scope) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.store.ready(ctx); err != nil {
		return "", false, err
	}
	var value string
	err := s.store.sqlDB.QueryRowContext(
		ctx,
		`SELECT value FROM kv_entries WHERE scope = ? AND key = ?`,
		s.id,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *scope) Set(ctx context.Context, key string, value string) error {
	if err := s.store.ready(ctx); err != nil {
		return err
	}
	_, err := s.store.sqlDB.ExecContext(
		ctx,
		`INSERT INTO kv_entries (scope, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (scope, key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = excluded.updated_at`,
		s.id,
		key,
		value,
		toMillis(s.store.now()),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *scope) Delete(ctx context.Context, key string) error {
	if err := s.store.ready(ctx); err != nil {
		return err
	}
	if _, err := s.store.sqlDB.ExecContext(ctx, `DELETE FROM kv_entries WHERE scope = ? AND key = ?`, s.id, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *scope) Clear(ctx context.Context) error {
	if err := s.store.ready(ctx); err != nil {
		return err
	}
	if _, err := s.store.sqlDB.ExecContext(ctx, `DELETE FROM kv_entries WHERE scope = ?`, s.id); err != nil {
		return fmt.Errorf("clear scope: %w", err)
	}
	return nil
}

var _ storage.Backend = (*Store)(nil)
