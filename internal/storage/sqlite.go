package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/keepsafe-dev/keepsafe/internal/dbx"
	sqlitemigrations "github.com/keepsafe-dev/keepsafe/internal/storage/migrations/sqlite"
)

// SQLiteProvider is the default on-device Provider, backed by a single
// SQLite database file.
type SQLiteProvider struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewSQLiteProvider opens (or creates) the database at dsn and applies the
// embedded migrations.
func NewSQLiteProvider(ctx context.Context, dsn string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	goose.SetBaseFS(sqlitemigrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteProvider{db: db}, nil
}

func (p *SQLiteProvider) Get(ctx context.Context, key string) ([]byte, error) {
	return kvGet(ctx, p.db, `SELECT value FROM kv WHERE key = ?`, key)
}

func (p *SQLiteProvider) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (p *SQLiteProvider) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (p *SQLiteProvider) Has(ctx context.Context, key string) (bool, error) {
	return kvHas(ctx, p.db, `SELECT 1 FROM kv WHERE key = ?`, key)
}

func (p *SQLiteProvider) ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	return kvListPrefix(ctx, p.db, `SELECT key, value FROM kv WHERE key LIKE ? || '%'`, prefix)
}

func (p *SQLiteProvider) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE ? || '%'`, prefix)
	if err != nil {
		return fmt.Errorf("failed to delete kv prefix [%s]: %w", prefix, err)
	}
	return nil
}

func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// kvGet, kvHas, and kvListPrefix are shared by the SQL-backed providers;
// only the placeholder syntax differs between dialects.

func kvGet(ctx context.Context, db dbx.DBTX, query, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func kvHas(ctx context.Context, db dbx.DBTX, query, key string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check kv[%s]: %w", key, err)
	}
	return true, nil
}

func kvListPrefix(ctx context.Context, db dbx.DBTX, query, prefix string) (map[string][]byte, error) {
	rows, err := db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv prefix [%s]: %w", prefix, err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}
	return result, nil
}
