package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	postgresmigrations "github.com/keepsafe-dev/keepsafe/internal/storage/migrations/postgres"
)

// PostgresProvider is an alternative Provider for deployments that keep the
// device store in a shared PostgreSQL instance instead of a local file.
// The encryption model is unchanged: blobs land in the database already
// sealed, so the server never sees plaintext.
type PostgresProvider struct {
	db *sql.DB
}

// NewPostgresProvider connects to the given DSN and applies the embedded
// migrations.
func NewPostgresProvider(ctx context.Context, dsn string) (*PostgresProvider, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}

	goose.SetBaseFS(postgresmigrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresProvider{db: db}, nil
}

func (p *PostgresProvider) Get(ctx context.Context, key string) ([]byte, error) {
	return kvGet(ctx, p.db, `SELECT value FROM kv WHERE key = $1`, key)
}

func (p *PostgresProvider) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (p *PostgresProvider) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (p *PostgresProvider) Has(ctx context.Context, key string) (bool, error) {
	return kvHas(ctx, p.db, `SELECT 1 FROM kv WHERE key = $1`, key)
}

func (p *PostgresProvider) ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	return kvListPrefix(ctx, p.db, `SELECT key, value FROM kv WHERE key LIKE $1 || '%'`, prefix)
}

func (p *PostgresProvider) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE $1 || '%'`, prefix)
	if err != nil {
		return fmt.Errorf("failed to delete kv prefix [%s]: %w", prefix, err)
	}
	return nil
}

func (p *PostgresProvider) Close() error {
	return p.db.Close()
}
