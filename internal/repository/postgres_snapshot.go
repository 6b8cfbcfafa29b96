package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSnapshotRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSnapshotRepository создает хранилище снимков в PostgreSQL и схему при необходимости.
// Значение хранится как TEXT: снимок возвращается байт в байт, без нормализации JSONB.
func NewPostgresSnapshotRepository(ctx context.Context, db *pgxpool.Pool) (*PostgresSnapshotRepository, error) {
	_, err := db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS client_snapshots (
			scope TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (scope, key)
		)`)
	if err != nil {
		return nil, fmt.Errorf("create client_snapshots: %w", err)
	}

	_, err = db.Exec(ctx, `ALTER TABLE client_snapshots ALTER COLUMN value TYPE TEXT`)
	if err != nil {
		return nil, fmt.Errorf("migrate client_snapshots: %w", err)
	}

	return &PostgresSnapshotRepository{db: db}, nil
}

// Put сохраняет JSON-снимок, перезаписывая предыдущий.
func (r *PostgresSnapshotRepository) Put(ctx context.Context, scope, key string, value []byte) error {
	if err := validateSnapshotKey(scope, key); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO client_snapshots (scope, key, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		scope, key, string(value),
	)
	return err
}

// Get возвращает сохраненный снимок.
func (r *PostgresSnapshotRepository) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var value string

	err := r.db.QueryRow(ctx,
		`SELECT value FROM client_snapshots WHERE scope = $1 AND key = $2`,
		scope, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return []byte(value), nil
}

// DeleteScope удаляет все снимки сессии.
func (r *PostgresSnapshotRepository) DeleteScope(ctx context.Context, scope string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM client_snapshots WHERE scope = $1`, scope)
	return err
}

// Close закрывает пул подключений.
func (r *PostgresSnapshotRepository) Close() error {
	r.db.Close()
	return nil
}
