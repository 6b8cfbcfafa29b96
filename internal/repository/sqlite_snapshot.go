package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteSnapshotRepository struct {
	db *sql.DB
}

// NewSQLiteSnapshotRepository открывает файл SQLite для снимков.
func NewSQLiteSnapshotRepository(dbPath string) (*SQLiteSnapshotRepository, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS client_snapshots (
	scope TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (scope, key)
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteSnapshotRepository{db: db}, nil
}

// Put сохраняет снимок, перезаписывая предыдущий.
func (r *SQLiteSnapshotRepository) Put(ctx context.Context, scope, key string, value []byte) error {
	if err := validateSnapshotKey(scope, key); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO client_snapshots (scope, key, value, updated_at) VALUES (?, ?, ?, ?)`,
		scope, key, string(value), time.Now().UTC(),
	)
	return err
}

// Get возвращает сохраненный снимок.
func (r *SQLiteSnapshotRepository) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var value string

	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM client_snapshots WHERE scope = ? AND key = ?`,
		scope, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return []byte(value), nil
}

// DeleteScope удаляет все снимки сессии.
func (r *SQLiteSnapshotRepository) DeleteScope(ctx context.Context, scope string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM client_snapshots WHERE scope = ?`, scope)
	return err
}

func (r *SQLiteSnapshotRepository) Close() error {
	return r.db.Close()
}
