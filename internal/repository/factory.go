package repository

import (
	"context"
	"fmt"

	"github.com/samarth126/SmartShelf/internal/config"
	"github.com/samarth126/SmartShelf/internal/database"
)

// OpenSnapshotRepository выбирает драйвер снимков по SNAPSHOT_DRIVER.
func OpenSnapshotRepository(ctx context.Context, cfg config.Config) (SnapshotRepository, error) {
	switch cfg.Snapshot.Driver {
	case config.SnapshotMemory:
		return NewMemorySnapshotRepository(), nil
	case config.SnapshotSQLite:
		return NewSQLiteSnapshotRepository(cfg.Snapshot.SQLitePath)
	case config.SnapshotPostgres:
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}

		repo, err := NewPostgresSnapshotRepository(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", cfg.Snapshot.Driver)
	}
}
