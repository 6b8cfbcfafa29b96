package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/samarth126/SmartShelf/internal/config"
)

// TestMemorySnapshotRoundTrip проверяет запись и чтение снимка.
func TestMemorySnapshotRoundTrip(t *testing.T) {
	repo := NewMemorySnapshotRepository()
	ctx := context.Background()

	value := []byte(`[{"id":1}]`)
	if err := repo.Put(ctx, "session-a", KeyInventoryLists, value); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value[0] = 'x'

	got, err := repo.Get(ctx, "session-a", KeyInventoryLists)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Fatalf("expected stored copy, got %s", got)
	}

	if _, err := repo.Get(ctx, "session-b", KeyInventoryLists); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other scope, got %v", err)
	}
}

// TestMemorySnapshotDeleteScope проверяет удаление снимков сессии.
func TestMemorySnapshotDeleteScope(t *testing.T) {
	repo := NewMemorySnapshotRepository()
	ctx := context.Background()

	_ = repo.Put(ctx, "session-a", KeyInventoryLists, []byte("[]"))
	if err := repo.DeleteScope(ctx, "session-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.Get(ctx, "session-a", KeyInventoryLists); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestSnapshotKeyValidation проверяет отказ на пустом ключе.
func TestSnapshotKeyValidation(t *testing.T) {
	repo := NewMemorySnapshotRepository()

	if err := repo.Put(context.Background(), "", KeyInventoryLists, []byte("[]")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

// TestSQLiteSnapshotRoundTrip проверяет перезапись и удаление снимков в SQLite.
func TestSQLiteSnapshotRoundTrip(t *testing.T) {
	repo, err := NewSQLiteSnapshotRepository(filepath.Join(t.TempDir(), "nested", "snapshots.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	_ = repo.Put(ctx, "session-a", KeyInventoryLists, []byte("[]"))
	if err := repo.Put(ctx, "session-a", KeyInventoryLists, []byte(`[{"id":3}]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get(ctx, "session-a", KeyInventoryLists)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[{"id":3}]` {
		t.Fatalf("expected overwritten snapshot, got %s", got)
	}

	if err := repo.DeleteScope(ctx, "session-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Get(ctx, "session-a", KeyInventoryLists); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestOpenSnapshotRepository проверяет выбор драйвера.
func TestOpenSnapshotRepository(t *testing.T) {
	repo, err := OpenSnapshotRepository(context.Background(), config.Config{Snapshot: config.SnapshotConfig{Driver: config.SnapshotMemory}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.(*MemorySnapshotRepository); !ok {
		t.Fatalf("expected memory repository, got %T", repo)
	}

	if _, err := OpenSnapshotRepository(context.Background(), config.Config{Snapshot: config.SnapshotConfig{Driver: "redis"}}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
