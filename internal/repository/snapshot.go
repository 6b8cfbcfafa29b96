package repository

import (
	"context"
	"strings"
)

// KeyInventoryLists ключ снимка последних загруженных списков инвентаря.
const KeyInventoryLists = "inventory_lists"

// SnapshotRepository хранилище клиентских снимков вместо localStorage браузера.
// scope изолирует снимки разных сессий.
type SnapshotRepository interface {
	Put(ctx context.Context, scope, key string, value []byte) error
	Get(ctx context.Context, scope, key string) ([]byte, error)
	DeleteScope(ctx context.Context, scope string) error
	Close() error
}

func validateSnapshotKey(scope, key string) error {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return ErrInvalid
	}
	return nil
}
