package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samarth126/SmartShelf/internal/backend"
	"github.com/samarth126/SmartShelf/internal/models"
	"github.com/samarth126/SmartShelf/internal/repository"
)

var ErrListNotFound = errors.New("inventory list not found")

// Source эндпоинты чтения списков инвентаря.
type Source interface {
	ListInventoryLists(ctx context.Context) (models.InventoryListResponse, error)
	GetInventoryList(ctx context.Context, id int64) (models.InventoryList, error)
}

// Browser состояние страницы списков инвентаря одной сессии.
type Browser struct {
	source    Source
	snapshots repository.SnapshotRepository
	scope     string
	logger    *slog.Logger

	mountMu sync.Mutex
	mounted bool

	snapshotMu sync.Mutex
	closed     bool

	mu    sync.RWMutex
	lists []models.InventoryList
}

// NewBrowser создает браузер списков; scope изолирует снимок сессии.
func NewBrowser(source Source, snapshots repository.SnapshotRepository, scope string, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}

	return &Browser{
		source:    source,
		snapshots: snapshots,
		scope:     scope,
		logger:    logger,
		lists:     []models.InventoryList{},
	}
}

// Mount загружает списки и зеркалирует их в снимок.
// После успешной загрузки повторные вызовы ничего не делают.
// Ошибка загрузки только логируется: браузер остается пустым, следующий вызов повторит запрос.
func (b *Browser) Mount(ctx context.Context) {
	b.mountMu.Lock()
	defer b.mountMu.Unlock()

	if b.mounted {
		return
	}

	response, err := b.source.ListInventoryLists(ctx)
	if err != nil {
		b.logger.Error("error fetching inventory lists", slog.String("scope", b.scope), slog.String("error", err.Error()))
		return
	}
	b.mounted = true

	lists := response.InventoryLists
	if lists == nil {
		lists = []models.InventoryList{}
	}

	b.mu.Lock()
	b.lists = lists
	b.mu.Unlock()

	b.mirror(ctx, lists)
}

// Lists возвращает загруженные списки.
func (b *Browser) Lists() []models.InventoryList {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.InventoryList, len(b.lists))
	copy(out, b.lists)
	return out
}

// Detail загружает список по id из бэкенда.
// При недоступности бэкенда используется последний снимок сессии.
func (b *Browser) Detail(ctx context.Context, id int64) (models.InventoryList, error) {
	list, err := b.source.GetInventoryList(ctx, id)
	if err == nil {
		return list, nil
	}

	if errors.Is(err, backend.ErrNotFound) {
		return models.InventoryList{}, ErrListNotFound
	}

	cached, ok := b.fromSnapshot(ctx, id)
	if ok {
		b.logger.Warn("inventory list served from snapshot", slog.Int64("list_id", id), slog.String("error", err.Error()))
		return cached, nil
	}

	return models.InventoryList{}, fmt.Errorf("fetch inventory list %d: %w", id, err)
}

// Close запрещает дальнейшую запись снимков.
// Запись, начатая до вызова, завершается до возврата из Close.
func (b *Browser) Close() {
	b.snapshotMu.Lock()
	b.closed = true
	b.snapshotMu.Unlock()
}

func (b *Browser) mirror(ctx context.Context, lists []models.InventoryList) {
	if b.snapshots == nil {
		return
	}

	b.snapshotMu.Lock()
	defer b.snapshotMu.Unlock()

	if b.closed {
		return
	}

	payload, err := json.Marshal(lists)
	if err != nil {
		b.logger.Warn("inventory snapshot encode failed", slog.String("error", err.Error()))
		return
	}

	if err := b.snapshots.Put(ctx, b.scope, repository.KeyInventoryLists, payload); err != nil {
		b.logger.Warn("inventory snapshot write failed", slog.String("scope", b.scope), slog.String("error", err.Error()))
	}
}

func (b *Browser) fromSnapshot(ctx context.Context, id int64) (models.InventoryList, bool) {
	if b.snapshots == nil {
		return models.InventoryList{}, false
	}

	payload, err := b.snapshots.Get(ctx, b.scope, repository.KeyInventoryLists)
	if err != nil {
		return models.InventoryList{}, false
	}

	var lists []models.InventoryList
	if err := json.Unmarshal(payload, &lists); err != nil {
		return models.InventoryList{}, false
	}

	for _, list := range lists {
		if list.ID == id {
			return list, true
		}
	}

	return models.InventoryList{}, false
}
