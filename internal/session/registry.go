package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samarth126/SmartShelf/internal/checklist"
	"github.com/samarth126/SmartShelf/internal/intake"
	"github.com/samarth126/SmartShelf/internal/inventory"
	"github.com/samarth126/SmartShelf/internal/notifications"
	"github.com/samarth126/SmartShelf/internal/repository"
)

var ErrNotFound = errors.New("session not found")

// Backend все эндпоинты бэкенда, нужные состоянию сессии.
type Backend interface {
	intake.Backend
	inventory.Source
}

// Session клиентское состояние одной вкладки браузера.
type Session struct {
	ID           uuid.UUID
	Conversation *intake.Conversation
	Inventory    *inventory.Browser
	Checklists   *checklist.Store
	CreatedAt    time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Registry struct {
	backend   Backend
	snapshots repository.SnapshotRepository
	hub       *notifications.Hub
	ordering  intake.Ordering
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry создает реестр сессий; hub может быть nil.
func NewRegistry(backend Backend, snapshots repository.SnapshotRepository, hub *notifications.Hub, ordering intake.Ordering, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		backend:   backend,
		snapshots: snapshots,
		hub:       hub,
		ordering:  ordering,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Create заводит новую сессию с пустым журналом.
func (r *Registry) Create() *Session {
	id := uuid.New()
	logger := r.logger.With(slog.String("session_id", id.String()))
	now := r.now()

	s := &Session{
		ID: id,
		Conversation: intake.NewConversation(r.backend,
			intake.WithOrdering(r.ordering),
			intake.WithLogger(logger),
			intake.WithNotifier(r.notifier(id)),
		),
		Inventory:  inventory.NewBrowser(r.backend, r.snapshots, id.String(), logger),
		Checklists: checklist.NewStore(),
		CreatedAt:  now.UTC(),
		lastSeen:   now,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logger.Info("session created")
	return s
}

// Get возвращает сессию и отмечает обращение к ней.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	s.touch(r.now())
	return s, nil
}

// Drop удаляет сессию вместе со снимками и SSE-потоками.
func (r *Registry) Drop(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	r.release(ctx, s)
	return nil
}

// Prune удаляет сессии без обращений дольше maxIdle и возвращает их число.
func (r *Registry) Prune(ctx context.Context, maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.release(ctx, s)
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// release закрывает браузер до удаления снимков, чтобы незавершенная загрузка
// не записала снимок в уже очищенный scope.
func (r *Registry) release(ctx context.Context, s *Session) {
	if r.hub != nil {
		r.hub.CloseSession(s.ID)
	}

	s.Inventory.Close()

	if r.snapshots != nil {
		if err := r.snapshots.DeleteScope(ctx, s.ID.String()); err != nil {
			r.logger.Warn("snapshot cleanup failed", slog.String("session_id", s.ID.String()), slog.String("error", err.Error()))
		}
	}
}

func (r *Registry) notifier(id uuid.UUID) func(intake.Event) {
	if r.hub == nil {
		return nil
	}

	return func(event intake.Event) {
		switch event.Type {
		case intake.EventMessageAppended:
			r.hub.Publish(id, notifications.Event{Type: notifications.EventMessageAppended, Data: event.Message})
		case intake.EventBillAdded:
			r.hub.Publish(id, notifications.Event{Type: notifications.EventBillAdded, Data: event.Bill})
		}
	}
}
