package checklist

import (
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/samarth126/SmartShelf/internal/models"
)

var (
	ErrNotFound    = errors.New("checklist not found")
	ErrInvalidName = errors.New("name is required")
)

// ItemInput позиция, добавляемая в список покупок.
type ItemInput struct {
	Name     string
	Quantity string
}

// Store списки покупок одной сессии.
type Store struct {
	now func() time.Time

	mu         sync.RWMutex
	lists      []*models.Checklist
	nextListID int64
	nextItemID int64
}

func NewStore() *Store {
	return &Store{now: time.Now, nextListID: 1, nextItemID: 1}
}

// Create добавляет список с позициями; позиции создаются неотмеченными.
func (s *Store) Create(name string, items []ItemInput) (models.Checklist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Checklist{}, ErrInvalidName
	}

	for _, input := range items {
		if strings.TrimSpace(input.Name) == "" {
			return models.Checklist{}, ErrInvalidName
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := &models.Checklist{
		ID:        s.nextListID,
		Name:      name,
		Items:     make([]models.ChecklistItem, 0, len(items)),
		CreatedAt: s.now().UTC(),
	}
	s.nextListID++

	for _, input := range items {
		item, _ := s.newItemLocked(input)
		list.Items = append(list.Items, item)
	}

	s.lists = append(s.lists, list)
	return cloneChecklist(list), nil
}

// List возвращает списки в порядке создания.
func (s *Store) List() []models.Checklist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Checklist, 0, len(s.lists))
	for _, list := range s.lists {
		out = append(out, cloneChecklist(list))
	}
	return out
}

func (s *Store) Get(id int64) (models.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.findLocked(id)
	if !ok {
		return models.Checklist{}, ErrNotFound
	}
	return cloneChecklist(list), nil
}

// AddItem добавляет позицию в конец списка.
func (s *Store) AddItem(listID int64, input ItemInput) (models.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.findLocked(listID)
	if !ok {
		return models.ChecklistItem{}, ErrNotFound
	}

	item, err := s.newItemLocked(input)
	if err != nil {
		return models.ChecklistItem{}, err
	}

	list.Items = append(list.Items, item)
	return item, nil
}

// RemoveItem удаляет позицию из списка.
func (s *Store) RemoveItem(listID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.findLocked(listID)
	if !ok {
		return ErrNotFound
	}

	for i, item := range list.Items {
		if item.ID == itemID {
			list.Items = append(list.Items[:i], list.Items[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}

// Toggle инвертирует отметку позиции и возвращает ее новое состояние.
func (s *Store) Toggle(listID, itemID int64) (models.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.findLocked(listID)
	if !ok {
		return models.ChecklistItem{}, ErrNotFound
	}

	for i := range list.Items {
		if list.Items[i].ID == itemID {
			list.Items[i].Checked = !list.Items[i].Checked
			return list.Items[i], nil
		}
	}

	return models.ChecklistItem{}, ErrNotFound
}

// Progress процент отмеченных позиций, округленный до целого; 0 для пустого списка.
func Progress(items []models.ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}

	checked := 0
	for _, item := range items {
		if item.Checked {
			checked++
		}
	}

	return int(math.Round(float64(checked) / float64(len(items)) * 100))
}

func (s *Store) newItemLocked(input ItemInput) (models.ChecklistItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.ChecklistItem{}, ErrInvalidName
	}

	item := models.ChecklistItem{
		ID:       s.nextItemID,
		Name:     name,
		Quantity: strings.TrimSpace(input.Quantity),
	}
	s.nextItemID++
	return item, nil
}

func (s *Store) findLocked(id int64) (*models.Checklist, bool) {
	for _, list := range s.lists {
		if list.ID == id {
			return list, true
		}
	}
	return nil, false
}

func cloneChecklist(list *models.Checklist) models.Checklist {
	out := *list
	out.Items = make([]models.ChecklistItem, len(list.Items))
	copy(out.Items, list.Items)
	return out
}
