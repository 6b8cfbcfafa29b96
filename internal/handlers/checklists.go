package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/checklist"
	"github.com/samarth126/SmartShelf/internal/models"
	"github.com/samarth126/SmartShelf/internal/session"
)

type ChecklistHandler struct {
	Sessions *session.Registry
}

// NewChecklistHandler создает обработчик списков покупок.
func NewChecklistHandler(sessions *session.Registry) *ChecklistHandler {
	return &ChecklistHandler{Sessions: sessions}
}

type ChecklistItemRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Quantity string `json:"quantity" validate:"max=100"`
}

type CreateChecklistRequest struct {
	Name  string                 `json:"name" validate:"required,max=200"`
	Items []ChecklistItemRequest `json:"items" validate:"dive"`
}

type ChecklistResponse struct {
	models.Checklist
	Progress int `json:"progress"`
}

type ChecklistsResponse struct {
	Checklists []ChecklistResponse `json:"checklists"`
}

// List возвращает списки покупок сессии.
func (h *ChecklistHandler) List(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	lists := s.Checklists.List()
	response := ChecklistsResponse{Checklists: make([]ChecklistResponse, 0, len(lists))}
	for _, list := range lists {
		response.Checklists = append(response.Checklists, toChecklistResponse(list))
	}

	return c.JSON(http.StatusOK, response)
}

// Create добавляет список покупок.
func (h *ChecklistHandler) Create(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	var req CreateChecklistRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	items := make([]checklist.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checklist.ItemInput{Name: item.Name, Quantity: item.Quantity})
	}

	list, err := s.Checklists.Create(req.Name, items)
	if err != nil {
		if errors.Is(err, checklist.ErrInvalidName) {
			return badRequest(c, "name is required")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, toChecklistResponse(list))
}

// Get возвращает список покупок с процентом выполнения.
func (h *ChecklistHandler) Get(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid checklist id")
	}

	list, err := s.Checklists.Get(id)
	if err != nil {
		return checklistError(c, err)
	}

	return c.JSON(http.StatusOK, toChecklistResponse(list))
}

// AddItem добавляет позицию в список.
func (h *ChecklistHandler) AddItem(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid checklist id")
	}

	var req ChecklistItemRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err = c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	item, err := s.Checklists.AddItem(id, checklist.ItemInput{Name: req.Name, Quantity: req.Quantity})
	if err != nil {
		return checklistError(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}

// RemoveItem удаляет позицию из списка.
func (h *ChecklistHandler) RemoveItem(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	listID, itemID, err := checklistItemIDs(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	if err := s.Checklists.RemoveItem(listID, itemID); err != nil {
		return checklistError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Toggle переключает отметку позиции.
func (h *ChecklistHandler) Toggle(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	listID, itemID, err := checklistItemIDs(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	item, err := s.Checklists.Toggle(listID, itemID)
	if err != nil {
		return checklistError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

func checklistItemIDs(c echo.Context) (int64, int64, error) {
	listID, err := parseID(c.Param("id"))
	if err != nil {
		return 0, 0, err
	}

	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		return 0, 0, err
	}

	return listID, itemID, nil
}

func checklistError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, checklist.ErrNotFound):
		return notFound(c, "checklist or item not found")
	case errors.Is(err, checklist.ErrInvalidName):
		return badRequest(c, "name is required")
	default:
		return serverError(c)
	}
}

func toChecklistResponse(list models.Checklist) ChecklistResponse {
	return ChecklistResponse{Checklist: list, Progress: checklist.Progress(list.Items)}
}
