package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/inventory"
	"github.com/samarth126/SmartShelf/internal/models"
	"github.com/samarth126/SmartShelf/internal/session"
)

type InventoryHandler struct {
	Sessions *session.Registry
}

// NewInventoryHandler создает обработчик списков инвентаря.
func NewInventoryHandler(sessions *session.Registry) *InventoryHandler {
	return &InventoryHandler{Sessions: sessions}
}

// List загружает списки при первом обращении сессии и возвращает их.
func (h *InventoryHandler) List(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	s.Inventory.Mount(detach(c))
	lists := s.Inventory.Lists()

	return c.JSON(http.StatusOK, models.InventoryListResponse{Count: len(lists), InventoryLists: lists})
}

// Get возвращает список инвентаря по id.
func (h *InventoryHandler) Get(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid list id")
	}

	list, err := s.Inventory.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrListNotFound) {
			return notFound(c, "inventory list not found")
		}
		return badGateway(c, "failed to load inventory list")
	}

	return c.JSON(http.StatusOK, list)
}

// Export выгружает позиции списка в CSV или XLSX.
func (h *InventoryHandler) Export(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid list id")
	}

	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format == "" {
		format = inventory.FormatCSV
	}

	contentType, err := inventory.ContentType(format)
	if err != nil {
		return badRequest(c, "invalid export format")
	}

	list, err := s.Inventory.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrListNotFound) {
			return notFound(c, "inventory list not found")
		}
		return badGateway(c, "failed to load inventory list")
	}

	var buf bytes.Buffer
	if err := inventory.Export(&buf, list, format); err != nil {
		return serverError(c)
	}

	filename := "inventory-list-" + strconv.FormatInt(list.ID, 10) + "." + format
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}
