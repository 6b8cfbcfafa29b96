package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/session"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type HealthHandler struct {
	Sessions *session.Registry
}

func NewHealthHandler(sessions *session.Registry) *HealthHandler {
	return &HealthHandler{Sessions: sessions}
}

// Health возвращает статус сервиса и число активных сессий.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Sessions: h.Sessions.Len()})
}
