package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/auth"
	"github.com/samarth126/SmartShelf/internal/session"
)

type SessionHandler struct {
	Sessions *session.Registry
	Tokens   *auth.TokenManager
}

// NewSessionHandler создает обработчик сессий.
func NewSessionHandler(sessions *session.Registry, tokens *auth.TokenManager) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Tokens: tokens}
}

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create заводит сессию и выдает токен.
func (h *SessionHandler) Create(c echo.Context) error {
	s := h.Sessions.Create()

	token, err := h.Tokens.NewSessionToken(s.ID)
	if err != nil {
		_ = h.Sessions.Drop(c.Request().Context(), s.ID)
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, SessionResponse{
		SessionID: s.ID.String(),
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

// Delete удаляет состояние текущей сессии.
func (h *SessionHandler) Delete(c echo.Context) error {
	sessionID, ok := auth.SessionIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.Sessions.Drop(c.Request().Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
