package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/notifications"
	"github.com/samarth126/SmartShelf/internal/session"
)

const defaultKeepAlive = 30 * time.Second

type NotificationHandler struct {
	Hub      *notifications.Hub
	Sessions *session.Registry
	// KeepAlive интервал комментариев-пингов; каждый пинг продлевает жизнь сессии.
	KeepAlive time.Duration
}

// NewNotificationHandler создает SSE-обработчик журнала.
func NewNotificationHandler(hub *notifications.Hub, sessions *session.Registry) *NotificationHandler {
	return &NotificationHandler{Hub: hub, Sessions: sessions, KeepAlive: defaultKeepAlive}
}

// Stream открывает SSE-поток добавлений в журнал сессии.
func (h *NotificationHandler) Stream(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return serverError(c)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ch, unsubscribe := h.Hub.Subscribe(s.ID)
	defer unsubscribe()

	_ = writeSSE(c, notifications.Event{Type: notifications.EventConnected, Data: map[string]string{"session_id": s.ID.String()}})
	flusher.Flush()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := h.Sessions.Get(s.ID); err != nil {
				return nil
			}
			if _, err := c.Response().Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(c, event); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeSSE(c echo.Context, event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := c.Response().Write([]byte("event: " + event.Type + "\n")); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}

	return nil
}
