package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const ContextSessionIDKey = "session_id"

// SessionMiddleware проверяет токен сессии и сохраняет session_id в контексте.
// EventSource не умеет заголовки, поэтому токен также принимается из ?token=.
func SessionMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := tokenFromRequest(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}

			sessionID, err := manager.ParseSessionToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			c.Set(ContextSessionIDKey, sessionID)
			return next(c)
		}
	}
}

// SessionIDFromContext извлекает идентификатор сессии из контекста.
func SessionIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(ContextSessionIDKey)
	sessionID, ok := value.(uuid.UUID)
	return sessionID, ok
}

func tokenFromRequest(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}

		token := strings.TrimSpace(parts[1])
		return token, token != ""
	}

	token := strings.TrimSpace(c.QueryParam("token"))
	return token, token != ""
}
