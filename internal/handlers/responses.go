package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/auth"
	"github.com/samarth126/SmartShelf/internal/models"
	"github.com/samarth126/SmartShelf/internal/session"
)

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

// validationFailed отдает клиенту перечень невалидных полей.
func validationFailed(c echo.Context, err error) error {
	return badRequest(c, "validation failed: "+err.Error())
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "session not found"})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": message})
}

func badGateway(c echo.Context, message string) error {
	return c.JSON(http.StatusBadGateway, map[string]string{"error": message})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// currentSession возвращает сессию по session_id из токена.
func currentSession(c echo.Context, sessions *session.Registry) (*session.Session, bool) {
	sessionID, ok := auth.SessionIDFromContext(c)
	if !ok {
		return nil, false
	}

	s, err := sessions.Get(sessionID)
	if err != nil {
		return nil, false
	}
	return s, true
}

// readUpload читает файл из multipart-поля; отсутствие поля дает пустой Upload.
func readUpload(c echo.Context, field string) (models.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.Upload{}, nil
		}
		return models.Upload{}, err
	}

	file, err := header.Open()
	if err != nil {
		return models.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.Upload{}, err
	}

	return models.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
