package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/session"
	"github.com/samarth126/SmartShelf/internal/smartcart"
)

type StockMatchingHandler struct {
	Sessions *session.Registry
	Matcher  *smartcart.Service
}

// NewStockMatchingHandler создает обработчик сопоставления фото кладовой со списком.
func NewStockMatchingHandler(sessions *session.Registry, matcher *smartcart.Service) *StockMatchingHandler {
	return &StockMatchingHandler{Sessions: sessions, Matcher: matcher}
}

// Match принимает multipart-поля image и list_id.
func (h *StockMatchingHandler) Match(c echo.Context) error {
	if _, ok := currentSession(c, h.Sessions); !ok {
		return unauthorized(c)
	}

	upload, err := readUpload(c, "image")
	if err != nil {
		return badRequest(c, "invalid multipart payload")
	}

	var listID int64
	if raw := strings.TrimSpace(c.FormValue("list_id")); raw != "" {
		listID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "invalid list id")
		}
	}

	result, err := h.Matcher.Match(c.Request().Context(), upload, listID)
	if err != nil {
		switch {
		case errors.Is(err, smartcart.ErrNoImage), errors.Is(err, smartcart.ErrNoList):
			return badRequest(c, smartcart.MissingInputText)
		case errors.Is(err, smartcart.ErrMatchFailed):
			return badGateway(c, smartcart.FailureText)
		default:
			return serverError(c)
		}
	}

	return c.JSON(http.StatusOK, result)
}
