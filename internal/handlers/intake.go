package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/intake"
	"github.com/samarth126/SmartShelf/internal/models"
	"github.com/samarth126/SmartShelf/internal/session"
)

type IntakeHandler struct {
	Sessions *session.Registry
}

// NewIntakeHandler создает обработчик диалога приема чеков.
func NewIntakeHandler(sessions *session.Registry) *IntakeHandler {
	return &IntakeHandler{Sessions: sessions}
}

type PostMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type DraftRequest struct {
	Text string `json:"text" validate:"max=4000"`
}

type DraftResponse struct {
	Text string `json:"text"`
}

type MessagesResponse struct {
	Messages []models.ChatMessage `json:"messages"`
}

type BillsResponse struct {
	Bills []models.Bill `json:"bills"`
}

// SubmissionResponse подтверждение приема; ответ бэкенда придет в журнал позже.
type SubmissionResponse struct {
	Seq     uint64              `json:"seq"`
	Message *models.ChatMessage `json:"message,omitempty"`
}

// Messages возвращает журнал диалога.
func (h *IntakeHandler) Messages(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	return c.JSON(http.StatusOK, MessagesResponse{Messages: s.Conversation.Messages()})
}

// PostMessage добавляет сообщение пользователя и отправляет его в бэкенд.
func (h *IntakeHandler) PostMessage(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	sub, err := s.Conversation.SubmitText(detach(c), req.Message)
	if err != nil {
		if errors.Is(err, intake.ErrEmptyMessage) {
			return badRequest(c, "message is required")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusAccepted, SubmissionResponse{Seq: sub.Seq, Message: sub.User})
}

// Draft возвращает текст поля ввода.
func (h *IntakeHandler) Draft(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	return c.JSON(http.StatusOK, DraftResponse{Text: s.Conversation.Draft()})
}

// PutDraft сохраняет текст поля ввода.
func (h *IntakeHandler) PutDraft(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	s.Conversation.SetDraft(req.Text)
	return c.JSON(http.StatusOK, DraftResponse{Text: req.Text})
}

// Bills возвращает загруженные чеки.
func (h *IntakeHandler) Bills(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	return c.JSON(http.StatusOK, BillsResponse{Bills: s.Conversation.Bills()})
}

// UploadBill принимает фото чека (поле image) и необязательную подпись (поле text).
func (h *IntakeHandler) UploadBill(c echo.Context) error {
	s, ok := currentSession(c, h.Sessions)
	if !ok {
		return unauthorized(c)
	}

	upload, err := readUpload(c, "image")
	if err != nil {
		return badRequest(c, "invalid multipart payload")
	}

	sub, err := s.Conversation.SubmitImage(detach(c), upload, c.FormValue("text"))
	if err != nil {
		if errors.Is(err, intake.ErrNoImage) {
			return badRequest(c, "image is required")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusAccepted, SubmissionResponse{Seq: sub.Seq})
}

// detach отвязывает запрос к бэкенду от отмены HTTP-запроса клиента.
func detach(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}
