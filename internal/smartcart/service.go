package smartcart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samarth126/SmartShelf/internal/models"
)

const (
	// FailureText сообщение пользователю при ошибке сопоставления.
	FailureText      = "Failed to match stock. Please try again."
	MissingInputText = "Please upload an image and select a list"
)

var (
	ErrNoImage     = errors.New("please upload an image")
	ErrNoList      = errors.New("please select a list")
	ErrMatchFailed = errors.New("stock matching failed")
)

// Matcher эндпоинт stock-matching бэкенда.
type Matcher interface {
	MatchStock(ctx context.Context, upload models.Upload, listID int64) (models.MatchingResult, error)
}

type Service struct {
	matcher Matcher
	logger  *slog.Logger
}

func NewService(matcher Matcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{matcher: matcher, logger: logger}
}

// Match сопоставляет фото кладовой с выбранным списком и возвращает недостающие позиции.
func (s *Service) Match(ctx context.Context, upload models.Upload, listID int64) (models.MatchingResult, error) {
	if len(upload.Data) == 0 {
		return models.MatchingResult{}, ErrNoImage
	}
	if listID <= 0 {
		return models.MatchingResult{}, ErrNoList
	}

	result, err := s.matcher.MatchStock(ctx, upload, listID)
	if err != nil {
		s.logger.Error("stock matching failed", slog.Int64("list_id", listID), slog.String("error", err.Error()))
		return models.MatchingResult{}, fmt.Errorf("%w: %w", ErrMatchFailed, err)
	}

	if result.RestockList == nil {
		result.RestockList = []string{}
	}

	return result, nil
}
