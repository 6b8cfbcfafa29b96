package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/samarth126/SmartShelf/internal/auth"
	"github.com/samarth126/SmartShelf/internal/backend"
	"github.com/samarth126/SmartShelf/internal/config"
	"github.com/samarth126/SmartShelf/internal/handlers"
	"github.com/samarth126/SmartShelf/internal/intake"
	"github.com/samarth126/SmartShelf/internal/notifications"
	"github.com/samarth126/SmartShelf/internal/repository"
	"github.com/samarth126/SmartShelf/internal/session"
	"github.com/samarth126/SmartShelf/internal/smartcart"
	"github.com/samarth126/SmartShelf/internal/validation"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, snapshots repository.SnapshotRepository) (*echo.Echo, *session.Registry) {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(cors(cfg.Server))
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// значение уже проверено в config.Load
	ordering, _ := intake.ParseOrdering(cfg.Intake.Ordering)

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	hub := notifications.NewHub()
	sessions := session.NewRegistry(client, snapshots, hub, ordering, logger)
	tokenManager := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)

	registerRoutes(
		e,
		routeHandlers{
			health:        handlers.NewHealthHandler(sessions),
			sessions:      handlers.NewSessionHandler(sessions, tokenManager),
			intake:        handlers.NewIntakeHandler(sessions),
			notifications: handlers.NewNotificationHandler(hub, sessions),
			inventory:     handlers.NewInventoryHandler(sessions),
			stockMatching: handlers.NewStockMatchingHandler(sessions, smartcart.NewService(client, logger)),
			checklists:    handlers.NewChecklistHandler(sessions),
		},
		auth.SessionMiddleware(tokenManager),
		intakeRateLimiter(cfg.Intake),
	)

	return e, sessions
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func cors(cfg config.ServerConfig) echo.MiddlewareFunc {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	})
}

// intakeRateLimiter ограничивает запросы, уходящие в бэкенд.
func intakeRateLimiter(cfg config.IntakeConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
