package server

import (
	"github.com/labstack/echo/v4"

	"github.com/samarth126/SmartShelf/internal/handlers"
)

type routeHandlers struct {
	health        *handlers.HealthHandler
	sessions      *handlers.SessionHandler
	intake        *handlers.IntakeHandler
	notifications *handlers.NotificationHandler
	inventory     *handlers.InventoryHandler
	stockMatching *handlers.StockMatchingHandler
	checklists    *handlers.ChecklistHandler
}

func registerRoutes(
	e *echo.Echo,
	h routeHandlers,
	sessionMiddleware echo.MiddlewareFunc,
	intakeRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", h.health.Health)

	api := e.Group("/api/v1")

	api.POST("/sessions", h.sessions.Create, intakeRateLimiter)
	api.DELETE("/sessions", h.sessions.Delete, sessionMiddleware)

	intakeGroup := api.Group("/intake", sessionMiddleware)
	intakeGroup.GET("/messages", h.intake.Messages)
	intakeGroup.POST("/messages", h.intake.PostMessage, intakeRateLimiter)
	intakeGroup.GET("/draft", h.intake.Draft)
	intakeGroup.PUT("/draft", h.intake.PutDraft)
	intakeGroup.GET("/bills", h.intake.Bills)
	intakeGroup.POST("/bills", h.intake.UploadBill, intakeRateLimiter)
	intakeGroup.GET("/stream", h.notifications.Stream)

	lists := api.Group("/inventory-lists", sessionMiddleware)
	lists.GET("", h.inventory.List)
	lists.GET("/:id", h.inventory.Get)
	lists.GET("/:id/export", h.inventory.Export)

	api.POST("/stock-matching", h.stockMatching.Match, sessionMiddleware, intakeRateLimiter)

	checklists := api.Group("/checklists", sessionMiddleware)
	checklists.GET("", h.checklists.List)
	checklists.POST("", h.checklists.Create)
	checklists.GET("/:id", h.checklists.Get)
	checklists.POST("/:id/items", h.checklists.AddItem)
	checklists.DELETE("/:id/items/:itemId", h.checklists.RemoveItem)
	checklists.PATCH("/:id/items/:itemId/toggle", h.checklists.Toggle)
}
