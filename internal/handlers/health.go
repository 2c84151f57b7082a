package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"insightdesk/internal/database"
	"insightdesk/internal/tools"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db       *database.DB
	registry *tools.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, registry *tools.Registry) *HealthHandler {
	return &HealthHandler{db: db, registry: registry}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	dbStatus := "up"
	if err := h.db.Ping(); err != nil {
		status = "degraded"
		dbStatus = "down"
	}

	return c.JSON(fiber.Map{
		"status":    status,
		"database":  dbStatus,
		"tools":     h.registry.Count(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
