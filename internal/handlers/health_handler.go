package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// Pinger checks the store connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Root is the liveness probe.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.SendString("API is running...")
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status, dbStatus := "ok", "ok"
	if err := h.store.Ping(c.UserContext()); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
