package handler

import (
	"context"
	"time"

	"funnel/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// Pinger is any dependency whose liveness the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

// Health reports 200 while the database answers. Redis is optional and only
// reported.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := fiber.Map{"database": "up", "cache": "up"}
	code := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status["database"] = "down"
			code = fiber.StatusServiceUnavailable
		}
	}
	if h.cache == nil {
		status["cache"] = "disabled"
	} else if err := h.cache.Ping(ctx); err != nil {
		status["cache"] = "degraded"
	}

	if code != fiber.StatusOK {
		return response.Error(c, code, "unhealthy", status)
	}
	return response.Success(c, code, response.MessageOK, status)
}
