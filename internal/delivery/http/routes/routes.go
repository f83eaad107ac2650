package routes

import (
	"net/http"

	"funnel/internal/delivery/http/handler"
	v1 "funnel/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

type Registry struct {
	health  *handler.HealthHandler
	metrics http.Handler
	v1      v1.Handlers
}

func NewRegistry(health *handler.HealthHandler, metrics http.Handler, api v1.Handlers) *Registry {
	return &Registry{health: health, metrics: metrics, v1: api}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerInfra(app)
	r.registerAPI(app)
}

func (r *Registry) registerInfra(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
	if r.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(r.metrics))
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	v1.Register(api.Group("/v1"), r.v1)
}
