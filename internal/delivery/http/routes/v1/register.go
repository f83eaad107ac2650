package v1

import (
	"funnel/internal/delivery/http/handler"
	"funnel/internal/delivery/http/middleware"
	"funnel/internal/ws"

	"github.com/gofiber/fiber/v3"
)

// Handlers is everything mounted under /api/v1. Nil handlers are skipped.
type Handlers struct {
	Auth           *middleware.AuthMiddleware
	AuthHandler    *handler.AuthHandler
	User           *handler.UserHandler
	Match          *handler.MatchHandler
	FounderProfile *handler.FounderProfileHandler
	Pitch          *handler.PitchHandler
	VCProfile      *handler.VCProfileHandler
	Sector         *handler.SectorHandler
	Deals          *ws.Handler
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	// Public.
	if h.AuthHandler != nil {
		h.AuthHandler.RegisterRoutes(r.Group("/auth"))
	}
	if h.Sector != nil {
		h.Sector.RegisterRoutes(r)
	}
	if h.VCProfile != nil {
		h.VCProfile.RegisterPublicRoutes(r)
	}
	// The deal feed authenticates from its query string.
	if h.Deals != nil {
		r.Get("/ws/deals", h.Deals.HandleDeals)
	}

	if h.Auth == nil {
		return
	}
	protected := r.Group("", h.Auth.Middleware())

	if h.User != nil {
		h.User.RegisterRoutes(protected.Group("/auth"))
	}
	if h.Match != nil {
		h.Match.RegisterRoutes(protected)
	}
	if h.FounderProfile != nil {
		h.FounderProfile.RegisterRoutes(protected)
	}
	if h.Pitch != nil {
		h.Pitch.RegisterRoutes(protected)
	}
	if h.VCProfile != nil {
		h.VCProfile.RegisterRoutes(protected)
	}
}
