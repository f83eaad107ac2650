package handler

import (
	"funnel/internal/domain/sector"
	"funnel/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type SectorHandler struct {
	taxonomy *sector.Taxonomy
}

func NewSectorHandler(t *sector.Taxonomy) *SectorHandler {
	if t == nil {
		t = sector.Default()
	}
	return &SectorHandler{taxonomy: t}
}

func (h *SectorHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/sectors", h.List)
}

func (h *SectorHandler) List(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"sectors": h.taxonomy.Names()})
}
