package handler

import (
	"funnel/internal/delivery/http/dto"
	"funnel/internal/delivery/http/middleware"
	"funnel/internal/pkg/response"
	"funnel/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type MatchHandler struct {
	uc usecase.MatchingUsecase
}

func NewMatchHandler(uc usecase.MatchingUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/matches", h.GetMatches)
}

// GetMatches lists the VCs that pass the hard filter for the caller's
// startup, best fit first.
func (h *MatchHandler) GetMatches(c fiber.Ctx) error {
	out, err := h.uc.FindMatches(c.Context(), middleware.IdentityFrom(c))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchListResponse(out))
}
