package handler

import (
	"funnel/internal/delivery/http/dto"
	"funnel/internal/delivery/http/middleware"
	"funnel/internal/pkg/response"
	"funnel/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type PitchHandler struct {
	uc usecase.PitchUsecase
}

type pitchRequest struct {
	VCID     string `json:"vcId"`
	DeckLink string `json:"deckLink"`
}

func NewPitchHandler(uc usecase.PitchUsecase) *PitchHandler {
	return &PitchHandler{uc: uc}
}

func (h *PitchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/pitch", h.SubmitPitch)
}

func (h *PitchHandler) SubmitPitch(c fiber.Ctx) error {
	var req pitchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	verdict, err := h.uc.SubmitPitch(c.Context(), middleware.IdentityFrom(c), usecase.PitchInput{
		VCID:     req.VCID,
		DeckLink: req.DeckLink,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewPitchResponse(verdict))
}
