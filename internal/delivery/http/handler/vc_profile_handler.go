package handler

import (
	"funnel/internal/delivery/http/dto"
	"funnel/internal/delivery/http/middleware"
	"funnel/internal/pkg/response"
	"funnel/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type VCProfileHandler struct {
	uc usecase.VCProfileUsecase
}

type vcProfileRequest struct {
	FirmName      string   `json:"firmName"`
	Slug          string   `json:"slug"`
	Thesis        string   `json:"thesis"`
	Sectors       []string `json:"sectors"`
	MinCheck      int64    `json:"minCheck"`
	MaxCheck      int64    `json:"maxCheck"`
	MondayBoardID string   `json:"mondayBoardId"`
}

func NewVCProfileHandler(uc usecase.VCProfileUsecase) *VCProfileHandler {
	return &VCProfileHandler{uc: uc}
}

// RegisterRoutes mounts the owner-only write.
func (h *VCProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/vc/profile", h.SaveProfile)
}

// RegisterPublicRoutes mounts the unauthenticated VC page.
func (h *VCProfileHandler) RegisterPublicRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/vc/:slug", h.GetPublic)
}

func (h *VCProfileHandler) SaveProfile(c fiber.Ctx) error {
	var req vcProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	p, err := h.uc.SaveProfile(c.Context(), middleware.IdentityFrom(c), usecase.VCProfileInput{
		FirmName:      req.FirmName,
		Slug:          req.Slug,
		Thesis:        req.Thesis,
		Sectors:       req.Sectors,
		MinCheck:      req.MinCheck,
		MaxCheck:      req.MaxCheck,
		MondayBoardID: req.MondayBoardID,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, "VC profile saved", dto.VCProfileSavedResponse{ID: p.ID, Slug: p.Slug})
}

func (h *VCProfileHandler) GetPublic(c fiber.Ctx) error {
	p, err := h.uc.GetPublicBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewPublicVCResponse(p))
}
