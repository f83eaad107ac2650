package handler

import (
	"io"
	"strconv"
	"strings"

	"funnel/internal/delivery/http/dto"
	"funnel/internal/delivery/http/middleware"
	"funnel/internal/pkg/response"
	"funnel/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type FounderProfileHandler struct {
	uc          usecase.FounderProfileUsecase
	maxDeckSize int64
}

type founderProfileRequest struct {
	StartupName string `json:"startupName"`
	Sector      string `json:"sector"`
	AskAmount   int64  `json:"askAmount"`
	DeckLink    string `json:"deckLink"`
}

func NewFounderProfileHandler(uc usecase.FounderProfileUsecase, maxDeckSize int) *FounderProfileHandler {
	return &FounderProfileHandler{uc: uc, maxDeckSize: int64(maxDeckSize)}
}

func (h *FounderProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/profile", h.SaveProfile)
	r.Get("/profile", h.GetProfile)
}

// SaveProfile accepts either a multipart upload with a "file" part or a JSON
// body whose deckLink is downloaded.
func (h *FounderProfileHandler) SaveProfile(c fiber.Ctx) error {
	var (
		in  usecase.FounderProfileInput
		err error
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		in, err = h.multipartInput(c)
	} else {
		in, err = jsonInput(c)
	}
	if err != nil {
		return err
	}

	p, err := h.uc.SaveProfile(c.Context(), middleware.IdentityFrom(c), in)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, "Founder profile created successfully", dto.NewFounderProfileResponse(p))
}

func (h *FounderProfileHandler) GetProfile(c fiber.Ctx) error {
	p, err := h.uc.GetProfile(c.Context(), middleware.IdentityFrom(c))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewFounderProfileResponse(p))
}

func jsonInput(c fiber.Ctx) (usecase.FounderProfileInput, error) {
	var req founderProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return usecase.FounderProfileInput{}, middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	return usecase.FounderProfileInput{
		StartupName: req.StartupName,
		Sector:      req.Sector,
		AskAmount:   req.AskAmount,
		DeckLink:    req.DeckLink,
	}, nil
}

func (h *FounderProfileHandler) multipartInput(c fiber.Ctx) (usecase.FounderProfileInput, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return usecase.FounderProfileInput{}, middleware.NewAppError(fiber.StatusBadRequest, "No file uploaded", nil, err)
	}
	if h.maxDeckSize > 0 && fh.Size > h.maxDeckSize {
		return usecase.FounderProfileInput{}, middleware.NewAppError(fiber.StatusRequestEntityTooLarge, "Pitch deck is too large", nil, nil)
	}

	f, err := fh.Open()
	if err != nil {
		return usecase.FounderProfileInput{}, middleware.NewAppError(fiber.StatusBadRequest, "Failed to process pitch deck.", nil, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return usecase.FounderProfileInput{}, middleware.NewAppError(fiber.StatusBadRequest, "Failed to process pitch deck.", nil, err)
	}

	// A malformed amount is left at zero and reported by validation.
	ask, _ := strconv.ParseInt(strings.TrimSpace(c.FormValue("askAmount")), 10, 64)

	return usecase.FounderProfileInput{
		StartupName: c.FormValue("startupName"),
		Sector:      c.FormValue("sector"),
		AskAmount:   ask,
		File: &usecase.DeckFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		},
	}, nil
}
