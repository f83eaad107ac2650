package handler

import (
	"errors"

	"funnel/internal/delivery/http/middleware"
	"funnel/internal/pkg/response"
	"funnel/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	var verr *usecase.ValidationError
	if errors.As(err, &verr) {
		return middleware.NewAppError(fiber.StatusBadRequest, "Validation failed", verr.Fields, err)
	}

	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	case errors.Is(err, usecase.ErrFounderNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Founder profile not found.", nil, err)
	case errors.Is(err, usecase.ErrVCNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "VC profile not found.", nil, err)
	case errors.Is(err, usecase.ErrNoDeckContent):
		return middleware.NewAppError(fiber.StatusBadRequest, "No valid deck content found for pitching.", nil, err)
	case errors.Is(err, usecase.ErrExtraction):
		return middleware.NewAppError(fiber.StatusBadRequest, "Failed to process pitch deck.", nil, err)
	case errors.Is(err, usecase.ErrSlugTaken):
		return middleware.NewAppError(fiber.StatusConflict, "Slug already taken", nil, err)
	case errors.Is(err, usecase.ErrOracleUnavailable):
		return middleware.NewAppError(fiber.StatusBadGateway, "Pitch evaluation is unavailable, please retry later.", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
