package usecase

import (
	"errors"
	"strings"

	"funnel/internal/access"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrFounderNotFound   = errors.New("founder profile not found")
	ErrVCNotFound        = errors.New("vc profile not found")
	ErrNoDeckContent     = errors.New("no valid deck content found for pitching")
	ErrExtraction        = errors.New("failed to process pitch deck")
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrSlugTaken         = errors.New("slug already taken")
	ErrInternal          = errors.New("internal error")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid input field at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func accessError(err error) error {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		return ErrUnauthorized
	case errors.Is(err, access.ErrForbidden):
		return ErrForbidden
	default:
		return err
	}
}
