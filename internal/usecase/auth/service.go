// Package auth holds credential handling for founder and VC accounts.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"funnel/internal/domain/user"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInternal               = errors.New("internal error")
)

const minPasswordLen = 8

// FieldError names the registration field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

func (e *FieldError) Is(target error) bool { return target == ErrInvalidInput }

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

type LoginInput struct {
	Email    string
	Password string
}

type Service struct {
	users user.Repository
	cost  int

	// Compared against when the email is unknown so a miss costs as much
	// as a wrong password.
	dummyHash []byte
}

func NewService(users user.Repository) *Service {
	return NewServiceWithCost(users, bcrypt.DefaultCost)
}

func NewServiceWithCost(users user.Repository, cost int) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("funnel-unknown-account"), cost)
	return &Service{users: users, cost: cost, dummyHash: dummy}
}

// Register creates a founder or VC account. Users carry no row-level
// ownership, so the insert runs without an identity. A duplicate email is
// caught by the unique constraint rather than a pre-check.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	u, err := s.validate(in)
	if err != nil {
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return user.User{}, ErrInternal
	}
	u.PasswordHash = string(hash)

	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, ErrEmailAlreadyRegistered
		}
		return user.User{}, ErrInternal
	}

	created, err := s.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return user.User{}, ErrInternal
	}
	return withoutSecret(created), nil
}

func (s *Service) validate(in RegisterInput) (user.User, error) {
	email, ok := normalizeEmail(in.Email)
	if !ok {
		return user.User{}, &FieldError{Field: "email", Reason: "must be a bare address"}
	}
	if len(strings.TrimSpace(in.Password)) < minPasswordLen {
		return user.User{}, &FieldError{Field: "password", Reason: "too short"}
	}
	role := user.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if !role.Valid() {
		return user.User{}, &FieldError{Field: "role", Reason: "must be founder or vc"}
	}
	return user.User{
		ID:    uuid.New(),
		Email: email,
		Name:  strings.TrimSpace(in.Name),
		Role:  role,
	}, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (user.User, error) {
	email, ok := normalizeEmail(in.Email)
	if !ok || in.Password == "" {
		return user.User{}, ErrInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return user.User{}, ErrInvalidCredentials
	case err != nil:
		return user.User{}, ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	return withoutSecret(u), nil
}

// normalizeEmail lowercases and accepts only a bare address, so
// "Pat <pat@x.io>" is rejected instead of stored with a display name.
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func withoutSecret(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
