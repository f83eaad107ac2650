package usecase

import (
	"context"
	"errors"

	"funnel/internal/access"
	"funnel/internal/domain/user"
)

type UserUsecase interface {
	GetMe(ctx context.Context, id access.Identity) (user.User, error)
}

type User struct {
	users user.Repository
}

func NewUserUsecase(users user.Repository) *User {
	return &User{users: users}
}

// GetMe returns the caller's account without its password hash.
func (u *User) GetMe(ctx context.Context, id access.Identity) (user.User, error) {
	if !id.Authenticated() {
		return user.User{}, ErrUnauthorized
	}
	usr, err := u.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnauthorized
		}
		return user.User{}, ErrInternal
	}
	usr.PasswordHash = ""
	return usr, nil
}
