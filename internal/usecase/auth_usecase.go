package usecase

import (
	"context"
	"errors"

	"funnel/internal/domain/user"
	"funnel/internal/pkg/jwt"
	ucauth "funnel/internal/usecase/auth"
)

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Tokens is an access/refresh pair.
type Tokens struct {
	Access  string
	Refresh string
}

type AuthUsecase interface {
	Register(ctx context.Context, in ucauth.RegisterInput) (user.User, Tokens, error)
	Login(ctx context.Context, in ucauth.LoginInput) (user.User, Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
}

type Auth struct {
	authSvc *ucauth.Service
	users   user.Repository
	jwt     jwt.Service
}

func NewAuthUsecase(users user.Repository, jwtSvc jwt.Service) *Auth {
	return newAuth(ucauth.NewService(users), users, jwtSvc)
}

func newAuth(svc *ucauth.Service, users user.Repository, jwtSvc jwt.Service) *Auth {
	return &Auth{authSvc: svc, users: users, jwt: jwtSvc}
}

func (u *Auth) Register(ctx context.Context, in ucauth.RegisterInput) (user.User, Tokens, error) {
	usr, err := u.authSvc.Register(ctx, in)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	tokens, err := u.issue(usr)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	return usr, tokens, nil
}

func (u *Auth) Login(ctx context.Context, in ucauth.LoginInput) (user.User, Tokens, error) {
	usr, err := u.authSvc.Login(ctx, in)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	tokens, err := u.issue(usr)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	return usr, tokens, nil
}

// Refresh rotates both tokens. The role is re-read so a changed account
// never keeps a stale one.
func (u *Auth) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, ErrUnauthorized
	}

	claims, err := u.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Tokens{}, ErrRefreshTokenExpired
		}
		return Tokens{}, ErrInvalidRefreshToken
	}

	usr, err := u.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Tokens{}, ErrInvalidRefreshToken
		}
		return Tokens{}, ErrInternal
	}
	return u.issue(usr)
}

func (u *Auth) issue(usr user.User) (Tokens, error) {
	access, err := u.jwt.GenerateAccessToken(usr.ID, string(usr.Role))
	if err != nil {
		return Tokens{}, ErrInternal
	}
	refresh, err := u.jwt.GenerateRefreshToken(usr.ID)
	if err != nil {
		return Tokens{}, ErrInternal
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}
