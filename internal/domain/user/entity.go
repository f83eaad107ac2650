package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleFounder Role = "founder"
	RoleVC      Role = "vc"
)

func (r Role) Valid() bool {
	return r == RoleFounder || r == RoleVC
}

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
