// Package access holds the ownership rules for profile rows. Every store
// mutation and every private read asks the Policy first, with the identity of
// the one operation it guards passed in explicitly.
package access

import (
	"errors"

	"funnel/internal/domain/user"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("access: caller identity required")
	ErrForbidden       = errors.New("access: caller does not own this resource")
)

// Identity is the verified caller of a single operation.
type Identity struct {
	UserID uuid.UUID
	Role   user.Role
}

func Anonymous() Identity { return Identity{} }

func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

type Policy struct{}

func NewPolicy() Policy { return Policy{} }

// AuthorizeWrite allows a mutation only when the caller owns the row.
func (Policy) AuthorizeWrite(id Identity, ownerID uuid.UUID) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if ownerID == uuid.Nil || id.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}

// AuthorizeFounderRead allows only the owner to read a founder profile.
func (p Policy) AuthorizeFounderRead(id Identity, ownerID uuid.UUID) error {
	return p.AuthorizeWrite(id, ownerID)
}

// AuthorizeVCRead always succeeds: VC profiles are public.
func (Policy) AuthorizeVCRead(Identity) error {
	return nil
}

// RequireRole checks the caller acts in the given role.
func (Policy) RequireRole(id Identity, role user.Role) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if id.Role != role {
		return ErrForbidden
	}
	return nil
}
