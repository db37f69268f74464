package actor

import (
	"travel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrInvalidRole = errs.New("invalid role")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func New(id uuid.UUID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsVendor() bool {
	return a.Role == RoleVendor
}
