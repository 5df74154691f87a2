package model

import "github.com/google/uuid"

type Role string

const (
	RoleTenant Role = "tenant"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsTenant() bool {
	return p.Role == RoleTenant
}

func (p Principal) IsOwner() bool {
	return p.Role == RoleOwner
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
