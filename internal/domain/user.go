package domain

import (
	"strings"
	"time"
)

// Role identifica el tipo de cuenta. Es inmutable despues de la creacion.
type Role string

const (
	RoleSeeker  Role = "seeker"
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
)

// ParseRole normaliza y valida un rol recibido desde el exterior.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSeeker:
		return RoleSeeker, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCompany:
		return RoleCompany, nil
	default:
		return "", ErrInvalidRole
	}
}

// User es el registro de identidad. Los hashes nunca se serializan.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	IsVerified       bool      `json:"is_verified"`
	IsBlocked        bool      `json:"is_blocked"`
	RefreshTokenHash *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasSession indica si el usuario tiene un refresh token vigente almacenado.
func (u User) HasSession() bool {
	return u.RefreshTokenHash != nil && *u.RefreshTokenHash != ""
}
