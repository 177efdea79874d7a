package model

import (
	"github.com/google/uuid"
)

// Role constants
const (
	RoleOwner        = "owner"
	RoleVeterinarian = "veterinarian"
	RoleAdmin        = "admin"
)

// User represents an account holder: a pet owner, a veterinarian or an admin
type User struct {
	Base
	Email        string  `json:"email" db:"email"`
	Name         string  `json:"name" db:"name"`
	Phone        *string `json:"phone,omitempty" db:"phone"`
	PasswordHash string  `json:"-" db:"password_hash"`
	Role         string  `json:"role" db:"role"`
	Preferences  JSONMap `json:"preferences" db:"preferences"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UpdatePreferencesRequest replaces the caller's preference record
type UpdatePreferencesRequest struct {
	Preferences JSONMap `json:"preferences" binding:"required"`
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
