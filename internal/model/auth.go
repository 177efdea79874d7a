package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterRequest creates an owner or a veterinarian. Veterinarians also
// supply their clinic and licence, and start out pending approval.
type RegisterRequest struct {
	Email          string     `json:"email" binding:"required,email"`
	Password       string     `json:"password" binding:"required,min=8"`
	Name           string     `json:"name" binding:"required,max=200"`
	Phone          *string    `json:"phone"`
	Role           string     `json:"role" binding:"required,oneof=owner veterinarian"`
	ClinicID       *uuid.UUID `json:"clinic_id" binding:"required_if=Role veterinarian"`
	Specialization string     `json:"specialization"`
	LicenseNumber  string     `json:"license_number" binding:"required_if=Role veterinarian"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)
