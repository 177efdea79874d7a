package model

import (
	"github.com/google/uuid"
)

type VeterinarianStatus string

const (
	VeterinarianStatusPending  VeterinarianStatus = "pending"
	VeterinarianStatusApproved VeterinarianStatus = "approved"
	VeterinarianStatusRejected VeterinarianStatus = "rejected"
)

// Veterinarian is the professional profile attached to a user with the
// veterinarian role. Name and Email are read from the owning user.
type Veterinarian struct {
	Base
	UserID         uuid.UUID          `db:"user_id" json:"user_id"`
	ClinicID       uuid.UUID          `db:"clinic_id" json:"clinic_id"`
	Specialization string             `db:"specialization" json:"specialization"`
	LicenseNumber  string             `db:"license_number" json:"license_number"`
	Status         VeterinarianStatus `db:"status" json:"status"`
	Name           string             `db:"name" json:"name"`
	Email          string             `db:"email" json:"email"`
}

func (v *Veterinarian) Bookable() bool {
	return v.Status == VeterinarianStatusApproved
}

type VeterinarianFilter struct {
	Pagination
	ClinicID uuid.UUID          `form:"-"`
	Status   VeterinarianStatus `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}
