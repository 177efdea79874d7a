package model

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Closed reports whether no further transitions are allowed.
func (s AppointmentStatus) Closed() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// Appointment is one booked visit. Date is YYYY-MM-DD and Time is HH:MM,
// both in the clinic's booking timezone.
type Appointment struct {
	Base
	ClinicID       uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	VeterinarianID uuid.UUID         `db:"veterinarian_id" json:"veterinarian_id"`
	OwnerID        uuid.UUID         `db:"owner_id" json:"owner_id"`
	PetID          uuid.UUID         `db:"pet_id" json:"pet_id"`
	Date           string            `db:"date" json:"date"`
	Time           string            `db:"time" json:"time"`
	Reason         string            `db:"reason" json:"reason"`
	Notes          *string           `db:"notes" json:"notes,omitempty"`
	Status         AppointmentStatus `db:"status" json:"status"`
	CancelReason   *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type CreateAppointmentRequest struct {
	ClinicID       uuid.UUID `json:"clinic_id" binding:"required"`
	VeterinarianID uuid.UUID `json:"veterinarian_id" binding:"required"`
	PetID          uuid.UUID `json:"pet_id" binding:"required"`
	Date           string    `json:"date" binding:"required,datetime=2006-01-02"`
	Time           string    `json:"time" binding:"required,hhmm"`
	Reason         string    `json:"reason" binding:"required,max=500"`
	Notes          *string   `json:"notes" binding:"omitempty,max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type AppointmentFilter struct {
	Pagination
	ClinicID       uuid.UUID         `form:"-"`
	VeterinarianID uuid.UUID         `form:"-"`
	OwnerID        uuid.UUID         `form:"-"`
	Status         AppointmentStatus `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	Date           string            `form:"date" binding:"omitempty,datetime=2006-01-02"`
}
