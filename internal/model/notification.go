package model

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Title         string     `db:"title" json:"title"`
	Body          string     `db:"body" json:"body"`
	Read          bool       `db:"read" json:"read"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
