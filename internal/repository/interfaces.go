package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error)
	}

	VeterinarianRepository interface {
		Create(ctx context.Context, vet *model.Veterinarian) error
		Get(ctx context.Context, id uuid.UUID) (*model.Veterinarian, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Veterinarian, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.VeterinarianStatus) error
		List(ctx context.Context, filter *model.VeterinarianFilter) ([]*model.Veterinarian, error)
	}

	PetRepository interface {
		Create(ctx context.Context, pet *model.Pet) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
		Update(ctx context.Context, pet *model.Pet) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdatePreferences(ctx context.Context, id uuid.UUID, prefs model.JSONMap) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, appointment *model.Appointment) error
		// List returns matching appointments, latest date and time first.
		List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error)
		// ListBookedTimes returns the start times of the veterinarian's
		// non-cancelled appointments on date.
		ListBookedTimes(ctx context.Context, vetID uuid.UUID, date string) ([]string, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page model.Pagination) ([]*model.Notification, error)
		MarkRead(ctx context.Context, userID, id uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		ScheduleRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
