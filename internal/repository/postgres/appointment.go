package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

// date and time are stored as DATE and TIME and read back as YYYY-MM-DD and HH:MM.
const appointmentColumns = `
	id, clinic_id, veterinarian_id, owner_id, pet_id,
	to_char(date, 'YYYY-MM-DD') AS date, to_char(time, 'HH24:MI') AS time,
	reason, notes, status, cancel_reason, created_at, updated_at
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, clinic_id, veterinarian_id, owner_id, pet_id, date, time,
			reason, notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::date, $7::time, $8, $9, $10, $11, $12)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now().UTC()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.VeterinarianID,
		appointment.OwnerID,
		appointment.PetID,
		appointment.Date,
		appointment.Time,
		appointment.Reason,
		appointment.Notes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	return wrap(err, "create appointment")
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, wrap(err, "get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4
	`
	appointment.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		appointment.Status, appointment.CancelReason, appointment.UpdatedAt, appointment.ID)
	if err != nil {
		return wrap(err, "update appointment status")
	}
	return expectRows(res, "update appointment status")
}

func (r *appointmentRepository) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	if filter == nil {
		filter = &model.AppointmentFilter{}
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR clinic_id = $1)
		AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR veterinarian_id = $2)
		AND ($3 = '00000000-0000-0000-0000-000000000000'::uuid OR owner_id = $3)
		AND ($4 = '' OR status = $4)
		AND ($5 = '' OR date = $5::date)
		ORDER BY date DESC, time DESC
		LIMIT $6 OFFSET $7
	`
	appointments := []*model.Appointment{}
	err := r.db.SelectContext(ctx, &appointments, query,
		filter.ClinicID,
		filter.VeterinarianID,
		filter.OwnerID,
		string(filter.Status),
		filter.Date,
		filter.Limit(),
		filter.Offset(),
	)
	if err != nil {
		return nil, wrap(err, "list appointments")
	}
	return appointments, nil
}

func (r *appointmentRepository) ListBookedTimes(ctx context.Context, vetID uuid.UUID, date string) ([]string, error) {
	query := `
		SELECT to_char(time, 'HH24:MI')
		FROM appointments
		WHERE veterinarian_id = $1 AND date = $2::date AND status <> 'cancelled'
		ORDER BY time ASC
	`
	times := []string{}
	if err := r.db.SelectContext(ctx, &times, query, vetID, date); err != nil {
		return nil, wrap(err, "list booked times")
	}
	return times, nil
}
