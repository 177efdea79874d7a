package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"
	supa "github.com/supabase-community/supabase-go"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

const appointmentsTable = "appointments"

type appointmentRepository struct {
	client *supa.Client
}

func NewAppointmentRepository(client *supa.Client) repository.AppointmentRepository {
	return &appointmentRepository{client: client}
}

func (r *appointmentRepository) Create(_ context.Context, appointment *model.Appointment) error {
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now().UTC()
	appointment.UpdatedAt = appointment.CreatedAt

	_, _, err := r.client.From(appointmentsTable).
		Insert(appointment, false, "", "minimal", "").
		Execute()
	return wrap(err, "create appointment")
}

func (r *appointmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	data, _, err := r.client.From(appointmentsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, wrap(err, "get appointment")
	}
	apt, err := decodeOne[model.Appointment](data, "get appointment")
	if err != nil {
		return nil, err
	}
	apt.Time = clockOf(apt.Time)
	return apt, nil
}

func (r *appointmentRepository) UpdateStatus(_ context.Context, appointment *model.Appointment) error {
	appointment.UpdatedAt = time.Now().UTC()
	data, _, err := r.client.From(appointmentsTable).
		Update(map[string]interface{}{
			"status":        appointment.Status,
			"cancel_reason": appointment.CancelReason,
			"updated_at":    appointment.UpdatedAt,
		}, "representation", "").
		Eq("id", appointment.ID.String()).
		Execute()
	if err != nil {
		return wrap(err, "update appointment status")
	}
	_, err = decodeOne[model.Appointment](data, "update appointment status")
	return err
}

func (r *appointmentRepository) List(_ context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	if filter == nil {
		filter = &model.AppointmentFilter{}
	}
	query := r.client.From(appointmentsTable).Select("*", "", false)
	if filter.ClinicID != uuid.Nil {
		query = query.Eq("clinic_id", filter.ClinicID.String())
	}
	if filter.VeterinarianID != uuid.Nil {
		query = query.Eq("veterinarian_id", filter.VeterinarianID.String())
	}
	if filter.OwnerID != uuid.Nil {
		query = query.Eq("owner_id", filter.OwnerID.String())
	}
	if filter.Status != "" {
		query = query.Eq("status", string(filter.Status))
	}
	if filter.Date != "" {
		query = query.Eq("date", filter.Date)
	}
	from, to := page(filter.Pagination)

	data, _, err := query.
		Order("date", descending).
		Order("time", descending).
		Range(from, to, "").
		Execute()
	if err != nil {
		return nil, wrap(err, "list appointments")
	}
	apts, err := decodeAll[model.Appointment](data, "list appointments")
	if err != nil {
		return nil, err
	}
	for _, a := range apts {
		a.Time = clockOf(a.Time)
	}
	return apts, nil
}

func (r *appointmentRepository) ListBookedTimes(_ context.Context, vetID uuid.UUID, date string) ([]string, error) {
	data, _, err := r.client.From(appointmentsTable).
		Select("time", "", false).
		Eq("veterinarian_id", vetID.String()).
		Eq("date", date).
		Neq("status", string(model.AppointmentStatusCancelled)).
		Order("time", ascending).
		Execute()
	if err != nil {
		return nil, wrap(err, "list booked times")
	}
	rows, err := decodeAll[bookedTime](data, "list booked times")
	if err != nil {
		return nil, err
	}
	times := make([]string, 0, len(rows))
	for _, row := range rows {
		times = append(times, clockOf(row.Time))
	}
	return times, nil
}

type bookedTime struct {
	Time string `json:"time"`
}

// clockOf trims a Postgres TIME value ("09:30:00") to HH:MM.
func clockOf(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}
