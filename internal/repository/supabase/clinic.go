package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"
	supa "github.com/supabase-community/supabase-go"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

const clinicsTable = "clinics"

type clinicRepository struct {
	client *supa.Client
}

func NewClinicRepository(client *supa.Client) repository.ClinicRepository {
	return &clinicRepository{client: client}
}

func (r *clinicRepository) Create(_ context.Context, clinic *model.Clinic) error {
	clinic.ID = uuid.New()
	clinic.CreatedAt = time.Now().UTC()
	clinic.UpdatedAt = clinic.CreatedAt

	_, _, err := r.client.From(clinicsTable).
		Insert(clinic, false, "", "minimal", "").
		Execute()
	return wrap(err, "create clinic")
}

func (r *clinicRepository) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	data, _, err := r.client.From(clinicsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, wrap(err, "get clinic")
	}
	return decodeOne[model.Clinic](data, "get clinic")
}

func (r *clinicRepository) Update(_ context.Context, clinic *model.Clinic) error {
	clinic.UpdatedAt = time.Now().UTC()
	data, _, err := r.client.From(clinicsTable).
		Update(map[string]interface{}{
			"name":            clinic.Name,
			"address":         clinic.Address,
			"phone":           clinic.Phone,
			"operating_hours": clinic.OperatingHours,
			"latitude":        clinic.Latitude,
			"longitude":       clinic.Longitude,
			"status":          clinic.Status,
			"updated_at":      clinic.UpdatedAt,
		}, "representation", "").
		Eq("id", clinic.ID.String()).
		Execute()
	if err != nil {
		return wrap(err, "update clinic")
	}
	_, err = decodeOne[model.Clinic](data, "update clinic")
	return err
}

func (r *clinicRepository) Delete(_ context.Context, id uuid.UUID) error {
	data, _, err := r.client.From(clinicsTable).
		Delete("representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return wrap(err, "delete clinic")
	}
	_, err = decodeOne[model.Clinic](data, "delete clinic")
	return err
}

func (r *clinicRepository) List(_ context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	if filter == nil {
		filter = &model.ClinicFilter{}
	}
	query := r.client.From(clinicsTable).Select("*", "", false)
	if filter.Status != "" {
		query = query.Eq("status", filter.Status)
	}
	if filter.Search != "" {
		query = query.Ilike("name", "%"+filter.Search+"%")
	}
	from, to := page(filter.Pagination)

	data, _, err := query.Order("name", ascending).Range(from, to, "").Execute()
	if err != nil {
		return nil, wrap(err, "list clinics")
	}
	return decodeAll[model.Clinic](data, "list clinics")
}
