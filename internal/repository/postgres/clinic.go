package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

const clinicColumns = `id, name, address, phone, operating_hours, latitude, longitude, status, created_at, updated_at`

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (` + clinicColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	clinic.ID = uuid.New()
	clinic.CreatedAt = time.Now().UTC()
	clinic.UpdatedAt = clinic.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.Address,
		clinic.Phone,
		clinic.OperatingHours,
		clinic.Latitude,
		clinic.Longitude,
		clinic.Status,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	return wrap(err, "create clinic")
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE id = $1`

	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, id); err != nil {
		return nil, wrap(err, "get clinic")
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, address = $2, phone = $3, operating_hours = $4,
			latitude = $5, longitude = $6, status = $7, updated_at = $8
		WHERE id = $9
	`
	clinic.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		clinic.Name,
		clinic.Address,
		clinic.Phone,
		clinic.OperatingHours,
		clinic.Latitude,
		clinic.Longitude,
		clinic.Status,
		clinic.UpdatedAt,
		clinic.ID,
	)
	if err != nil {
		return wrap(err, "update clinic")
	}
	return expectRows(res, "update clinic")
}

func (r *clinicRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clinics WHERE id = $1`, id)
	if err != nil {
		return wrap(err, "delete clinic")
	}
	return expectRows(res, "delete clinic")
}

func (r *clinicRepository) List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	if filter == nil {
		filter = &model.ClinicFilter{}
	}
	query := `
		SELECT ` + clinicColumns + `
		FROM clinics
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR address ILIKE '%' || $1 || '%')
		AND ($2 = '' OR status = $2)
		ORDER BY name ASC
		LIMIT $3 OFFSET $4
	`
	clinics := []*model.Clinic{}
	err := r.db.SelectContext(ctx, &clinics, query,
		filter.Search, filter.Status, filter.Limit(), filter.Offset())
	if err != nil {
		return nil, wrap(err, "list clinics")
	}
	return clinics, nil
}
