package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

const veterinarianSelect = `
	SELECT v.id, v.user_id, v.clinic_id, v.specialization, v.license_number, v.status,
		v.created_at, v.updated_at, u.name, u.email
	FROM veterinarians v
	JOIN users u ON u.id = v.user_id
`

type veterinarianRepository struct {
	BaseRepository
}

func NewVeterinarianRepository(base BaseRepository) repository.VeterinarianRepository {
	return &veterinarianRepository{base}
}

func (r *veterinarianRepository) Create(ctx context.Context, vet *model.Veterinarian) error {
	query := `
		INSERT INTO veterinarians (
			id, user_id, clinic_id, specialization, license_number, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	vet.ID = uuid.New()
	vet.CreatedAt = time.Now().UTC()
	vet.UpdatedAt = vet.CreatedAt
	if vet.Status == "" {
		vet.Status = model.VeterinarianStatusPending
	}

	_, err := r.db.ExecContext(ctx, query,
		vet.ID,
		vet.UserID,
		vet.ClinicID,
		vet.Specialization,
		vet.LicenseNumber,
		vet.Status,
		vet.CreatedAt,
		vet.UpdatedAt,
	)
	return wrap(err, "create veterinarian")
}

func (r *veterinarianRepository) Get(ctx context.Context, id uuid.UUID) (*model.Veterinarian, error) {
	var vet model.Veterinarian
	if err := r.db.GetContext(ctx, &vet, veterinarianSelect+` WHERE v.id = $1`, id); err != nil {
		return nil, wrap(err, "get veterinarian")
	}
	return &vet, nil
}

func (r *veterinarianRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Veterinarian, error) {
	var vet model.Veterinarian
	if err := r.db.GetContext(ctx, &vet, veterinarianSelect+` WHERE v.user_id = $1`, userID); err != nil {
		return nil, wrap(err, "get veterinarian by user")
	}
	return &vet, nil
}

func (r *veterinarianRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.VeterinarianStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE veterinarians SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return wrap(err, "update veterinarian status")
	}
	return expectRows(res, "update veterinarian status")
}

func (r *veterinarianRepository) List(ctx context.Context, filter *model.VeterinarianFilter) ([]*model.Veterinarian, error) {
	if filter == nil {
		filter = &model.VeterinarianFilter{}
	}
	query := veterinarianSelect + `
		WHERE ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR v.clinic_id = $1)
		AND ($2 = '' OR v.status = $2)
		ORDER BY u.name ASC
		LIMIT $3 OFFSET $4
	`
	vets := []*model.Veterinarian{}
	err := r.db.SelectContext(ctx, &vets, query,
		filter.ClinicID, string(filter.Status), filter.Limit(), filter.Offset())
	if err != nil {
		return nil, wrap(err, "list veterinarians")
	}
	return vets, nil
}
