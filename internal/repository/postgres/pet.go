package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

const petColumns = `id, owner_id, name, species, breed, to_char(birth_date, 'YYYY-MM-DD') AS birth_date, created_at, updated_at`

type petRepository struct {
	BaseRepository
}

func NewPetRepository(base BaseRepository) repository.PetRepository {
	return &petRepository{base}
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	query := `
		INSERT INTO pets (id, owner_id, name, species, breed, birth_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8)
	`
	pet.ID = uuid.New()
	pet.CreatedAt = time.Now().UTC()
	pet.UpdatedAt = pet.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		pet.ID, pet.OwnerID, pet.Name, pet.Species, pet.Breed, pet.BirthDate, pet.CreatedAt, pet.UpdatedAt)
	return wrap(err, "create pet")
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var pet model.Pet
	if err := r.db.GetContext(ctx, &pet, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id); err != nil {
		return nil, wrap(err, "get pet")
	}
	return &pet, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	query := `
		UPDATE pets
		SET name = $1, species = $2, breed = $3, birth_date = $4::date, updated_at = $5
		WHERE id = $6
	`
	pet.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		pet.Name, pet.Species, pet.Breed, pet.BirthDate, pet.UpdatedAt, pet.ID)
	if err != nil {
		return wrap(err, "update pet")
	}
	return expectRows(res, "update pet")
}

func (r *petRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return wrap(err, "delete pet")
	}
	return expectRows(res, "delete pet")
}

func (r *petRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	pets := []*model.Pet{}
	err := r.db.SelectContext(ctx, &pets,
		`SELECT `+petColumns+` FROM pets WHERE owner_id = $1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, wrap(err, "list pets")
	}
	return pets, nil
}
