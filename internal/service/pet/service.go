package pet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

type Service struct {
	repo repository.PetRepository
}

func NewService(repo repository.PetRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreatePetRequest) (*model.Pet, error) {
	pet := &model.Pet{
		OwnerID:   actor.UserID,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		BirthDate: req.BirthDate,
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create pet: %w", err))
	}
	return pet, nil
}

// Get returns the pet if the caller owns it. Admins see every pet.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Pet, error) {
	pet, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("pet", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get pet: %w", err))
	}
	if pet.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.NotFound("pet", nil)
	}
	return pet, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePetRequest) (*model.Pet, error) {
	pet, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		pet.Name = *req.Name
	}
	if req.Species != nil {
		pet.Species = *req.Species
	}
	if req.Breed != nil {
		pet.Breed = req.Breed
	}
	if req.BirthDate != nil {
		pet.BirthDate = req.BirthDate
	}
	if err := s.repo.Update(ctx, pet); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update pet: %w", err))
	}
	return pet, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete pet: %w", err))
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.Pet, error) {
	pets, err := s.repo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list pets: %w", err))
	}
	return pets, nil
}
