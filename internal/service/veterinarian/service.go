package veterinarian

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

const table = "veterinarians"

type Service struct {
	repo   repository.VeterinarianRepository
	events event.Recorder
	logger *logger.Logger
}

func NewService(repo repository.VeterinarianRepository, events event.Recorder, logger *logger.Logger) *Service {
	return &Service{repo: repo, events: events, logger: logger}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Veterinarian, error) {
	vet, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("veterinarian", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get veterinarian: %w", err))
	}
	return vet, nil
}

func (s *Service) List(ctx context.Context, filter *model.VeterinarianFilter) ([]*model.Veterinarian, error) {
	vets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list veterinarians: %w", err))
	}
	return vets, nil
}

// Approve makes a pending veterinarian bookable.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*model.Veterinarian, error) {
	return s.setStatus(ctx, id, model.VeterinarianStatusApproved)
}

// Reject hides a veterinarian from booking. An approved veterinarian can be
// rejected later to withdraw them.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*model.Veterinarian, error) {
	return s.setStatus(ctx, id, model.VeterinarianStatusRejected)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status model.VeterinarianStatus) (*model.Veterinarian, error) {
	vet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if vet.Status == status {
		return vet, nil
	}
	old := *vet

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("veterinarian", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update veterinarian: %w", err))
	}
	vet.Status = status

	if err := s.events.Record(ctx, table, realtime.Update, vet, &old); err != nil {
		s.logger.Error(err, "Failed to record veterinarian change", "veterinarian_id", id.String())
	}
	return vet, nil
}
