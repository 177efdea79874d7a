package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/internal/service/event"
	"github.com/jwalitptl/vetbook-api/internal/slot"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

const table = "clinics"

// CacheInvalidator drops derived data when a clinic changes.
type CacheInvalidator interface {
	InvalidateClinic(id uuid.UUID)
}

type Service struct {
	repo         repository.ClinicRepository
	vets         repository.VeterinarianRepository
	cache        CacheInvalidator
	events       event.Recorder
	defaultHours string
	logger       *logger.Logger
}

func NewService(
	repo repository.ClinicRepository,
	vets repository.VeterinarianRepository,
	cache CacheInvalidator,
	events event.Recorder,
	defaultHours string,
	logger *logger.Logger,
) *Service {
	if !slot.ValidOperatingHours(defaultHours) {
		defaultHours = slot.DefaultOperatingHours
	}
	return &Service{
		repo:         repo,
		vets:         vets,
		cache:        cache,
		events:       events,
		defaultHours: defaultHours,
		logger:       logger,
	}
}

func (s *Service) CreateClinic(ctx context.Context, req *model.CreateClinicRequest) (*model.Clinic, error) {
	hours := req.OperatingHours
	if hours == "" {
		hours = s.defaultHours
	}
	if !slot.ValidOperatingHours(hours) {
		return nil, apperrors.BadRequest("operating_hours must be HH:MM-HH:MM with start before end", nil)
	}

	clinic := &model.Clinic{
		Name:           req.Name,
		Address:        req.Address,
		Phone:          req.Phone,
		OperatingHours: hours,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Status:         model.ClinicStatusActive,
	}
	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create clinic: %w", err))
	}

	s.record(ctx, realtime.Insert, clinic, nil)
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("clinic", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get clinic: %w", err))
	}
	return clinic, nil
}

func (s *Service) UpdateClinic(ctx context.Context, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	clinic, err := s.GetClinic(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *clinic

	if req.Name != nil {
		clinic.Name = *req.Name
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}
	if req.Phone != nil {
		clinic.Phone = req.Phone
	}
	if req.OperatingHours != nil {
		if !slot.ValidOperatingHours(*req.OperatingHours) {
			return nil, apperrors.BadRequest("operating_hours must be HH:MM-HH:MM with start before end", nil)
		}
		clinic.OperatingHours = *req.OperatingHours
	}
	if req.Latitude != nil {
		clinic.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		clinic.Longitude = req.Longitude
	}
	if req.Status != nil {
		clinic.Status = *req.Status
	}

	if err := s.repo.Update(ctx, clinic); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("clinic", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update clinic: %w", err))
	}
	s.cache.InvalidateClinic(id)

	s.record(ctx, realtime.Update, clinic, &old)
	return clinic, nil
}

func (s *Service) DeleteClinic(ctx context.Context, id uuid.UUID) error {
	clinic, err := s.GetClinic(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("clinic", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to delete clinic: %w", err))
	}
	s.cache.InvalidateClinic(id)

	s.record(ctx, realtime.Delete, nil, clinic)
	return nil
}

func (s *Service) ListClinics(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	clinics, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list clinics: %w", err))
	}
	return clinics, nil
}

// ListVeterinarians returns the bookable veterinarians at a clinic.
func (s *Service) ListVeterinarians(ctx context.Context, clinicID uuid.UUID) ([]*model.Veterinarian, error) {
	if _, err := s.GetClinic(ctx, clinicID); err != nil {
		return nil, err
	}
	vets, err := s.vets.List(ctx, &model.VeterinarianFilter{
		ClinicID:   clinicID,
		Status:     model.VeterinarianStatusApproved,
		Pagination: model.Pagination{PageSize: 100},
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list veterinarians: %w", err))
	}
	return vets, nil
}

func (s *Service) record(ctx context.Context, typ realtime.ChangeType, clinic, old *model.Clinic) {
	var record, oldRecord interface{}
	if clinic != nil {
		record = clinic
	}
	if old != nil {
		oldRecord = old
	}
	if err := s.events.Record(ctx, table, typ, record, oldRecord); err != nil {
		s.logger.Error(err, "Failed to record clinic change")
	}
}
