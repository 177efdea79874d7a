package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/internal/service/event"
	"github.com/jwalitptl/vetbook-api/internal/slot"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

const table = "appointments"

// SlotSource recomputes availability at booking time.
type SlotSource interface {
	Slots(ctx context.Context, clinicID, vetID uuid.UUID, date string) ([]slot.Slot, error)
	Location() *time.Location
	Now() time.Time
}

type Service struct {
	repo    repository.AppointmentRepository
	pets    repository.PetRepository
	vets    repository.VeterinarianRepository
	slots   SlotSource
	events  event.Recorder
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	pets repository.PetRepository,
	vets repository.VeterinarianRepository,
	slots SlotSource,
	events event.Recorder,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:    repo,
		pets:    pets,
		vets:    vets,
		slots:   slots,
		events:  events,
		logger:  logger,
		metrics: metrics,
	}
}

// Book reserves a slot for one of the caller's pets. The requested time must
// be one the calculator currently offers as selectable.
func (s *Service) Book(ctx context.Context, actor model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	pet, err := s.pets.Get(ctx, req.PetID)
	if err != nil {
		return nil, notFoundOr(err, "pet")
	}
	if pet.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.NotFound("pet", nil)
	}

	date, err := time.ParseInLocation(slot.DateLayout, req.Date, s.slots.Location())
	if err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}
	ny, nm, nd := s.slots.Now().In(s.slots.Location()).Date()
	if date.Before(time.Date(ny, nm, nd, 0, 0, 0, 0, s.slots.Location())) {
		return nil, apperrors.BadRequest("date is in the past", nil)
	}

	at, err := slot.ParseClock(req.Time)
	if err != nil {
		return nil, apperrors.BadRequest("invalid time", err)
	}

	slots, err := s.slots.Slots(ctx, req.ClinicID, req.VeterinarianID, req.Date)
	if err != nil {
		return nil, err
	}
	offered, ok := slot.Find(slots, at)
	if !ok {
		s.metrics.AppointmentConflicts.WithLabelValues("not_offered").Inc()
		return nil, apperrors.BadRequest(fmt.Sprintf("%s is not an offered time", at), nil)
	}
	if offered.Disabled {
		s.metrics.AppointmentConflicts.WithLabelValues(string(offered.Reason)).Inc()
		return nil, apperrors.Conflict(fmt.Sprintf("%s is unavailable: %s", at, offered.Reason.Hint()), nil)
	}

	apt := &model.Appointment{
		ClinicID:       req.ClinicID,
		VeterinarianID: req.VeterinarianID,
		OwnerID:        pet.OwnerID,
		PetID:          pet.ID,
		Date:           req.Date,
		Time:           at.String(),
		Reason:         req.Reason,
		Notes:          req.Notes,
		Status:         model.AppointmentStatusPending,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.AppointmentConflicts.WithLabelValues(string(slot.ReasonBooked)).Inc()
			return nil, apperrors.Conflict(fmt.Sprintf("%s is unavailable: %s", at, slot.ReasonBooked.Hint()), err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create appointment: %w", err))
	}
	s.metrics.AppointmentsBooked.Inc()

	s.record(ctx, realtime.Insert, apt, nil)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "appointment")
	}
	role, err := s.relation(ctx, actor, apt)
	if err != nil {
		return nil, err
	}
	if role == relationNone {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

// List scopes the filter to what the caller may see: owners their own
// bookings, veterinarians their own schedule, admins everything.
func (s *Service) List(ctx context.Context, actor model.Actor, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	if filter == nil {
		filter = &model.AppointmentFilter{}
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleVeterinarian:
		vet, err := s.vets.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, notFoundOr(err, "veterinarian profile")
		}
		filter.VeterinarianID = vet.ID
	default:
		filter.OwnerID = actor.UserID
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appointments, nil
}

// Cancel is open to the owner, the assigned veterinarian and admins.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusCancelled, reason)
}

// Confirm accepts a pending booking; veterinarian or admin only.
func (s *Service) Confirm(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusConfirmed, "")
}

// Complete closes a confirmed booking; veterinarian or admin only.
func (s *Service) Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusCompleted, "")
}

func (s *Service) transition(ctx context.Context, actor model.Actor, id uuid.UUID, to model.AppointmentStatus, reason string) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "appointment")
	}

	rel, err := s.relation(ctx, actor, apt)
	if err != nil {
		return nil, err
	}
	if rel == relationNone {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if to != model.AppointmentStatusCancelled && rel == relationOwner {
		return nil, apperrors.Forbidden("only the veterinarian can change this appointment")
	}

	if err := allowed(apt.Status, to); err != nil {
		return nil, err
	}

	old := *apt
	apt.Status = to
	if to == model.AppointmentStatusCancelled && reason != "" {
		apt.CancelReason = &reason
	}
	if err := s.repo.UpdateStatus(ctx, apt); err != nil {
		return nil, notFoundOr(err, "appointment")
	}

	s.record(ctx, realtime.Update, apt, &old)
	return apt, nil
}

func allowed(from, to model.AppointmentStatus) error {
	if from.Closed() {
		return apperrors.Conflict(fmt.Sprintf("appointment is already %s", from), nil)
	}
	switch to {
	case model.AppointmentStatusConfirmed:
		if from != model.AppointmentStatusPending {
			return apperrors.Conflict(fmt.Sprintf("cannot confirm a %s appointment", from), nil)
		}
	case model.AppointmentStatusCompleted:
		if from != model.AppointmentStatusConfirmed {
			return apperrors.Conflict(fmt.Sprintf("cannot complete a %s appointment", from), nil)
		}
	}
	return nil
}

type relation int

const (
	relationNone relation = iota
	relationOwner
	relationVeterinarian
	relationAdmin
)

func (s *Service) relation(ctx context.Context, actor model.Actor, apt *model.Appointment) (relation, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return relationAdmin, nil
	case model.RoleVeterinarian:
		vet, err := s.vets.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return relationNone, nil
			}
			return relationNone, apperrors.Internal(err)
		}
		if vet.ID == apt.VeterinarianID {
			return relationVeterinarian, nil
		}
	}
	if apt.OwnerID == actor.UserID {
		return relationOwner, nil
	}
	return relationNone, nil
}

// record is best effort: the booking already stands, so a failed outbox
// write is logged rather than surfaced.
func (s *Service) record(ctx context.Context, typ realtime.ChangeType, apt, old *model.Appointment) {
	var oldRecord interface{}
	if old != nil {
		oldRecord = old
	}
	if err := s.events.Record(ctx, table, typ, apt, oldRecord); err != nil {
		s.logger.Error(err, "Failed to record appointment change", "appointment_id", apt.ID.String())
	}
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(fmt.Errorf("failed to load %s: %w", resource, err))
}
