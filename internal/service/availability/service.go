// Package availability answers "which times can be booked" for a
// veterinarian at a clinic on a given day.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/internal/slot"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
)

type Config struct {
	Step         time.Duration
	MinLead      time.Duration
	Location     *time.Location
	DefaultHours string
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

// DaySlots is the availability answer for one veterinarian and date.
// FreeText is set when no slots could be produced and the client should
// fall back to free-form time entry.
type DaySlots struct {
	Date           string        `json:"date"`
	ClinicID       uuid.UUID     `json:"clinic_id"`
	VeterinarianID uuid.UUID     `json:"veterinarian_id"`
	OperatingHours string        `json:"operating_hours"`
	Slots          []slot.Option `json:"slots"`
	Available      int           `json:"available"`
	FreeText       bool          `json:"free_text"`
}

type Service struct {
	clinics      repository.ClinicRepository
	vets         repository.VeterinarianRepository
	appointments repository.AppointmentRepository
	cache        *cache.Cache
	config       Config
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(
	clinics repository.ClinicRepository,
	vets repository.VeterinarianRepository,
	appointments repository.AppointmentRepository,
	config Config,
	m *metrics.Metrics,
) *Service {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.DefaultHours == "" || !slot.ValidOperatingHours(config.DefaultHours) {
		config.DefaultHours = slot.DefaultOperatingHours
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.CacheCleanup <= 0 {
		config.CacheCleanup = 10 * time.Minute
	}
	return &Service{
		clinics:      clinics,
		vets:         vets,
		appointments: appointments,
		cache:        cache.New(config.CacheTTL, config.CacheCleanup),
		config:       config,
		metrics:      m,
		now:          time.Now,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location is the timezone slot dates and times are expressed in.
func (s *Service) Location() *time.Location { return s.config.Location }

// Now is the service clock.
func (s *Service) Now() time.Time { return s.now() }

// DaySlots computes the select-box options for vetID at clinicID on date.
func (s *Service) DaySlots(ctx context.Context, clinicID, vetID uuid.UUID, date string) (*DaySlots, error) {
	clinic, slots, err := s.compute(ctx, clinicID, vetID, date)
	if err != nil {
		return nil, err
	}
	return &DaySlots{
		Date:           date,
		ClinicID:       clinicID,
		VeterinarianID: vetID,
		OperatingHours: s.hoursFor(clinic),
		Slots:          slot.Options(slots),
		Available:      slot.Available(slots),
		FreeText:       len(slots) == 0,
	}, nil
}

// Slots returns the raw slot sequence, for callers that need to check a
// specific time before booking it.
func (s *Service) Slots(ctx context.Context, clinicID, vetID uuid.UUID, date string) ([]slot.Slot, error) {
	_, slots, err := s.compute(ctx, clinicID, vetID, date)
	return slots, err
}

// InvalidateClinic drops a cached clinic after it changes.
func (s *Service) InvalidateClinic(id uuid.UUID) {
	s.cache.Delete(id.String())
}

func (s *Service) compute(ctx context.Context, clinicID, vetID uuid.UUID, date string) (*model.Clinic, []slot.Slot, error) {
	clinic, err := s.clinic(ctx, clinicID)
	if err != nil {
		return nil, nil, err
	}
	if clinic.Status != model.ClinicStatusActive {
		return nil, nil, apperrors.BadRequest("clinic is not accepting bookings", nil)
	}

	vet, err := s.vets.Get(ctx, vetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound("veterinarian", err)
		}
		return nil, nil, apperrors.Internal(fmt.Errorf("failed to get veterinarian: %w", err))
	}
	if vet.ClinicID != clinicID || !vet.Bookable() {
		return nil, nil, apperrors.NotFound("veterinarian", nil)
	}

	timer := prometheus.NewTimer(s.metrics.SlotComputeLatency)
	defer timer.ObserveDuration()

	// An unparseable date has no slots; skip the busy lookup entirely.
	if _, err := time.ParseInLocation(slot.DateLayout, date, s.config.Location); err != nil {
		s.metrics.SlotComputations.WithLabelValues("invalid_date").Inc()
		return clinic, nil, nil
	}

	booked, err := s.appointments.ListBookedTimes(ctx, vetID, date)
	if err != nil {
		s.metrics.SlotComputations.WithLabelValues("busy_lookup_failed").Inc()
		return nil, nil, apperrors.Unavailable("could not load existing bookings", err)
	}

	slots := slot.Compute(s.hoursFor(clinic), date, slot.NewBusySet(booked...), s.now(),
		slot.WithStep(s.config.Step),
		slot.WithMinLead(s.config.MinLead),
		slot.WithLocation(s.config.Location),
	)
	s.metrics.SlotComputations.WithLabelValues("ok").Inc()
	return clinic, slots, nil
}

// hoursFor returns the effective range for clinic. Out-of-range fields are
// clamped the same way the calculator clamps them.
func (s *Service) hoursFor(clinic *model.Clinic) string {
	if clinic == nil {
		return s.config.DefaultHours
	}
	return slot.ParseOperatingHoursOr(clinic.OperatingHours, s.config.DefaultHours).String()
}

func (s *Service) clinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.Clinic), nil
	}
	clinic, err := s.clinics.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("clinic", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get clinic: %w", err))
	}
	s.cache.SetDefault(id.String(), clinic)
	return clinic, nil
}
