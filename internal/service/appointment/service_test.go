package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository/fake"
	"github.com/jwalitptl/vetbook-api/internal/service/availability"
	"github.com/jwalitptl/vetbook-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
)

var fixedNow = time.Date(2026, 10, 17, 10, 10, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	repo     *fake.Appointments
	outbox   *fake.Outbox
	clinic   *model.Clinic
	vet      *model.Veterinarian
	otherVet *model.Veterinarian
	pet      *model.Pet
	owner    model.Actor
	vetActor model.Actor
	stranger model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clinic := &model.Clinic{Base: model.Base{ID: uuid.New()}, OperatingHours: "09:00-12:00", Status: model.ClinicStatusActive}
	vet := &model.Veterinarian{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), ClinicID: clinic.ID, Status: model.VeterinarianStatusApproved}
	otherVet := &model.Veterinarian{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), ClinicID: clinic.ID, Status: model.VeterinarianStatusApproved}
	ownerID := uuid.New()
	pet := &model.Pet{Base: model.Base{ID: uuid.New()}, OwnerID: ownerID, Name: "Biscuit", Species: "dog"}

	vets := fake.NewVeterinarians(vet, otherVet)
	repo := fake.NewAppointments()
	outbox := fake.NewOutbox()
	m := metrics.New("test")

	slots := availability.NewService(fake.NewClinics(clinic), vets, repo, availability.Config{
		Step: 30 * time.Minute, MinLead: 30 * time.Minute, Location: time.UTC,
	}, m).WithClock(func() time.Time { return fixedNow })

	svc := NewService(repo, fake.NewPets(pet), vets, slots, event.NewService(outbox, logger.Nop()), logger.Nop(), m)

	return &fixture{
		svc:      svc,
		repo:     repo,
		outbox:   outbox,
		clinic:   clinic,
		vet:      vet,
		otherVet: otherVet,
		pet:      pet,
		owner:    model.Actor{UserID: ownerID, Role: model.RoleOwner},
		vetActor: model.Actor{UserID: vet.UserID, Role: model.RoleVeterinarian},
		stranger: model.Actor{UserID: uuid.New(), Role: model.RoleOwner},
	}
}

func (f *fixture) request(date, at string) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		ClinicID:       f.clinic.ID,
		VeterinarianID: f.vet.ID,
		PetID:          f.pet.ID,
		Date:           date,
		Time:           at,
		Reason:         "Annual vaccination",
	}
}

func TestBook_Success(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.owner, f.request("2026-10-20", "09:30"))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, f.owner.UserID, apt.OwnerID)
	assert.Equal(t, "09:30", apt.Time)
	assert.Equal(t, []string{"appointments:INSERT"}, f.outbox.Kinds())
}

func TestBook_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture) (model.Actor, *model.CreateAppointmentRequest)
		code  apperrors.ErrorCode
	}{
		{
			name: "time not on the grid",
			setup: func(f *fixture) (model.Actor, *model.CreateAppointmentRequest) {
				return f.owner, f.request("2026-10-20", "09:15")
			},
			code: apperrors.ErrBadRequest,
		},
		{
			name: "outside operating hours",
			setup: func(f *fixture) (model.Actor, *model.CreateAppointmentRequest) {
				return f.owner, f.request("2026-10-20", "13:00")
			},
			code: apperrors.ErrBadRequest,
		},
		{
			name: "too soon today",
			setup: func(f *fixture) (model.Actor, *model.CreateAppointmentRequest) {
				return f.owner, f.request("2026-10-17", "10:30")
			},
			code: apperrors.ErrConflict,
		},
		{
			name: "date in the past",
			setup: func(f *fixture) (model.Actor, *model.CreateAppointmentRequest) {
				return f.owner, f.request("2026-10-16", "11:00")
			},
			code: apperrors.ErrBadRequest,
		},
		{
			name: "someone else's pet",
			setup: func(f *fixture) (model.Actor, *model.CreateAppointmentRequest) {
				return f.stranger, f.request("2026-10-20", "09:30")
			},
			code: apperrors.ErrNotFound,
		},
		{
			name: "unknown pet",
			setup: func(f *fixture) (model.Actor, *model.CreateAppointmentRequest) {
				req := f.request("2026-10-20", "09:30")
				req.PetID = uuid.New()
				return f.owner, req
			},
			code: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actor, req := tt.setup(f)
			_, err := f.svc.Book(context.Background(), actor, req)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.code), "got %v", err)
			assert.Empty(t, f.outbox.Kinds())
		})
	}
}

func TestBook_SlotTakenTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.owner, f.request("2026-10-20", "11:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, f.owner, f.request("2026-10-20", "11:00"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "Booked")

	req := f.request("2026-10-20", "11:00")
	req.VeterinarianID = f.otherVet.ID
	_, err = f.svc.Book(ctx, f.owner, req)
	assert.NoError(t, err, "a different veterinarian is free at the same time")
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.owner, f.request("2026-10-20", "10:00"))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, f.owner, apt.ID, "feeling better")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "feeling better", *cancelled.CancelReason)

	_, err = f.svc.Book(ctx, f.owner, f.request("2026-10-20", "10:00"))
	assert.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.owner, apt.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	assert.Equal(t, []string{"appointments:INSERT", "appointments:UPDATE", "appointments:INSERT"}, f.outbox.Kinds())
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.owner, f.request("2026-10-20", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.owner, apt.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = f.svc.Complete(ctx, f.vetActor, apt.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict), "pending cannot complete")

	confirmed, err := f.svc.Confirm(ctx, f.vetActor, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)

	completed, err := f.svc.Complete(ctx, f.vetActor, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)

	_, err = f.svc.Cancel(ctx, f.owner, apt.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, f.owner, f.request("2026-10-20", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.owner, apt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.vetActor, apt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}, apt.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, f.stranger, apt.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	_, err = f.svc.Cancel(ctx, f.stranger, apt.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	otherVetActor := model.Actor{UserID: f.otherVet.UserID, Role: model.RoleVeterinarian}
	_, err = f.svc.Confirm(ctx, otherVetActor, apt.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	mine, err := f.svc.List(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.List(ctx, f.stranger, nil)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	schedule, err := f.svc.List(ctx, f.vetActor, &model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, schedule, 1)

	empty, err := f.svc.List(ctx, otherVetActor, &model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
