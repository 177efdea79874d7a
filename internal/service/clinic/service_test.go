package clinic

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository/fake"
	"github.com/jwalitptl/vetbook-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
)

type invalidations []uuid.UUID

func (i *invalidations) InvalidateClinic(id uuid.UUID) { *i = append(*i, id) }

func newTestService(vets ...*model.Veterinarian) (*Service, *fake.Outbox, *invalidations) {
	outbox := fake.NewOutbox()
	inv := &invalidations{}
	svc := NewService(fake.NewClinics(), fake.NewVeterinarians(vets...), inv,
		event.NewService(outbox, logger.Nop()), "08:30-16:30", logger.Nop())
	return svc, outbox, inv
}

func TestCreateClinic_DefaultsHours(t *testing.T) {
	svc, outbox, _ := newTestService()

	clinic, err := svc.CreateClinic(context.Background(), &model.CreateClinicRequest{Name: "Northside", Address: "1 Elm St"})
	require.NoError(t, err)
	assert.Equal(t, "08:30-16:30", clinic.OperatingHours)
	assert.Equal(t, model.ClinicStatusActive, clinic.Status)
	assert.Equal(t, []string{"clinics:INSERT"}, outbox.Kinds())
}

func TestCreateClinic_RejectsReversedHours(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateClinic(context.Background(), &model.CreateClinicRequest{
		Name: "Northside", Address: "1 Elm St", OperatingHours: "17:00-09:00",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestNewService_FallsBackOnBadDefault(t *testing.T) {
	svc := NewService(fake.NewClinics(), fake.NewVeterinarians(), &invalidations{},
		event.NewService(fake.NewOutbox(), logger.Nop()), "nonsense", logger.Nop())
	assert.Equal(t, "08:00-17:00", svc.defaultHours)
}

func TestUpdateClinic_InvalidatesCache(t *testing.T) {
	svc, outbox, inv := newTestService()
	ctx := context.Background()
	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "Northside", Address: "1 Elm St"})
	require.NoError(t, err)

	hours := "10:00-14:00"
	updated, err := svc.UpdateClinic(ctx, clinic.ID, &model.UpdateClinicRequest{OperatingHours: &hours})
	require.NoError(t, err)
	assert.Equal(t, hours, updated.OperatingHours)
	assert.Equal(t, []uuid.UUID{clinic.ID}, []uuid.UUID(*inv))
	assert.Equal(t, []string{"clinics:INSERT", "clinics:UPDATE"}, outbox.Kinds())

	bad := "10:00"
	_, err = svc.UpdateClinic(ctx, clinic.ID, &model.UpdateClinicRequest{OperatingHours: &bad})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestGetClinic_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetClinic(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteClinic(t *testing.T) {
	svc, outbox, inv := newTestService()
	ctx := context.Background()
	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "Northside", Address: "1 Elm St"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteClinic(ctx, clinic.ID))
	assert.Len(t, *inv, 1)
	assert.Equal(t, []string{"clinics:INSERT", "clinics:DELETE"}, outbox.Kinds())

	_, err = svc.GetClinic(ctx, clinic.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListVeterinarians_OnlyApproved(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "Northside", Address: "1 Elm St"})
	require.NoError(t, err)

	approved := &model.Veterinarian{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), ClinicID: clinic.ID, Name: "Dr. Ada", Status: model.VeterinarianStatusApproved}
	pending := &model.Veterinarian{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), ClinicID: clinic.ID, Name: "Dr. Bo", Status: model.VeterinarianStatusPending}
	elsewhere := &model.Veterinarian{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), ClinicID: uuid.New(), Name: "Dr. Cy", Status: model.VeterinarianStatusApproved}
	svc.vets = fake.NewVeterinarians(approved, pending, elsewhere)

	vets, err := svc.ListVeterinarians(ctx, clinic.ID)
	require.NoError(t, err)
	require.Len(t, vets, 1)
	assert.Equal(t, approved.ID, vets[0].ID)

	_, err = svc.ListVeterinarians(ctx, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
