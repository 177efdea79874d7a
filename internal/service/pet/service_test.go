package pet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository/fake"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

func TestPetLifecycle_OwnerScoped(t *testing.T) {
	svc := NewService(fake.NewPets())
	ctx := context.Background()
	owner := model.Actor{UserID: uuid.New(), Role: model.RoleOwner}
	other := model.Actor{UserID: uuid.New(), Role: model.RoleOwner}
	admin := model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}

	pet, err := svc.Create(ctx, owner, &model.CreatePetRequest{Name: "Biscuit", Species: "dog"})
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, pet.OwnerID)

	_, err = svc.Get(ctx, other, pet.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Get(ctx, admin, pet.ID)
	assert.NoError(t, err)

	breed := "beagle"
	updated, err := svc.Update(ctx, owner, pet.ID, &model.UpdatePetRequest{Breed: &breed})
	require.NoError(t, err)
	require.NotNil(t, updated.Breed)
	assert.Equal(t, "beagle", *updated.Breed)
	assert.Equal(t, "Biscuit", updated.Name)

	mine, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	assert.True(t, apperrors.Is(svc.Delete(ctx, other, pet.ID), apperrors.ErrNotFound))
	require.NoError(t, svc.Delete(ctx, owner, pet.ID))
	_, err = svc.Get(ctx, owner, pet.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
