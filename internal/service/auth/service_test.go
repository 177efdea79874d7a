package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository/fake"
	"github.com/jwalitptl/vetbook-api/internal/service/event"
	pkgauth "github.com/jwalitptl/vetbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/security"
)

type mailbox struct {
	welcomed []string
	err      error
}

func (m *mailbox) SendWelcome(_ context.Context, email, _ string) error {
	m.welcomed = append(m.welcomed, email)
	return m.err
}

func (m *mailbox) SendCustom(context.Context, string, string, string) error { return m.err }

type fixture struct {
	svc    *Service
	users  *fake.Users
	vets   *fake.Veterinarians
	outbox *fake.Outbox
	mail   *mailbox
	tokens pkgauth.JWTService
	clinic *model.Clinic
}

func newFixture() *fixture {
	clinic := &model.Clinic{Base: model.Base{ID: uuid.New()}, Name: "Northside", Status: model.ClinicStatusActive}
	f := &fixture{
		users:  fake.NewUsers(),
		vets:   fake.NewVeterinarians(),
		outbox: fake.NewOutbox(),
		mail:   &mailbox{},
		tokens: pkgauth.NewJWTService("test-secret", "vetbook", time.Hour),
		clinic: clinic,
	}
	f.svc = NewService(f.users, f.vets, fake.NewClinics(clinic), security.NewBcryptHasher(bcrypt.MinCost),
		f.tokens, f.mail, event.NewService(f.outbox, logger.Nop()), logger.Nop())
	return f
}

func TestRegisterOwnerAndLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, &model.RegisterRequest{
		Email: "  Jo@Example.com ", Password: "correct-horse", Name: "Jo", Role: model.RoleOwner,
	})
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", resp.User.Email)
	assert.Equal(t, []string{"jo@example.com"}, f.mail.welcomed)

	claims, err := f.tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, model.RoleOwner, claims.Role)

	_, err = f.svc.Login(ctx, &model.LoginRequest{Email: "JO@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &model.LoginRequest{Email: "jo@example.com", Password: "wrong-horse"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	_, err = f.svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := &model.RegisterRequest{Email: "jo@example.com", Password: "correct-horse", Name: "Jo", Role: model.RoleOwner}

	_, err := f.svc.Register(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRegister_VeterinarianStartsPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, &model.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", Name: "Dr. Ada",
		Role: model.RoleVeterinarian, ClinicID: &f.clinic.ID, LicenseNumber: "LIC-1",
	})
	require.NoError(t, err)

	vet, err := f.vets.GetByUserID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VeterinarianStatusPending, vet.Status)
	assert.Equal(t, f.clinic.ID, vet.ClinicID)
	assert.Equal(t, []string{"veterinarians:INSERT"}, f.outbox.Kinds())
}

func TestRegister_VeterinarianUnknownClinic(t *testing.T) {
	f := newFixture()
	missing := uuid.New()

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", Name: "Dr. Ada",
		Role: model.RoleVeterinarian, ClinicID: &missing, LicenseNumber: "LIC-1",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestRegister_WelcomeEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.mail.err = errors.New("smtp down")

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Email: "jo@example.com", Password: "correct-horse", Name: "Jo", Role: model.RoleOwner,
	})
	assert.NoError(t, err)
}

func TestPreferences(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	resp, err := f.svc.Register(ctx, &model.RegisterRequest{
		Email: "jo@example.com", Password: "correct-horse", Name: "Jo", Role: model.RoleOwner,
	})
	require.NoError(t, err)

	prefs, err := f.svc.GetPreferences(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Empty(t, prefs)

	_, err = f.svc.UpdatePreferences(ctx, resp.User.ID, model.JSONMap{"email_reminders": true})
	require.NoError(t, err)
	prefs, err = f.svc.GetPreferences(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, true, prefs["email_reminders"])

	_, err = f.svc.UpdatePreferences(ctx, uuid.New(), model.JSONMap{})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
