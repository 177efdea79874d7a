package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/email"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/internal/service/event"
	pkgauth "github.com/jwalitptl/vetbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
	"github.com/jwalitptl/vetbook-api/pkg/security"
)

type Service struct {
	users   repository.UserRepository
	vets    repository.VeterinarianRepository
	clinics repository.ClinicRepository
	hasher  security.PasswordHasher
	tokens  pkgauth.JWTService
	email   email.Service
	events  event.Recorder
	logger  *logger.Logger
}

func NewService(
	users repository.UserRepository,
	vets repository.VeterinarianRepository,
	clinics repository.ClinicRepository,
	hasher security.PasswordHasher,
	tokens pkgauth.JWTService,
	emailSvc email.Service,
	events event.Recorder,
	logger *logger.Logger,
) *Service {
	return &Service{
		users:   users,
		vets:    vets,
		clinics: clinics,
		hasher:  hasher,
		tokens:  tokens,
		email:   emailSvc,
		events:  events,
		logger:  logger,
	}
}

// Register creates an account and signs it in. Veterinarians get a pending
// profile at their clinic and cannot be booked until an admin approves it.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if req.Role == model.RoleVeterinarian {
		if req.ClinicID == nil {
			return nil, apperrors.BadRequest("clinic_id is required for veterinarians", nil)
		}
		if _, err := s.clinics.Get(ctx, *req.ClinicID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.BadRequest("clinic does not exist", nil)
			}
			return nil, apperrors.Internal(fmt.Errorf("failed to get clinic: %w", err))
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Email:        normalizeEmail(req.Email),
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		Preferences:  model.JSONMap{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	if user.Role == model.RoleVeterinarian {
		vet := &model.Veterinarian{
			UserID:         user.ID,
			ClinicID:       *req.ClinicID,
			Specialization: req.Specialization,
			LicenseNumber:  req.LicenseNumber,
			Status:         model.VeterinarianStatusPending,
		}
		if err := s.vets.Create(ctx, vet); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, apperrors.Conflict("license number already registered", err)
			}
			return nil, apperrors.Internal(fmt.Errorf("failed to create veterinarian: %w", err))
		}
		vet.Name, vet.Email = user.Name, user.Email
		if err := s.events.Record(ctx, "veterinarians", realtime.Insert, vet, nil); err != nil {
			s.logger.Error(err, "Failed to record veterinarian change", "user_id", user.ID.String())
		}
	}

	if err := s.email.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Warn("Failed to send welcome email", "user_id", user.ID.String(), "error", err.Error())
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}
	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

func (s *Service) GetPreferences(ctx context.Context, userID uuid.UUID) (model.JSONMap, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Preferences == nil {
		return model.JSONMap{}, nil
	}
	return user.Preferences, nil
}

// UpdatePreferences replaces the stored preference record.
func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs model.JSONMap) (model.JSONMap, error) {
	if prefs == nil {
		prefs = model.JSONMap{}
	}
	if err := s.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update preferences: %w", err))
	}
	return prefs, nil
}

func (s *Service) issue(user *model.User) (*model.TokenResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
