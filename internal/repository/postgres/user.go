package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

const userColumns = `id, email, name, phone, password_hash, role, preferences, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	user.ID = uuid.New()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	if user.Preferences == nil {
		user.Preferences = model.JSONMap{}
	}

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Preferences,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return wrap(err, "create user")
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, wrap(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, wrap(err, "get user by email")
	}
	return &user, nil
}

func (r *userRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs model.JSONMap) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET preferences = $1, updated_at = NOW() WHERE id = $2`, prefs, id)
	if err != nil {
		return wrap(err, "update preferences")
	}
	return expectRows(res, "update preferences")
}
