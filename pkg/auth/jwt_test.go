package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "vetbook", time.Hour)
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(userID, "owner")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "owner", claims.Role)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", "vetbook", time.Hour)
	token, _, err := svc.GenerateAccessToken(uuid.New(), "owner")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTService("other", "vetbook", time.Hour).ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewJWTService("secret", "someone-else", time.Hour).ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		s := NewJWTService("secret", "vetbook", time.Minute).(*jwtService)
		s.now = func() time.Time { return time.Now().Add(-time.Hour) }
		old, _, err := s.GenerateAccessToken(uuid.New(), "owner")
		require.NoError(t, err)
		_, err = svc.ValidateToken(old)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}
