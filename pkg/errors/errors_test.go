package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("clinic", sql.ErrNoRows), http.StatusNotFound},
		{"wrapped conflict", fmt.Errorf("book: %w", Conflict("slot taken", nil)), http.StatusConflict},
		{"bad request", BadRequest("invalid date", nil), http.StatusBadRequest},
		{"forbidden", Forbidden("owners only"), http.StatusForbidden},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"unavailable", Unavailable("busy set unavailable", nil), http.StatusServiceUnavailable},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "internal server error", Message(Internal(fmt.Errorf("pq: password leaked"))))
	assert.Equal(t, "internal server error", Message(fmt.Errorf("raw")))
	assert.Equal(t, "clinic not found", Message(NotFound("clinic", nil)))
	assert.Equal(t, "clinic not found", Message(NotFound("clinic", fmt.Errorf("record not found"))))
	assert.Equal(t, "invalid body: missing name", Message(BadRequest("invalid body", fmt.Errorf("missing name"))))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("pet", sql.ErrNoRows))
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
}
