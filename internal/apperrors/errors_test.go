package apperrors

import (
	"errors"
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
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"conflict", Conflict("dup"), http.StatusBadRequest},
		{"auth", Auth("nope"), http.StatusUnauthorized},
		{"forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"store", Store("write failed", errors.New("disk full")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("checkout: %w", NotFound("Product not found")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestIsByKind(t *testing.T) {
	err := fmt.Errorf("register: %w", Conflict("User already exists"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, Conflict("User already exists")))
	assert.False(t, errors.Is(err, Conflict("something else")))
}

func TestPublicMessage_HidesStoreCause(t *testing.T) {
	err := Store("failed to save order", errors.New("open orders.json: permission denied"))

	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, "Invalid credentials", PublicMessage(Auth("Invalid credentials")))
}
