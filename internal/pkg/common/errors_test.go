package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewValidationError("price must not be negative"))

	assert.True(t, IsValidationError(err))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, IsKind(errors.New("plain"), ErrCodeValidation))
}

func TestNewErrorResponseHidesDetails(t *testing.T) {
	err := NewPersistenceError("failed to import recipe", errors.New("UNIQUE constraint failed"))

	status, resp := NewErrorResponse(err, false)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrCodePersistenceFailure, resp.Error)
	assert.Empty(t, resp.Details)

	_, resp = NewErrorResponse(err, true)
	assert.Equal(t, "UNIQUE constraint failed", resp.Details)
}

func TestAsCustomErrorUnknown(t *testing.T) {
	ce := AsCustomError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternalError, ce.Code)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
}
