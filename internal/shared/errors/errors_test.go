package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "name").WithComponent("booking")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "booking", err.Component)
	assert.Equal(t, "name", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	err := NewNotFoundError("prediction").WithCause(ErrNotFound)
	assert.Equal(t, ErrNotFound, err.Unwrap())
	assert.Equal(t, "prediction not found", err.Error())
	assert.Equal(t, "prediction not found: resource not found", err.Verbose())
}

func TestPortalErrors_Messages(t *testing.T) {
	assert.Equal(t, "Login failed", NewAuthenticationError("").Message)
	assert.Equal(t, "Incorrect email or password", NewAuthenticationError("Incorrect email or password").Message)
	assert.Equal(t, "Registration failed", NewRegistrationError("").Message)
	assert.Equal(t, "Prediction error: timeout of 30000ms exceeded", NewPredictionError("timeout of 30000ms exceeded").Message)
	assert.Equal(t, "Prediction error: unknown error", NewPredictionError("").Message)
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NewAuthenticationError("bad"))
	assert.True(t, IsAuthentication(wrapped))
	assert.False(t, IsRegistration(wrapped))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(wrapped))

	assert.True(t, IsRegistration(NewRegistrationError("dup")))
	assert.True(t, IsProfileFetch(NewProfileFetchError("")))
	assert.True(t, IsPrediction(NewPredictionError("x")))
	assert.True(t, IsHistoryFetch(NewHistoryFetchError("")))
	assert.True(t, IsAnalyticsFetch(NewAnalyticsFetchError("")))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsValidation(fmt.Errorf("x: %w", ErrInvalidInput)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	assert.Nil(t, ve.ToAppError())
	ve.Add("phone", "Phone is required", "")
	assert.True(t, ve.HasErrors())
	appErr := ve.ToAppError()
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "Phone is required", appErr.Message)
}

func TestWrapError(t *testing.T) {
	orig := NewConflictError("slot taken")
	assert.Same(t, orig, WrapError(fmt.Errorf("w: %w", orig), "ignored"))
	wrapped := WrapError(fmt.Errorf("io"), "storage failed")
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
}
