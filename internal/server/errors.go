// Package server provides the HTTP JSON API for the complaint assistant.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/complaint-assistant/internal/db"
	"github.com/jonathan/complaint-assistant/internal/llm"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Client-facing messages. AI and storage causes are logged, never returned.
const (
	msgNotFound      = "Complaint not found or not authorized."
	msgAIUnavailable = "The AI service is unavailable right now. Please try again later."
	msgInternal      = "Internal server error"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailExists  *ErrEmailAlreadyExists
		invalidCreds *ErrInvalidCredentials
		userNotFound *ErrUserNotFound
		validation   *ErrValidation
	)
	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &invalidCreds):
		return http.StatusUnauthorized
	case errors.As(err, &userNotFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case llm.IsAIError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client for err.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusNotFound:
		if errors.Is(err, db.ErrNotFound) {
			return msgNotFound
		}
		return err.Error()
	case http.StatusBadGateway:
		return msgAIUnavailable
	case http.StatusInternalServerError:
		return msgInternal
	default:
		return err.Error()
	}
}
