package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Chqrety/reservation/internal/models"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrNotFound matches a 404 response or a lookup whose payload is absent.
	ErrNotFound = errors.New("backend: not found")
	// ErrValidation matches a 422 response.
	ErrValidation = errors.New("backend: validation failed")
	// ErrRejected is returned when a 2xx response carries success=false.
	ErrRejected = errors.New("backend: request rejected")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Errors  models.ValidationErrors
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: http %d", e.Status)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// FieldErrors extracts the field error map of a 422 response.
func FieldErrors(err error) (models.ValidationErrors, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
		if apiErr.Errors == nil {
			return models.ValidationErrors{}, true
		}
		return apiErr.Errors, true
	}
	return nil, false
}

// IsConnection reports whether err happened before any HTTP response arrived.
func IsConnection(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr) && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrRejected)
}

// Message returns the backend-provided message of err, if any.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
