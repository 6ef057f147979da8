package handlers

import (
	"errors"
	"net/http"

	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/auth"
	"github.com/tech-arch1tect/medreg/services/patient"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
)

// apiError translates service errors into what the client sees.
func apiError(err error, kind models.Kind) error {
	var apiErr *response.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		return response.NewError(http.StatusBadRequest, vErr.Message, err)
	}

	switch {
	case errors.Is(err, storage.ErrNoFiles):
		return response.NewError(http.StatusBadRequest, "No files uploaded", err)
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, storage.ErrTooManyFiles),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrUnsupportedType):
		return response.NewError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, session.ErrMissingCredentials):
		return response.NewError(http.StatusBadRequest, "Email and password are required", err)
	case errors.Is(err, models.ErrEmailTaken):
		return response.NewError(http.StatusConflict, displayName(kind)+" with same email already exists", err)
	case errors.Is(err, session.ErrInvalidCredentials):
		return response.Unauthorized("Invalid credentials", err)
	case errors.Is(err, session.ErrTokenReused):
		return response.Unauthorized("Refresh token is expired or used", err)
	case errors.Is(err, session.ErrInvalidToken):
		return response.Unauthorized("Invalid refresh token", err)
	case errors.Is(err, session.ErrUnauthorized):
		return response.Unauthorized("Unauthorized request", err)
	case errors.Is(err, patient.ErrHospitalNotFound):
		return response.NewError(http.StatusNotFound, "Hospital not found", err)
	case errors.Is(err, models.ErrPrincipalNotFound):
		return response.NewError(http.StatusNotFound, displayName(kind)+" not found", err)
	default:
		return response.Internal(err)
	}
}

func displayName(kind models.Kind) string {
	if kind == models.KindHospital {
		return "Hospital"
	}
	return "User"
}

// refreshError reports a vanished principal as an invalid token rather than
// a 404.
func refreshError(err error, kind models.Kind) error {
	if errors.Is(err, models.ErrPrincipalNotFound) {
		return response.Unauthorized("Invalid refresh token", err)
	}
	return apiError(err, kind)
}
