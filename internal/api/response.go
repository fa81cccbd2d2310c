package api

import (
	"errors"
	"net/http"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/labstack/echo/v4"
)

const noNumbersMessage = "No numbers currently available. Please try again later."

func success(c echo.Context, code int, body echo.Map) error {
	body["success"] = true
	return c.JSON(code, body)
}

func failure(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"success": false, "message": message})
}

// fail maps a service error to a response. subject names the missing entity on a not found error,
// internal is the message of a 500 response.
func (s *Server) fail(c echo.Context, err error, subject, internal string) error {
	var providerErr *provider.Error

	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidTransition):
		return failure(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrDuplicateUsername):
		return failure(c, http.StatusBadRequest, "Username already exists!")
	case errors.Is(err, models.ErrInactiveEmployee):
		return failure(c, http.StatusBadRequest, "Employee account is inactive")
	case errors.Is(err, models.ErrNoNumbers):
		return failure(c, http.StatusNotFound, noNumbersMessage)
	case errors.Is(err, models.ErrNotFound):
		return failure(c, http.StatusNotFound, subject+" not found")
	case errors.Is(err, models.ErrForbidden):
		return failure(c, http.StatusForbidden, "Order belongs to another employee")
	case errors.Is(err, models.ErrInvalidCredentials):
		return failure(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.As(err, &providerErr):
		return failure(c, http.StatusBadRequest, "API Error: "+providerErr.Raw)
	}

	s.log.ErrorContext(c.Request().Context(), internal, "error", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"message": internal,
		"error":   err.Error(),
	})
}
