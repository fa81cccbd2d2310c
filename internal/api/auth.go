package api

import (
	"errors"
	"net/http"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type employeeSession struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (s *Server) employeeLogin(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.fail(c, err, "", "Server error")
	}

	employee, err := s.deps.Auth.EmployeeLogin(c.Request().Context(), req.Username, req.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		return failure(c, http.StatusUnauthorized, "Invalid username or password, or account is inactive.")
	}
	if err != nil {
		return s.fail(c, err, "Employee", "Server error")
	}

	return success(c, http.StatusOK, echo.Map{
		"message": "Login successful",
		"employee": employeeSession{
			ID:       employee.ID,
			Username: employee.Username,
			Name:     employee.Name,
			Email:    employee.Email,
		},
	})
}

func (s *Server) adminLogin(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.fail(c, err, "", "Server error")
	}

	ctx := c.Request().Context()
	if err := s.deps.Auth.EnsureDefaultAdmin(ctx, s.deps.DefaultAdmin.Username, s.deps.DefaultAdmin.Password); err != nil {
		return s.fail(c, err, "Admin", "Server error")
	}

	admin, err := s.deps.Auth.AdminLogin(ctx, req.Username, req.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		return failure(c, http.StatusUnauthorized, "Invalid admin credentials.")
	}
	if err != nil {
		return s.fail(c, err, "Admin", "Server error")
	}

	return success(c, http.StatusOK, echo.Map{
		"message": "Admin login successful",
		"admin": echo.Map{
			"username": admin.Username,
			"role":     "admin",
		},
	})
}
