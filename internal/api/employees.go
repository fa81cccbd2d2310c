package api

import (
	"net/http"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/service"
	"github.com/labstack/echo/v4"
)

type statusRequest struct {
	Status models.EmployeeStatus `json:"status" validate:"required,oneof=active inactive"`
}

func (s *Server) listEmployees(c echo.Context) error {
	employees, err := s.deps.Employees.List(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "Employee", "Error fetching employees")
	}
	if employees == nil {
		employees = []models.Employee{}
	}
	return success(c, http.StatusOK, echo.Map{"employees": employees})
}

func (s *Server) createEmployee(c echo.Context) error {
	var req service.NewEmployee
	if err := bindAndValidate(c, &req); err != nil {
		return s.fail(c, err, "", "Error adding employee")
	}

	employee, err := s.deps.Employees.Create(c.Request().Context(), req)
	if err != nil {
		return s.fail(c, err, "Employee", "Error adding employee")
	}

	return success(c, http.StatusCreated, echo.Map{
		"message":  "Employee added successfully",
		"employee": employee,
	})
}

func (s *Server) updateEmployeeStatus(c echo.Context) error {
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.fail(c, err, "", "Error updating employee status")
	}

	employee, err := s.deps.Employees.SetStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return s.fail(c, err, "Employee", "Error updating employee status")
	}

	return success(c, http.StatusOK, echo.Map{
		"message":  "Employee status updated",
		"employee": employee,
	})
}

func (s *Server) deleteEmployee(c echo.Context) error {
	if err := s.deps.Employees.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.fail(c, err, "Employee", "Error deleting employee")
	}

	return success(c, http.StatusOK, echo.Map{
		"message": "Employee and their orders deleted successfully",
	})
}
