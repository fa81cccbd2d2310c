package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/repository"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

// NewEmployee is the admin input for creating an employee account.
type NewEmployee struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Employees manages employee accounts.
type Employees struct {
	log         *slog.Logger
	metrics     *metrics.Metrics
	store       repository.EmployeeStore
	invalidator Invalidator
	clock       clockwork.Clock
}

func NewEmployees(
	log *slog.Logger,
	metrics *metrics.Metrics,
	store repository.EmployeeStore,
	invalidator Invalidator,
	clock clockwork.Clock,
) *Employees {
	return &Employees{
		log:         log.With(slog.String("component", "employees")),
		metrics:     metrics,
		store:       store,
		invalidator: orNoop(invalidator),
		clock:       clock,
	}
}

// Create stores a new active employee. Username and email are lower-cased and the password is hashed.
func (s *Employees) Create(ctx context.Context, input NewEmployee) (models.Employee, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || username == "" || email == "" || input.Password == "" {
		return models.Employee{}, fmt.Errorf("%w: all fields are required", models.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to hash password: %w", err)
	}

	employee := models.Employee{
		ID:        uuid.NewString(),
		Name:      name,
		Username:  username,
		Email:     email,
		Password:  string(hash),
		Status:    models.EmployeeActive,
		CreatedAt: s.clock.Now(),
	}

	startTime := time.Now()
	err = s.store.CreateEmployee(ctx, employee)
	observeDB(s.metrics, "create_employee", startTime)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to create employee %s: %w", username, err)
	}

	s.invalidator.Invalidate(ctx)
	s.log.InfoContext(ctx, "Employee created", "id", employee.ID, "username", username)

	return employee, nil
}

// List returns all employees, newest first.
func (s *Employees) List(ctx context.Context) ([]models.Employee, error) {
	startTime := time.Now()
	defer observeDB(s.metrics, "list_employees", startTime)

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

func (s *Employees) Get(ctx context.Context, id string) (models.Employee, error) {
	startTime := time.Now()
	defer observeDB(s.metrics, "get_employee", startTime)

	employee, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}
	return employee, nil
}

// SetStatus activates or deactivates an employee.
func (s *Employees) SetStatus(ctx context.Context, id string, status models.EmployeeStatus) (models.Employee, error) {
	if !status.Valid() {
		return models.Employee{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}

	startTime := time.Now()
	employee, err := s.store.UpdateEmployeeStatus(ctx, id, status)
	observeDB(s.metrics, "update_employee_status", startTime)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to update employee %s: %w", id, err)
	}

	s.invalidator.Invalidate(ctx)
	s.log.InfoContext(ctx, "Employee status changed", "id", id, "status", status)

	return employee, nil
}

// Delete removes the employee together with all their orders.
func (s *Employees) Delete(ctx context.Context, id string) error {
	startTime := time.Now()
	removed, err := s.store.DeleteEmployee(ctx, id)
	observeDB(s.metrics, "delete_employee", startTime)
	if err != nil {
		return fmt.Errorf("failed to delete employee %s: %w", id, err)
	}

	s.invalidator.Invalidate(ctx)
	s.log.InfoContext(ctx, "Employee deleted", "id", id, "orders", removed)

	return nil
}
