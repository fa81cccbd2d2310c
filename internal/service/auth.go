package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Auth verifies employee and admin credentials.
type Auth struct {
	log       *slog.Logger
	metrics   *metrics.Metrics
	employees repository.EmployeeStore
	admins    repository.AdminStore
}

func NewAuth(
	log *slog.Logger,
	metrics *metrics.Metrics,
	employees repository.EmployeeStore,
	admins repository.AdminStore,
) *Auth {
	return &Auth{
		log:       log.With(slog.String("component", "auth")),
		metrics:   metrics,
		employees: employees,
		admins:    admins,
	}
}

// EmployeeLogin checks the credentials of an employee. Unknown users, wrong passwords and
// inactive accounts all fail with models.ErrInvalidCredentials.
func (s *Auth) EmployeeLogin(ctx context.Context, username, password string) (models.Employee, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	startTime := time.Now()
	employee, err := s.employees.GetEmployeeByUsername(ctx, username)
	observeDB(s.metrics, "get_employee_by_username", startTime)
	if errors.Is(err, models.ErrNotFound) {
		return models.Employee{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to get employee %s: %w", username, err)
	}

	if employee.Status != models.EmployeeActive {
		s.log.InfoContext(ctx, "Inactive employee tried to log in", "username", username)
		return models.Employee{}, models.ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(employee.Password), []byte(password)); err != nil {
		return models.Employee{}, models.ErrInvalidCredentials
	}

	return employee, nil
}

// AdminLogin checks the admin credentials.
func (s *Auth) AdminLogin(ctx context.Context, username, password string) (models.Admin, error) {
	startTime := time.Now()
	admin, err := s.admins.GetAdminByUsername(ctx, strings.TrimSpace(username))
	observeDB(s.metrics, "get_admin", startTime)
	if errors.Is(err, models.ErrNotFound) {
		return models.Admin{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("failed to get admin: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return models.Admin{}, models.ErrInvalidCredentials
	}

	return admin, nil
}

// EnsureDefaultAdmin creates the admin account when none exists yet.
func (s *Auth) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	count, err := s.admins.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = s.admins.CreateAdmin(ctx, username, string(hash))
	if errors.Is(err, models.ErrDuplicateUsername) {
		// another instance won the race
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	s.log.InfoContext(ctx, "Default admin account created", "username", username)
	return nil
}
