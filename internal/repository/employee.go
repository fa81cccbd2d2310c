package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/jackc/pgx/v5"
)

// CreateEmployee inserts a new employee. A taken username yields models.ErrDuplicateUsername.
func (r *Repository) CreateEmployee(ctx context.Context, employee models.Employee) error {
	_, err := r.db.Exec(
		ctx,
		InsertEmployeeSQL,
		employee.ID,
		employee.Name,
		employee.Username,
		employee.Email,
		employee.Password,
		string(employee.Status),
		employee.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}

	return nil
}

// GetEmployee returns the employee with the given id or models.ErrNotFound.
func (r *Repository) GetEmployee(ctx context.Context, id string) (models.Employee, error) {
	employee, err := scanEmployee(r.db.QueryRow(ctx, SelectEmployeeByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, models.ErrNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee data: %w", err)
	}

	return employee, nil
}

// GetEmployeeByUsername looks an employee up by the lower-cased login.
func (r *Repository) GetEmployeeByUsername(ctx context.Context, username string) (models.Employee, error) {
	employee, err := scanEmployee(r.db.QueryRow(ctx, SelectEmployeeByUsernameSQL, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, models.ErrNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to find employee by username: %w", err)
	}

	return employee, nil
}

// ListEmployees returns all employees, newest first.
func (r *Repository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := r.db.Query(ctx, SelectEmployeesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := make([]models.Employee, 0)
	for rows.Next() {
		employee, scanErr := scanEmployee(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", scanErr)
		}
		employees = append(employees, employee)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during rows iteration: %w", err)
	}

	return employees, nil
}

// UpdateEmployeeStatus activates or deactivates an employee.
func (r *Repository) UpdateEmployeeStatus(
	ctx context.Context,
	id string,
	status models.EmployeeStatus,
) (models.Employee, error) {
	employee, err := scanEmployee(r.db.QueryRow(ctx, UpdateEmployeeStatusSQL, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, models.ErrNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to update employee status: %w", err)
	}

	return employee, nil
}

// DeleteEmployee removes the employee together with all of their orders in one transaction.
// It returns the number of deleted orders.
func (r *Repository) DeleteEmployee(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	ordersTag, err := tx.Exec(ctx, DeleteEmployeeOrdersSQL, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete employee orders: %w", err)
	}

	employeeTag, err := tx.Exec(ctx, DeleteEmployeeSQL, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete employee: %w", err)
	}
	if employeeTag.RowsAffected() == 0 {
		return 0, models.ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ordersTag.RowsAffected(), nil
}

func scanEmployee(row rowScanner) (models.Employee, error) {
	var (
		employee models.Employee
		status   string
	)

	err := row.Scan(
		&employee.ID,
		&employee.Name,
		&employee.Username,
		&employee.Email,
		&employee.Password,
		&status,
		&employee.CreatedAt,
	)
	if err != nil {
		return models.Employee{}, err
	}
	employee.Status = models.EmployeeStatus(status)

	return employee, nil
}
