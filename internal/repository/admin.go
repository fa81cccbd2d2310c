package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetAdminByUsername returns the admin account or models.ErrNotFound.
func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	var admin models.Admin

	err := r.db.QueryRow(ctx, SelectAdminByUsernameSQL, username).
		Scan(&admin.ID, &admin.Username, &admin.Password, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, models.ErrNotFound
		}
		return models.Admin{}, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}

// CountAdmins returns the number of admin accounts.
func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	var count int

	if err := r.db.QueryRow(ctx, CountAdminsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}

	return count, nil
}

// CreateAdmin inserts an admin account. An existing username yields models.ErrDuplicateUsername.
func (r *Repository) CreateAdmin(ctx context.Context, username, passwordHash string) (models.Admin, error) {
	var admin models.Admin

	err := r.db.QueryRow(ctx, InsertAdminSQL, username, passwordHash).
		Scan(&admin.ID, &admin.Username, &admin.Password, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, models.ErrDuplicateUsername
		}
		return models.Admin{}, fmt.Errorf("failed to create admin: %w", err)
	}

	return admin, nil
}
