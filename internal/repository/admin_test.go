package repository_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAdminByUsername(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)
		created := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(repository.SelectAdminByUsernameSQL)).
			WithArgs("admin").
			WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password", "created_at"}).
				AddRow(1, "admin", "$2a$10$hash", created))

		admin, err := repo.GetAdminByUsername(ctx, "admin")

		require.NoError(t, err)
		assert.Equal(t, models.Admin{ID: 1, Username: "admin", Password: "$2a$10$hash", CreatedAt: created}, admin)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta(repository.SelectAdminByUsernameSQL)).
			WithArgs("root").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetAdminByUsername(ctx, "root")

		require.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountAdmins(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(repository.CountAdminsSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	count, err := repo.CountAdmins(t.Context())

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdmin(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta(repository.InsertAdminSQL)).
			WithArgs("admin", "$2a$10$hash").
			WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password", "created_at"}).
				AddRow(1, "admin", "$2a$10$hash", time.Now()))

		admin, err := repo.CreateAdmin(ctx, "admin", "$2a$10$hash")

		require.NoError(t, err)
		assert.Equal(t, "admin", admin.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - already exists", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta(repository.InsertAdminSQL)).
			WithArgs("admin", "$2a$10$hash").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.CreateAdmin(ctx, "admin", "$2a$10$hash")

		require.ErrorIs(t, err, models.ErrDuplicateUsername)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
