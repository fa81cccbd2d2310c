package repository

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStatusConflict is returned by a guarded update when the order is no longer in the expected status.
var ErrStatusConflict = errors.New("order status changed concurrently")

const uniqueViolationCode = "23505"

type Repository struct {
	db Database
}

// OrderStore defines persistence of orders. Status changes are conditional
// on the current status and fail with ErrStatusConflict otherwise.
type OrderStore interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, orderID string) (models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	ListActiveOrders(ctx context.Context, employeeID string) ([]models.Order, error)
	CompleteOrder(ctx context.Context, orderID, smsCode string) (models.Order, error)
	CancelOrder(ctx context.Context, orderID string) (models.Order, error)
	DismissOrder(ctx context.Context, orderID string) (models.Order, error)
}

// EmployeeStore defines persistence of employee accounts.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, employee models.Employee) error
	GetEmployee(ctx context.Context, id string) (models.Employee, error)
	GetEmployeeByUsername(ctx context.Context, username string) (models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployeeStatus(ctx context.Context, id string, status models.EmployeeStatus) (models.Employee, error)
	DeleteEmployee(ctx context.Context, id string) (int64, error)
}

// AdminStore defines persistence of the admin account.
type AdminStore interface {
	GetAdminByUsername(ctx context.Context, username string) (models.Admin, error)
	CountAdmins(ctx context.Context) (int, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) (models.Admin, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}

// rowScanner is implemented by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
