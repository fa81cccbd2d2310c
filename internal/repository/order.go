package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/jackc/pgx/v5"
)

// CreateOrder stores a freshly acquired order.
func (r *Repository) CreateOrder(ctx context.Context, order models.Order) error {
	_, err := r.db.Exec(
		ctx,
		InsertOrderSQL,
		order.OrderID,
		order.PhoneNumber,
		order.EmployeeID,
		order.EmployeeName,
		string(order.Status),
		order.Date,
		order.Time,
		order.Service,
		order.Operator,
		order.Country,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.OrderID, err)
	}

	return nil
}

// GetOrder returns the order with the given provider id or models.ErrNotFound.
func (r *Repository) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, SelectOrderByIDSQL, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, models.ErrNotFound
		}
		return models.Order{}, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	return order, nil
}

// ListOrders returns orders matching the filter, newest first.
func (r *Repository) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := sq.Select(orderColumns).From("orders").PlaceholderFormat(sq.Dollar)
	if filter.EmployeeID != "" {
		query = query.Where(sq.Eq{"employee_id": filter.EmployeeID})
	}
	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Date != "" {
		query = query.Where(sq.Eq{"order_date": filter.Date})
	}
	query = query.OrderBy("created_at DESC")

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build orders query: %w", err)
	}

	return r.queryOrders(ctx, sqlQuery, args...)
}

// ListActiveOrders returns the employee's pending orders and completed orders which were not dismissed.
func (r *Repository) ListActiveOrders(ctx context.Context, employeeID string) ([]models.Order, error) {
	return r.queryOrders(ctx, SelectActiveOrdersSQL, employeeID)
}

// CompleteOrder moves a pending order to completed and stores the SMS code in one statement.
func (r *Repository) CompleteOrder(ctx context.Context, orderID, smsCode string) (models.Order, error) {
	return r.transition(ctx, CompleteOrderSQL, "complete", orderID, smsCode)
}

// CancelOrder moves a pending order to cancelled.
func (r *Repository) CancelOrder(ctx context.Context, orderID string) (models.Order, error) {
	return r.transition(ctx, CancelOrderSQL, "cancel", orderID)
}

// DismissOrder marks a completed order as dismissed.
func (r *Repository) DismissOrder(ctx context.Context, orderID string) (models.Order, error) {
	return r.transition(ctx, DismissOrderSQL, "dismiss", orderID)
}

func (r *Repository) transition(ctx context.Context, query, op string, args ...any) (models.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, ErrStatusConflict
		}
		return models.Order{}, fmt.Errorf("failed to %s order: %w", op, err)
	}

	return order, nil
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan order: %w", scanErr)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during rows iteration: %w", err)
	}

	return orders, nil
}

func scanOrder(row rowScanner) (models.Order, error) {
	var (
		order  models.Order
		status string
	)

	err := row.Scan(
		&order.OrderID,
		&order.PhoneNumber,
		&order.EmployeeID,
		&order.EmployeeName,
		&status,
		&order.SMSCode,
		&order.Dismissed,
		&order.Date,
		&order.Time,
		&order.Service,
		&order.Operator,
		&order.Country,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return models.Order{}, err
	}
	order.Status = models.OrderStatus(status)

	return order, nil
}
