package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/UnknownOlympus/numera/internal/repository"
	"github.com/jonboulle/clockwork"
)

// OrderParams are the provisioning parameters recorded on every order.
type OrderParams struct {
	Service  string
	Operator string
	Country  string
}

// CheckResult is the outcome of an SMS status check.
type CheckResult struct {
	Order          models.Order
	SMSReceived    bool   // true only when this call completed the order
	ProviderStatus string // raw provider answer, empty when the provider was not asked
}

// Orders drives the order state machine: pending -> completed or pending -> cancelled,
// plus the dismissed flag on completed orders.
type Orders struct {
	log         *slog.Logger
	metrics     *metrics.Metrics
	orders      repository.OrderStore
	employees   repository.EmployeeStore
	provider    Provider
	invalidator Invalidator
	clock       clockwork.Clock
	location    *time.Location
	params      OrderParams
}

// NewOrders creates the order service. Order dates are stamped in location.
func NewOrders(
	log *slog.Logger,
	metrics *metrics.Metrics,
	orders repository.OrderStore,
	employees repository.EmployeeStore,
	provider Provider,
	invalidator Invalidator,
	clock clockwork.Clock,
	location *time.Location,
	params OrderParams,
) *Orders {
	return &Orders{
		log:         log.With(slog.String("component", "orders")),
		metrics:     metrics,
		orders:      orders,
		employees:   employees,
		provider:    provider,
		invalidator: orNoop(invalidator),
		clock:       clock,
		location:    location,
		params:      params,
	}
}

// RequestNumber rents a number for the employee and stores it as a pending order.
// It returns models.ErrNoNumbers when the provider is out of stock and *provider.Error
// for any other provider answer.
func (s *Orders) RequestNumber(ctx context.Context, employeeID, employeeName string) (models.Order, error) {
	startTime := time.Now()
	employee, err := s.employees.GetEmployee(ctx, employeeID)
	observeDB(s.metrics, "get_employee", startTime)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to get employee %s: %w", employeeID, err)
	}
	if employee.Status != models.EmployeeActive {
		return models.Order{}, models.ErrInactiveEmployee
	}
	if employeeName == "" {
		employeeName = employee.Name
	}

	number, err := s.provider.Acquire(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to acquire number: %w", err)
	}

	now := s.clock.Now().In(s.location)
	order := models.Order{
		OrderID:      number.OrderID,
		PhoneNumber:  number.Phone,
		EmployeeID:   employee.ID,
		EmployeeName: employeeName,
		Status:       models.StatusPending,
		Date:         now.Format(time.DateOnly),
		Time:         now.Format(time.TimeOnly),
		Service:      s.params.Service,
		Operator:     s.params.Operator,
		Country:      s.params.Country,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	startTime = time.Now()
	err = s.orders.CreateOrder(ctx, order)
	observeDB(s.metrics, "create_order", startTime)
	if err != nil {
		// the number is already billed, give it back
		if cancelErr := s.provider.Cancel(context.WithoutCancel(ctx), number.OrderID); cancelErr != nil {
			s.log.ErrorContext(ctx, "Failed to release unsaved number", "order", number.OrderID, "error", cancelErr)
		}
		return models.Order{}, fmt.Errorf("failed to save order: %w", err)
	}

	s.metrics.OrderTransitions.WithLabelValues("new", string(models.StatusPending)).Inc()
	s.invalidator.Invalidate(ctx)
	s.log.InfoContext(ctx, "Number rented", "order", order.OrderID, "employee", employee.ID)

	return order, nil
}

// CheckStatus polls the provider for a pending order and applies the resulting transition.
// Orders that are no longer pending are returned as stored without asking the provider.
func (s *Orders) CheckStatus(ctx context.Context, orderID string) (CheckResult, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return CheckResult{}, err
	}

	if order.Status != models.StatusPending {
		return CheckResult{Order: order}, nil
	}

	result, err := s.provider.Poll(ctx, orderID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("failed to poll order %s: %w", orderID, err)
	}

	switch result.State {
	case provider.PollSMSReady:
		updated, applied, err := s.transition(ctx, order, models.StatusCompleted, func() (models.Order, error) {
			return s.orders.CompleteOrder(ctx, orderID, result.Code)
		})
		if err != nil {
			return CheckResult{}, err
		}
		return CheckResult{
			Order:          updated,
			SMSReceived:    applied,
			ProviderStatus: result.Raw,
		}, nil
	case provider.PollCancelled:
		updated, _, err := s.transition(ctx, order, models.StatusCancelled, func() (models.Order, error) {
			return s.orders.CancelOrder(ctx, orderID)
		})
		if err != nil {
			return CheckResult{}, err
		}
		return CheckResult{Order: updated, ProviderStatus: result.Raw}, nil
	case provider.PollWaiting:
		return CheckResult{Order: order, ProviderStatus: result.Raw}, nil
	default:
		return CheckResult{}, fmt.Errorf("unknown poll state %d", result.State)
	}
}

// Cancel releases a pending order at the provider and marks it cancelled.
// Cancelling a cancelled order is a no-op; cancelling a completed order fails with models.ErrInvalidTransition.
// When the provider refuses, the local order is left untouched.
func (s *Orders) Cancel(ctx context.Context, orderID string) (models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	switch order.Status {
	case models.StatusCancelled:
		return order, nil
	case models.StatusCompleted:
		return models.Order{}, fmt.Errorf("%w: order %s is completed", models.ErrInvalidTransition, orderID)
	case models.StatusPending:
	default:
		return models.Order{}, fmt.Errorf("%w: order %s has status %q", models.ErrInvalidTransition, orderID, order.Status)
	}

	if err = s.provider.Cancel(ctx, orderID); err != nil {
		return models.Order{}, fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}

	updated, _, err := s.transition(ctx, order, models.StatusCancelled, func() (models.Order, error) {
		return s.orders.CancelOrder(ctx, orderID)
	})
	if err != nil {
		return models.Order{}, err
	}

	// an SMS landed between our read and the provider cancel
	if updated.Status == models.StatusCompleted {
		return models.Order{}, fmt.Errorf("%w: order %s is completed", models.ErrInvalidTransition, orderID)
	}

	return updated, nil
}

// Dismiss hides a completed order from its owner's active list.
func (s *Orders) Dismiss(ctx context.Context, orderID, employeeID string) (models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if order.EmployeeID != employeeID {
		return models.Order{}, models.ErrForbidden
	}

	switch order.Status {
	case models.StatusCompleted:
		if order.Dismissed {
			return order, nil
		}
	case models.StatusPending, models.StatusCancelled:
		return models.Order{}, fmt.Errorf("%w: only completed orders can be dismissed", models.ErrInvalidTransition)
	default:
		return models.Order{}, fmt.Errorf("%w: order %s has status %q", models.ErrInvalidTransition, orderID, order.Status)
	}

	startTime := time.Now()
	updated, err := s.orders.DismissOrder(ctx, orderID)
	observeDB(s.metrics, "dismiss_order", startTime)
	if errors.Is(err, repository.ErrStatusConflict) {
		current, getErr := s.get(ctx, orderID)
		if getErr != nil {
			return models.Order{}, getErr
		}
		if current.Status == models.StatusCompleted && current.Dismissed {
			return current, nil
		}
		return models.Order{}, fmt.Errorf("%w: order %s changed concurrently", models.ErrInvalidTransition, orderID)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to dismiss order %s: %w", orderID, err)
	}

	return updated, nil
}

// List returns orders matching the filter, newest first.
func (s *Orders) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, filter.Status)
	}
	if filter.Date != "" {
		if _, err := time.Parse(time.DateOnly, filter.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrValidation)
		}
	}

	startTime := time.Now()
	defer observeDB(s.metrics, "list_orders", startTime)

	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListByEmployee returns all orders of one employee.
func (s *Orders) ListByEmployee(ctx context.Context, employeeID string) ([]models.Order, error) {
	return s.List(ctx, models.OrderFilter{EmployeeID: employeeID})
}

// Active returns the employee's pending orders and completed orders which were not dismissed.
func (s *Orders) Active(ctx context.Context, employeeID string) ([]models.Order, error) {
	startTime := time.Now()
	defer observeDB(s.metrics, "list_active_orders", startTime)

	orders, err := s.orders.ListActiveOrders(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	return orders, nil
}

func (s *Orders) get(ctx context.Context, orderID string) (models.Order, error) {
	startTime := time.Now()
	order, err := s.orders.GetOrder(ctx, orderID)
	observeDB(s.metrics, "get_order", startTime)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return order, nil
}

// transition runs a guarded status update and reports whether this call applied it.
// When another request changed the order first, the stored order is returned instead.
func (s *Orders) transition(
	ctx context.Context,
	current models.Order,
	next models.OrderStatus,
	update func() (models.Order, error),
) (models.Order, bool, error) {
	if !current.Status.CanTransitionTo(next) {
		return models.Order{}, false, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, current.Status, next)
	}

	startTime := time.Now()
	updated, err := update()
	observeDB(s.metrics, "update_order_status", startTime)

	if errors.Is(err, repository.ErrStatusConflict) {
		s.log.InfoContext(ctx, "Order changed concurrently", "order", current.OrderID, "wanted", next)
		stored, getErr := s.get(ctx, current.OrderID)
		return stored, false, getErr
	}
	if err != nil {
		return models.Order{}, false, fmt.Errorf("failed to update order %s: %w", current.OrderID, err)
	}

	s.metrics.OrderTransitions.WithLabelValues(string(current.Status), string(next)).Inc()
	s.invalidator.Invalidate(ctx)
	s.log.InfoContext(ctx, "Order status changed", "order", current.OrderID, "from", current.Status, "to", next)

	return updated, true, nil
}
