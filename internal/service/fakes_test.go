package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/UnknownOlympus/numera/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
)

var errDatabase = errors.New("database is down")

func newTestDeps() (*slog.Logger, *metrics.Metrics) {
	return slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewMetrics(prometheus.NewRegistry())
}

// memStore is an in-memory repository with the same guarded updates as the SQL one.
type memStore struct {
	mu        sync.Mutex
	orders    map[string]models.Order
	employees map[string]models.Employee
	admins    map[string]models.Admin

	failCreateOrder bool
	failList        bool
	// beforeUpdate runs inside guarded updates to simulate a concurrent writer.
	beforeUpdate func(store *memStore, orderID string)
}

func newMemStore() *memStore {
	return &memStore{
		orders:    make(map[string]models.Order),
		employees: make(map[string]models.Employee),
		admins:    make(map[string]models.Admin),
	}
}

func (m *memStore) CreateOrder(_ context.Context, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateOrder {
		return errDatabase
	}
	m.orders[order.OrderID] = order
	return nil
}

func (m *memStore) GetOrder(_ context.Context, orderID string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return models.Order{}, models.ErrNotFound
	}
	return order, nil
}

func (m *memStore) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errDatabase
	}
	var result []models.Order
	for _, order := range m.orders {
		if filter.EmployeeID != "" && order.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.Date != "" && order.Date != filter.Date {
			continue
		}
		result = append(result, order)
	}
	slices.SortFunc(result, func(a, b models.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return result, nil
}

func (m *memStore) ListActiveOrders(ctx context.Context, employeeID string) ([]models.Order, error) {
	orders, err := m.ListOrders(ctx, models.OrderFilter{EmployeeID: employeeID})
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(orders, func(o models.Order) bool { return !o.IsActive() }), nil
}

func (m *memStore) update(orderID string, from models.OrderStatus, apply func(*models.Order)) (models.Order, error) {
	if m.beforeUpdate != nil {
		hook := m.beforeUpdate
		m.beforeUpdate = nil
		hook(m, orderID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok || order.Status != from {
		return models.Order{}, repository.ErrStatusConflict
	}
	apply(&order)
	m.orders[orderID] = order
	return order, nil
}

func (m *memStore) CompleteOrder(_ context.Context, orderID, smsCode string) (models.Order, error) {
	return m.update(orderID, models.StatusPending, func(o *models.Order) {
		o.Status = models.StatusCompleted
		o.SMSCode = smsCode
	})
}

func (m *memStore) CancelOrder(_ context.Context, orderID string) (models.Order, error) {
	return m.update(orderID, models.StatusPending, func(o *models.Order) {
		o.Status = models.StatusCancelled
	})
}

func (m *memStore) DismissOrder(_ context.Context, orderID string) (models.Order, error) {
	return m.update(orderID, models.StatusCompleted, func(o *models.Order) {
		o.Dismissed = true
	})
}

func (m *memStore) CreateEmployee(_ context.Context, employee models.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if e.Username == employee.Username {
			return models.ErrDuplicateUsername
		}
	}
	m.employees[employee.ID] = employee
	return nil
}

func (m *memStore) GetEmployee(_ context.Context, id string) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	employee, ok := m.employees[id]
	if !ok {
		return models.Employee{}, models.ErrNotFound
	}
	return employee, nil
}

func (m *memStore) GetEmployeeByUsername(_ context.Context, username string) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if e.Username == username {
			return e, nil
		}
	}
	return models.Employee{}, models.ErrNotFound
}

func (m *memStore) ListEmployees(_ context.Context) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errDatabase
	}
	result := make([]models.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, e)
	}
	slices.SortFunc(result, func(a, b models.Employee) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return result, nil
}

func (m *memStore) UpdateEmployeeStatus(
	_ context.Context,
	id string,
	status models.EmployeeStatus,
) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	employee, ok := m.employees[id]
	if !ok {
		return models.Employee{}, models.ErrNotFound
	}
	employee.Status = status
	m.employees[id] = employee
	return employee, nil
}

func (m *memStore) DeleteEmployee(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return 0, models.ErrNotFound
	}
	var removed int64
	for orderID, order := range m.orders {
		if order.EmployeeID == id {
			delete(m.orders, orderID)
			removed++
		}
	}
	delete(m.employees, id)
	return removed, nil
}

func (m *memStore) GetAdminByUsername(_ context.Context, username string) (models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin, ok := m.admins[username]
	if !ok {
		return models.Admin{}, models.ErrNotFound
	}
	return admin, nil
}

func (m *memStore) CountAdmins(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.admins), nil
}

func (m *memStore) CreateAdmin(_ context.Context, username, passwordHash string) (models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[username]; ok {
		return models.Admin{}, models.ErrDuplicateUsername
	}
	admin := models.Admin{ID: len(m.admins) + 1, Username: username, Password: passwordHash}
	m.admins[username] = admin
	return admin, nil
}

// mockProvider answers with preconfigured results and records calls.
type mockProvider struct {
	mu sync.Mutex

	number     provider.Number
	acquireErr error
	poll       provider.PollResult
	pollErr    error
	cancelErr  error

	acquired  int
	polled    []string
	cancelled []string
}

func (p *mockProvider) Acquire(context.Context) (provider.Number, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired++
	if p.acquireErr != nil {
		return provider.Number{}, p.acquireErr
	}
	return p.number, nil
}

func (p *mockProvider) Poll(_ context.Context, orderID string) (provider.PollResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polled = append(p.polled, orderID)
	return p.poll, p.pollErr
}

func (p *mockProvider) Cancel(_ context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, orderID)
	return p.cancelErr
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
