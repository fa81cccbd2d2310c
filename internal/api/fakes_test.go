package api_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UnknownOlympus/numera/internal/api"
	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type fakeOrders struct {
	requestNumber  func(employeeID, employeeName string) (models.Order, error)
	checkStatus    func(orderID string) (service.CheckResult, error)
	cancel         func(orderID string) (models.Order, error)
	dismiss        func(orderID, employeeID string) (models.Order, error)
	list           func(filter models.OrderFilter) ([]models.Order, error)
	listByEmployee func(employeeID string) ([]models.Order, error)
	active         func(employeeID string) ([]models.Order, error)
}

func (f *fakeOrders) RequestNumber(_ context.Context, employeeID, employeeName string) (models.Order, error) {
	return f.requestNumber(employeeID, employeeName)
}

func (f *fakeOrders) CheckStatus(_ context.Context, orderID string) (service.CheckResult, error) {
	return f.checkStatus(orderID)
}

func (f *fakeOrders) Cancel(_ context.Context, orderID string) (models.Order, error) {
	return f.cancel(orderID)
}

func (f *fakeOrders) Dismiss(_ context.Context, orderID, employeeID string) (models.Order, error) {
	return f.dismiss(orderID, employeeID)
}

func (f *fakeOrders) List(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	return f.list(filter)
}

func (f *fakeOrders) ListByEmployee(_ context.Context, employeeID string) ([]models.Order, error) {
	return f.listByEmployee(employeeID)
}

func (f *fakeOrders) Active(_ context.Context, employeeID string) ([]models.Order, error) {
	return f.active(employeeID)
}

type fakeEmployees struct {
	create    func(input service.NewEmployee) (models.Employee, error)
	list      func() ([]models.Employee, error)
	setStatus func(id string, status models.EmployeeStatus) (models.Employee, error)
	remove    func(id string) error
}

func (f *fakeEmployees) Create(_ context.Context, input service.NewEmployee) (models.Employee, error) {
	return f.create(input)
}

func (f *fakeEmployees) List(context.Context) ([]models.Employee, error) {
	return f.list()
}

func (f *fakeEmployees) SetStatus(_ context.Context, id string, status models.EmployeeStatus) (models.Employee, error) {
	return f.setStatus(id, status)
}

func (f *fakeEmployees) Delete(_ context.Context, id string) error {
	return f.remove(id)
}

type fakeAuth struct {
	employeeLogin func(username, password string) (models.Employee, error)
	adminLogin    func(username, password string) (models.Admin, error)
	ensured       []string
}

func (f *fakeAuth) EmployeeLogin(_ context.Context, username, password string) (models.Employee, error) {
	return f.employeeLogin(username, password)
}

func (f *fakeAuth) AdminLogin(_ context.Context, username, password string) (models.Admin, error) {
	return f.adminLogin(username, password)
}

func (f *fakeAuth) EnsureDefaultAdmin(_ context.Context, username, _ string) error {
	f.ensured = append(f.ensured, username)
	return nil
}

type fakeStats struct {
	dashboard     func() (models.Dashboard, error)
	employeeStats func(period models.Period) ([]models.EmployeeStats, error)
	topPerformers func() ([]models.Performer, error)
}

func (f *fakeStats) Dashboard(context.Context) (models.Dashboard, error) {
	return f.dashboard()
}

func (f *fakeStats) EmployeeStats(_ context.Context, period models.Period) ([]models.EmployeeStats, error) {
	return f.employeeStats(period)
}

func (f *fakeStats) TopPerformers(context.Context) ([]models.Performer, error) {
	return f.topPerformers()
}

type fakeHealth struct {
	status  map[string]string
	healthy bool
}

func (f *fakeHealth) Check(context.Context) (map[string]string, bool) {
	return f.status, f.healthy
}

type fixture struct {
	server    *api.Server
	orders    *fakeOrders
	employees *fakeEmployees
	auth      *fakeAuth
	stats     *fakeStats
	health    *fakeHealth
	clock     *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:    &fakeOrders{},
		employees: &fakeEmployees{},
		auth:      &fakeAuth{},
		stats:     &fakeStats{},
		health:    &fakeHealth{status: map[string]string{"database": "ok"}, healthy: true},
		clock:     clockwork.NewFakeClockAt(testNow),
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.server = api.NewServer(log, metrics.NewMetrics(prometheus.NewRegistry()), api.Deps{
		Orders:       f.orders,
		Employees:    f.employees,
		Auth:         f.auth,
		Stats:        f.stats,
		Health:       f.health,
		Clock:        f.clock,
		Env:          "test",
		DefaultAdmin: api.Credentials{Username: "admin", Password: "admin123"},
	})

	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

