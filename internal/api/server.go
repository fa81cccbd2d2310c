// Package api exposes the order, employee, auth and statistics services over a JSON REST API.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type OrderService interface {
	RequestNumber(ctx context.Context, employeeID, employeeName string) (models.Order, error)
	CheckStatus(ctx context.Context, orderID string) (service.CheckResult, error)
	Cancel(ctx context.Context, orderID string) (models.Order, error)
	Dismiss(ctx context.Context, orderID, employeeID string) (models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]models.Order, error)
	Active(ctx context.Context, employeeID string) ([]models.Order, error)
}

type EmployeeService interface {
	Create(ctx context.Context, input service.NewEmployee) (models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
	SetStatus(ctx context.Context, id string, status models.EmployeeStatus) (models.Employee, error)
	Delete(ctx context.Context, id string) error
}

type AuthService interface {
	EmployeeLogin(ctx context.Context, username, password string) (models.Employee, error)
	AdminLogin(ctx context.Context, username, password string) (models.Admin, error)
	EnsureDefaultAdmin(ctx context.Context, username, password string) error
}

type StatsService interface {
	Dashboard(ctx context.Context) (models.Dashboard, error)
	EmployeeStats(ctx context.Context, period models.Period) ([]models.EmployeeStats, error)
	TopPerformers(ctx context.Context) ([]models.Performer, error)
}

// HealthReporter reports dependency availability.
type HealthReporter interface {
	Check(ctx context.Context) (map[string]string, bool)
}

// Deps are the collaborators of the API.
type Deps struct {
	Orders    OrderService
	Employees EmployeeService
	Auth      AuthService
	Stats     StatsService
	Health    HealthReporter
	Clock     clockwork.Clock
	Env       string
	// DefaultAdmin is provisioned on the first admin login when no admin exists.
	DefaultAdmin Credentials
}

type Credentials struct {
	Username string
	Password string
}

type Server struct {
	echo      *echo.Echo
	log       *slog.Logger
	metrics   *metrics.Metrics
	deps      Deps
	startedAt time.Time
}

// NewServer builds the echo instance with all routes registered.
func NewServer(log *slog.Logger, metrics *metrics.Metrics, deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator(validator.New())

	s := &Server{
		echo:      e,
		log:       log.With(slog.String("component", "api")),
		metrics:   metrics,
		deps:      deps,
		startedAt: deps.Clock.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.requestLogger())

	s.registerRoutes()

	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", s.health)

	auth := api.Group("/auth")
	auth.POST("/employee/login", s.employeeLogin)
	auth.POST("/admin/login", s.adminLogin)

	employees := api.Group("/employees")
	employees.GET("", s.listEmployees)
	employees.POST("", s.createEmployee)
	employees.PATCH("/:id/status", s.updateEmployeeStatus)
	employees.DELETE("/:id", s.deleteEmployee)

	orders := api.Group("/orders")
	orders.GET("", s.listOrders)
	orders.GET("/employee/:id", s.employeeOrders)
	orders.GET("/active/:id", s.activeOrders)
	orders.POST("/request", s.requestNumber)
	orders.GET("/check-sms/:orderId", s.checkSMS)
	orders.POST("/cancel/:orderId", s.cancelOrder)
	orders.POST("/dismiss/:orderId", s.dismissOrder)

	admin := api.Group("/admin")
	admin.GET("/stats", s.dashboard)
	admin.GET("/employee-stats", s.employeeStats)
	admin.GET("/employee-stats/export", s.exportEmployeeStats)
	admin.GET("/top-performers", s.topPerformers)
}
