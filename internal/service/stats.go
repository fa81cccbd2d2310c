package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/numera/internal/cache"
	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/repository"
	"github.com/UnknownOlympus/numera/internal/stats"
	"github.com/jonboulle/clockwork"
)

// Stats serves the admin aggregates. Results are cached in redis when a cache is configured.
type Stats struct {
	log       *slog.Logger
	metrics   *metrics.Metrics
	orders    repository.OrderStore
	employees repository.EmployeeStore
	cache     *cache.StatsCache
	clock     clockwork.Clock
	location  *time.Location
}

// NewStats creates the statistics service. statsCache may be nil.
func NewStats(
	log *slog.Logger,
	metrics *metrics.Metrics,
	orders repository.OrderStore,
	employees repository.EmployeeStore,
	statsCache *cache.StatsCache,
	clock clockwork.Clock,
	location *time.Location,
) *Stats {
	return &Stats{
		log:       log.With(slog.String("component", "stats")),
		metrics:   metrics,
		orders:    orders,
		employees: employees,
		cache:     statsCache,
		clock:     clock,
		location:  location,
	}
}

// Dashboard returns the admin overview.
func (s *Stats) Dashboard(ctx context.Context) (models.Dashboard, error) {
	now := s.now()
	return cached(ctx, s, cache.Key("dashboard", now.Format(time.DateOnly)),
		func(ctx context.Context) (models.Dashboard, error) {
			employees, orders, err := s.snapshot(ctx)
			if err != nil {
				return models.Dashboard{}, err
			}
			return stats.BuildDashboard(employees, orders, now), nil
		})
}

// EmployeeStats returns per-employee counters for the period.
func (s *Stats) EmployeeStats(ctx context.Context, period models.Period) ([]models.EmployeeStats, error) {
	now := s.now()
	return cached(ctx, s, cache.Key("employees", string(period), now.Format(time.DateOnly)),
		func(ctx context.Context) ([]models.EmployeeStats, error) {
			employees, orders, err := s.snapshot(ctx)
			if err != nil {
				return nil, err
			}
			return stats.EmployeeTable(employees, orders, period, now), nil
		})
}

// TopPerformers returns today's ranking.
func (s *Stats) TopPerformers(ctx context.Context) ([]models.Performer, error) {
	now := s.now()
	return cached(ctx, s, cache.Key("top", now.Format(time.DateOnly)),
		func(ctx context.Context) ([]models.Performer, error) {
			employees, orders, err := s.snapshot(ctx)
			if err != nil {
				return nil, err
			}
			return stats.TopPerformers(employees, orders, now), nil
		})
}

func (s *Stats) now() time.Time {
	return s.clock.Now().In(s.location)
}

func (s *Stats) snapshot(ctx context.Context) ([]models.Employee, []models.Order, error) {
	startTime := time.Now()
	defer observeDB(s.metrics, "stats_snapshot", startTime)

	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list employees: %w", err)
	}

	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return employees, orders, nil
}

func cached[T any](ctx context.Context, s *Stats, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	return cache.GetOrLoad(ctx, s.cache, key, load)
}
