// Package stats computes order statistics for the admin views.
//
// All functions are pure: the caller passes the employees, the orders and
// the current time already converted to the canonical application timezone.
// Order dates are compared as YYYY-MM-DD strings in that same timezone.
package stats

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/UnknownOlympus/numera/internal/models"
)

const (
	// TopPerformersLimit is the size of every performer ranking.
	TopPerformersLimit = 5
	// RecentOrdersLimit is the number of orders in the dashboard activity feed.
	RecentOrdersLimit = 5
)

// SuccessRate returns completed/total as a rounded percentage, or 0 when there are no orders.
func SuccessRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100)) //nolint:mnd // percent
}

// InPeriod reports whether an order created on date (YYYY-MM-DD) falls into the period relative to now.
func InPeriod(period models.Period, date string, now time.Time) bool {
	switch period {
	case models.PeriodToday:
		return date == now.Format(time.DateOnly)
	case models.PeriodMonth:
		return len(date) >= len("2006-01") && date[:len("2006-01")] == now.Format("2006-01")
	case models.PeriodAll:
		return true
	default:
		return false
	}
}

// FilterOrders returns the orders that fall into the period.
func FilterOrders(orders []models.Order, period models.Period, now time.Time) []models.Order {
	filtered := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if InPeriod(period, order.Date, now) {
			filtered = append(filtered, order)
		}
	}
	return filtered
}

// Summarize counts orders by status.
func Summarize(orders []models.Order) models.PeriodSummary {
	var summary models.PeriodSummary
	for _, order := range orders {
		summary.Orders++
		switch order.Status {
		case models.StatusCompleted:
			summary.Completed++
		case models.StatusPending:
			summary.Pending++
		case models.StatusCancelled:
			summary.Cancelled++
		}
	}
	return summary
}

// EmployeeTable builds per-employee counters for the period, sorted by total orders descending.
// Ties keep the order of the employees slice.
func EmployeeTable(
	employees []models.Employee,
	orders []models.Order,
	period models.Period,
	now time.Time,
) []models.EmployeeStats {
	byEmployee := groupByEmployee(orders)

	table := make([]models.EmployeeStats, 0, len(employees))
	for _, employee := range employees {
		all := byEmployee[employee.ID]
		summary := Summarize(FilterOrders(all, period, now))

		table = append(table, models.EmployeeStats{
			ID:           employee.ID,
			Name:         employee.Name,
			Username:     employee.Username,
			TotalOrders:  summary.Orders,
			Completed:    summary.Completed,
			Pending:      summary.Pending,
			Cancelled:    summary.Cancelled,
			SuccessRate:  SuccessRate(summary.Completed, summary.Orders),
			LastActivity: lastActivity(all),
		})
	}

	slices.SortStableFunc(table, func(a, b models.EmployeeStats) int {
		return cmp.Compare(b.TotalOrders, a.TotalOrders)
	})

	return table
}

// TopPerformers ranks employees by today's order count. Employees without orders today are left out.
func TopPerformers(employees []models.Employee, orders []models.Order, now time.Time) []models.Performer {
	performers := performance(employees, FilterOrders(orders, models.PeriodToday, now))
	performers = slices.DeleteFunc(performers, func(p models.Performer) bool {
		return p.TotalOrders == 0
	})

	slices.SortStableFunc(performers, func(a, b models.Performer) int {
		return cmp.Compare(b.TotalOrders, a.TotalOrders)
	})

	return limit(performers, TopPerformersLimit)
}

// BuildDashboard assembles the admin dashboard.
func BuildDashboard(employees []models.Employee, orders []models.Order, now time.Time) models.Dashboard {
	allTime := Summarize(orders)

	activeEmployees := 0
	for _, employee := range employees {
		if employee.Status == models.EmployeeActive {
			activeEmployees++
		}
	}

	// all-time ranking by completed orders
	performers := performance(employees, orders)
	slices.SortStableFunc(performers, func(a, b models.Performer) int {
		return cmp.Compare(b.Completed, a.Completed)
	})

	recent := slices.Clone(orders)
	slices.SortStableFunc(recent, func(a, b models.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return models.Dashboard{
		TotalEmployees:  len(employees),
		ActiveEmployees: activeEmployees,
		TotalOrders:     allTime.Orders,
		CompletedOrders: allTime.Completed,
		Today:           Summarize(FilterOrders(orders, models.PeriodToday, now)),
		Monthly:         Summarize(FilterOrders(orders, models.PeriodMonth, now)),
		AllTime: models.AllTimeSummary{
			Orders:          allTime.Orders,
			Completed:       allTime.Completed,
			Employees:       len(employees),
			ActiveEmployees: activeEmployees,
			SuccessRate:     SuccessRate(allTime.Completed, allTime.Orders),
		},
		TopPerformers: limit(performers, TopPerformersLimit),
		RecentOrders:  limit(recent, RecentOrdersLimit),
	}
}

func performance(employees []models.Employee, orders []models.Order) []models.Performer {
	byEmployee := groupByEmployee(orders)

	performers := make([]models.Performer, 0, len(employees))
	for _, employee := range employees {
		summary := Summarize(byEmployee[employee.ID])
		performers = append(performers, models.Performer{
			ID:          employee.ID,
			Name:        employee.Name,
			TotalOrders: summary.Orders,
			Completed:   summary.Completed,
			SuccessRate: SuccessRate(summary.Completed, summary.Orders),
		})
	}
	return performers
}

func groupByEmployee(orders []models.Order) map[string][]models.Order {
	grouped := make(map[string][]models.Order)
	for _, order := range orders {
		grouped[order.EmployeeID] = append(grouped[order.EmployeeID], order)
	}
	return grouped
}

// lastActivity returns the date of the latest order by date and time, or nil.
func lastActivity(orders []models.Order) *string {
	if len(orders) == 0 {
		return nil
	}

	latest := orders[0]
	for _, order := range orders[1:] {
		if order.Date+" "+order.Time > latest.Date+" "+latest.Time {
			latest = order
		}
	}

	date := latest.Date
	return &date
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
