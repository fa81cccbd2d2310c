package models

import "fmt"

// Period selects which orders an aggregate covers.
type Period string

const (
	PeriodToday Period = "today"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod converts a query value into a Period. An empty value means all time.
func ParsePeriod(value string) (Period, error) {
	switch Period(value) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodToday, PeriodMonth:
		return Period(value), nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", ErrValidation, value)
	}
}

// EmployeeStats holds per-employee order counters for a period.
// LastActivity is computed over all orders regardless of the period and is nil when there are none.
type EmployeeStats struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	TotalOrders  int     `json:"totalOrders"`
	Completed    int     `json:"completed"`
	Pending      int     `json:"pending"`
	Cancelled    int     `json:"cancelled"`
	SuccessRate  int     `json:"successRate"`
	LastActivity *string `json:"lastActivity"`
}

// PeriodSummary counts orders by status within a period.
type PeriodSummary struct {
	Orders    int `json:"orders"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
}

// AllTimeSummary is the lifetime block of the admin dashboard.
type AllTimeSummary struct {
	Orders          int `json:"orders"`
	Completed       int `json:"completed"`
	Employees       int `json:"employees"`
	ActiveEmployees int `json:"activeEmployees"`
	SuccessRate     int `json:"successRate"`
}

// Performer is a ranking entry.
type Performer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalOrders int    `json:"totalOrders"`
	Completed   int    `json:"completed"`
	SuccessRate int    `json:"successRate"`
}

// Dashboard is the aggregate view served to the admin.
type Dashboard struct {
	TotalEmployees  int            `json:"totalEmployees"`
	ActiveEmployees int            `json:"activeEmployees"`
	TotalOrders     int            `json:"totalOrders"`
	CompletedOrders int            `json:"completedOrders"`
	Today           PeriodSummary  `json:"today"`
	Monthly         PeriodSummary  `json:"monthly"`
	AllTime         AllTimeSummary `json:"allTime"`
	TopPerformers   []Performer    `json:"topPerformers"`
	RecentOrders    []Order        `json:"recentOrders"`
}
