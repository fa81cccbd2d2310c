package models

import "time"

// OrderStatus is the lifecycle state of a rented number.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether an order in status s may move to next.
// Only pending orders change status, and never back to pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	default:
		return false
	}
}

// Order represents a phone number rented from the upstream provider
// on behalf of an employee.
type Order struct {
	OrderID      string      `json:"orderId"`           // Provider-assigned order identifier
	PhoneNumber  string      `json:"phoneNumber"`       // Provider-assigned phone number
	EmployeeID   string      `json:"employeeId"`        // Owner of the order
	EmployeeName string      `json:"employeeName"`      // Owner name at the moment of creation
	Status       OrderStatus `json:"status"`            // pending, completed or cancelled
	SMSCode      string      `json:"smsCode,omitempty"` // Received code, set only for completed orders
	Dismissed    bool        `json:"dismissed"`         // Hidden from the active view by the owner
	Date         string      `json:"date"`              // Creation date, YYYY-MM-DD
	Time         string      `json:"time"`              // Creation time, HH:MM:SS
	Service      string      `json:"service"`
	Operator     string      `json:"operator"`
	Country      string      `json:"country"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// IsActive reports whether the order still belongs on the employee's working list:
// either waiting for an SMS or completed and not yet dismissed.
func (o Order) IsActive() bool {
	return o.Status == StatusPending || (o.Status == StatusCompleted && !o.Dismissed)
}

// OrderFilter narrows an order listing. Empty fields are ignored.
type OrderFilter struct {
	EmployeeID string      `query:"employeeId"`
	Status     OrderStatus `query:"status"`
	Date       string      `query:"date"`
}
