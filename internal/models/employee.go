package models

import "time"

// EmployeeStatus defines whether an employee may log in and rent numbers.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// Valid reports whether s is a known employee status.
func (s EmployeeStatus) Valid() bool {
	return s == EmployeeActive || s == EmployeeInactive
}

// Employee represents a team member who rents numbers.
// The password field holds a bcrypt hash and is never serialized.
type Employee struct {
	ID        string         `json:"id"`       // Unique identifier (UUID)
	Name      string         `json:"name"`     // Display name
	Username  string         `json:"username"` // Login, stored lower-case
	Email     string         `json:"email"`    // Contact email, stored lower-case
	Password  string         `json:"-"`        // bcrypt hash
	Status    EmployeeStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Admin is the single privileged account that manages employees and reads statistics.
type Admin struct {
	ID        int       `json:"-"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}
