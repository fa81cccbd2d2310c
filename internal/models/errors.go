package models

import "errors"

var (
	// ErrNotFound is returned when an order, employee or admin does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoNumbers is returned when the provider has no numbers in stock.
	ErrNoNumbers = errors.New("no numbers currently available")
	// ErrInvalidTransition is returned when an operation is not allowed in the order's current status.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrForbidden is returned when an employee acts on an order they do not own.
	ErrForbidden = errors.New("order belongs to another employee")
	// ErrDuplicateUsername is returned when an employee username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactiveEmployee is returned when an inactive employee tries to log in or rent a number.
	ErrInactiveEmployee = errors.New("employee account is inactive")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
)
