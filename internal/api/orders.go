package api

import (
	"errors"
	"net/http"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/labstack/echo/v4"
)

type requestNumberRequest struct {
	EmployeeID   string `json:"employeeId"   validate:"required"`
	EmployeeName string `json:"employeeName"`
}

type dismissRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
}

func (s *Server) listOrders(c echo.Context) error {
	var filter models.OrderFilter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid query parameters")
	}

	orders, err := s.deps.Orders.List(c.Request().Context(), filter)
	if err != nil {
		return s.fail(c, err, "Order", "Error fetching orders")
	}
	return success(c, http.StatusOK, echo.Map{"orders": nonNil(orders)})
}

func (s *Server) employeeOrders(c echo.Context) error {
	orders, err := s.deps.Orders.ListByEmployee(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err, "Order", "Error fetching employee orders")
	}
	return success(c, http.StatusOK, echo.Map{"orders": nonNil(orders)})
}

func (s *Server) activeOrders(c echo.Context) error {
	orders, err := s.deps.Orders.Active(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err, "Order", "Error fetching active orders")
	}
	return success(c, http.StatusOK, echo.Map{"activeOrders": nonNil(orders)})
}

func (s *Server) requestNumber(c echo.Context) error {
	var req requestNumberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.fail(c, err, "", "Error requesting number")
	}

	order, err := s.deps.Orders.RequestNumber(c.Request().Context(), req.EmployeeID, req.EmployeeName)
	if err != nil {
		return s.fail(c, err, "Employee", "Error requesting number")
	}

	return success(c, http.StatusCreated, echo.Map{
		"message": "Number received successfully",
		"order":   order,
	})
}

func (s *Server) checkSMS(c echo.Context) error {
	result, err := s.deps.Orders.CheckStatus(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return s.fail(c, err, "Order", "Error checking SMS")
	}

	switch {
	case result.Order.Status == models.StatusCompleted:
		return success(c, http.StatusOK, echo.Map{
			"message":       "SMS received",
			"smsCode":       result.Order.SMSCode,
			"newlyReceived": result.SMSReceived,
			"order":         result.Order,
		})
	case result.Order.Status == models.StatusCancelled:
		return success(c, http.StatusOK, echo.Map{
			"message": "Order was cancelled or timed out",
			"order":   result.Order,
		})
	default:
		return success(c, http.StatusOK, echo.Map{
			"message": "SMS not yet received",
			"status":  result.ProviderStatus,
		})
	}
}

func (s *Server) cancelOrder(c echo.Context) error {
	order, err := s.deps.Orders.Cancel(c.Request().Context(), c.Param("orderId"))

	var providerErr *provider.Error
	if errors.As(err, &providerErr) {
		return failure(c, http.StatusBadRequest, "Failed to cancel: "+providerErr.Raw)
	}
	if err != nil {
		return s.fail(c, err, "Order", "Error cancelling order")
	}

	return success(c, http.StatusOK, echo.Map{
		"message": "Number cancelled successfully",
		"order":   order,
	})
}

func (s *Server) dismissOrder(c echo.Context) error {
	var req dismissRequest
	if err := bindAndValidate(c, &req); err != nil {
		return s.fail(c, err, "", "Error dismissing order")
	}

	order, err := s.deps.Orders.Dismiss(c.Request().Context(), c.Param("orderId"), req.EmployeeID)
	if err != nil {
		return s.fail(c, err, "Order", "Error dismissing order")
	}

	return success(c, http.StatusOK, echo.Map{
		"message": "Order dismissed",
		"order":   order,
	})
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
