package api_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/UnknownOlympus/numera/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() models.Order {
	return models.Order{
		OrderID:     "12345",
		PhoneNumber: "9199999999",
		EmployeeID:  "emp-1",
		Status:      models.StatusPending,
		Date:        "2025-03-15",
		Time:        "10:00:00",
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

func TestRequestNumber(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.requestNumber = func(employeeID, employeeName string) (models.Order, error) {
			assert.Equal(t, "emp-1", employeeID)
			assert.Equal(t, "Olena", employeeName)
			return testOrder(), nil
		}

		rec := f.do(http.MethodPost, "/api/orders/request", `{"employeeId":"emp-1","employeeName":"Olena"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)
		assert.Contains(t, rec.Body.String(), `"message":"Number received successfully"`)
		assert.Contains(t, rec.Body.String(), `"orderId":"12345"`)
		assert.NotContains(t, rec.Body.String(), `"smsCode"`)
	})

	t.Run("no numbers", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.requestNumber = func(string, string) (models.Order, error) {
			return models.Order{}, models.ErrNoNumbers
		}

		rec := f.do(http.MethodPost, "/api/orders/request", `{"employeeId":"emp-1"}`)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t,
			`{"success":false,"message":"No numbers currently available. Please try again later."}`,
			rec.Body.String())
	})

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.requestNumber = func(string, string) (models.Order, error) {
			return models.Order{}, &provider.Error{Action: "getNumber", Raw: "NO_BALANCE"}
		}

		rec := f.do(http.MethodPost, "/api/orders/request", `{"employeeId":"emp-1"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"API Error: NO_BALANCE"}`, rec.Body.String())
	})

	t.Run("missing employee id", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/api/orders/request", `{}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unexpected error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.requestNumber = func(string, string) (models.Order, error) {
			return models.Order{}, errors.New("connection reset")
		}

		rec := f.do(http.MethodPost, "/api/orders/request", `{"employeeId":"emp-1"}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t,
			`{"success":false,"message":"Error requesting number","error":"connection reset"}`,
			rec.Body.String())
	})
}

func TestCheckSMS(t *testing.T) {
	t.Parallel()

	t.Run("received", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.checkStatus = func(orderID string) (service.CheckResult, error) {
			order := testOrder()
			order.Status = models.StatusCompleted
			order.SMSCode = "4821"
			return service.CheckResult{Order: order, SMSReceived: true}, nil
		}

		rec := f.do(http.MethodGet, "/api/orders/check-sms/12345", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"smsCode":"4821"`)
		assert.Contains(t, rec.Body.String(), `"message":"SMS received"`)
		assert.Contains(t, rec.Body.String(), `"newlyReceived":true`)
	})

	t.Run("already completed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.checkStatus = func(string) (service.CheckResult, error) {
			order := testOrder()
			order.Status = models.StatusCompleted
			order.SMSCode = "4821"
			return service.CheckResult{Order: order}, nil
		}

		rec := f.do(http.MethodGet, "/api/orders/check-sms/12345", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"smsCode":"4821"`)
		assert.Contains(t, rec.Body.String(), `"newlyReceived":false`)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.checkStatus = func(string) (service.CheckResult, error) {
			order := testOrder()
			order.Status = models.StatusCancelled
			return service.CheckResult{Order: order, ProviderStatus: "STATUS_CANCEL"}, nil
		}

		rec := f.do(http.MethodGet, "/api/orders/check-sms/12345", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"message":"Order was cancelled or timed out"`)
	})

	t.Run("waiting", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.checkStatus = func(string) (service.CheckResult, error) {
			return service.CheckResult{Order: testOrder(), ProviderStatus: "STATUS_WAIT_CODE"}, nil
		}

		rec := f.do(http.MethodGet, "/api/orders/check-sms/12345", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"success":true,"message":"SMS not yet received","status":"STATUS_WAIT_CODE"}`,
			rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.checkStatus = func(string) (service.CheckResult, error) {
			return service.CheckResult{}, models.ErrNotFound
		}

		rec := f.do(http.MethodGet, "/api/orders/check-sms/nope", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Order not found"}`, rec.Body.String())
	})
}

func TestCancelAndDismiss(t *testing.T) {
	t.Parallel()

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.cancel = func(orderID string) (models.Order, error) {
			order := testOrder()
			order.Status = models.StatusCancelled
			return order, nil
		}

		rec := f.do(http.MethodPost, "/api/orders/cancel/12345", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"message":"Number cancelled successfully"`)
	})

	t.Run("provider refuses", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.cancel = func(string) (models.Order, error) {
			return models.Order{}, &provider.Error{Action: "setStatus", Raw: "EARLY_CANCEL_DENIED"}
		}

		rec := f.do(http.MethodPost, "/api/orders/cancel/12345", "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Failed to cancel: EARLY_CANCEL_DENIED"}`, rec.Body.String())
	})

	t.Run("dismiss forbidden", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.dismiss = func(orderID, employeeID string) (models.Order, error) {
			assert.Equal(t, "emp-2", employeeID)
			return models.Order{}, models.ErrForbidden
		}

		rec := f.do(http.MethodPost, "/api/orders/dismiss/12345", `{"employeeId":"emp-2"}`)

		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("dismiss pending", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.dismiss = func(string, string) (models.Order, error) {
			return models.Order{}, models.ErrInvalidTransition
		}

		rec := f.do(http.MethodPost, "/api/orders/dismiss/12345", `{"employeeId":"emp-1"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	t.Run("filter from query", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.list = func(filter models.OrderFilter) ([]models.Order, error) {
			assert.Equal(t, models.OrderFilter{
				EmployeeID: "emp-1", Status: models.StatusCompleted, Date: "2025-03-15",
			}, filter)
			return nil, nil
		}

		rec := f.do(http.MethodGet, "/api/orders?employeeId=emp-1&status=completed&date=2025-03-15", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"orders":[]}`, rec.Body.String())
	})

	t.Run("active", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.active = func(employeeID string) ([]models.Order, error) {
			assert.Equal(t, "emp-1", employeeID)
			return []models.Order{testOrder()}, nil
		}

		rec := f.do(http.MethodGet, "/api/orders/active/emp-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"activeOrders":[{`)
	})

	t.Run("by employee", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.orders.listByEmployee = func(string) ([]models.Order, error) {
			return []models.Order{testOrder()}, nil
		}

		rec := f.do(http.MethodGet, "/api/orders/employee/emp-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"orders":[{`)
	})
}
