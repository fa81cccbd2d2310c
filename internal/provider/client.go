// Package provider talks to the upstream number provisioning API.
//
// The provider speaks a plain-text protocol over HTTP GET: every request
// carries the api key and an action, and every response is a single line
// such as ACCESS_NUMBER:<id>:<phone>, STATUS_OK:<code> or NO_NUMBERS.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
)

const (
	actionGetNumber = "getNumber"
	actionGetStatus = "getStatus"
	actionSetStatus = "setStatus"

	// statusCancel is the setStatus code which releases a number.
	statusCancel = "8"

	respAccessNumber        = "ACCESS_NUMBER"
	respNoNumbers           = "NO_NUMBERS"
	respStatusOK            = "STATUS_OK"
	respStatusCancel        = "STATUS_CANCEL"
	respAccessCancel        = "ACCESS_CANCEL"
	respAccessCancelAlready = "ACCESS_CANCEL_ALREADY"

	maxBodySize = 4096
)

// Config holds the fixed parameters shared by all requests.
type Config struct {
	BaseURL  string
	APIKey   string
	Service  string
	Operator string
	Country  string
	MaxPrice int
	Timeout  time.Duration
}

// Client is a provider API client.
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        *slog.Logger
	metrics    *metrics.Metrics
}

// Number is a freshly rented phone number.
type Number struct {
	OrderID string
	Phone   string
}

// PollState is the outcome of a status poll.
type PollState int

const (
	// PollWaiting means no SMS yet. The raw provider status is kept in PollResult.Raw.
	PollWaiting PollState = iota
	// PollSMSReady means the code arrived.
	PollSMSReady
	// PollCancelled means the provider cancelled the order or it timed out.
	PollCancelled
)

func (s PollState) String() string {
	switch s {
	case PollWaiting:
		return "waiting"
	case PollSMSReady:
		return "sms_ready"
	case PollCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PollResult is the parsed getStatus response.
type PollResult struct {
	State PollState
	Code  string
	Raw   string
}

// Error is an application-level provider failure. Raw holds the provider's response text.
type Error struct {
	Action string
	Raw    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s failed: %s", e.Action, e.Raw)
}

// TransportError wraps network failures, timeouts and non-2xx HTTP statuses.
type TransportError struct {
	Action string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %s request failed: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewClient creates a provider client. A zero Timeout falls back to 15 seconds.
func NewClient(log *slog.Logger, metrics *metrics.Metrics, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		log:        log.With(slog.String("component", "provider")),
		metrics:    metrics,
	}
}

// Acquire rents a new number. It returns models.ErrNoNumbers when the provider is out of stock.
func (c *Client) Acquire(ctx context.Context) (Number, error) {
	params := url.Values{}
	params.Set("operator", c.cfg.Operator)
	params.Set("service", c.cfg.Service)
	params.Set("country", c.cfg.Country)
	params.Set("maxPrice", strconv.Itoa(c.cfg.MaxPrice))

	body, err := c.call(ctx, actionGetNumber, params)
	if err != nil {
		return Number{}, err
	}

	switch {
	case body == respNoNumbers:
		c.observe(actionGetNumber, "no_numbers")
		return Number{}, models.ErrNoNumbers
	case strings.HasPrefix(body, respAccessNumber+":"):
		parts := strings.SplitN(body, ":", 3)
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			c.observe(actionGetNumber, "error")
			return Number{}, &Error{Action: actionGetNumber, Raw: body}
		}
		c.observe(actionGetNumber, "ok")
		return Number{OrderID: parts[1], Phone: parts[2]}, nil
	default:
		c.observe(actionGetNumber, "error")
		return Number{}, &Error{Action: actionGetNumber, Raw: body}
	}
}

// Poll asks the provider whether an SMS arrived for the order.
func (c *Client) Poll(ctx context.Context, orderID string) (PollResult, error) {
	params := url.Values{}
	params.Set("id", orderID)

	body, err := c.call(ctx, actionGetStatus, params)
	if err != nil {
		return PollResult{}, err
	}

	switch {
	case strings.HasPrefix(body, respStatusOK+":"):
		c.observe(actionGetStatus, "sms_ready")
		return PollResult{State: PollSMSReady, Code: strings.TrimPrefix(body, respStatusOK+":"), Raw: body}, nil
	case body == respStatusCancel:
		c.observe(actionGetStatus, "cancelled")
		return PollResult{State: PollCancelled, Raw: body}, nil
	default:
		c.observe(actionGetStatus, "waiting")
		return PollResult{State: PollWaiting, Raw: body}, nil
	}
}

// Cancel releases the number. An order the provider already cancelled counts as success.
func (c *Client) Cancel(ctx context.Context, orderID string) error {
	params := url.Values{}
	params.Set("status", statusCancel)
	params.Set("id", orderID)

	body, err := c.call(ctx, actionSetStatus, params)
	if err != nil {
		return err
	}

	if body == respAccessCancel || body == respAccessCancelAlready {
		c.observe(actionSetStatus, "ok")
		return nil
	}

	c.observe(actionSetStatus, "error")
	return &Error{Action: actionSetStatus, Raw: body}
}

// call performs a single GET and returns the trimmed response body.
func (c *Client) call(ctx context.Context, action string, params url.Values) (string, error) {
	startTime := time.Now()
	defer func() {
		c.metrics.ProviderDuration.WithLabelValues(action).Observe(time.Since(startTime).Seconds())
	}()

	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		c.observe(action, "transport_error")
		return "", &TransportError{Action: action, Err: fmt.Errorf("invalid base url: %w", err)}
	}

	query := endpoint.Query()
	query.Set("api_key", c.cfg.APIKey)
	query.Set("action", action)
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		c.observe(action, "transport_error")
		return "", &TransportError{Action: action, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(action, "transport_error")
		c.log.WarnContext(ctx, "Provider request failed", "action", action, "error", err)
		return "", &TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.observe(action, "transport_error")
		return "", &TransportError{Action: action, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.observe(action, "transport_error")
		return "", &TransportError{
			Action: action,
			Err:    fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	body := strings.TrimSpace(string(raw))
	c.log.DebugContext(ctx, "Provider responded", "action", action, "body", body)

	return body, nil
}

func (c *Client) observe(action, result string) {
	c.metrics.ProviderRequests.WithLabelValues(action, result).Inc()
}

// IsTransport reports whether err is a provider transport failure.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
