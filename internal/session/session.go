// Package session runs the per-employee client engine: it tracks the employee's orders,
// polls pending ones for SMS, expires them after their lifetime and drives auto-buy.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/service"
	"github.com/jonboulle/clockwork"
)

const (
	// OrderLifetime is how long an order stays on the working list.
	OrderLifetime = 20 * time.Minute
	// SMSPollInterval is the pause between two polls of pending orders.
	SMSPollInterval = 5 * time.Second
	// AutoDismissDelay and AutoCancelDelay delay the action taken when a countdown runs out.
	AutoDismissDelay = 1 * time.Second
	AutoCancelDelay  = 2 * time.Second
	// TickInterval is the resolution of the engine loop.
	TickInterval = time.Second
)

var (
	// ErrBusy is returned when an action on the same order is still running.
	ErrBusy = errors.New("another action on this order is in progress")
	// ErrClosed is returned after the session was closed.
	ErrClosed = errors.New("session is closed")
)

// Backend performs the order operations. *service.Orders implements it.
type Backend interface {
	RequestNumber(ctx context.Context, employeeID, employeeName string) (models.Order, error)
	CheckStatus(ctx context.Context, orderID string) (service.CheckResult, error)
	Cancel(ctx context.Context, orderID string) (models.Order, error)
	Dismiss(ctx context.Context, orderID, employeeID string) (models.Order, error)
	Active(ctx context.Context, employeeID string) ([]models.Order, error)
}

// Notifier receives session events. It is called without the session lock held.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type EventKind int

const (
	EventAcquired EventKind = iota
	EventSMSReceived
	EventProviderCancelled
	EventExpired
	EventAutoDismissed
	EventAutoCancelled
	EventAutoBuyStopped
)

// Event describes something that happened without a direct user action.
type Event struct {
	Kind    EventKind
	Order   models.Order
	AutoBuy AutoBuyStatus // set for EventAcquired and EventAutoBuyStopped
	Err     error
}

// Employee identifies the session owner.
type Employee struct {
	ID   string
	Name string
}

// OrderView is a tracked order with its countdown.
type OrderView struct {
	Order     models.Order
	Remaining time.Duration
	Urgency   Urgency
}

type expiryAction int

const (
	actionNone expiryAction = iota
	actionDismiss
	actionCancel
)

type countdown struct {
	deadline time.Time
	expired  bool
	action   expiryAction
	actionAt time.Time
}

type Session struct {
	log      *slog.Logger
	metrics  *metrics.Metrics
	backend  Backend
	notifier Notifier
	clock    clockwork.Clock
	employee Employee

	mu         sync.Mutex
	orders     map[string]models.Order
	countdowns map[string]*countdown
	inFlight   map[string]struct{}
	polling    bool
	nextPoll   time.Time
	autoBuy    *AutoBuyer
	closed     bool
	stop       chan struct{}
}

func New(
	log *slog.Logger,
	metrics *metrics.Metrics,
	backend Backend,
	notifier Notifier,
	clock clockwork.Clock,
	employee Employee,
) *Session {
	return &Session{
		log:        log.With(slog.String("component", "session"), slog.String("employee", employee.ID)),
		metrics:    metrics,
		backend:    backend,
		notifier:   notifier,
		clock:      clock,
		employee:   employee,
		orders:     make(map[string]models.Order),
		countdowns: make(map[string]*countdown),
		inFlight:   make(map[string]struct{}),
		autoBuy:    NewAutoBuyer(AutoBuyMaxAttempts, AutoBuyInterval),
		stop:       make(chan struct{}),
	}
}

func (s *Session) Employee() Employee {
	return s.employee
}

// Load tracks the employee's active orders stored on the server.
func (s *Session) Load(ctx context.Context) error {
	orders, err := s.backend.Active(ctx, s.employee.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, order := range orders {
		s.trackLocked(order)
	}
	return nil
}

// Run drives Tick every second until ctx is done or the session is closed.
func (s *Session) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.Chan():
			s.Tick(ctx)
		}
	}
}

// Tick advances auto-buy, SMS polling and countdowns to the current clock time.
func (s *Session) Tick(ctx context.Context) {
	s.autoBuyStep(ctx)
	s.pollStep(ctx)
	s.countdownStep(ctx)
}

// Close stops the loop and drops all countdowns and the auto-buy run.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.autoBuy.Disable()
	clear(s.countdowns)
	clear(s.orders)
	s.polling = false
	close(s.stop)
}

// Orders returns the tracked orders, newest first.
func (s *Session) Orders() []OrderView {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]OrderView, 0, len(s.orders))
	for id, order := range s.orders {
		var remaining time.Duration
		if cd, ok := s.countdowns[id]; ok {
			remaining = max(cd.deadline.Sub(now), 0)
		}
		views = append(views, OrderView{Order: order, Remaining: remaining, Urgency: UrgencyFor(remaining)})
	}
	slices.SortFunc(views, func(a, b OrderView) int {
		return b.Order.CreatedAt.Compare(a.Order.CreatedAt)
	})
	return views
}

// Order returns a tracked order.
func (s *Session) Order(orderID string) (OrderView, bool) {
	for _, view := range s.Orders() {
		if view.Order.OrderID == orderID {
			return view, true
		}
	}
	return OrderView{}, false
}

func (s *Session) AutoBuyStatus() AutoBuyStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoBuy.Status()
}

// RequestNumber rents a number right away. A successful request also ends a running auto-buy.
func (s *Session) RequestNumber(ctx context.Context) (models.Order, error) {
	order, err := s.backend.RequestNumber(ctx, s.employee.ID, s.employee.Name)
	if err != nil {
		return models.Order{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return order, nil
	}
	s.trackLocked(order)
	stopped := s.autoBuy.Satisfy()
	status := s.autoBuy.Status()
	s.mu.Unlock()

	if stopped {
		s.notify(ctx, Event{Kind: EventAutoBuyStopped, Order: order, AutoBuy: status})
	}
	return order, nil
}

// ToggleAutoBuy enables auto-buy, making the first attempt immediately, or disables a running one.
// It reports whether auto-buy is enabled afterwards.
func (s *Session) ToggleAutoBuy(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if s.autoBuy.Enabled() {
		s.autoBuy.Disable()
		s.mu.Unlock()
		return false, nil
	}
	s.autoBuy.Enable(s.clock.Now())
	s.mu.Unlock()

	s.autoBuyStep(ctx)

	return true, nil
}

// Check polls one order on demand.
func (s *Session) Check(ctx context.Context, orderID string) (models.Order, error) {
	if err := s.begin(orderID); err != nil {
		return models.Order{}, err
	}
	defer s.end(orderID)

	return s.check(ctx, orderID, false)
}

// Cancel releases a pending order.
func (s *Session) Cancel(ctx context.Context, orderID string) (models.Order, error) {
	if err := s.begin(orderID); err != nil {
		return models.Order{}, err
	}
	defer s.end(orderID)

	order, err := s.backend.Cancel(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	s.mu.Lock()
	s.untrackLocked(orderID)
	s.mu.Unlock()

	return order, nil
}

// Dismiss hides a completed order.
func (s *Session) Dismiss(ctx context.Context, orderID string) (models.Order, error) {
	if err := s.begin(orderID); err != nil {
		return models.Order{}, err
	}
	defer s.end(orderID)

	order, err := s.backend.Dismiss(ctx, orderID, s.employee.ID)
	if err != nil {
		return models.Order{}, err
	}

	s.mu.Lock()
	s.untrackLocked(orderID)
	s.mu.Unlock()

	return order, nil
}

// begin reserves an order for one action.
func (s *Session) begin(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.orders[orderID]; !ok {
		return models.ErrNotFound
	}
	if _, busy := s.inFlight[orderID]; busy {
		return ErrBusy
	}
	s.inFlight[orderID] = struct{}{}
	return nil
}

func (s *Session) end(orderID string) {
	s.mu.Lock()
	delete(s.inFlight, orderID)
	s.mu.Unlock()
}

// check polls an order and applies the result. Events are only emitted for background polls,
// a user-triggered check is answered directly.
func (s *Session) check(ctx context.Context, orderID string, background bool) (models.Order, error) {
	result, err := s.backend.CheckStatus(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	var events []Event

	s.mu.Lock()
	previous, tracked := s.orders[orderID]
	switch {
	case !tracked:
	case result.Order.Status == models.StatusCancelled:
		s.untrackLocked(orderID)
		events = append(events, Event{Kind: EventProviderCancelled, Order: result.Order})
	case result.Order.Status == models.StatusCompleted:
		s.orders[orderID] = result.Order
		if previous.Status == models.StatusPending {
			events = append(events, Event{Kind: EventSMSReceived, Order: result.Order})
		}
	}
	s.mu.Unlock()

	if background {
		s.notify(ctx, events...)
	}
	return result.Order, nil
}

func (s *Session) autoBuyStep(ctx context.Context) {
	s.mu.Lock()
	if s.closed || !s.autoBuy.Due(s.clock.Now()) {
		s.mu.Unlock()
		return
	}
	run := s.autoBuy.Begin()
	s.mu.Unlock()

	order, err := s.backend.RequestNumber(ctx, s.employee.ID, s.employee.Name)

	switch {
	case err == nil:
		s.metrics.AutoBuyAttempts.WithLabelValues("acquired").Inc()
	case errors.Is(err, models.ErrNoNumbers):
		s.metrics.AutoBuyAttempts.WithLabelValues("no_numbers").Inc()
	default:
		s.metrics.AutoBuyAttempts.WithLabelValues("failed").Inc()
		s.log.WarnContext(ctx, "Auto-buy attempt failed", "error", err)
	}

	var events []Event

	s.mu.Lock()
	if err == nil && !s.closed {
		s.trackLocked(order)
	}
	stopped, reason := s.autoBuy.Finish(run, s.clock.Now(), err)
	status := s.autoBuy.Status()
	s.mu.Unlock()

	if err == nil {
		events = append(events, Event{Kind: EventAcquired, Order: order, AutoBuy: status})
	}
	if stopped {
		s.log.InfoContext(ctx, "Auto-buy stopped", "reason", reason, "attempts", status.Attempts)
		events = append(events, Event{Kind: EventAutoBuyStopped, AutoBuy: status, Err: err})
	}
	s.notify(ctx, events...)
}

func (s *Session) pollStep(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	pending := s.pendingLocked()
	if len(pending) == 0 {
		s.polling = false
		s.mu.Unlock()
		return
	}
	if !s.polling {
		s.polling = true
		s.nextPoll = now.Add(SMSPollInterval)
	}
	if now.Before(s.nextPoll) {
		s.mu.Unlock()
		return
	}
	s.nextPoll = now.Add(SMSPollInterval)

	due := make([]string, 0, len(pending))
	for _, id := range pending {
		if _, busy := s.inFlight[id]; busy {
			continue
		}
		s.inFlight[id] = struct{}{}
		due = append(due, id)
	}
	s.mu.Unlock()

	for _, id := range due {
		if _, err := s.check(ctx, id, true); err != nil {
			s.log.WarnContext(ctx, "Failed to poll order", "order", id, "error", err)
		}
		s.end(id)
	}
}

type dueAction struct {
	orderID string
	action  expiryAction
}

func (s *Session) countdownStep(ctx context.Context) {
	now := s.clock.Now()

	var events []Event
	var due []dueAction

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for id, cd := range s.countdowns {
		order := s.orders[id]

		if !cd.expired && !now.Before(cd.deadline) {
			cd.expired = true
			if order.Status == models.StatusCompleted {
				cd.action, cd.actionAt = actionDismiss, now.Add(AutoDismissDelay)
			} else {
				cd.action, cd.actionAt = actionCancel, now.Add(AutoCancelDelay)
			}
			events = append(events, Event{Kind: EventExpired, Order: order})
		}

		if cd.action == actionNone || now.Before(cd.actionAt) {
			continue
		}
		if _, busy := s.inFlight[id]; busy {
			continue
		}
		s.inFlight[id] = struct{}{}
		due = append(due, dueAction{orderID: id, action: cd.action})
		cd.action = actionNone
	}
	s.mu.Unlock()

	s.notify(ctx, events...)

	for _, d := range due {
		switch d.action {
		case actionDismiss:
			s.autoDismiss(ctx, d.orderID)
		case actionCancel:
			s.autoCancel(ctx, d.orderID)
		case actionNone:
		}
		s.end(d.orderID)
	}
}

func (s *Session) autoDismiss(ctx context.Context, orderID string) {
	order, err := s.backend.Dismiss(ctx, orderID, s.employee.ID)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to auto-dismiss order", "order", orderID, "error", err)
	}

	s.mu.Lock()
	if err != nil {
		order = s.orders[orderID]
	}
	s.untrackLocked(orderID)
	s.mu.Unlock()

	s.notify(ctx, Event{Kind: EventAutoDismissed, Order: order, Err: err})
}

func (s *Session) autoCancel(ctx context.Context, orderID string) {
	order, err := s.backend.Cancel(ctx, orderID)

	if errors.Is(err, models.ErrInvalidTransition) {
		// the SMS arrived after the countdown ran out
		if result, checkErr := s.backend.CheckStatus(ctx, orderID); checkErr == nil &&
			result.Order.Status == models.StatusCompleted {
			s.mu.Lock()
			if cd, ok := s.countdowns[orderID]; ok {
				s.orders[orderID] = result.Order
				cd.action, cd.actionAt = actionDismiss, s.clock.Now().Add(AutoDismissDelay)
			}
			s.mu.Unlock()
			s.notify(ctx, Event{Kind: EventSMSReceived, Order: result.Order})
			return
		}
	}
	if err != nil {
		s.log.WarnContext(ctx, "Failed to auto-cancel expired order", "order", orderID, "error", err)
	}

	s.mu.Lock()
	if err != nil {
		order = s.orders[orderID]
	}
	s.untrackLocked(orderID)
	s.mu.Unlock()

	s.notify(ctx, Event{Kind: EventAutoCancelled, Order: order, Err: err})
}

// trackLocked adds or refreshes an order and its countdown. The deadline always derives from
// the creation time, so tracking an order twice keeps a single countdown.
func (s *Session) trackLocked(order models.Order) {
	if !order.IsActive() {
		s.untrackLocked(order.OrderID)
		return
	}

	s.orders[order.OrderID] = order
	if _, ok := s.countdowns[order.OrderID]; !ok {
		s.countdowns[order.OrderID] = &countdown{deadline: order.CreatedAt.Add(OrderLifetime)}
	}

	if order.Status == models.StatusPending && !s.polling {
		s.polling = true
		s.nextPoll = s.clock.Now().Add(SMSPollInterval)
	}
}

// untrackLocked removes an order together with its countdown.
func (s *Session) untrackLocked(orderID string) {
	delete(s.orders, orderID)
	delete(s.countdowns, orderID)
}

func (s *Session) pendingLocked() []string {
	var ids []string
	for id, order := range s.orders {
		if order.Status == models.StatusPending && order.SMSCode == "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *Session) notify(ctx context.Context, events ...Event) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.Notify(ctx, event)
	}
}
