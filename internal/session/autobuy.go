package session

import (
	"errors"
	"time"

	"github.com/UnknownOlympus/numera/internal/models"
)

const (
	// AutoBuyMaxAttempts caps the number of requests made by one auto-buy run.
	AutoBuyMaxAttempts = 15
	// AutoBuyInterval is the pause between two auto-buy attempts.
	AutoBuyInterval = 3 * time.Second
)

type AutoBuyState int

const (
	AutoBuyIdle AutoBuyState = iota
	AutoBuyRetrying
	AutoBuyStopped
)

func (s AutoBuyState) String() string {
	switch s {
	case AutoBuyIdle:
		return "idle"
	case AutoBuyRetrying:
		return "retrying"
	case AutoBuyStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason explains why an auto-buy run ended.
type StopReason string

const (
	StopNone     StopReason = ""
	StopAcquired StopReason = "acquired"
	StopLimit    StopReason = "limit"
	StopError    StopReason = "error"
	StopDisabled StopReason = "disabled"
)

// AutoBuyStatus is a snapshot of the auto-buyer.
type AutoBuyStatus struct {
	State       AutoBuyState
	Attempts    int
	MaxAttempts int
	Reason      StopReason
}

// AutoBuyer keeps requesting a number while the provider is out of stock.
// It is not safe for concurrent use; the owning Session serialises access.
type AutoBuyer struct {
	state       AutoBuyState
	attempts    int
	maxAttempts int
	interval    time.Duration
	nextAttempt time.Time
	inFlight    bool
	reason      StopReason
	// run changes on every enable and disable so a late result of an old run is recognised.
	run int
}

func NewAutoBuyer(maxAttempts int, interval time.Duration) *AutoBuyer {
	return &AutoBuyer{maxAttempts: maxAttempts, interval: interval}
}

// Enable starts a new run with the first attempt due immediately.
func (a *AutoBuyer) Enable(now time.Time) {
	a.state = AutoBuyRetrying
	a.attempts = 0
	a.nextAttempt = now
	a.reason = StopNone
	a.run++
}

// Disable stops the run and drops the pending retry.
func (a *AutoBuyer) Disable() {
	if a.state != AutoBuyRetrying {
		return
	}
	a.stop(StopDisabled)
	a.run++
}

// Satisfy ends a running run because a number was obtained another way. It reports whether a run was stopped.
func (a *AutoBuyer) Satisfy() bool {
	if a.state != AutoBuyRetrying {
		return false
	}
	a.stop(StopAcquired)
	a.run++
	return true
}

func (a *AutoBuyer) Enabled() bool {
	return a.state == AutoBuyRetrying
}

// Due reports whether an attempt should start now. Attempts never overlap, not even across runs.
func (a *AutoBuyer) Due(now time.Time) bool {
	return a.state == AutoBuyRetrying && !a.inFlight && !now.Before(a.nextAttempt)
}

// Begin marks an attempt as started and returns the run it belongs to.
func (a *AutoBuyer) Begin() int {
	a.inFlight = true
	a.attempts++
	return a.run
}

// Finish applies the result of an attempt of the given run. It reports whether the run stopped.
// Results of a run that was disabled or restarted in the meantime are ignored.
func (a *AutoBuyer) Finish(run int, now time.Time, err error) (bool, StopReason) {
	a.inFlight = false
	if run != a.run {
		return false, StopNone
	}

	switch {
	case err == nil:
		a.stop(StopAcquired)
	case !errors.Is(err, models.ErrNoNumbers):
		a.stop(StopError)
	case a.attempts >= a.maxAttempts:
		a.stop(StopLimit)
	default:
		a.nextAttempt = now.Add(a.interval)
		return false, StopNone
	}

	return true, a.reason
}

func (a *AutoBuyer) Status() AutoBuyStatus {
	return AutoBuyStatus{
		State:       a.state,
		Attempts:    a.attempts,
		MaxAttempts: a.maxAttempts,
		Reason:      a.reason,
	}
}

func (a *AutoBuyer) stop(reason StopReason) {
	a.state = AutoBuyStopped
	a.reason = reason
	a.nextAttempt = time.Time{}
}
