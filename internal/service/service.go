// Package service implements the order lifecycle, employee management,
// authentication and cached statistics on top of the repository and the provider client.
package service

import (
	"context"
	"time"

	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/provider"
)

// Provider is the upstream number provider.
type Provider interface {
	Acquire(ctx context.Context) (provider.Number, error)
	Poll(ctx context.Context, orderID string) (provider.PollResult, error)
	Cancel(ctx context.Context, orderID string) error
}

// Invalidator drops cached statistics after a write.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

func orNoop(inv Invalidator) Invalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

func observeDB(m *metrics.Metrics, queryType string, startTime time.Time) {
	m.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(startTime).Seconds())
}
