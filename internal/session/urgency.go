package session

import "time"

// Urgency classifies the time left on an order.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyWarning
	UrgencyCritical
	UrgencyExpired
)

const (
	warningThreshold  = 10 * time.Minute
	criticalThreshold = 5 * time.Minute
)

// UrgencyFor returns the urgency of an order with the given remaining time.
func UrgencyFor(remaining time.Duration) Urgency {
	switch {
	case remaining <= 0:
		return UrgencyExpired
	case remaining <= criticalThreshold:
		return UrgencyCritical
	case remaining <= warningThreshold:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

func (u Urgency) String() string {
	switch u {
	case UrgencyNormal:
		return "normal"
	case UrgencyWarning:
		return "warning"
	case UrgencyCritical:
		return "critical"
	case UrgencyExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Icon is the marker shown next to the countdown.
func (u Urgency) Icon() string {
	switch u {
	case UrgencyNormal:
		return "🔵"
	case UrgencyWarning:
		return "🟡"
	case UrgencyCritical:
		return "🔴"
	case UrgencyExpired:
		return "⛔"
	default:
		return ""
	}
}
