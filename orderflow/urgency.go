package orderflow

import "time"

// Urgency is an advisory staleness tier for pending orders. It drives operator
// attention only and never feeds the transition table.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// ClassifyUrgency grades how stale a pending order is. An order waiting more
// than five minutes without acceptance is already critical; otherwise the tier
// follows elapsed time alone.
func ClassifyUrgency(createdAt time.Time, accepted bool, now time.Time) Urgency {
	elapsed := now.Sub(createdAt)
	switch {
	case elapsed > 15*time.Minute:
		return UrgencyCritical
	case elapsed > 5*time.Minute && !accepted:
		return UrgencyCritical
	case elapsed > 10*time.Minute:
		return UrgencyHigh
	case elapsed > 5*time.Minute:
		return UrgencyMedium
	default:
		return UrgencyNormal
	}
}
