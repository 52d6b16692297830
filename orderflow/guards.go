package orderflow

import "time"

// DefaultCancelWindow is how long after submission an unaccepted order may be
// cancelled by the customer.
const DefaultCancelWindow = 30 * time.Second

// OrderView is the snapshot of an order the guards evaluate. Controllers build
// it from the stored record; tests build it directly.
type OrderView struct {
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	Accepted      bool
	CreatedAt     time.Time
}

// CanAccept reports whether the store may accept the order. Acceptance is only
// legal while the order is still pending and unaccepted, and requires the
// payment to be captured unless the order is cash (cash is accepted on trust
// and verified later).
func CanAccept(o OrderView) error {
	if o.Status != StatusPending {
		return &ConflictError{Reason: ReasonNotPending}
	}
	if o.Accepted {
		return &ConflictError{Reason: ReasonAlreadyAccepted}
	}
	if o.PaymentStatus != PaymentPaid && o.PaymentMethod != PayCash {
		return &ConflictError{Reason: ReasonPaymentPending}
	}
	return nil
}

// CanCancel reports whether the customer may still cancel. The check is
// authoritative server-side: elapsed(createdAt) <= window and not yet accepted.
// A request at exactly the window boundary succeeds.
func CanCancel(o OrderView, now time.Time, window time.Duration) error {
	if o.Accepted {
		return &ConflictError{Reason: ReasonAlreadyAccepted}
	}
	if o.Status != StatusPending {
		return &ConflictError{Reason: ReasonNotPending}
	}
	if now.Sub(o.CreatedAt) > window {
		return &ConflictError{Reason: ReasonWindowExpired}
	}
	return nil
}

// CanAdvance reports whether the store may move the order to the given status.
// Cancellation is not an advance; it goes through CanCancel.
func CanAdvance(o OrderView, to Status) error {
	if to == StatusCancelled || !CanTransition(o.Status, to) {
		return &TransitionError{From: o.Status, To: to}
	}
	if to == StatusPreparing && !o.Accepted {
		return &ConflictError{Reason: ReasonNotAccepted}
	}
	return nil
}

// CancelWindowRemaining returns the advisory seconds-left figure the status
// endpoint reports. Zero once the window has elapsed, the order was accepted,
// or it left pending.
func CancelWindowRemaining(o OrderView, now time.Time, window time.Duration) time.Duration {
	if o.Accepted || o.Status != StatusPending {
		return 0
	}
	left := window - now.Sub(o.CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}
