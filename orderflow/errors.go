package orderflow

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the errors.Is target for every rejected status move.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrStateConflict is the errors.Is target for guard failures: the order has
// already progressed past the point where the requested action was legal.
var ErrStateConflict = errors.New("order state conflict")

// TransitionError reports a status move outside the transition graph.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictReason identifies why an accept or cancel lost.
type ConflictReason string

const (
	ReasonAlreadyAccepted ConflictReason = "alreadyAccepted"
	ReasonWindowExpired   ConflictReason = "windowExpired"
	ReasonNotPending      ConflictReason = "notPending"
	ReasonPaymentPending  ConflictReason = "paymentPending"
	ReasonNotAccepted     ConflictReason = "notAccepted"
)

// ConflictError reports a guard failure with the losing reason.
type ConflictError struct {
	Reason ConflictReason
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("state conflict: %s", e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrStateConflict }

// ConflictReasonOf extracts the reason from a guard error, or "" if err is not
// a ConflictError.
func ConflictReasonOf(err error) ConflictReason {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}
