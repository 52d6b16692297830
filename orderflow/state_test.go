package orderflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to preparing", StatusPending, StatusPreparing, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"preparing to ready", StatusPreparing, StatusReady, true},
		{"ready to delivered", StatusReady, StatusDelivered, true},
		{"pending skips to ready", StatusPending, StatusReady, false},
		{"pending skips to delivered", StatusPending, StatusDelivered, false},
		{"preparing back to pending", StatusPreparing, StatusPending, false},
		{"preparing to cancelled", StatusPreparing, StatusCancelled, false},
		{"ready to cancelled", StatusReady, StatusCancelled, false},
		{"delivered is terminal", StatusDelivered, StatusReady, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"unknown status", Status("refunded"), StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusOnlyMovesForward(t *testing.T) {
	// Walk the happy path and check no backward edge exists anywhere.
	path := []Status{StatusPending, StatusPreparing, StatusReady, StatusDelivered}
	for i, from := range path {
		for j, to := range path {
			if j <= i && from != to {
				assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
			}
		}
	}
}

func TestCanAccept(t *testing.T) {
	now := time.Now()

	t.Run("paid gateway order", func(t *testing.T) {
		view := OrderView{Status: StatusPending, PaymentStatus: PaymentPaid, PaymentMethod: PayGateway, CreatedAt: now}
		require.NoError(t, CanAccept(view))
	})

	t.Run("cash accepted on trust", func(t *testing.T) {
		view := OrderView{Status: StatusPending, PaymentStatus: PaymentUnpaid, PaymentMethod: PayCash, CreatedAt: now}
		require.NoError(t, CanAccept(view))
	})

	t.Run("unpaid gateway order blocked", func(t *testing.T) {
		view := OrderView{Status: StatusPending, PaymentStatus: PaymentInitiated, PaymentMethod: PayGateway, CreatedAt: now}
		err := CanAccept(view)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStateConflict))
		assert.Equal(t, ReasonPaymentPending, ConflictReasonOf(err))
	})

	t.Run("second accept conflicts", func(t *testing.T) {
		view := OrderView{Status: StatusPending, PaymentStatus: PaymentPaid, PaymentMethod: PayGateway, Accepted: true, CreatedAt: now}
		err := CanAccept(view)
		require.Error(t, err)
		assert.Equal(t, ReasonAlreadyAccepted, ConflictReasonOf(err))
	})

	t.Run("cancelled order cannot be accepted", func(t *testing.T) {
		view := OrderView{Status: StatusCancelled, PaymentStatus: PaymentPaid, PaymentMethod: PayGateway, CreatedAt: now}
		err := CanAccept(view)
		require.Error(t, err)
		assert.Equal(t, ReasonNotPending, ConflictReasonOf(err))
	})
}

func TestCanCancelWindowBoundary(t *testing.T) {
	window := DefaultCancelWindow
	createdAt := time.Now()

	pendingAt := func(elapsed time.Duration, accepted bool) (OrderView, time.Time) {
		view := OrderView{Status: StatusPending, PaymentMethod: PayCash, Accepted: accepted, CreatedAt: createdAt}
		return view, createdAt.Add(elapsed)
	}

	t.Run("inside window succeeds", func(t *testing.T) {
		view, now := pendingAt(10*time.Second, false)
		require.NoError(t, CanCancel(view, now, window))
	})

	t.Run("exactly at window succeeds", func(t *testing.T) {
		view, now := pendingAt(window, false)
		require.NoError(t, CanCancel(view, now, window))
	})

	t.Run("just past window expires", func(t *testing.T) {
		view, now := pendingAt(window+time.Millisecond, false)
		err := CanCancel(view, now, window)
		require.Error(t, err)
		assert.Equal(t, ReasonWindowExpired, ConflictReasonOf(err))
	})

	t.Run("accepted beats window at any elapsed time", func(t *testing.T) {
		view, now := pendingAt(time.Second, true)
		err := CanCancel(view, now, window)
		require.Error(t, err)
		assert.Equal(t, ReasonAlreadyAccepted, ConflictReasonOf(err))
	})

	t.Run("left pending", func(t *testing.T) {
		view := OrderView{Status: StatusPreparing, Accepted: false, CreatedAt: createdAt}
		err := CanCancel(view, createdAt.Add(5*time.Second), window)
		require.Error(t, err)
		assert.Equal(t, ReasonNotPending, ConflictReasonOf(err))
	})
}

func TestCanAdvance(t *testing.T) {
	now := time.Now()

	t.Run("accepted pending advances to preparing", func(t *testing.T) {
		view := OrderView{Status: StatusPending, Accepted: true, CreatedAt: now}
		require.NoError(t, CanAdvance(view, StatusPreparing))
	})

	t.Run("unaccepted pending cannot start preparing", func(t *testing.T) {
		view := OrderView{Status: StatusPending, Accepted: false, CreatedAt: now}
		err := CanAdvance(view, StatusPreparing)
		require.Error(t, err)
		assert.Equal(t, ReasonNotAccepted, ConflictReasonOf(err))
	})

	t.Run("preparing to ready needs no extra guard", func(t *testing.T) {
		view := OrderView{Status: StatusPreparing, Accepted: true, CreatedAt: now}
		require.NoError(t, CanAdvance(view, StatusReady))
	})

	t.Run("cancel is not an advance", func(t *testing.T) {
		view := OrderView{Status: StatusPending, Accepted: false, CreatedAt: now}
		err := CanAdvance(view, StatusCancelled)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
	})

	t.Run("skipping a step reports the attempted move", func(t *testing.T) {
		view := OrderView{Status: StatusPending, Accepted: true, CreatedAt: now}
		err := CanAdvance(view, StatusDelivered)
		require.Error(t, err)

		var te *TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, StatusPending, te.From)
		assert.Equal(t, StatusDelivered, te.To)
	})
}

func TestCancelWindowRemaining(t *testing.T) {
	createdAt := time.Now()
	window := 30 * time.Second

	view := OrderView{Status: StatusPending, CreatedAt: createdAt}
	assert.Equal(t, 20*time.Second, CancelWindowRemaining(view, createdAt.Add(10*time.Second), window))
	assert.Equal(t, time.Duration(0), CancelWindowRemaining(view, createdAt.Add(45*time.Second), window))

	accepted := OrderView{Status: StatusPending, Accepted: true, CreatedAt: createdAt}
	assert.Equal(t, time.Duration(0), CancelWindowRemaining(accepted, createdAt.Add(time.Second), window),
		"acceptance invalidates the countdown immediately")

	advanced := OrderView{Status: StatusPreparing, CreatedAt: createdAt}
	assert.Equal(t, time.Duration(0), CancelWindowRemaining(advanced, createdAt.Add(time.Second), window))
}

func TestClassifyUrgency(t *testing.T) {
	now := time.Now()
	at := func(elapsed time.Duration) time.Time { return now.Add(-elapsed) }

	tests := []struct {
		name     string
		elapsed  time.Duration
		accepted bool
		want     Urgency
	}{
		{"fresh order", time.Minute, false, UrgencyNormal},
		{"accepted at seven minutes", 7 * time.Minute, true, UrgencyMedium},
		{"unaccepted at seven minutes", 7 * time.Minute, false, UrgencyCritical},
		{"accepted at twelve minutes", 12 * time.Minute, true, UrgencyHigh},
		{"accepted at twenty minutes", 20 * time.Minute, true, UrgencyCritical},
		{"unaccepted at twenty minutes", 20 * time.Minute, false, UrgencyCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyUrgency(at(tt.elapsed), tt.accepted, now))
		})
	}
}
