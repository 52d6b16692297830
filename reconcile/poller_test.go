package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakehouse-api/gateway"
)

// fast is the cadence used throughout: real code polls every 2s, tests every
// few milliseconds.
var fast = Config{Interval: 5 * time.Millisecond, MaxAttempts: 5}

func waitResolved(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not resolve in time")
		return ""
	}
}

func TestPollerConfirmsAfterAppSwitch(t *testing.T) {
	// Checkout returned with no client callback; the gateway reports pending
	// twice, then captured on the third attempt.
	var attempts int32
	fetch := func(ctx context.Context) (gateway.PaymentResult, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return gateway.PaymentResult{State: gateway.StatePending}, nil
		}
		return gateway.PaymentResult{State: gateway.StateCaptured, PaymentID: "pay_123"}, nil
	}

	resolved := make(chan string, 1)
	p := NewPoller()
	p.Start("order-1", fetch, fast, Hooks{
		OnPaid:       func(res gateway.PaymentResult) { resolved <- "paid:" + res.PaymentID },
		OnFailed:     func(gateway.PaymentResult) { resolved <- "failed" },
		OnUnresolved: func() { resolved <- "unresolved" },
	})

	assert.Equal(t, "paid:pay_123", waitResolved(t, resolved))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestPollerStopsOnFailure(t *testing.T) {
	fetch := func(ctx context.Context) (gateway.PaymentResult, error) {
		return gateway.PaymentResult{State: gateway.StateFailed}, nil
	}

	resolved := make(chan string, 1)
	p := NewPoller()
	p.Start("order-2", fetch, fast, Hooks{
		OnPaid:       func(gateway.PaymentResult) { resolved <- "paid" },
		OnFailed:     func(gateway.PaymentResult) { resolved <- "failed" },
		OnUnresolved: func() { resolved <- "unresolved" },
	})

	assert.Equal(t, "failed", waitResolved(t, resolved))
}

func TestPollerBudgetExhaustedStaysUnconfirmed(t *testing.T) {
	// The gateway never answers definitively: after the attempt budget the
	// session reports unresolved, never success.
	var attempts int32
	fetch := func(ctx context.Context) (gateway.PaymentResult, error) {
		atomic.AddInt32(&attempts, 1)
		return gateway.PaymentResult{State: gateway.StatePending}, nil
	}

	resolved := make(chan string, 1)
	p := NewPoller()
	p.Start("order-3", fetch, fast, Hooks{
		OnPaid:       func(gateway.PaymentResult) { resolved <- "paid" },
		OnUnresolved: func() { resolved <- "unresolved" },
	})

	assert.Equal(t, "unresolved", waitResolved(t, resolved))
	assert.Equal(t, int32(fast.MaxAttempts), atomic.LoadInt32(&attempts))
}

func TestPollerToleratesTransientErrors(t *testing.T) {
	// Isolated fetch failures must not abort the session.
	var attempts int32
	fetch := func(ctx context.Context) (gateway.PaymentResult, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return gateway.PaymentResult{}, errors.New("connection reset")
		}
		return gateway.PaymentResult{State: gateway.StateCaptured, PaymentID: "pay_9"}, nil
	}

	resolved := make(chan string, 1)
	p := NewPoller()
	p.Start("order-4", fetch, fast, Hooks{
		OnPaid:       func(res gateway.PaymentResult) { resolved <- "paid:" + res.PaymentID },
		OnUnresolved: func() { resolved <- "unresolved" },
	})

	assert.Equal(t, "paid:pay_9", waitResolved(t, resolved))
}

func TestStartReplacesPriorSession(t *testing.T) {
	// Two sessions for the same order must never run concurrently: the second
	// Start cancels the first before polling.
	blockFirst := make(chan struct{})
	firstFetches := make(chan struct{}, 100)
	first := func(ctx context.Context) (gateway.PaymentResult, error) {
		firstFetches <- struct{}{}
		<-blockFirst
		return gateway.PaymentResult{State: gateway.StatePending}, nil
	}

	resolved := make(chan string, 1)
	p := NewPoller()
	s1 := p.Start("order-5", first, Config{Interval: time.Millisecond, MaxAttempts: 0}, Hooks{})

	// Wait for the first session to be mid-flight, then replace it.
	<-firstFetches
	second := func(ctx context.Context) (gateway.PaymentResult, error) {
		return gateway.PaymentResult{State: gateway.StateCaptured}, nil
	}
	p.Start("order-5", second, fast, Hooks{
		OnPaid: func(gateway.PaymentResult) { resolved <- "paid" },
	})
	close(blockFirst)

	assert.Equal(t, "paid", waitResolved(t, resolved))

	select {
	case <-s1.Done():
	case <-time.After(time.Second):
		t.Fatal("replaced session was not stopped")
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	fetch := func(ctx context.Context) (gateway.PaymentResult, error) {
		return gateway.PaymentResult{State: gateway.StatePending}, nil
	}

	p := NewPoller()
	s := p.Start("order-6", fetch, Config{Interval: time.Millisecond, MaxAttempts: 0}, Hooks{
		OnUnresolved: func() { t.Error("unbounded session must not exhaust") },
	})

	s.Stop()
	s.Stop()
	p.Stop("order-6") // already gone, must not panic

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
}

func TestStopDuringFetchSuppressesHooks(t *testing.T) {
	// Stop lands while a fetch is in flight; even a captured result from that
	// fetch must not fire OnPaid.
	fetchStarted := make(chan struct{}, 10)
	release := make(chan struct{})
	fetch := func(ctx context.Context) (gateway.PaymentResult, error) {
		fetchStarted <- struct{}{}
		<-release
		return gateway.PaymentResult{State: gateway.StateCaptured, PaymentID: "pay_late"}, nil
	}

	var fired int32
	p := NewPoller()
	s := p.Start("order-8", fetch, Config{Interval: time.Millisecond, MaxAttempts: 3}, Hooks{
		OnPaid:   func(gateway.PaymentResult) { atomic.AddInt32(&fired, 1) },
		OnFailed: func(gateway.PaymentResult) { atomic.AddInt32(&fired, 1) },
	})

	<-fetchStarted
	s.Stop()
	close(release)

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestStoppedSessionFiresNoHooks(t *testing.T) {
	var fired int32
	fetch := func(ctx context.Context) (gateway.PaymentResult, error) {
		return gateway.PaymentResult{State: gateway.StatePending}, nil
	}

	p := NewPoller()
	s := p.Start("order-7", fetch, Config{Interval: 2 * time.Millisecond, MaxAttempts: 3}, Hooks{
		OnUnresolved: func() { atomic.AddInt32(&fired, 1) },
	})
	s.Stop()

	require.Eventually(t, func() bool {
		select {
		case <-s.Done():
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	// Give any stray goroutine a chance to misbehave before asserting.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
