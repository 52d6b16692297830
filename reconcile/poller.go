package reconcile

import (
	"context"
	"sync"
	"time"

	"bakehouse-api/gateway"
)

// FetchFunc asks the authoritative source (the gateway) for the current
// payment result.
type FetchFunc func(ctx context.Context) (gateway.PaymentResult, error)

// Hooks receive the resolution of a polling session. Exactly one of them fires
// per session, unless the session is stopped first. OnUnresolved means the
// attempt budget ran out without a definitive answer: the order stays
// unconfirmed for an operator to resolve, it is never assumed paid.
type Hooks struct {
	OnPaid       func(gateway.PaymentResult)
	OnFailed     func(gateway.PaymentResult)
	OnUnresolved func()
}

// Config controls a session's cadence. MaxAttempts <= 0 polls without a budget
// until stopped.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// PaymentConfirmation is the cadence used right after checkout returns without
// a definitive client result (the app-switch case).
var PaymentConfirmation = Config{Interval: 2 * time.Second, MaxAttempts: 5}

// Poller owns at most one live session per key. Starting a new session for a
// key stops the previous one first, so two pollers never race on the same
// order.
type Poller struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewPoller() *Poller {
	return &Poller{sessions: make(map[string]*Session)}
}

// Start begins polling for the given key and returns the session handle.
func (p *Poller) Start(key string, fetch FetchFunc, cfg Config, hooks Hooks) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{key: key, cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	if prev, ok := p.sessions[key]; ok {
		prev.Stop()
	}
	p.sessions[key] = s
	p.mu.Unlock()

	go p.run(ctx, s, fetch, cfg, hooks)
	return s
}

// Stop cancels the live session for key, if any.
func (p *Poller) Stop(key string) {
	p.mu.Lock()
	s, ok := p.sessions[key]
	p.mu.Unlock()
	if ok {
		s.Stop()
	}
}

func (p *Poller) run(ctx context.Context, s *Session, fetch FetchFunc, cfg Config, hooks Hooks) {
	defer func() {
		p.mu.Lock()
		if p.sessions[s.key] == s {
			delete(p.sessions, s.key)
		}
		p.mu.Unlock()
		s.Stop()
	}()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		attempts++
		res, err := fetch(ctx)
		// The session may have been stopped while the fetch was in flight;
		// a stopped session must not fire hooks.
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			switch res.State {
			case gateway.StateCaptured:
				if hooks.OnPaid != nil {
					hooks.OnPaid(res)
				}
				return
			case gateway.StateFailed:
				if hooks.OnFailed != nil {
					hooks.OnFailed(res)
				}
				return
			}
		}
		// Transient fetch errors are tolerated; the next tick retries.

		if cfg.MaxAttempts > 0 && attempts >= cfg.MaxAttempts {
			if hooks.OnUnresolved != nil {
				hooks.OnUnresolved()
			}
			return
		}
	}
}

// Session is the cancel handle for one polling loop. Stop is idempotent.
type Session struct {
	key      string
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.done)
	})
}

// Done is closed once the session has been stopped or resolved.
func (s *Session) Done() <-chan struct{} { return s.done }
