package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreaker opens after more than maxFailures failures inside window and
// lets a single trial call through once resetTimeout has passed.
type CircuitBreaker struct {
	maxFailures  int
	window       time.Duration
	resetTimeout time.Duration
	onChange     func(from, to State)
	now          func() time.Time

	mu          sync.Mutex
	state       State
	failures    []time.Time
	openedAt    time.Time
	trialActive bool
}

type Option func(*CircuitBreaker)

func WithWindow(window time.Duration) Option {
	return func(cb *CircuitBreaker) { cb.window = window }
}

// WithStateChange registers a hook called on every transition. It runs
// without the breaker lock held.
func WithStateChange(fn func(from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onChange = fn }
}

func withClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

func New(maxFailures int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		maxFailures:  maxFailures,
		window:       60 * time.Second,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the breaker is open. The result of fn is recorded
// and returned unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.acquire(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	var from, to State
	changed := false
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.resetTimeout {
			cb.mu.Unlock()
			return ErrOpen
		}
		from, to, changed = cb.setState(StateHalfOpen)
		cb.trialActive = true
	case StateHalfOpen:
		if cb.trialActive {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.trialActive = true
	}
	cb.mu.Unlock()
	if changed {
		cb.notify(from, to)
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	now := cb.now()
	var from, to State
	changed := false

	if err != nil {
		cb.failures = append(cb.failures, now)
		cb.dropExpired(now)
		if cb.state == StateHalfOpen || len(cb.failures) > cb.maxFailures {
			cb.openedAt = now
			from, to, changed = cb.setState(StateOpen)
		}
	} else {
		cb.dropExpired(now)
		if cb.state == StateHalfOpen {
			cb.failures = cb.failures[:0]
			from, to, changed = cb.setState(StateClosed)
		}
	}
	cb.trialActive = false
	cb.mu.Unlock()

	if changed {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) setState(to State) (State, State, bool) {
	from := cb.state
	cb.state = to
	return from, to, from != to
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.onChange != nil {
		cb.onChange(from, to)
	}
}

func (cb *CircuitBreaker) dropExpired(now time.Time) {
	cutoff := now.Add(-cb.window)
	i := 0
	for i < len(cb.failures) && !cb.failures[i].After(cutoff) {
		i++
	}
	cb.failures = cb.failures[i:]
}
