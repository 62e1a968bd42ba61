package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

type State uint8

const (
	// Closed: calls pass through.
	Closed State = 1
	// Open: calls fail fast with ErrOpen until the cooldown elapses.
	Open State = 2
	// HalfOpen: calls pass through until the first failure.
	HalfOpen State = 3
)

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	Reset()
}

type circuitBreaker struct {
	mu    sync.Mutex
	state State

	// window holds the outcome of the last len(window) calls; true means failed.
	window []bool
	pos    int
	// threshold is the failure ratio over the window that opens the breaker.
	threshold float64
	// cooldown is how long the breaker stays open before probing half-open.
	cooldown time.Duration
	openedAt time.Time
	// recovery is how many consecutive half-open successes close the breaker.
	recovery     int
	successCount int
}

func New(windowSize int, cooldown time.Duration, threshold float64, recovery int) CircuitBreaker {
	return &circuitBreaker{
		state:     Closed,
		window:    make([]bool, windowSize),
		threshold: threshold,
		cooldown:  cooldown,
		recovery:  recovery,
	}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == Open {
		if time.Since(cb.openedAt) <= cb.cooldown {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = HalfOpen
		cb.successCount = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % len(cb.window)

	if cb.state == HalfOpen {
		if err != nil {
			cb.trip()
		} else {
			cb.successCount++
			if cb.successCount >= cb.recovery {
				cb.Reset()
			}
		}
		return err
	}

	fails := 0
	for _, failed := range cb.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(cb.window)) >= cb.threshold {
		cb.trip()
	}

	return err
}

// trip must be called with mu held.
func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successCount = 0
	cb.openedAt = time.Now()
}

func (cb *circuitBreaker) Reset() {
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.pos = 0
	cb.successCount = 0
	cb.state = Closed
}
