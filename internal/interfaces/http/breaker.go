package http

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// StoreBreaker shields the API from a struggling database: five consecutive
// failed reads open the circuit for 30s, after which up to three probe
// requests decide whether it closes again.
type StoreBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewStoreBreaker() *StoreBreaker {
	settings := gobreaker.Settings{
		Name:        "store",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	return &StoreBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs a store read through the breaker. A nil breaker passes the
// call straight through so handlers never have to nil-check.
func (b *StoreBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// State reports the breaker state as "closed", "half-open", or "open".
func (b *StoreBreaker) State() string {
	if b == nil || b.cb == nil {
		return gobreaker.StateClosed.String()
	}
	return b.cb.State().String()
}
