package breaker

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/apifoundry/apifoundry/pkg/logger"
)

// Breaker is a thin circuit-breaker wrapper guarding calls to external
// collaborators (the user directory, primarily) at the HTTP boundary.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker that opens after 5 consecutive failures and probes
// again after 30 seconds. isSuccessful may be nil; when given, it decides
// which errors count as failures (so expected domain errors such as bad
// credentials do not trip the circuit).
func New(name string, isSuccessful func(error) bool) *Breaker {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: isSuccessful,
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return b.cb.Execute(fn)
}

// State exposes the current breaker state for readiness reporting.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
