package httpx

import (
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without calling the dependency while it is tripped.
var ErrCircuitOpen = errors.New("circuit open")

type CircuitBreaker interface {
	Execute(fn func() error) error
}

type circuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreaker trips after maxFailures consecutive failures and probes
// again after cooldown. Call latency is observed under the breaker name.
func NewCircuitBreaker(name string, cooldown time.Duration, maxFailures uint32) CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = 1
	}
	return &circuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		}),
	}
}

func (b *circuitBreaker) Execute(fn func() error) error {
	start := time.Now()
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	name := b.breaker.Name()
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		prometheus.DependencyLatency.WithLabelValues(name, "open").Observe(0)
		return fmt.Errorf("%s: %w", name, ErrCircuitOpen)
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	prometheus.DependencyLatency.WithLabelValues(name, result).
		Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
