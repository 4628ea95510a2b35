// Package circuitbreaker wraps sony/gobreaker with logging and Prometheus
// instrumentation. It guards the outbound model call: repeated failures
// open the breaker and requests fail fast instead of piling onto a dead
// provider.
package circuitbreaker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Config holds the breaker thresholds.
type Config struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval is the cyclic period over which failure counts are cleared
	// while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips
	// the breaker.
	FailureThreshold uint32
}

// CircuitBreaker protects a single downstream dependency.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger

	stateGauge prometheus.Gauge
	tripsTotal prometheus.Counter
}

// New creates a breaker. A nil registry skips metric registration, which
// tests use to avoid duplicate-collector panics.
func New(name string, cfg Config, logger *zap.Logger, registry *prometheus.Registry) *CircuitBreaker {
	b := &CircuitBreaker{logger: logger}

	b.stateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "bellhop_circuit_breaker_state",
		Help:        "Current breaker state (0=closed, 1=half-open, 2=open)",
		ConstLabels: prometheus.Labels{"name": name},
	})
	b.tripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "bellhop_circuit_breaker_trips_total",
		Help:        "Times the breaker has tripped open",
		ConstLabels: prometheus.Labels{"name": name},
	})
	if registry != nil {
		registry.MustRegister(b.stateGauge, b.tripsTotal)
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.stateGauge.Set(stateValue(to))
			if to == gobreaker.StateOpen {
				b.tripsTotal.Inc()
				b.logger.Warn("circuit breaker tripped",
					zap.String("name", name),
					zap.String("from", from.String()),
				)
				return
			}
			b.logger.Info("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return b
}

// Execute runs fn under breaker protection. While open it returns
// gobreaker.ErrOpenState without invoking fn.
func (b *CircuitBreaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
