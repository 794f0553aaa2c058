package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-web/internal/weather"
)

// BreakerSettings controls when a Breaker opens.
type BreakerSettings struct {
	MaxFailures uint32        // consecutive failures before opening
	OpenTimeout time.Duration // how long the breaker stays open
	// OnStateChange is called on every transition; may be nil.
	OnStateChange func(from, to string)
}

// Breaker wraps a Fetcher with a circuit breaker. While open it fails fast
// with an unavailable error instead of invoking the source. It never retries.
// A payload that fails validation counts as a failure, so a source that keeps
// producing incomplete documents trips the breaker too.
type Breaker struct {
	next    weather.Fetcher
	circuit *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(name string, next weather.Fetcher, settings BreakerSettings) *Breaker {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	openTimeout := settings.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = time.Minute
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if settings.OnStateChange != nil {
				settings.OnStateChange(from.String(), to.String())
			}
		},
	})

	return &Breaker{next: next, circuit: cb}
}

// State returns the current breaker state ("closed", "half-open" or "open").
func (b *Breaker) State() string {
	return b.circuit.State().String()
}

func (b *Breaker) Fetch(ctx context.Context) (weather.Payload, error) {
	result, err := b.circuit.Execute(func() (interface{}, error) {
		payload, err := b.next.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := payload.Validate(); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.NewFetchError(weather.KindUnavailable, "weather source temporarily disabled", err)
		}
		return nil, err
	}

	payload, ok := result.(weather.Payload)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T from circuit breaker", result)
	}
	return payload, nil
}
