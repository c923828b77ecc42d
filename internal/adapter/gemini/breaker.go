package gemini

import (
	"context"
	"errors"
	"time"

	"gymos/internal/domain"

	"github.com/sony/gobreaker"
)

// Breaker wraps a Completer in a circuit breaker. While the circuit is open
// calls fail fast with domain.ErrAICircuitOpen.
type Breaker struct {
	next domain.Completer
	cb   *gobreaker.CircuitBreaker
}

var _ domain.Completer = (*Breaker)(nil)

// BreakerSettings configures trip and recovery.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that open the circuit.
	Failures uint32
	// Cooldown is how long the circuit stays open before a probe call.
	Cooldown time.Duration
	// OnStateChange, if set, observes transitions.
	OnStateChange func(from, to string)
}

// WithBreaker wraps next.
func WithBreaker(next domain.Completer, s BreakerSettings) *Breaker {
	if s.Failures == 0 {
		s.Failures = 3
	}
	st := gobreaker.Settings{
		Name:    "gemini",
		Timeout: s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		// A caller giving up says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrAIMalformed)
		},
	}
	if s.OnStateChange != nil {
		st.OnStateChange = func(_ string, from, to gobreaker.State) {
			s.OnStateChange(from.String(), to.String())
		}
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// State reports the circuit state ("closed", "half-open" or "open").
func (b *Breaker) State() string { return b.cb.State().String() }

// Complete forwards to the wrapped Completer unless the circuit is open.
func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	return b.run(func() (string, error) { return b.next.Complete(ctx, prompt) })
}

// CompleteWithImage forwards to the wrapped Completer unless the circuit is open.
func (b *Breaker) CompleteWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	return b.run(func() (string, error) { return b.next.CompleteWithImage(ctx, prompt, image, mimeType) })
}

func (b *Breaker) run(call func() (string, error)) (string, error) {
	out, err := b.cb.Execute(func() (any, error) { return call() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", domain.ErrAICircuitOpen
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
