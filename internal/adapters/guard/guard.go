// Package guard wraps collaborator implementations with a per-call timeout,
// a shared rate limiter and a circuit breaker per collaborator.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/eventrec/pkg/logger"
	"github.com/okian/eventrec/pkg/metrics"
)

// Call outcomes reported to metrics.
const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeRejected  = "rejected"
	outcomeCancelled = "cancelled"
)

// BreakerSettings configure the circuit breaker of one collaborator.
type BreakerSettings struct {
	// MaxRequests is the number of probe calls allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed; 0 never resets.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// FailureRatio trips the breaker once MinRequests calls were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerSettings trip at 60% failures over at least 10 calls.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		OpenTimeout:  30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  10,
	}
}

type guard struct {
	name    string
	timeout time.Duration
	limiter *rate.Limiter
	breaker BreakerSettings
	logger  logger.Logger
	cb      *gobreaker.CircuitBreaker[any]
}

func newGuard(name string, opts []Option) *guard {
	g := &guard{
		name:    name,
		timeout: 2 * time.Second,
		breaker: DefaultBreakerSettings(),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	metrics.UpdateBreakerState(name, stateValue(gobreaker.StateClosed))
	s := g.breaker
	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn(context.Background(), "collaborator breaker state changed",
				logger.String("collaborator", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.UpdateBreakerState(name, stateValue(to))
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
		// Caller cancellation does not count against the collaborator.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return g
}

// call runs fn under the guard. Context errors of the caller are returned
// as-is; breaker and limiter refusals wrap ErrRejected.
func call[T any](ctx context.Context, g *guard, method string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				metrics.RecordCollaboratorCall(g.name, method, outcomeCancelled)
				return zero, ctxErr
			}
			metrics.RecordCollaboratorCall(g.name, method, outcomeRejected)
			return zero, fmt.Errorf("%w: %s.%s: %w", ErrRejected, g.name, method, err)
		}
	}

	v, err := g.cb.Execute(func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(cctx)
	})
	metrics.RecordCollaboratorLatency(g.name, float64(time.Since(start).Milliseconds()))

	switch {
	case err == nil:
		metrics.RecordCollaboratorCall(g.name, method, outcomeOK)
		out, _ := v.(T)
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCollaboratorCall(g.name, method, outcomeRejected)
		return zero, fmt.Errorf("%w: %s.%s: %w", ErrRejected, g.name, method, err)
	case ctx.Err() != nil:
		metrics.RecordCollaboratorCall(g.name, method, outcomeCancelled)
		return zero, err
	default:
		metrics.RecordCollaboratorCall(g.name, method, outcomeError)
		return zero, fmt.Errorf("%s.%s: %w", g.name, method, err)
	}
}

// do is call for methods that only return an error.
func do(ctx context.Context, g *guard, method string, fn func(ctx context.Context) error) error {
	_, err := call(ctx, g, method, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (g *guard) state() string { return g.cb.State().String() }
