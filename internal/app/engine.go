// Package app provides the recommendation engine: it scores candidate
// events for a user against the cultural calendar, the preference store and
// the geography service, and ranks them.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/collab"
	"github.com/okian/eventrec/internal/domain/criteria"
	"github.com/okian/eventrec/internal/domain/dedupe"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/domain/scoring"
	"github.com/okian/eventrec/pkg/logger"
	"github.com/okian/eventrec/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Request outcomes reported to metrics.
const (
	outcomeOK        = "ok"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

// Engine ranks candidate events for a user. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	calendar  collab.CulturalCalendar
	prefs     collab.Preferences
	geography collab.Geography

	scorer      *criteria.Scorer
	deduper     dedupe.Deduper
	concurrency int
	logger      logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithConcurrency bounds how many events are scored at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDeduper sets the deduper used by RecordUserInteraction.
func WithDeduper(d dedupe.Deduper) Option {
	return func(e *Engine) {
		if d != nil {
			e.deduper = d
		}
	}
}

// New constructs an Engine over the three collaborators.
func New(calendar collab.CulturalCalendar, prefs collab.Preferences, geography collab.Geography, opts ...Option) (*Engine, error) {
	if calendar == nil || prefs == nil || geography == nil {
		return nil, fmt.Errorf("%w: all three collaborators are required", ErrInvalidInput)
	}
	e := &Engine{
		calendar:    calendar,
		prefs:       prefs,
		geography:   geography,
		concurrency: runtime.NumCPU() * 2,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.deduper == nil {
		e.deduper = dedupe.NewInMemoryDeduper()
	}
	e.scorer = criteria.New(calendar, prefs, geography, criteria.WithLogger(e.logger.Named("criteria")))
	return e, nil
}

// weights fetches the user's scoring weights and guards the involvement
// residual. A failed lookup yields the defaults.
func (e *Engine) weights(ctx context.Context, user uuid.UUID) (model.ScoringWeights, error) {
	w, err := lookup(ctx, e.logger, "scoring weights", model.DefaultScoringWeights)(e.prefs.ScoringWeights(ctx, user))
	if err != nil {
		return w, err
	}
	guarded, adjusted := scoring.GuardWeights(w)
	if adjusted {
		metrics.RecordWeightsAdjusted()
		e.logger.Warn(ctx, "scoring weights adjusted",
			logger.String("user", user.String()),
			logger.Float64("sum", w.Sum()),
			logger.Float64("adjusted_sum", guarded.Sum()),
		)
	}
	return guarded, nil
}

// recommend runs the seven criteria for one event and aggregates them.
func (e *Engine) recommend(ctx context.Context, user uuid.UUID, ev model.Event, w model.ScoringWeights) (model.EventRecommendation, error) {
	eval, err := e.scorer.Evaluate(ctx, user, ev)
	if err != nil {
		return model.EventRecommendation{}, err
	}
	return scoring.Aggregate(ev, eval.Score(), w), nil
}

// lookup adapts a request-scoped collaborator lookup: a failure degrades to
// def() with a warning, while cancellation is returned unchanged.
func lookup[T any](ctx context.Context, l logger.Logger, what string, def func() T) func(T, error) (T, error) {
	return func(v T, err error) (T, error) {
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return v, ctxErr
		}
		l.Warn(ctx, "collaborator lookup failed, using default",
			logger.String("lookup", what),
			logger.Error(err),
		)
		return def(), nil
	}
}

// orDefault adapts a per-event collaborator call: a failure yields def
// without logging above debug, while cancellation is returned unchanged.
func orDefault[T any](ctx context.Context, l logger.Logger, what string, def T) func(T, error) (T, error) {
	return func(v T, err error) (T, error) {
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return v, ctxErr
		}
		l.Debug(ctx, "collaborator call failed, using default",
			logger.String("call", what),
			logger.Error(err),
		)
		return def, nil
	}
}

func value[T any](v T) func() T { return func() T { return v } }

// fanOut applies fn to every event with at most limit calls in flight and
// returns the kept results in input order. Any error aborts the batch.
func fanOut[T any](ctx context.Context, limit int, events []model.Event, fn func(context.Context, model.Event) (T, bool, error)) ([]T, error) {
	results := make([]T, len(events))
	keep := make([]bool, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ev := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, ok, err := fn(gctx, ev)
			if err != nil {
				return err
			}
			results[i], keep[i] = r, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(events))
	for i, r := range results {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out, nil
}

// fail converts a pipeline error into the engine's error contract.
func (e *Engine) fail(ctx context.Context, variant string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if ctxErr == nil {
			ctxErr = err
		}
		e.logger.Debug(ctx, "recommendation cancelled", logger.String("variant", variant))
		return fmt.Errorf("%s: %w: %w", variant, ErrCancelled, ctxErr)
	}
	e.logger.Error(ctx, "recommendation failed", logger.String("variant", variant), logger.Error(err))
	return fmt.Errorf("%s: %w", variant, err)
}

// observe records request metrics once a variant completes.
func observe(variant string, start time.Time, in, out int, err error) {
	outcome := outcomeOK
	switch {
	case errors.Is(err, ErrCancelled):
		outcome = outcomeCancelled
	case err != nil:
		outcome = outcomeError
	}
	metrics.RecordRecommendationRequest(variant, outcome)
	metrics.RecordRecommendationLatency(variant, float64(time.Since(start).Microseconds())/1000)
	if err == nil {
		metrics.RecordCandidates(variant, in, out)
	}
}

// GetStats reports the engine's runtime settings and interaction dedupe
// occupancy.
func (e *Engine) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"concurrency":          e.concurrency,
		"recordedInteractions": e.deduper.Size(),
	}
}
