package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/okian/eventrec/internal/adapters/guard"
	"github.com/okian/eventrec/internal/adapters/http/ops"
	"github.com/okian/eventrec/internal/adapters/memory"
	"github.com/okian/eventrec/internal/app"
	"github.com/okian/eventrec/internal/domain/dedupe"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/fixture"
	"github.com/okian/eventrec/pkg/logger"
)

// runtime is a wired engine over the fixture-backed collaborators.
type runtime struct {
	store       *memory.Store
	engine      *app.Engine
	calendar    *guard.Calendar
	preferences *guard.Preferences
	geography   *guard.Geography
}

// checks lists the guarded collaborators for health reporting.
func (r *runtime) checks() []ops.Check {
	return []ops.Check{r.calendar, r.preferences, r.geography}
}

// event looks an event up in the fixture.
func (r *runtime) event(id uuid.UUID) (model.Event, error) {
	for _, ev := range r.store.Events() {
		if ev.ID == id {
			return ev, nil
		}
	}
	return model.Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
}

// build loads the fixture and wires the engine the way config describes.
func (st *state) build(_ context.Context) (*runtime, error) {
	cfg := st.cfg

	f := &fixture.Fixture{}
	if cfg.FixturePath != "" {
		var err error
		if f, err = fixture.Load(cfg.FixturePath); err != nil {
			return nil, err
		}
	}
	store, err := memory.New(f, memory.WithLogger(logger.Named("memory")))
	if err != nil {
		return nil, err
	}

	opts := []guard.Option{
		guard.WithTimeout(cfg.CollaboratorTimeout()),
		guard.WithBreaker(guard.BreakerSettings{
			MaxRequests:  cfg.BreakerMaxRequests,
			Interval:     cfg.BreakerInterval(),
			OpenTimeout:  cfg.BreakerTimeout(),
			FailureRatio: cfg.BreakerFailureRatio,
			MinRequests:  cfg.BreakerMinRequests,
		}),
		guard.WithLogger(logger.Named("guard")),
	}
	if cfg.RateLimitPerSecond > 0 {
		opts = append(opts, guard.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateBurst)))
	}

	r := &runtime{
		store:       store,
		calendar:    guard.NewCalendar(store, opts...),
		preferences: guard.NewPreferences(store, opts...),
		geography:   guard.NewGeography(store, opts...),
	}
	r.engine, err = app.New(r.calendar, r.preferences, r.geography,
		app.WithConcurrency(cfg.Concurrency),
		app.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.InteractionDedupeSize))),
		app.WithLogger(logger.Named("engine")),
	)
	if err != nil {
		return nil, err
	}

	st.logger.Debug(context.Background(), "engine wired",
		logger.String("fixture", cfg.FixturePath),
		logger.Int("events", len(store.Events())),
		logger.Int("concurrency", cfg.Concurrency),
	)
	return r, nil
}
