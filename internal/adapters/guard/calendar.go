package guard

import (
	"context"
	"time"

	"github.com/okian/eventrec/internal/domain/collab"
	"github.com/okian/eventrec/internal/domain/model"
)

var _ collab.CulturalCalendar = (*Calendar)(nil)

// Calendar guards a collab.CulturalCalendar.
type Calendar struct {
	inner collab.CulturalCalendar
	g     *guard
}

// NewCalendar wraps inner.
func NewCalendar(inner collab.CulturalCalendar, opts ...Option) *Calendar {
	return &Calendar{inner: inner, g: newGuard("calendar", opts)}
}

// Name identifies the guarded collaborator.
func (c *Calendar) Name() string { return c.g.name }

// State returns the circuit state: closed, half-open or open.
func (c *Calendar) State() string { return c.g.state() }

func (c *Calendar) IsPoyaday(ctx context.Context, date time.Time) (bool, error) {
	return call(ctx, c.g, "IsPoyaday", func(ctx context.Context) (bool, error) {
		return c.inner.IsPoyaday(ctx, date)
	})
}

func (c *Calendar) EventAppropriateness(ctx context.Context, ev model.Event, date time.Time) (float64, error) {
	return call(ctx, c.g, "EventAppropriateness", func(ctx context.Context) (float64, error) {
		return c.inner.EventAppropriateness(ctx, ev, date)
	})
}

func (c *Calendar) CalculateAppropriateness(ctx context.Context, ev model.Event, background string) (float64, error) {
	return call(ctx, c.g, "CalculateAppropriateness", func(ctx context.Context) (float64, error) {
		return c.inner.CalculateAppropriateness(ctx, ev, background)
	})
}

func (c *Calendar) FestivalPeriod(ctx context.Context, name string, year int) (model.FestivalPeriod, error) {
	return call(ctx, c.g, "FestivalPeriod", func(ctx context.Context) (model.FestivalPeriod, error) {
		return c.inner.FestivalPeriod(ctx, name, year)
	})
}

func (c *Calendar) IsOptimalFestivalTiming(ctx context.Context, ev model.Event, period model.FestivalPeriod) (bool, error) {
	return call(ctx, c.g, "IsOptimalFestivalTiming", func(ctx context.Context) (bool, error) {
		return c.inner.IsOptimalFestivalTiming(ctx, ev, period)
	})
}

func (c *Calendar) ClassifyEventNature(ctx context.Context, ev model.Event) (model.EventNature, error) {
	return call(ctx, c.g, "ClassifyEventNature", func(ctx context.Context) (model.EventNature, error) {
		return c.inner.ClassifyEventNature(ctx, ev)
	})
}

func (c *Calendar) SignificantDates(ctx context.Context, year int) ([]model.SignificantDate, error) {
	return call(ctx, c.g, "SignificantDates", func(ctx context.Context) ([]model.SignificantDate, error) {
		return c.inner.SignificantDates(ctx, year)
	})
}

func (c *Calendar) ValidateEventAgainstCalendar(ctx context.Context, ev model.Event) (model.CalendarValidation, error) {
	return call(ctx, c.g, "ValidateEventAgainstCalendar", func(ctx context.Context) (model.CalendarValidation, error) {
		return c.inner.ValidateEventAgainstCalendar(ctx, ev)
	})
}
