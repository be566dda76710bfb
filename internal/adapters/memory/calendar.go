package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/eventrec/internal/domain/model"
)

// Poyaday adjustments to the base appropriateness of a category.
const (
	poyadayReligiousBonus = 0.2
	poyadaySecularPenalty = 0.3
	backgroundTagBonus    = 0.2
)

// IsPoyaday implements collab.CulturalCalendar.
func (s *Store) IsPoyaday(ctx context.Context, date time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.isPoyaday(date), nil
}

func (s *Store) isPoyaday(date time.Time) bool {
	_, ok := s.poyadays[date.Format(time.DateOnly)]
	return ok
}

// EventAppropriateness implements collab.CulturalCalendar. Religious events
// gain and secular events lose appropriateness on a poyaday.
func (s *Store) EventAppropriateness(ctx context.Context, ev model.Event, date time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v := s.baseAppropriateness(ev)
	if s.isPoyaday(date) {
		switch s.nature(ev) {
		case model.NatureReligious:
			v += poyadayReligiousBonus
		case model.NatureSecular:
			v -= poyadaySecularPenalty
		}
	}
	return clamp01(v), nil
}

// CalculateAppropriateness implements collab.CulturalCalendar. Events
// tagged with the background score higher.
func (s *Store) CalculateAppropriateness(ctx context.Context, ev model.Event, background string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v := s.baseAppropriateness(ev)
	if background != "" && ev.HasTag(background) {
		v += backgroundTagBonus
	}
	return clamp01(v), nil
}

func (s *Store) baseAppropriateness(ev model.Event) float64 {
	if v, ok := s.calendar.Appropriateness[key(ev.Category)]; ok {
		return v
	}
	return neutral
}

// FestivalPeriod implements collab.CulturalCalendar. Names match
// case-insensitively; the period must start in year.
func (s *Store) FestivalPeriod(ctx context.Context, name string, year int) (model.FestivalPeriod, error) {
	if err := ctx.Err(); err != nil {
		return model.FestivalPeriod{}, err
	}
	for _, p := range s.calendar.Festivals {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) && p.Start.Year() == year {
			return p, nil
		}
	}
	return model.FestivalPeriod{}, fmt.Errorf("%w: %s %d", ErrUnknownFestival, name, year)
}

// IsOptimalFestivalTiming implements collab.CulturalCalendar. Non-secular
// events starting inside the period are optimally timed.
func (s *Store) IsOptimalFestivalTiming(ctx context.Context, ev model.Event, period model.FestivalPeriod) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ev.StartDate.IsZero() || !period.Contains(ev.StartDate) {
		return false, nil
	}
	return s.nature(ev) != model.NatureSecular, nil
}

// ClassifyEventNature implements collab.CulturalCalendar.
func (s *Store) ClassifyEventNature(ctx context.Context, ev model.Event) (model.EventNature, error) {
	if err := ctx.Err(); err != nil {
		return model.NatureUnknown, err
	}
	return s.nature(ev), nil
}

func (s *Store) nature(ev model.Event) model.EventNature {
	if n, ok := s.calendar.Natures[key(ev.Category)]; ok {
		return n
	}
	switch {
	case ev.HasTag("religious"):
		return model.NatureReligious
	case ev.HasTag("cultural"):
		return model.NatureCultural
	default:
		return model.NatureUnknown
	}
}

// SignificantDates implements collab.CulturalCalendar. Dates are returned
// in calendar order.
func (s *Store) SignificantDates(ctx context.Context, year int) ([]model.SignificantDate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.SignificantDate
	for _, d := range s.calendar.SignificantDates {
		if d.Date.Year() == year {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b model.SignificantDate) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// ValidateEventAgainstCalendar implements collab.CulturalCalendar.
func (s *Store) ValidateEventAgainstCalendar(ctx context.Context, ev model.Event) (model.CalendarValidation, error) {
	if err := ctx.Err(); err != nil {
		return model.CalendarValidation{}, err
	}
	var issues []string
	if ev.StartDate.IsZero() {
		issues = append(issues, "event has no start date")
	}
	if !ev.EndDate.IsZero() && ev.EndDate.Before(ev.StartDate) {
		issues = append(issues, "event ends before it starts")
	}
	if !ev.StartDate.IsZero() && s.isPoyaday(ev.StartDate) && s.nature(ev) == model.NatureSecular {
		issues = append(issues, "secular event scheduled on a poyaday")
	}
	return model.CalendarValidation{Valid: len(issues) == 0, Issues: issues}, nil
}
