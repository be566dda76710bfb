package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/criteria"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/domain/selection"
	"github.com/okian/eventrec/internal/domain/temporal"
	"github.com/okian/eventrec/pkg/logger"
)

const (
	dateCompositeWeight = 0.7
	dateRelevanceWeight = 0.2
	dateTimingWeight    = 0.1

	calendarValidationBonus = 0.1
)

// basePipeline scores every event on all seven criteria and ranks by
// composite. Weights are fetched once per request.
func (e *Engine) basePipeline(variant string, user uuid.UUID) *pipeline {
	var w model.ScoringWeights
	p := &pipeline{variant: variant, sortBy: model.DimComposite}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		w, err = e.weights(ctx, user)
		return err == nil, err
	})
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		rec, err := e.recommend(ctx, user, ev, w)
		return rec, err == nil, err
	}
	return p
}

// GetRecommendations ranks events by weighted composite score, highest first.
// Equal scores keep their input order.
func (e *Engine) GetRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	return e.run(ctx, e.basePipeline("base", user), events)
}

// GetRecommendationsForDate re-weights the base ranking toward events near
// date: 0.7·composite + 0.2·date relevance + 0.1·cultural timing.
func (e *Engine) GetRecommendationsForDate(ctx context.Context, user uuid.UUID, events []model.Event, date time.Time) (model.Ranking, error) {
	var (
		significant []model.SignificantDate
		poyaday     bool
	)
	p := e.basePipeline("date", user)
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		significant, err = lookup(ctx, e.logger, "significant dates", value[[]model.SignificantDate](nil))(
			e.calendar.SignificantDates(ctx, date.Year()))
		if err != nil {
			return false, err
		}
		poyaday, err = lookup(ctx, e.logger, "poyaday", value(false))(e.calendar.IsPoyaday(ctx, date))
		return err == nil, err
	})

	base := p.score
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		rec, keep, err := base(ctx, ev)
		if err != nil || !keep {
			return rec, keep, err
		}
		nature, err := orDefault(ctx, e.logger, "classify event nature", model.NatureUnknown)(e.calendar.ClassifyEventNature(ctx, ev))
		if err != nil {
			return rec, false, err
		}
		// timing is carried to adjust through the score until the base sort is done
		rec.Score = rec.Score.WithDim(model.DimTiming, temporal.CulturalTiming(poyaday, nature))
		return rec, true, nil
	}
	p.adjust = func(rec model.EventRecommendation) model.EventRecommendation {
		relevance := temporal.DateRelevance(rec.Event.StartDate, date, significant)
		timing := rec.Score.Dim(model.DimTiming)
		rec.Score = rec.Score.WithDim(model.DimComposite,
			rec.Score.Composite*dateCompositeWeight+relevance*dateRelevanceWeight+timing*dateTimingWeight)
		rec.Reason = fmt.Sprintf("%s (Date optimized: %.2f)", rec.Reason, relevance)
		return rec
	}
	return e.run(ctx, p, events)
}

// GetCulturallyFilteredRecommendations drops events whose appropriateness on
// their own start date is below the user's sensitivity threshold, then ranks
// the rest like GetRecommendations.
func (e *Engine) GetCulturallyFilteredRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var level model.SensitivityLevel
	p := e.basePipeline("culturally_filtered", user)
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		level, err = lookup(ctx, e.logger, "cultural sensitivity", value(model.SensitivityUnset))(e.prefs.CulturalSensitivity(ctx, user))
		return err == nil, err
	})
	p.admit = func(ctx context.Context, ev model.Event) (bool, error) {
		v, err := orDefault(ctx, e.logger, "event appropriateness", criteria.Neutral)(e.calendar.EventAppropriateness(ctx, ev, ev.StartDate))
		if err != nil {
			return false, err
		}
		return selection.Appropriate(level, v), nil
	}
	return e.run(ctx, p, events)
}

// GetDiasporaOptimizedRecommendations keeps events whose location suits the
// user's diaspora adaptation level. Events without a location are excluded.
func (e *Engine) GetDiasporaOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var level model.AdaptationLevel
	p := e.basePipeline("diaspora", user)
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		level, err = lookup(ctx, e.logger, "diaspora adaptation", value(model.AdaptationFullyIntegrated))(e.prefs.DiasporaAdaptation(ctx, user))
		return err == nil, err
	})
	p.admit = func(ctx context.Context, ev model.Event) (bool, error) {
		if !ev.HasLocation() {
			return false, nil
		}
		friendly, err := e.geography.IsDiasporaLocation(ctx, ev.Location)
		if err != nil {
			return excluded(ctx, e.logger, ev, err)
		}
		density, err := e.geography.CommunityDensity(ctx, ev.Location)
		if err != nil {
			return excluded(ctx, e.logger, ev, err)
		}
		return selection.Diaspora(level, friendly, density), nil
	}
	return e.run(ctx, p, events)
}

// GetFestivalOptimizedRecommendations keeps events the calendar judges
// optimally timed for the named festival and scores them on cultural
// appropriateness plus a bonus for starting within the festival period.
func (e *Engine) GetFestivalOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event, festival string, year int) (model.Ranking, error) {
	var period model.FestivalPeriod
	p := &pipeline{variant: "festival", sortBy: model.DimComposite}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		if period, err = e.calendar.FestivalPeriod(ctx, festival, year); err != nil {
			return unavailable(ctx, e.logger, "festival period "+festival, err)
		}
		return true, nil
	})
	p.admit = func(ctx context.Context, ev model.Event) (bool, error) {
		return orDefault(ctx, e.logger, "optimal festival timing", false)(e.calendar.IsOptimalFestivalTiming(ctx, ev, period))
	}
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		out, err := e.scorer.Score(ctx, user, ev, criteria.Cultural)
		if err != nil {
			return model.EventRecommendation{}, false, err
		}
		bonus := temporal.FestivalBonus(ev.StartDate, period)
		s := model.RecommendationScore{Composite: out.Value + bonus, Cultural: out.Value}.WithDim(model.DimTiming, bonus)
		return model.EventRecommendation{
			Event:      ev,
			Score:      s,
			Reason:     fmt.Sprintf("Festival-optimized for %s - optimal timing", festival),
			Confidence: defaultConfidence,
		}, true, nil
	}
	return e.run(ctx, p, events)
}

// GetCategorizedRecommendations scores events by the user's affinity for
// their calendar-classified nature.
func (e *Engine) GetCategorizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var prefs model.NaturePreferences
	p := &pipeline{variant: "categorized", sortBy: model.DimCategory}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		prefs, err = lookup(ctx, e.logger, "nature preferences", value(model.NaturePreferences{
			Religious: criteria.Neutral, Cultural: criteria.Neutral, Secular: criteria.Neutral,
		}))(e.prefs.NaturePreferences(ctx, user))
		return err == nil, err
	})
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		nature, err := orDefault(ctx, e.logger, "classify event nature", model.NatureUnknown)(e.calendar.ClassifyEventNature(ctx, ev))
		if err != nil {
			return model.EventRecommendation{}, false, err
		}
		v := natureAffinity(nature, prefs)
		return single(ev, model.DimCategory, v, fmt.Sprintf("Categorized as %s (Score: %.2f)", nature, v)), true, nil
	}
	return e.run(ctx, p, events)
}

func natureAffinity(n model.EventNature, p model.NaturePreferences) float64 {
	switch n {
	case model.NatureReligious:
		return p.Religious
	case model.NatureCultural:
		return p.Cultural
	case model.NatureSecular:
		return p.Secular
	case model.NatureMixed:
		return (p.Religious + p.Cultural + p.Secular) / 3
	default:
		return criteria.Neutral
	}
}

// GetCalendarValidatedRecommendations keeps events the calendar validates,
// adds a bonus to their base composite and keeps input order.
func (e *Engine) GetCalendarValidatedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	p := e.basePipeline("calendar_validated", user)
	p.sortBy = ""
	p.admit = func(ctx context.Context, ev model.Event) (bool, error) {
		v, err := e.calendar.ValidateEventAgainstCalendar(ctx, ev)
		if err != nil {
			return excluded(ctx, e.logger, ev, err)
		}
		return v.Valid, nil
	}
	base := p.score
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		rec, keep, err := base(ctx, ev)
		if err != nil || !keep {
			return rec, keep, err
		}
		rec.Score = rec.Score.WithDim(model.DimComposite, rec.Score.Composite+calendarValidationBonus)
		rec.Reason += " (Calendar validated)"
		return rec, true, nil
	}
	return e.run(ctx, p, events)
}

// CalculateCulturalScore returns the cultural criterion for one event.
// Fallback reports whether the neutral value was substituted.
func (e *Engine) CalculateCulturalScore(ctx context.Context, user uuid.UUID, ev model.Event) (model.CulturalScore, error) {
	out, err := e.scorer.Score(ctx, user, ev, criteria.Cultural)
	if err != nil {
		return model.CulturalScore{}, e.fail(ctx, "cultural_score", err)
	}
	return model.CulturalScore{Value: out.Value, Fallback: out.Fallback}, nil
}

// excluded drops an event whose admission check failed; cancellation is
// returned unchanged.
func excluded(ctx context.Context, l logger.Logger, ev model.Event, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	l.Debug(ctx, "event excluded after collaborator failure",
		logger.String("event", ev.ID.String()),
		logger.Error(err),
	)
	return false, nil
}
