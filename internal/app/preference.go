package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/criteria"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/pkg/logger"
	"github.com/okian/eventrec/pkg/metrics"
)

// Interaction outcomes reported to metrics.
const (
	interactionForwarded = "forwarded"
	interactionDuplicate = "duplicate"
	interactionFailed    = "failed"
)

// GetHistoryBasedRecommendations scores events against the user's
// attendance patterns.
func (e *Engine) GetHistoryBasedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var (
		patterns  model.PreferencePatterns
		available bool
	)
	p := &pipeline{variant: "history", sortBy: model.DimHistory}
	p.before(func(ctx context.Context) (bool, error) {
		history, err := e.prefs.AttendanceHistory(ctx, user)
		if err == nil {
			patterns, err = e.prefs.AnalyzePreferencePatterns(ctx, history)
		}
		if err == nil {
			available = true
			return true, nil
		}
		return neutral(ctx, e.logger, "preference patterns", err)
	})
	p.score = func(_ context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		v := criteria.Neutral
		if available {
			v = criteria.HistoryCompatibility(ev, patterns)
		}
		return single(ev, model.DimHistory, v, fmt.Sprintf("Based on attendance history (Score: %.2f)", v)), true, nil
	}
	return e.run(ctx, p, events)
}

// GetAdaptiveRecommendations scores events against category preferences
// learned from past interactions.
func (e *Engine) GetAdaptiveRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var learned model.LearnedPreferences
	p := &pipeline{variant: "adaptive", sortBy: model.DimCultural}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		learned, err = lookup(ctx, e.logger, "learned preferences", value(model.LearnedPreferences{}))(e.prefs.LearnedPreferences(ctx, user))
		return err == nil, err
	})
	p.score = func(_ context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		v := criteria.AdaptiveScore(ev, learned)
		return single(ev, model.DimCultural, v, fmt.Sprintf("Adaptive learning (Confidence: %.2f)", learned.Confidence)), true, nil
	}
	return e.run(ctx, p, events)
}

// compatibilityPipeline fetches a profile once and scores each event with
// a compatibility scorer. Without a profile every event scores neutral.
func compatibilityPipeline[P any](
	e *Engine,
	variant string,
	dim model.Dimension,
	fetch func(ctx context.Context) (P, error),
	score func(ctx context.Context, ev model.Event, profile P) (model.Compatibility, error),
	reason func(profile P, v float64) string,
) *pipeline {
	var (
		profile   P
		available bool
	)
	p := &pipeline{variant: variant, sortBy: dim}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		if profile, err = fetch(ctx); err == nil {
			available = true
			return true, nil
		}
		return neutral(ctx, e.logger, variant+" profile", err)
	})
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		v := criteria.Neutral
		if available {
			c, err := orDefault(ctx, e.logger, variant+" compatibility", model.Compatibility{Score: criteria.Neutral})(score(ctx, ev, profile))
			if err != nil {
				return model.EventRecommendation{}, false, err
			}
			v = c.Score
		}
		return single(ev, dim, v, reason(profile, v)), true, nil
	}
	return p
}

// GetTimeOptimizedRecommendations scores events against the user's preferred time slots.
func (e *Engine) GetTimeOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	p := compatibilityPipeline(e, "time", model.DimTime,
		func(ctx context.Context) (model.TimeSlotPreferences, error) { return e.prefs.TimeSlotPreferences(ctx, user) },
		e.prefs.TimeCompatibility,
		func(_ model.TimeSlotPreferences, v float64) string {
			return fmt.Sprintf("Time optimized (Compatibility: %.2f)", v)
		})
	return e.run(ctx, p, events)
}

// GetFamilyOptimizedRecommendations scores events against the user's household.
func (e *Engine) GetFamilyOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	p := compatibilityPipeline(e, "family", model.DimFamily,
		func(ctx context.Context) (model.FamilyProfile, error) { return e.prefs.FamilyProfile(ctx, user) },
		e.prefs.FamilyCompatibility,
		func(_ model.FamilyProfile, v float64) string {
			return fmt.Sprintf("Family optimized (Compatibility: %.2f)", v)
		})
	return e.run(ctx, p, events)
}

// GetAgeOptimizedRecommendations scores events against the preferences of
// the user's age group.
func (e *Engine) GetAgeOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var age int
	p := compatibilityPipeline(e, "age", model.DimCategory,
		func(ctx context.Context) (model.AgeGroupPreferences, error) {
			var err error
			if age, err = e.prefs.UserAge(ctx, user); err != nil {
				return model.AgeGroupPreferences{}, fmt.Errorf("user age: %w", err)
			}
			return e.prefs.AgeGroupPreferences(ctx, age)
		},
		e.prefs.AgeCompatibility,
		func(_ model.AgeGroupPreferences, v float64) string {
			return fmt.Sprintf("Age optimized (Age: %d, Compatibility: %.2f)", age, v)
		})
	return e.run(ctx, p, events)
}

// GetLanguageOptimizedRecommendations scores events against the languages the user follows.
func (e *Engine) GetLanguageOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	p := compatibilityPipeline(e, "language", model.DimLanguage,
		func(ctx context.Context) (model.LanguagePreferences, error) { return e.prefs.LanguagePreferences(ctx, user) },
		e.prefs.LanguageCompatibility,
		func(_ model.LanguagePreferences, v float64) string {
			return fmt.Sprintf("Language optimized (Compatibility: %.2f)", v)
		})
	return e.run(ctx, p, events)
}

// GetInvolvementOptimizedRecommendations scores events against the user's
// community involvement.
func (e *Engine) GetInvolvementOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	p := compatibilityPipeline(e, "involvement", model.DimInvolvement,
		func(ctx context.Context) (model.InvolvementProfile, error) { return e.prefs.InvolvementProfile(ctx, user) },
		e.prefs.InvolvementCompatibility,
		func(profile model.InvolvementProfile, v float64) string {
			return fmt.Sprintf("Involvement optimized (Level: %s, Compatibility: %.2f)", profile.Level, v)
		})
	return e.run(ctx, p, events)
}

// RecordUserInteraction forwards feedback to the preference store. Each
// interaction ID is forwarded at most once; interactions without an ID are
// always forwarded. A failed forward can be retried.
func (e *Engine) RecordUserInteraction(ctx context.Context, user uuid.UUID, ev model.Event, interaction model.UserInteraction) error {
	tracked := interaction.ID != uuid.Nil
	if tracked && e.deduper.SeenAndRecord(ctx, interaction.ID) {
		metrics.RecordInteractionForwarded(interactionDuplicate)
		e.logger.Debug(ctx, "duplicate interaction dropped",
			logger.String("interaction", interaction.ID.String()),
		)
		return nil
	}

	if err := e.prefs.UpdatePreferenceLearning(ctx, user, ev, interaction); err != nil {
		if tracked {
			e.deduper.Unrecord(ctx, interaction.ID)
		}
		metrics.RecordInteractionForwarded(interactionFailed)
		if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) {
			return fmt.Errorf("record interaction: %w: %w", ErrCancelled, err)
		}
		e.logger.Error(ctx, "failed to forward interaction",
			logger.String("user", user.String()),
			logger.String("event", ev.ID.String()),
			logger.Error(err),
		)
		return fmt.Errorf("record interaction: %w", err)
	}

	metrics.RecordInteractionForwarded(interactionForwarded)
	return nil
}

// neutral lets a variant continue with neutral scores when its profile
// lookup fails; cancellation is returned unchanged.
func neutral(ctx context.Context, l logger.Logger, what string, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	l.Warn(ctx, "profile lookup failed, scoring neutral",
		logger.String("lookup", what),
		logger.Error(err),
	)
	return true, nil
}
