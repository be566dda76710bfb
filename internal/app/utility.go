package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/domain/scoring"
	"github.com/okian/eventrec/pkg/logger"
)

const resolverUnavailable = "Deferred: conflict resolver unavailable"

// GetScoredRecommendations is the fully scored base ranking.
func (e *Engine) GetScoredRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	return e.run(ctx, e.basePipeline("scored", user), events)
}

// CalculatePersonalizedScore applies the user's personalized weights to a
// base score of ev. When the preference store cannot weight it, the same
// weighting is computed locally.
func (e *Engine) CalculatePersonalizedScore(ctx context.Context, user uuid.UUID, ev model.Event, base model.BaseEventScore) (score model.PersonalizedScore, err error) {
	const variant = "personalized"
	start := time.Now()
	defer func() { observe(variant, start, 1, 1, err) }()

	w, err := lookup(ctx, e.logger, "personalized weights", model.DefaultPersonalizedWeights)(e.prefs.PersonalizedWeights(ctx, user))
	if err != nil {
		return model.PersonalizedScore{}, e.fail(ctx, variant, err)
	}
	score, err = e.prefs.ApplyPersonalizedWeighting(ctx, base, w)
	if err == nil {
		return score, nil
	}
	if ctx.Err() != nil {
		return model.PersonalizedScore{}, e.fail(ctx, variant, err)
	}
	e.logger.Debug(ctx, "personalized weighting computed locally",
		logger.String("event", ev.ID.String()),
		logger.Error(err),
	)
	return scoring.Personalize(base, w), nil
}

// GetConflictResolvedRecommendations lets the preference store resolve
// conflicts between events, then base-scores each event in the resolver's
// order. If the resolver fails, every event is deferred in input order.
func (e *Engine) GetConflictResolvedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (out []model.ConflictResolvedRecommendation, err error) {
	const variant = "conflict_resolved"
	start := time.Now()
	defer func() { observe(variant, start, len(events), len(out), err) }()

	if len(events) == 0 {
		return []model.ConflictResolvedRecommendation{}, nil
	}
	rules, err := lookup(ctx, e.logger, "conflict rules", model.DefaultConflictRules)(e.prefs.ConflictRules(ctx, user))
	if err != nil {
		return nil, e.fail(ctx, variant, err)
	}
	resolved, err := e.prefs.ResolveConflicts(ctx, events, rules)
	if err != nil {
		if ctx.Err() != nil {
			return nil, e.fail(ctx, variant, err)
		}
		e.logger.Warn(ctx, "conflict resolver failed, deferring all events", logger.Error(err))
		resolved = make([]model.ResolvedEvent, len(events))
		for i, ev := range events {
			resolved[i] = model.ResolvedEvent{Event: ev, Resolution: resolverUnavailable}
		}
	}

	w, err := e.weights(ctx, user)
	if err != nil {
		return nil, e.fail(ctx, variant, err)
	}
	ordered := make([]model.Event, len(resolved))
	for i, r := range resolved {
		ordered[i] = r.Event
	}
	recs, err := fanOut(ctx, e.concurrency, ordered, func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		rec, err := e.recommend(ctx, user, ev, w)
		return rec, err == nil, err
	})
	if err != nil {
		return nil, e.fail(ctx, variant, err)
	}

	out = make([]model.ConflictResolvedRecommendation, len(recs))
	for i, rec := range recs {
		out[i] = model.ConflictResolvedRecommendation{
			Event:      rec.Event,
			Score:      rec.Score.Composite,
			Reason:     rec.Reason,
			Resolution: resolved[i].Resolution,
			Outcome:    model.ClassifyResolution(resolved[i].Resolution),
			Conflict:   resolved[i].Conflict,
		}
	}
	return out, nil
}

// GetEdgeCaseHandledRecommendations keeps events the preference store could
// handle as scoring edge cases and scores them with its fallback score, in
// input order.
func (e *Engine) GetEdgeCaseHandledRecommendations(ctx context.Context, _ uuid.UUID, events []model.Event) (model.Ranking, error) {
	p := &pipeline{variant: "edge_case_handled"}
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		res, err := e.prefs.HandleScoringEdgeCase(ctx, ev)
		if err != nil {
			ok, err := excluded(ctx, e.logger, ev, err)
			return model.EventRecommendation{}, ok, err
		}
		if !res.Handled {
			return model.EventRecommendation{}, false, nil
		}
		rec := single(ev, model.DimCultural, res.FallbackScore, "Edge case handled: "+res.Explanation)
		return rec, true, nil
	}
	return e.run(ctx, p, events)
}

// GetNormalizedRecommendations normalizes the raw component scores of the
// candidate events across criteria and ranks them by normalized composite.
// Raw scores of events outside events are ignored.
func (e *Engine) GetNormalizedRecommendations(ctx context.Context, _ uuid.UUID, events []model.Event, raw []model.RawScores) (out []model.NormalizedRecommendation, err error) {
	const variant = "normalized"
	start := time.Now()
	defer func() { observe(variant, start, len(events), len(out), err) }()

	candidates := make(map[uuid.UUID]struct{}, len(events))
	for _, ev := range events {
		candidates[ev.ID] = struct{}{}
	}
	byEvent := make(map[uuid.UUID]model.ComponentScores, len(raw))
	var relevant []model.RawScores
	for _, r := range raw {
		if _, ok := candidates[r.Event.ID]; !ok {
			continue
		}
		if _, dup := byEvent[r.Event.ID]; dup {
			continue
		}
		byEvent[r.Event.ID] = r.Components
		relevant = append(relevant, r)
	}
	if len(relevant) == 0 {
		return []model.NormalizedRecommendation{}, nil
	}

	normalized, err := e.prefs.NormalizeScores(ctx, relevant)
	if err != nil {
		if ctx.Err() != nil {
			return nil, e.fail(ctx, variant, err)
		}
		e.logger.Warn(ctx, "normalizer failed, normalizing locally", logger.Error(err))
		normalized = make([]model.NormalizedScores, len(relevant))
		for i, r := range relevant {
			normalized[i] = model.NewNormalizedScores(r.Event, r.Components)
		}
	}

	out = make([]model.NormalizedRecommendation, 0, len(normalized))
	for _, n := range normalized {
		components, ok := byEvent[n.Event.ID]
		if !ok {
			continue
		}
		out = append(out, model.NormalizedRecommendation{
			Recommendation: model.EventRecommendation{
				Event:      n.Event,
				Score:      model.RecommendationScore{Composite: n.Composite},
				Reason:     "Normalized across criteria",
				Confidence: defaultConfidence,
			},
			Normalized: n,
			Raw:        components,
		})
	}
	slices.SortStableFunc(out, func(a, b model.NormalizedRecommendation) int {
		return cmp.Compare(b.Recommendation.Score.Composite, a.Recommendation.Score.Composite)
	})
	return out, nil
}

// GetTieBrokenRecommendations orders events with the user's tie-breaking
// rules and base-scores them, keeping that order. Each reason carries the
// 1-based rank. If tie-breaking fails, input order is kept.
func (e *Engine) GetTieBrokenRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	const variant = "tie_broken"
	if len(events) == 0 {
		return model.Ranking{}, nil
	}

	rules, err := lookup(ctx, e.logger, "tie-breaking rules", model.DefaultTieBreakingRules)(e.prefs.TieBreakingRules(ctx, user))
	if err != nil {
		return nil, e.fail(ctx, variant, err)
	}
	ordered, err := e.prefs.ApplyTieBreaking(ctx, events, rules)
	if err != nil {
		if ctx.Err() != nil {
			return nil, e.fail(ctx, variant, err)
		}
		e.logger.Warn(ctx, "tie-breaking failed, keeping input order", logger.Error(err))
		ordered = slices.Clone(events)
	}

	p := e.basePipeline(variant, user)
	p.sortBy = ""
	ranking, err := e.run(ctx, p, ordered)
	if err != nil {
		return nil, err
	}
	for i := range ranking {
		ranking[i].Reason = fmt.Sprintf("%s (Tie-broken rank: %d)", ranking[i].Reason, i+1)
	}
	return ranking, nil
}
