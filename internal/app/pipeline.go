package app

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/domain/scoring"
)

// defaultConfidence is reported by variants that do not estimate confidence.
const defaultConfidence = scoring.MinConfidence

// pipeline is the shared shape of every ranking variant:
// prepare → admit → score (fan-out) → sort → adjust → re-sort.
type pipeline struct {
	variant string
	// prepare steps run once, in order. proceed=false yields an empty ranking.
	prepare []func(ctx context.Context) (proceed bool, err error)
	// admit filters an event before scoring; nil admits everything.
	admit func(ctx context.Context, ev model.Event) (bool, error)
	// score builds the recommendation; keep=false drops the event.
	score func(ctx context.Context, ev model.Event) (rec model.EventRecommendation, keep bool, err error)
	// sortBy orders the ranking descending and stably; "" keeps input order.
	sortBy model.Dimension
	// adjust rewrites each ranked recommendation, after which the ranking is
	// re-sorted by composite.
	adjust func(rec model.EventRecommendation) model.EventRecommendation
}

func (p *pipeline) before(step func(ctx context.Context) (bool, error)) *pipeline {
	p.prepare = append(p.prepare, step)
	return p
}

// run executes p over events. Cancellation returns ErrCancelled and never a
// partial ranking.
func (e *Engine) run(ctx context.Context, p *pipeline, events []model.Event) (ranking model.Ranking, err error) {
	start := time.Now()
	defer func() { observe(p.variant, start, len(events), len(ranking), err) }()

	if len(events) == 0 {
		return model.Ranking{}, nil
	}
	for _, step := range p.prepare {
		proceed, err := step(ctx)
		if err != nil {
			return nil, e.fail(ctx, p.variant, err)
		}
		if !proceed {
			return model.Ranking{}, nil
		}
	}

	recs, err := fanOut(ctx, e.concurrency, events, func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		if p.admit != nil {
			ok, err := p.admit(ctx, ev)
			if err != nil || !ok {
				return model.EventRecommendation{}, false, err
			}
		}
		return p.score(ctx, ev)
	})
	if err != nil {
		return nil, e.fail(ctx, p.variant, err)
	}

	ranking = model.Ranking(recs)
	if p.sortBy != "" {
		sortDesc(ranking, p.sortBy)
	}
	if p.adjust != nil {
		for i, rec := range ranking {
			ranking[i] = p.adjust(rec)
		}
		sortDesc(ranking, model.DimComposite)
	}
	return ranking, nil
}

// sortDesc orders r by dimension d, highest first, keeping the relative
// order of equal scores.
func sortDesc(r model.Ranking, d model.Dimension) {
	slices.SortStableFunc(r, func(a, b model.EventRecommendation) int {
		return cmp.Compare(b.Score.Dim(d), a.Score.Dim(d))
	})
}

// single builds a recommendation scored on one dimension, which doubles as
// the composite.
func single(ev model.Event, d model.Dimension, v float64, reason string) model.EventRecommendation {
	s := model.RecommendationScore{Composite: v}.WithDim(d, v)
	return model.EventRecommendation{Event: ev, Score: s, Reason: reason, Confidence: defaultConfidence}
}
