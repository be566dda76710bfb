package scoring

import (
	"math"

	"github.com/okian/eventrec/internal/domain/model"
)

// GuardWeights keeps the involvement residual non-negative. Negative or NaN
// weights become 0; if the six weights then sum above 1 they are scaled to
// sum exactly 1. adjusted reports whether anything changed.
func GuardWeights(w model.ScoringWeights) (out model.ScoringWeights, adjusted bool) {
	fields := []*float64{&w.Cultural, &w.Geographic, &w.History, &w.Time, &w.Language, &w.Family}
	for _, f := range fields {
		if *f < 0 || math.IsNaN(*f) || math.IsInf(*f, 0) {
			*f = 0
			adjusted = true
		}
	}
	if sum := w.Sum(); sum > 1 {
		for _, f := range fields {
			*f /= sum
		}
		adjusted = true
	}
	return w, adjusted
}

// Personalize applies personalized weights to a base score locally. It
// mirrors the preference store's weighting and is used when that store
// cannot be reached.
func Personalize(base model.BaseEventScore, w model.PersonalizedWeights) model.PersonalizedScore {
	c := model.ComponentScores{
		Cultural:    base.Cultural,
		Convenience: (base.Geographic + base.Time) / 2,
		Social:      base.Community,
		Novelty:     (base.Novelty + base.Popularity) / 2,
	}
	weighted := c.Cultural*w.Cultural + c.Convenience*w.Convenience + c.Social*w.Social + c.Novelty*w.Novelty
	return model.PersonalizedScore{
		Weighted:   math.Max(0, math.Min(1, weighted)),
		Components: c,
		Confidence: w.Confidence,
	}
}
