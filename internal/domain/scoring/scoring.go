// Package scoring combines per-dimension scores into a composite value,
// a confidence estimate and a short explanation.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/eventrec/internal/domain/model"
)

// MinConfidence is the floor of every confidence value.
const MinConfidence = 0.5

// Composite returns the weighted sum of the seven primary dimensions of s.
// Involvement is weighted by the residual 1 − w.Sum().
func Composite(s model.RecommendationScore, w model.ScoringWeights) float64 {
	return s.Cultural*w.Cultural +
		s.Geographic*w.Geographic +
		s.History*w.History +
		s.Time*w.Time +
		s.Language*w.Language +
		s.Family*w.Family +
		s.Involvement*w.Involvement()
}

// Variance returns the population variance of values. It is 0 for no values.
func Variance(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// Confidence is 1 − variance of the three primary signals, floored at MinConfidence.
func Confidence(cultural, geographic, history float64) float64 {
	return math.Max(MinConfidence, 1-Variance(cultural, geographic, history))
}

// Explain names the strongest of the three primary signals. Ties prefer
// cultural, then geographic.
func Explain(cultural, geographic, history float64) string {
	switch {
	case cultural >= geographic && cultural >= history:
		return fmt.Sprintf("Recommended: High cultural relevance (%.2f)", cultural)
	case geographic >= history:
		return fmt.Sprintf("Recommended: Geographic proximity (%.2f)", geographic)
	default:
		return fmt.Sprintf("Recommended: Historical preference match (%.2f)", history)
	}
}

// Aggregate turns the seven sub-scores of an event into a recommendation.
func Aggregate(ev model.Event, s model.RecommendationScore, w model.ScoringWeights) model.EventRecommendation {
	s.Composite = Composite(s, w)
	return model.EventRecommendation{
		Event:      ev,
		Score:      s,
		Reason:     Explain(s.Cultural, s.Geographic, s.History),
		Confidence: Confidence(s.Cultural, s.Geographic, s.History),
	}
}
