package model

import (
	"encoding/json"
	"iter"
	"maps"
	"slices"
)

// Dimension names one sub-score of a RecommendationScore.
type Dimension string

// Primary dimensions, always present.
const (
	DimComposite   Dimension = "composite"
	DimCultural    Dimension = "cultural"
	DimGeographic  Dimension = "geographic"
	DimHistory     Dimension = "history"
	DimTime        Dimension = "time"
	DimLanguage    Dimension = "language"
	DimFamily      Dimension = "family"
	DimInvolvement Dimension = "involvement"
)

// Optional dimensions, set only by the variants that use them.
const (
	DimCategory      Dimension = "category"
	DimDistance      Dimension = "distance"
	DimRegional      Dimension = "regional"
	DimAccessibility Dimension = "accessibility"
	DimProximity     Dimension = "proximity"
	DimLocation      Dimension = "location"
	DimTiming        Dimension = "timing"
)

// RecommendationScore holds the per-dimension scores of one (event, user)
// pair. Values are conventionally in [0,1] but not clamped. A score is
// immutable once built: WithDim returns a modified copy.
type RecommendationScore struct {
	Composite   float64
	Cultural    float64
	Geographic  float64
	History     float64
	Time        float64
	Language    float64
	Family      float64
	Involvement float64

	extra map[Dimension]float64
}

// Dim returns the value of d, or 0 when d was never set.
func (s RecommendationScore) Dim(d Dimension) float64 {
	switch d {
	case DimComposite:
		return s.Composite
	case DimCultural:
		return s.Cultural
	case DimGeographic:
		return s.Geographic
	case DimHistory:
		return s.History
	case DimTime:
		return s.Time
	case DimLanguage:
		return s.Language
	case DimFamily:
		return s.Family
	case DimInvolvement:
		return s.Involvement
	default:
		return s.extra[d]
	}
}

// WithDim returns a copy of s with d set to v.
func (s RecommendationScore) WithDim(d Dimension, v float64) RecommendationScore {
	out := s
	switch d {
	case DimComposite:
		out.Composite = v
	case DimCultural:
		out.Cultural = v
	case DimGeographic:
		out.Geographic = v
	case DimHistory:
		out.History = v
	case DimTime:
		out.Time = v
	case DimLanguage:
		out.Language = v
	case DimFamily:
		out.Family = v
	case DimInvolvement:
		out.Involvement = v
	default:
		out.extra = maps.Clone(s.extra)
		if out.extra == nil {
			out.extra = make(map[Dimension]float64, 1)
		}
		out.extra[d] = v
	}
	return out
}

// Optional returns the optional dimensions that were set, sorted by name.
func (s RecommendationScore) Optional() []Dimension {
	return slices.Sorted(maps.Keys(s.extra))
}

// MarshalJSON renders the primary scores plus any optional dimensions.
func (s RecommendationScore) MarshalJSON() ([]byte, error) {
	out := map[Dimension]float64{
		DimComposite:   s.Composite,
		DimCultural:    s.Cultural,
		DimGeographic:  s.Geographic,
		DimHistory:     s.History,
		DimTime:        s.Time,
		DimLanguage:    s.Language,
		DimFamily:      s.Family,
		DimInvolvement: s.Involvement,
	}
	maps.Copy(out, s.extra)
	return json.Marshal(out)
}

// EventRecommendation pairs an event with its score and explanation.
type EventRecommendation struct {
	Event      Event               `json:"event"`
	Score      RecommendationScore `json:"score"`
	Reason     string              `json:"reason"`
	Confidence float64             `json:"confidence"`
}

// Ranking is a finite, ordered list of recommendations.
type Ranking []EventRecommendation

// All iterates the ranking in order. It can be ranged any number of times.
func (r Ranking) All() iter.Seq2[int, EventRecommendation] {
	return func(yield func(int, EventRecommendation) bool) {
		for i, rec := range r {
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Events returns the ranked events in order.
func (r Ranking) Events() []Event {
	out := make([]Event, len(r))
	for i, rec := range r {
		out[i] = rec.Event
	}
	return out
}

// CulturalScore wraps a single appropriateness measurement in [0,1].
type CulturalScore struct {
	Value float64 `json:"value"`
	// Fallback is set when the value is the neutral default.
	Fallback bool `json:"fallback,omitempty"`
}

// ScoringWeights are the per-user weights of six dimensions. Involvement
// receives the residual 1 − Sum().
type ScoringWeights struct {
	Cultural   float64 `json:"cultural" yaml:"cultural"`
	Geographic float64 `json:"geographic" yaml:"geographic"`
	History    float64 `json:"history" yaml:"history"`
	Time       float64 `json:"time" yaml:"time"`
	Language   float64 `json:"language" yaml:"language"`
	Family     float64 `json:"family" yaml:"family"`
}

// DefaultScoringWeights returns the weights used when a user has none.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Cultural:   0.35,
		Geographic: 0.25,
		History:    0.20,
		Time:       0.10,
		Language:   0.05,
		Family:     0.05,
	}
}

// Sum returns the total of the six explicit weights.
func (w ScoringWeights) Sum() float64 {
	return w.Cultural + w.Geographic + w.History + w.Time + w.Language + w.Family
}

// Involvement returns the residual weight.
func (w ScoringWeights) Involvement() float64 {
	return 1 - w.Sum()
}
