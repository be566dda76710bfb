package model

import "math"

func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// BaseEventScore is the input to personalized weighting. Values are
// clamped to [0,1]; NaN and infinities become 0.
type BaseEventScore struct {
	Cultural   float64 `json:"cultural"`
	Geographic float64 `json:"geographic"`
	Time       float64 `json:"time"`
	Community  float64 `json:"community"`
	Novelty    float64 `json:"novelty"`
	Popularity float64 `json:"popularity"`
}

// NewBaseEventScore builds a clamped BaseEventScore.
func NewBaseEventScore(cultural, geographic, timing, community, novelty, popularity float64) BaseEventScore {
	return BaseEventScore{
		Cultural:   clamp01(cultural),
		Geographic: clamp01(geographic),
		Time:       clamp01(timing),
		Community:  clamp01(community),
		Novelty:    clamp01(novelty),
		Popularity: clamp01(popularity),
	}
}

// PersonalizedWeights are a user's importance weights. They always sum to 1.
type PersonalizedWeights struct {
	Cultural    float64 `json:"cultural"`
	Convenience float64 `json:"convenience"`
	Social      float64 `json:"social"`
	Novelty     float64 `json:"novelty"`
	Confidence  float64 `json:"confidence"`
}

// NewPersonalizedWeights normalizes the four importances to sum 1. A
// non-positive total yields the defaults.
func NewPersonalizedWeights(cultural, convenience, social, novelty, confidence float64) PersonalizedWeights {
	total := cultural + convenience + social + novelty
	if total <= 0 || math.IsNaN(total) {
		return DefaultPersonalizedWeights()
	}
	return PersonalizedWeights{
		Cultural:    cultural / total,
		Convenience: convenience / total,
		Social:      social / total,
		Novelty:     novelty / total,
		Confidence:  clamp01(confidence),
	}
}

// DefaultPersonalizedWeights returns 0.4/0.3/0.2/0.1 at full confidence.
func DefaultPersonalizedWeights() PersonalizedWeights {
	return PersonalizedWeights{Cultural: 0.4, Convenience: 0.3, Social: 0.2, Novelty: 0.1, Confidence: 1}
}

// ComponentScores are the four personalized components of an event.
type ComponentScores struct {
	Cultural    float64 `json:"cultural" yaml:"cultural"`
	Convenience float64 `json:"convenience" yaml:"convenience"`
	Social      float64 `json:"social" yaml:"social"`
	Novelty     float64 `json:"novelty" yaml:"novelty"`
}

// PersonalizedScore is a base score after personalized weighting.
type PersonalizedScore struct {
	Weighted   float64         `json:"weighted"`
	Components ComponentScores `json:"components"`
	Confidence float64         `json:"confidence"`
}

// ConflictRules configure conflict resolution priorities and penalties.
type ConflictRules struct {
	ReligiousPriority float64 `json:"religious_priority"`
	CulturalPriority  float64 `json:"cultural_priority"`
	SocialPriority    float64 `json:"social_priority"`
	TimePenalty       float64 `json:"time_penalty"`
	CulturalPenalty   float64 `json:"cultural_penalty"`
}

// DefaultConflictRules favour religious over cultural over social events.
func DefaultConflictRules() ConflictRules {
	return ConflictRules{
		ReligiousPriority: 0.9,
		CulturalPriority:  0.7,
		SocialPriority:    0.4,
		TimePenalty:       -0.3,
		CulturalPenalty:   -0.6,
	}
}

// ResolvedEvent is one event after conflict resolution.
type ResolvedEvent struct {
	Event      Event        `json:"event"`
	Score      float64      `json:"score"`
	Resolution string       `json:"resolution"`
	Conflict   ConflictType `json:"conflict"`
}

// ConflictResolvedRecommendation is a base-scored event with its resolution.
type ConflictResolvedRecommendation struct {
	Event      Event              `json:"event"`
	Score      float64            `json:"score"`
	Reason     string             `json:"reason"`
	Resolution string             `json:"resolution"`
	Outcome    ConflictResolution `json:"outcome"`
	Conflict   ConflictType       `json:"conflict"`
}

// TieBreakingRules order the criteria applied to equally scored events.
type TieBreakingRules struct {
	Primary    TieBreaker `json:"primary"`
	Secondary  TieBreaker `json:"secondary"`
	Tertiary   TieBreaker `json:"tertiary"`
	Quaternary TieBreaker `json:"quaternary"`
}

// DefaultTieBreakingRules break ties by priority, date, proximity and capacity.
func DefaultTieBreakingRules() TieBreakingRules {
	return TieBreakingRules{
		Primary:    TieBreakEventPriority,
		Secondary:  TieBreakEventDate,
		Tertiary:   TieBreakProximity,
		Quaternary: TieBreakCapacity,
	}
}

// RawScores are unnormalized component scores of one event.
type RawScores struct {
	Event      Event           `json:"event"`
	Components ComponentScores `json:"components"`
}

// NormalizedScores are component scores normalized to [0,1].
type NormalizedScores struct {
	Event      Event           `json:"event"`
	Components ComponentScores `json:"components"`
	Composite  float64         `json:"composite"`
}

// NewNormalizedScores clamps each component and averages them.
func NewNormalizedScores(ev Event, c ComponentScores) NormalizedScores {
	c = ComponentScores{
		Cultural:    clamp01(c.Cultural),
		Convenience: clamp01(c.Convenience),
		Social:      clamp01(c.Social),
		Novelty:     clamp01(c.Novelty),
	}
	return NormalizedScores{
		Event:      ev,
		Components: c,
		Composite:  (c.Cultural + c.Convenience + c.Social + c.Novelty) / 4,
	}
}

// NormalizedRecommendation carries a recommendation with the scores it was built from.
type NormalizedRecommendation struct {
	Recommendation EventRecommendation `json:"recommendation"`
	Normalized     NormalizedScores    `json:"normalized"`
	Raw            ComponentScores     `json:"raw"`
}
