package guard

import (
	"context"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/collab"
	"github.com/okian/eventrec/internal/domain/model"
)

var _ collab.Preferences = (*Preferences)(nil)

// Preferences guards a collab.Preferences.
type Preferences struct {
	inner collab.Preferences
	g     *guard
}

// NewPreferences wraps inner.
func NewPreferences(inner collab.Preferences, opts ...Option) *Preferences {
	return &Preferences{inner: inner, g: newGuard("preferences", opts)}
}

// Name identifies the guarded collaborator.
func (p *Preferences) Name() string { return p.g.name }

// State returns the circuit state: closed, half-open or open.
func (p *Preferences) State() string { return p.g.state() }

func (p *Preferences) CulturalSensitivity(ctx context.Context, user uuid.UUID) (model.SensitivityLevel, error) {
	return call(ctx, p.g, "CulturalSensitivity", func(ctx context.Context) (model.SensitivityLevel, error) {
		return p.inner.CulturalSensitivity(ctx, user)
	})
}

func (p *Preferences) CulturalBackground(ctx context.Context, user uuid.UUID) (string, error) {
	return call(ctx, p.g, "CulturalBackground", func(ctx context.Context) (string, error) {
		return p.inner.CulturalBackground(ctx, user)
	})
}

func (p *Preferences) DiasporaAdaptation(ctx context.Context, user uuid.UUID) (model.AdaptationLevel, error) {
	return call(ctx, p.g, "DiasporaAdaptation", func(ctx context.Context) (model.AdaptationLevel, error) {
		return p.inner.DiasporaAdaptation(ctx, user)
	})
}

func (p *Preferences) NaturePreferences(ctx context.Context, user uuid.UUID) (model.NaturePreferences, error) {
	return call(ctx, p.g, "NaturePreferences", func(ctx context.Context) (model.NaturePreferences, error) {
		return p.inner.NaturePreferences(ctx, user)
	})
}

func (p *Preferences) AttendanceHistory(ctx context.Context, user uuid.UUID) (model.AttendanceHistory, error) {
	return call(ctx, p.g, "AttendanceHistory", func(ctx context.Context) (model.AttendanceHistory, error) {
		return p.inner.AttendanceHistory(ctx, user)
	})
}

func (p *Preferences) AnalyzePreferencePatterns(ctx context.Context, history model.AttendanceHistory) (model.PreferencePatterns, error) {
	return call(ctx, p.g, "AnalyzePreferencePatterns", func(ctx context.Context) (model.PreferencePatterns, error) {
		return p.inner.AnalyzePreferencePatterns(ctx, history)
	})
}

func (p *Preferences) LearnedPreferences(ctx context.Context, user uuid.UUID) (model.LearnedPreferences, error) {
	return call(ctx, p.g, "LearnedPreferences", func(ctx context.Context) (model.LearnedPreferences, error) {
		return p.inner.LearnedPreferences(ctx, user)
	})
}

func (p *Preferences) UpdatePreferenceLearning(ctx context.Context, user uuid.UUID, ev model.Event, interaction model.UserInteraction) error {
	return do(ctx, p.g, "UpdatePreferenceLearning", func(ctx context.Context) error {
		return p.inner.UpdatePreferenceLearning(ctx, user, ev, interaction)
	})
}

func (p *Preferences) TimeSlotPreferences(ctx context.Context, user uuid.UUID) (model.TimeSlotPreferences, error) {
	return call(ctx, p.g, "TimeSlotPreferences", func(ctx context.Context) (model.TimeSlotPreferences, error) {
		return p.inner.TimeSlotPreferences(ctx, user)
	})
}

func (p *Preferences) TimeCompatibility(ctx context.Context, ev model.Event, prefs model.TimeSlotPreferences) (model.Compatibility, error) {
	return call(ctx, p.g, "TimeCompatibility", func(ctx context.Context) (model.Compatibility, error) {
		return p.inner.TimeCompatibility(ctx, ev, prefs)
	})
}

func (p *Preferences) FamilyProfile(ctx context.Context, user uuid.UUID) (model.FamilyProfile, error) {
	return call(ctx, p.g, "FamilyProfile", func(ctx context.Context) (model.FamilyProfile, error) {
		return p.inner.FamilyProfile(ctx, user)
	})
}

func (p *Preferences) FamilyCompatibility(ctx context.Context, ev model.Event, profile model.FamilyProfile) (model.Compatibility, error) {
	return call(ctx, p.g, "FamilyCompatibility", func(ctx context.Context) (model.Compatibility, error) {
		return p.inner.FamilyCompatibility(ctx, ev, profile)
	})
}

func (p *Preferences) AgeGroupPreferences(ctx context.Context, age int) (model.AgeGroupPreferences, error) {
	return call(ctx, p.g, "AgeGroupPreferences", func(ctx context.Context) (model.AgeGroupPreferences, error) {
		return p.inner.AgeGroupPreferences(ctx, age)
	})
}

func (p *Preferences) AgeCompatibility(ctx context.Context, ev model.Event, prefs model.AgeGroupPreferences) (model.Compatibility, error) {
	return call(ctx, p.g, "AgeCompatibility", func(ctx context.Context) (model.Compatibility, error) {
		return p.inner.AgeCompatibility(ctx, ev, prefs)
	})
}

func (p *Preferences) LanguagePreferences(ctx context.Context, user uuid.UUID) (model.LanguagePreferences, error) {
	return call(ctx, p.g, "LanguagePreferences", func(ctx context.Context) (model.LanguagePreferences, error) {
		return p.inner.LanguagePreferences(ctx, user)
	})
}

func (p *Preferences) LanguageCompatibility(ctx context.Context, ev model.Event, prefs model.LanguagePreferences) (model.Compatibility, error) {
	return call(ctx, p.g, "LanguageCompatibility", func(ctx context.Context) (model.Compatibility, error) {
		return p.inner.LanguageCompatibility(ctx, ev, prefs)
	})
}

func (p *Preferences) InvolvementProfile(ctx context.Context, user uuid.UUID) (model.InvolvementProfile, error) {
	return call(ctx, p.g, "InvolvementProfile", func(ctx context.Context) (model.InvolvementProfile, error) {
		return p.inner.InvolvementProfile(ctx, user)
	})
}

func (p *Preferences) InvolvementCompatibility(ctx context.Context, ev model.Event, profile model.InvolvementProfile) (model.Compatibility, error) {
	return call(ctx, p.g, "InvolvementCompatibility", func(ctx context.Context) (model.Compatibility, error) {
		return p.inner.InvolvementCompatibility(ctx, ev, profile)
	})
}

func (p *Preferences) TransportationPreferences(ctx context.Context, user uuid.UUID) (model.TransportationPreferences, error) {
	return call(ctx, p.g, "TransportationPreferences", func(ctx context.Context) (model.TransportationPreferences, error) {
		return p.inner.TransportationPreferences(ctx, user)
	})
}

func (p *Preferences) MaxTravelDistance(ctx context.Context, user uuid.UUID) (model.Distance, error) {
	return call(ctx, p.g, "MaxTravelDistance", func(ctx context.Context) (model.Distance, error) {
		return p.inner.MaxTravelDistance(ctx, user)
	})
}

func (p *Preferences) UserLocation(ctx context.Context, user uuid.UUID) (model.UserLocation, error) {
	return call(ctx, p.g, "UserLocation", func(ctx context.Context) (model.UserLocation, error) {
		return p.inner.UserLocation(ctx, user)
	})
}

func (p *Preferences) UserAge(ctx context.Context, user uuid.UUID) (int, error) {
	return call(ctx, p.g, "UserAge", func(ctx context.Context) (int, error) {
		return p.inner.UserAge(ctx, user)
	})
}

func (p *Preferences) ScoringWeights(ctx context.Context, user uuid.UUID) (model.ScoringWeights, error) {
	return call(ctx, p.g, "ScoringWeights", func(ctx context.Context) (model.ScoringWeights, error) {
		return p.inner.ScoringWeights(ctx, user)
	})
}

func (p *Preferences) PersonalizedWeights(ctx context.Context, user uuid.UUID) (model.PersonalizedWeights, error) {
	return call(ctx, p.g, "PersonalizedWeights", func(ctx context.Context) (model.PersonalizedWeights, error) {
		return p.inner.PersonalizedWeights(ctx, user)
	})
}

func (p *Preferences) ApplyPersonalizedWeighting(ctx context.Context, base model.BaseEventScore, weights model.PersonalizedWeights) (model.PersonalizedScore, error) {
	return call(ctx, p.g, "ApplyPersonalizedWeighting", func(ctx context.Context) (model.PersonalizedScore, error) {
		return p.inner.ApplyPersonalizedWeighting(ctx, base, weights)
	})
}

func (p *Preferences) ConflictRules(ctx context.Context, user uuid.UUID) (model.ConflictRules, error) {
	return call(ctx, p.g, "ConflictRules", func(ctx context.Context) (model.ConflictRules, error) {
		return p.inner.ConflictRules(ctx, user)
	})
}

func (p *Preferences) ResolveConflicts(ctx context.Context, events []model.Event, rules model.ConflictRules) ([]model.ResolvedEvent, error) {
	return call(ctx, p.g, "ResolveConflicts", func(ctx context.Context) ([]model.ResolvedEvent, error) {
		return p.inner.ResolveConflicts(ctx, events, rules)
	})
}

func (p *Preferences) HandleScoringEdgeCase(ctx context.Context, ev model.Event) (model.EdgeCaseResult, error) {
	return call(ctx, p.g, "HandleScoringEdgeCase", func(ctx context.Context) (model.EdgeCaseResult, error) {
		return p.inner.HandleScoringEdgeCase(ctx, ev)
	})
}

func (p *Preferences) NormalizeScores(ctx context.Context, raw []model.RawScores) ([]model.NormalizedScores, error) {
	return call(ctx, p.g, "NormalizeScores", func(ctx context.Context) ([]model.NormalizedScores, error) {
		return p.inner.NormalizeScores(ctx, raw)
	})
}

func (p *Preferences) TieBreakingRules(ctx context.Context, user uuid.UUID) (model.TieBreakingRules, error) {
	return call(ctx, p.g, "TieBreakingRules", func(ctx context.Context) (model.TieBreakingRules, error) {
		return p.inner.TieBreakingRules(ctx, user)
	})
}

func (p *Preferences) ApplyTieBreaking(ctx context.Context, events []model.Event, rules model.TieBreakingRules) ([]model.Event, error) {
	return call(ctx, p.g, "ApplyTieBreaking", func(ctx context.Context) ([]model.Event, error) {
		return p.inner.ApplyTieBreaking(ctx, events, rules)
	})
}
