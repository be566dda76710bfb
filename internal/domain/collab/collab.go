// Package collab defines the contracts of the services the recommendation
// engine queries: the cultural calendar, the user preference store and the
// geography service. Every method may block and honours ctx.
package collab

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
)

// CulturalCalendar answers questions about the Buddhist/Hindu calendar.
type CulturalCalendar interface {
	IsPoyaday(ctx context.Context, date time.Time) (bool, error)
	// EventAppropriateness scores an event held on date, in [0,1].
	EventAppropriateness(ctx context.Context, ev model.Event, date time.Time) (float64, error)
	// CalculateAppropriateness scores an event for a cultural background, in [0,1].
	CalculateAppropriateness(ctx context.Context, ev model.Event, background string) (float64, error)
	FestivalPeriod(ctx context.Context, name string, year int) (model.FestivalPeriod, error)
	IsOptimalFestivalTiming(ctx context.Context, ev model.Event, period model.FestivalPeriod) (bool, error)
	ClassifyEventNature(ctx context.Context, ev model.Event) (model.EventNature, error)
	SignificantDates(ctx context.Context, year int) ([]model.SignificantDate, error)
	ValidateEventAgainstCalendar(ctx context.Context, ev model.Event) (model.CalendarValidation, error)
}

// Preferences is the per-user preference and learning store.
type Preferences interface {
	CulturalSensitivity(ctx context.Context, user uuid.UUID) (model.SensitivityLevel, error)
	CulturalBackground(ctx context.Context, user uuid.UUID) (string, error)
	DiasporaAdaptation(ctx context.Context, user uuid.UUID) (model.AdaptationLevel, error)
	NaturePreferences(ctx context.Context, user uuid.UUID) (model.NaturePreferences, error)

	AttendanceHistory(ctx context.Context, user uuid.UUID) (model.AttendanceHistory, error)
	AnalyzePreferencePatterns(ctx context.Context, history model.AttendanceHistory) (model.PreferencePatterns, error)
	LearnedPreferences(ctx context.Context, user uuid.UUID) (model.LearnedPreferences, error)
	UpdatePreferenceLearning(ctx context.Context, user uuid.UUID, ev model.Event, interaction model.UserInteraction) error

	TimeSlotPreferences(ctx context.Context, user uuid.UUID) (model.TimeSlotPreferences, error)
	TimeCompatibility(ctx context.Context, ev model.Event, prefs model.TimeSlotPreferences) (model.Compatibility, error)
	FamilyProfile(ctx context.Context, user uuid.UUID) (model.FamilyProfile, error)
	FamilyCompatibility(ctx context.Context, ev model.Event, profile model.FamilyProfile) (model.Compatibility, error)
	AgeGroupPreferences(ctx context.Context, age int) (model.AgeGroupPreferences, error)
	AgeCompatibility(ctx context.Context, ev model.Event, prefs model.AgeGroupPreferences) (model.Compatibility, error)
	LanguagePreferences(ctx context.Context, user uuid.UUID) (model.LanguagePreferences, error)
	LanguageCompatibility(ctx context.Context, ev model.Event, prefs model.LanguagePreferences) (model.Compatibility, error)
	InvolvementProfile(ctx context.Context, user uuid.UUID) (model.InvolvementProfile, error)
	InvolvementCompatibility(ctx context.Context, ev model.Event, profile model.InvolvementProfile) (model.Compatibility, error)

	TransportationPreferences(ctx context.Context, user uuid.UUID) (model.TransportationPreferences, error)
	MaxTravelDistance(ctx context.Context, user uuid.UUID) (model.Distance, error)
	UserLocation(ctx context.Context, user uuid.UUID) (model.UserLocation, error)
	UserAge(ctx context.Context, user uuid.UUID) (int, error)

	ScoringWeights(ctx context.Context, user uuid.UUID) (model.ScoringWeights, error)
	PersonalizedWeights(ctx context.Context, user uuid.UUID) (model.PersonalizedWeights, error)
	ApplyPersonalizedWeighting(ctx context.Context, base model.BaseEventScore, weights model.PersonalizedWeights) (model.PersonalizedScore, error)

	ConflictRules(ctx context.Context, user uuid.UUID) (model.ConflictRules, error)
	ResolveConflicts(ctx context.Context, events []model.Event, rules model.ConflictRules) ([]model.ResolvedEvent, error)
	HandleScoringEdgeCase(ctx context.Context, ev model.Event) (model.EdgeCaseResult, error)
	NormalizeScores(ctx context.Context, raw []model.RawScores) ([]model.NormalizedScores, error)
	TieBreakingRules(ctx context.Context, user uuid.UUID) (model.TieBreakingRules, error)
	ApplyTieBreaking(ctx context.Context, events []model.Event, rules model.TieBreakingRules) ([]model.Event, error)
}

// Geography answers location questions about the diaspora community.
type Geography interface {
	IsDiasporaLocation(ctx context.Context, location string) (bool, error)
	// CommunityDensity is the relative community density at location, in [0,1].
	CommunityDensity(ctx context.Context, location string) (float64, error)
	AnalyzeCommunityClusters(ctx context.Context, userLocation string, events []model.Event) ([]model.CommunityCluster, error)
	Distance(ctx context.Context, from, to geo.Point) (model.Distance, error)
	RegionalPreferences(ctx context.Context, location string) (model.RegionalPreferences, error)
	RegionalMatch(ctx context.Context, ev model.Event, prefs model.RegionalPreferences) (float64, error)
	TransportationAccessibility(ctx context.Context, ev model.Event, prefs model.TransportationPreferences) (float64, error)
	MultiLocationProximity(ctx context.Context, userLocation string, eventLocations []string) (model.MultiLocationProximity, error)
	ProximityScore(ctx context.Context, proximity model.MultiLocationProximity) (float64, error)
	HandleLocationEdgeCase(ctx context.Context, userLocation string, ev model.Event) (model.LocationEdgeCase, error)
}
