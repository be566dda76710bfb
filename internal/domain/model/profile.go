package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/geo"
)

// Learned category weights at or above PrimaryCategoryWeight are primary;
// those at or above SecondaryCategoryWeight are secondary.
const (
	PrimaryCategoryWeight   = 0.7
	SecondaryCategoryWeight = 0.4
)

// FestivalPeriod is the inclusive date range of a named festival.
type FestivalPeriod struct {
	Name  string    `json:"name" yaml:"name"`
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether t falls within [Start, End].
func (p FestivalPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// SignificantDate is a culturally notable calendar date.
type SignificantDate struct {
	Date time.Time `json:"date" yaml:"date"`
	Name string    `json:"name" yaml:"name"`
}

// CalendarValidation is the calendar's verdict on an event.
type CalendarValidation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// NaturePreferences are a user's affinities per event nature.
type NaturePreferences struct {
	Religious float64 `json:"religious" yaml:"religious"`
	Cultural  float64 `json:"cultural" yaml:"cultural"`
	Secular   float64 `json:"secular" yaml:"secular"`
}

// AttendedEvent is one entry of a user's attendance history.
type AttendedEvent struct {
	Category   string    `json:"category" yaml:"category"`
	Rating     float64   `json:"rating" yaml:"rating"`
	Frequency  int       `json:"frequency" yaml:"frequency"`
	AttendedAt time.Time `json:"attended_at" yaml:"attended_at"`
}

// AttendanceHistory is everything a user has attended.
type AttendanceHistory struct {
	UserID        uuid.UUID       `json:"user_id"`
	Attended      []AttendedEvent `json:"attended"`
	AverageRating float64         `json:"average_rating"`
}

// PreferencePatterns summarise an attendance history.
type PreferencePatterns struct {
	Strong           []string           `json:"strong"`
	Weak             []string           `json:"weak"`
	OptimalFrequency float64            `json:"optimal_frequency"`
	Engagement       float64            `json:"engagement"`
	CategoryWeights  map[string]float64 `json:"category_weights,omitempty"`
}

// LearnedPreferences are category weights learned from interactions.
type LearnedPreferences struct {
	Weights    map[string]float64 `json:"weights" yaml:"weights"`
	Confidence float64            `json:"confidence" yaml:"confidence"`
	UpdatedAt  time.Time          `json:"updated_at" yaml:"updated_at"`
	SampleSize int                `json:"sample_size" yaml:"sample_size"`
}

// IsPrimary reports whether category is a primary learned preference.
func (p LearnedPreferences) IsPrimary(category string) bool {
	w, ok := p.Weights[category]
	return ok && w >= PrimaryCategoryWeight
}

// IsSecondary reports whether category is a secondary learned preference.
func (p LearnedPreferences) IsSecondary(category string) bool {
	w, ok := p.Weights[category]
	return ok && w >= SecondaryCategoryWeight && w < PrimaryCategoryWeight
}

// TimeSlot is a preferred time-of-day window, as offsets from midnight.
type TimeSlot struct {
	Start      time.Duration `json:"start" yaml:"start"`
	End        time.Duration `json:"end" yaml:"end"`
	Preference float64       `json:"preference" yaml:"preference"`
}

// Contains reports whether the time of day of t falls within the slot.
func (s TimeSlot) Contains(t time.Time) bool {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	off := t.Sub(midnight)
	return off >= s.Start && off <= s.End
}

// TimeSlotPreferences describe when a user likes to attend.
type TimeSlotPreferences struct {
	PreferredDays         []time.Weekday `json:"preferred_days" yaml:"preferred_days"`
	AvoidedDays           []time.Weekday `json:"avoided_days" yaml:"avoided_days"`
	Slots                 []TimeSlot     `json:"slots" yaml:"slots"`
	WorkingHoursAvoidance float64        `json:"working_hours_avoidance" yaml:"working_hours_avoidance"`
}

// FamilyProfile describes a user's household.
type FamilyProfile struct {
	HasChildren             bool    `json:"has_children" yaml:"has_children"`
	ChildrenAges            []int   `json:"children_ages" yaml:"children_ages"`
	FamilyEventPreference   float64 `json:"family_event_preference" yaml:"family_event_preference"`
	AdultOnlyPreference     float64 `json:"adult_only_preference" yaml:"adult_only_preference"`
	ChildFriendlyImportance float64 `json:"child_friendly_importance" yaml:"child_friendly_importance"`
}

// AgeGroupPreferences are the preferences typical of an age group.
type AgeGroupPreferences struct {
	PreferredAudiences []Audience `json:"preferred_audiences"`
	EnergyLevel        string     `json:"energy_level"`
	SocialInteraction  float64    `json:"social_interaction"`
}

// LanguagePreferences describe which languages a user follows.
type LanguagePreferences struct {
	Primary                []string `json:"primary" yaml:"primary"`
	Secondary              []string `json:"secondary" yaml:"secondary"`
	MultilingualPreference float64  `json:"multilingual_preference" yaml:"multilingual_preference"`
	RequiresTranslation    bool     `json:"requires_translation" yaml:"requires_translation"`
}

// InvolvementProfile describes a user's community engagement.
type InvolvementProfile struct {
	Level           InvolvementLevel `json:"level" yaml:"level"`
	VolunteerHours  int              `json:"volunteer_hours" yaml:"volunteer_hours"`
	LeadershipRoles int              `json:"leadership_roles" yaml:"leadership_roles"`
	Memberships     int              `json:"memberships" yaml:"memberships"`
	Commitment      CommitmentLevel  `json:"commitment" yaml:"commitment"`
	PreferredTypes  []string         `json:"preferred_types" yaml:"preferred_types"`
}

// Compatibility is a score with a short explanation.
type Compatibility struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// TransportationPreferences describe how a user gets to events.
type TransportationPreferences struct {
	Modes            []string `json:"modes" yaml:"modes"`
	MaxTravelMinutes int      `json:"max_travel_minutes" yaml:"max_travel_minutes"`
	NeedsParking     bool     `json:"needs_parking" yaml:"needs_parking"`
}

// Distance is a length with a unit.
type Distance struct {
	Value float64      `json:"value" yaml:"value"`
	Unit  DistanceUnit `json:"unit" yaml:"unit"`
}

// Km returns the distance in kilometers. An empty unit means kilometers.
func (d Distance) Km() float64 {
	if d.Unit == Miles {
		return geo.MilesToKm(d.Value)
	}
	return d.Value
}

// In converts the distance to unit.
func (d Distance) In(unit DistanceUnit) Distance {
	if unit == Miles {
		return Distance{Value: geo.KmToMiles(d.Km()), Unit: Miles}
	}
	return Distance{Value: d.Km(), Unit: Kilometers}
}

// UserLocation is where a user lives. Point is nil when not geocoded.
type UserLocation struct {
	Name  string     `json:"name" yaml:"name"`
	Point *geo.Point `json:"point,omitempty" yaml:"point"`
}

// CommunityCluster is a concentration of community members around a location.
type CommunityCluster struct {
	Location string  `json:"location"`
	Density  float64 `json:"density"`
	Size     int     `json:"size"`
}

// RegionalPreferences are the event patterns typical of a region.
type RegionalPreferences struct {
	Region              string             `json:"region"`
	PreferredCategories map[string]float64 `json:"preferred_categories"`
}

// LocationDistance is the distance from a user to one venue.
type LocationDistance struct {
	Location string  `json:"location"`
	Km       float64 `json:"km"`
	Known    bool    `json:"known"`
}

// MultiLocationProximity is the distance from a user to every venue of an event.
type MultiLocationProximity struct {
	UserLocation string             `json:"user_location"`
	Venues       []LocationDistance `json:"venues"`
}

// Nearest returns the closest known venue.
func (p MultiLocationProximity) Nearest() (LocationDistance, bool) {
	var best LocationDistance
	found := false
	for _, v := range p.Venues {
		if !v.Known {
			continue
		}
		if !found || v.Km < best.Km {
			best, found = v, true
		}
	}
	return best, found
}

// LocationEdgeCase is the geography service's handling of an unusual location.
type LocationEdgeCase struct {
	CanRecommend   bool    `json:"can_recommend"`
	ProximityScore float64 `json:"proximity_score"`
	Reason         string  `json:"reason"`
}

// EdgeCaseResult is the preference store's handling of an unscorable event.
type EdgeCaseResult struct {
	CanScore      bool    `json:"can_score"`
	Handled       bool    `json:"handled"`
	DefaultScore  float64 `json:"default_score"`
	FallbackScore float64 `json:"fallback_score"`
	Strategy      string  `json:"strategy"`
	Explanation   string  `json:"explanation"`
}

// UserInteraction is feedback on an event, forwarded to the preference store.
type UserInteraction struct {
	ID        uuid.UUID       `json:"id"`
	Type      InteractionType `json:"type"`
	Strength  float64         `json:"strength"`
	Context   string          `json:"context,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
