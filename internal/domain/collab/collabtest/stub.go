// Package collabtest provides a configurable in-process implementation of
// the three collaborator contracts for tests. Any method can be made to
// fail or to block until its context is done.
package collabtest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/collab"
	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/domain/scoring"
)

// ErrStub is the error returned by methods listed in Stub.Fail without an explicit error.
var ErrStub = errors.New("collabtest: injected failure")

var (
	_ collab.CulturalCalendar = (*Stub)(nil)
	_ collab.Preferences      = (*Stub)(nil)
	_ collab.Geography        = (*Stub)(nil)
)

// Stub implements collab.CulturalCalendar, collab.Preferences and
// collab.Geography from plain fields. Per-event tables are keyed by event
// ID; missing entries use the matching Default field.
type Stub struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	block map[string]bool

	// calendar
	Poyadays               map[string]bool // keyed by 2006-01-02
	Appropriateness        map[uuid.UUID]float64
	DefaultAppropriateness float64
	Festival               model.FestivalPeriod
	OptimalTiming          map[uuid.UUID]bool
	Nature                 map[uuid.UUID]model.EventNature
	SignificantDateList    []model.SignificantDate
	Invalid                map[uuid.UUID]bool

	// preferences
	Sensitivity        model.SensitivityLevel
	Background         string
	Adaptation         model.AdaptationLevel
	Natures            model.NaturePreferences
	History            model.AttendanceHistory
	Patterns           model.PreferencePatterns
	Learned            model.LearnedPreferences
	TimeScore          float64
	LanguageScore      float64
	FamilyScore        float64
	InvolvementScore   float64
	AgeScore           float64
	Involvement        model.InvolvementProfile
	Transport          model.TransportationPreferences
	MaxDistance        model.Distance
	Location           model.UserLocation
	Age                int
	Weights            model.ScoringWeights
	PWeights           model.PersonalizedWeights
	Rules              model.ConflictRules
	Resolved           []model.ResolvedEvent
	EdgeCases          map[uuid.UUID]model.EdgeCaseResult
	TieRules           model.TieBreakingRules
	TieOrder           []uuid.UUID
	RecordedFeedback   []model.UserInteraction
	NormalizedOverride map[uuid.UUID]float64

	// geography
	Diaspora       map[string]bool
	Density        map[string]float64
	Clusters       []model.CommunityCluster
	Regional       map[uuid.UUID]float64
	Accessibility  map[uuid.UUID]float64
	Proximity      map[string]float64 // keyed by the nearest venue name
	LocationEdges  map[uuid.UUID]model.LocationEdgeCase
	VenuePoints    map[string]geo.Point
	DefaultScore   float64
	DefaultDensity float64
}

// New returns a Stub with neutral defaults and the default scoring weights.
func New() *Stub {
	return &Stub{
		calls:                  map[string]int{},
		fail:                   map[string]error{},
		block:                  map[string]bool{},
		Poyadays:               map[string]bool{},
		Appropriateness:        map[uuid.UUID]float64{},
		DefaultAppropriateness: 0.5,
		OptimalTiming:          map[uuid.UUID]bool{},
		Nature:                 map[uuid.UUID]model.EventNature{},
		Invalid:                map[uuid.UUID]bool{},
		TimeScore:              0.5,
		LanguageScore:          0.5,
		FamilyScore:            0.5,
		InvolvementScore:       0.5,
		AgeScore:               0.5,
		Weights:                model.DefaultScoringWeights(),
		PWeights:               model.DefaultPersonalizedWeights(),
		Rules:                  model.DefaultConflictRules(),
		EdgeCases:              map[uuid.UUID]model.EdgeCaseResult{},
		TieRules:               model.DefaultTieBreakingRules(),
		Diaspora:               map[string]bool{},
		Density:                map[string]float64{},
		Regional:               map[uuid.UUID]float64{},
		Accessibility:          map[uuid.UUID]float64{},
		Proximity:              map[string]float64{},
		LocationEdges:          map[uuid.UUID]model.LocationEdgeCase{},
		VenuePoints:            map[string]geo.Point{},
		DefaultScore:           0.5,
	}
}

// Fail makes method return err (ErrStub when err is nil).
func (s *Stub) Fail(method string, err error) *Stub {
	if err == nil {
		err = ErrStub
	}
	s.mu.Lock()
	s.fail[method] = err
	s.mu.Unlock()
	return s
}

// Heal clears a failure set with Fail.
func (s *Stub) Heal(method string) *Stub {
	s.mu.Lock()
	delete(s.fail, method)
	s.mu.Unlock()
	return s
}

// Block makes method wait until its context is done.
func (s *Stub) Block(method string) *Stub {
	s.mu.Lock()
	s.block[method] = true
	s.mu.Unlock()
	return s
}

// Calls returns how many times method was invoked.
func (s *Stub) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Feedback returns the interactions forwarded so far.
func (s *Stub) Feedback() []model.UserInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.RecordedFeedback)
}

func (s *Stub) enter(ctx context.Context, method string) error {
	s.mu.Lock()
	s.calls[method]++
	err, blocked := s.fail[method], s.block[method]
	s.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func lookup[K comparable, V any](m map[K]V, k K, def V) V {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}

// IsPoyaday implements collab.CulturalCalendar.
func (s *Stub) IsPoyaday(ctx context.Context, date time.Time) (bool, error) {
	if err := s.enter(ctx, "IsPoyaday"); err != nil {
		return false, err
	}
	return s.Poyadays[date.Format(time.DateOnly)], nil
}

// EventAppropriateness implements collab.CulturalCalendar.
func (s *Stub) EventAppropriateness(ctx context.Context, ev model.Event, _ time.Time) (float64, error) {
	if err := s.enter(ctx, "EventAppropriateness"); err != nil {
		return 0, err
	}
	return lookup(s.Appropriateness, ev.ID, s.DefaultAppropriateness), nil
}

// CalculateAppropriateness implements collab.CulturalCalendar.
func (s *Stub) CalculateAppropriateness(ctx context.Context, ev model.Event, _ string) (float64, error) {
	if err := s.enter(ctx, "CalculateAppropriateness"); err != nil {
		return 0, err
	}
	return lookup(s.Appropriateness, ev.ID, s.DefaultAppropriateness), nil
}

// FestivalPeriod implements collab.CulturalCalendar.
func (s *Stub) FestivalPeriod(ctx context.Context, name string, _ int) (model.FestivalPeriod, error) {
	if err := s.enter(ctx, "FestivalPeriod"); err != nil {
		return model.FestivalPeriod{}, err
	}
	p := s.Festival
	if p.Name == "" {
		p.Name = name
	}
	return p, nil
}

// IsOptimalFestivalTiming implements collab.CulturalCalendar.
func (s *Stub) IsOptimalFestivalTiming(ctx context.Context, ev model.Event, _ model.FestivalPeriod) (bool, error) {
	if err := s.enter(ctx, "IsOptimalFestivalTiming"); err != nil {
		return false, err
	}
	return s.OptimalTiming[ev.ID], nil
}

// ClassifyEventNature implements collab.CulturalCalendar.
func (s *Stub) ClassifyEventNature(ctx context.Context, ev model.Event) (model.EventNature, error) {
	if err := s.enter(ctx, "ClassifyEventNature"); err != nil {
		return model.NatureUnknown, err
	}
	return lookup(s.Nature, ev.ID, model.NatureUnknown), nil
}

// SignificantDates implements collab.CulturalCalendar.
func (s *Stub) SignificantDates(ctx context.Context, _ int) ([]model.SignificantDate, error) {
	if err := s.enter(ctx, "SignificantDates"); err != nil {
		return nil, err
	}
	return slices.Clone(s.SignificantDateList), nil
}

// ValidateEventAgainstCalendar implements collab.CulturalCalendar.
func (s *Stub) ValidateEventAgainstCalendar(ctx context.Context, ev model.Event) (model.CalendarValidation, error) {
	if err := s.enter(ctx, "ValidateEventAgainstCalendar"); err != nil {
		return model.CalendarValidation{}, err
	}
	if s.Invalid[ev.ID] {
		return model.CalendarValidation{Issues: []string{"conflicts with observance"}}, nil
	}
	return model.CalendarValidation{Valid: true}, nil
}

// CulturalSensitivity implements collab.Preferences.
func (s *Stub) CulturalSensitivity(ctx context.Context, _ uuid.UUID) (model.SensitivityLevel, error) {
	if err := s.enter(ctx, "CulturalSensitivity"); err != nil {
		return model.SensitivityUnset, err
	}
	return s.Sensitivity, nil
}

// CulturalBackground implements collab.Preferences.
func (s *Stub) CulturalBackground(ctx context.Context, _ uuid.UUID) (string, error) {
	if err := s.enter(ctx, "CulturalBackground"); err != nil {
		return "", err
	}
	return s.Background, nil
}

// DiasporaAdaptation implements collab.Preferences.
func (s *Stub) DiasporaAdaptation(ctx context.Context, _ uuid.UUID) (model.AdaptationLevel, error) {
	if err := s.enter(ctx, "DiasporaAdaptation"); err != nil {
		return model.AdaptationFullyIntegrated, err
	}
	return s.Adaptation, nil
}

// NaturePreferences implements collab.Preferences.
func (s *Stub) NaturePreferences(ctx context.Context, _ uuid.UUID) (model.NaturePreferences, error) {
	if err := s.enter(ctx, "NaturePreferences"); err != nil {
		return model.NaturePreferences{}, err
	}
	return s.Natures, nil
}

// AttendanceHistory implements collab.Preferences.
func (s *Stub) AttendanceHistory(ctx context.Context, user uuid.UUID) (model.AttendanceHistory, error) {
	if err := s.enter(ctx, "AttendanceHistory"); err != nil {
		return model.AttendanceHistory{}, err
	}
	h := s.History
	h.UserID = user
	return h, nil
}

// AnalyzePreferencePatterns implements collab.Preferences.
func (s *Stub) AnalyzePreferencePatterns(ctx context.Context, _ model.AttendanceHistory) (model.PreferencePatterns, error) {
	if err := s.enter(ctx, "AnalyzePreferencePatterns"); err != nil {
		return model.PreferencePatterns{}, err
	}
	return s.Patterns, nil
}

// LearnedPreferences implements collab.Preferences.
func (s *Stub) LearnedPreferences(ctx context.Context, _ uuid.UUID) (model.LearnedPreferences, error) {
	if err := s.enter(ctx, "LearnedPreferences"); err != nil {
		return model.LearnedPreferences{}, err
	}
	return s.Learned, nil
}

// UpdatePreferenceLearning implements collab.Preferences.
func (s *Stub) UpdatePreferenceLearning(ctx context.Context, _ uuid.UUID, _ model.Event, interaction model.UserInteraction) error {
	if err := s.enter(ctx, "UpdatePreferenceLearning"); err != nil {
		return err
	}
	s.mu.Lock()
	s.RecordedFeedback = append(s.RecordedFeedback, interaction)
	s.mu.Unlock()
	return nil
}

// TimeSlotPreferences implements collab.Preferences.
func (s *Stub) TimeSlotPreferences(ctx context.Context, _ uuid.UUID) (model.TimeSlotPreferences, error) {
	return model.TimeSlotPreferences{}, s.enter(ctx, "TimeSlotPreferences")
}

// TimeCompatibility implements collab.Preferences.
func (s *Stub) TimeCompatibility(ctx context.Context, _ model.Event, _ model.TimeSlotPreferences) (model.Compatibility, error) {
	if err := s.enter(ctx, "TimeCompatibility"); err != nil {
		return model.Compatibility{}, err
	}
	return model.Compatibility{Score: s.TimeScore}, nil
}

// FamilyProfile implements collab.Preferences.
func (s *Stub) FamilyProfile(ctx context.Context, _ uuid.UUID) (model.FamilyProfile, error) {
	return model.FamilyProfile{}, s.enter(ctx, "FamilyProfile")
}

// FamilyCompatibility implements collab.Preferences.
func (s *Stub) FamilyCompatibility(ctx context.Context, _ model.Event, _ model.FamilyProfile) (model.Compatibility, error) {
	if err := s.enter(ctx, "FamilyCompatibility"); err != nil {
		return model.Compatibility{}, err
	}
	return model.Compatibility{Score: s.FamilyScore}, nil
}

// AgeGroupPreferences implements collab.Preferences.
func (s *Stub) AgeGroupPreferences(ctx context.Context, _ int) (model.AgeGroupPreferences, error) {
	return model.AgeGroupPreferences{}, s.enter(ctx, "AgeGroupPreferences")
}

// AgeCompatibility implements collab.Preferences.
func (s *Stub) AgeCompatibility(ctx context.Context, _ model.Event, _ model.AgeGroupPreferences) (model.Compatibility, error) {
	if err := s.enter(ctx, "AgeCompatibility"); err != nil {
		return model.Compatibility{}, err
	}
	return model.Compatibility{Score: s.AgeScore}, nil
}

// LanguagePreferences implements collab.Preferences.
func (s *Stub) LanguagePreferences(ctx context.Context, _ uuid.UUID) (model.LanguagePreferences, error) {
	return model.LanguagePreferences{}, s.enter(ctx, "LanguagePreferences")
}

// LanguageCompatibility implements collab.Preferences.
func (s *Stub) LanguageCompatibility(ctx context.Context, _ model.Event, _ model.LanguagePreferences) (model.Compatibility, error) {
	if err := s.enter(ctx, "LanguageCompatibility"); err != nil {
		return model.Compatibility{}, err
	}
	return model.Compatibility{Score: s.LanguageScore}, nil
}

// InvolvementProfile implements collab.Preferences.
func (s *Stub) InvolvementProfile(ctx context.Context, _ uuid.UUID) (model.InvolvementProfile, error) {
	if err := s.enter(ctx, "InvolvementProfile"); err != nil {
		return model.InvolvementProfile{}, err
	}
	return s.Involvement, nil
}

// InvolvementCompatibility implements collab.Preferences.
func (s *Stub) InvolvementCompatibility(ctx context.Context, _ model.Event, _ model.InvolvementProfile) (model.Compatibility, error) {
	if err := s.enter(ctx, "InvolvementCompatibility"); err != nil {
		return model.Compatibility{}, err
	}
	return model.Compatibility{Score: s.InvolvementScore}, nil
}

// TransportationPreferences implements collab.Preferences.
func (s *Stub) TransportationPreferences(ctx context.Context, _ uuid.UUID) (model.TransportationPreferences, error) {
	if err := s.enter(ctx, "TransportationPreferences"); err != nil {
		return model.TransportationPreferences{}, err
	}
	return s.Transport, nil
}

// MaxTravelDistance implements collab.Preferences.
func (s *Stub) MaxTravelDistance(ctx context.Context, _ uuid.UUID) (model.Distance, error) {
	if err := s.enter(ctx, "MaxTravelDistance"); err != nil {
		return model.Distance{}, err
	}
	return s.MaxDistance, nil
}

// UserLocation implements collab.Preferences.
func (s *Stub) UserLocation(ctx context.Context, _ uuid.UUID) (model.UserLocation, error) {
	if err := s.enter(ctx, "UserLocation"); err != nil {
		return model.UserLocation{}, err
	}
	return s.Location, nil
}

// UserAge implements collab.Preferences.
func (s *Stub) UserAge(ctx context.Context, _ uuid.UUID) (int, error) {
	if err := s.enter(ctx, "UserAge"); err != nil {
		return 0, err
	}
	return s.Age, nil
}

// ScoringWeights implements collab.Preferences.
func (s *Stub) ScoringWeights(ctx context.Context, _ uuid.UUID) (model.ScoringWeights, error) {
	if err := s.enter(ctx, "ScoringWeights"); err != nil {
		return model.ScoringWeights{}, err
	}
	return s.Weights, nil
}

// PersonalizedWeights implements collab.Preferences.
func (s *Stub) PersonalizedWeights(ctx context.Context, _ uuid.UUID) (model.PersonalizedWeights, error) {
	if err := s.enter(ctx, "PersonalizedWeights"); err != nil {
		return model.PersonalizedWeights{}, err
	}
	return s.PWeights, nil
}

// ApplyPersonalizedWeighting implements collab.Preferences.
func (s *Stub) ApplyPersonalizedWeighting(ctx context.Context, base model.BaseEventScore, w model.PersonalizedWeights) (model.PersonalizedScore, error) {
	if err := s.enter(ctx, "ApplyPersonalizedWeighting"); err != nil {
		return model.PersonalizedScore{}, err
	}
	return scoring.Personalize(base, w), nil
}

// ConflictRules implements collab.Preferences.
func (s *Stub) ConflictRules(ctx context.Context, _ uuid.UUID) (model.ConflictRules, error) {
	if err := s.enter(ctx, "ConflictRules"); err != nil {
		return model.ConflictRules{}, err
	}
	return s.Rules, nil
}

// ResolveConflicts implements collab.Preferences. Without a configured
// resolution every event is accepted in input order.
func (s *Stub) ResolveConflicts(ctx context.Context, events []model.Event, _ model.ConflictRules) ([]model.ResolvedEvent, error) {
	if err := s.enter(ctx, "ResolveConflicts"); err != nil {
		return nil, err
	}
	if s.Resolved != nil {
		return slices.Clone(s.Resolved), nil
	}
	out := make([]model.ResolvedEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, model.ResolvedEvent{Event: ev, Score: 1, Resolution: "Accepted: no conflict"})
	}
	return out, nil
}

// HandleScoringEdgeCase implements collab.Preferences.
func (s *Stub) HandleScoringEdgeCase(ctx context.Context, ev model.Event) (model.EdgeCaseResult, error) {
	if err := s.enter(ctx, "HandleScoringEdgeCase"); err != nil {
		return model.EdgeCaseResult{}, err
	}
	return s.EdgeCases[ev.ID], nil
}

// NormalizeScores implements collab.Preferences. Composites listed in
// NormalizedOverride replace the computed mean.
func (s *Stub) NormalizeScores(ctx context.Context, raw []model.RawScores) ([]model.NormalizedScores, error) {
	if err := s.enter(ctx, "NormalizeScores"); err != nil {
		return nil, err
	}
	out := make([]model.NormalizedScores, 0, len(raw))
	for _, r := range raw {
		n := model.NewNormalizedScores(r.Event, r.Components)
		if v, ok := s.NormalizedOverride[r.Event.ID]; ok {
			n.Composite = v
		}
		out = append(out, n)
	}
	return out, nil
}

// TieBreakingRules implements collab.Preferences.
func (s *Stub) TieBreakingRules(ctx context.Context, _ uuid.UUID) (model.TieBreakingRules, error) {
	if err := s.enter(ctx, "TieBreakingRules"); err != nil {
		return model.TieBreakingRules{}, err
	}
	return s.TieRules, nil
}

// ApplyTieBreaking implements collab.Preferences. TieOrder, when set,
// lists event IDs in the order to return; others keep input order after them.
func (s *Stub) ApplyTieBreaking(ctx context.Context, events []model.Event, _ model.TieBreakingRules) ([]model.Event, error) {
	if err := s.enter(ctx, "ApplyTieBreaking"); err != nil {
		return nil, err
	}
	out := slices.Clone(events)
	if len(s.TieOrder) == 0 {
		return out, nil
	}
	rank := func(id uuid.UUID) int {
		if i := slices.Index(s.TieOrder, id); i >= 0 {
			return i
		}
		return len(s.TieOrder)
	}
	slices.SortStableFunc(out, func(a, b model.Event) int { return rank(a.ID) - rank(b.ID) })
	return out, nil
}

// IsDiasporaLocation implements collab.Geography.
func (s *Stub) IsDiasporaLocation(ctx context.Context, location string) (bool, error) {
	if err := s.enter(ctx, "IsDiasporaLocation"); err != nil {
		return false, err
	}
	return s.Diaspora[location], nil
}

// CommunityDensity implements collab.Geography.
func (s *Stub) CommunityDensity(ctx context.Context, location string) (float64, error) {
	if err := s.enter(ctx, "CommunityDensity"); err != nil {
		return 0, err
	}
	return lookup(s.Density, location, s.DefaultDensity), nil
}

// AnalyzeCommunityClusters implements collab.Geography.
func (s *Stub) AnalyzeCommunityClusters(ctx context.Context, _ string, _ []model.Event) ([]model.CommunityCluster, error) {
	if err := s.enter(ctx, "AnalyzeCommunityClusters"); err != nil {
		return nil, err
	}
	return slices.Clone(s.Clusters), nil
}

// Distance implements collab.Geography with the Haversine formula.
func (s *Stub) Distance(ctx context.Context, from, to geo.Point) (model.Distance, error) {
	if err := s.enter(ctx, "Distance"); err != nil {
		return model.Distance{}, err
	}
	return model.Distance{Value: geo.Distance(from, to), Unit: model.Kilometers}, nil
}

// RegionalPreferences implements collab.Geography.
func (s *Stub) RegionalPreferences(ctx context.Context, location string) (model.RegionalPreferences, error) {
	if err := s.enter(ctx, "RegionalPreferences"); err != nil {
		return model.RegionalPreferences{}, err
	}
	return model.RegionalPreferences{Region: location}, nil
}

// RegionalMatch implements collab.Geography.
func (s *Stub) RegionalMatch(ctx context.Context, ev model.Event, _ model.RegionalPreferences) (float64, error) {
	if err := s.enter(ctx, "RegionalMatch"); err != nil {
		return 0, err
	}
	return lookup(s.Regional, ev.ID, s.DefaultScore), nil
}

// TransportationAccessibility implements collab.Geography.
func (s *Stub) TransportationAccessibility(ctx context.Context, ev model.Event, _ model.TransportationPreferences) (float64, error) {
	if err := s.enter(ctx, "TransportationAccessibility"); err != nil {
		return 0, err
	}
	return lookup(s.Accessibility, ev.ID, s.DefaultScore), nil
}

// MultiLocationProximity implements collab.Geography. Venues without a
// point in VenuePoints are unknown.
func (s *Stub) MultiLocationProximity(ctx context.Context, userLocation string, venues []string) (model.MultiLocationProximity, error) {
	if err := s.enter(ctx, "MultiLocationProximity"); err != nil {
		return model.MultiLocationProximity{}, err
	}
	out := model.MultiLocationProximity{UserLocation: userLocation}
	home, homeOK := s.VenuePoints[userLocation]
	for _, v := range venues {
		p, ok := s.VenuePoints[v]
		d := model.LocationDistance{Location: v, Known: ok && homeOK}
		if d.Known {
			d.Km = geo.Distance(home, p)
		}
		out.Venues = append(out.Venues, d)
	}
	return out, nil
}

// ProximityScore implements collab.Geography.
func (s *Stub) ProximityScore(ctx context.Context, p model.MultiLocationProximity) (float64, error) {
	if err := s.enter(ctx, "ProximityScore"); err != nil {
		return 0, err
	}
	nearest, ok := p.Nearest()
	if !ok {
		return s.DefaultScore, nil
	}
	return lookup(s.Proximity, nearest.Location, s.DefaultScore), nil
}

// HandleLocationEdgeCase implements collab.Geography.
func (s *Stub) HandleLocationEdgeCase(ctx context.Context, _ string, ev model.Event) (model.LocationEdgeCase, error) {
	if err := s.enter(ctx, "HandleLocationEdgeCase"); err != nil {
		return model.LocationEdgeCase{}, err
	}
	return s.LocationEdges[ev.ID], nil
}
