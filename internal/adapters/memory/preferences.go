package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/domain/scoring"
	"github.com/okian/eventrec/internal/fixture"
	"github.com/okian/eventrec/pkg/logger"
)

const (
	strongRating       = 4
	weakRating         = 2
	maxRating          = 5
	eventsPerYear      = 12
	confidentSamples   = 20
	defaultEventLength = 2 * time.Hour
	workdayStart       = 9
	workdayEnd         = 17
)

// CulturalSensitivity implements collab.Preferences.
func (s *Store) CulturalSensitivity(ctx context.Context, user uuid.UUID) (model.SensitivityLevel, error) {
	return read(ctx, s, user, func(u *fixture.User) model.SensitivityLevel { return u.Sensitivity })
}

// CulturalBackground implements collab.Preferences.
func (s *Store) CulturalBackground(ctx context.Context, user uuid.UUID) (string, error) {
	return read(ctx, s, user, func(u *fixture.User) string { return u.Background })
}

// DiasporaAdaptation implements collab.Preferences.
func (s *Store) DiasporaAdaptation(ctx context.Context, user uuid.UUID) (model.AdaptationLevel, error) {
	return read(ctx, s, user, func(u *fixture.User) model.AdaptationLevel { return u.Adaptation })
}

// NaturePreferences implements collab.Preferences.
func (s *Store) NaturePreferences(ctx context.Context, user uuid.UUID) (model.NaturePreferences, error) {
	return read(ctx, s, user, func(u *fixture.User) model.NaturePreferences { return u.Natures })
}

// AttendanceHistory implements collab.Preferences.
func (s *Store) AttendanceHistory(ctx context.Context, user uuid.UUID) (model.AttendanceHistory, error) {
	return read(ctx, s, user, func(u *fixture.User) model.AttendanceHistory {
		h := model.AttendanceHistory{UserID: user, Attended: slices.Clone(u.History)}
		for _, a := range u.History {
			h.AverageRating += a.Rating
		}
		if len(u.History) > 0 {
			h.AverageRating /= float64(len(u.History))
		}
		return h
	})
}

// AnalyzePreferencePatterns implements collab.Preferences. Categories
// averaging a rating of 4 or more are strong, 2 or less weak.
func (s *Store) AnalyzePreferencePatterns(ctx context.Context, history model.AttendanceHistory) (model.PreferencePatterns, error) {
	if err := ctx.Err(); err != nil {
		return model.PreferencePatterns{}, err
	}
	if len(history.Attended) == 0 {
		return model.PreferencePatterns{}, nil
	}

	type tally struct {
		sum float64
		n   int
	}
	tallies := make(map[string]*tally)
	var ratings float64
	var frequency int
	for _, a := range history.Attended {
		t, ok := tallies[a.Category]
		if !ok {
			t = &tally{}
			tallies[a.Category] = t
		}
		t.sum += a.Rating
		t.n++
		ratings += a.Rating
		frequency += a.Frequency
	}

	p := model.PreferencePatterns{
		OptimalFrequency: clamp01(float64(frequency) / eventsPerYear),
		Engagement:       clamp01(ratings / float64(len(history.Attended)) / maxRating),
		CategoryWeights:  make(map[string]float64, len(tallies)),
	}
	for _, c := range slices.Sorted(maps.Keys(tallies)) {
		avg := tallies[c].sum / float64(tallies[c].n)
		p.CategoryWeights[c] = clamp01(avg / maxRating)
		switch {
		case avg >= strongRating:
			p.Strong = append(p.Strong, c)
		case avg <= weakRating:
			p.Weak = append(p.Weak, c)
		}
	}
	return p, nil
}

// LearnedPreferences implements collab.Preferences.
func (s *Store) LearnedPreferences(ctx context.Context, user uuid.UUID) (model.LearnedPreferences, error) {
	return read(ctx, s, user, func(u *fixture.User) model.LearnedPreferences {
		l := u.Learned
		l.Weights = maps.Clone(l.Weights)
		return l
	})
}

// UpdatePreferenceLearning implements collab.Preferences. The weight of the
// event's category moves toward the interaction's signal by the learning
// rate; confidence grows with the number of samples.
func (s *Store) UpdatePreferenceLearning(ctx context.Context, user uuid.UUID, ev model.Event, interaction model.UserInteraction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(user)
	if err != nil {
		return err
	}
	l := &u.Learned
	if category := strings.TrimSpace(ev.Category); category != "" {
		if l.Weights == nil {
			l.Weights = make(map[string]float64)
		}
		w := l.Weights[category]
		l.Weights[category] = clamp01(w + s.learningRate*(signal(interaction)-w))
	}
	l.SampleSize++
	l.Confidence = clamp01(float64(l.SampleSize) / confidentSamples)
	l.UpdatedAt = interaction.Timestamp
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now()
	}

	s.logger.Debug(ctx, "preference learned",
		logger.String("user", user.String()),
		logger.String("category", ev.Category),
		logger.String("interaction", interaction.Type.String()),
		logger.Int("samples", l.SampleSize),
	)
	return nil
}

// signal is the preference an interaction expresses, in [0,1].
func signal(i model.UserInteraction) float64 {
	switch i.Type {
	case model.InteractionAttend:
		return 1
	case model.InteractionRegister:
		return 0.9
	case model.InteractionBookmark, model.InteractionShare:
		return 0.8
	case model.InteractionClick:
		return 0.6
	case model.InteractionRate:
		return clamp01(i.Strength)
	case model.InteractionSkip:
		return 0
	default:
		return neutral
	}
}

// TimeSlotPreferences implements collab.Preferences.
func (s *Store) TimeSlotPreferences(ctx context.Context, user uuid.UUID) (model.TimeSlotPreferences, error) {
	return read(ctx, s, user, func(u *fixture.User) model.TimeSlotPreferences { return u.TimeSlots })
}

// TimeCompatibility implements collab.Preferences.
func (s *Store) TimeCompatibility(ctx context.Context, ev model.Event, prefs model.TimeSlotPreferences) (model.Compatibility, error) {
	if err := ctx.Err(); err != nil {
		return model.Compatibility{}, err
	}
	start := ev.StartDate
	if start.IsZero() {
		return model.Compatibility{Score: neutral, Reason: "no start time"}, nil
	}

	v := neutral
	day := start.Weekday()
	if slices.Contains(prefs.PreferredDays, day) {
		v += 0.2
	}
	if slices.Contains(prefs.AvoidedDays, day) {
		v -= 0.3
	}
	best, matched := 0.0, false
	for _, slot := range prefs.Slots {
		if slot.Contains(start) && (!matched || slot.Preference > best) {
			best, matched = slot.Preference, true
		}
	}
	if matched {
		v = (v + best) / 2
	}
	if day != time.Saturday && day != time.Sunday && start.Hour() >= workdayStart && start.Hour() < workdayEnd {
		v -= 0.3 * prefs.WorkingHoursAvoidance
	}
	return model.Compatibility{Score: clamp01(v), Reason: fmt.Sprintf("%s %s", day, start.Format("15:04"))}, nil
}

// FamilyProfile implements collab.Preferences.
func (s *Store) FamilyProfile(ctx context.Context, user uuid.UUID) (model.FamilyProfile, error) {
	return read(ctx, s, user, func(u *fixture.User) model.FamilyProfile { return u.Family })
}

// FamilyCompatibility implements collab.Preferences.
func (s *Store) FamilyCompatibility(ctx context.Context, ev model.Event, p model.FamilyProfile) (model.Compatibility, error) {
	if err := ctx.Err(); err != nil {
		return model.Compatibility{}, err
	}
	switch ev.Audience {
	case model.AudienceFamily:
		if p.HasChildren {
			return model.Compatibility{Score: clamp01(0.6 + 0.4*p.FamilyEventPreference), Reason: "family event"}, nil
		}
		return model.Compatibility{Score: 0.4, Reason: "family event"}, nil
	case model.AudienceAdults:
		if p.HasChildren {
			return model.Compatibility{Score: clamp01(neutral + 0.3*p.AdultOnlyPreference - 0.3*p.ChildFriendlyImportance), Reason: "adults only"}, nil
		}
		return model.Compatibility{Score: clamp01(0.6 + 0.4*p.AdultOnlyPreference), Reason: "adults only"}, nil
	case model.AudienceAll, "":
		if p.HasChildren {
			return model.Compatibility{Score: clamp01(neutral + 0.2*p.ChildFriendlyImportance), Reason: "general audience"}, nil
		}
	}
	return model.Compatibility{Score: neutral, Reason: "general audience"}, nil
}

// AgeGroupPreferences implements collab.Preferences. Ages below 25 are
// youth, 60 and above senior; an unknown age yields a general group.
func (s *Store) AgeGroupPreferences(ctx context.Context, age int) (model.AgeGroupPreferences, error) {
	if err := ctx.Err(); err != nil {
		return model.AgeGroupPreferences{}, err
	}
	switch {
	case age <= 0:
		return model.AgeGroupPreferences{PreferredAudiences: []model.Audience{model.AudienceAll}, EnergyLevel: "medium", SocialInteraction: neutral}, nil
	case age < 25:
		return model.AgeGroupPreferences{PreferredAudiences: []model.Audience{model.AudienceYouth, model.AudienceAll}, EnergyLevel: "high", SocialInteraction: 0.8}, nil
	case age < 60:
		return model.AgeGroupPreferences{PreferredAudiences: []model.Audience{model.AudienceAdults, model.AudienceFamily, model.AudienceAll}, EnergyLevel: "medium", SocialInteraction: 0.6}, nil
	default:
		return model.AgeGroupPreferences{PreferredAudiences: []model.Audience{model.AudienceSenior, model.AudienceAll}, EnergyLevel: "low", SocialInteraction: neutral}, nil
	}
}

// AgeCompatibility implements collab.Preferences. The group's first
// audience fits best.
func (s *Store) AgeCompatibility(ctx context.Context, ev model.Event, prefs model.AgeGroupPreferences) (model.Compatibility, error) {
	if err := ctx.Err(); err != nil {
		return model.Compatibility{}, err
	}
	audience := ev.Audience
	if audience == "" {
		audience = model.AudienceAll
	}
	switch i := slices.Index(prefs.PreferredAudiences, audience); {
	case i == 0:
		return model.Compatibility{Score: 0.9, Reason: "preferred audience"}, nil
	case i > 0:
		return model.Compatibility{Score: 0.7, Reason: "suitable audience"}, nil
	default:
		return model.Compatibility{Score: 0.3, Reason: "other audience"}, nil
	}
}

// LanguagePreferences implements collab.Preferences.
func (s *Store) LanguagePreferences(ctx context.Context, user uuid.UUID) (model.LanguagePreferences, error) {
	return read(ctx, s, user, func(u *fixture.User) model.LanguagePreferences { return u.Languages })
}

// LanguageCompatibility implements collab.Preferences.
func (s *Store) LanguageCompatibility(ctx context.Context, ev model.Event, p model.LanguagePreferences) (model.Compatibility, error) {
	if err := ctx.Err(); err != nil {
		return model.Compatibility{}, err
	}
	lang := strings.TrimSpace(ev.Language)
	switch {
	case lang == "":
		return model.Compatibility{Score: neutral, Reason: "language not specified"}, nil
	case containsFold(p.Primary, lang):
		return model.Compatibility{Score: 1, Reason: "primary language"}, nil
	case containsFold(p.Secondary, lang):
		return model.Compatibility{Score: 0.7, Reason: "secondary language"}, nil
	case len(p.Primary) == 0 && len(p.Secondary) == 0:
		return model.Compatibility{Score: neutral, Reason: "no language preferences"}, nil
	case p.RequiresTranslation:
		return model.Compatibility{Score: 0.1, Reason: "translation required"}, nil
	default:
		return model.Compatibility{Score: 0.3, Reason: "unfamiliar language"}, nil
	}
}

// InvolvementProfile implements collab.Preferences.
func (s *Store) InvolvementProfile(ctx context.Context, user uuid.UUID) (model.InvolvementProfile, error) {
	return read(ctx, s, user, func(u *fixture.User) model.InvolvementProfile { return u.Involvement })
}

// InvolvementCompatibility implements collab.Preferences. More involved
// users score higher, and events of a preferred type gain 0.2.
func (s *Store) InvolvementCompatibility(ctx context.Context, ev model.Event, p model.InvolvementProfile) (model.Compatibility, error) {
	if err := ctx.Err(); err != nil {
		return model.Compatibility{}, err
	}
	v := 0.3 + 0.1*float64(p.Level)
	reason := p.Level.String()
	for _, t := range p.PreferredTypes {
		if strings.EqualFold(t, ev.Category) || ev.HasTag(t) {
			v += 0.2
			reason += ", preferred type"
			break
		}
	}
	return model.Compatibility{Score: clamp01(v), Reason: reason}, nil
}

// TransportationPreferences implements collab.Preferences.
func (s *Store) TransportationPreferences(ctx context.Context, user uuid.UUID) (model.TransportationPreferences, error) {
	return read(ctx, s, user, func(u *fixture.User) model.TransportationPreferences { return u.Transport })
}

// MaxTravelDistance implements collab.Preferences.
func (s *Store) MaxTravelDistance(ctx context.Context, user uuid.UUID) (model.Distance, error) {
	return read(ctx, s, user, func(u *fixture.User) model.Distance { return u.MaxDistance })
}

// UserLocation implements collab.Preferences. The point is set when the
// user's location is in the catalog.
func (s *Store) UserLocation(ctx context.Context, user uuid.UUID) (model.UserLocation, error) {
	return read(ctx, s, user, func(u *fixture.User) model.UserLocation {
		loc := model.UserLocation{Name: u.Location}
		if l, ok := s.location(u.Location); ok {
			p := l.Point
			loc.Point = &p
		}
		return loc
	})
}

// UserAge implements collab.Preferences.
func (s *Store) UserAge(ctx context.Context, user uuid.UUID) (int, error) {
	return read(ctx, s, user, func(u *fixture.User) int { return u.Age })
}

// ScoringWeights implements collab.Preferences.
func (s *Store) ScoringWeights(ctx context.Context, user uuid.UUID) (model.ScoringWeights, error) {
	return read(ctx, s, user, func(u *fixture.User) model.ScoringWeights {
		if u.Weights == nil {
			return model.DefaultScoringWeights()
		}
		return *u.Weights
	})
}

// PersonalizedWeights implements collab.Preferences. Stored weights are
// normalized to sum 1.
func (s *Store) PersonalizedWeights(ctx context.Context, user uuid.UUID) (model.PersonalizedWeights, error) {
	return read(ctx, s, user, func(u *fixture.User) model.PersonalizedWeights {
		w := u.PersonalizedWeights
		if w == nil {
			return model.DefaultPersonalizedWeights()
		}
		return model.NewPersonalizedWeights(w.Cultural, w.Convenience, w.Social, w.Novelty, w.Confidence)
	})
}

// ApplyPersonalizedWeighting implements collab.Preferences.
func (s *Store) ApplyPersonalizedWeighting(ctx context.Context, base model.BaseEventScore, w model.PersonalizedWeights) (model.PersonalizedScore, error) {
	if err := ctx.Err(); err != nil {
		return model.PersonalizedScore{}, err
	}
	return scoring.Personalize(base, w), nil
}

// ConflictRules implements collab.Preferences.
func (s *Store) ConflictRules(ctx context.Context, user uuid.UUID) (model.ConflictRules, error) {
	return read(ctx, s, user, func(u *fixture.User) model.ConflictRules {
		if u.ConflictRules == nil {
			return model.DefaultConflictRules()
		}
		return *u.ConflictRules
	})
}

// ResolveConflicts implements collab.Preferences. Events are considered by
// nature priority. An event overlapping an accepted one is modified when
// it outranks social events and rejected otherwise; a secular event on a
// poyaday is deferred. The result is ordered by score.
func (s *Store) ResolveConflicts(ctx context.Context, events []model.Event, rules model.ConflictRules) ([]model.ResolvedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b model.Event) int {
		return cmp.Compare(s.priority(b, rules), s.priority(a, rules))
	})

	var accepted []model.Event
	out := make([]model.ResolvedEvent, 0, len(ordered))
	for _, ev := range ordered {
		priority := s.priority(ev, rules)
		r := model.ResolvedEvent{Event: ev, Score: priority, Resolution: "Accepted: no conflict"}

		if !ev.StartDate.IsZero() && s.isPoyaday(ev.StartDate) && s.nature(ev) == model.NatureSecular {
			r.Score = clamp01(priority + rules.CulturalPenalty)
			r.Conflict = model.ConflictCultural
			r.Resolution = "Deferred: secular event on a poyaday"
			out = append(out, r)
			continue
		}
		if other, ok := overlapping(ev, accepted); ok {
			r.Score = clamp01(priority + rules.TimePenalty)
			r.Conflict = model.ConflictTimeOverlap
			if priority > rules.SocialPriority {
				r.Resolution = fmt.Sprintf("Modified: overlaps %q, attend in part", other.Title)
			} else {
				r.Resolution = fmt.Sprintf("Rejected: overlaps %q", other.Title)
			}
			out = append(out, r)
			continue
		}
		accepted = append(accepted, ev)
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b model.ResolvedEvent) int { return cmp.Compare(b.Score, a.Score) })
	return out, nil
}

func (s *Store) priority(ev model.Event, rules model.ConflictRules) float64 {
	switch s.nature(ev) {
	case model.NatureReligious:
		return rules.ReligiousPriority
	case model.NatureCultural, model.NatureMixed:
		return rules.CulturalPriority
	default:
		return rules.SocialPriority
	}
}

func overlapping(ev model.Event, accepted []model.Event) (model.Event, bool) {
	if ev.StartDate.IsZero() {
		return model.Event{}, false
	}
	start, end := span(ev)
	for _, other := range accepted {
		if other.StartDate.IsZero() {
			continue
		}
		otherStart, otherEnd := span(other)
		if start.Before(otherEnd) && otherStart.Before(end) {
			return other, true
		}
	}
	return model.Event{}, false
}

func span(ev model.Event) (time.Time, time.Time) {
	end := ev.EndDate
	if end.IsZero() || !end.After(ev.StartDate) {
		end = ev.StartDate.Add(defaultEventLength)
	}
	return ev.StartDate, end
}

// HandleScoringEdgeCase implements collab.Preferences. Events missing a
// start date, a venue or a category are scored with a fixed fallback;
// events with neither title nor category cannot be handled.
func (s *Store) HandleScoringEdgeCase(ctx context.Context, ev model.Event) (model.EdgeCaseResult, error) {
	if err := ctx.Err(); err != nil {
		return model.EdgeCaseResult{}, err
	}
	r := model.EdgeCaseResult{CanScore: true, Handled: true, DefaultScore: neutral, FallbackScore: neutral}
	switch {
	case strings.TrimSpace(ev.Title) == "" && strings.TrimSpace(ev.Category) == "":
		return model.EdgeCaseResult{Strategy: "skip", Explanation: "event cannot be identified"}, nil
	case ev.StartDate.IsZero():
		r.CanScore, r.FallbackScore = false, 0.3
		r.Strategy, r.Explanation = "date-default", "missing start date"
	case !ev.HasLocation() && ev.Coordinates == nil:
		r.CanScore, r.FallbackScore = false, 0.4
		r.Strategy, r.Explanation = "location-default", "missing venue"
	case strings.TrimSpace(ev.Category) == "":
		r.CanScore, r.FallbackScore = false, neutral
		r.Strategy, r.Explanation = "category-default", "missing category"
	default:
		r.FallbackScore = s.baseAppropriateness(ev)
		r.Strategy, r.Explanation = "standard", "complete event"
	}
	return r, nil
}

// NormalizeScores implements collab.Preferences with min-max scaling of
// each component across the batch. A component that does not vary keeps
// its clamped value.
func (s *Store) NormalizeScores(ctx context.Context, raw []model.RawScores) ([]model.NormalizedScores, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	components := []func(*model.ComponentScores) *float64{
		func(c *model.ComponentScores) *float64 { return &c.Cultural },
		func(c *model.ComponentScores) *float64 { return &c.Convenience },
		func(c *model.ComponentScores) *float64 { return &c.Social },
		func(c *model.ComponentScores) *float64 { return &c.Novelty },
	}
	scaled := make([]model.ComponentScores, len(raw))
	for i, r := range raw {
		scaled[i] = r.Components
	}
	for _, field := range components {
		lo, hi := 0.0, 0.0
		for i := range scaled {
			v := *field(&scaled[i])
			if i == 0 || v < lo {
				lo = v
			}
			if i == 0 || v > hi {
				hi = v
			}
		}
		if hi == lo {
			continue
		}
		for i := range scaled {
			f := field(&scaled[i])
			*f = (*f - lo) / (hi - lo)
		}
	}

	out := make([]model.NormalizedScores, len(raw))
	for i, r := range raw {
		out[i] = model.NewNormalizedScores(r.Event, scaled[i])
	}
	return out, nil
}

// TieBreakingRules implements collab.Preferences.
func (s *Store) TieBreakingRules(ctx context.Context, user uuid.UUID) (model.TieBreakingRules, error) {
	return read(ctx, s, user, func(u *fixture.User) model.TieBreakingRules {
		if u.TieBreaking == nil {
			return model.DefaultTieBreakingRules()
		}
		return *u.TieBreaking
	})
}

// ApplyTieBreaking implements collab.Preferences. Criteria are applied in
// rule order; events equal on every criterion keep input order.
func (s *Store) ApplyTieBreaking(ctx context.Context, events []model.Event, rules model.TieBreakingRules) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	criteria := []model.TieBreaker{rules.Primary, rules.Secondary, rules.Tertiary, rules.Quaternary}
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b model.Event) int {
		for _, c := range criteria {
			if r := s.tieBreak(c, a, b); r != 0 {
				return r
			}
		}
		return 0
	})
	return out, nil
}

func (s *Store) tieBreak(c model.TieBreaker, a, b model.Event) int {
	defaults := model.DefaultConflictRules()
	switch c {
	case model.TieBreakEventPriority:
		return cmp.Compare(s.priority(b, defaults), s.priority(a, defaults))
	case model.TieBreakEventDate:
		switch {
		case a.StartDate.IsZero() || b.StartDate.IsZero():
			return cmp.Compare(boolRank(a.StartDate.IsZero()), boolRank(b.StartDate.IsZero()))
		default:
			return a.StartDate.Compare(b.StartDate)
		}
	case model.TieBreakProximity:
		return cmp.Compare(s.venue(b).Density, s.venue(a).Density)
	case model.TieBreakCapacity:
		return cmp.Compare(s.venue(b).Members, s.venue(a).Members)
	case model.TieBreakPopularity:
		return cmp.Compare(s.baseAppropriateness(b), s.baseAppropriateness(a))
	case model.TieBreakRandom:
		// v4 IDs are random, so their byte order is a stable shuffle.
		return bytes.Compare(a.ID[:], b.ID[:])
	default:
		// Events carry no creation date.
		return 0
	}
}

func (s *Store) venue(ev model.Event) fixture.Location {
	l, _ := s.location(ev.Location)
	return l
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}

// read runs get on the user under the read lock.
func read[T any](ctx context.Context, s *Store, id uuid.UUID, get func(*fixture.User) T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(id)
	if err != nil {
		return zero, err
	}
	return get(u), nil
}
