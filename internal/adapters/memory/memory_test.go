package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventrec/internal/adapters/memory"
	"github.com/okian/eventrec/internal/app"
	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/fixture"
	"github.com/okian/eventrec/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	toronto     = geo.Point{Lat: 43.6532, Lon: -79.3832}
	mississauga = geo.Point{Lat: 43.5890, Lon: -79.6441}
	oslo        = geo.Point{Lat: 59.9139, Lon: 10.7522}
	hamilton    = geo.Point{Lat: 43.2557, Lon: -79.8711}

	userID = uuid.MustParse("0b6f3c1e-2a4d-4c8e-9f10-1a2b3c4d5e6f")
)

func at(day, hour int) time.Time {
	return time.Date(2026, time.May, day, hour, 0, 0, 0, time.UTC)
}

func pt(p geo.Point) *geo.Point { return &p }

// world holds three events on the first days of May 2026; the 1st is a
// poyaday and a Friday.
func world() (*fixture.Fixture, model.Event, model.Event, model.Event) {
	vesak := model.Event{
		ID: uuid.New(), Title: "Vesak dansala", Category: "religious", Location: "Toronto",
		Coordinates: pt(toronto), StartDate: at(1, 18), Language: "Sinhala", Audience: model.AudienceFamily,
	}
	cricket := model.Event{
		ID: uuid.New(), Title: "Cricket final", Category: "sports", Location: "Mississauga",
		Coordinates: pt(mississauga), StartDate: at(1, 19), Language: "English",
	}
	film := model.Event{
		ID: uuid.New(), Title: "Film night", Category: "film", Location: "Oslo",
		Coordinates: pt(oslo), StartDate: at(2, 18), Language: "Tamil", Tags: []string{"cultural", "Sinhala"},
	}
	f := &fixture.Fixture{
		Calendar: fixture.Calendar{
			Poyadays:  []time.Time{at(1, 0)},
			Festivals: []model.FestivalPeriod{{Name: "Vesak", Start: at(1, 0).AddDate(0, 0, -1), End: at(3, 23)}},
			SignificantDates: []model.SignificantDate{
				{Date: at(1, 0), Name: "Vesak Poya"},
				{Date: time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC), Name: "Vesak Poya"},
				{Date: time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC), Name: "Duruthu Poya"},
			},
			Appropriateness: map[string]float64{"religious": 0.8, "sports": 0.6},
			Natures:         map[string]model.EventNature{"religious": model.NatureReligious, "sports": model.NatureSecular},
		},
		Locations: []fixture.Location{
			{Name: "Toronto", Region: "GTA", Point: toronto, Diaspora: true, Density: 0.9, Members: 40, Transit: 0.8,
				Categories: map[string]float64{"religious": 0.9}},
			{Name: "Mississauga", Point: mississauga, Density: 0.6, Members: 10, Transit: 0.4, Parking: true},
			{Name: "Oslo", Point: oslo, Density: 0.1, Members: 2},
		},
		Users: []fixture.User{{
			ID:          userID,
			Age:         34,
			Background:  "Sinhala",
			Sensitivity: model.SensitivityHigh,
			Location:    "Toronto",
			MaxDistance: model.Distance{Value: 30, Unit: model.Kilometers},
			History: []model.AttendedEvent{
				{Category: "religious", Rating: 5, Frequency: 4},
				{Category: "religious", Rating: 4, Frequency: 2},
				{Category: "sports", Rating: 1, Frequency: 1},
			},
			TimeSlots: model.TimeSlotPreferences{
				PreferredDays:         []time.Weekday{time.Saturday},
				Slots:                 []model.TimeSlot{{Start: 17 * time.Hour, End: 21 * time.Hour, Preference: 0.9}},
				WorkingHoursAvoidance: 1,
			},
			Family:      model.FamilyProfile{HasChildren: true, FamilyEventPreference: 0.5},
			Languages:   model.LanguagePreferences{Primary: []string{"Sinhala"}, Secondary: []string{"English"}},
			Involvement: model.InvolvementProfile{Level: model.InvolvementActive, PreferredTypes: []string{"religious"}},
			Transport:   model.TransportationPreferences{Modes: []string{"car"}},
		}},
		Events: []model.Event{vesak, cricket, film},
	}
	return f, vesak, cricket, film
}

func newStore(opts ...memory.Option) (*memory.Store, model.Event, model.Event, model.Event) {
	f, vesak, cricket, film := world()
	s, err := memory.New(f, opts...)
	if err != nil {
		panic(err)
	}
	return s, vesak, cricket, film
}

func TestNew(t *testing.T) {
	Convey("Given an inconsistent fixture", t, func() {
		f, _, _, _ := world()
		f.Locations = append(f.Locations, f.Locations[0])

		_, err := memory.New(f)

		Convey("Then the store is not built", func() {
			So(errors.Is(err, fixture.ErrFixture), ShouldBeTrue)
		})
	})

	Convey("Given no fixture", t, func() {
		s, err := memory.New(nil)
		So(err, ShouldBeNil)
		So(s.Events(), ShouldBeEmpty)
	})
}

func TestCalendar(t *testing.T) {
	ctx := context.Background()

	Convey("Given a calendar with a poyaday on the 1st", t, func() {
		s, vesak, cricket, film := newStore()

		Convey("Then poyadays are recognized by date", func() {
			yes, err := s.IsPoyaday(ctx, at(1, 10))
			So(err, ShouldBeNil)
			So(yes, ShouldBeTrue)
			no, _ := s.IsPoyaday(ctx, at(2, 10))
			So(no, ShouldBeFalse)
		})

		Convey("Then religious events gain and secular events lose on a poyaday", func() {
			v, _ := s.EventAppropriateness(ctx, vesak, at(1, 0))
			So(v, ShouldAlmostEqual, 1.0, 1e-9)
			v, _ = s.EventAppropriateness(ctx, cricket, at(1, 0))
			So(v, ShouldAlmostEqual, 0.3, 1e-9)
			v, _ = s.EventAppropriateness(ctx, cricket, at(2, 0))
			So(v, ShouldAlmostEqual, 0.6, 1e-9)
		})

		Convey("Then events tagged with the background are more appropriate", func() {
			v, _ := s.CalculateAppropriateness(ctx, film, "sinhala")
			So(v, ShouldAlmostEqual, 0.7, 1e-9)
			v, _ = s.CalculateAppropriateness(ctx, film, "Tamil")
			So(v, ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("Then festivals are found by name and year", func() {
			p, err := s.FestivalPeriod(ctx, "vesak", 2026)
			So(err, ShouldBeNil)
			So(p.Name, ShouldEqual, "Vesak")

			_, err = s.FestivalPeriod(ctx, "Vesak", 2027)
			So(errors.Is(err, memory.ErrUnknownFestival), ShouldBeTrue)

			ok, _ := s.IsOptimalFestivalTiming(ctx, vesak, p)
			So(ok, ShouldBeTrue)
			ok, _ = s.IsOptimalFestivalTiming(ctx, cricket, p)
			So(ok, ShouldBeFalse)
		})

		Convey("Then natures come from the category table or the tags", func() {
			n, _ := s.ClassifyEventNature(ctx, cricket)
			So(n, ShouldEqual, model.NatureSecular)
			n, _ = s.ClassifyEventNature(ctx, film)
			So(n, ShouldEqual, model.NatureCultural)
			n, _ = s.ClassifyEventNature(ctx, model.Event{Category: "food"})
			So(n, ShouldEqual, model.NatureUnknown)
		})

		Convey("Then significant dates are those of the year in order", func() {
			dates, err := s.SignificantDates(ctx, 2026)
			So(err, ShouldBeNil)
			So(dates, ShouldHaveLength, 2)
			So(dates[0].Name, ShouldEqual, "Duruthu Poya")
			So(dates[1].Name, ShouldEqual, "Vesak Poya")
		})

		Convey("Then a secular event on a poyaday fails validation", func() {
			v, err := s.ValidateEventAgainstCalendar(ctx, cricket)
			So(err, ShouldBeNil)
			So(v.Valid, ShouldBeFalse)
			So(v.Issues, ShouldContain, "secular event scheduled on a poyaday")

			v, _ = s.ValidateEventAgainstCalendar(ctx, vesak)
			So(v.Valid, ShouldBeTrue)
		})
	})
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()

	Convey("Given a user with a profile", t, func() {
		s, vesak, cricket, film := newStore(memory.WithLearningRate(0.5), memory.WithLogger(logger.Nop()))

		Convey("Then unknown users are reported", func() {
			_, err := s.CulturalSensitivity(ctx, uuid.New())
			So(errors.Is(err, memory.ErrUnknownUser), ShouldBeTrue)
		})

		Convey("Then the profile is served", func() {
			level, err := s.CulturalSensitivity(ctx, userID)
			So(err, ShouldBeNil)
			So(level, ShouldEqual, model.SensitivityHigh)

			loc, _ := s.UserLocation(ctx, userID)
			So(loc.Name, ShouldEqual, "Toronto")
			So(loc.Point, ShouldNotBeNil)

			w, _ := s.ScoringWeights(ctx, userID)
			So(w, ShouldResemble, model.DefaultScoringWeights())
			rules, _ := s.TieBreakingRules(ctx, userID)
			So(rules, ShouldResemble, model.DefaultTieBreakingRules())
		})

		Convey("Then attendance is summarised into patterns", func() {
			h, err := s.AttendanceHistory(ctx, userID)
			So(err, ShouldBeNil)
			So(h.AverageRating, ShouldAlmostEqual, 10.0/3, 1e-9)

			p, err := s.AnalyzePreferencePatterns(ctx, h)
			So(err, ShouldBeNil)
			So(p.Strong, ShouldResemble, []string{"religious"})
			So(p.Weak, ShouldResemble, []string{"sports"})
			So(p.OptimalFrequency, ShouldAlmostEqual, 7.0/12, 1e-9)
			So(p.Engagement, ShouldAlmostEqual, 2.0/3, 1e-9)
		})

		Convey("When the user attends events", func() {
			attend := model.UserInteraction{ID: uuid.New(), Type: model.InteractionAttend}
			So(s.UpdatePreferenceLearning(ctx, userID, vesak, attend), ShouldBeNil)
			So(s.UpdatePreferenceLearning(ctx, userID, vesak, attend), ShouldBeNil)

			Convey("Then the category weight moves toward the signal", func() {
				l, _ := s.LearnedPreferences(ctx, userID)
				So(l.Weights["religious"], ShouldAlmostEqual, 0.75, 1e-9)
				So(l.SampleSize, ShouldEqual, 2)
				So(l.Confidence, ShouldAlmostEqual, 0.1, 1e-9)
				So(l.UpdatedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("Then time compatibility follows days, slots and working hours", func() {
			prefs, _ := s.TimeSlotPreferences(ctx, userID)
			c, _ := s.TimeCompatibility(ctx, film, prefs)
			So(c.Score, ShouldAlmostEqual, 0.8, 1e-9)
			c, _ = s.TimeCompatibility(ctx, vesak, prefs)
			So(c.Score, ShouldAlmostEqual, 0.7, 1e-9)
			c, _ = s.TimeCompatibility(ctx, model.Event{StartDate: at(1, 10)}, prefs)
			So(c.Score, ShouldAlmostEqual, 0.2, 1e-9)
		})

		Convey("Then language compatibility ranks primary over secondary", func() {
			prefs, _ := s.LanguagePreferences(ctx, userID)
			c, _ := s.LanguageCompatibility(ctx, vesak, prefs)
			So(c.Score, ShouldEqual, 1.0)
			c, _ = s.LanguageCompatibility(ctx, cricket, prefs)
			So(c.Score, ShouldEqual, 0.7)
			c, _ = s.LanguageCompatibility(ctx, film, prefs)
			So(c.Score, ShouldEqual, 0.3)
		})

		Convey("Then age groups drive audience compatibility", func() {
			g, _ := s.AgeGroupPreferences(ctx, 34)
			c, _ := s.AgeCompatibility(ctx, model.Event{Audience: model.AudienceAdults}, g)
			So(c.Score, ShouldEqual, 0.9)
			c, _ = s.AgeCompatibility(ctx, vesak, g)
			So(c.Score, ShouldEqual, 0.7)
			c, _ = s.AgeCompatibility(ctx, model.Event{Audience: model.AudienceYouth}, g)
			So(c.Score, ShouldEqual, 0.3)
		})

		Convey("Then involvement favours preferred event types", func() {
			p, _ := s.InvolvementProfile(ctx, userID)
			c, _ := s.InvolvementCompatibility(ctx, vesak, p)
			So(c.Score, ShouldAlmostEqual, 0.8, 1e-9)
			c, _ = s.InvolvementCompatibility(ctx, cricket, p)
			So(c.Score, ShouldAlmostEqual, 0.6, 1e-9)
		})

		Convey("Then overlapping events are modified or rejected by priority", func() {
			pirith := model.Event{ID: uuid.New(), Title: "Pirith", Category: "religious", StartDate: at(2, 18).Add(30 * time.Minute)}
			dinner := model.Event{ID: uuid.New(), Title: "Dinner", Category: "food", StartDate: at(2, 19)}

			resolved, err := s.ResolveConflicts(ctx, []model.Event{dinner, film, pirith}, model.DefaultConflictRules())
			So(err, ShouldBeNil)
			So(resolved, ShouldHaveLength, 3)
			So(resolved[0].Event.ID, ShouldEqual, pirith.ID)
			So(model.ClassifyResolution(resolved[0].Resolution), ShouldEqual, model.ResolutionAccepted)
			So(resolved[1].Event.ID, ShouldEqual, film.ID)
			So(model.ClassifyResolution(resolved[1].Resolution), ShouldEqual, model.ResolutionModified)
			So(resolved[1].Conflict, ShouldEqual, model.ConflictTimeOverlap)
			So(resolved[2].Event.ID, ShouldEqual, dinner.ID)
			So(model.ClassifyResolution(resolved[2].Resolution), ShouldEqual, model.ResolutionRejected)
		})

		Convey("Then secular events on a poyaday are deferred", func() {
			resolved, _ := s.ResolveConflicts(ctx, []model.Event{cricket}, model.DefaultConflictRules())
			So(resolved[0].Conflict, ShouldEqual, model.ConflictCultural)
			So(model.ClassifyResolution(resolved[0].Resolution), ShouldEqual, model.ResolutionDeferred)
			So(resolved[0].Score, ShouldEqual, 0.0)
		})

		Convey("Then incomplete events get fallback scores", func() {
			r, _ := s.HandleScoringEdgeCase(ctx, model.Event{Title: "TBA", Category: "music", Location: "Toronto"})
			So(r.Handled, ShouldBeTrue)
			So(r.CanScore, ShouldBeFalse)
			So(r.FallbackScore, ShouldEqual, 0.3)

			r, _ = s.HandleScoringEdgeCase(ctx, vesak)
			So(r.CanScore, ShouldBeTrue)
			So(r.FallbackScore, ShouldEqual, 0.8)

			r, _ = s.HandleScoringEdgeCase(ctx, model.Event{})
			So(r.Handled, ShouldBeFalse)
		})

		Convey("Then scores are min-max normalized per component", func() {
			out, err := s.NormalizeScores(ctx, []model.RawScores{
				{Event: vesak, Components: model.ComponentScores{Cultural: 2, Convenience: 0.5, Social: 1, Novelty: 0}},
				{Event: film, Components: model.ComponentScores{Cultural: 4, Convenience: 0.5, Social: 3, Novelty: 1}},
			})
			So(err, ShouldBeNil)
			So(out[0].Composite, ShouldAlmostEqual, 0.125, 1e-9)
			So(out[1].Composite, ShouldAlmostEqual, 0.875, 1e-9)
		})

		Convey("Then ties are broken by the rules in order", func() {
			out, _ := s.ApplyTieBreaking(ctx, []model.Event{cricket, film, vesak}, model.DefaultTieBreakingRules())
			So([]uuid.UUID{out[0].ID, out[1].ID, out[2].ID}, ShouldResemble, []uuid.UUID{vesak.ID, film.ID, cricket.ID})

			byDate := model.TieBreakingRules{Primary: model.TieBreakEventDate, Secondary: model.TieBreakCapacity}
			out, _ = s.ApplyTieBreaking(ctx, []model.Event{film, cricket, vesak}, byDate)
			So([]uuid.UUID{out[0].ID, out[1].ID, out[2].ID}, ShouldResemble, []uuid.UUID{vesak.ID, cricket.ID, film.ID})
		})
	})
}

func TestGeography(t *testing.T) {
	ctx := context.Background()

	Convey("Given a location catalog", t, func() {
		s, vesak, cricket, film := newStore()

		Convey("Then locations are looked up case-insensitively", func() {
			yes, _ := s.IsDiasporaLocation(ctx, " toronto")
			So(yes, ShouldBeTrue)
			no, _ := s.IsDiasporaLocation(ctx, "Atlantis")
			So(no, ShouldBeFalse)
			d, _ := s.CommunityDensity(ctx, "Mississauga")
			So(d, ShouldEqual, 0.6)
		})

		Convey("Then clusters are the event venues, densest first", func() {
			clusters, err := s.AnalyzeCommunityClusters(ctx, "Toronto", []model.Event{film, cricket, vesak})
			So(err, ShouldBeNil)
			So(clusters, ShouldHaveLength, 3)
			So(clusters[0], ShouldResemble, model.CommunityCluster{Location: "Toronto", Density: 0.9, Size: 40})
			So(clusters[2].Location, ShouldEqual, "Oslo")
		})

		Convey("Then distances are great-circle kilometers", func() {
			d, err := s.Distance(ctx, toronto, mississauga)
			So(err, ShouldBeNil)
			So(d.Unit, ShouldEqual, model.Kilometers)
			So(d.Value, ShouldAlmostEqual, 22.2, 1)
		})

		Convey("Then regional matches use the region's categories", func() {
			prefs, _ := s.RegionalPreferences(ctx, "Toronto")
			So(prefs.Region, ShouldEqual, "GTA")
			v, _ := s.RegionalMatch(ctx, vesak, prefs)
			So(v, ShouldEqual, 0.9)
			v, _ = s.RegionalMatch(ctx, cricket, prefs)
			So(v, ShouldEqual, 0.3)

			empty, _ := s.RegionalPreferences(ctx, "Mississauga")
			v, _ = s.RegionalMatch(ctx, vesak, empty)
			So(v, ShouldEqual, 0.5)
		})

		Convey("Then accessibility depends on modes and parking", func() {
			car := model.TransportationPreferences{Modes: []string{"car"}}
			v, _ := s.TransportationAccessibility(ctx, vesak, car)
			So(v, ShouldEqual, 0.4)
			v, _ = s.TransportationAccessibility(ctx, cricket, car)
			So(v, ShouldEqual, 0.9)

			transit := model.TransportationPreferences{Modes: []string{"transit"}, NeedsParking: true}
			v, _ = s.TransportationAccessibility(ctx, vesak, transit)
			So(v, ShouldEqual, 0.3)
			v, _ = s.TransportationAccessibility(ctx, model.Event{Location: "Atlantis"}, transit)
			So(v, ShouldEqual, 0.5)
		})

		Convey("Then proximity is scored from the nearest known venue", func() {
			p, err := s.MultiLocationProximity(ctx, "Toronto", []string{"Mississauga", "Atlantis"})
			So(err, ShouldBeNil)
			So(p.Venues, ShouldHaveLength, 2)
			So(p.Venues[1].Known, ShouldBeFalse)

			v, _ := s.ProximityScore(ctx, p)
			So(v, ShouldAlmostEqual, 1-p.Venues[0].Km/100, 1e-9)
			So(v, ShouldBeBetween, 0.7, 0.85)

			v, _ = s.ProximityScore(ctx, model.MultiLocationProximity{})
			So(v, ShouldEqual, 0.5)
		})

		Convey("Then unusual locations are handled", func() {
			r, _ := s.HandleLocationEdgeCase(ctx, "Toronto", model.Event{Tags: []string{"online"}})
			So(r.CanRecommend, ShouldBeTrue)
			So(r.ProximityScore, ShouldEqual, 0.6)

			r, _ = s.HandleLocationEdgeCase(ctx, "Toronto", model.Event{Title: "nowhere"})
			So(r.CanRecommend, ShouldBeFalse)

			r, _ = s.HandleLocationEdgeCase(ctx, "Toronto", model.Event{Location: "Hamilton", Coordinates: pt(hamilton)})
			So(r.Reason, ShouldEqual, "distance from coordinates")
			So(r.ProximityScore, ShouldBeBetween, 0.3, 0.5)

			r, _ = s.HandleLocationEdgeCase(ctx, "Toronto", model.Event{Location: "Atlantis"})
			So(r.ProximityScore, ShouldEqual, 0.3)

			r, _ = s.HandleLocationEdgeCase(ctx, "Toronto", model.Event{Location: "Mississauga"})
			So(r.Reason, ShouldEqual, "known venue")
			So(r.ProximityScore, ShouldBeGreaterThan, 0.7)
		})

		Convey("Then venues outside the travel radius get zero proximity", func() {
			r, err := s.HandleLocationEdgeCase(ctx, "Toronto", model.Event{Location: "Oslo"})
			So(err, ShouldBeNil)
			So(r.CanRecommend, ShouldBeTrue)
			So(r.Reason, ShouldEqual, "known venue beyond travel radius")
			So(r.ProximityScore, ShouldEqual, 0)

			r, _ = s.HandleLocationEdgeCase(ctx, "Toronto", model.Event{Location: "Bergen", Coordinates: pt(oslo)})
			So(r.Reason, ShouldEqual, "distance from coordinates beyond travel radius")
			So(r.ProximityScore, ShouldEqual, 0)
		})
	})
}

func TestEngineOverStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine backed by the store", t, func() {
		s, vesak, cricket, _ := newStore()
		e, err := app.New(s, s, s, app.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)

		Convey("Then every event is ranked with bounded scores", func() {
			ranking, err := e.GetRecommendations(ctx, userID, s.Events())
			So(err, ShouldBeNil)
			So(ranking, ShouldHaveLength, 3)
			for _, rec := range ranking {
				So(rec.Score.Composite, ShouldBeBetweenOrEqual, 0, 1)
				So(rec.Reason, ShouldNotBeEmpty)
			}
		})

		Convey("Then the distance filter keeps venues within 30 km", func() {
			ranking, err := e.GetDistanceFilteredRecommendations(ctx, userID, s.Events())
			So(err, ShouldBeNil)
			So(ranking, ShouldHaveLength, 2)
			So(ranking[0].Event.ID, ShouldEqual, vesak.ID)
			So(ranking[1].Event.ID, ShouldEqual, cricket.ID)
		})

		Convey("Then recorded interactions reach the learned preferences", func() {
			So(e.RecordUserInteraction(ctx, userID, cricket, model.UserInteraction{ID: uuid.New(), Type: model.InteractionSkip}), ShouldBeNil)
			l, _ := s.LearnedPreferences(ctx, userID)
			So(l.SampleSize, ShouldEqual, 1)
			_, ok := l.Weights["sports"]
			So(ok, ShouldBeTrue)
		})
	})
}
