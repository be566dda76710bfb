package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/collab/collabtest"
	"github.com/okian/eventrec/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func on(ev model.Event, month time.Month, day int) model.Event {
	ev.StartDate = time.Date(2026, month, day, 0, 0, 0, 0, time.UTC)
	ev.EndDate = ev.StartDate.Add(3 * time.Hour)
	return ev
}

func TestGetRecommendationsForDate(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	target := time.Date(2026, time.April, 5, 0, 0, 0, 0, time.UTC)

	Convey("Given a religious event on a poyaday and a later secular one", t, func() {
		stub := collabtest.New()
		near := on(event("near", "religious", ""), time.April, 5)
		later := on(event("later", "music", ""), time.April, 25)
		stub.Poyadays["2026-04-05"] = true
		stub.Nature[near.ID] = model.NatureReligious
		stub.SignificantDateList = []model.SignificantDate{{Date: time.Date(2026, time.April, 24, 0, 0, 0, 0, time.UTC), Name: "Full moon"}}

		ranking, err := newEngine(stub).GetRecommendationsForDate(ctx, user, []model.Event{later, near}, target)

		Convey("Then the composite blends base, date relevance and cultural timing", func() {
			So(err, ShouldBeNil)
			So(titles(ranking), ShouldResemble, []string{"near", "later"})

			So(ranking[0].Score.Composite, ShouldAlmostEqual, 0.5*0.7+1*0.2+0.9*0.1, 1e-9)
			So(ranking[0].Score.Dim(model.DimTiming), ShouldEqual, 0.9)
			So(ranking[0].Reason, ShouldEqual, "Recommended: High cultural relevance (0.50) (Date optimized: 1.00)")

			relevance := 1 - 20.0/30 + 0.2
			So(ranking[1].Score.Composite, ShouldAlmostEqual, 0.5*0.7+relevance*0.2+0.7*0.1, 1e-9)
			So(ranking[1].Reason, ShouldEndWith, "(Date optimized: 0.53)")
		})
	})

	Convey("Given the calendar is unavailable", t, func() {
		stub := collabtest.New().Fail("SignificantDates", nil).Fail("IsPoyaday", nil).Fail("ClassifyEventNature", nil)
		ranking, err := newEngine(stub).GetRecommendationsForDate(ctx, user, []model.Event{on(event("a", "", ""), time.April, 5)}, target)

		Convey("Then regular timing and plain proximity are used", func() {
			So(err, ShouldBeNil)
			So(ranking, ShouldHaveLength, 1)
			So(ranking[0].Score.Composite, ShouldAlmostEqual, 0.35+0.2+0.07, 1e-9)
		})
	})
}

func TestGetCulturallyFilteredRecommendations(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	Convey("Given two events of different appropriateness", t, func() {
		stub := collabtest.New()
		fitting, borderline := event("fitting", "", ""), event("borderline", "", "")
		stub.Appropriateness[fitting.ID] = 0.95
		stub.Appropriateness[borderline.ID] = 0.19
		events := []model.Event{borderline, fitting}

		Convey("When the user has Low sensitivity", func() {
			stub.Sensitivity = model.SensitivityLow
			ranking, err := newEngine(stub).GetCulturallyFilteredRecommendations(ctx, user, events)

			Convey("Then only the event at or above 0.2 is kept", func() {
				So(err, ShouldBeNil)
				So(titles(ranking), ShouldResemble, []string{"fitting"})
			})
		})

		Convey("When the user has VeryHigh sensitivity", func() {
			stub.Sensitivity = model.SensitivityVeryHigh
			stub.Appropriateness[fitting.ID] = 0.79
			ranking, err := newEngine(stub).GetCulturallyFilteredRecommendations(ctx, user, events)

			Convey("Then an event at 0.79 is rejected", func() {
				So(err, ShouldBeNil)
				So(ranking, ShouldBeEmpty)
			})
		})

		Convey("When sensitivity cannot be read", func() {
			stub.Fail("CulturalSensitivity", nil)
			ranking, err := newEngine(stub).GetCulturallyFilteredRecommendations(ctx, user, events)

			Convey("Then nothing is filtered", func() {
				So(err, ShouldBeNil)
				So(ranking, ShouldHaveLength, 2)
			})
		})
	})
}

func TestGetDiasporaOptimizedRecommendations(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	Convey("Given events in a dense hub, a mid-density hub and nowhere", t, func() {
		stub := collabtest.New()
		stub.Diaspora["Toronto"], stub.Density["Toronto"] = true, 0.8
		stub.Diaspora["London"], stub.Density["London"] = true, 0.6
		events := []model.Event{event("toronto", "", "Toronto"), event("london", "", "London"), event("online", "", "")}

		Convey("When the user is Traditional", func() {
			stub.Adaptation = model.AdaptationTraditional
			ranking, err := newEngine(stub).GetDiasporaOptimizedRecommendations(ctx, user, events)

			Convey("Then only the dense hub is kept", func() {
				So(err, ShouldBeNil)
				So(titles(ranking), ShouldResemble, []string{"toronto"})
			})
		})

		Convey("When the user is Conservative", func() {
			stub.Adaptation = model.AdaptationConservative
			ranking, err := newEngine(stub).GetDiasporaOptimizedRecommendations(ctx, user, events)

			Convey("Then both hubs are kept and the location-less event is not", func() {
				So(err, ShouldBeNil)
				So(ranking, ShouldHaveLength, 2)
				So(titles(ranking), ShouldNotContain, "online")
			})
		})

		Convey("When community density cannot be read", func() {
			stub.Adaptation = model.AdaptationFullyIntegrated
			stub.Fail("CommunityDensity", nil)
			ranking, err := newEngine(stub).GetDiasporaOptimizedRecommendations(ctx, user, events)

			Convey("Then the affected events are excluded without an error", func() {
				So(err, ShouldBeNil)
				So(ranking, ShouldBeEmpty)
			})
		})
	})
}

func TestGetFestivalOptimizedRecommendations(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	Convey("Given a festival from April 1 to April 10", t, func() {
		stub := collabtest.New()
		stub.Festival = model.FestivalPeriod{
			Name:  "Vesak",
			Start: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, time.April, 10, 23, 59, 59, 0, time.UTC),
		}
		inside := on(event("inside", "", ""), time.April, 5)
		after := on(event("after", "", ""), time.April, 15)
		offbeat := on(event("offbeat", "", ""), time.April, 6)
		for _, ev := range []model.Event{inside, after, offbeat} {
			stub.Appropriateness[ev.ID] = 0.6
		}
		stub.OptimalTiming[inside.ID] = true
		stub.OptimalTiming[after.ID] = true

		ranking, err := newEngine(stub).GetFestivalOptimizedRecommendations(ctx, user, []model.Event{after, offbeat, inside}, "Vesak", 2026)

		Convey("Then an April 5 event gets the bonus and an April 15 event does not", func() {
			So(err, ShouldBeNil)
			So(titles(ranking), ShouldResemble, []string{"inside", "after"})
			So(ranking[0].Score.Composite, ShouldAlmostEqual, 0.8, 1e-9)
			So(ranking[0].Score.Dim(model.DimTiming), ShouldEqual, 0.2)
			So(ranking[1].Score.Composite, ShouldAlmostEqual, 0.6, 1e-9)
			So(ranking[1].Score.Dim(model.DimTiming), ShouldEqual, 0)
			So(ranking[0].Reason, ShouldEqual, "Festival-optimized for Vesak - optimal timing")
		})
	})

	Convey("Given the festival period cannot be resolved", t, func() {
		stub := collabtest.New().Fail("FestivalPeriod", nil)
		ranking, err := newEngine(stub).GetFestivalOptimizedRecommendations(ctx, user, []model.Event{event("a", "", "")}, "Deepavali", 2026)

		Convey("Then the ranking is empty", func() {
			So(err, ShouldBeNil)
			So(ranking, ShouldBeEmpty)
		})
	})
}

func TestGetCategorizedRecommendations(t *testing.T) {
	Convey("Given nature preferences and classified events", t, func() {
		stub := collabtest.New()
		stub.Natures = model.NaturePreferences{Religious: 0.9, Cultural: 0.6, Secular: 0.3}
		religious, mixed, unknown := event("religious", "", ""), event("mixed", "", ""), event("unknown", "", "")
		stub.Nature[religious.ID] = model.NatureReligious
		stub.Nature[mixed.ID] = model.NatureMixed

		ranking, err := newEngine(stub).GetCategorizedRecommendations(context.Background(), uuid.New(), []model.Event{unknown, mixed, religious})

		Convey("Then events are ranked by category affinity", func() {
			So(err, ShouldBeNil)
			So(titles(ranking), ShouldResemble, []string{"religious", "mixed", "unknown"})
			So(ranking[0].Reason, ShouldEqual, "Categorized as Religious (Score: 0.90)")
			So(ranking[1].Score.Dim(model.DimCategory), ShouldAlmostEqual, 0.6, 1e-9)
			So(ranking[2].Score.Composite, ShouldEqual, 0.5)
		})
	})
}

func TestGetCalendarValidatedRecommendations(t *testing.T) {
	ctx := context.Background()

	Convey("Given one event the calendar rejects", t, func() {
		stub := collabtest.New()
		a, b, c := event("a", "", ""), event("b", "", ""), event("c", "", "")
		stub.Invalid[b.ID] = true
		stub.Appropriateness[c.ID] = 1

		ranking, err := newEngine(stub).GetCalendarValidatedRecommendations(ctx, uuid.New(), []model.Event{a, b, c})

		Convey("Then valid events keep input order with the validation bonus", func() {
			So(err, ShouldBeNil)
			So(titles(ranking), ShouldResemble, []string{"a", "c"})
			So(ranking[0].Score.Composite, ShouldAlmostEqual, 0.6, 1e-9)
			So(ranking[0].Reason, ShouldEndWith, " (Calendar validated)")
		})
	})

	Convey("Given the calendar cannot validate", t, func() {
		stub := collabtest.New().Fail("ValidateEventAgainstCalendar", nil)
		ranking, err := newEngine(stub).GetCalendarValidatedRecommendations(ctx, uuid.New(), []model.Event{event("a", "", "")})

		Convey("Then unvalidated events are excluded", func() {
			So(err, ShouldBeNil)
			So(ranking, ShouldBeEmpty)
		})
	})
}

func TestCalculateCulturalScore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a known appropriateness", t, func() {
		stub := collabtest.New()
		ev := event("a", "", "")
		stub.Appropriateness[ev.ID] = 0.7
		score, err := newEngine(stub).CalculateCulturalScore(ctx, uuid.New(), ev)

		So(err, ShouldBeNil)
		So(score, ShouldResemble, model.CulturalScore{Value: 0.7})

		Convey("When the background lookup fails", func() {
			stub.Fail("CulturalBackground", nil)
			score, err := newEngine(stub).CalculateCulturalScore(ctx, uuid.New(), ev)

			Convey("Then the neutral fallback is reported", func() {
				So(err, ShouldBeNil)
				So(score, ShouldResemble, model.CulturalScore{Value: 0.5, Fallback: true})
			})
		})
	})
}
