package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/app"
	"github.com/okian/eventrec/internal/domain/collab/collabtest"
	"github.com/okian/eventrec/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGetHistoryBasedRecommendations(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	Convey("Given attendance patterns with a strong and a weak category", t, func() {
		stub := collabtest.New()
		stub.Patterns = model.PreferencePatterns{
			Strong: []string{"religious"}, Weak: []string{"sports"},
			OptimalFrequency: 0.5, Engagement: 0.8,
		}
		events := []model.Event{event("cricket", "sports", ""), event("dana", "religious", ""), event("film", "film", "")}

		ranking, err := newEngine(stub).GetHistoryBasedRecommendations(ctx, user, events)

		Convey("Then events are ranked by history compatibility", func() {
			So(err, ShouldBeNil)
			So(titles(ranking), ShouldResemble, []string{"film", "dana", "cricket"})
			So(ranking[1].Score.History, ShouldAlmostEqual, 0.4, 1e-9)
			So(ranking[1].Reason, ShouldEqual, "Based on attendance history (Score: 0.40)")
			So(ranking[2].Score.Composite, ShouldEqual, 0.2)
		})

		Convey("When the history cannot be analysed", func() {
			stub.Fail("AnalyzePreferencePatterns", nil)
			ranking, err := newEngine(stub).GetHistoryBasedRecommendations(ctx, user, events)

			Convey("Then every event scores neutral in input order", func() {
				So(err, ShouldBeNil)
				So(titles(ranking), ShouldResemble, []string{"cricket", "dana", "film"})
				for _, rec := range ranking {
					So(rec.Score.History, ShouldEqual, 0.5)
				}
			})
		})
	})
}

func TestGetAdaptiveRecommendations(t *testing.T) {
	Convey("Given learned category weights", t, func() {
		stub := collabtest.New()
		stub.Learned = model.LearnedPreferences{
			Weights:    map[string]float64{"religious": 0.9, "music": 0.5},
			Confidence: 0.8,
		}
		events := []model.Event{event("film", "film", ""), event("concert", "music", ""), event("pooja", "religious", "")}

		ranking, err := newEngine(stub).GetAdaptiveRecommendations(context.Background(), uuid.New(), events)

		Convey("Then primary categories rank above secondary ones", func() {
			So(err, ShouldBeNil)
			So(titles(ranking), ShouldResemble, []string{"pooja", "concert", "film"})
			So(ranking[0].Score.Cultural, ShouldAlmostEqual, 0.72, 1e-9)
			So(ranking[0].Reason, ShouldEqual, "Adaptive learning (Confidence: 0.80)")
		})
	})
}

func TestCompatibilityVariants(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	Convey("Given compatibility scores for every profile", t, func() {
		stub := collabtest.New()
		stub.TimeScore, stub.FamilyScore, stub.LanguageScore, stub.InvolvementScore, stub.AgeScore = 0.7, 0.6, 0.8, 0.9, 0.4
		stub.Age = 34
		stub.Involvement = model.InvolvementProfile{Level: model.InvolvementActive}
		events := []model.Event{event("a", "", "")}
		e := newEngine(stub)

		Convey("Then each variant reports its own dimension and reason", func() {
			r, err := e.GetTimeOptimizedRecommendations(ctx, user, events)
			So(err, ShouldBeNil)
			So(r[0].Score.Time, ShouldEqual, 0.7)
			So(r[0].Reason, ShouldEqual, "Time optimized (Compatibility: 0.70)")

			r, err = e.GetFamilyOptimizedRecommendations(ctx, user, events)
			So(err, ShouldBeNil)
			So(r[0].Score.Family, ShouldEqual, 0.6)
			So(r[0].Reason, ShouldEqual, "Family optimized (Compatibility: 0.60)")

			r, err = e.GetLanguageOptimizedRecommendations(ctx, user, events)
			So(err, ShouldBeNil)
			So(r[0].Score.Language, ShouldEqual, 0.8)
			So(r[0].Reason, ShouldEqual, "Language optimized (Compatibility: 0.80)")

			r, err = e.GetInvolvementOptimizedRecommendations(ctx, user, events)
			So(err, ShouldBeNil)
			So(r[0].Score.Involvement, ShouldEqual, 0.9)
			So(r[0].Reason, ShouldEqual, "Involvement optimized (Level: Active, Compatibility: 0.90)")

			r, err = e.GetAgeOptimizedRecommendations(ctx, user, events)
			So(err, ShouldBeNil)
			So(r[0].Score.Dim(model.DimCategory), ShouldEqual, 0.4)
			So(r[0].Reason, ShouldEqual, "Age optimized (Age: 34, Compatibility: 0.40)")
		})

		Convey("When a profile cannot be loaded", func() {
			stub.Fail("FamilyProfile", nil).Fail("UserAge", nil)

			Convey("Then events score neutral without consulting the scorer", func() {
				r, err := e.GetFamilyOptimizedRecommendations(ctx, user, events)
				So(err, ShouldBeNil)
				So(r[0].Score.Family, ShouldEqual, 0.5)
				So(stub.Calls("FamilyCompatibility"), ShouldEqual, 0)

				r, err = e.GetAgeOptimizedRecommendations(ctx, user, events)
				So(err, ShouldBeNil)
				So(r[0].Score.Composite, ShouldEqual, 0.5)
				So(stub.Calls("AgeGroupPreferences"), ShouldEqual, 0)
			})
		})

		Convey("When a single compatibility call fails", func() {
			stub.Fail("LanguageCompatibility", nil)
			r, err := e.GetLanguageOptimizedRecommendations(ctx, user, events)

			Convey("Then that event scores neutral", func() {
				So(err, ShouldBeNil)
				So(r[0].Score.Language, ShouldEqual, 0.5)
			})
		})
	})
}

func TestRecordUserInteraction(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	ev := event("a", "", "")

	Convey("Given an engine forwarding to the preference store", t, func() {
		stub := collabtest.New()
		e := newEngine(stub)

		Convey("When the same interaction is recorded twice", func() {
			in := model.UserInteraction{ID: uuid.New(), Type: model.InteractionAttend, Strength: 1}
			So(e.RecordUserInteraction(ctx, user, ev, in), ShouldBeNil)
			So(e.RecordUserInteraction(ctx, user, ev, in), ShouldBeNil)

			Convey("Then it is forwarded once", func() {
				So(stub.Feedback(), ShouldHaveLength, 1)
				So(stub.Feedback()[0].ID, ShouldEqual, in.ID)
			})
		})

		Convey("When interactions carry no ID", func() {
			in := model.UserInteraction{Type: model.InteractionView}
			So(e.RecordUserInteraction(ctx, user, ev, in), ShouldBeNil)
			So(e.RecordUserInteraction(ctx, user, ev, in), ShouldBeNil)

			Convey("Then every one is forwarded", func() {
				So(stub.Feedback(), ShouldHaveLength, 2)
			})
		})

		Convey("When forwarding fails", func() {
			stub.Fail("UpdatePreferenceLearning", nil)
			in := model.UserInteraction{ID: uuid.New(), Type: model.InteractionRate, Strength: 0.6}
			err := e.RecordUserInteraction(ctx, user, ev, in)

			Convey("Then the error is returned and a retry is forwarded", func() {
				So(errors.Is(err, collabtest.ErrStub), ShouldBeTrue)
				So(errors.Is(err, app.ErrCancelled), ShouldBeFalse)

				stub.Heal("UpdatePreferenceLearning")
				So(e.RecordUserInteraction(ctx, user, ev, in), ShouldBeNil)
				So(stub.Feedback(), ShouldHaveLength, 1)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := e.RecordUserInteraction(cctx, user, ev, model.UserInteraction{ID: uuid.New()})

			Convey("Then cancellation is reported", func() {
				So(errors.Is(err, app.ErrCancelled), ShouldBeTrue)
				So(stub.Feedback(), ShouldBeEmpty)
			})
		})
	})
}
