package selection_test

import (
	"testing"

	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func TestThreshold(t *testing.T) {
	Convey("Given each sensitivity level", t, func() {
		So(selection.Threshold(model.SensitivityVeryHigh), ShouldEqual, 0.8)
		So(selection.Threshold(model.SensitivityHigh), ShouldEqual, 0.6)
		So(selection.Threshold(model.SensitivityMedium), ShouldEqual, 0.4)
		So(selection.Threshold(model.SensitivityLow), ShouldEqual, 0.2)
		So(selection.Threshold(model.SensitivityUnset), ShouldEqual, 0.0)
	})

	Convey("Given a Low sensitivity user", t, func() {
		Convey("Then anything at or above 0.2 is admitted", func() {
			So(selection.Appropriate(model.SensitivityLow, 0.2), ShouldBeTrue)
			So(selection.Appropriate(model.SensitivityLow, 0.95), ShouldBeTrue)
			So(selection.Appropriate(model.SensitivityLow, 0.19), ShouldBeFalse)
		})
	})

	Convey("Given a VeryHigh sensitivity user", t, func() {
		Convey("Then an event scored 0.79 is rejected", func() {
			So(selection.Appropriate(model.SensitivityVeryHigh, 0.79), ShouldBeFalse)
			So(selection.Appropriate(model.SensitivityVeryHigh, 0.8), ShouldBeTrue)
		})
	})

	Convey("Given an unset sensitivity", t, func() {
		So(selection.Appropriate(model.SensitivityUnset, 0), ShouldBeTrue)
	})
}

func TestDiaspora(t *testing.T) {
	Convey("Given a Traditional user", t, func() {
		So(selection.Diaspora(model.AdaptationTraditional, true, 0.71), ShouldBeTrue)
		So(selection.Diaspora(model.AdaptationTraditional, true, 0.7), ShouldBeFalse)
		So(selection.Diaspora(model.AdaptationTraditional, false, 0.95), ShouldBeFalse)
	})

	Convey("Given a Conservative user", t, func() {
		So(selection.Diaspora(model.AdaptationConservative, true, 0.51), ShouldBeTrue)
		So(selection.Diaspora(model.AdaptationConservative, true, 0.5), ShouldBeFalse)
		So(selection.Diaspora(model.AdaptationConservative, false, 0.9), ShouldBeFalse)
	})

	Convey("Given a Moderate user", t, func() {
		So(selection.Diaspora(model.AdaptationModerate, true, 0), ShouldBeTrue)
		So(selection.Diaspora(model.AdaptationModerate, false, 0.31), ShouldBeTrue)
		So(selection.Diaspora(model.AdaptationModerate, false, 0.3), ShouldBeFalse)
	})

	Convey("Given an Adaptive user", t, func() {
		So(selection.Diaspora(model.AdaptationAdaptive, false, 0.11), ShouldBeTrue)
		So(selection.Diaspora(model.AdaptationAdaptive, true, 0.1), ShouldBeFalse)
	})

	Convey("Given a FullyIntegrated user", t, func() {
		So(selection.Diaspora(model.AdaptationFullyIntegrated, false, 0), ShouldBeTrue)
		So(selection.Diaspora(model.AdaptationLevel(99), false, 0), ShouldBeTrue)
	})
}
