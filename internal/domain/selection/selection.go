// Package selection decides which candidate events reach scoring, based on
// a user's cultural sensitivity and diaspora adaptation level.
package selection

import "github.com/okian/eventrec/internal/domain/model"

// Threshold returns the minimum appropriateness admitted at level.
func Threshold(level model.SensitivityLevel) float64 {
	switch level {
	case model.SensitivityVeryHigh:
		return 0.8
	case model.SensitivityHigh:
		return 0.6
	case model.SensitivityMedium:
		return 0.4
	case model.SensitivityLow:
		return 0.2
	default:
		return 0
	}
}

// Appropriate reports whether appropriateness meets the threshold of level.
func Appropriate(level model.SensitivityLevel, appropriateness float64) bool {
	return appropriateness >= Threshold(level)
}

// Diaspora reports whether a location with the given diaspora flag and
// community density suits a user at level. Unknown levels admit everything.
func Diaspora(level model.AdaptationLevel, friendly bool, density float64) bool {
	switch level {
	case model.AdaptationTraditional:
		return friendly && density > 0.7
	case model.AdaptationConservative:
		return friendly && density > 0.5
	case model.AdaptationModerate:
		return friendly || density > 0.3
	case model.AdaptationAdaptive:
		return density > 0.1
	default:
		return true
	}
}
