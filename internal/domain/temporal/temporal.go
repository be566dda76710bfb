// Package temporal scores how well an event's timing fits a target date,
// the religious calendar and festival periods.
package temporal

import (
	"math"
	"time"

	"github.com/okian/eventrec/internal/domain/model"
)

const (
	// RelevanceWindow is the distance at which date proximity reaches zero.
	RelevanceWindow = 30 * 24 * time.Hour
	// SignificantDateWindow is how close a significant date must be to earn the bonus.
	SignificantDateWindow = 3 * 24 * time.Hour

	SignificantDateBonus = 0.2
	FestivalBonusValue   = 0.2

	religiousObservanceTiming = 0.9
	regularTiming             = 0.7
)

// DateRelevance scores an event starting at start against target. Proximity
// decays linearly to 0 over RelevanceWindow; a significant date within
// SignificantDateWindow of start adds SignificantDateBonus. The result is at most 1.
func DateRelevance(start, target time.Time, significant []model.SignificantDate) float64 {
	proximity := math.Max(0, 1-absDays(start.Sub(target))/days(RelevanceWindow))

	bonus := 0.0
	for _, sd := range significant {
		if absDays(sd.Date.Sub(start)) <= days(SignificantDateWindow) {
			bonus = SignificantDateBonus
			break
		}
	}
	return math.Min(1, proximity+bonus)
}

// CulturalTiming is 0.9 for a religious event on a poyaday and 0.7 otherwise.
func CulturalTiming(isPoyaday bool, nature model.EventNature) float64 {
	if isPoyaday && nature == model.NatureReligious {
		return religiousObservanceTiming
	}
	return regularTiming
}

// FestivalBonus is FestivalBonusValue when start lies within the festival period.
func FestivalBonus(start time.Time, period model.FestivalPeriod) float64 {
	if period.Contains(start) {
		return FestivalBonusValue
	}
	return 0
}

func days(d time.Duration) float64 { return d.Hours() / 24 }

func absDays(d time.Duration) float64 { return math.Abs(days(d)) }
