package scoring

import (
	"math"

	"github.com/reeltier/reeltier/internal/domain"
)

// Adjusted computes the confidence-adjusted community score for a title:
// a Bayesian blend of the title's raw average with the corpus mean, weighted
// by the pseudo-count c. Titles with count >> c converge to their raw
// average; titles with count << c sit near globalMu.
//
//	adjusted = (count*avg + c*mu) / (count + c)
//
// The result is rounded to 1 decimal before exposure.
func Adjusted(totalScore float64, numberOfRatings int64, stats domain.GlobalStats) float64 {
	count := float64(numberOfRatings)
	denom := count + stats.PseudoCount
	if denom == 0 {
		return 0
	}

	var avg float64
	if numberOfRatings > 0 {
		avg = totalScore / count
	}

	adjusted := (count*avg + stats.PseudoCount*stats.GlobalMu) / denom
	if math.IsNaN(adjusted) || math.IsInf(adjusted, 0) {
		return 0
	}
	return RoundDisplay(adjusted)
}

// RoundDisplay rounds an externally visible rating to 1 decimal.
func RoundDisplay(v float64) float64 {
	return math.Round(v*10) / 10
}
