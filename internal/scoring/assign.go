package scoring

import "math"

// scoreEpsilon is the tolerance below which a recomputed score is considered
// unchanged and no delta is emitted.
const scoreEpsilon = 0.001

// ScoreForRank converts an ordinal position inside a tier into a score within
// the tier's band. Positions are spaced evenly around the band midpoint: rank
// 0 is the best item and receives the highest score. A tier of size 1 maps to
// exactly the midpoint.
func ScoreForRank(band Band, size, rank int) float64 {
	mid := band.Mid()
	if size <= 1 {
		return roundScore(mid)
	}

	center := float64(size-1) / 2
	halfWidth := (band.Max - band.Min) / 2
	step := halfWidth / math.Max(center, 1)

	score := mid + (center-float64(rank))*step
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return roundScore(mid)
	}
	return roundScore(clamp(score, band.Min, band.Max))
}

// Changed reports whether two scores differ beyond the assignor tolerance.
func Changed(oldScore, newScore float64) bool {
	return math.Abs(oldScore-newScore) > scoreEpsilon
}

// ValidScore gates values before they are persisted or aggregated.
func ValidScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// roundScore keeps personal scores at 3-decimal precision.
func roundScore(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
