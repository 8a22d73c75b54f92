package domain

import "time"

// TitleKey identifies a title across both media categories.
type TitleKey struct {
	TmdbID    int64
	MediaType MediaType
}

// CommunityAggregate is the shared running total/count for one title. It is
// created on the first final-state contribution and deleted when the last
// contributing rating is removed.
type CommunityAggregate struct {
	TmdbID          int64
	MediaType       MediaType
	Title           string
	TotalScore      float64
	NumberOfRatings int64
	LastUpdated     time.Time
}

// Average returns the raw mean of the contributing scores, 0 when empty.
func (a CommunityAggregate) Average() float64 {
	if a.NumberOfRatings == 0 {
		return 0
	}
	return a.TotalScore / float64(a.NumberOfRatings)
}

// GlobalStats is the corpus-wide snapshot feeding the shrinkage formula.
// PseudoCount is the median number of ratings across all titles.
type GlobalStats struct {
	GlobalMu     float64
	PseudoCount  float64
	TotalRatings int64
	TotalTitles  int64
	ComputedAt   time.Time
}
