package domain

import "time"

// RankedItem is a single user's placement of a title inside their personal
// list. It is exclusively owned by that user; the shared community aggregate
// is only ever touched through the aggregator's transactional operations.
type RankedItem struct {
	ID               string
	UserID           string
	TmdbID           int64
	MediaType        MediaType
	Title            string
	PosterPath       *string
	Sentiment        Sentiment
	Score            float64
	OriginalScore    float64
	ComparisonsCount int
	State            RatingState
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TitleKey identifies the shared aggregate the item contributes to.
func (i RankedItem) TitleKey() TitleKey {
	return TitleKey{TmdbID: i.TmdbID, MediaType: i.MediaType}
}

// ScoreDelta records one item's score change produced by a list mutation.
// Deltas in a final state are the only ones that may reach the aggregator.
type ScoreDelta struct {
	ItemID    string
	TmdbID    int64
	MediaType MediaType
	State     RatingState
	OldScore  float64
	NewScore  float64
}

// MovieDetails is the denormalized display record consumed from the external
// metadata service. It never affects score math.
type MovieDetails struct {
	TmdbID      int64
	Title       string
	PosterPath  *string
	Genres      []string
	ReleaseDate *time.Time
}
