// Package scoring holds the pure score math: the per-sentiment band table,
// the rank-to-score assignor, and the Bayesian shrinkage applied when a
// community rating is read.
package scoring

import (
	"fmt"

	"github.com/reeltier/reeltier/internal/domain"
)

// Band is the closed numeric interval owned by one sentiment tier.
type Band struct {
	Min float64
	Max float64
}

// Mid returns the band midpoint.
func (b Band) Mid() float64 {
	return (b.Min + b.Max) / 2
}

// Contains reports whether v lies inside the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

var bands = map[domain.Sentiment]Band{
	domain.SentimentLiked:    {Min: 6.9, Max: 10.0},
	domain.SentimentFine:     {Min: 4.0, Max: 6.8},
	domain.SentimentDisliked: {Min: 0.0, Max: 3.9},
}

// BandFor resolves the band owned by a sentiment tier.
func BandFor(s domain.Sentiment) (Band, error) {
	band, ok := bands[s]
	if !ok {
		return Band{}, fmt.Errorf("no score band for sentiment %q", s)
	}
	return band, nil
}
