package domain

import "fmt"

// Sentiment is one of the three buckets a ranked title belongs to.
type Sentiment string

const (
	SentimentLiked    Sentiment = "liked"
	SentimentFine     Sentiment = "fine"
	SentimentDisliked Sentiment = "disliked"
)

// TierOrder lists sentiments in display order, best tier first. A user's list
// is partitioned contiguously in this order.
var TierOrder = []Sentiment{SentimentLiked, SentimentFine, SentimentDisliked}

// ParseSentiment validates a raw sentiment value.
func ParseSentiment(raw string) (Sentiment, error) {
	switch Sentiment(raw) {
	case SentimentLiked, SentimentFine, SentimentDisliked:
		return Sentiment(raw), nil
	}
	return "", fmt.Errorf("unknown sentiment %q", raw)
}

// TierIndex returns the position of a sentiment in TierOrder, or -1 when the
// value is not a known sentiment.
func TierIndex(s Sentiment) int {
	for i, tier := range TierOrder {
		if tier == s {
			return i
		}
	}
	return -1
}

// MediaType distinguishes the two ranked media categories.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// ParseMediaType validates a raw media type value.
func ParseMediaType(raw string) (MediaType, error) {
	switch MediaType(raw) {
	case MediaTypeMovie, MediaTypeSeries:
		return MediaType(raw), nil
	}
	return "", fmt.Errorf("unknown media type %q", raw)
}
