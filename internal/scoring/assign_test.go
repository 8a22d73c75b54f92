package scoring

import (
	"math"
	"testing"

	"github.com/reeltier/reeltier/internal/domain"
)

func TestBandFor(t *testing.T) {
	cases := []struct {
		sentiment domain.Sentiment
		min, max  float64
	}{
		{domain.SentimentLiked, 6.9, 10.0},
		{domain.SentimentFine, 4.0, 6.8},
		{domain.SentimentDisliked, 0.0, 3.9},
	}
	for _, tc := range cases {
		band, err := BandFor(tc.sentiment)
		if err != nil {
			t.Fatalf("BandFor(%s): %v", tc.sentiment, err)
		}
		if band.Min != tc.min || band.Max != tc.max {
			t.Fatalf("BandFor(%s) = [%v,%v], want [%v,%v]", tc.sentiment, band.Min, band.Max, tc.min, tc.max)
		}
	}

	if _, err := BandFor(domain.Sentiment("meh")); err == nil {
		t.Fatalf("expected error for unknown sentiment")
	}
}

func TestScoreForRank_LikedTierOfThree(t *testing.T) {
	band, _ := BandFor(domain.SentimentLiked)

	want := []float64{10.0, 8.45, 6.9}
	for rank, expected := range want {
		got := ScoreForRank(band, 3, rank)
		if got != expected {
			t.Fatalf("ScoreForRank(liked, 3, %d) = %v, want %v", rank, got, expected)
		}
	}
}

func TestScoreForRank_SingleItemGetsMidpoint(t *testing.T) {
	for _, sentiment := range domain.TierOrder {
		band, _ := BandFor(sentiment)
		got := ScoreForRank(band, 1, 0)
		if got != math.Round(band.Mid()*1000)/1000 {
			t.Fatalf("ScoreForRank(%s, 1, 0) = %v, want midpoint %v", sentiment, got, band.Mid())
		}
	}
}

func TestScoreForRank_SequenceProperties(t *testing.T) {
	for _, sentiment := range domain.TierOrder {
		band, _ := BandFor(sentiment)
		for size := 2; size <= 50; size++ {
			prev := math.Inf(1)
			for rank := 0; rank < size; rank++ {
				score := ScoreForRank(band, size, rank)
				if !band.Contains(score) {
					t.Fatalf("%s size=%d rank=%d: score %v outside band [%v,%v]", sentiment, size, rank, score, band.Min, band.Max)
				}
				if score >= prev {
					t.Fatalf("%s size=%d rank=%d: score %v not strictly below previous %v", sentiment, size, rank, score, prev)
				}
				prev = score
			}

			best := ScoreForRank(band, size, 0)
			worst := ScoreForRank(band, size, size-1)
			if best <= worst {
				t.Fatalf("%s size=%d: best %v not above worst %v", sentiment, size, best, worst)
			}
		}
	}
}

func TestScoreForRank_DegenerateInputs(t *testing.T) {
	band := Band{Min: 4.0, Max: 6.8}
	mid := math.Round(band.Mid()*1000) / 1000

	if got := ScoreForRank(band, 0, 0); got != mid {
		t.Fatalf("size 0 = %v, want midpoint %v", got, mid)
	}
	if got := ScoreForRank(band, -3, 0); got != mid {
		t.Fatalf("negative size = %v, want midpoint %v", got, mid)
	}
	// Out-of-range ranks clamp to the band rather than escaping it.
	if got := ScoreForRank(band, 3, 99); !band.Contains(got) {
		t.Fatalf("oversized rank escaped band: %v", got)
	}
	if got := ScoreForRank(band, 3, -5); !band.Contains(got) {
		t.Fatalf("negative rank escaped band: %v", got)
	}
}

func TestChanged(t *testing.T) {
	if Changed(5.0, 5.0005) {
		t.Fatalf("difference below tolerance reported as changed")
	}
	if !Changed(5.0, 5.002) {
		t.Fatalf("difference above tolerance not reported")
	}
}

func TestValidScore(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.1} {
		if ValidScore(bad) {
			t.Fatalf("ValidScore(%v) = true, want false", bad)
		}
	}
	for _, ok := range []float64{0, 5.5, 10} {
		if !ValidScore(ok) {
			t.Fatalf("ValidScore(%v) = false, want true", ok)
		}
	}
}

func FuzzScoreForRank(f *testing.F) {
	f.Add(3, 0)
	f.Add(1, 0)
	f.Add(100, 99)
	f.Add(-1, 5)
	f.Fuzz(func(t *testing.T, size, rank int) {
		for _, sentiment := range domain.TierOrder {
			band, _ := BandFor(sentiment)
			score := ScoreForRank(band, size, rank)
			if math.IsNaN(score) || math.IsInf(score, 0) {
				t.Fatalf("non-finite score for size=%d rank=%d", size, rank)
			}
			if !band.Contains(score) {
				t.Fatalf("score %v outside band [%v,%v] for size=%d rank=%d", score, band.Min, band.Max, size, rank)
			}
		}
	})
}
