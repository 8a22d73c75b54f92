package scoring

import (
	"testing"

	"github.com/reeltier/reeltier/internal/domain"
)

func TestAdjusted_ShrinksSingleRatingTowardMean(t *testing.T) {
	stats := domain.GlobalStats{GlobalMu: 7.7, PseudoCount: 10}

	// One perfect rating: (1*10 + 10*7.7) / 11 = 7.909..., shown as 7.9.
	got := Adjusted(10.0, 1, stats)
	if got != 7.9 {
		t.Fatalf("Adjusted(10, 1) = %v, want 7.9", got)
	}
}

func TestAdjusted_HighCountConvergesToRawAverage(t *testing.T) {
	stats := domain.GlobalStats{GlobalMu: 5.0, PseudoCount: 10}

	// 10k ratings averaging 9.0 should sit at the raw average.
	got := Adjusted(9.0*10000, 10000, stats)
	if got != 9.0 {
		t.Fatalf("Adjusted for large count = %v, want 9.0", got)
	}
}

func TestAdjusted_MonotoneInRawAverage(t *testing.T) {
	stats := domain.GlobalStats{GlobalMu: 6.0, PseudoCount: 5}

	prev := -1.0
	for avg := 1.0; avg <= 10.0; avg += 0.5 {
		got := Adjusted(avg*20, 20, stats)
		if got < prev {
			t.Fatalf("adjusted score decreased from %v to %v as raw average rose to %v", prev, got, avg)
		}
		prev = got
	}
}

func TestAdjusted_MonotoneTowardRawAverageInCount(t *testing.T) {
	stats := domain.GlobalStats{GlobalMu: 5.0, PseudoCount: 10}

	// Raw average 9.0 is above the mean, so more ratings must only pull the
	// adjusted score upward, toward 9.0.
	prev := 0.0
	for count := int64(1); count <= 1000; count *= 10 {
		got := Adjusted(9.0*float64(count), count, stats)
		if got < prev {
			t.Fatalf("adjusted score moved away from raw average: %v then %v at count %d", prev, got, count)
		}
		if got > 9.0 {
			t.Fatalf("adjusted score %v overshot raw average at count %d", got, count)
		}
		prev = got
	}
}

func TestAdjusted_Degenerate(t *testing.T) {
	if got := Adjusted(0, 0, domain.GlobalStats{}); got != 0 {
		t.Fatalf("empty corpus = %v, want 0", got)
	}
	// No ratings but a live corpus: the title reads as the corpus mean.
	got := Adjusted(0, 0, domain.GlobalStats{GlobalMu: 7.2, PseudoCount: 4})
	if got != 7.2 {
		t.Fatalf("zero-count title = %v, want globalMu 7.2", got)
	}
}

func TestRoundDisplay(t *testing.T) {
	if got := RoundDisplay(7.90909); got != 7.9 {
		t.Fatalf("RoundDisplay = %v, want 7.9", got)
	}
	if got := RoundDisplay(7.95); got != 8.0 {
		t.Fatalf("RoundDisplay = %v, want 8.0", got)
	}
}
