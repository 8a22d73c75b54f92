package community

import (
	"context"
	"testing"

	"github.com/reeltier/reeltier/internal/domain"
)

// The aggregate store is deliberately nil in these tests: the lifecycle gate
// must short-circuit before any store access for non-final input, so a panic
// here means a draft leaked through.

func TestContribute_IgnoresNonFinalItems(t *testing.T) {
	svc := NewService(nil, NewSnapshot(nil, nil), 2, nil)

	for _, state := range []domain.RatingState{domain.StateInitialSentiment, domain.StateComparing} {
		item := domain.RankedItem{
			ID:        "draft",
			TmdbID:    603,
			MediaType: domain.MediaTypeMovie,
			Score:     8.45,
			State:     state,
		}
		if err := svc.Contribute(context.Background(), item, nil); err != nil {
			t.Fatalf("Contribute(%s): %v", state, err)
		}
	}
}

func TestWithdraw_IgnoresNonFinalItems(t *testing.T) {
	svc := NewService(nil, NewSnapshot(nil, nil), 2, nil)

	item := domain.RankedItem{
		ID:        "draft",
		TmdbID:    603,
		MediaType: domain.MediaTypeMovie,
		Score:     8.45,
		State:     domain.StateComparing,
	}
	if err := svc.Withdraw(context.Background(), item); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
}

func TestApplyDeltas_FiltersNonFinalAndUnchanged(t *testing.T) {
	svc := NewService(nil, NewSnapshot(nil, nil), 2, nil)

	deltas := []domain.ScoreDelta{
		{ItemID: "a", State: domain.StateComparing, OldScore: 5.0, NewScore: 6.0},
		{ItemID: "b", State: domain.StateScoreUpdate, OldScore: 8.45, NewScore: 8.45},
		{ItemID: "c", State: domain.StateInitialSentiment, OldScore: 0, NewScore: 5.4},
	}
	if err := svc.ApplyDeltas(context.Background(), deltas); err != nil {
		t.Fatalf("ApplyDeltas: %v", err)
	}
}

func TestStats_ReflectsSnapshot(t *testing.T) {
	snap := NewSnapshot(nil, nil)
	svc := NewService(nil, snap, 2, nil)

	stats := svc.Stats()
	if stats.GlobalMu != 0 || stats.PseudoCount != 0 {
		t.Fatalf("fresh snapshot = %+v, want zero values", stats)
	}
}
