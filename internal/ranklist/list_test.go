package ranklist

import (
	"fmt"
	"testing"

	"github.com/reeltier/reeltier/internal/domain"
	"github.com/reeltier/reeltier/internal/scoring"
)

func makeItem(id string, sentiment domain.Sentiment, score float64) domain.RankedItem {
	return domain.RankedItem{
		ID:        id,
		UserID:    "user1",
		TmdbID:    int64(100 + len(id)),
		MediaType: domain.MediaTypeMovie,
		Title:     "Title " + id,
		Sentiment: sentiment,
		Score:     score,
		State:     domain.StateScoreUpdate,
	}
}

func assertPartitionInvariant(t *testing.T, l *List) {
	t.Helper()
	items := l.Items()
	prevTier := -1
	prevScore := 0.0
	for i, item := range items {
		tier := domain.TierIndex(item.Sentiment)
		if tier < prevTier {
			t.Fatalf("item %d: tier order violated (%s after tier %d)", i, item.Sentiment, prevTier)
		}
		if tier == prevTier && item.Score > prevScore {
			t.Fatalf("item %d: score %v above previous %v within tier %s", i, item.Score, prevScore, item.Sentiment)
		}
		band, err := scoring.BandFor(item.Sentiment)
		if err != nil {
			t.Fatalf("item %d: %v", i, err)
		}
		if !band.Contains(item.Score) {
			t.Fatalf("item %d: score %v outside band for %s", i, item.Score, item.Sentiment)
		}
		prevTier, prevScore = tier, item.Score
	}
}

func TestNewList_SkipsUnknownSentiment(t *testing.T) {
	items := []domain.RankedItem{
		makeItem("a", domain.SentimentLiked, 10.0),
		makeItem("b", domain.Sentiment("meh"), 5.0),
		makeItem("c", domain.SentimentFine, 5.4),
	}

	l := NewList(items)
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if len(l.Skipped()) != 1 || l.Skipped()[0].ID != "b" {
		t.Fatalf("Skipped = %+v, want item b", l.Skipped())
	}
}

func TestInsertAt_AssignsWholeTier(t *testing.T) {
	l := NewList(nil)

	// First item in an empty tier lands exactly on the midpoint.
	deltas, err := l.InsertAt(makeItem("a", domain.SentimentLiked, 0), 0)
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if len(deltas) != 1 || deltas[0].NewScore != 8.45 {
		t.Fatalf("deltas = %+v, want single delta to 8.45", deltas)
	}

	// Insert at the top: three members spread 10.0 / 8.45 / 6.9.
	if _, err := l.InsertAt(makeItem("b", domain.SentimentLiked, 0), 0); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if _, err := l.InsertAt(makeItem("c", domain.SentimentLiked, 0), 0); err != nil {
		t.Fatalf("insert c: %v", err)
	}

	items := l.Items()
	want := []struct {
		id    string
		score float64
	}{{"c", 10.0}, {"b", 8.45}, {"a", 6.9}}
	for i, w := range want {
		if items[i].ID != w.id || items[i].Score != w.score {
			t.Fatalf("items[%d] = %s/%v, want %s/%v", i, items[i].ID, items[i].Score, w.id, w.score)
		}
	}
	assertPartitionInvariant(t, l)
}

func TestInsertAt_OtherTiersUntouched(t *testing.T) {
	l := NewList([]domain.RankedItem{
		makeItem("liked1", domain.SentimentLiked, 8.45),
		makeItem("fine1", domain.SentimentFine, 5.4),
	})

	deltas, err := l.InsertAt(makeItem("disliked1", domain.SentimentDisliked, 0), 0)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	for _, d := range deltas {
		if d.ItemID == "liked1" || d.ItemID == "fine1" {
			t.Fatalf("unrelated tier member %s received a delta", d.ItemID)
		}
	}
	assertPartitionInvariant(t, l)
}

func TestInsertThenDeleteRestoresScores(t *testing.T) {
	l := NewList(nil)
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("item%d", i)
		if _, err := l.InsertAt(makeItem(id, domain.SentimentFine, 0), i); err != nil {
			t.Fatalf("seed insert %s: %v", id, err)
		}
	}

	before := map[string]float64{}
	for _, item := range l.Items() {
		before[item.ID] = item.Score
	}

	if _, err := l.InsertAt(makeItem("intruder", domain.SentimentFine, 0), 2); err != nil {
		t.Fatalf("insert intruder: %v", err)
	}
	removed, _ := l.Delete("intruder")
	if len(removed) != 1 {
		t.Fatalf("removed %d items, want 1", len(removed))
	}

	for _, item := range l.Items() {
		if before[item.ID] != item.Score {
			t.Fatalf("item %s score %v, want restored %v", item.ID, item.Score, before[item.ID])
		}
	}
	assertPartitionInvariant(t, l)
}

func TestDelete_OnlyAffectedTierRecalculated(t *testing.T) {
	l := NewList(nil)
	for i := 0; i < 3; i++ {
		if _, err := l.InsertAt(makeItem(fmt.Sprintf("liked%d", i), domain.SentimentLiked, 0), i); err != nil {
			t.Fatalf("seed liked: %v", err)
		}
		if _, err := l.InsertAt(makeItem(fmt.Sprintf("fine%d", i), domain.SentimentFine, 0), i); err != nil {
			t.Fatalf("seed fine: %v", err)
		}
	}

	_, deltas := l.Delete("liked1")
	for _, d := range deltas {
		if d.ItemID[:4] == "fine" {
			t.Fatalf("untouched tier member %s received a delta", d.ItemID)
		}
	}
	assertPartitionInvariant(t, l)
}

func TestRecalculateAll_RepairsDrift(t *testing.T) {
	// Stored scores drifted away from what the assignor would produce.
	l := NewList([]domain.RankedItem{
		makeItem("a", domain.SentimentLiked, 9.1),
		makeItem("b", domain.SentimentLiked, 7.3),
		makeItem("c", domain.SentimentDisliked, 2.2),
	})

	deltas := l.RecalculateAll()
	if len(deltas) != 3 {
		t.Fatalf("deltas = %d, want 3", len(deltas))
	}

	items := l.Items()
	if items[0].Score != 9.225 || items[1].Score != 7.675 {
		t.Fatalf("liked tier = %v/%v, want 9.225/7.675", items[0].Score, items[1].Score)
	}
	if items[2].Score != 1.95 {
		t.Fatalf("disliked singleton = %v, want midpoint 1.95", items[2].Score)
	}

	// A second pass over a coherent list is a no-op.
	if again := l.RecalculateAll(); len(again) != 0 {
		t.Fatalf("second recalculation produced deltas: %+v", again)
	}
	assertPartitionInvariant(t, l)
}

func TestInsertAt_UnknownSentimentRejected(t *testing.T) {
	l := NewList(nil)
	if _, err := l.InsertAt(makeItem("x", domain.Sentiment("meh"), 0), 0); err == nil {
		t.Fatalf("expected error for unknown sentiment")
	}
}

func TestInsertAt_RankClamped(t *testing.T) {
	l := NewList(nil)
	if _, err := l.InsertAt(makeItem("a", domain.SentimentLiked, 0), 0); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if _, err := l.InsertAt(makeItem("b", domain.SentimentLiked, 0), 99); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	items := l.Items()
	if items[len(items)-1].ID != "b" {
		t.Fatalf("oversized rank did not append to tier end")
	}
	assertPartitionInvariant(t, l)
}
