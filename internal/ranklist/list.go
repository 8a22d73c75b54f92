// Package ranklist implements a user's ordered, tier-partitioned list of
// ranked titles and the recalculation of scores whenever membership changes.
package ranklist

import (
	"fmt"
	"sort"

	"github.com/reeltier/reeltier/internal/domain"
	"github.com/reeltier/reeltier/internal/scoring"
)

// List is one user's ordered list for a single media category. Items are kept
// partitioned contiguously by sentiment tier, best tier first, and within a
// tier score is strictly non-increasing with rank.
type List struct {
	items   []domain.RankedItem
	skipped []domain.RankedItem
}

// NewList builds a List from stored rows. Items with an unknown sentiment
// cannot be placed in a tier; they are set aside as skipped and reported,
// not treated as fatal.
func NewList(items []domain.RankedItem) *List {
	l := &List{}
	for _, item := range items {
		if domain.TierIndex(item.Sentiment) < 0 {
			l.skipped = append(l.skipped, item)
			continue
		}
		l.items = append(l.items, item)
	}
	sort.SliceStable(l.items, func(i, j int) bool {
		ti, tj := domain.TierIndex(l.items[i].Sentiment), domain.TierIndex(l.items[j].Sentiment)
		if ti != tj {
			return ti < tj
		}
		return l.items[i].Score > l.items[j].Score
	})
	return l
}

// Items returns the current partition order.
func (l *List) Items() []domain.RankedItem {
	out := make([]domain.RankedItem, len(l.items))
	copy(out, l.items)
	return out
}

// Skipped returns items that could not be assigned to a tier.
func (l *List) Skipped() []domain.RankedItem {
	return l.skipped
}

// Len returns the number of placeable items.
func (l *List) Len() int {
	return len(l.items)
}

// Get returns the item with the given id.
func (l *List) Get(id string) (domain.RankedItem, bool) {
	for _, item := range l.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.RankedItem{}, false
}

// tierBounds returns the half-open [start,end) segment of a tier.
func (l *List) tierBounds(s domain.Sentiment) (int, int) {
	start, end := -1, len(l.items)
	for i, item := range l.items {
		if item.Sentiment == s {
			if start < 0 {
				start = i
			}
			end = i + 1
		}
	}
	if start < 0 {
		// Empty tier: locate the insertion point after all better tiers.
		idx := 0
		for i, item := range l.items {
			if domain.TierIndex(item.Sentiment) < domain.TierIndex(s) {
				idx = i + 1
			}
		}
		return idx, idx
	}
	return start, end
}

// InsertAt splices item into its sentiment tier at the desired rank (0 =
// best) and reassigns the whole tier so every member carries a coherent
// score. It returns a delta for every member whose score moved beyond the
// assignor tolerance; the inserted item's delta is always included.
func (l *List) InsertAt(item domain.RankedItem, desiredRank int) ([]domain.ScoreDelta, error) {
	if domain.TierIndex(item.Sentiment) < 0 {
		return nil, fmt.Errorf("insert %s: unknown sentiment %q", item.ID, item.Sentiment)
	}

	start, end := l.tierBounds(item.Sentiment)
	size := end - start
	if desiredRank < 0 {
		desiredRank = 0
	}
	if desiredRank > size {
		desiredRank = size
	}

	at := start + desiredRank
	l.items = append(l.items, domain.RankedItem{})
	copy(l.items[at+1:], l.items[at:])
	l.items[at] = item

	deltas := l.reassignTier(item.Sentiment)
	if !containsDelta(deltas, item.ID) {
		deltas = append(deltas, domain.ScoreDelta{
			ItemID:    item.ID,
			TmdbID:    item.TmdbID,
			MediaType: item.MediaType,
			State:     item.State,
			OldScore:  item.Score,
			NewScore:  item.Score,
		})
	}
	return deltas, nil
}

// Delete removes the identified items, then reassigns only the tiers that
// lost members. It returns the removed items alongside the deltas for the
// surviving members whose score moved.
func (l *List) Delete(ids ...string) ([]domain.RankedItem, []domain.ScoreDelta) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var removed []domain.RankedItem
	touched := make(map[domain.Sentiment]struct{})
	kept := l.items[:0]
	for _, item := range l.items {
		if _, ok := wanted[item.ID]; ok {
			removed = append(removed, item)
			touched[item.Sentiment] = struct{}{}
			continue
		}
		kept = append(kept, item)
	}
	l.items = kept

	var deltas []domain.ScoreDelta
	for tier := range touched {
		deltas = append(deltas, l.reassignTier(tier)...)
	}
	return removed, deltas
}

// RecalculateAll reassigns every tier. Used after bulk loads to repair drift
// between stored and recomputed scores.
func (l *List) RecalculateAll() []domain.ScoreDelta {
	var deltas []domain.ScoreDelta
	for _, tier := range domain.TierOrder {
		deltas = append(deltas, l.reassignTier(tier)...)
	}
	return deltas
}

// reassignTier recomputes scores for one tier's members and returns deltas
// for those that moved beyond tolerance.
func (l *List) reassignTier(s domain.Sentiment) []domain.ScoreDelta {
	band, err := scoring.BandFor(s)
	if err != nil {
		return nil
	}

	start, end := l.tierBounds(s)
	size := end - start

	var deltas []domain.ScoreDelta
	for rank := 0; rank < size; rank++ {
		idx := start + rank
		oldScore := l.items[idx].Score
		newScore := scoring.ScoreForRank(band, size, rank)
		if !scoring.Changed(oldScore, newScore) {
			continue
		}
		l.items[idx].Score = newScore
		deltas = append(deltas, domain.ScoreDelta{
			ItemID:    l.items[idx].ID,
			TmdbID:    l.items[idx].TmdbID,
			MediaType: l.items[idx].MediaType,
			State:     l.items[idx].State,
			OldScore:  oldScore,
			NewScore:  newScore,
		})
	}
	return deltas
}

func containsDelta(deltas []domain.ScoreDelta, itemID string) bool {
	for _, d := range deltas {
		if d.ItemID == itemID {
			return true
		}
	}
	return false
}
