package community

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/reeltier/reeltier/internal/domain"
	"github.com/reeltier/reeltier/internal/repository"
	"github.com/reeltier/reeltier/internal/scoring"
)

// Service is the lifecycle gate in front of the aggregate store: only
// final-state scores ever reach it, and every mutation it issues is a single
// per-title transaction.
type Service struct {
	repo     *repository.Repository
	snapshot *Snapshot
	workers  int
	logger   *log.Logger
}

// NewService wires the aggregator service.
func NewService(repo *repository.Repository, snapshot *Snapshot, workers int, logger *log.Logger) *Service {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, snapshot: snapshot, workers: workers, logger: logger}
}

// Contribute applies a newly finalized item to its title's aggregate.
// previous carries the score this user already had in the aggregate, if any:
// nil means a brand-new contribution (count grows), non-nil means the old
// score is swapped out without touching the count.
func (s *Service) Contribute(ctx context.Context, item domain.RankedItem, previous *float64) error {
	if !item.State.Final() {
		return nil
	}
	if previous != nil {
		return s.repo.Aggregates.Replace(ctx, item.TitleKey(), *previous, item.Score)
	}
	return s.repo.Aggregates.Add(ctx, item.TitleKey(), item.Title, item.Score)
}

// Withdraw removes a deleted item's contribution. Items that never reached a
// final state have nothing to withdraw.
func (s *Service) Withdraw(ctx context.Context, item domain.RankedItem) error {
	if !item.State.Final() {
		return nil
	}
	return s.repo.Aggregates.Remove(ctx, item.TitleKey(), item.Score)
}

// ApplyDeltas replays cascaded score changes against the shared aggregates.
// Non-final deltas only ever touched the user's private records, so they are
// dropped here. Titles are dispatched as a bounded set of concurrent tasks
// with no ordering guarantee between them; each title's transaction is
// independently atomic, so the batch can be abandoned between titles. A
// failure on one title is logged and does not abort the others.
func (s *Service) ApplyDeltas(ctx context.Context, deltas []domain.ScoreDelta) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, delta := range deltas {
		if !delta.State.Final() {
			continue
		}
		if !scoring.Changed(delta.OldScore, delta.NewScore) {
			continue
		}
		delta := delta
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := domain.TitleKey{TmdbID: delta.TmdbID, MediaType: delta.MediaType}
			if err := s.repo.Aggregates.Replace(ctx, key, delta.OldScore, delta.NewScore); err != nil {
				s.logger.Printf("community: replace rating for %d/%s failed: %v", delta.TmdbID, delta.MediaType, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ConfidenceAdjusted reads a title's aggregate and blends it with the
// current global snapshot.
func (s *Service) ConfidenceAdjusted(ctx context.Context, key domain.TitleKey) (float64, domain.CommunityAggregate, error) {
	agg, err := s.repo.Aggregates.Get(ctx, key)
	if err != nil {
		return 0, domain.CommunityAggregate{}, err
	}
	adjusted := scoring.Adjusted(agg.TotalScore, agg.NumberOfRatings, s.snapshot.Current())
	return adjusted, agg, nil
}

// Rebuild regenerates every aggregate from the per-user records and
// refreshes the snapshot from the repaired state.
func (s *Service) Rebuild(ctx context.Context) (int64, error) {
	rebuilt, err := s.repo.Aggregates.Rebuild(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.snapshot.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Printf("community: snapshot refresh after rebuild failed: %v", err)
	}
	return rebuilt, nil
}

// Stats exposes the current global snapshot.
func (s *Service) Stats() domain.GlobalStats {
	return s.snapshot.Current()
}
