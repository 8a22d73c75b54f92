// Package community applies final-state score changes to the shared
// per-title aggregates and serves the confidence-adjusted rating derived
// from them.
package community

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/reeltier/reeltier/internal/domain"
	"github.com/reeltier/reeltier/internal/repository"
)

// Snapshot caches the corpus-wide statistics used by the shrinkage formula.
// Readers always see the last successfully computed value; a failed refresh
// keeps the previous snapshot in place.
type Snapshot struct {
	stats  *repository.StatsRepository
	logger *log.Logger

	mu      sync.RWMutex
	current domain.GlobalStats
}

// NewSnapshot constructs an empty snapshot around the stats repository.
func NewSnapshot(stats *repository.StatsRepository, logger *log.Logger) *Snapshot {
	if logger == nil {
		logger = log.Default()
	}
	return &Snapshot{stats: stats, logger: logger}
}

// Current returns the cached statistics.
func (s *Snapshot) Current() domain.GlobalStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Refresh recomputes the snapshot from all aggregates.
func (s *Snapshot) Refresh(ctx context.Context) error {
	stats, err := s.stats.Compute(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = stats
	s.mu.Unlock()
	return nil
}

// Run refreshes the snapshot on a fixed interval until ctx is cancelled.
func (s *Snapshot) Run(ctx context.Context, interval time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Printf("community: initial stats refresh failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Printf("community: stats refresh failed: %v", err)
			}
		}
	}
}
