package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reeltier/reeltier/internal/domain"
)

// StatsRepository recomputes the corpus-wide snapshot that feeds the
// shrinkage formula: the global mean score and the pseudo-count, set to the
// median number of ratings across all titles.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// Compute runs one pass over all aggregates.
func (r *StatsRepository) Compute(ctx context.Context) (domain.GlobalStats, error) {
	const query = `
        SELECT COALESCE(SUM(total_score), 0)::float8,
               COALESCE(SUM(number_of_ratings), 0)::int8,
               COUNT(*)::int8,
               COALESCE(percentile_cont(0.5) WITHIN GROUP (ORDER BY number_of_ratings), 0)::float8
        FROM community_aggregates
    `

	var (
		sumTotal  float64
		sumCount  int64
		titles    int64
		medianCnt float64
	)
	if err := r.pool.QueryRow(ctx, query).Scan(&sumTotal, &sumCount, &titles, &medianCnt); err != nil {
		return domain.GlobalStats{}, fmt.Errorf("compute global stats: %w", err)
	}

	stats := domain.GlobalStats{
		PseudoCount:  medianCnt,
		TotalRatings: sumCount,
		TotalTitles:  titles,
		ComputedAt:   time.Now().UTC(),
	}
	if sumCount > 0 {
		stats.GlobalMu = sumTotal / float64(sumCount)
	}
	return stats, nil
}
