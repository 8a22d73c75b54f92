package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reeltier/reeltier/internal/domain"
	"github.com/reeltier/reeltier/internal/scoring"
)

// AggregatesRepository owns the shared per-title rating documents. Every
// mutation is a single atomic read-modify-write: the current row is locked
// and re-read inside the transaction, so two raters hitting the same title
// concurrently never lose an update.
type AggregatesRepository struct {
	pool *pgxpool.Pool
}

const aggregateColumns = `
    tmdb_id,
    media_type,
    title,
    total_score,
    number_of_ratings,
    last_updated
`

// Add records a brand-new community contribution for a title. A missing
// aggregate is created with {total=score, count=1}; an invalid score is a
// rejected no-op.
func (r *AggregatesRepository) Add(ctx context.Context, key domain.TitleKey, title string, score float64) error {
	if !scoring.ValidScore(score) {
		return fmt.Errorf("add rating for %d/%s: invalid score %v", key.TmdbID, key.MediaType, score)
	}

	return r.mutate(ctx, key, func(tx pgx.Tx, agg *domain.CommunityAggregate) error {
		if agg == nil {
			return insertAggregate(ctx, tx, key, title, score)
		}

		newTotal := agg.TotalScore + score
		newCount := agg.NumberOfRatings + 1
		if !scoring.ValidScore(newTotal) {
			// The stored document is unusable; restart it from this rating
			// rather than propagating the corruption.
			return resetAggregate(ctx, tx, key, title, score)
		}
		return updateAggregate(ctx, tx, key, newTotal, newCount)
	})
}

// Replace swaps a user's previous contribution for a new one without
// changing the rating count. Replacing against a title the user never
// contributed to is a benign no-op.
func (r *AggregatesRepository) Replace(ctx context.Context, key domain.TitleKey, oldScore, newScore float64) error {
	if !scoring.ValidScore(newScore) || !scoring.ValidScore(oldScore) {
		return fmt.Errorf("replace rating for %d/%s: invalid scores %v -> %v", key.TmdbID, key.MediaType, oldScore, newScore)
	}

	return r.mutate(ctx, key, func(tx pgx.Tx, agg *domain.CommunityAggregate) error {
		if agg == nil {
			return nil
		}
		newTotal := clampTiny(agg.TotalScore + (newScore - oldScore))
		return updateAggregate(ctx, tx, key, newTotal, agg.NumberOfRatings)
	})
}

// Remove withdraws a user's contribution. The last contributing rating
// deletes the aggregate entirely rather than leaving a zero-count row.
func (r *AggregatesRepository) Remove(ctx context.Context, key domain.TitleKey, score float64) error {
	if !scoring.ValidScore(score) {
		return fmt.Errorf("remove rating for %d/%s: invalid score %v", key.TmdbID, key.MediaType, score)
	}

	return r.mutate(ctx, key, func(tx pgx.Tx, agg *domain.CommunityAggregate) error {
		if agg == nil {
			return nil
		}
		newCount := agg.NumberOfRatings - 1
		if newCount <= 0 {
			_, err := tx.Exec(ctx, `
                DELETE FROM community_aggregates WHERE tmdb_id = $1 AND media_type = $2
            `, key.TmdbID, string(key.MediaType))
			return err
		}
		newTotal := clampTiny(agg.TotalScore - score)
		return updateAggregate(ctx, tx, key, newTotal, newCount)
	})
}

// Get returns the aggregate for a title. Impossible states surface as
// ErrCorrupted and are never patched inline.
func (r *AggregatesRepository) Get(ctx context.Context, key domain.TitleKey) (domain.CommunityAggregate, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM community_aggregates WHERE tmdb_id = $1 AND media_type = $2
    `, aggregateColumns)

	agg, err := scanAggregate(r.pool.QueryRow(ctx, query, key.TmdbID, string(key.MediaType)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.CommunityAggregate{}, ErrNotFound
		}
		return domain.CommunityAggregate{}, err
	}
	if corrupted(agg) {
		return domain.CommunityAggregate{}, fmt.Errorf("aggregate %d/%s (total=%v, count=%d): %w",
			agg.TmdbID, agg.MediaType, agg.TotalScore, agg.NumberOfRatings, ErrCorrupted)
	}
	return agg, nil
}

// Rebuild recomputes every aggregate from the authoritative per-user
// records. This is the sanctioned repair for corrupted aggregates.
func (r *AggregatesRepository) Rebuild(ctx context.Context) (int64, error) {
	var rebuilt int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM community_aggregates`); err != nil {
			return fmt.Errorf("clear aggregates: %w", err)
		}
		tag, err := tx.Exec(ctx, `
            INSERT INTO community_aggregates (tmdb_id, media_type, title, total_score, number_of_ratings, last_updated)
            SELECT tmdb_id, media_type, MIN(title), SUM(score), COUNT(*), now()
            FROM ranked_items
            WHERE rating_state IN ('finalInsertion', 'scoreUpdate')
            GROUP BY tmdb_id, media_type
        `)
		if err != nil {
			return fmt.Errorf("rebuild aggregates: %w", err)
		}
		rebuilt = tag.RowsAffected()
		return nil
	})
	return rebuilt, err
}

// mutate runs fn inside a transaction holding a row lock on the title's
// aggregate. fn receives nil when no aggregate exists yet.
func (r *AggregatesRepository) mutate(ctx context.Context, key domain.TitleKey, fn func(pgx.Tx, *domain.CommunityAggregate) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
            SELECT %s FROM community_aggregates
            WHERE tmdb_id = $1 AND media_type = $2
            FOR UPDATE
        `, aggregateColumns)

		agg, err := scanAggregate(tx.QueryRow(ctx, query, key.TmdbID, string(key.MediaType)))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fn(tx, nil)
			}
			return err
		}
		return fn(tx, &agg)
	})
}

func insertAggregate(ctx context.Context, tx pgx.Tx, key domain.TitleKey, title string, score float64) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO community_aggregates (tmdb_id, media_type, title, total_score, number_of_ratings, last_updated)
        VALUES ($1, $2, $3, $4, 1, now())
    `, key.TmdbID, string(key.MediaType), title, score)
	return err
}

func resetAggregate(ctx context.Context, tx pgx.Tx, key domain.TitleKey, title string, score float64) error {
	_, err := tx.Exec(ctx, `
        UPDATE community_aggregates
        SET title = CASE WHEN $3 <> '' THEN $3 ELSE title END,
            total_score = $4,
            number_of_ratings = 1,
            last_updated = now()
        WHERE tmdb_id = $1 AND media_type = $2
    `, key.TmdbID, string(key.MediaType), title, score)
	return err
}

func updateAggregate(ctx context.Context, tx pgx.Tx, key domain.TitleKey, total float64, count int64) error {
	_, err := tx.Exec(ctx, `
        UPDATE community_aggregates
        SET total_score = $3,
            number_of_ratings = $4,
            last_updated = now()
        WHERE tmdb_id = $1 AND media_type = $2
    `, key.TmdbID, string(key.MediaType), total, count)
	return err
}

func scanAggregate(row pgx.Row) (domain.CommunityAggregate, error) {
	var (
		agg       domain.CommunityAggregate
		mediaType string
	)
	err := row.Scan(
		&agg.TmdbID,
		&mediaType,
		&agg.Title,
		&agg.TotalScore,
		&agg.NumberOfRatings,
		&agg.LastUpdated,
	)
	if err != nil {
		return domain.CommunityAggregate{}, err
	}
	agg.MediaType = domain.MediaType(mediaType)
	return agg, nil
}

func corrupted(agg domain.CommunityAggregate) bool {
	if math.IsNaN(agg.TotalScore) || math.IsInf(agg.TotalScore, 0) {
		return true
	}
	if agg.TotalScore < 0 || agg.NumberOfRatings < 0 {
		return true
	}
	return agg.NumberOfRatings == 0 && agg.TotalScore != 0
}

// clampTiny absorbs float drift around zero so repeated replace/remove
// cycles cannot push a healthy total fractionally negative.
func clampTiny(v float64) float64 {
	if v < 0 && v > -1e-6 {
		return 0
	}
	return v
}
