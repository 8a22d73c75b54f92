package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reeltier/reeltier/internal/domain"
)

// ItemsRepository persists each user's ranked items.
type ItemsRepository struct {
	pool *pgxpool.Pool
}

const itemColumns = `
    id,
    user_id,
    tmdb_id,
    media_type,
    title,
    poster_path,
    sentiment,
    score,
    original_score,
    comparisons_count,
    rating_state,
    created_at,
    updated_at
`

// Insert stores a new ranked item and returns the stored row.
func (r *ItemsRepository) Insert(ctx context.Context, item domain.RankedItem) (domain.RankedItem, error) {
	query := fmt.Sprintf(`
        INSERT INTO ranked_items
            (id, user_id, tmdb_id, media_type, title, poster_path, sentiment,
             score, original_score, comparisons_count, rating_state)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING %s
    `, itemColumns)

	row := r.pool.QueryRow(ctx, query,
		item.ID, item.UserID, item.TmdbID, string(item.MediaType), item.Title,
		item.PosterPath, string(item.Sentiment), item.Score, item.OriginalScore,
		item.ComparisonsCount, string(item.State))
	return scanItem(row)
}

// GetByID fetches a ranked item by its identifier.
func (r *ItemsRepository) GetByID(ctx context.Context, id string) (domain.RankedItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM ranked_items WHERE id = $1`, itemColumns)
	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RankedItem{}, ErrNotFound
		}
		return domain.RankedItem{}, err
	}
	return item, nil
}

// ListByUser returns a user's items for one media category in partition
// order: best tier first, then score descending.
func (r *ItemsRepository) ListByUser(ctx context.Context, userID string, mediaType domain.MediaType) ([]domain.RankedItem, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ranked_items
        WHERE user_id = $1 AND media_type = $2
        ORDER BY
            CASE sentiment
                WHEN 'liked' THEN 0
                WHEN 'fine' THEN 1
                WHEN 'disliked' THEN 2
                ELSE 3
            END,
            score DESC,
            created_at ASC
    `, itemColumns)

	rows, err := r.pool.Query(ctx, query, userID, string(mediaType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RankedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindTerminalByTitle returns the user's final-state item for a title, if
// any. Used to decide whether a new final placement is a fresh community
// contribution or a replacement.
func (r *ItemsRepository) FindTerminalByTitle(ctx context.Context, userID string, key domain.TitleKey) (domain.RankedItem, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ranked_items
        WHERE user_id = $1 AND tmdb_id = $2 AND media_type = $3
          AND rating_state IN ('finalInsertion', 'scoreUpdate')
        ORDER BY updated_at DESC
        LIMIT 1
    `, itemColumns)

	item, err := scanItem(r.pool.QueryRow(ctx, query, userID, key.TmdbID, string(key.MediaType)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RankedItem{}, ErrNotFound
		}
		return domain.RankedItem{}, err
	}
	return item, nil
}

// UpdatePlacement writes the score, sentiment, and lifecycle state produced
// by a final placement. The original score is captured only on the first
// transition into a final state.
func (r *ItemsRepository) UpdatePlacement(ctx context.Context, id string, sentiment domain.Sentiment, score float64, state domain.RatingState) (domain.RankedItem, error) {
	query := fmt.Sprintf(`
        UPDATE ranked_items
        SET sentiment = $2,
            score = $3,
            rating_state = $4,
            original_score = CASE
                WHEN rating_state IN ('initialSentiment', 'comparing') THEN $3
                ELSE original_score
            END,
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, itemColumns)

	item, err := scanItem(r.pool.QueryRow(ctx, query, id, string(sentiment), score, string(state)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RankedItem{}, ErrNotFound
		}
		return domain.RankedItem{}, err
	}
	return item, nil
}

// UpdateScores persists a batch of cascaded score changes. Items whose
// lifecycle moved from finalInsertion to scoreUpdate are re-tagged here.
func (r *ItemsRepository) UpdateScores(ctx context.Context, deltas []domain.ScoreDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range deltas {
		batch.Queue(`
            UPDATE ranked_items
            SET score = $2,
                rating_state = CASE
                    WHEN rating_state IN ('finalInsertion', 'scoreUpdate') THEN 'scoreUpdate'
                    ELSE rating_state
                END,
                updated_at = now()
            WHERE id = $1
        `, d.ItemID, d.NewScore)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range deltas {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("update scores: %w", err)
		}
	}
	return nil
}

// RecordComparison moves an item into the comparing state and bumps its
// comparison counter.
func (r *ItemsRepository) RecordComparison(ctx context.Context, id string) (domain.RankedItem, error) {
	query := fmt.Sprintf(`
        UPDATE ranked_items
        SET rating_state = 'comparing',
            comparisons_count = comparisons_count + 1,
            updated_at = now()
        WHERE id = $1 AND rating_state IN ('initialSentiment', 'comparing')
        RETURNING %s
    `, itemColumns)

	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RankedItem{}, ErrNotFound
		}
		return domain.RankedItem{}, err
	}
	return item, nil
}

// Delete removes the identified items.
func (r *ItemsRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM ranked_items WHERE id = ANY($1)`, ids)
	return err
}

func scanItem(row pgx.Row) (domain.RankedItem, error) {
	var (
		item      domain.RankedItem
		mediaType string
		sentiment string
		state     string
	)
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.TmdbID,
		&mediaType,
		&item.Title,
		&item.PosterPath,
		&sentiment,
		&item.Score,
		&item.OriginalScore,
		&item.ComparisonsCount,
		&state,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return domain.RankedItem{}, err
	}
	item.MediaType = domain.MediaType(mediaType)
	item.Sentiment = domain.Sentiment(sentiment)
	item.State = domain.RatingState(state)
	return item, nil
}
