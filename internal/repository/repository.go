package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reeltier/reeltier/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrCorrupted indicates an aggregate was observed in an impossible state
// (negative total, or zero ratings with a nonzero total). Corrupted rows are
// never patched in place; rebuilding from the per-user records is the only
// sanctioned recovery.
var ErrCorrupted = errors.New("repository: aggregate corrupted")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Items      *ItemsRepository
	Aggregates *AggregatesRepository
	Stats      *StatsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Items:      &ItemsRepository{pool: pool},
		Aggregates: &AggregatesRepository{pool: pool},
		Stats:      &StatsRepository{pool: pool},
	}
}
