package ranklist

import (
	"errors"
	"sync"
)

// ErrRecalcInProgress indicates another mutation of the same user's list is
// still outstanding.
var ErrRecalcInProgress = errors.New("ranklist: recalculation already in progress")

// Guard serializes list mutations per user. Interleaved tier rewrites could
// otherwise produce an inconsistent rank-to-score mapping, so a second
// mutation is rejected instead of queued.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewGuard constructs an empty guard.
func NewGuard() *Guard {
	return &Guard{busy: make(map[string]struct{})}
}

// Acquire marks a user's list as in-flight and returns a release func.
// Returns ErrRecalcInProgress if the user already holds the slot.
func (g *Guard) Acquire(userID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.busy[userID]; held {
		return nil, ErrRecalcInProgress
	}
	g.busy[userID] = struct{}{}

	return func() {
		g.mu.Lock()
		delete(g.busy, userID)
		g.mu.Unlock()
	}, nil
}
