package domain

import "fmt"

// RatingState tracks where a ranked item sits in its lifecycle. Only items in
// a final state contribute to the shared community aggregate.
type RatingState string

const (
	// StateInitialSentiment marks an item that was just created and has not
	// been placed relative to other titles yet.
	StateInitialSentiment RatingState = "initialSentiment"
	// StateComparing marks an item the user is still positioning.
	StateComparing RatingState = "comparing"
	// StateFinalInsertion marks the first final placement of an item.
	StateFinalInsertion RatingState = "finalInsertion"
	// StateScoreUpdate marks any later re-rank or cascading recalculation of
	// an already-final item.
	StateScoreUpdate RatingState = "scoreUpdate"
)

// transitions is the closed set of legal state changes. Terminal states only
// move between each other.
var transitions = map[RatingState][]RatingState{
	StateInitialSentiment: {StateComparing, StateFinalInsertion},
	StateComparing:        {StateComparing, StateFinalInsertion},
	StateFinalInsertion:   {StateScoreUpdate},
	StateScoreUpdate:      {StateScoreUpdate},
}

// ParseRatingState validates a raw state value.
func ParseRatingState(raw string) (RatingState, error) {
	switch RatingState(raw) {
	case StateInitialSentiment, StateComparing, StateFinalInsertion, StateScoreUpdate:
		return RatingState(raw), nil
	}
	return "", fmt.Errorf("unknown rating state %q", raw)
}

// Final reports whether a score in this state is allowed to affect the
// community aggregate.
func (s RatingState) Final() bool {
	return s == StateFinalInsertion || s == StateScoreUpdate
}

// CanTransition reports whether moving from s to next is legal.
func (s RatingState) CanTransition(next RatingState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the change is legal, otherwise an error naming
// the illegal edge.
func (s RatingState) Transition(next RatingState) (RatingState, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("illegal rating state transition %s -> %s", s, next)
	}
	return next, nil
}
