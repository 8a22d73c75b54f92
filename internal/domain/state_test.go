package domain

import "testing"

func TestRatingState_TransitionTable(t *testing.T) {
	cases := []struct {
		from, to RatingState
		ok       bool
	}{
		{StateInitialSentiment, StateComparing, true},
		{StateInitialSentiment, StateFinalInsertion, true},
		{StateInitialSentiment, StateScoreUpdate, false},
		{StateComparing, StateComparing, true},
		{StateComparing, StateFinalInsertion, true},
		{StateComparing, StateInitialSentiment, false},
		{StateFinalInsertion, StateScoreUpdate, true},
		{StateFinalInsertion, StateComparing, false},
		{StateFinalInsertion, StateFinalInsertion, false},
		{StateScoreUpdate, StateScoreUpdate, true},
		{StateScoreUpdate, StateFinalInsertion, false},
		{StateScoreUpdate, StateInitialSentiment, false},
	}

	for _, tc := range cases {
		got, err := tc.from.Transition(tc.to)
		if tc.ok {
			if err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
			}
			if got != tc.to {
				t.Fatalf("%s -> %s: got %s", tc.from, tc.to, got)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%s -> %s: expected error", tc.from, tc.to)
		}
		if got != tc.from {
			t.Fatalf("%s -> %s: failed transition must keep current state, got %s", tc.from, tc.to, got)
		}
	}
}

func TestRatingState_Final(t *testing.T) {
	if StateInitialSentiment.Final() || StateComparing.Final() {
		t.Fatalf("non-terminal states reported final")
	}
	if !StateFinalInsertion.Final() || !StateScoreUpdate.Final() {
		t.Fatalf("terminal states not reported final")
	}
}

func TestParseRatingState(t *testing.T) {
	for _, raw := range []string{"initialSentiment", "comparing", "finalInsertion", "scoreUpdate"} {
		if _, err := ParseRatingState(raw); err != nil {
			t.Fatalf("ParseRatingState(%q): %v", raw, err)
		}
	}
	if _, err := ParseRatingState("done"); err == nil {
		t.Fatalf("expected error for unknown state")
	}
}

func TestParseSentimentAndMediaType(t *testing.T) {
	if _, err := ParseSentiment("liked"); err != nil {
		t.Fatalf("ParseSentiment(liked): %v", err)
	}
	if _, err := ParseSentiment("loved"); err == nil {
		t.Fatalf("expected error for unknown sentiment")
	}
	if idx := TierIndex(SentimentFine); idx != 1 {
		t.Fatalf("TierIndex(fine) = %d, want 1", idx)
	}
	if idx := TierIndex(Sentiment("meh")); idx != -1 {
		t.Fatalf("TierIndex(unknown) = %d, want -1", idx)
	}
	if _, err := ParseMediaType("series"); err != nil {
		t.Fatalf("ParseMediaType(series): %v", err)
	}
	if _, err := ParseMediaType("podcast"); err == nil {
		t.Fatalf("expected error for unknown media type")
	}
}
