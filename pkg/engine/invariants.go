package engine

import (
	"fmt"
)

// CheckInvariants verifies the structural invariants that must hold after
// every engine operation. The session coordinator runs this before
// persisting; a failure means the new state must not be written.
func (e *Engine) CheckInvariants() error {
	// chips are conserved: every chip in play came from a starting stack
	// or a rebuy
	expected := 0
	actual := 0
	for _, s := range e.Seats {
		expected += (1 + s.RebuyCount) * e.Settings.StartingChips
		actual += s.Chips + s.BetThisRound
	}
	for _, p := range e.Pots {
		actual += p.Amount
	}

	if actual != expected {
		return fmt.Errorf("chip conservation violated: have %d, want %d", actual, expected)
	}

	creators := 0
	for _, s := range e.Seats {
		if s.IsCreator {
			creators++
		}

		if s.BetThisRound > s.BetThisHand {
			return fmt.Errorf("seat %s: bet_this_round %d exceeds bet_this_hand %d",
				s.PlayerID, s.BetThisRound, s.BetThisHand)
		}
	}

	if creators > 1 {
		return fmt.Errorf("%d seats claim to be the creator", creators)
	}

	if e.HandActive && e.ActionOnIdx >= 0 {
		if e.ActionOnIdx >= len(e.Seats) {
			return fmt.Errorf("action_on index %d out of range", e.ActionOnIdx)
		}

		s := e.Seats[e.ActionOnIdx]
		if s.Folded || s.SittingOut {
			return fmt.Errorf("action is on seat %s which cannot act", s.PlayerID)
		}

		if s.AllIn && s.BetThisRound >= e.CurrentBet {
			return fmt.Errorf("action is on all-in seat %s", s.PlayerID)
		}
	}

	seen := make(map[string]bool)
	for _, id := range e.EliminationOrder {
		if seen[id] {
			return fmt.Errorf("duplicate %s in elimination order", id)
		}

		seen[id] = true

		if e.FindSeat(id) == nil {
			return fmt.Errorf("unknown player %s in elimination order", id)
		}
	}

	return nil
}
