package engine

import (
	"time"
)

// canRebuy is the rebuy predicate: rebuys enabled, seat is busted, under the
// rebuy cap, and inside the cutoff window measured in effective elapsed time
func (e *Engine) canRebuy(s *Seat, now time.Time) bool {
	if !e.Settings.AllowRebuys || s.Chips > 0 {
		return false
	}

	if e.Settings.MaxRebuys > 0 && s.RebuyCount >= e.Settings.MaxRebuys {
		return false
	}

	if cutoff := e.Settings.RebuyCutoffMinutes; cutoff > 0 {
		if e.EffectiveElapsed(now) >= time.Duration(cutoff)*time.Minute {
			return false
		}
	}

	return true
}

// Rebuy restores a busted seat to the starting stack. During an active hand
// the request queues and is fulfilled when the next hand starts.
func (e *Engine) Rebuy(now time.Time, playerID string) error {
	if e.GameOver {
		return errInvalidState("game is over")
	}

	s := e.FindSeat(playerID)
	if s == nil {
		return errInvalidState("player is not seated")
	}

	if !e.canRebuy(s, now) {
		return errInvalidState("rebuy is not available")
	}

	if e.HandActive {
		s.RebuyQueued = true
		return nil
	}

	e.applyRebuy(s)
	return nil
}

// CancelRebuy clears a queued rebuy
func (e *Engine) CancelRebuy(playerID string) error {
	s := e.FindSeat(playerID)
	if s == nil {
		return errInvalidState("player is not seated")
	}

	s.RebuyQueued = false
	return nil
}

// fulfillQueuedRebuys applies every queued rebuy that still satisfies the
// predicate; the rest are dropped
func (e *Engine) fulfillQueuedRebuys(now time.Time) {
	for _, s := range e.Seats {
		if !s.RebuyQueued {
			continue
		}

		s.RebuyQueued = false
		if e.canRebuy(s, now) {
			e.applyRebuy(s)
		}
	}
}

func (e *Engine) applyRebuy(s *Seat) {
	s.Chips = e.Settings.StartingChips
	s.SittingOut = false
	s.RebuyCount++
	s.EliminatedHand = 0
	e.removeFromEliminationOrder(s.PlayerID)
}

func (e *Engine) removeFromEliminationOrder(playerID string) {
	for i, id := range e.EliminationOrder {
		if id == playerID {
			e.EliminationOrder = append(e.EliminationOrder[:i], e.EliminationOrder[i+1:]...)
			return
		}
	}
}
