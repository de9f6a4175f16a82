package engine

import (
	"time"
)

// action type tags
const (
	ActionFold  = "fold"
	ActionCheck = "check"
	ActionCall  = "call"
	ActionRaise = "raise"
	ActionAllIn = "all_in"
)

// Action is the tagged action DTO submitted by a player.
// Amount is only meaningful for a raise, where it is the raise-to total for
// the current betting round.
type Action struct {
	Type   string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// ValidAction describes one action the seat on the clock may take
type ValidAction struct {
	Action    string `json:"action"`
	Amount    int    `json:"amount,omitempty"`
	MinAmount int    `json:"min_amount,omitempty"`
	MaxAmount int    `json:"max_amount,omitempty"`
}

// ProcessAction applies a player action and advances the hand
func (e *Engine) ProcessAction(now time.Time, playerID string, action Action) error {
	if !e.HandActive {
		return errInvalidState("no active hand")
	}

	if e.Paused {
		return errInvalidState("game is paused")
	}

	idx := e.seatIndex(playerID)
	if idx < 0 {
		return errInvalidState("player is not seated")
	}

	if idx != e.ActionOnIdx {
		return errInvalidState("not your turn")
	}

	s := e.Seats[idx]
	if !s.canAct() {
		return errInvalidState("player cannot act")
	}

	switch action.Type {
	case ActionFold:
		s.Folded = true
		s.HasActed = true
		s.LastAction = ActionFold

	case ActionCheck:
		if s.BetThisRound != e.CurrentBet {
			return errInvalidState("cannot check with an active bet")
		}

		s.HasActed = true
		s.LastAction = ActionCheck

	case ActionCall:
		if s.BetThisRound >= e.CurrentBet {
			return errInvalidState("nothing to call")
		}

		e.putChips(s, e.CurrentBet-s.BetThisRound)
		s.HasActed = true
		s.LastAction = ActionCall

	case ActionRaise:
		if err := e.applyRaise(s, action.Amount); err != nil {
			return err
		}

		s.LastAction = ActionRaise

	case ActionAllIn:
		if err := e.applyAllIn(s); err != nil {
			return err
		}

		s.LastAction = ActionAllIn

	default:
		return errInvalidArgument("unknown action: %s", action.Type)
	}

	e.advanceAction(now, idx)
	return nil
}

// putChips moves up to amount from the seat's stack into its round bet
func (e *Engine) putChips(s *Seat, amount int) int {
	if amount > s.Chips {
		amount = s.Chips
	}

	s.Chips -= amount
	s.BetThisRound += amount
	s.BetThisHand += amount

	if s.Chips == 0 {
		s.AllIn = true
	}

	return amount
}

// applyRaise raises to the given round total. A raise below the minimum is
// only legal when it puts the seat all-in, and a seat that already acted
// since the last full raise may not raise again.
func (e *Engine) applyRaise(s *Seat, raiseTo int) error {
	if s.HasActed {
		return errInvalidState("raising is not reopened by a short all-in")
	}

	if raiseTo <= e.CurrentBet {
		return errInvalidArgument("raise must exceed the current bet of %d", e.CurrentBet)
	}

	maxTotal := s.BetThisRound + s.Chips
	if raiseTo > maxTotal {
		return errInvalidArgument("raise of %d exceeds your stack", raiseTo)
	}

	if raiseTo < e.CurrentBet+e.MinRaise && raiseTo != maxTotal {
		return errInvalidArgument("raise must be at least %d", e.CurrentBet+e.MinRaise)
	}

	e.applyBetIncrease(s, raiseTo)
	return nil
}

// applyAllIn pushes the seat's entire stack
func (e *Engine) applyAllIn(s *Seat) error {
	total := s.BetThisRound + s.Chips
	if total <= e.CurrentBet {
		// all-in for a call or less
		e.putChips(s, s.Chips)
		s.HasActed = true
		return nil
	}

	if s.HasActed {
		return errInvalidState("raising is not reopened by a short all-in")
	}

	e.applyBetIncrease(s, total)
	return nil
}

// applyBetIncrease bets the seat up to a round total above the current bet.
// A full raise reopens the action; a short all-in does not.
func (e *Engine) applyBetIncrease(s *Seat, total int) {
	raiseSize := total - e.CurrentBet
	fullRaise := raiseSize >= e.MinRaise

	e.putChips(s, total-s.BetThisRound)
	e.CurrentBet = total
	e.LastRaiserID = s.PlayerID
	s.HasActed = true

	if fullRaise {
		e.MinRaise = raiseSize

		for _, other := range e.Seats {
			if other != s && other.canAct() {
				other.HasActed = false
			}
		}
	}
}

// advanceAction moves the action to the next seat that still owes a decision,
// ending the betting round when nobody does
func (e *Engine) advanceAction(now time.Time, fromIdx int) {
	if len(e.seatsInHand()) == 1 {
		e.finishFoldedHand(now)
		return
	}

	next := e.nextSeatIdx(fromIdx, func(s *Seat) bool {
		return s.canAct() && !s.settled(e.CurrentBet)
	})

	if next < 0 {
		e.endBettingRound(now)
		return
	}

	e.ActionOnIdx = next
	e.armActionDeadline(now)
}

// ValidActions returns the actions available to the given player. Only the
// seat on the clock has any.
func (e *Engine) ValidActions(playerID string) []ValidAction {
	if !e.HandActive || e.Paused {
		return nil
	}

	idx := e.seatIndex(playerID)
	if idx < 0 || idx != e.ActionOnIdx {
		return nil
	}

	s := e.Seats[idx]
	if !s.canAct() {
		return nil
	}

	toCall := e.CurrentBet - s.BetThisRound
	actions := []ValidAction{{Action: ActionFold}}

	if toCall == 0 {
		actions = append(actions, ValidAction{Action: ActionCheck})
	} else {
		amount := toCall
		if amount > s.Chips {
			amount = s.Chips
		}

		actions = append(actions, ValidAction{Action: ActionCall, Amount: amount})
	}

	// a seat that already acted since the last full raise may not raise
	if s.HasActed || s.Chips <= toCall {
		return actions
	}

	minTotal := e.CurrentBet + e.MinRaise
	maxTotal := s.BetThisRound + s.Chips

	if maxTotal >= minTotal {
		actions = append(actions, ValidAction{Action: ActionRaise, MinAmount: minTotal, MaxAmount: maxTotal})
	} else {
		// a short all-in is the only forward move
		actions = append(actions, ValidAction{Action: ActionRaise, MinAmount: maxTotal, MaxAmount: maxTotal})
	}

	return actions
}
