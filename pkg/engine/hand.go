package engine

import (
	"time"

	"pokernight-server/pkg/deck"
)

// StartHand deals a new hand: queued rebuys are fulfilled, the dealer button
// rotates, blinds are posted (short stacks post what they have), and every
// active seat receives two hole cards.
func (e *Engine) StartHand(now time.Time) error {
	if e.GameOver {
		return errInvalidState("game is over")
	}

	if e.Paused {
		return errInvalidState("game is paused")
	}

	if e.HandActive {
		return errInvalidState("hand is already in progress")
	}

	e.fulfillQueuedRebuys(now)

	for _, s := range e.Seats {
		if s.Chips <= 0 {
			s.SittingOut = true
		}
	}

	if e.countActive() < 2 {
		return errInvalidState("not enough players to start a hand")
	}

	e.HandNumber++
	e.LastHandResult = nil
	e.AutoDealDeadline = nil
	e.syncBlinds(now)

	for _, s := range e.Seats {
		s.resetForNewHand()
	}

	if e.HandNumber > 1 {
		next := e.nextSeatIdx(e.DealerIdx, func(s *Seat) bool {
			return !s.SittingOut && s.Chips > 0
		})
		if next >= 0 {
			e.DealerIdx = next
		}
	}

	e.Deck = deck.New()
	e.Deck.Shuffle(e.gen)
	e.CommunityCards = nil
	e.Pots = []*Pot{{}}
	e.Street = StreetPreflop
	e.LastRaiserID = ""

	for i := 0; i < 2; i++ {
		for _, s := range e.Seats {
			if s.SittingOut {
				continue
			}

			cards, err := e.Deck.Deal(1)
			if err != nil {
				return err
			}

			s.HoleCards = append(s.HoleCards, cards[0])
		}
	}

	e.HandActive = true
	e.postBlinds(now)

	return nil
}

// countActive returns the seats eligible to be dealt in
func (e *Engine) countActive() int {
	count := 0
	for _, s := range e.Seats {
		if !s.SittingOut && s.Chips > 0 {
			count++
		}
	}

	return count
}

func (e *Engine) postBlinds(now time.Time) {
	sb, bb := e.Blinds()

	var sbIdx, bbIdx int
	if e.countDealtIn() == 2 {
		// heads-up: the dealer posts the small blind and acts first preflop
		sbIdx = e.DealerIdx
		bbIdx = e.nextDealtInIdx(sbIdx)
	} else {
		sbIdx = e.nextDealtInIdx(e.DealerIdx)
		bbIdx = e.nextDealtInIdx(sbIdx)
	}

	e.forceBet(e.Seats[sbIdx], sb)
	e.forceBet(e.Seats[bbIdx], bb)

	e.CurrentBet = bb
	e.MinRaise = bb
	e.LastRaiserID = e.Seats[bbIdx].PlayerID

	// action starts left of the big blind; the big blind acts last and
	// keeps the option to raise
	e.advanceAction(now, bbIdx)
}

func (e *Engine) countDealtIn() int {
	count := 0
	for _, s := range e.Seats {
		if len(s.HoleCards) > 0 {
			count++
		}
	}

	return count
}

func (e *Engine) nextDealtInIdx(idx int) int {
	return e.nextSeatIdx(idx, func(s *Seat) bool {
		return len(s.HoleCards) > 0
	})
}

// forceBet posts a blind: exactly what the seat has if it's short
func (e *Engine) forceBet(s *Seat, amount int) {
	actual := amount
	if actual > s.Chips {
		actual = s.Chips
	}

	s.Chips -= actual
	s.BetThisRound += actual
	s.BetThisHand += actual

	if s.Chips == 0 {
		s.AllIn = true
	}
}

// armActionDeadline resets the turn clock for the seat now on the action
func (e *Engine) armActionDeadline(now time.Time) {
	if e.Settings.TurnTimeoutSeconds <= 0 || !e.HandActive || e.ActionOnIdx < 0 {
		e.ActionDeadline = nil
		return
	}

	deadline := now.Add(time.Duration(e.Settings.TurnTimeoutSeconds) * time.Second)
	e.ActionDeadline = &deadline
}
