package engine

import (
	"time"
)

// gatherBets sweeps every live round bet into the pot
func (e *Engine) gatherBets() {
	if len(e.Pots) == 0 {
		e.Pots = []*Pot{{}}
	}

	total := 0
	for _, s := range e.Seats {
		total += s.BetThisRound
		s.resetForNewRound()
	}

	e.Pots[0].Amount += total
}

// endBettingRound gathers the bets and either advances the street, runs out
// the board when betting is impossible, or goes to showdown after the river
func (e *Engine) endBettingRound(now time.Time) {
	e.gatherBets()

	if e.Street == StreetRiver {
		e.showdown(now)
		return
	}

	if e.canActCount() < 2 {
		e.runOutBoard(now)
		return
	}

	if err := e.dealNextStreet(); err != nil {
		// a 52-card deck cannot run out with at most 23 players dealt in
		panic(err)
	}

	_, bb := e.Blinds()
	e.CurrentBet = 0
	e.MinRaise = bb
	e.LastRaiserID = ""

	first := e.nextSeatIdx(e.DealerIdx, func(s *Seat) bool {
		return s.canAct()
	})
	if first < 0 {
		e.runOutBoard(now)
		return
	}

	e.ActionOnIdx = first
	e.armActionDeadline(now)
}

// dealNextStreet advances preflop->flop->turn->river, dealing the community
// cards for the new street
func (e *Engine) dealNextStreet() error {
	var count int
	switch e.Street {
	case StreetPreflop:
		e.Street = StreetFlop
		count = 3
	case StreetFlop:
		e.Street = StreetTurn
		count = 1
	case StreetTurn:
		e.Street = StreetRiver
		count = 1
	default:
		return errInvalidState("cannot deal from street %s", e.Street)
	}

	cards, err := e.Deck.Deal(count)
	if err != nil {
		return err
	}

	e.CommunityCards = append(e.CommunityCards, cards...)
	return nil
}

// runOutBoard deals every remaining community card and goes to showdown.
// Used when the remaining players are all-in and betting is over.
func (e *Engine) runOutBoard(now time.Time) {
	for e.Street != StreetRiver {
		if err := e.dealNextStreet(); err != nil {
			panic(err)
		}
	}

	e.showdown(now)
}
