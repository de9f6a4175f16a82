package engine

import (
	"time"

	"pokernight-server/pkg/poker"
)

// showdown computes side pots, ranks the remaining hands, and awards every
// pot in order. A contribution layer funded by a single seat is an uncalled
// excess and is refunded, not won.
func (e *Engine) showdown(now time.Time) {
	e.Street = StreetShowdown

	pots, refunds := e.buildSidePots()

	hands := make(map[string]poker.HandRank)
	for _, i := range e.seatsInHand() {
		s := e.Seats[i]
		cards := append(s.HoleCards.Clone(), e.CommunityCards...)
		rank, err := poker.Evaluate(cards)
		if err != nil {
			continue
		}

		hands[s.PlayerID] = rank
	}

	order := e.firstToActOrder()
	winnings := make(map[string]int)

	potTotal := 0
	for _, pot := range pots {
		potTotal += pot.Amount

		winners := poker.DetermineWinners(orderSubset(order, pot.EligiblePlayers), hands)
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)

		for i, id := range winners {
			amount := share
			if i < remainder {
				amount++
			}

			winnings[id] += amount
		}
	}

	resultWinners := make([]HandWinner, 0, 1)
	for _, id := range order {
		amount, ok := winnings[id]
		if !ok {
			continue
		}

		s := e.FindSeat(id)
		s.Chips += amount

		hand := ""
		if rank, ok := hands[id]; ok {
			hand = rank.Describe()
		}

		resultWinners = append(resultWinners, HandWinner{
			PlayerID: id,
			Name:     s.Name,
			Winnings: amount,
			Hand:     hand,
		})
	}

	for i := range refunds {
		s := e.FindSeat(refunds[i].PlayerID)
		s.Chips += refunds[i].Amount
		refunds[i].Name = s.Name
	}

	playerHands := make(map[string]*ShownHand)
	for _, i := range e.seatsInHand() {
		s := e.Seats[i]
		shown := &ShownHand{Cards: s.HoleCards.Clone()}
		if rank, ok := hands[s.PlayerID]; ok {
			shown.HandName = rank.Describe()
		}

		playerHands[s.PlayerID] = shown
	}

	// folders who chose to show
	for _, s := range e.Seats {
		if s.Folded && s.HasShownCards && len(s.HoleCards) > 0 {
			playerHands[s.PlayerID] = &ShownHand{Cards: s.HoleCards.Clone()}
		}
	}

	e.LastHandResult = &HandResult{
		Winners:        resultWinners,
		Pot:            potTotal,
		CommunityCards: e.CommunityCards.Clone(),
		PlayerHands:    playerHands,
		Refunds:        refunds,
	}

	e.finishHand(now)
}

// buildSidePots layers the whole-hand contributions into ordered pots: the
// minimum positive contribution closes each layer, and only non-folded
// contributors are eligible. Layers funded by a single seat become refunds.
// Consecutive layers with identical eligible sets are merged.
func (e *Engine) buildSidePots() ([]*Pot, []Refund) {
	remaining := make([]int, len(e.Seats))
	for i, s := range e.Seats {
		remaining[i] = s.BetThisHand
	}

	var pots []*Pot
	var refunds []Refund

	for {
		m := 0
		contributors := 0
		for _, r := range remaining {
			if r <= 0 {
				continue
			}

			contributors++
			if m == 0 || r < m {
				m = r
			}
		}

		if contributors == 0 {
			break
		}

		amount := 0
		eligible := make([]string, 0, contributors)
		var lastContributorIdx int
		for i, r := range remaining {
			if r <= 0 {
				continue
			}

			amount += m
			remaining[i] -= m
			lastContributorIdx = i

			if e.Seats[i].inHand() {
				eligible = append(eligible, e.Seats[i].PlayerID)
			}
		}

		if contributors == 1 {
			// uncalled excess goes back to its owner
			refunds = append(refunds, Refund{
				PlayerID: e.Seats[lastContributorIdx].PlayerID,
				Amount:   amount,
			})
			continue
		}

		if n := len(pots); n > 0 && sameIDs(pots[n-1].EligiblePlayers, eligible) {
			pots[n-1].Amount += amount
			continue
		}

		pots = append(pots, &Pot{Amount: amount, EligiblePlayers: eligible})
	}

	return pots, refunds
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// firstToActOrder returns the in-hand player ids in seat order starting left
// of the dealer. Split-pot remainders are paid in this order.
func (e *Engine) firstToActOrder() []string {
	n := len(e.Seats)
	order := make([]string, 0, n)
	for offset := 1; offset <= n; offset++ {
		s := e.Seats[(e.DealerIdx+offset)%n]
		if s.inHand() {
			order = append(order, s.PlayerID)
		}
	}

	return order
}

func orderSubset(order, members []string) []string {
	set := make(map[string]bool, len(members))
	for _, id := range members {
		set[id] = true
	}

	subset := make([]string, 0, len(members))
	for _, id := range order {
		if set[id] {
			subset = append(subset, id)
		}
	}

	return subset
}

// finishFoldedHand awards everything to the last seat standing. No cards are
// revealed unless a player chose to show.
func (e *Engine) finishFoldedHand(now time.Time) {
	e.gatherBets()

	winnerIdx := e.seatsInHand()[0]
	winner := e.Seats[winnerIdx]

	total := 0
	for _, p := range e.Pots {
		total += p.Amount
	}

	winner.Chips += total

	playerHands := make(map[string]*ShownHand)
	for _, s := range e.Seats {
		if s.HasShownCards && len(s.HoleCards) > 0 {
			playerHands[s.PlayerID] = &ShownHand{Cards: s.HoleCards.Clone()}
		}
	}

	e.LastHandResult = &HandResult{
		Winners: []HandWinner{{
			PlayerID: winner.PlayerID,
			Name:     winner.Name,
			Winnings: total,
			Hand:     "Last player standing",
		}},
		Pot:            total,
		CommunityCards: e.CommunityCards.Clone(),
		PlayerHands:    playerHands,
	}

	e.finishHand(now)
}

// finishHand closes out the hand and runs the post-hand bookkeeping
func (e *Engine) finishHand(now time.Time) {
	e.Street = StreetBetween
	e.HandActive = false
	e.Pots = nil
	e.ActionOnIdx = -1
	e.ActionDeadline = nil
	e.CurrentBet = 0
	e.MinRaise = 0
	e.LastRaiserID = ""

	e.postHandBookkeeping(now)

	if !e.GameOver && e.Settings.AutoDealEnabled {
		deadline := now.Add(autoDealDelay)
		e.AutoDealDeadline = &deadline
	}
}

// postHandBookkeeping eliminates busted seats and detects the end of the game
func (e *Engine) postHandBookkeeping(now time.Time) {
	for _, s := range e.Seats {
		if s.Chips > 0 || s.EliminatedHand > 0 {
			continue
		}

		s.SittingOut = true
		s.EliminatedHand = e.HandNumber

		if !e.inEliminationOrder(s.PlayerID) {
			e.EliminationOrder = append(e.EliminationOrder, s.PlayerID)
		}
	}

	var lastStanding *Seat
	withChips := 0
	rebuyable := false
	for _, s := range e.Seats {
		if s.Chips > 0 {
			withChips++
			lastStanding = s
		} else if e.canRebuy(s, now) {
			rebuyable = true
		}
	}

	if withChips == 1 && !rebuyable {
		e.GameOver = true
		e.AutoDealDeadline = nil
		e.buildFinalStandings(lastStanding)
	}
}

func (e *Engine) inEliminationOrder(playerID string) bool {
	for _, id := range e.EliminationOrder {
		if id == playerID {
			return true
		}
	}

	return false
}

// buildFinalStandings ranks the winner first, then the eliminations latest
// bust first
func (e *Engine) buildFinalStandings(winner *Seat) {
	standings := make([]Standing, 0, len(e.Seats))
	standings = append(standings, Standing{Rank: 1, PlayerID: winner.PlayerID, Name: winner.Name})

	for i := len(e.EliminationOrder) - 1; i >= 0; i-- {
		s := e.FindSeat(e.EliminationOrder[i])
		if s == nil || s == winner {
			continue
		}

		standings = append(standings, Standing{
			Rank:     len(standings) + 1,
			PlayerID: s.PlayerID,
			Name:     s.Name,
		})
	}

	e.FinalStandings = standings
}

// ShowCards voluntarily reveals a player's hole cards. Folded players may
// show at any time; everyone else only between hands.
func (e *Engine) ShowCards(playerID string) error {
	s := e.FindSeat(playerID)
	if s == nil {
		return errInvalidState("player is not seated")
	}

	if len(s.HoleCards) == 0 {
		return errInvalidState("no cards to show")
	}

	if e.HandActive && !s.Folded {
		return errInvalidState("cannot show cards during a hand")
	}

	s.HasShownCards = true

	if e.LastHandResult != nil {
		if _, ok := e.LastHandResult.PlayerHands[playerID]; !ok {
			e.LastHandResult.PlayerHands[playerID] = &ShownHand{Cards: s.HoleCards.Clone()}
		}
	}

	return nil
}
