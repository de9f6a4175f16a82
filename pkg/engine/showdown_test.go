package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokernight-server/pkg/deck"
)

// rig replaces a seat's hole cards; dealt cards are irrelevant once replaced
func rigHole(e *Engine, idx int, cards string) {
	e.Seats[idx].HoleCards = deck.CardsFromString(cards)
}

// rigBoard stacks the deck so the community cards come out as given
func rigBoard(e *Engine, cards string) {
	e.Deck.Cards = deck.CardsFromString(cards)
}

// two players check down to a simple showdown
func TestEngine_Showdown_Simple(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 2, testSettings())
	require.NoError(t, e.StartHand(t0))

	rigHole(e, 0, "13s,13c") // Alice: kings
	rigHole(e, 1, "12s,12c") // Bob: queens
	rigBoard(e, "7h,2d,5c,9s,3d")

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionCheck)

	for _, street := range []Street{StreetFlop, StreetTurn, StreetRiver} {
		a.Equal(street, e.Street)
		act(t, e, t0, "b", ActionCheck)
		act(t, e, t0, "a", ActionCheck)
	}

	a.False(e.HandActive)
	a.Equal(StreetBetween, e.Street)

	require.NotNil(t, e.LastHandResult)
	require.Len(t, e.LastHandResult.Winners, 1)

	winner := e.LastHandResult.Winners[0]
	a.Equal("a", winner.PlayerID)
	a.Equal(40, winner.Winnings)
	a.Equal("One Pair (Kings)", winner.Hand)
	a.Equal(40, e.LastHandResult.Pot)
	a.Empty(e.LastHandResult.Refunds)

	a.Equal(1020, e.Seats[0].Chips)
	a.Equal(980, e.Seats[1].Chips)

	// both live hands are revealed in the result
	a.Len(e.LastHandResult.PlayerHands, 2)
	a.Equal("One Pair (Kings)", e.LastHandResult.PlayerHands["a"].HandName)
	a.Equal("One Pair (Queens)", e.LastHandResult.PlayerHands["b"].HandName)
}

// an all-in over two shorter stacks builds a side pot and refunds the uncalled excess
func TestEngine_Showdown_SidePotAndRefund(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	e.Seats[0].Chips = 2000
	e.Seats[1].Chips = 500
	e.Seats[2].Chips = 1500

	require.NoError(t, e.StartHand(t0))

	rigHole(e, 0, "14s,14h") // aces
	rigHole(e, 1, "13s,13c") // kings
	rigHole(e, 2, "12s,11d") // queen-jack high
	rigBoard(e, "2s,5d,8c,7h,3d")

	require.NoError(t, e.ProcessAction(t0, "a", Action{Type: ActionAllIn}))
	require.NoError(t, e.ProcessAction(t0, "b", Action{Type: ActionAllIn}))
	require.NoError(t, e.ProcessAction(t0, "c", Action{Type: ActionCall}))

	a.False(e.HandActive)
	require.NotNil(t, e.LastHandResult)

	// main pot 1500 and side pot 2000 both go to a; 500 comes back uncontested
	require.Len(t, e.LastHandResult.Winners, 1)
	a.Equal("a", e.LastHandResult.Winners[0].PlayerID)
	a.Equal(3500, e.LastHandResult.Winners[0].Winnings)
	a.Equal(3500, e.LastHandResult.Pot)

	require.Len(t, e.LastHandResult.Refunds, 1)
	a.Equal("a", e.LastHandResult.Refunds[0].PlayerID)
	a.Equal(500, e.LastHandResult.Refunds[0].Amount)

	a.Equal(4000, e.Seats[0].Chips)
	a.Equal(0, e.Seats[1].Chips)
	a.Equal(0, e.Seats[2].Chips)

	// awards plus refunds equal the total bet this hand
	totalBet := 0
	for _, s := range e.Seats {
		totalBet += s.BetThisHand
	}
	a.Equal(totalBet, e.LastHandResult.Pot+e.LastHandResult.Refunds[0].Amount)

	// both busts the same hand, recorded once each
	a.ElementsMatch([]string{"b", "c"}, e.EliminationOrder)
	a.Equal(1, e.Seats[1].EliminatedHand)
	a.Equal(1, e.Seats[2].EliminatedHand)
	a.True(e.Seats[1].SittingOut)
	a.True(e.Seats[2].SittingOut)

	// one stack left and no rebuys: the game is over
	a.True(e.GameOver)
	require.Len(t, e.FinalStandings, 3)
	a.Equal("a", e.FinalStandings[0].PlayerID)
	a.Equal(1, e.FinalStandings[0].Rank)
	a.Equal(e.EliminationOrder[1], e.FinalStandings[1].PlayerID)
	a.Equal(e.EliminationOrder[0], e.FinalStandings[2].PlayerID)
}

func TestEngine_Showdown_SidePotGoesToCoveringWinner(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	moveChips(e, 1, 2, 700) // b has 300, c has 1700

	require.NoError(t, e.StartHand(t0))

	rigHole(e, 0, "12s,12c") // queens
	rigHole(e, 1, "14s,14h") // aces: wins the main pot only
	rigHole(e, 2, "13s,13c") // kings: wins the side pot
	rigBoard(e, "2s,5d,8c,7h,3d")

	// a raises to 1000, the short stack calls all-in for 300, c calls
	act(t, e, t0, "a", ActionRaise, 1000)
	act(t, e, t0, "b", ActionAllIn)
	act(t, e, t0, "c", ActionCall)

	a.False(e.HandActive)

	// main pot: 300 x 3 to b; side pot: 700 x 2 to c
	winners := e.LastHandResult.Winners
	require.Len(t, winners, 2)

	byID := make(map[string]HandWinner)
	for _, w := range winners {
		byID[w.PlayerID] = w
	}

	a.Equal(900, byID["b"].Winnings)
	a.Equal(1400, byID["c"].Winnings)

	a.Equal(0, e.Seats[0].Chips)
	a.Equal(900, e.Seats[1].Chips)
	a.Equal(2100, e.Seats[2].Chips)
	a.NoError(e.CheckInvariants())
}

func TestEngine_Showdown_SplitPotRemainder(t *testing.T) {
	a := assert.New(t)

	settings := testSettings()
	settings.SmallBlindInitial = 5

	e := newTestEngine(t, 3, testSettings())
	e.Settings = settings
	e.BlindSchedule = BuildBlindSchedule(settings)

	require.NoError(t, e.StartHand(t0))

	// the board plays for both remaining seats
	rigHole(e, 0, "2s,3c")
	rigHole(e, 2, "2d,3h")
	rigBoard(e, "5h,6c,7d,8s,9h")

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionFold)
	act(t, e, t0, "c", ActionCheck)

	for e.HandActive {
		act(t, e, t0, e.ActionOnPlayerID(), ActionCheck)
	}

	// pot is 45: odd chip goes to the earliest winner from left of dealer
	require.Len(t, e.LastHandResult.Winners, 2)

	byID := make(map[string]HandWinner)
	for _, w := range e.LastHandResult.Winners {
		byID[w.PlayerID] = w
	}

	a.Equal(23, byID["c"].Winnings)
	a.Equal(22, byID["a"].Winnings)
	a.Equal("Straight (Nine High)", byID["a"].Hand)
}

func TestEngine_Showdown_FoldedSeatNeverPaid(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	rigHole(e, 0, "2s,7c") // junk, folds on the flop
	rigHole(e, 1, "14s,14h")
	rigHole(e, 2, "13s,13c")
	rigBoard(e, "2d,5d,8c,7h,3s")

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionCall)
	act(t, e, t0, "c", ActionCheck)

	// flop: b bets, a folds holding a pair of twos
	act(t, e, t0, "b", ActionRaise, 50)
	act(t, e, t0, "c", ActionCall)
	act(t, e, t0, "a", ActionFold)

	for e.HandActive {
		act(t, e, t0, e.ActionOnPlayerID(), ActionCheck)
	}

	for _, w := range e.LastHandResult.Winners {
		a.NotEqual("a", w.PlayerID)
	}

	// folded seat's cards stay hidden
	_, ok := e.LastHandResult.PlayerHands["a"]
	a.False(ok)
}
