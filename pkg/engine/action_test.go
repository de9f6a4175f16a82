package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// moveChips reshapes stacks for a scenario without breaking chip conservation
func moveChips(e *Engine, from, to, amount int) {
	e.Seats[from].Chips -= amount
	e.Seats[to].Chips += amount
}

func TestEngine_Check(t *testing.T) {
	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	// cannot check facing the big blind
	err := e.ProcessAction(t0, "a", Action{Type: ActionCheck})
	assert.Error(t, err)

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionCall)

	// big blind can check its option
	act(t, e, t0, "c", ActionCheck)
	assert.Equal(t, StreetFlop, e.Street)
}

func TestEngine_OutOfTurn(t *testing.T) {
	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	err := e.ProcessAction(t0, "b", Action{Type: ActionFold})
	assert.Error(t, err)
	assert.EqualError(t, err, "not your turn")
}

func TestEngine_RaiseReopensAction(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionCall)

	// big blind raises; everyone owes another decision
	act(t, e, t0, "c", ActionRaise, 60)
	a.Equal(60, e.CurrentBet)
	a.Equal(40, e.MinRaise)
	a.Equal("c", e.LastRaiserID)
	a.Equal("a", e.ActionOnPlayerID())

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionFold)
	a.Equal(StreetFlop, e.Street)
}

func TestEngine_RaiseBounds(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	// below the minimum raise and not an all-in
	err := e.ProcessAction(t0, "a", Action{Type: ActionRaise, Amount: 30})
	a.Error(err)

	// above the stack
	err = e.ProcessAction(t0, "a", Action{Type: ActionRaise, Amount: 1500})
	a.Error(err)

	// not above the current bet
	err = e.ProcessAction(t0, "a", Action{Type: ActionRaise, Amount: 20})
	a.Error(err)

	// raise-to-stack below min raise is a legal all-in
	moveChips(e, 0, 2, e.Seats[0].Chips-35)
	act(t, e, t0, "a", ActionRaise, 35)
	a.True(e.Seats[0].AllIn)
	a.Equal(35, e.CurrentBet)
	// a short all-in does not move the minimum raise size
	a.Equal(20, e.MinRaise)
}

// a short all-in does not reopen the betting
func TestEngine_ShortAllInDoesNotReopen(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	// b has 80 total behind including the posted small blind
	moveChips(e, 1, 2, e.Seats[1].Chips-70)

	act(t, e, t0, "a", ActionRaise, 60)
	a.Equal(40, e.MinRaise)

	// b goes all-in for 80: 20 over the bet, below the min raise of 40
	act(t, e, t0, "b", ActionAllIn)
	a.Equal(80, e.CurrentBet)
	a.Equal(40, e.MinRaise)

	act(t, e, t0, "c", ActionCall)

	// action returns to a, who may only call or fold
	a.Equal("a", e.ActionOnPlayerID())

	err := e.ProcessAction(t0, "a", Action{Type: ActionRaise, Amount: 160})
	a.Error(err)
	err = e.ProcessAction(t0, "a", Action{Type: ActionAllIn})
	a.Error(err)

	actions := e.ValidActions("a")
	a.Len(actions, 2)
	a.Equal(ActionFold, actions[0].Action)
	a.Equal(ActionCall, actions[1].Action)
	a.Equal(20, actions[1].Amount)

	act(t, e, t0, "a", ActionCall)
	a.Equal(StreetFlop, e.Street)
}

func TestEngine_FullAllInReopensAction(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	moveChips(e, 1, 2, e.Seats[1].Chips-110) // 120 total with the small blind posted

	act(t, e, t0, "a", ActionRaise, 60)

	// b's all-in of 120 is a full raise of 60
	act(t, e, t0, "b", ActionAllIn)
	a.Equal(120, e.CurrentBet)
	a.Equal(60, e.MinRaise)

	// c calls, so the round stays open behind a
	act(t, e, t0, "c", ActionCall)

	// a may re-raise this time
	act(t, e, t0, "a", ActionRaise, 200)
	a.Equal(200, e.CurrentBet)
	a.Equal(80, e.MinRaise)
}

func TestEngine_CallBecomesAllIn(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	moveChips(e, 1, 2, e.Seats[1].Chips-30) // cannot cover a call of 60-10

	act(t, e, t0, "a", ActionRaise, 60)
	act(t, e, t0, "b", ActionCall)

	a.True(e.Seats[1].AllIn)
	a.Equal(40, e.Seats[1].BetThisRound)
	a.Equal(0, e.Seats[1].Chips)
}

func TestEngine_ValidActions(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	// nothing for seats off the clock
	a.Nil(e.ValidActions("b"))
	a.Nil(e.ValidActions("nobody"))

	actions := e.ValidActions("a")
	require.Len(t, actions, 3)
	a.Equal(ActionFold, actions[0].Action)
	a.Equal(ActionCall, actions[1].Action)
	a.Equal(20, actions[1].Amount)
	a.Equal(ActionRaise, actions[2].Action)
	a.Equal(40, actions[2].MinAmount)
	a.Equal(1000, actions[2].MaxAmount)

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionCall)

	// big blind option: check or raise, nothing to call
	actions = e.ValidActions("c")
	require.Len(t, actions, 3)
	a.Equal(ActionFold, actions[0].Action)
	a.Equal(ActionCheck, actions[1].Action)
	a.Equal(ActionRaise, actions[2].Action)
}

func TestEngine_ValidActions_PinnedShortRaise(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	// a covers the call plus a little, but cannot make a legal raise:
	// the only forward move is one pinned raise, no separate all_in
	moveChips(e, 0, 2, e.Seats[0].Chips-30)

	actions := e.ValidActions("a")
	require.Len(t, actions, 3)
	a.Equal(ActionRaise, actions[2].Action)
	a.Equal(30, actions[2].MinAmount)
	a.Equal(30, actions[2].MaxAmount)

	for _, va := range actions {
		a.NotEqual(ActionAllIn, va.Action)
	}
}

func TestEngine_BigBlindOptionRaise(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionCall)
	act(t, e, t0, "c", ActionRaise, 80)

	// the raise reopens the round for a and b
	a.Equal("a", e.ActionOnPlayerID())
	act(t, e, t0, "a", ActionFold)
	act(t, e, t0, "b", ActionCall)
	a.Equal(StreetFlop, e.Street)
}

func TestEngine_HeadsUpPostFlopOrder(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 2, testSettings())
	require.NoError(t, e.StartHand(t0))

	// preflop: dealer (small blind) acts first
	act(t, e, t0, "a", ActionCall)
	act(t, e, t0, "b", ActionCheck)
	a.Equal(StreetFlop, e.Street)

	// post-flop: first seat left of the dealer acts first
	a.Equal("b", e.ActionOnPlayerID())
}

func TestEngine_FoldWinsWithoutShowdown(t *testing.T) {
	a := assert.New(t)

	e := newTestEngine(t, 3, testSettings())
	require.NoError(t, e.StartHand(t0))

	act(t, e, t0, "a", ActionRaise, 100)
	act(t, e, t0, "b", ActionFold)
	act(t, e, t0, "c", ActionFold)

	a.False(e.HandActive)
	a.Equal(StreetBetween, e.Street)

	require.NotNil(t, e.LastHandResult)
	require.Len(t, e.LastHandResult.Winners, 1)
	a.Equal("a", e.LastHandResult.Winners[0].PlayerID)
	a.Equal(130, e.LastHandResult.Winners[0].Winnings)
	a.Equal(1030, e.Seats[0].Chips)

	// no cards are revealed
	a.Empty(e.LastHandResult.PlayerHands)
}

func TestEngine_ActionWhilePausedFails(t *testing.T) {
	e := newTestEngine(t, 2, testSettings())
	require.NoError(t, e.StartHand(t0))

	// force the paused flag mid-hand to verify the engine guard
	e.Paused = true
	err := e.ProcessAction(t0, "a", Action{Type: ActionCall})
	assert.Error(t, err)
}
