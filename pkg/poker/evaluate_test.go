package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pokernight-server/internal/rng"
	"pokernight-server/pkg/deck"
)

func mustEvaluate(t *testing.T, s string) HandRank {
	t.Helper()

	rank, err := Evaluate(deck.CardsFromString(s))
	assert.NoError(t, err)
	return rank
}

func TestEvaluate_Categories(t *testing.T) {
	assertCategory := func(t *testing.T, expected Category, cards string) {
		t.Helper()
		assert.Equal(t, expected, mustEvaluate(t, cards).Category, cards)
	}

	assertCategory(t, HighCard, "14s,12d,10c,8h,3c")
	assertCategory(t, OnePair, "13s,13c,7h,2d,5c")
	assertCategory(t, TwoPair, "13s,13c,7h,7d,5c")
	assertCategory(t, ThreeOfAKind, "9s,9c,9h,7d,5c")
	assertCategory(t, Straight, "9s,8c,7h,6d,5c")
	assertCategory(t, Flush, "13c,10c,7c,4c,2c")
	assertCategory(t, FullHouse, "9s,9c,9h,5d,5c")
	assertCategory(t, FourOfAKind, "9s,9c,9h,9d,5c")
	assertCategory(t, StraightFlush, "9c,8c,7c,6c,5c")
	assertCategory(t, RoyalFlush, "14c,13c,12c,11c,10c")
}

func TestEvaluate_BestOfSeven(t *testing.T) {
	a := assert.New(t)

	// pair of kings on a dry board
	rank := mustEvaluate(t, "13s,13c,7h,2d,5c,9s,3d")
	a.Equal(OnePair, rank.Category)
	a.Equal([]int{13, 9, 7, 5}, rank.Tiebreaks)

	// flush hiding in seven cards
	rank = mustEvaluate(t, "13c,10c,7c,4c,2c,14s,14d")
	a.Equal(Flush, rank.Category)

	// board plays: the nine-high straight uses neither the ace nor the deuce
	rank = mustEvaluate(t, "14s,2d,9c,8c,7h,6d,5c")
	a.Equal(Straight, rank.Category)
	a.Equal([]int{9}, rank.Tiebreaks)
}

func TestEvaluate_Wheel(t *testing.T) {
	a := assert.New(t)

	wheel := mustEvaluate(t, "14s,2d,3c,4h,5s")
	a.Equal(Straight, wheel.Category)
	a.Equal([]int{5}, wheel.Tiebreaks)

	// the wheel ranks below 2-3-4-5-6
	sixHigh := mustEvaluate(t, "2d,3c,4h,5s,6s")
	a.True(wheel.Less(sixHigh))

	// steel wheel is a straight flush, not a royal flush
	steel := mustEvaluate(t, "14c,2c,3c,4c,5c")
	a.Equal(StraightFlush, steel.Category)
	a.Equal([]int{5}, steel.Tiebreaks)
}

func TestEvaluate_PermutationInvariant(t *testing.T) {
	cards := deck.CardsFromString("13s,13c,7h,7d,5c,14s,2d")
	want := mustEvaluate(t, deck.CardsToString(cards))

	gen := rng.Seeded(3)
	for i := 0; i < 50; i++ {
		shuffled := make([]deck.Card, len(cards))
		copy(shuffled, cards)
		for j := len(shuffled) - 1; j > 0; j-- {
			k := gen.Intn(j + 1)
			shuffled[j], shuffled[k] = shuffled[k], shuffled[j]
		}

		got, err := Evaluate(shuffled)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEvaluate_CardCountBounds(t *testing.T) {
	_, err := Evaluate(deck.CardsFromString("2c,3c,4c,5c"))
	assert.Error(t, err)

	_, err = Evaluate(deck.CardsFromString("2c,3c,4c,5c,7c,8c,9c,10c"))
	assert.Error(t, err)
}

func TestHandRank_Compare(t *testing.T) {
	a := assert.New(t)

	kings := mustEvaluate(t, "13s,13c,7h,2d,5c")
	queens := mustEvaluate(t, "12s,12c,7h,2d,5c")
	a.True(queens.Less(kings))
	a.False(kings.Less(queens))

	// kicker decides
	kingsAceKicker := mustEvaluate(t, "13s,13c,14h,2d,5c")
	a.True(kings.Less(kingsAceKicker))

	// exact tie
	kings2 := mustEvaluate(t, "13d,13h,7c,2s,5d")
	a.True(kings.Equal(kings2))
	a.Equal(0, kings.Compare(kings2))
}

func TestHandRank_Describe(t *testing.T) {
	assert.Equal(t, "One Pair (Kings)", mustEvaluate(t, "13s,13c,7h,2d,5c").Describe())
	assert.Equal(t, "Two Pair (Kings and Sevens)", mustEvaluate(t, "13s,13c,7h,7d,5c").Describe())
	assert.Equal(t, "Full House (Nines over Fives)", mustEvaluate(t, "9s,9c,9h,5d,5c").Describe())
	assert.Equal(t, "Straight (Nine High)", mustEvaluate(t, "9s,8c,7h,6d,5c").Describe())
	assert.Equal(t, "Royal Flush", mustEvaluate(t, "14c,13c,12c,11c,10c").Describe())
	assert.Equal(t, "High Card (Ace)", mustEvaluate(t, "14s,12d,10c,8h,3c").Describe())
	assert.Equal(t, "Three of a Kind (Sixes)", mustEvaluate(t, "6s,6c,6h,8d,3c").Describe())
}
