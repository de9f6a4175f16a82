package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pokernight-server/pkg/deck"
)

func TestDetermineWinners(t *testing.T) {
	a := assert.New(t)

	evaluate := func(s string) HandRank {
		rank, err := Evaluate(deck.CardsFromString(s))
		a.NoError(err)
		return rank
	}

	hands := map[string]HandRank{
		"a": evaluate("13s,13c,7h,2d,5c"), // pair of kings
		"b": evaluate("12s,12c,7h,2d,5c"), // pair of queens
		"c": evaluate("13d,13h,7c,2s,5d"), // pair of kings (tie with a)
	}

	winners := DetermineWinners([]string{"a", "b", "c"}, hands)
	a.Equal([]string{"a", "c"}, winners)

	// order of ids controls the returned order
	winners = DetermineWinners([]string{"c", "b", "a"}, hands)
	a.Equal([]string{"c", "a"}, winners)

	// ids without hands are skipped
	winners = DetermineWinners([]string{"a", "x"}, hands)
	a.Equal([]string{"a"}, winners)

	a.Nil(DetermineWinners([]string{"x"}, hands))
	a.Nil(DetermineWinners(nil, hands))
}
