package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"pokernight-server/internal/rng"
)

func TestNew(t *testing.T) {
	d := New()
	assert.Equal(t, 52, d.CardsLeft())

	seen := make(map[Card]bool)
	for _, card := range d.Cards {
		assert.False(t, seen[card])
		seen[card] = true
	}
	assert.Len(t, seen, 52)
}

func TestDeck_Shuffle(t *testing.T) {
	d := New()
	d.Shuffle(rng.Seeded(42))

	d2 := New()
	d2.Shuffle(rng.Seeded(42))
	assert.Equal(t, d.Cards, d2.Cards)

	d3 := New()
	d3.Shuffle(rng.Seeded(43))
	assert.NotEqual(t, d.Cards, d3.Cards)

	// still a full deck
	assert.Equal(t, 52, d.CardsLeft())
}

func TestDeck_Deal(t *testing.T) {
	a := assert.New(t)

	d := New()
	first := d.Cards[0]

	cards, err := d.Deal(2)
	a.NoError(err)
	a.Len(cards, 2)
	a.Equal(first, cards[0])
	a.Equal(50, d.CardsLeft())

	_, err = d.Deal(51)
	a.Equal(ErrNotEnoughCards, err)
	a.Equal(50, d.CardsLeft())

	cards, err = d.Deal(50)
	a.NoError(err)
	a.Len(cards, 50)
	a.False(d.CanDeal(1))
}

func TestDeck_JSONRoundTrip(t *testing.T) {
	a := assert.New(t)

	d := New()
	d.Shuffle(rng.Seeded(7))
	_, err := d.Deal(5)
	a.NoError(err)

	b, err := json.Marshal(d)
	a.NoError(err)

	var restored Deck
	a.NoError(json.Unmarshal(b, &restored))
	a.Equal(d.Cards, restored.Cards)

	// restored deck deals the same cards
	want, err := d.Deal(3)
	a.NoError(err)
	got, err := restored.Deal(3)
	a.NoError(err)
	a.Equal(want, got)
}
