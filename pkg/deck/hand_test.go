package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHand(t *testing.T) {
	a := assert.New(t)

	h := make(Hand, 0)
	h.AddCard(CardFromString("5c"))
	h.AddCard(CardFromString("6d"))

	a.True(h.HasCard(CardFromString("5c")))
	a.False(h.HasCard(CardFromString("5d")))
	a.Equal("5c,6d", h.String())

	clone := h.Clone()
	clone[0] = CardFromString("2c")
	a.Equal(CardFromString("5c"), h[0])
}
