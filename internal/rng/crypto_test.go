package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrypto_Intn(t *testing.T) {
	c := Crypto{}
	for i := 0; i < 100; i++ {
		n := c.Intn(10)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 10)
	}

	assert.Equal(t, 0, c.Intn(1))
}

func TestSeeded(t *testing.T) {
	a := Seeded(1)
	b := Seeded(1)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Intn(52), b.Intn(52))
	}
}
