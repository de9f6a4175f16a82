package gamecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	a := assert.New(t)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := Generate()
		a.NoError(err)
		a.Len(code, Length)
		a.True(Valid(code), code)
		seen[code] = true
	}

	// effectively no collisions in 200 draws over a 32^6 space
	a.Greater(len(seen), 195)

	for code := range seen {
		for _, banned := range []string{"O", "0", "I", "1"} {
			a.False(strings.Contains(code, banned), code)
		}
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABCDEF"))
	assert.True(t, Valid("A2B3C4"))
	assert.False(t, Valid("ABCDE"))   // too short
	assert.False(t, Valid("ABCDEFG")) // too long
	assert.False(t, Valid("ABCDE0"))  // homoglyph
	assert.False(t, Valid("abcdef"))  // lowercase
}
