// Package gamecode generates the short room codes players type to find a game.
package gamecode

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

// Length is the number of characters in a room code
const Length = 6

// alphabet excludes the homoglyphs O, 0, I, and 1
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var codeRx = regexp.MustCompile(`^[` + alphabet + `]{6}\z`)

// Generate returns a uniform random room code.
// Collisions are the caller's problem: check the store and call again.
func Generate() (string, error) {
	b := make([]byte, Length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}

		b[i] = alphabet[n.Int64()]
	}

	return string(b), nil
}

// Valid returns true if s is a well-formed room code
func Valid(s string) bool {
	return codeRx.MatchString(s)
}
