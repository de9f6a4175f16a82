package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetenv(t *testing.T) {
	t.Setenv("PN_TEST_KEY", "value")
	assert.Equal(t, "value", Getenv("PN_TEST_KEY", "default"))
	assert.Equal(t, "default", Getenv("PN_TEST_KEY_MISSING", "default"))
}
