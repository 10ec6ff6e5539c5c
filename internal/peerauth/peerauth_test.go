package peerauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedMatchesExpectedUID(t *testing.T) {
	assert.True(t, Allowed(Credentials{UID: 1001}, 1001))
}

func TestAllowedPermitsRoot(t *testing.T) {
	assert.True(t, Allowed(Credentials{UID: 0}, 1001))
}

func TestAllowedRejectsUnexpectedUID(t *testing.T) {
	assert.False(t, Allowed(Credentials{UID: 4242}, 1001))
}
