package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseExposesBytes(t *testing.T) {
	s := New([]byte("hunter2"))
	defer s.Destroy()

	var seen string
	_, err := s.Use(func(b []byte) NonBorrowing {
		seen = string(b)
		return Done{}
	})
	require.NoError(t, err)
	assert.Equal(t, "hunter2", seen)
}

func TestDestroyZeroesBuffer(t *testing.T) {
	buf := []byte("topsecret")
	s := New(buf)
	s.Destroy()

	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

func TestUseAfterDestroyErrors(t *testing.T) {
	s := New([]byte("x"))
	s.Destroy()

	_, err := s.Use(func(b []byte) NonBorrowing {
		return Done{}
	})
	assert.Error(t, err)
}

func TestDestroyIsIdempotent(t *testing.T) {
	s := New([]byte("x"))
	s.Destroy()
	assert.NotPanics(t, func() { s.Destroy() })
}

func TestStringRedacted(t *testing.T) {
	s := New([]byte("sensitive"))
	defer s.Destroy()

	assert.Equal(t, "[REDACTED SECRET]", s.String())
	assert.Equal(t, "[REDACTED SECRET]", s.GoString())
	assert.NotContains(t, s.String(), "sensitive")
}
