package buildrun

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestZeroEnvOverwritesBackingBytes(t *testing.T) {
	v := strings.Clone("hunter2")
	env := map[string]string{"PASSWORD": v}

	ZeroEnv(env)

	data := unsafe.Slice(unsafe.StringData(v), len(v))
	for _, b := range data {
		assert.Equal(t, byte(0), b)
	}
}

func TestZeroEnvSkipsEmptyValues(t *testing.T) {
	env := map[string]string{"EMPTY": ""}
	assert.NotPanics(t, func() { ZeroEnv(env) })
}

func TestFlattenEnv(t *testing.T) {
	out := flattenEnv(map[string]string{"K": "V"})
	assert.Equal(t, []string{"K=V"}, out)
}
