package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIncludesHardeningAndLimits(t *testing.T) {
	spec := Spec{
		ServiceName:      "kari-ex.com",
		User:             "kari-app-a1",
		WorkingDirectory: "/var/www/kari/ex.com/releases/20260101000000",
		ExecStart:        "/bin/true",
		Env:              map[string]string{"PORT": "3000"},
		MemoryLimitMB:    512,
		CPULimitPercent:  50,
	}

	out, err := Render(spec)
	require.NoError(t, err)

	assert.Contains(t, out, "User=kari-app-a1")
	assert.Contains(t, out, `Environment="PORT=3000"`)
	assert.Contains(t, out, "MemoryMax=512M")
	assert.Contains(t, out, "CPUQuota=50%")
	assert.Contains(t, out, "NoNewPrivileges=true")
	assert.Contains(t, out, "ProtectSystem=strict")
	assert.Contains(t, out, "CapabilityBoundingSet=")
	assert.Contains(t, out, "ReadWritePaths=/var/www/kari/ex.com/releases/20260101000000")
}

func TestRenderRejectsBadServiceName(t *testing.T) {
	_, err := Render(Spec{ServiceName: "../evil"})
	assert.Error(t, err)
}

func TestEnvLinesDropsInvalidKeysAndEscapes(t *testing.T) {
	lines := envLines(map[string]string{
		"GOOD_KEY":  `value with "quotes" and \backslash`,
		"bad-key":   "dropped",
		"ANOTHER":   "plain",
	})

	assert.Len(t, lines, 2)
	joined := lines[0] + lines[1]
	assert.Contains(t, joined, `GOOD_KEY=value with \"quotes\" and \\backslash`)
	assert.Contains(t, joined, "ANOTHER=plain")
}

func TestUnitPathRejectsTraversal(t *testing.T) {
	m := New("/etc/systemd/system")
	_, err := m.unitPath("../evil", ".service")
	assert.Error(t, err)
}

func TestUnitPathJoinsDir(t *testing.T) {
	m := New("/etc/systemd/system")
	path, err := m.unitPath("kari-ex.com", ".service")
	require.NoError(t, err)
	assert.Equal(t, "/etc/systemd/system/kari-ex.com.service", path)
}
