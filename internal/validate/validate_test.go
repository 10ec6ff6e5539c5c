package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"simple", "example.com", true},
		{"underscores and dashes", "my_app-1", true},
		{"empty", "", false},
		{"traversal", "../etc", false},
		{"embedded traversal", "a..b", false},
		{"slash", "a/b", false},
		{"space", "a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.in))
		})
	}
}

func TestUsername(t *testing.T) {
	assert.True(t, Username("kari-app-a1"))
	assert.False(t, Username(""))
	assert.False(t, Username("kari_app"))
	assert.False(t, Username("kari app"))
}

func TestEnvKey(t *testing.T) {
	assert.True(t, EnvKey("DATABASE_URL"))
	assert.False(t, EnvKey("DATABASE-URL"))
	assert.False(t, EnvKey(""))
}

func TestUnitName(t *testing.T) {
	assert.True(t, UnitName("kari-ex.com"))
	assert.False(t, UnitName(""))
	assert.False(t, UnitName("a/b"))
	assert.False(t, UnitName("a..b"))
}

func TestPort(t *testing.T) {
	assert.False(t, Port(0))
	assert.True(t, Port(1))
	assert.True(t, Port(65535))
	assert.False(t, Port(65536))
	assert.False(t, Port(-1))
}

func TestNoShellMetachars(t *testing.T) {
	assert.True(t, NoShellMetachars("echo ok"))
	assert.False(t, NoShellMetachars("make; rm -rf /"))
	assert.False(t, NoShellMetachars("a && b"))
	assert.False(t, NoShellMetachars("a | b"))
}

func TestNoLeadingDash(t *testing.T) {
	assert.True(t, NoLeadingDash("https://github.com/o/r"))
	assert.False(t, NoLeadingDash("--upload-pack=touch /tmp/pwned"))
	assert.True(t, NoLeadingDash(""))
}

func TestPathUnderRoots(t *testing.T) {
	roots := []string{"/var/www/kari", "/etc/kari/ssl"}

	assert.True(t, PathUnderRoots("/var/www/kari/ex.com/current", roots))
	assert.True(t, PathUnderRoots("/var/www/kari", roots))
	assert.False(t, PathUnderRoots("/etc/passwd", roots))
	assert.False(t, PathUnderRoots("/var/www/kari/../../etc/passwd", roots))
	assert.False(t, PathUnderRoots("/var/www/kari-other/x", roots))
}
