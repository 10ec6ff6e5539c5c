package logrotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEmitsExpectedSnippet(t *testing.T) {
	dir := t.TempDir()

	err := Write(dir, "ex.com", "/var/www/kari/ex.com/logs", 5)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "kari-ex.com"))
	require.NoError(t, err)

	out := string(content)
	assert.Contains(t, out, "/var/www/kari/ex.com/logs/*.log")
	assert.Contains(t, out, "daily")
	assert.Contains(t, out, "rotate 5")
	assert.Contains(t, out, "compress")
}

func TestWriteRejectsInvalidDomain(t *testing.T) {
	err := Write(t.TempDir(), "../etc", "/var/log", 5)
	assert.Error(t, err)
}
