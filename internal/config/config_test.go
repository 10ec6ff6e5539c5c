package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"KARI_SOCKET_PATH", "KARI_API_UID", "KARI_WEB_ROOT",
		"KARI_SYSTEMD_DIR", "KARI_LOGROTATE_DIR", "KARI_SSL_DIR",
		"KARI_PROXY_CONF_DIR",
	} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/run/kari/agent.sock", cfg.SocketPath)
	assert.Equal(t, uint32(1001), cfg.ExpectedPeerUID)
	assert.Equal(t, "/var/www/kari", cfg.WebRoot)
	assert.Equal(t, "/etc/systemd/system", cfg.UnitDir)
	assert.Equal(t, "/etc/logrotate.d", cfg.LogrotateDir)
	assert.Equal(t, "/etc/kari/ssl", cfg.TLSStorageDir)
	assert.Equal(t, "/etc/kari/proxy", cfg.ProxyConfDir)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("KARI_API_UID", "2002")
	os.Setenv("KARI_WEB_ROOT", "/srv/kari")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(2002), cfg.ExpectedPeerUID)
	assert.Equal(t, "/srv/kari", cfg.WebRoot)
}

func TestLoadRejectsNonNumericUID(t *testing.T) {
	clearEnv(t)
	os.Setenv("KARI_API_UID", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestRootsCoversAllFourDirectories(t *testing.T) {
	cfg := &AgentConfig{
		WebRoot:       "/a",
		TLSStorageDir: "/b",
		ProxyConfDir:  "/c",
		UnitDir:       "/d",
	}
	assert.ElementsMatch(t, []string{"/a", "/b", "/c", "/d"}, cfg.Roots())
}
