// Package config loads the agent's process-wide, read-only configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// AgentConfig is constructed once at startup and never mutated afterward.
// Every component receives it by reference.
type AgentConfig struct {
	// SocketPath is the absolute path of the local RPC endpoint.
	SocketPath string
	// ExpectedPeerUID is the only non-root UID allowed to connect.
	ExpectedPeerUID uint32
	// WebRoot is the base directory under which per-domain release trees live.
	WebRoot string
	// UnitDir is where service/timer units are installed.
	UnitDir string
	// LogrotateDir holds per-domain rotation snippets.
	LogrotateDir string
	// TLSStorageDir holds per-domain certificate material.
	TLSStorageDir string
	// ProxyConfDir holds the ingress backend's vhost files.
	ProxyConfDir string
}

// Roots returns the directories WriteSystemFile is allowed to target.
func (c *AgentConfig) Roots() []string {
	return []string{c.WebRoot, c.TLSStorageDir, c.ProxyConfDir, c.UnitDir}
}

// Load builds an AgentConfig from environment variables. A non-numeric
// KARI_API_UID is a fatal bootstrap error: it would otherwise silently
// defeat the peer-credential gate.
func Load() (*AgentConfig, error) {
	uidStr := getenv("KARI_API_UID", "1001")
	uid, err := strconv.ParseUint(uidStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("KARI_API_UID must be a valid numeric user id: %w", err)
	}

	return &AgentConfig{
		SocketPath:      getenv("KARI_SOCKET_PATH", "/var/run/kari/agent.sock"),
		ExpectedPeerUID: uint32(uid),
		WebRoot:         getenv("KARI_WEB_ROOT", "/var/www/kari"),
		UnitDir:         getenv("KARI_SYSTEMD_DIR", "/etc/systemd/system"),
		LogrotateDir:    getenv("KARI_LOGROTATE_DIR", "/etc/logrotate.d"),
		TLSStorageDir:   getenv("KARI_SSL_DIR", "/etc/kari/ssl"),
		ProxyConfDir:    getenv("KARI_PROXY_CONF_DIR", "/etc/kari/proxy"),
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
