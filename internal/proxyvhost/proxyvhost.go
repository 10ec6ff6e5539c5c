// Package proxyvhost writes and removes the ingress reverse-proxy vhost
// configuration that fronts each deployed domain: write, link into the
// enabled set, verify with a config test, then reload the daemon.
package proxyvhost

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/irgordon/kari-agent/internal/klog"
)

// Manager writes vhost files under ConfDir and symlinks them into
// EnabledDir (the reverse proxy's sites-enabled equivalent).
type Manager struct {
	ConfDir    string
	EnabledDir string
}

func New(confDir, enabledDir string) *Manager {
	return &Manager{ConfDir: confDir, EnabledDir: enabledDir}
}

func validateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("proxyvhost: domain cannot be empty")
	}
	if strings.Contains(domain, "..") || strings.ContainsAny(domain, "/\\") {
		return fmt.Errorf("proxyvhost: path traversal in domain %q", domain)
	}
	for _, r := range domain {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_':
		default:
			return fmt.Errorf("proxyvhost: invalid character in domain %q", domain)
		}
	}
	return nil
}

func render(domain string, port int) string {
	return fmt.Sprintf(`server {
    listen 80;
    server_name %s;

    location / {
        proxy_pass http://127.0.0.1:%d;
        proxy_set_header Host $host;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`, domain, port)
}

// Publish writes the vhost for domain -> 127.0.0.1:port, symlinks it into
// the enabled set, runs the backend's config test, and reloads on success.
// On a failed config test, the change is reverted before returning: a vhost
// file and enabled-set link that existed before the call are put back, and
// ones the call created are removed.
func (m *Manager) Publish(ctx context.Context, domain string, port int) error {
	if err := validateDomain(domain); err != nil {
		return err
	}

	confPath := filepath.Join(m.ConfDir, domain+".conf")
	enabledPath := filepath.Join(m.EnabledDir, domain+".conf")

	prevConf, prevConfErr := os.ReadFile(confPath)
	_, prevLinkErr := os.Lstat(enabledPath)

	if err := os.WriteFile(confPath, []byte(render(domain, port)), 0o644); err != nil {
		return fmt.Errorf("proxyvhost: write %s: %w", confPath, err)
	}

	_ = os.Remove(enabledPath)
	if err := os.Symlink(confPath, enabledPath); err != nil {
		return fmt.Errorf("proxyvhost: enable %s: %w", domain, err)
	}

	if err := m.configTest(ctx); err != nil {
		if prevLinkErr != nil {
			_ = os.Remove(enabledPath)
		}
		if prevConfErr == nil {
			_ = os.WriteFile(confPath, prevConf, 0o644)
		} else {
			_ = os.Remove(confPath)
		}
		return fmt.Errorf("proxyvhost: config test failed for %s, reverted: %w", domain, err)
	}

	if err := m.reload(ctx); err != nil {
		return fmt.Errorf("proxyvhost: reload failed for %s: %w", domain, err)
	}

	klog.WithComponent("proxyvhost").Info().Str("domain", domain).Int("port", port).Msg("published vhost")
	return nil
}

// Remove deletes both the vhost file and its enabled-set symlink, then
// reloads. Missing files are not an error.
func (m *Manager) Remove(ctx context.Context, domain string) error {
	if err := validateDomain(domain); err != nil {
		return err
	}
	confPath := filepath.Join(m.ConfDir, domain+".conf")
	enabledPath := filepath.Join(m.EnabledDir, domain+".conf")

	_ = os.Remove(enabledPath)
	if err := os.Remove(confPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("proxyvhost: remove %s: %w", confPath, err)
	}
	return m.reload(ctx)
}

func (m *Manager) configTest(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "nginx", "-t").CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (m *Manager) reload(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "nginx", "-s", "reload").CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
