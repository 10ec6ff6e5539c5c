package jail

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/validate"
)

// SecureDirectory creates path if absent, then recursively changes
// ownership to username:username and locks the tree to mode 0750. It
// shells out to chown/chmod with -P/non-following flags rather than
// reimplementing a recursive walk in Go, which would be vulnerable to a
// TOCTOU symlink race between the Lstat and the Chown of each entry; the
// native binaries are hardened against exactly that race.
func SecureDirectory(ctx context.Context, path, username string) error {
	if !validate.Username(username) {
		return fmt.Errorf("jail: invalid username format %q", username)
	}

	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("jail: create %s: %w", path, err)
	}

	owner := fmt.Sprintf("%s:%s", username, username)
	chown := exec.CommandContext(ctx, "chown", "-RP", owner, path)
	if out, err := chown.CombinedOutput(); err != nil {
		return fmt.Errorf("jail: chown %s %s: %s: %w", owner, path, strings.TrimSpace(string(out)), err)
	}

	chmod := exec.CommandContext(ctx, "chmod", "-R", "0750", path)
	if out, err := chmod.CombinedOutput(); err != nil {
		return fmt.Errorf("jail: chmod %s: %s: %w", path, strings.TrimSpace(string(out)), err)
	}

	klog.WithComponent("jail").Info().Str("path", path).Str("owner", owner).Msg("secured directory")
	return nil
}
