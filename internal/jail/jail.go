// Package jail provisions the unprivileged OS identities and locked-down
// directory trees that back every deployment.
package jail

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/validate"
)

const userPrefix = "kari-app-"

// AppUserName derives the deterministic unprivileged username for an
// app id.
func AppUserName(appID string) string {
	return userPrefix + appID
}

// ProvisionAppUser creates an unprivileged system user with no home and no
// login shell. An already-existing user of the same name is not an error:
// the call is idempotent.
func ProvisionAppUser(ctx context.Context, username string) error {
	if !validate.Username(username) {
		return fmt.Errorf("jail: invalid username %q", username)
	}

	checkCmd := exec.CommandContext(ctx, "id", "-u", username)
	if err := checkCmd.Run(); err == nil {
		klog.WithComponent("jail").Debug().Str("user", username).Msg("user already exists, skipping")
		return nil
	}

	cmd := exec.CommandContext(ctx, "useradd",
		"--system", "--no-create-home", "--shell", "/bin/false", username)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("jail: useradd %s failed: %s: %w", username, strings.TrimSpace(string(out)), err)
	}
	klog.WithComponent("jail").Info().Str("user", username).Msg("provisioned app user")
	return nil
}

// DeprovisionAppUser refuses to act on any name not prefixed "kari-",
// best-effort kills the user's processes, then deletes the account.
// "no such user" (userdel exit code 6) is treated as success.
func DeprovisionAppUser(ctx context.Context, username string) error {
	if !strings.HasPrefix(username, "kari-") {
		return fmt.Errorf("jail: refusing to delete non-kari user %q", username)
	}

	_ = exec.CommandContext(ctx, "killall", "-u", username).Run()

	cmd := exec.CommandContext(ctx, "userdel", username)
	out, err := cmd.CombinedOutput()
	if err == nil {
		klog.WithComponent("jail").Info().Str("user", username).Msg("deprovisioned app user")
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 6 {
		return nil
	}
	return fmt.Errorf("jail: userdel %s failed: %s: %w", username, strings.TrimSpace(string(out)), err)
}
