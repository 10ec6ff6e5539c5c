// Package schedule installs periodic-job unit pairs: a oneshot service
// plus a calendar timer, sharing internal/unit's hardening block and
// rendering idiom.
package schedule

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/validate"
)

// Intent describes a single scheduled job to install.
type Intent struct {
	Name       string
	Binary     string
	Args       []string
	Schedule   string // OnCalendar= expression
	RunAsUser  string
}

// Manager installs job unit pairs under Dir (the same systemd directory
// internal/unit.Manager writes application units to).
type Manager struct {
	Dir string
}

func New(dir string) *Manager {
	return &Manager{Dir: dir}
}

// Install writes kari-job-<name>.service and kari-job-<name>.timer, reloads
// the init system, then enables and starts the timer unit only.
func (m *Manager) Install(ctx context.Context, intent Intent) error {
	if !validate.UnitName(intent.Name) {
		return fmt.Errorf("schedule: invalid job name %q", intent.Name)
	}
	if !validate.NoShellMetachars(intent.Binary) {
		return fmt.Errorf("schedule: shell metacharacter in job binary %q", intent.Binary)
	}
	if !validate.Username(intent.RunAsUser) {
		return fmt.Errorf("schedule: invalid run_as_user %q", intent.RunAsUser)
	}

	serviceName := "kari-job-" + intent.Name
	servicePath := filepath.Join(m.Dir, serviceName+".service")
	timerPath := filepath.Join(m.Dir, serviceName+".timer")

	if err := os.WriteFile(servicePath, []byte(renderService(intent)), 0o644); err != nil {
		return fmt.Errorf("schedule: write %s: %w", servicePath, err)
	}
	if err := os.WriteFile(timerPath, []byte(renderTimer(serviceName, intent)), 0o644); err != nil {
		return fmt.Errorf("schedule: write %s: %w", timerPath, err)
	}

	if err := runSystemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	if err := runSystemctl(ctx, "enable", "--now", serviceName+".timer"); err != nil {
		return err
	}

	klog.WithComponent("schedule").Info().Str("job", intent.Name).Str("schedule", intent.Schedule).Msg("installed scheduled job")
	return nil
}

func renderService(intent Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Unit]\nDescription=kari scheduled job: %s\n\n", intent.Name)
	fmt.Fprintf(&b, "[Service]\nType=oneshot\nUser=%s\nGroup=%s\n", intent.RunAsUser, intent.RunAsUser)
	fmt.Fprintf(&b, "ExecStart=%s\n\n", strings.Join(append([]string{intent.Binary}, intent.Args...), " "))
	b.WriteString(jobHardeningBlock)
	b.WriteString("\n")
	return b.String()
}

func renderTimer(serviceName string, intent Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Unit]\nDescription=kari scheduled job timer: %s\n\n", intent.Name)
	fmt.Fprintf(&b, "[Timer]\nOnCalendar=%s\nPersistent=true\nUnit=%s.service\n\n", intent.Schedule, serviceName)
	b.WriteString("[Install]\nWantedBy=timers.target\n")
	return b.String()
}

// jobHardeningBlock is internal/unit's hardening block minus ReadWritePaths,
// since a scheduled job has no dedicated working directory to restrict
// writes to.
const jobHardeningBlock = `NoNewPrivileges=true
ProtectSystem=strict
PrivateTmp=true
ProtectHome=true
PrivateDevices=true
ProtectKernelTunables=true
ProtectKernelModules=true
ProtectControlGroups=true
RestrictAddressFamilies=AF_INET AF_INET6 AF_UNIX
CapabilityBoundingSet=
RestrictRealtime=true
RestrictSUIDSGID=true`

func runSystemctl(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, "systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("schedule: systemctl %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return nil
}
