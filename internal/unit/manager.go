package unit

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

// Action is a service lifecycle verb.
type Action int

const (
	Start Action = iota
	Stop
	Restart
	Reload
	Enable
	Disable
)

// Manager drives the init system for units rooted at Dir.
type Manager struct {
	Dir string
}

func New(dir string) *Manager {
	return &Manager{Dir: dir}
}

// unitPath safely joins a service/timer name to Dir, rejecting any name
// that could escape it (a path separator or ".."). The suffix is appended
// as given.
func (m *Manager) unitPath(name, suffix string) (string, error) {
	if !validate.UnitName(name) {
		return "", fmt.Errorf("unit: invalid unit name %q", name)
	}
	return filepath.Join(m.Dir, name+suffix), nil
}

// Write installs the rendered unit file for spec at mode 0644.
func (m *Manager) Write(spec Spec) error {
	path, err := m.unitPath(spec.ServiceName, ".service")
	if err != nil {
		return err
	}
	content, err := Render(spec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("unit: write %s: %w", path, err)
	}
	klog.WithComponent("unit").Info().Str("unit", spec.ServiceName).Msg("wrote service unit")
	return nil
}

// Remove unlinks the unit only when name passes the traversal check. A
// missing file is not an error.
func (m *Manager) Remove(name string) error {
	path, err := m.unitPath(name, ".service")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unit: remove %s: %w", path, err)
	}
	return nil
}

// Drive invokes systemctl for the given action against name. Reload is a
// daemon-reload and ignores name.
func (m *Manager) Drive(ctx context.Context, action Action, name string) error {
	var args []string
	switch action {
	case Start:
		args = []string{"start", name}
	case Stop:
		args = []string{"stop", name}
	case Restart:
		args = []string{"restart", name}
	case Reload:
		args = []string{"daemon-reload"}
	case Enable:
		args = []string{"enable", "--now", name}
	case Disable:
		args = []string{"disable", "--now", name}
	default:
		return fmt.Errorf("unit: unknown action %d", action)
	}

	if name != "" && action != Reload && !validate.UnitName(name) {
		return fmt.Errorf("unit: invalid unit name %q", name)
	}

	cmd := exec.CommandContext(ctx, "systemctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("unit: systemctl %s failed: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return nil
}
