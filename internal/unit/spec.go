// Package unit generates, installs, removes, and drives hardened systemd
// service units, building config text with strings.Builder and validating
// every interpolated field first.
package unit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/irgordon/kari-agent/internal/validate"
)

// Spec is the full generative input for a unit file.
type Spec struct {
	ServiceName      string
	User             string
	WorkingDirectory string
	ExecStart        string
	Env              map[string]string
	MemoryLimitMB    int
	CPULimitPercent  int
}

// hardeningBlock is the sandboxing block of every application unit;
// Render appends ReadWritePaths after it. internal/schedule keeps an
// identical copy for its job units.
const hardeningBlock = `NoNewPrivileges=true
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

// Render produces the full unit file text for an application service.
func Render(spec Spec) (string, error) {
	if !validate.UnitName(spec.ServiceName) {
		return "", fmt.Errorf("unit: invalid service name %q", spec.ServiceName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Unit]\nDescription=kari managed app: %s\nAfter=network.target\n\n", spec.ServiceName)
	fmt.Fprintf(&b, "[Service]\nType=simple\nUser=%s\nGroup=%s\nWorkingDirectory=%s\nExecStart=%s\n",
		spec.User, spec.User, spec.WorkingDirectory, spec.ExecStart)

	for _, line := range envLines(spec.Env) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Restart=always\nRestartSec=5\n\n")
	fmt.Fprintf(&b, "CPUAccounting=true\nCPUQuota=%d%%\nMemoryAccounting=true\nMemoryMax=%dM\nTasksMax=512\n\n",
		spec.CPULimitPercent, spec.MemoryLimitMB)
	b.WriteString(hardeningBlock)
	b.WriteString("\n")
	fmt.Fprintf(&b, "ReadWritePaths=%s\n\n", spec.WorkingDirectory)
	b.WriteString("[Install]\nWantedBy=multi-user.target\n")

	return b.String(), nil
}

// envLines escapes each key/value into a systemd Environment= directive,
// dropping any key that fails validation rather than failing the whole
// render — a single bad key shouldn't block a deploy.
func envLines(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		if !validate.EnvKey(k) {
			continue
		}
		v := env[k]
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		lines = append(lines, fmt.Sprintf(`Environment="%s=%s"`, k, v))
	}
	return lines
}
