// Package facade composes every component manager behind one dispatcher,
// exposing one method per RPC operation. Facade methods return
// rpcerr-classified errors; internal/rpcserver is the only place those get
// turned into grpc/status codes.
package facade

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/irgordon/kari-agent/internal/buildrun"
	"github.com/irgordon/kari-agent/internal/config"
	"github.com/irgordon/kari-agent/internal/firewall"
	"github.com/irgordon/kari-agent/internal/jail"
	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/pipeline"
	"github.com/irgordon/kari-agent/internal/proxyvhost"
	"github.com/irgordon/kari-agent/internal/rpcerr"
	"github.com/irgordon/kari-agent/internal/schedule"
	"github.com/irgordon/kari-agent/internal/secret"
	"github.com/irgordon/kari-agent/internal/tlsmaterial"
	"github.com/irgordon/kari-agent/internal/unit"
	"github.com/irgordon/kari-agent/internal/validate"
)

// AgentVersion is reported by GetSystemStatus. It is a fixed constant,
// separate from cmd/kari-agent's Version, which -ldflags can set.
const AgentVersion = "0.1.0"

// packageCommandAllowlist restricts ExecutePackageCommand to known
// package-manager binaries.
var packageCommandAllowlist = map[string]bool{
	"apt-get": true,
	"apt":     true,
	"dnf":     true,
	"yum":     true,
	"zypper":  true,
}

var startedAt = time.Now()

// Facade dispatches every RPC operation to the manager that owns it.
type Facade struct {
	Cfg      *config.AgentConfig
	Units    *unit.Manager
	Proxy    *proxyvhost.Manager
	Jobs     *schedule.Manager
	Pipeline *pipeline.Pipeline
}

func New(cfg *config.AgentConfig, units *unit.Manager, proxy *proxyvhost.Manager, jobs *schedule.Manager, pipe *pipeline.Pipeline) *Facade {
	return &Facade{Cfg: cfg, Units: units, Proxy: proxy, Jobs: jobs, Pipeline: pipe}
}

// SystemStatus is GetSystemStatus's result.
type SystemStatus struct {
	Healthy     bool
	ActiveJails int
	CPUPercent  float64
	MemoryMB    uint64
	UptimeS     int64
	Version     string
}

// GetSystemStatus reports process-level health. Active jails is the count
// of processes whose command name begins with "kari-".
func (f *Facade) GetSystemStatus(ctx context.Context) (SystemStatus, error) {
	active, err := countKariProcesses(ctx)
	if err != nil {
		klog.WithComponent("facade").Warn().Err(err).Msg("failed to enumerate active jails")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemStatus{
		Healthy:     true,
		ActiveJails: active,
		CPUPercent:  0,
		MemoryMB:    mem.Sys / (1024 * 1024),
		UptimeS:     int64(time.Since(startedAt).Seconds()),
		Version:     AgentVersion,
	}, nil
}

func countKariProcesses(ctx context.Context) (int, error) {
	out, err := exec.CommandContext(ctx, "ps", "-e", "-o", "comm=").Output()
	if err != nil {
		return 0, fmt.Errorf("facade: ps: %w", err)
	}
	count := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "kari-") {
			count++
		}
	}
	return count, nil
}

// CommandResult is ExecutePackageCommand's result.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ExecutePackageCommand runs an allowlisted package-manager command.
func (f *Facade) ExecutePackageCommand(ctx context.Context, command string, args []string) (CommandResult, error) {
	if !packageCommandAllowlist[command] {
		return CommandResult{}, rpcerr.InvalidArgumentf("facade: command %q is not in the package manager allowlist", command)
	}

	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return CommandResult{}, rpcerr.Internalf("facade: exec %s: %w", command, runErr)
		}
	}

	return CommandResult{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// ProvisionAppJail creates the unprivileged user for app_id and secures the
// domain's tree (<web_root>/<domain>) to it, then erases env_vars.
// start_command and memory_limit_mb are validated; no service unit is
// written here.
func (f *Facade) ProvisionAppJail(ctx context.Context, appID, domain, startCommand string, envVars map[string]string, memoryLimitMB int) error {
	defer buildrun.ZeroEnv(envVars)

	if !validate.Identifier(appID) {
		return rpcerr.InvalidArgumentf("facade: invalid app_id %q", appID)
	}
	if !validate.Identifier(domain) {
		return rpcerr.InvalidArgumentf("facade: invalid domain %q", domain)
	}
	if startCommand == "" {
		return rpcerr.InvalidArgumentf("facade: start_command must be non-empty")
	}
	if memoryLimitMB < 0 {
		return rpcerr.InvalidArgumentf("facade: memory_limit_mb must not be negative")
	}

	appUser := jail.AppUserName(appID)
	if err := jail.ProvisionAppUser(ctx, appUser); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}

	webRoot := filepath.Join(f.Cfg.WebRoot, domain)
	if err := jail.SecureDirectory(ctx, webRoot, appUser); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}

	return nil
}

// ManageService drives the init system for a managed application service.
// service_name MUST start with "kari-"; every other value is
// PermissionDenied.
func (f *Facade) ManageService(ctx context.Context, serviceName string, action unit.Action) error {
	if !strings.HasPrefix(serviceName, "kari-") {
		return rpcerr.PermissionDeniedf("facade: service name %q must start with kari-", serviceName)
	}
	if err := f.Units.Drive(ctx, action, serviceName); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}
	return nil
}

// StreamDeployment launches the deployment pipeline and returns its log
// stream immediately; the pipeline itself runs detached.
func (f *Facade) StreamDeployment(ctx context.Context, req pipeline.Request) <-chan pipeline.LogChunk {
	return f.Pipeline.Run(ctx, req)
}

// DeleteDeployment tears down a deployment in a fixed, deterministic
// order: stop service, remove unit, remove proxy vhost, delete user,
// purge web root. Running it twice succeeds both times — every step
// tolerates "already gone".
func (f *Facade) DeleteDeployment(ctx context.Context, appID, domain string) error {
	if !validate.Identifier(appID) || !validate.Identifier(domain) {
		return rpcerr.InvalidArgumentf("facade: invalid app_id/domain")
	}

	serviceName := "kari-" + domain
	appUser := jail.AppUserName(appID)

	if err := f.Units.Drive(ctx, unit.Stop, serviceName); err != nil {
		klog.WithComponent("facade").Warn().Err(err).Str("service", serviceName).Msg("stop during teardown failed, continuing")
	}
	if err := f.Units.Remove(serviceName); err != nil {
		return rpcerr.Internalf("facade: remove unit: %w", err)
	}
	if err := f.Proxy.Remove(ctx, domain); err != nil {
		klog.WithComponent("facade").Warn().Err(err).Str("domain", domain).Msg("proxy removal during teardown failed, continuing")
	}
	if err := jail.DeprovisionAppUser(ctx, appUser); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}

	webRoot := filepath.Join(f.Cfg.WebRoot, domain)
	if err := os.RemoveAll(webRoot); err != nil {
		return rpcerr.Internalf("facade: purge %s: %w", webRoot, err)
	}
	return nil
}

// TeardownJail force-stops and deletes an app's user only, leaving any
// domain-scoped service/proxy/web-root state untouched. Absence of the
// jail is not an error.
func (f *Facade) TeardownJail(ctx context.Context, appID string) error {
	if !validate.Identifier(appID) {
		return rpcerr.InvalidArgumentf("facade: invalid app_id %q", appID)
	}
	appUser := jail.AppUserName(appID)
	if err := jail.DeprovisionAppUser(ctx, appUser); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}
	return nil
}

// WriteSystemFile writes content to absolutePath with the given mode and
// ownership. absolutePath MUST lie under one of the agent's configured
// roots and contain no ".." segment.
func (f *Facade) WriteSystemFile(ctx context.Context, absolutePath, content, fileMode, owner, group string) error {
	if !validate.PathUnderRoots(absolutePath, f.Cfg.Roots()) {
		return rpcerr.PermissionDeniedf("facade: %q is not under an allowed root", absolutePath)
	}

	mode, err := strconv.ParseUint(fileMode, 8, 32)
	if err != nil {
		return rpcerr.InvalidArgumentf("facade: invalid file_mode %q: %w", fileMode, err)
	}

	if err := os.WriteFile(absolutePath, []byte(content), os.FileMode(mode)); err != nil {
		return rpcerr.Internalf("facade: write %s: %w", absolutePath, err)
	}
	if err := os.Chmod(absolutePath, os.FileMode(mode)); err != nil {
		return rpcerr.Internalf("facade: chmod %s: %w", absolutePath, err)
	}

	if owner != "" || group != "" {
		chown := exec.CommandContext(ctx, "chown", fmt.Sprintf("%s:%s", owner, group), absolutePath)
		if out, err := chown.CombinedOutput(); err != nil {
			return rpcerr.Internalf("facade: chown %s: %s: %w", absolutePath, strings.TrimSpace(string(out)), err)
		}
	}
	return nil
}

// InstallCertificate installs TLS material for domain.
func (f *Facade) InstallCertificate(domain, fullchainPEM string, privKey *secret.Secret) error {
	if err := tlsmaterial.Install(f.Cfg.TLSStorageDir, domain, fullchainPEM, privKey); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}
	return nil
}

// ApplyFirewallPolicy applies a FirewallPolicy.
func (f *Facade) ApplyFirewallPolicy(ctx context.Context, policy firewall.Policy) error {
	if policy.Port == 0 {
		return rpcerr.InvalidArgumentf("facade: port 0 is not a valid firewall target")
	}
	if err := firewall.Apply(ctx, policy); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}
	return nil
}

// ScheduleJob installs a periodic job.
func (f *Facade) ScheduleJob(ctx context.Context, intent schedule.Intent) error {
	if !validate.NoShellMetachars(intent.Binary) {
		return rpcerr.InvalidArgumentf("facade: shell metacharacter in job binary")
	}
	if err := f.Jobs.Install(ctx, intent); err != nil {
		return rpcerr.Internalf("facade: %w", err)
	}
	return nil
}
