// Package pipeline drives the deployment state machine — Validate, Clone,
// Jail, Build, PublishProxy, ActivateService, Finalize — as a struct
// holding the component managers it composes, one method per run. Stage
// failures are logged with structured zerolog fields (trace_id, stage).
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/irgordon/kari-agent/internal/buildrun"
	"github.com/irgordon/kari-agent/internal/config"
	"github.com/irgordon/kari-agent/internal/gitfetch"
	"github.com/irgordon/kari-agent/internal/jail"
	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/proxyvhost"
	"github.com/irgordon/kari-agent/internal/secret"
	"github.com/irgordon/kari-agent/internal/unit"
	"github.com/irgordon/kari-agent/internal/validate"
)

// logBuffer is the bounded capacity of every run's LogChunk channel.
const logBuffer = 512

const retainedReleases = 5

// LogChunk is one line of the deployment's narration stream.
type LogChunk struct {
	Content string
	TraceID string
}

// Request is the immutable per-run input describing a single deployment.
type Request struct {
	TraceID      string
	AppID        string
	Domain       string
	RepoURL      string
	Branch       string
	BuildCommand string
	StartCommand string
	EnvVars      map[string]string
	Port         int
	SSHKey       *secret.Secret
}

// Pipeline composes the managers a deployment run needs. One Pipeline is
// shared across every run; it carries no run-local state.
type Pipeline struct {
	Cfg    *config.AgentConfig
	Units  *unit.Manager
	Proxy  *proxyvhost.Manager
}

func New(cfg *config.AgentConfig, units *unit.Manager, proxy *proxyvhost.Manager) *Pipeline {
	return &Pipeline{Cfg: cfg, Units: units, Proxy: proxy}
}

// Run validates req, then launches the remaining stages on a detached
// goroutine and returns immediately with the channel the RPC layer streams
// back to the brain. The channel is closed when the run reaches a terminal
// state, after the success or failure chunk has been sent; if ctx is done
// first, the run stops and the channel is closed without a terminal chunk.
func (p *Pipeline) Run(ctx context.Context, req Request) <-chan LogChunk {
	out := make(chan LogChunk, logBuffer)

	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	if err := validateRequest(req); err != nil {
		go func() {
			defer close(out)
			emit(ctx, out, traceID, fmt.Sprintf("SECURITY validation failed: %v", err))
		}()
		return out
	}

	go p.run(ctx, req, traceID, out)
	return out
}

func validateRequest(req Request) error {
	if !validate.Identifier(req.AppID) {
		return fmt.Errorf("invalid app_id %q", req.AppID)
	}
	if !validate.Identifier(req.Domain) {
		return fmt.Errorf("invalid domain %q", req.Domain)
	}
	port := req.Port
	if port == 0 {
		port = 3000
	}
	if !validate.Port(port) {
		return fmt.Errorf("invalid port %d", req.Port)
	}
	if req.BuildCommand == "" || req.StartCommand == "" {
		return fmt.Errorf("build_command and start_command must be non-empty")
	}
	if !validate.NoShellMetachars(req.BuildCommand) {
		return fmt.Errorf("build command chaining rejected")
	}
	if !validate.NoLeadingDash(req.RepoURL) || !validate.NoLeadingDash(req.Branch) {
		return fmt.Errorf("repo url or branch begins with '-'")
	}
	return nil
}

// emit sends a chunk, applying the producer-side backpressure rule: the
// send blocks while the channel is full, and if the context is done (which
// is how a gone consumer is observed) the producer gives up rather than
// hanging forever.
func emit(ctx context.Context, out chan<- LogChunk, traceID, content string) bool {
	select {
	case out <- LogChunk{Content: content, TraceID: traceID}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) run(ctx context.Context, req Request, traceID string, out chan<- LogChunk) {
	defer close(out)
	log := klog.WithTrace(traceID)

	port := req.Port
	if port == 0 {
		port = 3000
	}

	releaseDir := filepath.Join(p.Cfg.WebRoot, req.Domain, "releases", time.Now().UTC().Format("20060102150405"))
	appUser := jail.AppUserName(req.AppID)
	serviceName := "kari-" + req.Domain

	if !emit(ctx, out, traceID, "Pulling release") {
		return
	}
	log.Info().Str("release_dir", releaseDir).Msg("pipeline: clone stage")
	if err := os.MkdirAll(filepath.Dir(releaseDir), 0o750); err != nil {
		p.fail(ctx, out, traceID, "Clone", err)
		return
	}
	if err := gitfetch.Clone(ctx, req.RepoURL, req.Branch, releaseDir, req.SSHKey); err != nil {
		p.fail(ctx, out, traceID, "Clone", err)
		return
	}

	if !emit(ctx, out, traceID, "Securing release") {
		return
	}
	if err := jail.ProvisionAppUser(ctx, appUser); err != nil {
		p.fail(ctx, out, traceID, "Jail", err)
		return
	}
	if err := jail.SecureDirectory(ctx, releaseDir, appUser); err != nil {
		p.fail(ctx, out, traceID, "Jail", err)
		return
	}

	if !emit(ctx, out, traceID, "Executing build") {
		return
	}
	buildOut := make(chan buildrun.Line, 64)
	buildDone := make(chan error, 1)
	go func() {
		buildDone <- buildrun.Run(ctx, req.BuildCommand, releaseDir, appUser, req.EnvVars, buildOut)
		close(buildOut)
	}()
	for line := range buildOut {
		if !emit(ctx, out, traceID, fmt.Sprintf("[%s] %s", line.Stream, line.Content)) {
			buildrun.ZeroEnv(req.EnvVars)
			return
		}
	}
	buildErr := <-buildDone
	buildrun.ZeroEnv(req.EnvVars)
	if buildErr != nil {
		p.fail(ctx, out, traceID, "Build", buildErr)
		return
	}

	if !emit(ctx, out, traceID, "Updating Proxy") {
		return
	}
	if err := p.Proxy.Publish(ctx, req.Domain, port); err != nil {
		p.fail(ctx, out, traceID, "PublishProxy", err)
		return
	}

	if !emit(ctx, out, traceID, "Activating service") {
		return
	}
	spec := unit.Spec{
		ServiceName:      serviceName,
		User:             appUser,
		WorkingDirectory: releaseDir,
		ExecStart:        req.StartCommand,
		Env:              req.EnvVars,
		MemoryLimitMB:    512,
		CPULimitPercent:  100,
	}
	if err := p.Units.Write(spec); err != nil {
		p.fail(ctx, out, traceID, "ActivateService", err)
		return
	}
	if err := p.Units.Drive(ctx, unit.Reload, ""); err != nil {
		p.fail(ctx, out, traceID, "ActivateService", err)
		return
	}
	if err := p.Units.Drive(ctx, unit.Restart, serviceName); err != nil {
		p.fail(ctx, out, traceID, "ActivateService", err)
		return
	}

	if err := swapCurrent(p.Cfg.WebRoot, req.Domain, releaseDir); err != nil {
		log.Warn().Err(err).Msg("pipeline: current symlink swap failed")
	}
	pruneReleases(p.Cfg.WebRoot, req.Domain)

	emit(ctx, out, traceID, "deployment successful")
}

func (p *Pipeline) fail(ctx context.Context, out chan<- LogChunk, traceID, stage string, err error) {
	klog.WithTrace(traceID).Error().Str("stage", stage).Err(err).Msg("pipeline: stage failed")
	emit(ctx, out, traceID, fmt.Sprintf("FAILED at %s: %v", stage, err))
}

// swapCurrent points <web_root>/<domain>/current at releaseDir using a
// symlink-then-rename so an observer never sees a missing symlink.
func swapCurrent(webRoot, domain, releaseDir string) error {
	current := filepath.Join(webRoot, domain, "current")
	tmp := current + ".tmp"
	_ = os.Remove(tmp)
	if err := os.Symlink(releaseDir, tmp); err != nil {
		return fmt.Errorf("pipeline: create symlink: %w", err)
	}
	if err := os.Rename(tmp, current); err != nil {
		return fmt.Errorf("pipeline: swap current symlink: %w", err)
	}
	return nil
}

// pruneReleases keeps the newest retainedReleases siblings of domain's
// releases directory. Failures are logged and do not abort the run.
func pruneReleases(webRoot, domain string) {
	dir := filepath.Join(webRoot, domain, "releases")
	entries, err := os.ReadDir(dir)
	if err != nil {
		klog.WithComponent("pipeline").Warn().Err(err).Str("dir", dir).Msg("release listing failed")
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) <= retainedReleases {
		return
	}
	for _, stale := range names[:len(names)-retainedReleases] {
		path := filepath.Join(dir, stale)
		if err := os.RemoveAll(path); err != nil {
			klog.WithComponent("pipeline").Warn().Err(err).Str("path", path).Msg("release prune failed")
		}
	}
}
