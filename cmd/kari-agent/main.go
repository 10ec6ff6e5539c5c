// Command kari-agent is the privileged host-side deployment agent. It binds
// a Unix-domain socket, gates every connection on peer credentials, and
// serves the RPC surface defined in internal/rpcserver until it receives
// SIGINT/SIGTERM, at which point it drains in-flight RPCs and exits.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/irgordon/kari-agent/internal/config"
	"github.com/irgordon/kari-agent/internal/facade"
	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/pipeline"
	"github.com/irgordon/kari-agent/internal/proxyvhost"
	"github.com/irgordon/kari-agent/internal/rpcserver"
	"github.com/irgordon/kari-agent/internal/schedule"
	"github.com/irgordon/kari-agent/internal/unit"
)

// Version is set via -ldflags at build time; "dev" otherwise.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kari-agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logLevel := klog.InfoLevel
	if v := os.Getenv("KARI_LOG_LEVEL"); v != "" {
		logLevel = klog.Level(v)
	}
	klog.Init(klog.Config{
		Level:      logLevel,
		JSONOutput: os.Getenv("KARI_LOG_JSON") != "",
	})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	klog.Logger.Info().Str("version", Version).Str("socket", cfg.SocketPath).Msg("starting kari-agent")

	lis, err := bindSocket(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("bind socket: %w", err)
	}
	defer lis.Close()

	units := unit.New(cfg.UnitDir)
	proxy := proxyvhost.New(cfg.ProxyConfDir, filepath.Join(cfg.ProxyConfDir, "enabled"))
	jobs := schedule.New(cfg.UnitDir)
	pipe := pipeline.New(cfg, units, proxy)
	f := facade.New(cfg, units, proxy, jobs, pipe)

	server := rpcserver.New(f)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis, cfg.ExpectedPeerUID)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		klog.Logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	server.GracefulStop()
	klog.Logger.Info().Msg("shutdown complete")
	return nil
}

// bindSocket creates socketPath's parent directory if absent, removes any
// stale socket file left behind by a prior crash, listens, and locks the
// mode to 0660 so only the owner and group (shared with the control-plane
// client) can connect.
func bindSocket(socketPath string) (*net.UnixListener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o750); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}

	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}

	addr, err := net.ResolveUnixAddr("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("resolve socket address: %w", err)
	}
	lis, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	if err := os.Chmod(socketPath, 0o660); err != nil {
		lis.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	return lis, nil
}
