package rpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/irgordon/kari-agent/internal/facade"
	"github.com/irgordon/kari-agent/internal/firewall"
	"github.com/irgordon/kari-agent/internal/pipeline"
	"github.com/irgordon/kari-agent/internal/rpcerr"
	"github.com/irgordon/kari-agent/internal/schedule"
	"github.com/irgordon/kari-agent/internal/secret"
	"github.com/irgordon/kari-agent/internal/unit"
)

// handlers binds every RPC method to the Facade it dispatches to. It holds
// no state of its own beyond that reference.
type handlers struct {
	facade *facade.Facade
}

// toStatus is the single translation point from rpcerr.Kind to a
// grpc/status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch rpcerr.KindOf(err) {
	case rpcerr.InvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case rpcerr.PermissionDenied:
		return status.Error(codes.PermissionDenied, err.Error())
	case rpcerr.Cancelled:
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (h *handlers) GetSystemStatus(ctx context.Context, _ *GetSystemStatusRequest) (*GetSystemStatusResponse, error) {
	st, err := h.facade.GetSystemStatus(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetSystemStatusResponse{
		Healthy:     st.Healthy,
		ActiveJails: st.ActiveJails,
		CPUPercent:  st.CPUPercent,
		MemoryMB:    st.MemoryMB,
		UptimeS:     st.UptimeS,
		Version:     st.Version,
	}, nil
}

func (h *handlers) ExecutePackageCommand(ctx context.Context, req *ExecutePackageCommandRequest) (*ExecutePackageCommandResponse, error) {
	result, err := h.facade.ExecutePackageCommand(ctx, req.Command, req.Args)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ExecutePackageCommandResponse{
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}, nil
}

func (h *handlers) ProvisionAppJail(ctx context.Context, req *ProvisionAppJailRequest) (*Empty, error) {
	err := h.facade.ProvisionAppJail(ctx, req.AppID, req.Domain, req.StartCommand, req.EnvVars, req.MemoryLimitMB)
	if err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (h *handlers) ManageService(ctx context.Context, req *ManageServiceRequest) (*Empty, error) {
	action, ok := parseAction(req.Action)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "rpcserver: unknown action %q", req.Action)
	}
	if err := h.facade.ManageService(ctx, req.ServiceName, action); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func parseAction(s string) (unit.Action, bool) {
	switch s {
	case "Start":
		return unit.Start, true
	case "Stop":
		return unit.Stop, true
	case "Restart":
		return unit.Restart, true
	case "Reload":
		return unit.Reload, true
	case "Enable":
		return unit.Enable, true
	case "Disable":
		return unit.Disable, true
	default:
		return 0, false
	}
}

func (h *handlers) DeleteDeployment(ctx context.Context, req *DeleteDeploymentRequest) (*Empty, error) {
	if err := h.facade.DeleteDeployment(ctx, req.AppID, req.Domain); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (h *handlers) TeardownJail(ctx context.Context, req *TeardownJailRequest) (*Empty, error) {
	if err := h.facade.TeardownJail(ctx, req.AppID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (h *handlers) WriteSystemFile(ctx context.Context, req *WriteSystemFileRequest) (*Empty, error) {
	if err := h.facade.WriteSystemFile(ctx, req.AbsolutePath, req.Content, req.FileMode, req.Owner, req.Group); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (h *handlers) InstallCertificate(_ context.Context, req *InstallCertificateRequest) (*Empty, error) {
	key := secret.New([]byte(req.PrivkeyPEM))
	if err := h.facade.InstallCertificate(req.Domain, req.FullchainPEM, key); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (h *handlers) ApplyFirewallPolicy(ctx context.Context, req *ApplyFirewallPolicyRequest) (*Empty, error) {
	policy, err := toPolicy(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := h.facade.ApplyFirewallPolicy(ctx, policy); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func toPolicy(req *ApplyFirewallPolicyRequest) (firewall.Policy, error) {
	var action firewall.Action
	switch req.Action {
	case "Allow":
		action = firewall.Allow
	case "Deny":
		action = firewall.Deny
	case "Reject":
		action = firewall.Reject
	default:
		return firewall.Policy{}, status.Errorf(codes.InvalidArgument, "rpcserver: unknown firewall action %q", req.Action)
	}

	var proto firewall.Protocol
	switch req.Protocol {
	case "Tcp":
		proto = firewall.TCP
	case "Udp":
		proto = firewall.UDP
	case "Both":
		proto = firewall.Both
	default:
		return firewall.Policy{}, status.Errorf(codes.InvalidArgument, "rpcserver: unknown protocol %q", req.Protocol)
	}

	return firewall.Policy{Action: action, Port: req.Port, Protocol: proto, SourceIP: req.SourceIP}, nil
}

func (h *handlers) ScheduleJob(ctx context.Context, req *ScheduleJobRequest) (*Empty, error) {
	intent := schedule.Intent{
		Name:      req.Name,
		Binary:    req.Binary,
		Args:      req.Args,
		Schedule:  req.Schedule,
		RunAsUser: req.RunAsUser,
	}
	if err := h.facade.ScheduleJob(ctx, intent); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// StreamDeployment is the one server-streaming RPC: it forwards each
// pipeline.LogChunk to the client as it is produced, respecting the
// pipeline's own backpressure/cancellation semantics.
func (h *handlers) StreamDeployment(req *StreamDeploymentRequest, stream grpc.ServerStream) error {
	ctx := stream.Context()

	var sshKey *secret.Secret
	if req.SSHKey != "" {
		sshKey = secret.New([]byte(req.SSHKey))
		defer sshKey.Destroy()
	}

	pipeReq := pipeline.Request{
		TraceID:      req.TraceID,
		AppID:        req.AppID,
		Domain:       req.Domain,
		RepoURL:      req.RepoURL,
		Branch:       req.Branch,
		BuildCommand: req.BuildCommand,
		StartCommand: req.StartCommand,
		EnvVars:      req.EnvVars,
		Port:         req.Port,
		SSHKey:       sshKey,
	}

	chunks := h.facade.StreamDeployment(ctx, pipeReq)
	for chunk := range chunks {
		msg := &LogChunkMessage{Content: chunk.Content, TraceID: chunk.TraceID}
		if err := stream.SendMsg(msg); err != nil {
			return status.Errorf(codes.Canceled, "rpcserver: send log chunk: %v", err)
		}
	}
	return nil
}
