package rpcserver

// Plain request/response structs for every RPC operation. The JSON codec
// marshals these directly; there is no wire-schema generation step, so
// field names here ARE the wire format.

type GetSystemStatusRequest struct{}

type GetSystemStatusResponse struct {
	Healthy     bool    `json:"healthy"`
	ActiveJails int     `json:"active_jails"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryMB    uint64  `json:"memory_mb"`
	UptimeS     int64   `json:"uptime_s"`
	Version     string  `json:"version"`
}

type ExecutePackageCommandRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type ExecutePackageCommandResponse struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

type ProvisionAppJailRequest struct {
	AppID         string            `json:"app_id"`
	Domain        string            `json:"domain"`
	StartCommand  string            `json:"start_command"`
	EnvVars       map[string]string `json:"env_vars"`
	MemoryLimitMB int               `json:"memory_limit_mb"`
}

type ManageServiceRequest struct {
	ServiceName string `json:"service_name"`
	Action      string `json:"action"`
}

type StreamDeploymentRequest struct {
	TraceID      string            `json:"trace_id"`
	AppID        string            `json:"app_id"`
	Domain       string            `json:"domain"`
	RepoURL      string            `json:"repo_url"`
	Branch       string            `json:"branch"`
	BuildCommand string            `json:"build_command"`
	StartCommand string            `json:"start_command"`
	EnvVars      map[string]string `json:"env_vars"`
	Port         int               `json:"port"`
	SSHKey       string            `json:"ssh_key,omitempty"`
}

type LogChunkMessage struct {
	Content string `json:"content"`
	TraceID string `json:"trace_id"`
}

type DeleteDeploymentRequest struct {
	AppID  string `json:"app_id"`
	Domain string `json:"domain"`
}

type TeardownJailRequest struct {
	AppID string `json:"app_id"`
}

type WriteSystemFileRequest struct {
	AbsolutePath string `json:"absolute_path"`
	Content      string `json:"content"`
	FileMode     string `json:"file_mode"`
	Owner        string `json:"owner"`
	Group        string `json:"group"`
}

type InstallCertificateRequest struct {
	Domain       string `json:"domain"`
	FullchainPEM string `json:"fullchain_pem"`
	PrivkeyPEM   string `json:"privkey_pem"`
}

type ApplyFirewallPolicyRequest struct {
	Action   string `json:"action"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	SourceIP string `json:"source_ip,omitempty"`
}

type ScheduleJobRequest struct {
	Name      string   `json:"name"`
	Binary    string   `json:"binary"`
	Args      []string `json:"args"`
	Schedule  string   `json:"schedule"`
	RunAsUser string   `json:"run_as_user"`
}

// Empty is returned by every operation whose result is bare success.
type Empty struct{}
