package facade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/irgordon/kari-agent/internal/config"
	"github.com/irgordon/kari-agent/internal/firewall"
	"github.com/irgordon/kari-agent/internal/rpcerr"
	"github.com/irgordon/kari-agent/internal/schedule"
	"github.com/irgordon/kari-agent/internal/unit"
)

func testConfig() *config.AgentConfig {
	return &config.AgentConfig{
		WebRoot:       "/var/www/kari",
		TLSStorageDir: "/etc/kari/ssl",
		ProxyConfDir:  "/etc/kari/proxy",
		UnitDir:       "/etc/systemd/system",
	}
}

func TestExecutePackageCommandRejectsUnlistedCommand(t *testing.T) {
	f := &Facade{}
	_, err := f.ExecutePackageCommand(context.Background(), "rm", []string{"-rf", "/"})
	assert.Error(t, err)
	assert.Equal(t, rpcerr.InvalidArgument, rpcerr.KindOf(err))
}

func TestManageServiceRejectsNonKariPrefix(t *testing.T) {
	f := &Facade{}
	err := f.ManageService(context.Background(), "sshd", unit.Restart)
	assert.Error(t, err)
	assert.Equal(t, rpcerr.PermissionDenied, rpcerr.KindOf(err))
}

func TestApplyFirewallPolicyRejectsPortZero(t *testing.T) {
	f := &Facade{}
	err := f.ApplyFirewallPolicy(context.Background(), firewall.Policy{Port: 0, Protocol: firewall.TCP})
	assert.Error(t, err)
	assert.Equal(t, rpcerr.InvalidArgument, rpcerr.KindOf(err))
}

func TestScheduleJobRejectsShellMetachars(t *testing.T) {
	f := &Facade{}
	err := f.ScheduleJob(context.Background(), schedule.Intent{
		Name: "backup", Binary: "/usr/bin/rsync; rm -rf /", RunAsUser: "kari-app-a1", Schedule: "daily",
	})
	assert.Error(t, err)
	assert.Equal(t, rpcerr.InvalidArgument, rpcerr.KindOf(err))
}

func TestProvisionAppJailRejectsBadIdentifiers(t *testing.T) {
	f := &Facade{}
	err := f.ProvisionAppJail(context.Background(), "../etc", "ex.com", "/bin/true", nil, 128)
	assert.Error(t, err)
	assert.Equal(t, rpcerr.InvalidArgument, rpcerr.KindOf(err))
}

func TestWriteSystemFileRejectsPathOutsideRoots(t *testing.T) {
	f := &Facade{Cfg: testConfig()}
	err := f.WriteSystemFile(context.Background(), "/etc/passwd", "evil", "644", "", "")
	assert.Error(t, err)
	assert.Equal(t, rpcerr.PermissionDenied, rpcerr.KindOf(err))
}
