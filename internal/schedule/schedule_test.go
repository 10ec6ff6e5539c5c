package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderServiceOneshotNoReadWritePaths(t *testing.T) {
	intent := Intent{Name: "nightly-backup", Binary: "/usr/local/bin/backup.sh", Args: []string{"--full"}, RunAsUser: "kari-app-a1"}
	out := renderService(intent)

	assert.Contains(t, out, "Type=oneshot")
	assert.Contains(t, out, "ExecStart=/usr/local/bin/backup.sh --full")
	assert.Contains(t, out, "User=kari-app-a1")
	assert.NotContains(t, out, "ReadWritePaths")
}

func TestRenderTimerPersistentAndTargetsService(t *testing.T) {
	intent := Intent{Name: "nightly-backup", Schedule: "daily"}
	out := renderTimer("kari-job-nightly-backup", intent)

	assert.Contains(t, out, "OnCalendar=daily")
	assert.Contains(t, out, "Persistent=true")
	assert.Contains(t, out, "Unit=kari-job-nightly-backup.service")
	assert.Contains(t, out, "WantedBy=timers.target")
}

func TestInstallRejectsShellMetacharsInBinary(t *testing.T) {
	m := New(t.TempDir())
	err := m.Install(nil, Intent{Name: "x", Binary: "/bin/sh -c 'rm -rf /; true'", RunAsUser: "kari-app-a1", Schedule: "daily"})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "shell metacharacter"))
}

func TestInstallRejectsBadJobName(t *testing.T) {
	m := New(t.TempDir())
	err := m.Install(nil, Intent{Name: "../evil", Binary: "/bin/true", RunAsUser: "kari-app-a1", Schedule: "daily"})
	assert.Error(t, err)
}
