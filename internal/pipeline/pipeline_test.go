package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		TraceID:      "t1",
		AppID:        "a1",
		Domain:       "ex.com",
		RepoURL:      "https://github.com/o/r",
		Branch:       "main",
		BuildCommand: "echo ok",
		StartCommand: "/bin/true",
		EnvVars:      map[string]string{"K": "V"},
		Port:         3000,
	}
}

func TestValidateRequestAccepts(t *testing.T) {
	assert.NoError(t, validateRequest(validRequest()))
}

func TestValidateRequestDefaultsPort(t *testing.T) {
	req := validRequest()
	req.Port = 0
	assert.NoError(t, validateRequest(req))
}

func TestValidateRequestRejectsShellMetachars(t *testing.T) {
	req := validRequest()
	req.BuildCommand = "make; rm -rf /"
	assert.Error(t, validateRequest(req))
}

func TestValidateRequestRejectsLeadingDashRepoURL(t *testing.T) {
	req := validRequest()
	req.RepoURL = "--upload-pack=touch /tmp/pwned"
	assert.Error(t, validateRequest(req))
}

func TestValidateRequestRejectsBadIdentifiers(t *testing.T) {
	req := validRequest()
	req.Domain = "../etc"
	assert.Error(t, validateRequest(req))
}

func TestValidateRequestRejectsEmptyCommands(t *testing.T) {
	req := validRequest()
	req.BuildCommand = ""
	assert.Error(t, validateRequest(req))
}

func TestPruneReleasesKeepsNewestFive(t *testing.T) {
	webRoot := t.TempDir()
	releasesDir := filepath.Join(webRoot, "ex.com", "releases")
	require.NoError(t, os.MkdirAll(releasesDir, 0o750))

	timestamps := []string{
		"20260101000000", "20260102000000", "20260103000000",
		"20260104000000", "20260105000000", "20260106000000", "20260107000000",
	}
	for _, ts := range timestamps {
		require.NoError(t, os.MkdirAll(filepath.Join(releasesDir, ts), 0o750))
	}

	pruneReleases(webRoot, "ex.com")

	entries, err := os.ReadDir(releasesDir)
	require.NoError(t, err)
	assert.Len(t, entries, retainedReleases)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "20260107000000")
	assert.NotContains(t, names, "20260101000000")
}

func TestSwapCurrentPointsAtRelease(t *testing.T) {
	webRoot := t.TempDir()
	domainDir := filepath.Join(webRoot, "ex.com")
	releaseDir := filepath.Join(domainDir, "releases", "20260101000000")
	require.NoError(t, os.MkdirAll(releaseDir, 0o750))

	require.NoError(t, swapCurrent(webRoot, "ex.com", releaseDir))

	target, err := os.Readlink(filepath.Join(domainDir, "current"))
	require.NoError(t, err)
	assert.Equal(t, releaseDir, target)
}
