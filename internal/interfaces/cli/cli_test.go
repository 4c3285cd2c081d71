package cli

import (
	"bytes"
	"encoding/base64"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/court-scheduler/internal/application/usecases"
	"github.com/example/court-scheduler/internal/domain/reservation"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer
	root := NewRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func freeze(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestVersion(t *testing.T) {
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	t.Cleanup(func() { readBuildInfo = prev })

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "courtsched dev (commit=none, built=unknown)\n", out)
}

func TestResolveVersionFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/example/court-scheduler", Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2025-05-30T18:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	version, commit, built := resolveVersion(bi, true)
	assert.Equal(t, "v1.4.0", version)
	assert.Equal(t, "0123456789ab-dirty", commit)
	assert.Equal(t, "2025-05-30T18:04:05Z", built)

	version, commit, built = resolveVersion(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)
	assert.Equal(t, []string{"dev", "none", "unknown"}, []string{version, commit, built})
}

func TestResolveVersionPrefersLinkerFlags(t *testing.T) {
	prevV, prevC := Version, CommitSHA
	Version, CommitSHA = "v2.0.0", "feedface"
	t.Cleanup(func() { Version, CommitSHA = prevV, prevC })

	bi := &debug.BuildInfo{
		Main:     debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}, {Key: "vcs.modified", Value: "true"}},
	}
	version, commit, _ := resolveVersion(bi, true)
	assert.Equal(t, "v2.0.0", version)
	assert.Equal(t, "feedface", commit)
}

func TestKeys(t *testing.T) {
	out, err := run(t, "keys")
	require.NoError(t, err)
	v, ok := strings.CutPrefix(strings.TrimSpace(out), "export CRED_ENC_KEY=")
	require.True(t, ok, out)
	key, err := base64.StdEncoding.DecodeString(v)
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestRelease(t *testing.T) {
	freeze(t, time.Date(2025, 5, 31, 5, 0, 0, 0, time.UTC))
	out, err := run(t, "release")
	require.NoError(t, err)
	assert.Contains(t, out, "next release: 2025-05-31 06:59:58 UTC (in 1h59m58s)")
	assert.Contains(t, out, "default date: 2025-06-07")
}

func TestReleaseAfterCutoff(t *testing.T) {
	freeze(t, time.Date(2025, 5, 31, 7, 30, 0, 0, time.UTC))
	out, err := run(t, "release")
	require.NoError(t, err)
	assert.Contains(t, out, "next release: 2025-06-01 06:59:58 UTC")
	assert.Contains(t, out, "default date: 2025-06-08")
}

func TestBookRejectsBadRequestBeforeBrowser(t *testing.T) {
	_, err := run(t, "book", "--date", "2025-06-01", "-t", "5", "-u", "member", "-p", "secret")
	assert.ErrorIs(t, err, reservation.ErrValidation)

	_, err = run(t, "book", "--date", "2025-06-01", "--duration", "3", "-u", "member", "-p", "secret")
	assert.ErrorIs(t, err, reservation.ErrValidation)

	_, err = run(t, "book", "--date", "06/01/2025")
	assert.Error(t, err)
}

func TestBookIndoorOutdoorExclusive(t *testing.T) {
	_, err := run(t, "book", "--indoor", "--outdoor")
	assert.ErrorContains(t, err, "none of the others can be")
}

func TestBookMissingUsername(t *testing.T) {
	t.Setenv("PORTAL_USERNAME", "")
	_, err := run(t, "book", "--date", "2025-06-01")
	assert.ErrorIs(t, err, usecases.ErrMissingCredentials)
}

func TestBookRequestDefaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	freeze(t, time.Date(2025, 5, 31, 6, 0, 0, 0, time.UTC))
	a, err := loadApp("")
	require.NoError(t, err)

	req, err := bookFlags{indoor: true, duration: 2, times: []int{7, 8, 7}}.request(a)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-07", req.DateString())
	assert.True(t, req.Indoor)
	assert.Equal(t, []int{7, 8}, req.Times)

	req, err = bookFlags{indoor: true, outdoor: true, duration: 1, times: []int{9}}.request(a)
	require.NoError(t, err)
	assert.False(t, req.Indoor)
}

func TestCredsSetNeedsDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "creds", "set", "-u", "member", "-p", "secret")
	assert.ErrorContains(t, err, "DATABASE_URL")
}
