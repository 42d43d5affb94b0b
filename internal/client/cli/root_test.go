package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a cobra command with the given args and captures stdout/stderr.
func executeCommand(root *cobra.Command, stdin string, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := executeCommand(NewRootCmd(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build version: N/A")
}

func TestSettingsCmd_PersistsAcrossRuns(t *testing.T) {
	storage := "--storage=" + filepath.Join(t.TempDir(), "restodash.db")

	out, _, err := executeCommand(NewRootCmd(), "", "settings", "set", "themePreset", "forest", storage)
	require.NoError(t, err)
	assert.Contains(t, out, "themePreset set to forest")
	assert.Contains(t, out, `class="theme-forest"`)

	out, _, err = executeCommand(NewRootCmd(), "", "settings", "show", storage)
	require.NoError(t, err)
	assert.Contains(t, out, "theme-forest")

	out, _, err = executeCommand(NewRootCmd(), "", "settings", "reset", storage)
	require.NoError(t, err)
	assert.Contains(t, out, "Settings restored to defaults")

	out, _, err = executeCommand(NewRootCmd(), "", "settings", storage)
	require.NoError(t, err)
	assert.Contains(t, out, "theme-ocean")
}

func TestSettingsCmd_ShowRaw(t *testing.T) {
	storage := "--storage=" + filepath.Join(t.TempDir(), "restodash.db")

	out, _, err := executeCommand(NewRootCmd(), "", "settings", "show", "--raw", storage)
	require.NoError(t, err)
	assert.Equal(t, "No settings stored.\n", out)

	_, _, err = executeCommand(NewRootCmd(), "", "settings", "set", "scale", "lg", storage)
	require.NoError(t, err)

	out, _, err = executeCommand(NewRootCmd(), "", "settings", "show", "--raw", storage)
	require.NoError(t, err)
	assert.Contains(t, out, `"scale":"lg"`)
	assert.NotContains(t, out, "theme-")
}

func TestSettingsCmd_RejectsBadInput(t *testing.T) {
	storage := "--storage=" + filepath.Join(t.TempDir(), "restodash.db")

	out, _, err := executeCommand(NewRootCmd(), "", "settings", "set", "fontSize", "12", storage)
	require.Error(t, err)
	assert.Contains(t, out, `Unknown setting "fontSize"`)

	out, _, err = executeCommand(NewRootCmd(), "", "settings", "set", "scale", "huge", storage)
	require.Error(t, err)
	assert.Contains(t, out, "Allowed: xs, sm, md, lg, xl")

	_, _, err = executeCommand(NewRootCmd(), "", "settings", "set", "scale", storage)
	require.Error(t, err)
}

func TestLogoutCmd(t *testing.T) {
	storage := "--storage=" + filepath.Join(t.TempDir(), "restodash.db")

	out, _, err := executeCommand(NewRootCmd(), "", "logout", storage)
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)
}

func TestRootCmd_RunsShell(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := executeCommand(NewRootCmd(), "help\nexit\n",
		"--api-url="+env.cfg.APIBaseURL,
		"--storage="+env.cfg.StoragePath,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome to restodash")
	assert.Contains(t, out, helpAnonymous)
	assert.Contains(t, out, "restodash /auth (anonymous)> ")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	_, _, err := executeCommand(NewRootCmd(), "", "--timeout=-1s", "version")
	require.NoError(t, err)

	_, _, err = executeCommand(NewRootCmd(), "", "--timeout=-1s", "logout",
		"--storage="+filepath.Join(t.TempDir(), "restodash.db"))
	require.Error(t, err)
}
