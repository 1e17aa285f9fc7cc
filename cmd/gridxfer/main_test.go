package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gridxfer/cmd/gridxfer/opts"
)

type cliEnv struct {
	src, dst, logPath, dsn string
}

func setupCLI(t *testing.T) cliEnv {
	color.NoColor = true
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	dir := t.TempDir()
	env := cliEnv{
		src:     filepath.Join(dir, "src"),
		dst:     filepath.Join(dir, "dst") + "/",
		logPath: filepath.Join(dir, "transfers.log"),
		dsn:     filepath.Join(dir, "catalogue.db"),
	}
	require.NoError(t, os.MkdirAll(env.src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.src, "a.dat"), []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(env.src, "b.dat"), []byte("bravo"), 0644))
	t.Setenv("GRIDXFER_CATALOGUE_DSN", env.dsn)
	return env
}

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(opts.New())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	closeLogging()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gridxfer version info")
	assert.Contains(t, out, "Platform:")
}

func TestSyncCommand(t *testing.T) {
	env := setupCLI(t)
	args := []string{"sync", "-s", env.src, "-d", env.dst, "-o", env.logPath, "-l", "/lfn/run1/", "-e", "SE-TEST"}

	out, err := execute(t, args...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "transferred")
	assert.Contains(t, out, "registered")

	content, err := os.ReadFile(filepath.Join(env.dst, "a.dat"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(content))

	logContent, err := os.ReadFile(env.logPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(logContent)), "\n"), 2)

	t.Run("rerun_is_a_no_op", func(t *testing.T) {
		out, err := execute(t, args...)
		require.NoError(t, err, out)
		assert.Contains(t, out, "in-sync")
		assert.Contains(t, out, "already-registered")

		logContent, err := os.ReadFile(env.logPath)
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(string(logContent)), "\n"), 2, "no new log lines")
	})
}

func TestTransferThenRegisterCommands(t *testing.T) {
	env := setupCLI(t)

	out, err := execute(t, "transfer", "-s", env.src, "-d", env.dst, "-o", env.logPath)
	require.NoError(t, err, out)
	assert.NotContains(t, out, "registered")

	out, err = execute(t, "register", "-i", env.logPath, "-l", "/lfn/run1/", "-e", "SE-TEST")
	require.NoError(t, err, out)
	assert.Contains(t, out, "/lfn/run1/a.dat")
	assert.Contains(t, out, "/lfn/run1/b.dat")
}

func TestCommandRejectsBadConfig(t *testing.T) {
	env := setupCLI(t)

	_, err := execute(t, "transfer", "-s", env.src, "-d", strings.TrimSuffix(env.dst, "/"), "-o", env.logPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must end with /")

	_, statErr := os.Stat(env.dst)
	assert.True(t, os.IsNotExist(statErr), "nothing is created before validation passes")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLI(t)

	out, err := execute(t, "status", "-s", env.src, "-d", env.dst, "-o", env.logPath, "-l", "/lfn/run1/", "-e", "SE-TEST")
	require.NoError(t, err, out)
	assert.Contains(t, out, "needs-transfer")
	assert.Contains(t, out, "unregistered")
	assert.Contains(t, out, "Files need to be synced")

	_, statErr := os.Stat(filepath.Join(env.dst, "a.dat"))
	assert.True(t, os.IsNotExist(statErr), "status copies nothing")
}

func TestConfigFile(t *testing.T) {
	env := setupCLI(t)
	cfgPath := filepath.Join(t.TempDir(), "gridxfer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"source: "+env.src+"\n"+
			"destination: "+env.dst+"\n"+
			"output_log: "+env.logPath+"\n"+
			"exclude:\n  - b.*\n"), 0644))

	out, err := execute(t, "--config", cfgPath, "transfer")
	require.NoError(t, err, out)

	_, statErr := os.Stat(filepath.Join(env.dst, "a.dat"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(env.dst, "b.dat"))
	assert.True(t, os.IsNotExist(statErr), "excluded by the config file")
	assert.Contains(t, out, "excluded")
}
