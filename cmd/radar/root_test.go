package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.hon.one/radar/common"
)

func TestApplyFlagOverrides(t *testing.T) {
	config := common.DefaultConfig()
	config.Concurrency = 0
	applyFlagOverrides(&config, &rootOptions{})
	assert.Equal(t, common.DefaultConcurrency, config.Concurrency)
	assert.Empty(t, config.MetricsFile)

	applyFlagOverrides(&config, &rootOptions{
		concurrency:  8,
		metricsFile:  "/tmp/radar.prom",
		knownHosts:   "/etc/ssh/known_hosts",
		httpEndpoint: ":9100",
	})
	assert.Equal(t, 8, config.Concurrency)
	assert.Equal(t, "/tmp/radar.prom", config.MetricsFile)
	assert.Equal(t, "/etc/ssh/known_hosts", config.KnownHostsPath)
	assert.Equal(t, ":9100", config.HTTPEndpoint)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(""))
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RADAR_TEST_KEY=\"line1\\nline2\"\nSSH_PASSWORD=from-file\n"), 0600))
	t.Setenv(common.PasswordEnv, "already-set")
	require.NoError(t, loadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv("RADAR_TEST_KEY") })
	assert.Equal(t, "line1\nline2", os.Getenv("RADAR_TEST_KEY"))
	assert.Equal(t, "already-set", os.Getenv(common.PasswordEnv))
}

func TestRootCmdRequiresTarget(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--range", "10.0.0.0/30", "--password", "x"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestRootCmdInvalidRange(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--target-mac", "aa:bb:cc:dd:ee:ff", "--range", "10.0.0.0", "--password", "x", "--env-file", ""})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidRange))
}

func TestRootCmdNotFound(t *testing.T) {
	cmd := newRootCmd()
	var stdout bytes.Buffer
	// Port 1 on loopback refuses connections
	cmd.SetArgs([]string{"--target-mac", "aa:bb:cc:dd:ee:ff", "--range", "127.0.0.1/32", "--port", "1", "--password", "x", "--env-file", "", "--timeout-sec", "1"})
	cmd.SetOut(&stdout)
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.False(t, errors.Is(err, common.ErrConnectionFailed))
	assert.Empty(t, stdout.String())
}
