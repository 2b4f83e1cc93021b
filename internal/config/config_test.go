package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 10*time.Minute, cfg.TaskTimeout())
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fhestate.yaml")
	content := `
rpc:
  endpoint: http://localhost:8899
executor:
  poll_interval_sec: 5
  queue_capacity: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8899", cfg.RPC.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, 8, cfg.Executor.QueueCapacity)

	// Everything unset falls back to defaults.
	def := Default()
	assert.Equal(t, def.Keys.Dir, cfg.Keys.Dir)
	assert.Equal(t, def.Cache.Dir, cfg.Cache.Dir)
	assert.Equal(t, def.Executor.TaskTimeoutSec, cfg.Executor.TaskTimeoutSec)
	assert.Equal(t, def.Executor.Retry, cfg.Executor.Retry)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fhestate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpc: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyDefaults_RejectsNonPositive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fhestate.yaml")
	content := `
executor:
  poll_interval_sec: -3
  queue_capacity: 0
  retry:
    max_attempts: -1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Executor.PollIntervalSec, cfg.Executor.PollIntervalSec)
	assert.Equal(t, def.Executor.QueueCapacity, cfg.Executor.QueueCapacity)
	assert.Equal(t, def.Executor.Retry.MaxAttempts, cfg.Executor.Retry.MaxAttempts)
}
