package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRecoveryPolicyParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recovery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_attempts: 5
max_flaky_retries: 2
allow_patch_forward: true
allow_rollback: false
`), 0o644))

	policy, err := LoadRecoveryPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), policy.MaxAttempts)
	assert.Equal(t, uint32(2), policy.MaxFlakyRetries)
	assert.True(t, policy.AllowPatchForward)
	assert.False(t, policy.AllowRollback)
}

func TestLoadRecoveryPolicyMissingFile(t *testing.T) {
	_, err := LoadRecoveryPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRetentionPolicyParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retention.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_age_days: 30
max_runs: 500
`), 0o644))

	policy, err := LoadRetentionPolicy(path)
	require.NoError(t, err)
	require.NotNil(t, policy.MaxAgeDays)
	require.NotNil(t, policy.MaxRuns)
	assert.Equal(t, int64(30), *policy.MaxAgeDays)
	assert.Equal(t, 500, *policy.MaxRuns)
}
