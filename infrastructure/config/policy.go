package config

import (
	"os"

	"gopkg.in/yaml.v3"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/recovery"
	"github.com/R3E-Network/aivcs/internal/trace"
)

// recoveryPolicyDoc mirrors recovery.Policy's fields in YAML document form,
// since recovery.Policy itself carries no yaml tags (it is a pure-Go
// domain type, not a config wire format).
type recoveryPolicyDoc struct {
	MaxAttempts       uint32 `yaml:"max_attempts"`
	MaxFlakyRetries   uint32 `yaml:"max_flaky_retries"`
	AllowPatchForward bool   `yaml:"allow_patch_forward"`
	AllowRollback     bool   `yaml:"allow_rollback"`
}

// LoadRecoveryPolicy reads a YAML recovery-policy document (an alternative
// to the env-var overrides used elsewhere in this package, for operators
// who prefer a checked-in config file).
func LoadRecoveryPolicy(path string) (recovery.Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return recovery.Policy{}, aerr.IO("read_recovery_policy", err)
	}
	var doc recoveryPolicyDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return recovery.Policy{}, aerr.Serialization(err)
	}
	return recovery.Policy{
		MaxAttempts:       doc.MaxAttempts,
		MaxFlakyRetries:   doc.MaxFlakyRetries,
		AllowPatchForward: doc.AllowPatchForward,
		AllowRollback:     doc.AllowRollback,
	}, nil
}

// retentionPolicyDoc mirrors trace.RetentionPolicy in YAML document form.
type retentionPolicyDoc struct {
	MaxAgeDays *int64 `yaml:"max_age_days"`
	MaxRuns    *int   `yaml:"max_runs"`
}

// LoadRetentionPolicy reads a YAML trace-retention-policy document.
func LoadRetentionPolicy(path string) (trace.RetentionPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return trace.RetentionPolicy{}, aerr.IO("read_retention_policy", err)
	}
	var doc retentionPolicyDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return trace.RetentionPolicy{}, aerr.Serialization(err)
	}
	return trace.RetentionPolicy{MaxAgeDays: doc.MaxAgeDays, MaxRuns: doc.MaxRuns}, nil
}
