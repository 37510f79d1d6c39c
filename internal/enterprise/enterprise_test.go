package enterprise_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/aivcs/internal/enterprise"
)

type fakeSecretProvider struct {
	values map[string]string
}

func (f fakeSecretProvider) GetSecret(_ context.Context, userID, name string) (string, error) {
	return f.values[userID+"/"+name], nil
}

const tenantA enterprise.TenantID = "tenant-a"
const tenantB enterprise.TenantID = "tenant-b"

func roleDeveloper() enterprise.Role {
	return enterprise.Role{Name: "developer", Permissions: []enterprise.Permission{enterprise.PermissionRunRead, enterprise.PermissionRunWrite}}
}

func roleAdmin() enterprise.Role {
	return enterprise.Role{Name: "admin", Permissions: []enterprise.Permission{enterprise.PermissionAdminFull}}
}

func TestRbacAllowsAuthorizedPrincipal(t *testing.T) {
	policy := enterprise.NewRbacPolicy()
	policy.AddPrincipal(enterprise.Principal{ID: "user-1", TenantID: tenantA, Roles: []enterprise.Role{roleDeveloper()}})

	decision := policy.Authorize("user-1", tenantA, enterprise.PermissionRunRead)
	assert.True(t, decision.IsAllowed())
}

func TestRbacDeniesMissingPermission(t *testing.T) {
	policy := enterprise.NewRbacPolicy()
	policy.AddPrincipal(enterprise.Principal{ID: "user-1", TenantID: tenantA, Roles: []enterprise.Role{roleDeveloper()}})

	decision := policy.Authorize("user-1", tenantA, enterprise.PermissionAgentDeploy)
	assert.False(t, decision.IsAllowed())
	assert.Contains(t, decision.Reason, "missing permission")
}

func TestRbacEnforcesTenantBoundary(t *testing.T) {
	policy := enterprise.NewRbacPolicy()
	policy.AddPrincipal(enterprise.Principal{ID: "user-1", TenantID: tenantA, Roles: []enterprise.Role{roleAdmin()}})

	decision := policy.Authorize("user-1", tenantB, enterprise.PermissionRunRead)
	assert.False(t, decision.IsAllowed())
	assert.Contains(t, decision.Reason, "tenant boundary")
}

func TestRbacAdminImpliesAllPermissions(t *testing.T) {
	policy := enterprise.NewRbacPolicy()
	policy.AddPrincipal(enterprise.Principal{ID: "admin-1", TenantID: tenantA, Roles: []enterprise.Role{roleAdmin()}})

	perms := []enterprise.Permission{
		enterprise.PermissionRunRead,
		enterprise.PermissionRunWrite,
		enterprise.PermissionAgentDeploy,
		enterprise.PermissionSecretWrite,
		enterprise.PermissionAuditExport,
	}
	for _, perm := range perms {
		assert.True(t, policy.Authorize("admin-1", tenantA, perm).IsAllowed(), "admin should have %s", perm)
	}
}

func TestRbacDeniesUnknownPrincipal(t *testing.T) {
	policy := enterprise.NewRbacPolicy()
	decision := policy.Authorize("ghost", tenantA, enterprise.PermissionRunRead)
	assert.False(t, decision.IsAllowed())
}

func TestSecretsRedactionRemovesSensitiveValues(t *testing.T) {
	policy := enterprise.NewSecretsPolicy()
	policy.AddRedactionRule(enterprise.EnvVarRedactionRule("API_KEY"))
	policy.AddRedactionRule(enterprise.BearerTokenRedactionRule())

	text := "Setting API_KEY=sk-secret-123 and using Bearer eyJhbGciOi for auth"
	result := policy.Redact(text)

	assert.NotContains(t, result.Text, "sk-secret-123")
	assert.NotContains(t, result.Text, "eyJhbGciOi")
	assert.Contains(t, result.Text, "[REDACTED]")
	assert.Equal(t, 2, result.RedactionsApplied)
}

func TestSecretsRotationDetection(t *testing.T) {
	now := time.Now()
	ninety := uint64(90)
	dbRotated := now.Add(-100 * 24 * time.Hour)
	apiRotated := now.Add(-10 * 24 * time.Hour)

	policy := enterprise.NewSecretsPolicy()
	policy.AddSecret(enterprise.SecretRef{Name: "db-password", Provider: "vault", LastRotated: &dbRotated, RotationIntervalDays: &ninety})
	policy.AddSecret(enterprise.SecretRef{Name: "api-key", Provider: "vault", LastRotated: &apiRotated, RotationIntervalDays: &ninety})

	stale := policy.SecretsNeedingRotation(now)
	require.Len(t, stale, 1)
	assert.Equal(t, "db-password", stale[0].Name)
}

func TestSecretRefResolvesThroughProvider(t *testing.T) {
	ref := enterprise.SecretRef{Name: "api-key", Provider: "vault"}
	provider := fakeSecretProvider{values: map[string]string{"user-1/api-key": "sk-live-abc"}}

	value, err := ref.Resolve(context.Background(), provider, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-live-abc", value)
}

func TestAuditExportRedactsEventMetadataBeforeSerialization(t *testing.T) {
	log := enterprise.NewAuditLog()
	log.Record(enterprise.AuditEvent{
		EventID: "e1", Timestamp: time.Now(), TenantID: "tenant-a", PrincipalID: "user-1",
		Action: "secret.read", Resource: "api-key", Outcome: enterprise.AuditOutcomeSuccess,
		Metadata: map[string]interface{}{"token": "super-secret-value"},
	})

	raw, err := log.ExportJSON("tenant-a")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-value")
}

func TestAuditLogRecordsAndQueriesByTenant(t *testing.T) {
	log := enterprise.NewAuditLog()
	now := time.Now()

	log.Record(enterprise.AuditEvent{EventID: "e1", Timestamp: now, TenantID: "tenant-a", PrincipalID: "user-1", Action: "run.create", Resource: "run-123", Outcome: enterprise.AuditOutcomeSuccess})
	log.Record(enterprise.AuditEvent{EventID: "e2", Timestamp: now, TenantID: "tenant-b", PrincipalID: "user-2", Action: "agent.deploy", Resource: "agent-abc", Outcome: enterprise.AuditOutcomeDenied})

	tenantAEvents := log.Query("tenant-a", nil, nil)
	require.Len(t, tenantAEvents, 1)
	assert.Equal(t, "run.create", tenantAEvents[0].Action)

	denied := log.QueryByOutcome(enterprise.AuditOutcomeDenied)
	require.Len(t, denied, 1)
	assert.Equal(t, "tenant-b", denied[0].TenantID)
}

func TestAuditExportProducesValidJSON(t *testing.T) {
	log := enterprise.NewAuditLog()
	log.Record(enterprise.AuditEvent{EventID: "e1", Timestamp: time.Now(), TenantID: "tenant-a", PrincipalID: "user-1", Action: "run.create", Resource: "run-123", Outcome: enterprise.AuditOutcomeSuccess})

	raw, err := log.ExportJSON("tenant-a")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "run.create")
}

func TestAuditExportWriteAndVerifyIntegrity(t *testing.T) {
	log := enterprise.NewAuditLog()
	log.Record(enterprise.AuditEvent{EventID: "e1", Timestamp: time.Now(), TenantID: "tenant-a", PrincipalID: "user-1", Action: "run.create", Resource: "run-123", Outcome: enterprise.AuditOutcomeSuccess})

	raw, err := log.ExportJSON("tenant-a")
	require.NoError(t, err)

	dir, err := os.MkdirTemp("", "audit-export")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	receipt, err := enterprise.WriteAuditExport("tenant-a", raw, dir, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.EventCount)
	_, statErr := os.Stat(receipt.Path)
	assert.NoError(t, statErr)

	verified, err := enterprise.VerifyAuditExport(receipt.Path)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestSloTrackerComputesErrorBudget(t *testing.T) {
	slo := enterprise.Slo{Name: "run-success-rate", TargetRatio: 0.95, WindowSeconds: 3600}
	tracker := enterprise.NewSloTracker(slo)
	now := time.Now()

	for i := 0; i < 90; i++ {
		tracker.Record(enterprise.SliMeasurement{Timestamp: now.Add(-time.Duration(3600-i) * time.Second), Good: true})
	}
	for i := 0; i < 10; i++ {
		tracker.Record(enterprise.SliMeasurement{Timestamp: now.Add(-time.Duration(100-i) * time.Second), Good: false})
	}

	status := tracker.Status(now)
	assert.Equal(t, 100, status.TotalMeasurements)
	assert.Equal(t, 90, status.GoodMeasurements)
	assert.InDelta(t, 0.9, status.CurrentRatio, 0.01)
	assert.True(t, status.BudgetExhausted)
}

func TestSloTrackerHealthyWhenWithinTarget(t *testing.T) {
	slo := enterprise.Slo{Name: "run-success-rate", TargetRatio: 0.95, WindowSeconds: 3600}
	tracker := enterprise.NewSloTracker(slo)
	now := time.Now()

	for i := 0; i < 99; i++ {
		tracker.Record(enterprise.SliMeasurement{Timestamp: now.Add(-time.Duration(3600-i) * time.Second), Good: true})
	}
	tracker.Record(enterprise.SliMeasurement{Timestamp: now.Add(-1 * time.Second), Good: false})

	status := tracker.Status(now)
	assert.False(t, status.BudgetExhausted)
	assert.Greater(t, status.ErrorBudgetRemaining, 0.0)
}

func TestSloEmptyWindowReturnsHealthy(t *testing.T) {
	slo := enterprise.Slo{Name: "test", TargetRatio: 0.99, WindowSeconds: 3600}
	tracker := enterprise.NewSloTracker(slo)
	status := tracker.Status(time.Now())
	assert.False(t, status.BudgetExhausted)
	assert.Equal(t, 0, status.TotalMeasurements)
}

func TestCostTrackerEnforcesBudgetLimit(t *testing.T) {
	budget := enterprise.CostBudget{Name: "monthly-compute", Limit: 100.0, Period: "monthly"}
	tracker := enterprise.NewCostTracker(budget)

	exceeded := tracker.Charge(enterprise.CostCharge{Timestamp: time.Now(), Amount: 60.0, Category: "compute", Description: "GPU hours"})
	assert.False(t, exceeded)
	assert.False(t, tracker.IsExceeded())
	assert.InDelta(t, 40.0, tracker.Remaining(), 0.01)

	exceeded = tracker.Charge(enterprise.CostCharge{Timestamp: time.Now(), Amount: 50.0, Category: "storage", Description: "Artifact storage"})
	assert.True(t, exceeded)
	assert.True(t, tracker.IsExceeded())
	assert.InDelta(t, 0.0, tracker.Remaining(), 0.01)
}

func TestCostTrackerReportsByCategory(t *testing.T) {
	budget := enterprise.CostBudget{Name: "test", Limit: 1000.0, Period: "monthly"}
	tracker := enterprise.NewCostTracker(budget)

	tracker.Charge(enterprise.CostCharge{Timestamp: time.Now(), Amount: 50.0, Category: "compute", Description: "run-1"})
	tracker.Charge(enterprise.CostCharge{Timestamp: time.Now(), Amount: 30.0, Category: "compute", Description: "run-2"})
	tracker.Charge(enterprise.CostCharge{Timestamp: time.Now(), Amount: 20.0, Category: "storage", Description: "artifacts"})

	breakdown := tracker.ByCategory()
	assert.InDelta(t, 80.0, breakdown["compute"], 0.01)
	assert.InDelta(t, 20.0, breakdown["storage"], 0.01)
}
