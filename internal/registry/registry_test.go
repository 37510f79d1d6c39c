package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/registry"
)

func TestRollbackIsAppendOnly(t *testing.T) {
	reg := registry.NewMemRegistry()
	ctx := context.Background()

	a, err := reg.Promote(ctx, "svc", "digest-A", registry.ReleaseMetadata{PromotedBy: "ci"})
	require.NoError(t, err)
	_, err = reg.Promote(ctx, "svc", "digest-B", registry.ReleaseMetadata{PromotedBy: "ci"})
	require.NoError(t, err)

	rolledBack, err := reg.Rollback(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, a.SpecDigest, rolledBack.SpecDigest)

	current, err := reg.Current(ctx, "svc")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "digest-A", current.SpecDigest)

	history, err := reg.History(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "digest-A", history[0].SpecDigest) // A' (re-appended)
	assert.Equal(t, "digest-B", history[1].SpecDigest)
	assert.Equal(t, "digest-A", history[2].SpecDigest) // original A
}

func TestRollbackWithNoHistoryReturnsReleaseNotFound(t *testing.T) {
	reg := registry.NewMemRegistry()
	_, err := reg.Rollback(context.Background(), "unknown")
	require.Error(t, err)
	assert.True(t, aerr.Is(err, aerr.ErrCodeReleaseNotFound))
}

func TestRollbackWithSingleRecordReturnsNoPreviousRelease(t *testing.T) {
	reg := registry.NewMemRegistry()
	ctx := context.Background()
	_, err := reg.Promote(ctx, "svc", "digest-A", registry.ReleaseMetadata{PromotedBy: "ci"})
	require.NoError(t, err)

	_, err = reg.Rollback(ctx, "svc")
	require.Error(t, err)
	assert.True(t, aerr.Is(err, aerr.ErrCodeNoPreviousRelease))
}

func TestCurrentOnUnknownNameReturnsNil(t *testing.T) {
	reg := registry.NewMemRegistry()
	current, err := reg.Current(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, current)
}
