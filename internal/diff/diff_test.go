package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/aivcs/internal/diff"
	"github.com/R3E-Network/aivcs/internal/ledger"
)

func toolEvent(seq uint64, toolName string, extra map[string]interface{}) ledger.RunEvent {
	payload := map[string]interface{}{"tool_name": toolName}
	for k, v := range extra {
		payload[k] = v
	}
	return ledger.RunEvent{Seq: seq, Kind: ledger.KindToolCalled, Payload: payload}
}

func TestDiffToolCallsIdenticalRunsNoDiff(t *testing.T) {
	eventsA := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "fetch", nil)}
	eventsB := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "fetch", nil)}

	summary := diff.DiffToolCalls("run_a", eventsA, "run_b", eventsB)
	assert.True(t, summary.Identical)
	assert.Empty(t, summary.Changes)
}

func TestDiffToolCallsToolAdded(t *testing.T) {
	eventsA := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "fetch", nil)}
	eventsB := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "translate", nil), toolEvent(3, "fetch", nil)}

	summary := diff.DiffToolCalls("run_a", eventsA, "run_b", eventsB)
	require.False(t, summary.Identical)
	require.Len(t, summary.Changes, 1)

	added, ok := summary.Changes[0].(diff.Added)
	require.True(t, ok)
	assert.Equal(t, "translate", added.Entry.ToolName)
}

func TestDiffToolCallsToolRemoved(t *testing.T) {
	eventsA := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "translate", nil), toolEvent(3, "fetch", nil)}
	eventsB := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "fetch", nil)}

	summary := diff.DiffToolCalls("run_a", eventsA, "run_b", eventsB)
	require.False(t, summary.Identical)
	require.Len(t, summary.Changes, 1)

	removed, ok := summary.Changes[0].(diff.Removed)
	require.True(t, ok)
	assert.Equal(t, "translate", removed.Entry.ToolName)
}

func TestDiffToolCallsParamDelta(t *testing.T) {
	eventsA := []ledger.RunEvent{toolEvent(1, "search", map[string]interface{}{"query": "cats"})}
	eventsB := []ledger.RunEvent{toolEvent(1, "search", map[string]interface{}{"query": "dogs"})}

	summary := diff.DiffToolCalls("run_a", eventsA, "run_b", eventsB)
	require.False(t, summary.Identical)
	require.Len(t, summary.Changes, 1)

	delta, ok := summary.Changes[0].(diff.ParamDelta)
	require.True(t, ok)
	assert.Equal(t, "search", delta.ToolName)
	require.Len(t, delta.Changes, 1)
	assert.Equal(t, "/query", delta.Changes[0].Pointer)
	assert.Equal(t, "cats", delta.Changes[0].ValueA)
	assert.Equal(t, "dogs", delta.Changes[0].ValueB)
}

func TestDiffToolCallsSymmetryProperty(t *testing.T) {
	eventsA := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "fetch", nil)}
	eventsB := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "translate", nil), toolEvent(3, "fetch", nil)}

	diffAB := diff.DiffToolCalls("run_a", eventsA, "run_b", eventsB)
	diffBA := diff.DiffToolCalls("run_b", eventsB, "run_a", eventsA)

	_, isAdded := diffAB.Changes[0].(diff.Added)
	assert.True(t, isAdded)

	_, isRemoved := diffBA.Changes[0].(diff.Removed)
	assert.True(t, isRemoved)
}

func TestDiffToolCallsEmptyVsNonEmpty(t *testing.T) {
	eventsB := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "fetch", nil)}

	summary := diff.DiffToolCalls("run_a", nil, "run_b", eventsB)
	require.False(t, summary.Identical)
	require.Len(t, summary.Changes, 2)
	for _, change := range summary.Changes {
		_, ok := change.(diff.Added)
		assert.True(t, ok)
	}
}

func TestDiffToolCallsReorderedDetected(t *testing.T) {
	eventsA := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "fetch", nil), toolEvent(3, "translate", nil)}
	eventsB := []ledger.RunEvent{toolEvent(1, "search", nil), toolEvent(2, "translate", nil), toolEvent(3, "fetch", nil)}

	summary := diff.DiffToolCalls("run_a", eventsA, "run_b", eventsB)
	require.False(t, summary.Identical)

	var sawReordered bool
	for _, change := range summary.Changes {
		if reordered, ok := change.(diff.Reordered); ok {
			sawReordered = true
			assert.Contains(t, []string{"fetch", "translate"}, reordered.ToolName)
		}
	}
	assert.True(t, sawReordered)
}

func TestDiffToolCallsMissingToolNameGetsDistinctSyntheticID(t *testing.T) {
	eventsA := []ledger.RunEvent{
		{Seq: 1, Kind: ledger.KindToolCalled, Payload: map[string]interface{}{}},
		{Seq: 2, Kind: ledger.KindToolCalled, Payload: map[string]interface{}{}},
	}
	eventsB := []ledger.RunEvent{}

	summary := diff.DiffToolCalls("run_a", eventsA, "run_b", eventsB)
	require.Len(t, summary.Changes, 2)

	names := make(map[string]struct{})
	for _, change := range summary.Changes {
		removed, ok := change.(diff.Removed)
		require.True(t, ok)
		names[removed.Entry.ToolName] = struct{}{}
	}
	assert.Len(t, names, 2)
	assert.Contains(t, names, "unknown#1")
	assert.Contains(t, names, "unknown#2")
}

func TestResolvePointerReturnsLeafValue(t *testing.T) {
	payload := map[string]interface{}{"query": "cats", "context": []interface{}{"a", "b"}}
	value, err := diff.ResolvePointer(payload, "/query")
	require.NoError(t, err)
	assert.Equal(t, "cats", value)
}
