// Package diff implements the tool-call diff engine (§4.12): LCS alignment
// of two runs' tool-call sequences, plus RFC-6901-style JSON pointer diffing
// of aligned call payloads.
package diff

import (
	"fmt"

	"github.com/R3E-Network/aivcs/internal/ledger"
)

// ToolCallEntry is a single tool call extracted from a run's events.
type ToolCallEntry struct {
	Seq      uint64
	ToolName string
	Payload  map[string]interface{}
}

// ParamChange is a single differing leaf value between two payloads,
// addressed by an RFC-6901 JSON pointer path.
type ParamChange struct {
	Pointer string
	ValueA  interface{}
	ValueB  interface{}
}

// ToolCallChange is a tagged union of the four kinds of diff entries.
type ToolCallChange interface {
	changeKind() string
}

// Added is a tool call present in B but not aligned in A.
type Added struct{ Entry ToolCallEntry }

func (Added) changeKind() string { return "added" }

// Removed is a tool call present in A but not aligned in B.
type Removed struct{ Entry ToolCallEntry }

func (Removed) changeKind() string { return "removed" }

// Reordered is a tool call aligned in both sequences whose relative
// position flipped between A and B.
type Reordered struct {
	ToolName string
	SeqA     uint64
	SeqB     uint64
}

func (Reordered) changeKind() string { return "reordered" }

// ParamDelta is a tool call aligned in both sequences at a stable relative
// position, with differing payload content.
type ParamDelta struct {
	ToolName string
	SeqA     uint64
	SeqB     uint64
	Changes  []ParamChange
}

func (ParamDelta) changeKind() string { return "param_delta" }

// DiffSummary is the full outcome of diffing two runs' tool-call sequences.
type DiffSummary struct {
	RunIDA    string
	RunIDB    string
	Changes   []ToolCallChange
	Identical bool
}

// extractToolCalls filters events to kind=="tool_called" and pulls the tool
// name out of payload["tool_name"]. Two calls both missing tool_name are
// never collapsed into a shared bucket: each gets a synthetic name keyed by
// its own seq, so LCS alignment never pairs unrelated calls just because
// both lack a name.
func extractToolCalls(events []ledger.RunEvent) []ToolCallEntry {
	var entries []ToolCallEntry
	for _, e := range events {
		if e.Kind != ledger.KindToolCalled {
			continue
		}
		name, ok := e.Payload["tool_name"].(string)
		if !ok || name == "" {
			name = fmt.Sprintf("unknown#%d", e.Seq)
		}
		entries = append(entries, ToolCallEntry{Seq: e.Seq, ToolName: name, Payload: e.Payload})
	}
	return entries
}

type alignedPair struct {
	indexA int
	indexB int
}

// lcsAlignment computes the Longest Common Subsequence of tool names
// between the two call sequences, returning matching (indexA, indexB)
// pairs in order.
func lcsAlignment(callsA, callsB []ToolCallEntry) []alignedPair {
	m, n := len(callsA), len(callsB)
	if m == 0 || n == 0 {
		return nil
	}

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if callsA[i-1].ToolName == callsB[j-1].ToolName {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i][j-1] > dp[i-1][j] {
				dp[i][j] = dp[i][j-1]
			} else {
				dp[i][j] = dp[i-1][j]
			}
		}
	}

	var alignment []alignedPair
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case callsA[i-1].ToolName == callsB[j-1].ToolName:
			alignment = append(alignment, alignedPair{i - 1, j - 1})
			i--
			j--
		case dp[i][j-1] > dp[i-1][j]:
			j--
		default:
			i--
		}
	}

	for l, r := 0, len(alignment)-1; l < r; l, r = l+1, r-1 {
		alignment[l], alignment[r] = alignment[r], alignment[l]
	}
	return alignment
}

// DiffToolCalls diffs the tool-call sequences of two runs. Added(x) in
// DiffToolCalls(A,B) corresponds to Removed(x) in DiffToolCalls(B,A).
func DiffToolCalls(runIDA string, eventsA []ledger.RunEvent, runIDB string, eventsB []ledger.RunEvent) DiffSummary {
	callsA := extractToolCalls(eventsA)
	callsB := extractToolCalls(eventsB)

	alignment := lcsAlignment(callsA, callsB)

	alignedA := make(map[int]struct{}, len(alignment))
	alignedB := make(map[int]struct{}, len(alignment))
	for _, pair := range alignment {
		alignedA[pair.indexA] = struct{}{}
		alignedB[pair.indexB] = struct{}{}
	}

	var changes []ToolCallChange

	for i, call := range callsA {
		if _, ok := alignedA[i]; !ok {
			changes = append(changes, Removed{Entry: call})
		}
	}

	for idx, pair := range alignment {
		callA := callsA[pair.indexA]
		callB := callsB[pair.indexB]

		isReordered := false
		if idx > 0 {
			prev := alignment[idx-1]
			prevCallA := callsA[prev.indexA]
			prevCallB := callsB[prev.indexB]
			isReordered = (pair.indexA > prev.indexA) != (callA.Seq > prevCallA.Seq) ||
				(pair.indexB > prev.indexB) != (callB.Seq > prevCallB.Seq)
		}

		if isReordered {
			changes = append(changes, Reordered{ToolName: callA.ToolName, SeqA: callA.Seq, SeqB: callB.Seq})
			continue
		}

		paramChanges, err := jsonDiff(callA.Payload, callB.Payload)
		if err == nil && len(paramChanges) > 0 {
			changes = append(changes, ParamDelta{ToolName: callA.ToolName, SeqA: callA.Seq, SeqB: callB.Seq, Changes: paramChanges})
		}
	}

	for i, call := range callsB {
		if _, ok := alignedB[i]; !ok {
			changes = append(changes, Added{Entry: call})
		}
	}

	return DiffSummary{
		RunIDA:    runIDA,
		RunIDB:    runIDB,
		Changes:   changes,
		Identical: len(changes) == 0,
	}
}
