// Package transcript implements the Transcript Part model (spec.md §3): an
// ordered, append-only sequence of parts owned by one node. Readers take
// immutable snapshots; once published, a part is never mutated or removed
// (spec.md §8, transcript append-only invariant).
package transcript

import "sync"

// Part is one of the five transcript part kinds spec.md §3 names.
type Part interface{ isPart() }

type (
	// UserText is the initial prompt after template substitution.
	UserText struct{ Text string }

	// ModelText is the final assistant message that terminated an agent
	// turn without further tool use.
	ModelText struct{ Text string }

	// ReasoningBlock preserves a provider's chain-of-thought linkage across
	// tool cycles. Content may be empty when the backend hides reasoning
	// text; Signature, when present, is always kept.
	ReasoningBlock struct {
		Content   string
		Redacted  bool
		Signature string
	}

	// ToolUse records a tool invocation before its child node is spawned.
	ToolUse struct {
		ToolUseID string
		ToolName  string
		Args      map[string]any
	}

	// ToolResult records a completed tool invocation's outcome, correlated
	// to a prior ToolUse by ToolUseID.
	ToolResult struct {
		ToolUseID string
		ToolName  string
		Output    string
		IsError   bool
	}
)

func (UserText) isPart()       {}
func (ModelText) isPart()      {}
func (ReasoningBlock) isPart() {}
func (ToolUse) isPart()        {}
func (ToolResult) isPart()     {}

// Ledger is the append-only transcript owned by a single node's worker
// (spec.md §5: "the transcript is owned by the node's worker"), which is the
// only goroutine that appends to it. Snapshot and Len are safe to call from
// any goroutine concurrently with Append, since access is guarded by an
// internal mutex and the transcript only ever grows.
type Ledger struct {
	mu    sync.Mutex
	parts []Part
}

// NewLedger returns an empty transcript.
func NewLedger() *Ledger { return &Ledger{} }

// Append adds a part to the end of the transcript.
func (l *Ledger) Append(p Part) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.parts = append(l.parts, p)
}

// Snapshot returns an immutable copy of the transcript's parts in order.
func (l *Ledger) Snapshot() []Part {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.parts) == 0 {
		return nil
	}
	out := make([]Part, len(l.parts))
	copy(out, l.parts)
	return out
}

// Len reports the number of parts currently appended.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.parts)
}
