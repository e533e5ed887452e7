package node

import (
	"sync"

	"github.com/branchrun/agentry/model"
	"github.com/branchrun/agentry/transcript"
)

// View is an immutable snapshot of a Node at a point in logical time,
// identified by Seq (spec.md §4.4). Observers never see a View mutate out
// from under them; a new View replaces the old one wholesale.
type View struct {
	NodeID     uint64
	RunID      string // non-empty only for a top-level node's own view
	Seq        uint64
	State      State
	Outputs    any
	Exception  error
	Transcript []transcript.Part
	ChildIDs   []uint64
	// TokenUsage is nil for Code nodes and for an Agent node whose loop has
	// not yet returned; it is set to the loop's accumulated usage when the
	// loop ends with a final text (spec.md §3, §6), and stays nil when the
	// loop ends in an error.
	TokenUsage *model.TokenUsage
}

// Observable is the per-node publish/watch primitive (spec.md §4.4): a
// condition variable guarding the node's current View, plus the sequence
// number at which it was last touched. The guarding mutex (cond.L) is the
// engine's single global mutex, so a broadcast on any node's Observable is
// made under the same lock that protects the whole tree.
type Observable struct {
	cond *sync.Cond
	view View
}

// Publish installs v as the current view and wakes any goroutine blocked in
// Watch. Callers must hold the engine's global mutex (cond.L) already.
func (o *Observable) Publish(v View) {
	o.view = v
	o.cond.Broadcast()
}

// Snapshot returns the current view. Callers must hold the engine's global
// mutex.
func (o *Observable) Snapshot() View {
	return o.view
}

// Watch blocks until the observable's view has a Seq strictly greater than
// asOf, then returns it. Callers must hold the engine's global mutex; Watch
// releases and reacquires it internally while waiting, per sync.Cond's
// contract.
func (o *Observable) Watch(asOf uint64) View {
	for o.view.Seq <= asOf {
		o.cond.Wait()
	}
	return o.view
}
