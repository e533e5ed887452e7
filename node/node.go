// Package node implements the runtime instance of a Function Specification
// (spec.md §3): the Node itself, its immutable NodeView snapshots, and the
// per-node Observable that the runtime publishes updates through.
//
// Node and Observable are data-only: they carry the fields spec.md §3
// prescribes plus the synchronization primitives required to publish and
// watch them, but all mutation is performed by the owning engine under its
// single global mutex (spec.md §4.4) — this package does not itself decide
// when a mutation is legal.
package node

import (
	"sync"

	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/cancel"
	"github.com/branchrun/agentry/model"
	"github.com/branchrun/agentry/session"
	"github.com/branchrun/agentry/spec"
	"github.com/branchrun/agentry/transcript"
)

// State is a Node's lifecycle state. Transitions are monotonic:
// Waiting -> Running -> {Success | Error | Canceled}; terminal states are
// absorbing (spec.md §3).
type State int

const (
	Waiting State = iota
	Running
	Success
	Error
	Canceled
)

// Terminal reports whether s is one of the absorbing terminal states.
func (s State) Terminal() bool {
	return s == Success || s == Error || s == Canceled
}

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Success:
		return "success"
	case Error:
		return "error"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Node is the runtime instance of a Function Specification (spec.md §3).
// Exclusive ownership of State, Outputs, Exception, and Children belongs to
// the engine's global mutex; the Transcript is owned by the node's own
// worker goroutine.
type Node struct {
	ID     uint64
	RunID  string // set only on top-level nodes; empty on children
	Spec   spec.Spec
	Inputs argschema.Bundle

	Parent   *Node
	Children []*Node

	State     State
	Outputs   any
	Exception error

	Transcript  *transcript.Ledger
	SessionBag  *session.Bag
	CancelToken *cancel.Token
	TokenUsage  *model.TokenUsage

	Done chan struct{} // closed exactly once, when State becomes terminal

	obs Observable
}

// New constructs a Node in the Waiting state, wiring its observable to the
// engine-owned mutex mu so condition-variable broadcasts and the global
// publish/watch protocol share a single lock (spec.md §4.4).
func New(id uint64, sp spec.Spec, inputs argschema.Bundle, parent *Node, mu *sync.Mutex, ct *cancel.Token) *Node {
	n := &Node{
		ID:          id,
		Spec:        sp,
		Inputs:      inputs,
		Parent:      parent,
		State:       Waiting,
		Transcript:  transcript.NewLedger(),
		SessionBag:  session.NewBag(),
		CancelToken: ct,
		Done:        make(chan struct{}),
	}
	n.obs.cond = sync.NewCond(mu)
	return n
}

// Observable exposes the node's observable for the engine's publish/watch
// implementation (package node only constructs and stores it; package
// engine is responsible for mutating and reading it under the shared lock).
func (n *Node) Observable() *Observable { return &n.obs }

// Root walks up to the top-level ancestor of n.
func (n *Node) Root() *Node {
	cur := n
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}
