package engine

import (
	"context"
	"fmt"

	"github.com/branchrun/agentry/errtax"
	"github.com/branchrun/agentry/node"
	"github.com/branchrun/agentry/session"
)

// RunContext is the per-invocation handle a running unit's callable or
// agent loop is given: it exposes spawning children (Invoke), cancellation
// polling, and scoped session-bag access (spec.md §4.6), all routed back
// through the owning Engine so every mutation passes through the single
// global mutex.
type RunContext struct {
	ctx    context.Context
	engine *Engine
	self   *node.Node
}

// Context returns the underlying context.Context, canceled when the node's
// cancellation token fires.
func (rc *RunContext) Context() context.Context { return rc.ctx }

// runContextKey is the unexported key a node's RunContext is stored under
// in its worker's context.Context (spec.md §3's Run Context: "per-node
// handle exposing invoke, cancellation, and session-bag access", available
// to Code Specification callables the same as it is to the agent loop).
type runContextKey struct{}

// withRunContext returns ctx carrying rc, retrievable with
// RunContextFromContext.
func withRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext returns the RunContext a Code Specification's
// callable is running under. Panics if ctx was not issued by the engine, as
// that indicates a caller bug rather than a recoverable condition.
func RunContextFromContext(ctx context.Context) *RunContext {
	rc, ok := ctx.Value(runContextKey{}).(*RunContext)
	if !ok {
		panic("engine: context not issued by the engine (no RunContext present)")
	}
	return rc
}

// NodeID returns the running node's id.
func (rc *RunContext) NodeID() uint64 { return rc.self.ID }

// CancelRequested reports whether cancellation has been requested on this
// node (which also holds if an ancestor requested it, since tokens are
// linked parent to child).
func (rc *RunContext) CancelRequested() bool {
	return rc.self.CancelToken != nil && rc.self.CancelToken.Requested()
}

// RequestCancel requests cancellation of this node and, transitively,
// every descendant.
func (rc *RunContext) RequestCancel() {
	if rc.self.CancelToken != nil {
		rc.self.CancelToken.Request()
	}
}

// Invoke spawns and runs a child node for specName with the given raw
// inputs, blocking until it reaches a terminal state, and returns its
// outputs or its terminal error (spec.md §4.2's invoke() operation).
func (rc *RunContext) Invoke(ctx context.Context, specName string, inputs map[string]any) (any, error) {
	return rc.engine.invokeChild(ctx, rc.self, specName, inputs)
}

// GetOrPut resolves the session bag for scope relative to this node and
// performs a single-flight get-or-put against it (spec.md §4.6).
func (rc *RunContext) GetOrPut(scope session.Scope, namespace, key string, factory func() (any, error)) (any, error) {
	bag, err := rc.engine.resolveBag(rc.self, scope)
	if err != nil {
		return nil, err
	}
	return bag.GetOrPut(namespace, key, factory)
}

// resolveBag finds the session bag scope resolves to relative to n.
func (e *Engine) resolveBag(n *node.Node, scope session.Scope) (*session.Bag, error) {
	switch scope {
	case session.Self:
		return n.SessionBag, nil
	case session.Parent:
		if n.Parent == nil {
			return nil, &errtax.NoParentSession{NodeID: n.ID}
		}
		return n.Parent.SessionBag, nil
	case session.TopLevel:
		return n.Root().SessionBag, nil
	default:
		return nil, fmt.Errorf("engine: unknown session scope %v", scope)
	}
}
