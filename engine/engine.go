// Package engine implements the Runtime: the Registry of Function
// Specifications plus the Scheduler that allocates nodes, dispatches Code
// and Agent work to worker goroutines, and publishes node state through the
// Observable layer (spec.md §4.2, §4.4). Every mutation to the node tree —
// insertion, state transition, child linkage, seqnum bump — happens under
// a single mutex owned by the Engine, so publish and watch never race.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/cancel"
	"github.com/branchrun/agentry/errtax"
	"github.com/branchrun/agentry/node"
	"github.com/branchrun/agentry/provider"
	"github.com/branchrun/agentry/spec"
	"github.com/branchrun/agentry/telemetry"
)

// Engine is the runtime: a registry of specifications, the live node tree,
// and the provider adapters available to Agent nodes.
type Engine struct {
	mu sync.Mutex

	registry *Registry
	nodes    map[uint64]*node.Node
	nextID   uint64
	seq      uint64

	adapterFactories map[string]func() (provider.Adapter, error)
	adapters         map[string]provider.Adapter // lazily constructed, cached on first use

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default no-op Logger.
func WithLogger(l telemetry.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics overrides the default no-op Metrics.
func WithMetrics(m telemetry.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithTracer overrides the default no-op Tracer.
func WithTracer(t telemetry.Tracer) Option { return func(e *Engine) { e.tracer = t } }

// WithAdapter registers a client factory under tag, the value an Agent
// Specification's DefaultProvider names to select it. factory is invoked
// the first time a node requires it, and the resulting Adapter is cached for
// every subsequent node (spec.md's client_factory design: the runtime owns
// construction, keyed by provider tag). factory runs without the engine
// mutex held, so nodes that race on first use may each invoke it; only the
// first Adapter stored is kept and returned to all of them.
func WithAdapter(tag string, factory func() (provider.Adapter, error)) Option {
	return func(e *Engine) { e.adapterFactories[tag] = factory }
}

// New constructs an Engine over reg.
func New(reg *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:         reg,
		nodes:            make(map[uint64]*node.Node),
		adapterFactories: make(map[string]func() (provider.Adapter, error)),
		adapters:         make(map[string]provider.Adapter),
		logger:           telemetry.NoopLogger{},
		metrics:          telemetry.NoopMetrics{},
		tracer:           telemetry.NoopTracer{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run invokes specName as a top-level unit and blocks until it reaches a
// terminal state, returning its outputs or its terminal error.
func (e *Engine) Run(ctx context.Context, specName string, inputs map[string]any) (any, error) {
	return e.invokeFrom(ctx, nil, specName, inputs)
}

// InvokeTopLevel starts specName as a top-level unit and returns its node
// immediately (without waiting for completion), for callers that want to
// watch or cancel it directly rather than simply block on its result.
func (e *Engine) InvokeTopLevel(ctx context.Context, specName string, inputs map[string]any) (*node.Node, error) {
	return e.start(ctx, nil, specName, inputs)
}

// invokeChild invokes specName as a child of parent.
func (e *Engine) invokeChild(ctx context.Context, parent *node.Node, specName string, inputs map[string]any) (any, error) {
	return e.invokeFrom(ctx, parent, specName, inputs)
}

func (e *Engine) invokeFrom(ctx context.Context, parent *node.Node, specName string, inputs map[string]any) (any, error) {
	n, err := e.start(ctx, parent, specName, inputs)
	if err != nil {
		return nil, err
	}
	select {
	case <-n.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if n.Exception != nil {
		return nil, n.Exception
	}
	return n.Outputs, nil
}

// start implements the invoke() operation (spec.md §4.2): look up the
// specification, validate and coerce inputs, allocate a node id, insert the
// node into the tree, bump the sequence number, publish, and start the
// node's worker.
func (e *Engine) start(ctx context.Context, parent *node.Node, specName string, inputs map[string]any) (*node.Node, error) {
	sp, ok := e.registry.Lookup(specName)
	if !ok {
		return nil, fmt.Errorf("engine: no specification registered under %q", specName)
	}
	bundle, err := argschema.ValidateAndCoerce(specName, sp.Args(), inputs)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	var ct *cancel.Token
	if parent != nil && parent.CancelToken != nil {
		ct = parent.CancelToken.NewLinkedChild()
	} else {
		ct = cancel.New()
	}
	e.nextID++
	id := e.nextID
	n := node.New(id, sp, bundle, parent, &e.mu, ct)
	if parent == nil {
		n.RunID = generateRunID(specName)
	}
	e.nodes[id] = n
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	e.seq++
	e.publishLocked(n)
	e.refreshAncestorsLocked(n)
	e.mu.Unlock()

	e.logger.Info(ctx, "node invoked", "node_id", id, "spec", specName, "run_id", n.RunID)
	e.metrics.IncCounter("agentry.node.invoked", 1, "spec", specName)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	go func() {
		<-ct.Done()
		cancelWorker()
	}()
	go e.runWorker(workerCtx, n)

	return n, nil
}

// generateRunID returns a globally unique identifier for a top-level
// invocation, prefixed with its specification name to keep it readable in
// logs, metrics, and traces without sacrificing uniqueness.
func generateRunID(specName string) string {
	prefix := strings.ReplaceAll(specName, ".", "-")
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// runWorker executes n's unit body to completion and records the outcome.
func (e *Engine) runWorker(ctx context.Context, n *node.Node) {
	e.setState(n, node.Running)

	var out any
	var err error
	switch s := n.Spec.(type) {
	case *spec.CodeSpec:
		out, err = e.runCode(ctx, n, s)
	case *spec.AgentSpec:
		out, err = e.runAgent(ctx, n, s)
	default:
		err = fmt.Errorf("engine: unsupported specification type %T", n.Spec)
	}

	e.finish(n, out, err)
}

func (e *Engine) runCode(ctx context.Context, n *node.Node, s *spec.CodeSpec) (any, error) {
	if n.CancelToken != nil && n.CancelToken.Requested() {
		return nil, &errtax.CancellationError{NodeID: n.ID}
	}
	rc := &RunContext{ctx: ctx, engine: e, self: n}
	return s.Call()(withRunContext(ctx, rc), n.Inputs)
}

// finish records n's terminal outcome, transitions its state, and closes
// Done. Exactly one of out or err determines Success vs Error/Canceled.
func (e *Engine) finish(n *node.Node, out any, err error) {
	state := node.Success
	if err != nil {
		state = node.Error
		if errtax.IsCancellation(err) {
			state = node.Canceled
		}
	}

	e.mu.Lock()
	n.Outputs = out
	n.Exception = err
	n.State = state
	e.seq++
	e.publishLocked(n)
	e.refreshAncestorsLocked(n)
	e.mu.Unlock()

	close(n.Done)

	if err != nil {
		e.logger.Error(context.Background(), "node failed", "node_id", n.ID, "error", err)
		e.metrics.IncCounter("agentry.node.failed", 1, "spec", n.Spec.Name())
	} else {
		e.logger.Info(context.Background(), "node succeeded", "node_id", n.ID)
		e.metrics.IncCounter("agentry.node.succeeded", 1, "spec", n.Spec.Name())
	}
}

// setState transitions n to state and publishes, refreshing ancestors.
func (e *Engine) setState(n *node.Node, state node.State) {
	e.mu.Lock()
	n.State = state
	e.seq++
	e.publishLocked(n)
	e.refreshAncestorsLocked(n)
	e.mu.Unlock()
}

// publishLocked installs n's current fields as a new View on its
// Observable. Callers must hold e.mu.
func (e *Engine) publishLocked(n *node.Node) {
	childIDs := make([]uint64, len(n.Children))
	for i, c := range n.Children {
		childIDs[i] = c.ID
	}
	n.Observable().Publish(node.View{
		NodeID:     n.ID,
		RunID:      n.RunID,
		Seq:        e.seq,
		State:      n.State,
		Outputs:    n.Outputs,
		Exception:  n.Exception,
		Transcript: n.Transcript.Snapshot(),
		ChildIDs:   childIDs,
		TokenUsage: n.TokenUsage,
	})
}

// refreshAncestorsLocked walks from n's parent to the root, republishing
// each ancestor's view at the current sequence number so a watcher on any
// ancestor observes that one of its descendants changed (spec.md §4.4's
// ancestor-refresh-on-publish rule). Callers must hold e.mu.
func (e *Engine) refreshAncestorsLocked(n *node.Node) {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		e.publishLocked(cur)
	}
}

// Watch blocks until node's observable view advances past asOf.
func (e *Engine) Watch(nodeID uint64, asOf uint64) (node.View, error) {
	e.mu.Lock()
	n, ok := e.nodes[nodeID]
	if !ok {
		e.mu.Unlock()
		return node.View{}, fmt.Errorf("engine: no node with id %d", nodeID)
	}
	v := n.Observable().Watch(asOf)
	e.mu.Unlock()
	return v, nil
}

// adapterFor returns the cached Adapter for tag, constructing and caching
// it via its registered factory on first use.
func (e *Engine) adapterFor(tag string) (provider.Adapter, error) {
	e.mu.Lock()
	if a, ok := e.adapters[tag]; ok {
		e.mu.Unlock()
		return a, nil
	}
	factory, ok := e.adapterFactories[tag]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("engine: no adapter factory registered for provider %q", tag)
	}

	a, err := factory()
	if err != nil {
		return nil, fmt.Errorf("engine: construct adapter for provider %q: %w", tag, err)
	}

	e.mu.Lock()
	if existing, ok := e.adapters[tag]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.adapters[tag] = a
	e.mu.Unlock()
	return a, nil
}

// RequestCancel requests cancellation of nodeID and, transitively, every
// descendant whose token is linked to it (spec.md §5's "from another
// thread, set the shared cancel token").
func (e *Engine) RequestCancel(nodeID uint64) error {
	e.mu.Lock()
	n, ok := e.nodes[nodeID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("engine: no node with id %d", nodeID)
	}
	if n.CancelToken != nil {
		n.CancelToken.Request()
	}
	return nil
}

// Snapshot returns node's current view without blocking.
func (e *Engine) Snapshot(nodeID uint64) (node.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[nodeID]
	if !ok {
		return node.View{}, fmt.Errorf("engine: no node with id %d", nodeID)
	}
	return n.Observable().Snapshot(), nil
}
