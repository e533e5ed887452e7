package engine

import (
	"context"
	"fmt"

	"github.com/branchrun/agentry/errtax"
	"github.com/branchrun/agentry/node"
	"github.com/branchrun/agentry/provider"
	"github.com/branchrun/agentry/spec"
)

// runAgent drives n's Agent Specification through the provider-agnostic
// tool loop (spec.md §4.5), dispatching each tool-use request as a freshly
// invoked child node of n.
func (e *Engine) runAgent(ctx context.Context, n *node.Node, s *spec.AgentSpec) (any, error) {
	adapter, err := e.adapterFor(s.DefaultProvider())
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", s.Name(), err)
	}

	userPrompt, err := spec.RenderUserPrompt(s.Name(), s.UserPromptTemplate(), n.Inputs.Plain())
	if err != nil {
		return nil, err
	}

	rc := &RunContext{ctx: ctx, engine: e, self: n}

	result, err := provider.Run(ctx, provider.Config{
		NodeID:       n.ID,
		Adapter:      adapter,
		AgentSpec:    s,
		SystemPrompt: s.SystemPrompt(),
		UserPrompt:   userPrompt,
		Ledger:       n.Transcript,
		Cancel:       n.CancelToken,
		Invoke: func(ctx context.Context, toolUseID, toolName string, args map[string]any) (provider.ToolOutcome, error) {
			out, err := rc.Invoke(ctx, toolName, args)
			if err != nil {
				if errtax.IsAbort(err) || errtax.IsCancellation(err) {
					return provider.ToolOutcome{}, err
				}
				return provider.ToolOutcome{Output: err.Error(), IsError: true}, nil
			}
			return provider.ToolOutcome{Output: fmt.Sprint(out), IsError: false}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	usage := result.Usage
	e.mu.Lock()
	n.TokenUsage = &usage
	e.mu.Unlock()

	return result.FinalText, nil
}
