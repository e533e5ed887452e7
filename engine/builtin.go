package engine

import (
	"context"

	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/errtax"
	"github.com/branchrun/agentry/spec"
)

// AbortToolName is the reserved tool name an Agent Specification may
// include in its Uses list to let the model voluntarily fail its own node
// with a structured message (spec.md §4.5's reserved abort tool). The
// provider loop distinguishes the resulting errtax.AgentAbortError from an
// ordinary tool failure: it unwinds the whole agent loop rather than being
// reported back to the model as a failed tool call.
const AbortToolName = "abort"

// AbortTool constructs the reserved abort tool specification. Callers that
// want their agent to be able to self-abort add it to that Agent
// Specification's Uses list and register it alongside the rest of the
// tree.
func AbortTool() *spec.CodeSpec {
	s, err := spec.NewCodeSpec(AbortToolName, "abort the current agent with a message",
		argschema.Schema{
			{Name: "message", Type: argschema.Text},
		},
		func(ctx context.Context, args argschema.Bundle) (any, error) {
			return nil, &errtax.AgentAbortError{Message: args["message"].Text}
		},
	)
	if err != nil {
		panic("engine: built-in abort tool failed its own schema validation: " + err.Error())
	}
	return s
}
