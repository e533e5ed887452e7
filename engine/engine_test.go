package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/engine"
	"github.com/branchrun/agentry/errtax"
	"github.com/branchrun/agentry/model"
	"github.com/branchrun/agentry/node"
	"github.com/branchrun/agentry/provider"
	"github.com/branchrun/agentry/spec"
)

func TestEngine_RunCodeSpec_ReturnsOutputs(t *testing.T) {
	double, err := spec.NewCodeSpec("double", "doubles an integer", argschema.Schema{
		{Name: "n", Type: argschema.Integer},
	}, func(ctx context.Context, args argschema.Bundle) (any, error) {
		return args["n"].Int * 2, nil
	})
	require.NoError(t, err)

	reg := engine.NewRegistry()
	require.NoError(t, reg.Register(double))
	eng := engine.New(reg)

	out, err := eng.Run(context.Background(), "double", map[string]any{"n": int64(21)})
	require.NoError(t, err)
	assert.EqualValues(t, 42, out)
}

func TestEngine_RunCodeSpec_PropagatesError(t *testing.T) {
	boom, err := spec.NewCodeSpec("boom", "", nil, func(ctx context.Context, args argschema.Bundle) (any, error) {
		return nil, assertError{}
	})
	require.NoError(t, err)

	reg := engine.NewRegistry()
	require.NoError(t, reg.Register(boom))
	eng := engine.New(reg)

	_, err = eng.Run(context.Background(), "boom", nil)
	require.Error(t, err)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

// fakeAdapter scripts a fixed sequence of model responses for a single
// agent loop run.
type fakeAdapter struct {
	name      string
	responses []*model.Response
	call      int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp := a.responses[a.call]
	a.call++
	return resp, nil
}

func TestEngine_AgentInvokesToolAsChildAndRefreshesAncestors(t *testing.T) {
	echo, err := spec.NewCodeSpec("echo", "echoes", argschema.Schema{
		{Name: "text", Type: argschema.Text},
	}, func(ctx context.Context, args argschema.Bundle) (any, error) {
		return args["text"].Text, nil
	})
	require.NoError(t, err)

	greeter, err := spec.NewAgentSpec("greeter", "", nil, "be nice", "say hi", "fake", []spec.Spec{echo})
	require.NoError(t, err)

	reg := engine.NewRegistry()
	require.NoError(t, reg.Register(greeter))

	adapter := &fakeAdapter{
		name: "fake",
		responses: []*model.Response{
			{
				ToolCalls: []model.ToolUsePart{
					{ID: "t1", Name: "echo", Input: map[string]any{"text": "hi"}},
				},
				AssistantMessage: model.Message{Role: model.RoleAssistant},
			},
			{Text: "done", AssistantMessage: model.Message{Role: model.RoleAssistant}},
		},
	}
	eng := engine.New(reg, engine.WithAdapter("fake", func() (provider.Adapter, error) { return adapter, nil }))

	n, err := eng.InvokeTopLevel(context.Background(), "greeter", nil)
	require.NoError(t, err)

	watch := func(asOf uint64) node.View {
		v, err := eng.Watch(n.ID, asOf)
		require.NoError(t, err)
		return v
	}

	view := watch(0)
	var lastSeq uint64
	for view.State != node.Success && view.State != node.Error {
		assert.GreaterOrEqual(t, view.Seq, lastSeq)
		lastSeq = view.Seq
		view = watch(lastSeq)
	}
	assert.Equal(t, node.Success, view.State)
	assert.Equal(t, "done", view.Outputs)
	require.Len(t, view.ChildIDs, 1)

	childView, err := eng.Snapshot(view.ChildIDs[0])
	require.NoError(t, err)
	assert.Equal(t, node.Success, childView.State)
	assert.Equal(t, "hi", childView.Outputs)
}

func TestEngine_AgentAbortToolFailsNodeWithAgentAbortError(t *testing.T) {
	abort := engine.AbortTool()
	quitter, err := spec.NewAgentSpec("quitter", "", nil, "sys", "go", "fake", []spec.Spec{abort})
	require.NoError(t, err)

	reg := engine.NewRegistry()
	require.NoError(t, reg.Register(quitter))

	adapter := &fakeAdapter{
		name: "fake",
		responses: []*model.Response{
			{
				ToolCalls: []model.ToolUsePart{
					{ID: "t1", Name: engine.AbortToolName, Input: map[string]any{"message": "giving up"}},
				},
				AssistantMessage: model.Message{Role: model.RoleAssistant},
			},
		},
	}
	eng := engine.New(reg, engine.WithAdapter("fake", func() (provider.Adapter, error) { return adapter, nil }))

	_, err = eng.Run(context.Background(), "quitter", nil)
	require.Error(t, err)

	var abortErr *errtax.AgentAbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, "giving up", abortErr.Message)
}

func TestEngine_UnregisteredSpecFails(t *testing.T) {
	reg := engine.NewRegistry()
	eng := engine.New(reg)
	_, err := eng.Run(context.Background(), "nope", nil)
	require.Error(t, err)
}

func TestEngine_DuplicateNameCollisionRejected(t *testing.T) {
	a, err := spec.NewCodeSpec("dup", "", nil, func(context.Context, argschema.Bundle) (any, error) { return nil, nil })
	require.NoError(t, err)
	b, err := spec.NewCodeSpec("dup", "", nil, func(context.Context, argschema.Bundle) (any, error) { return nil, nil })
	require.NoError(t, err)

	reg := engine.NewRegistry()
	require.NoError(t, reg.Register(a))
	err = reg.Register(b)
	require.Error(t, err)
}
