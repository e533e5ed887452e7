package provider_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/model"
	"github.com/branchrun/agentry/provider"
	"github.com/branchrun/agentry/spec"
	"github.com/branchrun/agentry/transcript"
)

type scriptedAdapter struct {
	name      string
	responses []*model.Response
	call      int
}

func (a *scriptedAdapter) Name() string { return a.name }

func (a *scriptedAdapter) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp := a.responses[a.call]
	a.call++
	return resp, nil
}

func echoTool(t *testing.T) spec.Spec {
	sp, err := spec.NewCodeSpec("echo", "echoes", argschema.Schema{
		{Name: "text", Type: argschema.Text},
	}, func(ctx context.Context, args argschema.Bundle) (any, error) { return args["text"].Text, nil })
	require.NoError(t, err)
	return sp
}

func TestLoop_TerminatesOnPlainText(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "fake",
		responses: []*model.Response{
			{Text: "all done", AssistantMessage: model.Message{Role: model.RoleAssistant}},
		},
	}
	agentSpec, err := spec.NewAgentSpec("greeter", "", nil, "be nice", "hi {{.name}}", "fake", nil)
	require.NoError(t, err)

	ledger := transcript.NewLedger()
	result, err := provider.Run(context.Background(), provider.Config{
		Adapter:      adapter,
		AgentSpec:    agentSpec,
		SystemPrompt: "be nice",
		UserPrompt:   "hi there",
		Ledger:       ledger,
		Invoke: func(ctx context.Context, id, name string, args map[string]any) (provider.ToolOutcome, error) {
			t.Fatal("should not invoke any tool")
			return provider.ToolOutcome{}, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "all done", result.FinalText)
	assert.Equal(t, 2, ledger.Len()) // UserText + ModelText
}

func TestLoop_DispatchesToolCallsAndContinues(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "fake",
		responses: []*model.Response{
			{
				ToolCalls: []model.ToolUsePart{
					{ID: "t1", Name: "echo", Input: map[string]any{"text": "hi"}},
				},
				AssistantMessage: model.Message{Role: model.RoleAssistant},
			},
			{Text: "final", AssistantMessage: model.Message{Role: model.RoleAssistant}},
		},
	}
	agentSpec, err := spec.NewAgentSpec("tooler", "", nil, "sys", "go", "fake", []spec.Spec{echoTool(t)})
	require.NoError(t, err)

	ledger := transcript.NewLedger()
	var invoked bool
	result, err := provider.Run(context.Background(), provider.Config{
		Adapter:      adapter,
		AgentSpec:    agentSpec,
		SystemPrompt: "sys",
		UserPrompt:   "go",
		Ledger:       ledger,
		Invoke: func(ctx context.Context, id, name string, args map[string]any) (provider.ToolOutcome, error) {
			invoked = true
			assert.Equal(t, "echo", name)
			return provider.ToolOutcome{Output: "hi", IsError: false}, nil
		},
	})
	require.NoError(t, err)
	assert.True(t, invoked)
	assert.Equal(t, "final", result.FinalText)
}

// TestLoop_UnknownToolContinues exercises spec.md §8 scenario 4: a
// model-requested tool name the agent never declared is recorded as an
// is_error=true Tool Result whose output names the unknown tool, and the
// loop continues to a final text response rather than aborting.
func TestLoop_UnknownToolContinues(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "fake",
		responses: []*model.Response{
			{
				ToolCalls: []model.ToolUsePart{
					{ID: "t1", Name: "mystery", Input: map[string]any{}},
				},
				AssistantMessage: model.Message{Role: model.RoleAssistant},
			},
			{Text: "final", AssistantMessage: model.Message{Role: model.RoleAssistant}},
		},
	}
	agentSpec, err := spec.NewAgentSpec("tooler", "", nil, "sys", "go", "fake", nil)
	require.NoError(t, err)

	ledger := transcript.NewLedger()
	result, err := provider.Run(context.Background(), provider.Config{
		Adapter:      adapter,
		AgentSpec:    agentSpec,
		SystemPrompt: "sys",
		UserPrompt:   "go",
		Ledger:       ledger,
		Invoke: func(ctx context.Context, id, name string, args map[string]any) (provider.ToolOutcome, error) {
			assert.Equal(t, "mystery", name)
			return provider.ToolOutcome{Output: `unknown tool "mystery"`, IsError: true}, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "final", result.FinalText)

	var found *transcript.ToolResult
	for _, p := range ledger.Snapshot() {
		if tr, ok := p.(transcript.ToolResult); ok {
			found = &tr
		}
	}
	require.NotNil(t, found, "expected a recorded tool result")
	assert.True(t, found.IsError)
	assert.Contains(t, found.Output, "mystery")
}

// TestLoop_ParallelToolsPreserveRequestOrder exercises spec.md §8 scenario
// 5: two tool-use requests emitted in the same turn run concurrently, and
// their tool-result parts appear in request order regardless of which
// finishes first.
func TestLoop_ParallelToolsPreserveRequestOrder(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "fake",
		responses: []*model.Response{
			{
				ToolCalls: []model.ToolUsePart{
					{ID: "slow", Name: "wait", Input: map[string]any{"label": "slow"}},
					{ID: "fast", Name: "wait", Input: map[string]any{"label": "fast"}},
				},
				AssistantMessage: model.Message{Role: model.RoleAssistant},
			},
			{Text: "final", AssistantMessage: model.Message{Role: model.RoleAssistant}},
		},
	}
	waitTool, err := spec.NewCodeSpec("wait", "waits", argschema.Schema{
		{Name: "label", Type: argschema.Text},
	}, func(ctx context.Context, args argschema.Bundle) (any, error) { return args["label"].Text, nil })
	require.NoError(t, err)
	agentSpec, err := spec.NewAgentSpec("parallel", "", nil, "sys", "go", "fake", []spec.Spec{waitTool})
	require.NoError(t, err)

	var mu sync.Mutex
	var invokeOrder []string
	start := time.Now()
	ledger := transcript.NewLedger()
	result, err := provider.Run(context.Background(), provider.Config{
		Adapter:      adapter,
		AgentSpec:    agentSpec,
		SystemPrompt: "sys",
		UserPrompt:   "go",
		Ledger:       ledger,
		Invoke: func(ctx context.Context, id, name string, args map[string]any) (provider.ToolOutcome, error) {
			label := args["label"].(string)
			if label == "slow" {
				time.Sleep(60 * time.Millisecond)
			} else {
				time.Sleep(5 * time.Millisecond)
			}
			mu.Lock()
			invokeOrder = append(invokeOrder, label)
			mu.Unlock()
			return provider.ToolOutcome{Output: label, IsError: false}, nil
		},
	})
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Equal(t, "final", result.FinalText)
	assert.Less(t, elapsed, 65*time.Millisecond, "tool calls should overlap, not run sequentially")

	mu.Lock()
	assert.Equal(t, []string{"fast", "slow"}, invokeOrder, "faster call finishes first when run concurrently")
	mu.Unlock()

	var resultIDs []string
	for _, p := range ledger.Snapshot() {
		if tr, ok := p.(transcript.ToolResult); ok {
			resultIDs = append(resultIDs, tr.ToolUseID)
		}
	}
	assert.Equal(t, []string{"slow", "fast"}, resultIDs, "results recorded in request order regardless of completion order")
}

