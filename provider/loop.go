package provider

import (
	"context"
	"sync"

	"github.com/branchrun/agentry/cancel"
	"github.com/branchrun/agentry/errtax"
	"github.com/branchrun/agentry/model"
	"github.com/branchrun/agentry/spec"
	"github.com/branchrun/agentry/transcript"
)

// DefaultMaxCycles is the tool-loop cycle cap spec.md §4.5 imposes absent an
// override.
const DefaultMaxCycles = 64

// Adapter is a named model.Client: the provider tag identifies which
// concrete SDK (Anthropic, OpenAI, ...) backs the call, for error
// attribution in errtax.ModelProviderError.
type Adapter interface {
	model.Client
	Name() string
}

// ToolOutcome is the result of dispatching one tool-use request.
type ToolOutcome struct {
	Output  string
	IsError bool
}

// ToolInvoker dispatches a single tool call by name to a freshly spawned
// child node and reports its outcome. A non-nil error aborts the entire
// loop (used for errtax.AgentAbortError and errtax.CancellationError, which
// are not recoverable tool failures); anything else is recorded as a
// failed ToolOutcome and fed back to the model on the next cycle.
type ToolInvoker func(ctx context.Context, toolUseID, toolName string, args map[string]any) (ToolOutcome, error)

// Config parameterizes one agent loop run.
type Config struct {
	NodeID          uint64
	Adapter         Adapter
	AgentSpec       *spec.AgentSpec
	SystemPrompt    string
	UserPrompt      string
	Ledger          *transcript.Ledger
	Cancel          *cancel.Token
	Invoke          ToolInvoker
	MaxCycles       int
	ReasoningBudget int
	MaxTokens       int
}

// Result is the outcome of a completed agent loop.
type Result struct {
	FinalText string
	Usage     model.TokenUsage
}

// Run drives cfg.Adapter through successive tool-call cycles until the
// model responds with plain text, a tool raises errtax.AgentAbortError, the
// cancellation token fires, or the cycle cap is reached (spec.md §4.5).
func Run(ctx context.Context, cfg Config) (*Result, error) {
	maxCycles := cfg.MaxCycles
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}

	toolDefs := ToolDefinitionsFromSpecs(cfg.AgentSpec.Uses())

	cfg.Ledger.Append(transcript.UserText{Text: cfg.UserPrompt})
	messages := []model.Message{
		{Role: model.RoleUser, Parts: []model.Part{model.TextPart{Text: cfg.UserPrompt}}},
	}

	var usage model.TokenUsage

	for cycle := 0; cycle < maxCycles; cycle++ {
		if cfg.Cancel != nil && cfg.Cancel.Requested() {
			return nil, &errtax.CancellationError{NodeID: cfg.NodeID}
		}

		req := &model.Request{
			SystemPrompt:    cfg.SystemPrompt,
			Messages:        messages,
			Tools:           toolDefs,
			ReasoningBudget: cfg.ReasoningBudget,
			MaxTokens:       cfg.MaxTokens,
		}

		resp, err := cfg.Adapter.Complete(ctx, req)
		if err != nil {
			return nil, &errtax.ModelProviderError{
				Provider:  cfg.Adapter.Name(),
				AgentSpec: cfg.AgentSpec.Name(),
				Cause:     err,
			}
		}

		usage.InputTotal += resp.Usage.InputTotal
		usage.InputRegular += resp.Usage.InputRegular
		usage.InputCacheRead += resp.Usage.InputCacheRead
		usage.OutputTotal += resp.Usage.OutputTotal
		usage.OutputText += resp.Usage.OutputText
		usage.OutputReasoning += resp.Usage.OutputReasoning

		for _, r := range resp.Reasoning {
			cfg.Ledger.Append(transcript.ReasoningBlock{
				Content:   r.Text,
				Redacted:  len(r.Redacted) > 0,
				Signature: r.Signature,
			})
		}

		messages = append(messages, resp.AssistantMessage)

		if len(resp.ToolCalls) == 0 {
			cfg.Ledger.Append(transcript.ModelText{Text: resp.Text})
			return &Result{FinalText: resp.Text, Usage: usage}, nil
		}

		for _, tc := range resp.ToolCalls {
			args, _ := tc.Input.(map[string]any)
			cfg.Ledger.Append(transcript.ToolUse{
				ToolUseID: tc.ID,
				ToolName:  tc.Name,
				Args:      args,
			})
		}

		// Dispatch every call in the batch concurrently and let each run to
		// completion regardless of its siblings' outcome: an unknown tool
		// name or any other dispatch failure is just a failed ToolOutcome
		// (cfg.Invoke already maps it to one), but errtax.AgentAbortError and
		// errtax.CancellationError abort the whole loop. Even then, every
		// other call's result must still be recorded before the abort is
		// surfaced (spec.md §4.5 step 7), so no single context is canceled
		// on the first error the way errgroup.WithContext would.
		outcomes := make([]ToolOutcome, len(resp.ToolCalls))
		abortErrs := make([]error, len(resp.ToolCalls))
		var wg sync.WaitGroup
		for i, tc := range resp.ToolCalls {
			i, tc := i, tc
			wg.Add(1)
			go func() {
				defer wg.Done()
				args, _ := tc.Input.(map[string]any)
				outcome, err := cfg.Invoke(ctx, tc.ID, tc.Name, args)
				if err != nil {
					abortErrs[i] = err
					return
				}
				outcomes[i] = outcome
			}()
		}
		wg.Wait()

		// Last abort/cancellation error in request order wins, mirroring the
		// original's unconditional overwrite of pending_agent_ex.
		var abortErr error
		for _, err := range abortErrs {
			if err != nil {
				abortErr = err
			}
		}

		resultParts := make([]model.Part, 0, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			if abortErrs[i] != nil {
				continue
			}
			outcome := outcomes[i]
			cfg.Ledger.Append(transcript.ToolResult{
				ToolUseID: tc.ID,
				ToolName:  tc.Name,
				Output:    outcome.Output,
				IsError:   outcome.IsError,
			})
			resultParts = append(resultParts, model.ToolResultPart{
				ToolUseID: tc.ID,
				Content:   outcome.Output,
				IsError:   outcome.IsError,
			})
		}

		if abortErr != nil {
			return nil, abortErr
		}

		messages = append(messages, model.Message{Role: model.RoleUser, Parts: resultParts})
	}

	return nil, &errtax.ToolLoopExhaustedError{MaxCycles: maxCycles}
}
