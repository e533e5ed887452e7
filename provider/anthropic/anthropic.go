// Package anthropic adapts Anthropic's Messages API to the provider.Adapter
// surface, grounded on the conversion logic in the pack's
// internal/agent/providers/anthropic.go (message/content-block translation,
// tool schema conversion) but trimmed to the non-streaming call this
// module's model.Client needs: streaming chunks, vision attachments, and
// the beta computer-use tool family are out of scope here.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/branchrun/agentry/model"
)

// Config configures a new Adapter.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// Adapter drives Anthropic's Claude models through a single non-streaming
// Messages.New call per cycle.
type Adapter struct {
	client       anthropic.Client
	defaultModel string
}

// New constructs an Adapter from cfg.
func New(cfg Config) *Adapter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &Adapter{client: anthropic.NewClient(opts...), defaultModel: model}
}

// Name identifies this adapter as the "anthropic" provider.
func (a *Adapter) Name() string { return "anthropic" }

// Complete sends req as a single Anthropic Messages.New call and translates
// the response back into the provider-agnostic model.Response.
func (a *Adapter) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.defaultModel),
		MaxTokens: int64(maxTokensOrDefault(req.MaxTokens)),
		Messages:  convertMessages(req.Messages),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}
	if req.ReasoningBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(req.ReasoningBudget))
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages.new: %w", err)
	}
	return convertResponse(msg), nil
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}
