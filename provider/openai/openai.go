// Package openai adapts OpenAI's Chat Completions API to the
// provider.Adapter surface. Its shape — an Options struct, a constructor
// that validates required fields, a single Complete method, and separate
// encode/translate helpers — mirrors the teacher's features/model/openai
// adapter, ported from github.com/sashabaranov/go-openai to the official
// github.com/openai/openai-go SDK this module's domain stack wires in.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/branchrun/agentry/model"
)

// Config configures a new Adapter.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// Adapter implements provider.Adapter via OpenAI's Chat Completions API.
type Adapter struct {
	client       openai.Client
	defaultModel string
}

// New constructs an Adapter from cfg.
func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	modelID := strings.TrimSpace(cfg.DefaultModel)
	if modelID == "" {
		modelID = "gpt-4o"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Adapter{client: openai.NewClient(opts...), defaultModel: modelID}, nil
}

// Name identifies this adapter as the "openai" provider.
func (a *Adapter) Name() string { return "openai" }

// Complete renders req as a single OpenAI chat completion request.
func (a *Adapter) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	messages, err := encodeMessages(req)
	if err != nil {
		return nil, err
	}
	params := openai.ChatCompletionNewParams{
		Model:    a.defaultModel,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tools, err := encodeTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	return translateResponse(resp)
}

func encodeMessages(req *model.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		out = append(out, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		for _, p := range m.Parts {
			switch part := p.(type) {
			case model.TextPart:
				if m.Role == model.RoleAssistant {
					out = append(out, openai.AssistantMessage(part.Text))
				} else {
					out = append(out, openai.UserMessage(part.Text))
				}
			case model.ToolResultPart:
				out = append(out, openai.ToolMessage(part.Content, part.ToolUseID))
			case model.ToolUsePart:
				raw, err := json.Marshal(part.Input)
				if err != nil {
					return nil, fmt.Errorf("openai: marshal tool call arguments for %s: %w", part.Name, err)
				}
				out = append(out, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
							ID: part.ID,
							Function: openai.ChatCompletionMessageToolCallFunctionParam{
								Name:      part.Name,
								Arguments: string(raw),
							},
						}},
					},
				})
			}
		}
	}
	return out, nil
}

func encodeTools(defs []model.ToolDefinition) ([]openai.ChatCompletionToolParam, error) {
	tools := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  d.InputSchema,
			},
		})
	}
	return tools, nil
}

func translateResponse(resp *openai.ChatCompletion) (*model.Response, error) {
	out := &model.Response{
		Usage: model.TokenUsage{
			InputTotal:  int(resp.Usage.PromptTokens),
			OutputTotal: int(resp.Usage.CompletionTokens),
		},
	}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	choice := resp.Choices[0]
	out.Text = choice.Message.Content

	var assistantParts []model.Part
	if out.Text != "" {
		assistantParts = append(assistantParts, model.TextPart{Text: out.Text})
	}
	for _, call := range choice.Message.ToolCalls {
		var input map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			return nil, fmt.Errorf("openai: unmarshal tool call arguments for %s: %w", call.Function.Name, err)
		}
		tc := model.ToolUsePart{ID: call.ID, Name: call.Function.Name, Input: input}
		out.ToolCalls = append(out.ToolCalls, tc)
		assistantParts = append(assistantParts, tc)
	}
	out.AssistantMessage = model.Message{Role: model.RoleAssistant, Parts: assistantParts}
	return out, nil
}
