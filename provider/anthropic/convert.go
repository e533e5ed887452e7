package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/branchrun/agentry/model"
)

// convertMessages translates the provider-agnostic replay conversation into
// Anthropic's MessageParam slice, mirroring the pack's
// AnthropicProvider.convertMessages content-block construction.
func convertMessages(messages []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, p := range m.Parts {
			switch part := p.(type) {
			case model.TextPart:
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			case model.ThinkingPart:
				if len(part.Redacted) > 0 {
					blocks = append(blocks, anthropic.NewRedactedThinkingBlock(string(part.Redacted)))
				} else if part.Text != "" || part.Signature != "" {
					blocks = append(blocks, anthropic.NewThinkingBlock(part.Signature, part.Text))
				}
			case model.ToolUsePart:
				blocks = append(blocks, anthropic.NewToolUseBlock(part.ID, part.Input, part.Name))
			case model.ToolResultPart:
				blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolUseID, part.Content, part.IsError))
			}
		}
		if m.Role == model.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// convertTools translates tool definitions into Anthropic's tool union
// params, mirroring the pack's AnthropicProvider.convertTools.
func convertTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := anthropic.ToolInputSchemaParam{
			Properties: d.InputSchema["properties"],
		}
		if req, ok := d.InputSchema["required"]; ok {
			schema.ExtraFields = map[string]any{"required": req}
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, d.Name)
		toolParam.OfTool.Description = anthropic.String(d.Description)
		out = append(out, toolParam)
	}
	return out
}

// convertResponse translates an Anthropic Messages.New result into the
// provider-agnostic model.Response.
func convertResponse(msg *anthropic.Message) *model.Response {
	resp := &model.Response{
		Usage: model.TokenUsage{
			InputTotal:     int(msg.Usage.InputTokens),
			InputRegular:   int(msg.Usage.InputTokens - msg.Usage.CacheReadInputTokens),
			InputCacheRead: int(msg.Usage.CacheReadInputTokens),
			OutputTotal:    int(msg.Usage.OutputTokens),
		},
	}

	var assistantParts []model.Part
	var toolCalls []model.ToolUsePart

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Text += variant.Text
			assistantParts = append(assistantParts, model.TextPart{Text: variant.Text})
		case anthropic.ThinkingBlock:
			resp.Reasoning = append(resp.Reasoning, model.ThinkingPart{
				Text:      variant.Thinking,
				Signature: variant.Signature,
			})
			assistantParts = append(assistantParts, model.ThinkingPart{
				Text:      variant.Thinking,
				Signature: variant.Signature,
			})
		case anthropic.RedactedThinkingBlock:
			resp.Reasoning = append(resp.Reasoning, model.ThinkingPart{Redacted: []byte(variant.Data)})
			assistantParts = append(assistantParts, model.ThinkingPart{Redacted: []byte(variant.Data)})
		case anthropic.ToolUseBlock:
			raw, _ := json.Marshal(variant.Input)
			var input map[string]any
			_ = json.Unmarshal(raw, &input)
			tc := model.ToolUsePart{ID: variant.ID, Name: variant.Name, Input: input}
			toolCalls = append(toolCalls, tc)
			assistantParts = append(assistantParts, tc)
		}
	}

	resp.ToolCalls = toolCalls
	resp.AssistantMessage = model.Message{Role: model.RoleAssistant, Parts: assistantParts}
	return resp
}
