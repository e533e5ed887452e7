// Package model defines the provider-agnostic request/response types
// exchanged between the generic agent loop (package provider) and concrete
// adapters. It is deliberately trimmed from the teacher's much larger
// runtime/agent/model package: streaming, images, documents, and citations
// are out of scope for this module (spec.md's Non-goals exclude streaming
// partial output; example tool bodies and rich multimodal content are out of
// scope per spec.md §1), leaving the four message part kinds the agent loop
// exchanges (text, thinking, tool use, tool result) plus the
// request/response envelope needed to call a model.
package model

import "context"

type (
	// Part is a marker interface implemented by every message content
	// fragment passed to a provider.
	Part interface{ isPart() }

	// TextPart is plain text content in a message.
	TextPart struct{ Text string }

	// ThinkingPart carries provider reasoning. Text may be empty when a
	// provider hides reasoning content; Signature, when present, must be
	// echoed back verbatim on the next call to preserve chain-of-thought
	// continuity.
	ThinkingPart struct {
		Text      string
		Signature string
		Redacted  []byte
	}

	// ToolUsePart declares a tool invocation requested by the assistant.
	ToolUsePart struct {
		ID    string
		Name  string
		Input any
	}

	// ToolResultPart carries a tool result to be read back by the model.
	ToolResultPart struct {
		ToolUseID string
		Content   string
		IsError   bool
	}

	// ConversationRole identifies the speaker of a Message.
	ConversationRole string

	// Message is a single turn in the replay conversation kept by a
	// provider adapter (spec.md's "replay conversation", distinct from the
	// observer-visible transcript.Ledger).
	Message struct {
		Role  ConversationRole
		Parts []Part
	}

	// ToolDefinition describes one tool exposed to the model, translated
	// from a spec.Spec's argument schema.
	ToolDefinition struct {
		Name        string
		Description string
		InputSchema map[string]any
	}

	// TokenUsage tracks token counts for a model call (spec.md §3's Token
	// Usage type).
	TokenUsage struct {
		InputTotal         int
		InputRegular       int
		InputCacheRead     int
		OutputTotal        int
		OutputText         int
		OutputReasoning    int
	}

	// Request captures the inputs to one model call.
	Request struct {
		SystemPrompt string
		Messages     []Message
		Tools        []ToolDefinition
		// ReasoningBudget requests provider-native extended thinking, in
		// tokens. Zero disables it.
		ReasoningBudget int
		MaxTokens       int
	}

	// Response is the result of one non-streaming model call.
	Response struct {
		Reasoning []ThinkingPart
		Text      string
		ToolCalls []ToolUsePart
		// AssistantMessage is the provider-native replay representation of
		// this turn's assistant message, appended verbatim to the replay
		// conversation so adapters that require chained reasoning
		// signatures keep them intact across cycles.
		AssistantMessage Message
		Usage            TokenUsage
	}

	// Client is the provider-agnostic model call surface an Adapter drives.
	Client interface {
		Complete(ctx context.Context, req *Request) (*Response, error)
	}
)

func (TextPart) isPart()       {}
func (ThinkingPart) isPart()   {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}

const (
	RoleSystem    ConversationRole = "system"
	RoleUser      ConversationRole = "user"
	RoleAssistant ConversationRole = "assistant"
)
