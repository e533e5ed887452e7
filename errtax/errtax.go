// Package errtax defines the error taxonomy the orchestrator surfaces to
// callers (spec.md §4.7). Every kind is a distinct pointer type matchable
// with errors.As; ModelProviderError, the one kind that carries an inner
// cause, exposes it through Unwrap so errors.Is/As reach the provider error.
package errtax

import (
	"errors"
	"fmt"
)

type (
	// ArgumentValidationError reports invalid inputs to a specification or to
	// a tool spawn. Fields describes each offending field.
	ArgumentValidationError struct {
		Spec   string
		Fields []FieldError
	}

	// FieldError describes one offending argument field.
	FieldError struct {
		Name    string
		Message string
	}

	// UnknownToolError reports a model-requested tool name not present in an
	// agent's declared uses list.
	UnknownToolError struct {
		Tool string
	}

	// ModelProviderError wraps a provider-SDK-originated failure with the
	// provider tag and agent specification name that produced it.
	ModelProviderError struct {
		Provider string
		AgentSpec string
		Cause    error
	}

	// CancellationError indicates a unit observed cancellation at a safe
	// point and unwound without completing.
	CancellationError struct {
		NodeID uint64
	}

	// AgentAbortError is raised by the reserved abort tool so an agent can
	// fail its own node with a structured message.
	AgentAbortError struct {
		Message string
	}

	// ToolLoopExhaustedError reports that an agent loop reached its cycle cap
	// without terminating on plain text or abort.
	ToolLoopExhaustedError struct {
		MaxCycles int
	}

	// NoParentSession reports that Parent-scoped session bag access (spec.md
	// §4.6) was attempted on a node with no parent.
	NoParentSession struct {
		NodeID uint64
	}
)

// NewArgumentValidationError constructs an ArgumentValidationError for spec
// with the given field errors.
func NewArgumentValidationError(spec string, fields ...FieldError) *ArgumentValidationError {
	return &ArgumentValidationError{Spec: spec, Fields: fields}
}

func (e *ArgumentValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("argument validation failed for %q", e.Spec)
	}
	return fmt.Sprintf("argument validation failed for %q: %s", e.Spec, e.Fields[0].Message)
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

func (e *ModelProviderError) Error() string {
	return fmt.Sprintf("provider %q failed for agent %q: %v", e.Provider, e.AgentSpec, e.Cause)
}

// Unwrap exposes the inner provider SDK error for errors.Is/As.
func (e *ModelProviderError) Unwrap() error { return e.Cause }

func (e *CancellationError) Error() string {
	return fmt.Sprintf("node %d canceled", e.NodeID)
}

func (e *AgentAbortError) Error() string {
	return fmt.Sprintf("agent aborted: %s", e.Message)
}

func (e *ToolLoopExhaustedError) Error() string {
	return fmt.Sprintf("tool loop exhausted after %d cycles", e.MaxCycles)
}

func (e *NoParentSession) Error() string {
	return fmt.Sprintf("node %d has no parent for session scope Parent", e.NodeID)
}

// IsCancellation reports whether err is, or wraps, a CancellationError.
func IsCancellation(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}

// IsAbort reports whether err is, or wraps, an AgentAbortError.
func IsAbort(err error) bool {
	var ae *AgentAbortError
	return errors.As(err, &ae)
}
