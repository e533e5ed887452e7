// Package spec implements the Function Specification model (spec.md §3,
// §4.2): immutable declarative descriptions of runnable units, in both their
// Code and Agent variants.
//
// The source system passes arguments as a name→value mapping into a host
// callable with keyword-only parameters and validates the callable's
// signature against the schema by reflection. Go has no keyword-only
// parameters, so per spec.md §9 ("Dynamic argument dispatch") every
// specification instead carries its ordered schema and its callable accepts
// the validated argschema.Bundle directly, extracting each field by name
// with a typed accessor — there is nothing left to introspect at
// construction time beyond the schema's own invariants.
package spec

import (
	"context"
	"fmt"

	"github.com/branchrun/agentry/argschema"
)

// Callable is the host-callable surface for a Code Specification: it
// receives a context.Context carrying the node's RunContext (retrievable
// with engine.RunContextFromContext, for callables that need to spawn
// children, poll cancellation, or touch a session bag) plus the validated,
// coerced keyword inputs, and returns any value (treated as the node's
// outputs) or an error.
type Callable func(ctx context.Context, args argschema.Bundle) (any, error)

// Spec is an immutable description of a runnable unit.
type Spec interface {
	// Name returns the specification's unique registered name.
	Name() string
	// Description returns the human/model-facing description.
	Description() string
	// Args returns the ordered argument schema.
	Args() argschema.Schema
	// Uses returns the ordered list of specifications this one may invoke
	// (a Code Specification's Uses is normally empty; an Agent
	// Specification's Uses is its declared tool list).
	Uses() []Spec
	isSpec()
}

// CodeSpec wraps a host callable with an argument schema.
type CodeSpec struct {
	name        string
	description string
	args        argschema.Schema
	fn          Callable
}

// NewCodeSpec constructs and validates a Code Specification.
func NewCodeSpec(name, description string, args argschema.Schema, fn Callable) (*CodeSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("spec: code specification requires a name")
	}
	if fn == nil {
		return nil, fmt.Errorf("spec: code specification %q requires a callable", name)
	}
	if err := args.Validate(); err != nil {
		return nil, fmt.Errorf("spec: code specification %q: %w", name, err)
	}
	return &CodeSpec{name: name, description: description, args: args, fn: fn}, nil
}

func (s *CodeSpec) Name() string             { return s.name }
func (s *CodeSpec) Description() string      { return s.description }
func (s *CodeSpec) Args() argschema.Schema   { return s.args }
func (s *CodeSpec) Uses() []Spec             { return nil }
func (s *CodeSpec) Call() Callable           { return s.fn }
func (*CodeSpec) isSpec()                    {}

// AgentSpec describes a language-model agent unit: a system prompt, a
// templated user prompt, a declared tool list, and a default provider tag.
type AgentSpec struct {
	name              string
	description       string
	args              argschema.Schema
	systemPrompt      string
	userPromptTemplate string
	tools             []Spec
	defaultProvider   string
}

// NewAgentSpec constructs and validates an Agent Specification. uses must
// have no duplicate names.
func NewAgentSpec(name, description string, args argschema.Schema, systemPrompt, userPromptTemplate, defaultProvider string, uses []Spec) (*AgentSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("spec: agent specification requires a name")
	}
	if err := args.Validate(); err != nil {
		return nil, fmt.Errorf("spec: agent specification %q: %w", name, err)
	}
	seen := make(map[string]struct{}, len(uses))
	for _, u := range uses {
		if _, dup := seen[u.Name()]; dup {
			return nil, fmt.Errorf("spec: agent specification %q declares duplicate tool %q", name, u.Name())
		}
		seen[u.Name()] = struct{}{}
	}
	return &AgentSpec{
		name:               name,
		description:        description,
		args:               args,
		systemPrompt:       systemPrompt,
		userPromptTemplate: userPromptTemplate,
		tools:              uses,
		defaultProvider:    defaultProvider,
	}, nil
}

func (s *AgentSpec) Name() string              { return s.name }
func (s *AgentSpec) Description() string       { return s.description }
func (s *AgentSpec) Args() argschema.Schema     { return s.args }
func (s *AgentSpec) Uses() []Spec               { return s.tools }
func (s *AgentSpec) SystemPrompt() string       { return s.systemPrompt }
func (s *AgentSpec) UserPromptTemplate() string { return s.userPromptTemplate }
func (s *AgentSpec) DefaultProvider() string    { return s.defaultProvider }
func (*AgentSpec) isSpec()                      {}
