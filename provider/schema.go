// Package provider implements the provider-agnostic agent tool-call loop
// (spec.md §4.5): translating an Agent Specification's declared tools into
// wire-level tool definitions, driving a model.Client through successive
// cycles, and dispatching tool-use requests back to the engine via an
// injected ToolInvoker, without importing the engine package itself (the
// engine depends on provider, not the reverse).
package provider

import (
	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/model"
	"github.com/branchrun/agentry/spec"
)

// ToolDefinitionsFromSpecs translates each spec's argument schema into a
// model.ToolDefinition carrying a JSON-Schema-shaped input schema, the form
// every provider SDK in this module's dependency set expects for tool
// declarations.
func ToolDefinitionsFromSpecs(specs []spec.Spec) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(specs))
	for _, s := range specs {
		defs = append(defs, model.ToolDefinition{
			Name:        s.Name(),
			Description: s.Description(),
			InputSchema: jsonSchemaFor(s.Args()),
		})
	}
	return defs
}

// jsonSchemaFor renders an argschema.Schema as a JSON-Schema object, the
// shape both the Anthropic and OpenAI tool-definition payloads require.
func jsonSchemaFor(schema argschema.Schema) map[string]any {
	properties := make(map[string]any, len(schema))
	var required []string
	for _, f := range schema {
		properties[f.Name] = jsonSchemaForField(f)
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func jsonSchemaForField(f argschema.Field) map[string]any {
	prop := map[string]any{"type": jsonSchemaType(f.Type)}
	if f.Description != "" {
		prop["description"] = f.Description
	}
	if len(f.AllowedValues) > 0 {
		values := make([]any, len(f.AllowedValues))
		for i, v := range f.AllowedValues {
			values[i] = v
		}
		prop["enum"] = values
	}
	return prop
}

func jsonSchemaType(t argschema.ScalarType) string {
	switch t {
	case argschema.Text:
		return "string"
	case argschema.Integer:
		return "integer"
	case argschema.Real:
		return "number"
	case argschema.Boolean:
		return "boolean"
	default:
		return "string"
	}
}
