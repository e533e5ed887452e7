package spec

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderUserPrompt substitutes args into an Agent Specification's user
// prompt template. Missing placeholders fail rather than silently rendering
// "<no value>", matching spec.md §4.5's requirement that missing
// placeholders fail.
func RenderUserPrompt(name, tmplText string, args map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("spec: parse user prompt template for %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, args); err != nil {
		return "", fmt.Errorf("spec: render user prompt template for %q: %w", name, err)
	}
	return buf.String(), nil
}
