// Command demo wires a minimal agent tree and runs a single top-level
// invocation against it, for exercising the engine end to end against a
// real provider. It takes its manifest path and a single free-form prompt
// on the command line, in the style of the teacher's flag-based CLIs
// rather than a cobra/urfave framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/config"
	"github.com/branchrun/agentry/engine"
	"github.com/branchrun/agentry/provider"
	"github.com/branchrun/agentry/provider/anthropic"
	"github.com/branchrun/agentry/provider/openai"
	"github.com/branchrun/agentry/spec"
	"github.com/branchrun/agentry/telemetry"
)

func main() {
	manifestPath := flag.String("manifest", "manifest.yaml", "path to the provider manifest")
	prompt := flag.String("prompt", "say hello", "user prompt to send the assistant")
	providerTag := flag.String("provider", "", "provider tag to use (defaults to the manifest's first entry)")
	flag.Parse()

	if err := run(*manifestPath, *providerTag, *prompt); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(manifestPath, providerTag, prompt string) error {
	manifest, err := config.LoadFile(manifestPath)
	if err != nil {
		return err
	}
	if len(manifest.Providers) == 0 {
		return fmt.Errorf("manifest declares no providers")
	}
	if providerTag == "" {
		providerTag = manifest.Providers[0].Tag
	}

	reg := engine.NewRegistry()
	echo, err := spec.NewCodeSpec("echo", "echoes the given text back", argschema.Schema{
		{Name: "text", Type: argschema.Text, Description: "text to echo"},
	}, func(ctx context.Context, args argschema.Bundle) (any, error) {
		return args["text"].Text, nil
	})
	if err != nil {
		return err
	}

	assistant, err := spec.NewAgentSpec(
		"assistant",
		"a minimal demo assistant with one tool",
		argschema.Schema{{Name: "prompt", Type: argschema.Text}},
		"You are a helpful assistant. Use the echo tool when asked to repeat something.",
		"{{.prompt}}",
		providerTag,
		[]spec.Spec{echo, engine.AbortTool()},
	)
	if err != nil {
		return err
	}
	if err := reg.Register(assistant); err != nil {
		return err
	}

	opts := []engine.Option{engine.WithLogger(telemetry.NoopLogger{})}
	for _, p := range manifest.Providers {
		p := p
		opts = append(opts, engine.WithAdapter(p.Tag, func() (provider.Adapter, error) { return buildAdapter(p) }))
	}
	eng := engine.New(reg, opts...)

	out, err := eng.Run(context.Background(), "assistant", map[string]any{"prompt": prompt})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func buildAdapter(p config.ProviderConfig) (provider.Adapter, error) {
	key, err := p.APIKey()
	if err != nil {
		return nil, err
	}

	var adapter provider.Adapter
	switch p.Kind {
	case "anthropic":
		adapter = anthropic.New(anthropic.Config{APIKey: key, BaseURL: p.BaseURL, DefaultModel: p.Model})
	case "openai":
		adapter, err = openai.New(openai.Config{APIKey: key, BaseURL: p.BaseURL, DefaultModel: p.Model})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown provider kind %q", p.Kind)
	}

	if p.RateLimitTPM > 0 {
		adapter = provider.NewRateLimitedAdapter(adapter, p.RateLimitTPM)
	}
	return adapter, nil
}
