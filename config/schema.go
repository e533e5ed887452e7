package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// manifestSchemaJSON is the JSON Schema a manifest document must satisfy,
// checked before it is unmarshaled into a Manifest so malformed input fails
// with a JSON-pointer path to the offending field.
const manifestSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["version", "providers"],
	"properties": {
		"version": {"type": "string"},
		"name": {"type": "string"},
		"providers": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["tag", "kind"],
				"properties": {
					"tag": {"type": "string", "minLength": 1},
					"kind": {"type": "string", "enum": ["anthropic", "openai"]},
					"api_key_env": {"type": "string"},
					"base_url": {"type": "string"},
					"model": {"type": "string"},
					"rate_limit_tpm": {"type": "integer", "minimum": 0}
				}
			}
		},
		"limits": {
			"type": "object",
			"properties": {
				"max_cycles": {"type": "integer", "minimum": 1},
				"reasoning_budget": {"type": "integer", "minimum": 0},
				"max_tokens": {"type": "integer", "minimum": 1}
			}
		}
	}
}`

const manifestSchemaResource = "agentry://manifest.schema.json"

var manifestSchema = compileManifestSchema()

func compileManifestSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(manifestSchemaResource, strings.NewReader(manifestSchemaJSON)); err != nil {
		panic("config: invalid built-in manifest schema: " + err.Error())
	}
	sch, err := compiler.Compile(manifestSchemaResource)
	if err != nil {
		panic("config: failed to compile built-in manifest schema: " + err.Error())
	}
	return sch
}

// ValidateSchema checks raw YAML bytes against the manifest JSON Schema.
// raw is decoded generically first since yaml.v3 produces map[string]any
// for mapping nodes, the shape jsonschema/v6 validates against directly.
func ValidateSchema(raw []byte) error {
	var doc any
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("config: parse yaml for schema validation: %w", err)
	}
	if err := manifestSchema.Validate(doc); err != nil {
		return err
	}
	return nil
}
