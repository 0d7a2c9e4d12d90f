package definitions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"sla-service/internal/models"
)

const schemaURL = "sla-definitions.json"

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["definitions"],
  "additionalProperties": false,
  "properties": {
    "definitions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["category", "target_hours", "priority"],
        "additionalProperties": false,
        "properties": {
          "category": {"type": "string", "minLength": 1},
          "target_hours": {"type": "number", "exclusiveMinimum": 0},
          "priority": {"enum": ["low", "medium", "high", "critical"]},
          "checkpoints": {
            "type": "array",
            "items": {"type": "number", "exclusiveMinimum": 0}
          }
        }
      }
    }
  }
}`

type file struct {
	Definitions []models.Definition `yaml:"definitions"`
}

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(schemaJSON)))
	if err != nil {
		panic(fmt.Sprintf("definitions schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		panic(fmt.Sprintf("definitions schema: %v", err))
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("definitions schema: %v", err))
	}
	return s
}

// LoadFile reads a YAML definitions file. Entries in the file replace the
// built-in definition of the same category; other built-ins are kept.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return Parse(data)
}

// Parse validates YAML definitions against the schema and the definition
// invariants, then merges them over the built-in table.
func Parse(data []byte) (*Registry, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}

	merged := make([]models.Definition, 0, len(Builtin)+len(f.Definitions))
	overridden := make(map[string]bool, len(f.Definitions))
	for _, d := range f.Definitions {
		overridden[d.Category] = true
	}
	for _, d := range Builtin {
		if !overridden[d.Category] {
			merged = append(merged, d)
		}
	}
	merged = append(merged, f.Definitions...)

	return New(merged...)
}

// validateSchema converts the YAML document to JSON values before validation
// so numbers reach the validator as json.Number.
func validateSchema(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse definitions: %w", err)
	}
	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to convert definitions to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return fmt.Errorf("failed to convert definitions to JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("definitions do not match schema: %w", err)
	}
	return nil
}
