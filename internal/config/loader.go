package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.schema.json
var scenarioSchema string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("scenario.schema.json", scenarioSchema)
	})
	return schema, schemaErr
}

// Load reads a scenario file: schema check, decode over Default(), then
// Validate.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse is Load for an in-memory document.
func Parse(b []byte) (*Scenario, error) {
	if err := validateSchema(b); err != nil {
		return nil, err
	}
	sc := Default()
	if err := yaml.Unmarshal(b, sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return sc, nil
}

// validateSchema checks the raw YAML document against the embedded JSON
// schema. The document goes through JSON so the validator sees the same
// value types it would for a .json file.
func validateSchema(b []byte) error {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parsing scenario: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("scenario is not representable as JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling scenario schema: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("scenario schema: %w", err)
	}
	return nil
}
