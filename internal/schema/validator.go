package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sourceplane/designbridge/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.schema.yaml
var schemaFiles embed.FS

// Validator handles JSON schema validation of both document formats
type Validator struct {
	ocaSchema      *jsonschema.Schema
	procivisSchema *jsonschema.Schema
}

// NewValidator compiles the embedded schemas
func NewValidator() (*Validator, error) {
	v := &Validator{}

	ocaSchema, err := loadSchema("oca")
	if err != nil {
		return nil, fmt.Errorf("failed to load OCA schema: %w", err)
	}
	v.ocaSchema = ocaSchema

	procivisSchema, err := loadSchema("procivis")
	if err != nil {
		return nil, fmt.Errorf("failed to load ProcivisOne schema: %w", err)
	}
	v.procivisSchema = procivisSchema

	return v, nil
}

// ValidateOCA validates an OCA design specification document
func (v *Validator) ValidateOCA(data interface{}) error {
	if v.ocaSchema == nil {
		return fmt.Errorf("OCA schema not loaded")
	}
	return validate(v.ocaSchema, data)
}

// ValidateProcivisOne validates a ProcivisOne schema document
func (v *Validator) ValidateProcivisOne(data interface{}) error {
	if v.procivisSchema == nil {
		return fmt.Errorf("ProcivisOne schema not loaded")
	}
	return validate(v.procivisSchema, data)
}

// validate accepts generic or typed documents
func validate(schema *jsonschema.Schema, data interface{}) error {
	generic, err := model.ToGeneric(data)
	if err != nil {
		return fmt.Errorf("failed to prepare document for validation: %w", err)
	}
	return schema.Validate(generic)
}

// loadSchema loads and compiles an embedded schema file (JSON or YAML)
func loadSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFiles.ReadFile(fmt.Sprintf("schemas/%s.schema.yaml", name))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	// Parse YAML to interface{} (supports both YAML and JSON)
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	// Convert to JSON for schema compiler
	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaURI := fmt.Sprintf("designbridge://%s/schema.json", name)
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		if url == schemaURI {
			return io.NopCloser(strings.NewReader(string(jsonData))), nil
		}
		return nil, fmt.Errorf("external schema reference not supported: %s", url)
	}

	schema, err := compiler.Compile(schemaURI)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}
