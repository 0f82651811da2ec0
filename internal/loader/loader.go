package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sourceplane/designbridge/internal/detect"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/validate"
	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyDocument is returned for input without any content
	ErrEmptyDocument = errors.New("document is empty")
	// ErrInvalidSpecification wraps the validator message of a rejected OCA document
	ErrInvalidSpecification = errors.New("invalid specification")
	// ErrNotSpecification is returned when an OCA specification is required
	ErrNotSpecification = errors.New("document is not an OCA specification")
)

// Document is a decoded specification in one of the supported formats
type Document struct {
	Format detect.FormatType
	// Raw is the generic JSON form, as handed to the validator and detector
	Raw      interface{}
	// OCA is nil when the document was detected as OCA but is not well formed;
	// Specification reports why.
	OCA      *model.DesignSpecification
	Procivis *model.ProcivisOneSchema

	decodeErr error
}

// Value returns the typed document, or Raw when the format is unknown or the
// typed form could not be decoded
func (d *Document) Value() interface{} {
	switch {
	case d.Format == detect.FormatOCA && d.OCA != nil:
		return d.OCA
	case d.Format == detect.FormatProcivisOne && d.Procivis != nil:
		return d.Procivis
	default:
		return d.Raw
	}
}

// Specification returns the typed OCA specification. A document that failed
// to decode is reported with the validator's message when it has one.
func (d *Document) Specification() (*model.DesignSpecification, error) {
	if d.Format != detect.FormatOCA {
		return nil, ErrNotSpecification
	}
	if d.OCA != nil {
		return d.OCA, nil
	}
	if result := validate.ValidateSpecification(d.Raw); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSpecification, result.Error)
	}
	if d.decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpecification, d.decodeErr)
	}
	return nil, ErrInvalidSpecification
}

// LoadDocument loads and parses a specification file (JSON or YAML)
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes JSON or YAML bytes, detects the format and decodes the
// typed form. Unknown formats are returned with only Raw set. An OCA document
// whose typed decode fails is still returned so the validator can explain it.
func ParseDocument(data []byte) (*Document, error) {
	jsonData, err := ToJSON(data)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	doc := &Document{Format: detect.DetectFormatType(raw), Raw: raw}
	switch doc.Format {
	case detect.FormatOCA:
		var s model.DesignSpecification
		if err := json.Unmarshal(jsonData, &s); err != nil {
			doc.decodeErr = fmt.Errorf("failed to decode OCA specification: %w", err)
			break
		}
		doc.OCA = &s
	case detect.FormatProcivisOne:
		var schema model.ProcivisOneSchema
		if err := json.Unmarshal(jsonData, &schema); err != nil {
			return nil, fmt.Errorf("failed to decode ProcivisOne schema: %w", err)
		}
		doc.Procivis = &schema
	}
	return doc, nil
}

// DecodeOCA decodes a generic value into an OCA specification
func DecodeOCA(raw interface{}) (*model.DesignSpecification, error) {
	var s model.DesignSpecification
	if err := redecode(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode OCA specification: %w", err)
	}
	return &s, nil
}

// DecodeProcivisOne decodes a generic value into a ProcivisOne schema
func DecodeProcivisOne(raw interface{}) (*model.ProcivisOneSchema, error) {
	var schema model.ProcivisOneSchema
	if err := redecode(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode ProcivisOne schema: %w", err)
	}
	return &schema, nil
}

func redecode(raw interface{}, target interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// LoadRecord loads a data record file (JSON or YAML)
func LoadRecord(path string) (model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	record, err := ParseRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return record, nil
}

// ParseRecord decodes a data record. The top level must be an object.
func ParseRecord(data []byte) (model.Record, error) {
	jsonData, err := ToJSON(data)
	if err != nil {
		return nil, err
	}

	var record model.Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("failed to decode data record: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("data record must be an object")
	}
	return record, nil
}

// ToJSON converts a YAML or JSON document to JSON, keeping mapping key order.
// Valid JSON is passed through untouched.
func ToJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}
	if json.Valid(trimmed) {
		return trimmed, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if root.Kind == 0 {
		return nil, ErrEmptyDocument
	}

	var buf bytes.Buffer
	if err := writeNode(&buf, &root); err != nil {
		return nil, fmt.Errorf("failed to convert document to JSON: %w", err)
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, node.Content[0])

	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNode(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.AliasNode:
		return writeNode(buf, node.Alias)

	case yaml.ScalarNode:
		var value interface{}
		if err := node.Decode(&value); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		buf.Write(data)
		return nil

	default:
		return fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}
