package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/sourceplane/designbridge/internal/model"
	"gopkg.in/yaml.v3"
)

// Renderer turns documents and previews into output bytes
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON renders a document as indented JSON
func (r *Renderer) RenderJSON(doc interface{}) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// RenderYAML renders a document as YAML. The document goes through its JSON
// encoding so field names and key order match the JSON output.
func (r *Renderer) RenderYAML(doc interface{}) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

// blockStyle switches nodes parsed from JSON syntax to block collections and
// plain strings; the encoder still quotes strings that would read as another type
func blockStyle(node *yaml.Node) {
	switch {
	case node.Kind == yaml.MappingNode || node.Kind == yaml.SequenceNode:
		node.Style = 0
	case node.Kind == yaml.ScalarNode && node.Tag == "!!str":
		node.Style = 0
	}
	for _, child := range node.Content {
		blockStyle(child)
	}
}

// WriteDocument writes a document to file (JSON or YAML based on extension)
func (r *Renderer) WriteDocument(doc interface{}, path string) error {
	var data []byte
	var err error

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Determine format from extension
	ext := filepath.Ext(path)
	switch ext {
	case ".json":
		data, err = r.RenderJSON(doc)
	case ".yaml", ".yml":
		data, err = r.RenderYAML(doc)
	default:
		// Default to JSON if no extension
		data, err = r.RenderJSON(doc)
	}

	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document to %s: %w", path, err)
	}

	return nil
}

// Render picks JSON or YAML by name ("json", "yaml", "yml")
func (r *Renderer) Render(doc interface{}, format string) ([]byte, error) {
	switch format {
	case "", "json":
		return r.RenderJSON(doc)
	case "yaml", "yml":
		return r.RenderYAML(doc)
	default:
		return nil, fmt.Errorf("unsupported output format %q (expected json or yaml)", format)
	}
}

// DebugDump outputs the Go structure of a document
func (r *Renderer) DebugDump(doc interface{}) string {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	return cfg.Sdump(doc)
}

func sortedRecordKeys(data model.Record) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
