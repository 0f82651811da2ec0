package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceplane/designbridge/internal/detect"
	"github.com/sourceplane/designbridge/internal/loader"
)

const permitYAML = `
capture_bases:
  - type: spec/capture_base/1.0
    digest: owner
    attributes:
      firstname: Text
      lastname: Text
overlays:
  - type: extend/overlays/data_source/1.0
    capture_base: owner
    format: json
    attribute_sources:
      firstname: $.firstname
      lastname: $.lastname
  - type: aries/overlays/branding/1.1
    capture_base: owner
    language: en
    primary_background_color: "#003366"
    primary_field: "{{firstname}} {{lastname}}"
  - type: spec/overlays/meta/1.0
    capture_base: owner
    language: en
    name: Pet Permit
`

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "permit.yaml", permitYAML)
	output := filepath.Join(dir, "out", "permit.json")

	require.NoError(t, run(t, "convert", "-i", input, "-o", output, "--origin", "never"))

	doc, err := loader.LoadDocument(output)
	require.NoError(t, err)
	assert.Equal(t, detect.FormatProcivisOne, doc.Format)
	assert.Equal(t, "Pet Permit", doc.Procivis.Name)
	assert.Len(t, doc.Procivis.Claims, 2)

	// Convert the result back to OCA as YAML
	back := filepath.Join(dir, "back.yaml")
	require.NoError(t, run(t, "convert", "-i", output, "-o", back, "-t", "oca"))
	doc, err = loader.LoadDocument(back)
	require.NoError(t, err)
	assert.Equal(t, detect.FormatOCA, doc.Format)
	assert.Equal(t, []string{"firstname", "lastname"}, doc.OCA.CaptureBases[0].AttributeNames())

	err = run(t, "convert", "-i", input, "-o", output, "--origin", "sometimes")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "permit.yaml", permitYAML)

	require.NoError(t, run(t, "validate", "-i", input, "--strict"))

	// Keep only the data source overlay
	doc, err := loader.LoadDocument(input)
	require.NoError(t, err)
	raw := doc.Raw.(map[string]any)
	raw["overlays"] = raw["overlays"].([]any)[:1]
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	broken := writeFile(t, dir, "broken.json", string(data))

	err = run(t, "validate", "-i", broken, "--strict=false", "--all=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one branding overlay")

	err = run(t, "validate", "-i", broken, "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_overlay")
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "permit.yaml", permitYAML)
	unknown := writeFile(t, dir, "unknown.json", `{"hello": "world"}`)

	assert.NoError(t, run(t, "detect", input))
	assert.Error(t, run(t, "detect", unknown))
	assert.Error(t, run(t, "detect", filepath.Join(dir, "missing.json")))
}
