package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceplane/designbridge/internal/convert"
	"github.com/sourceplane/designbridge/internal/detect"
	"github.com/sourceplane/designbridge/internal/loader"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/render"
)

const ocaDoc = `{
  "capture_bases": [
    {"type": "spec/capture_base/1.0", "digest": "owner",
     "attributes": {"firstname": "Text", "lastname": "Text", "address_country": "Text",
                    "pets": "Array[refs:pet]"}},
    {"type": "spec/capture_base/1.0", "digest": "pet", "attributes": {"name": "Text", "race": "Text"}}
  ],
  "overlays": [
    {"type": "extend/overlays/data_source/1.0", "capture_base": "owner", "format": "json",
     "attribute_sources": {"firstname": "$.firstname", "lastname": "$.lastname",
                           "address_country": "$.address.country", "pets": "$.pets"}},
    {"type": "extend/overlays/data_source/1.0", "capture_base": "pet", "format": "json",
     "attribute_sources": {"name": "$.pets[*].name", "race": "$.pets[*].race"}},
    {"type": "aries/overlays/branding/1.1", "capture_base": "owner", "language": "en",
     "primary_background_color": "#003366", "primary_field": "{{firstname}} {{lastname}}"},
    {"type": "spec/overlays/meta/1.0", "capture_base": "owner", "language": "en", "name": "Pet Permit"}
  ]
}`

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}

func TestApplyDocumentSeedsData(t *testing.T) {
	s := New(nil, model.Record{"firstname": "Ada"})
	assert.Equal(t, detect.FormatUnknown, s.Format)
	assert.Nil(t, s.Preview())

	require.NoError(t, s.ApplyDocument(decode(t, ocaDoc)))

	assert.Equal(t, detect.FormatOCA, s.Format)
	require.NotNil(t, s.Specification)
	assert.Equal(t, "Ada", s.Data["firstname"])
	assert.Equal(t, "", s.Data["lastname"])
	assert.Equal(t, map[string]any{"country": ""}, s.Data["address"])
	assert.Equal(t, []any{}, s.Data["pets"])
}

func TestApplyDocumentRejectsInvalidSpecification(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.ApplyDocument(decode(t, ocaDoc)))
	previous := s.Specification

	invalid := decode(t, ocaDoc)
	invalid["overlays"].([]any)[3].(map[string]any)["capture_base"] = "X"

	err := s.ApplyDocument(invalid)

	require.ErrorIs(t, err, ErrInvalidSpecification)
	assert.Contains(t, err.Error(), `references non-existent capture_base "X"`)
	// Check the previous specification is still active
	assert.Same(t, previous, s.Specification)
	assert.Equal(t, detect.FormatOCA, s.Format)
}

func TestApplyDocumentFormats(t *testing.T) {
	s := New(nil, nil)

	assert.ErrorIs(t, s.ApplyDocument(map[string]any{"foo": "bar"}), ErrUnknownFormat)

	// Loaded documents are used as is
	doc, err := loader.ParseDocument([]byte(ocaDoc))
	require.NoError(t, err)
	require.NoError(t, s.ApplyDocument(doc))
	assert.Same(t, doc.OCA, s.Specification)

	schema := convert.OCAToProcivisOne(doc.OCA)
	require.NoError(t, s.ApplyDocument(schema))
	assert.Equal(t, detect.FormatProcivisOne, s.Format)
	assert.Equal(t, "Pet Permit", s.ProcivisSpec.Name)
	assert.Equal(t, s.ProcivisSpec, s.Document())
}

func TestSwitchFormat(t *testing.T) {
	s := New(nil, model.OwnerData{Firstname: "Ada", Lastname: "Lovelace"}.Record())
	require.NoError(t, s.ApplyDocument(decode(t, ocaDoc)))

	require.NoError(t, s.SwitchFormat(detect.FormatProcivisOne))

	assert.Equal(t, detect.FormatProcivisOne, s.Format)
	require.NotNil(t, s.ProcivisSpec)
	assert.Empty(t, s.Warnings())

	card, ok := s.Preview().(*render.CardPreview)
	require.True(t, ok)
	assert.Equal(t, "Ada", card.PrimaryText)
	assert.Equal(t, "Lovelace", card.SecondaryText)

	// Switching back builds a fresh OCA specification
	require.NoError(t, s.SwitchFormat(detect.FormatOCA))
	assert.Equal(t, model.OwnerDigest, s.Specification.CaptureBases[0].Digest)

	permit, ok := s.Preview().(*render.PermitPreview)
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", permit.PrimaryField)

	assert.NoError(t, s.SwitchFormat(detect.FormatOCA))
	assert.ErrorIs(t, s.SwitchFormat(detect.FormatUnknown), ErrUnknownFormat)
}

func TestSwitchFormatWithoutDocument(t *testing.T) {
	s := New(nil, nil)

	assert.ErrorIs(t, s.SwitchFormat(detect.FormatProcivisOne), ErrNoDocument)
	assert.ErrorIs(t, s.SwitchFormat(detect.FormatOCA), ErrNoDocument)
}

func TestSetFieldAndReplaceData(t *testing.T) {
	s := New(nil, nil)

	require.NoError(t, s.SetField("pets[0].name", "Rex"))
	name, _ := s.Data.String("pets[0].name")
	assert.Equal(t, "Rex", name)

	assert.Error(t, s.SetField("a.b.c", "x"))

	input := map[string]any{"firstname": "Ada"}
	require.NoError(t, s.ReplaceData(input))
	assert.Equal(t, model.Record{"firstname": "Ada"}, s.Data)

	// Check the session keeps its own copy
	input["firstname"] = "Grace"
	assert.Equal(t, "Ada", s.Data["firstname"])

	assert.Error(t, s.ReplaceData([]any{"x"}))
}

func TestShape(t *testing.T) {
	s := New(nil, nil, WithLanguage("en"))
	assert.Empty(t, s.Shape().Groups())
	assert.Equal(t, "en", s.Language())

	require.NoError(t, s.ApplyDocument(decode(t, ocaDoc)))
	shape := s.Shape()

	assert.Equal(t, []string{"firstname", "lastname"}, shape.Simple["root"])
	assert.Equal(t, []string{"country"}, shape.Simple["address"])
	assert.Equal(t, []string{"name", "race"}, shape.Arrays["pets"].Fields)
}
