package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceplane/designbridge/internal/model"
)

const ocaFixture = `{
  "capture_bases": [
    {"type": "spec/capture_base/1.0", "digest": "owner",
     "attributes": {"firstname": "Text", "address_street": "Text", "address_city": "Text",
                    "pets": "Array[refs:pet]", "deep": "Text"}},
    {"type": "spec/capture_base/1.0", "digest": "pet", "attributes": {"name": "Text", "race": "Text"}}
  ],
  "overlays": [
    {"type": "extend/overlays/data_source/1.0", "capture_base": "owner", "format": "json",
     "attribute_sources": {"firstname": "$.firstname", "address_street": "$.address.street",
                           "address_city": "$.address.city", "pets": "$.pets", "deep": "$.a.b.c"}},
    {"type": "extend/overlays/data_source/1.0", "capture_base": "pet", "format": "json",
     "attribute_sources": {"name": "$.pets[*].name", "race": "$.pets[*].race"}}
  ]
}`

const procivisFixture = `{
  "name": "Pet Permit",
  "claims": [
    {"key": "Firstname", "datatype": "STRING", "array": false, "claims": []},
    {"key": "Address", "datatype": "OBJECT", "array": false, "claims": [
      {"key": "Street", "datatype": "STRING", "array": false, "claims": []},
      {"key": "Postal Code", "datatype": "STRING", "array": false, "claims": []}
    ]},
    {"key": "Pets", "datatype": "OBJECT", "array": true, "claims": [
      {"key": "Name", "datatype": "STRING", "array": false, "claims": []},
      {"key": "Race", "datatype": "STRING", "array": false, "claims": []},
      {"key": "Vet", "datatype": "OBJECT", "array": false, "claims": []}
    ]}
  ]
}`

func TestFromOCA(t *testing.T) {
	var s model.DesignSpecification
	require.NoError(t, json.Unmarshal([]byte(ocaFixture), &s))

	shape := FromOCA(&s)

	assert.Equal(t, []string{"firstname"}, shape.Simple[RootGroup])
	assert.Equal(t, []string{"street", "city"}, shape.Simple["address"])
	require.Contains(t, shape.Arrays, "pets")
	assert.Equal(t, []string{"name", "race"}, shape.Arrays["pets"].Fields)
	assert.Equal(t, []string{"$.a.b.c"}, shape.Skipped)

	// Check the array name is not left behind as a root field
	assert.NotContains(t, shape.Simple[RootGroup], "pets")
	assert.Equal(t, []string{RootGroup, "address"}, shape.Groups())
	assert.Equal(t, []string{"pets"}, shape.ArrayNames())
}

func TestFromOCADropsEmptiedRootGroup(t *testing.T) {
	s := &model.DesignSpecification{
		Overlays: []model.Overlay{
			&model.DataSourceOverlay{
				Type:             model.TypeDataSource,
				CaptureBase:      "owner",
				AttributeSources: map[string]string{"pets": "$.pets", "name": "$.pets[*].name"},
			},
		},
	}

	shape := FromOCA(s)

	assert.NotContains(t, shape.Simple, RootGroup)
	assert.Empty(t, shape.Groups())
	assert.Equal(t, []string{"name"}, shape.Arrays["pets"].Fields)
}

func TestFromProcivisOne(t *testing.T) {
	var schema model.ProcivisOneSchema
	require.NoError(t, json.Unmarshal([]byte(procivisFixture), &schema))

	shape := FromProcivisOne(&schema)

	assert.Equal(t, []string{"firstname"}, shape.Simple[RootGroup])
	assert.Equal(t, []string{"street", "postal_code"}, shape.Simple["address"])
	// Check nested objects inside arrays are not reported as fields
	assert.Equal(t, []string{"name", "race"}, shape.Arrays["pets"].Fields)

	assert.Empty(t, FromProcivisOne(nil).Simple)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "postal_code", Key("Postal Code"))
	assert.Equal(t, "first_name", Key("  First \t Name "))
	assert.Equal(t, "pets", Key("Pets"))
}

func TestDefaultRecord(t *testing.T) {
	var schema model.ProcivisOneSchema
	require.NoError(t, json.Unmarshal([]byte(procivisFixture), &schema))

	record := DefaultRecord(&schema)

	assert.Equal(t, model.Record{
		"firstname": "",
		"address":   map[string]any{"street": "", "postal_code": ""},
		"pets":      []any{},
	}, record)
	assert.Empty(t, DefaultRecord(nil))
}

func TestDefaultRecordFromShape(t *testing.T) {
	var s model.DesignSpecification
	require.NoError(t, json.Unmarshal([]byte(ocaFixture), &s))

	record := DefaultRecordFromShape(FromOCA(&s))

	assert.Equal(t, model.Record{
		"firstname": "",
		"address":   map[string]any{"street": "", "city": ""},
		"pets":      []any{},
	}, record)
}

func TestSeed(t *testing.T) {
	defaults := model.Record{
		"firstname": "",
		"address":   map[string]any{"street": "", "city": ""},
		"pets":      []any{},
	}
	data := model.Record{
		"firstname": "Ada",
		"address":   map[string]any{"city": "London"},
	}

	seeded := Seed(data, defaults)

	assert.Equal(t, "Ada", seeded["firstname"])
	assert.Equal(t, map[string]any{"street": "", "city": "London"}, seeded["address"])
	assert.Equal(t, []any{}, seeded["pets"])

	// Check the input is left untouched
	assert.NotContains(t, data, "pets")
	assert.NotContains(t, data["address"], "street")
}
