package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sourceplane/designbridge/internal/model"
)

func TestFormatPrimaryField(t *testing.T) {
	data := model.Record{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"address":   map[string]any{"country": "UK", "postal_code": "N1"},
		"age":       36.0,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"flat placeholders", "{{firstname}} {{lastname}}", "Ada Lovelace"},
		{"grouped placeholder", "{{firstname}} from {{address_country}}", "Ada from UK"},
		{"field containing underscore", "{{address_postal_code}}", "N1"},
		{"missing value stays literal", "{{firstname}} {{missing}}", "Ada {{missing}}"},
		{"non-string value stays literal", "{{age}}", "{{age}}"},
		{"repeated placeholder", "{{firstname}}/{{firstname}}", "Ada/Ada"},
		{"empty template", "", ""},
		{"no placeholders", "Pet Permit", "Pet Permit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrimaryField(tt.template, data))
		})
	}
}

func TestFormatPrimaryFieldPrefersGroupedLookup(t *testing.T) {
	data := model.Record{
		"address_country": "flat",
		"address":         map[string]any{"country": "grouped"},
	}

	assert.Equal(t, "grouped", FormatPrimaryField("{{address_country}}", data))

	// Falls back to the flat key when the group has no such field
	delete(data["address"].(map[string]any), "country")
	assert.Equal(t, "flat", FormatPrimaryField("{{address_country}}", data))
}

func TestFormatPrimaryFieldDoesNotReexpandValues(t *testing.T) {
	data := model.Record{"firstname": "{{lastname}}", "lastname": "Lovelace"}

	assert.Equal(t, "{{lastname}} Lovelace", FormatPrimaryField("{{firstname}} {{lastname}}", data))
}

func TestPlaceholders(t *testing.T) {
	tokens := Placeholders("{{lastname}}, {{firstname}} from {{address_country}} {{lastname}}")

	assert.Equal(t, []string{"lastname", "firstname", "address_country"}, tokens)
	assert.Empty(t, Placeholders("plain"))
	assert.Equal(t, "address_city", GroupedToken("address", "city"))
}
