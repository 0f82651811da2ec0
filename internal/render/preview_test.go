package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sourceplane/designbridge/internal/model"
)

func permitSpec() *model.DesignSpecification {
	return &model.DesignSpecification{
		Overlays: []model.Overlay{
			&model.MetaOverlay{Type: model.TypeMeta, CaptureBase: "owner", Language: "en", Name: "Pet Permit"},
			&model.MetaOverlay{Type: model.TypeMeta, CaptureBase: "owner", Language: "de", Name: "Haustierausweis"},
			&model.BrandingOverlay{
				Type:                   model.TypeBranding,
				CaptureBase:            "owner",
				Language:               "en",
				Logo:                   "logo.png",
				PrimaryBackgroundColor: "#003366",
				PrimaryField:           "{{firstname}} {{lastname}} from {{address_country}}",
			},
		},
	}
}

func ownerData() model.Record {
	return model.OwnerData{
		Firstname: "Ada",
		Lastname:  "Lovelace",
		Address:   model.Address{Country: "UK"},
		Pets:      []model.PetData{{Name: "Rex", Race: "Dog"}},
	}.Record()
}

func TestRenderPermit(t *testing.T) {
	r := NewRenderer()

	preview := r.RenderPermit(permitSpec(), ownerData(), "en")

	assert.Equal(t, "Pet Permit", preview.Title)
	assert.Equal(t, "Ada Lovelace from UK", preview.PrimaryField)
	assert.Equal(t, "#003366", preview.BackgroundColor)
	assert.Equal(t, "logo.png", preview.Logo)
	assert.Equal(t, []model.PetData{{Name: "Rex", Race: "Dog"}}, preview.Pets)
}

func TestRenderPermitFallbacks(t *testing.T) {
	r := NewRenderer()

	// No German branding exists, so the English one is used
	preview := r.RenderPermit(permitSpec(), ownerData(), "de")
	assert.Equal(t, "Haustierausweis", preview.Title)
	assert.Equal(t, "#003366", preview.BackgroundColor)
	assert.Equal(t, "Ada Lovelace from UK", preview.PrimaryField)
	assert.Equal(t, "de", preview.Language)

	// A design without branding keeps the defaults
	preview = r.RenderPermit(&model.DesignSpecification{Overlays: permitSpec().Overlays[:2]}, ownerData(), "de")
	assert.Equal(t, DefaultBackgroundColor, preview.BackgroundColor)
	assert.Empty(t, preview.PrimaryField)

	preview = r.RenderPermit(nil, model.Record{}, "")
	assert.Equal(t, DefaultPermitTitle, preview.Title)
	assert.NotNil(t, preview.Pets)
	assert.Empty(t, preview.Pets)
}

func TestRenderCard(t *testing.T) {
	r := NewRenderer()
	schema := &model.ProcivisOneSchema{
		Name: "pet permit",
		LayoutProperties: model.ProcivisOneLayoutProperties{
			Background:         model.ProcivisOneBackground{Color: "#123456"},
			PrimaryAttribute:   "Firstname",
			SecondaryAttribute: "Country",
		},
	}

	card := r.RenderCard(schema, ownerData())

	assert.Equal(t, "pet permit", card.Title)
	assert.Equal(t, "Ada", card.PrimaryText)
	// Secondary attribute found inside the address group
	assert.Equal(t, "UK", card.SecondaryText)
	assert.Equal(t, "#123456", card.BackgroundColor)
	assert.Equal(t, "#123456", card.LogoBackgroundColor)
	assert.Equal(t, DefaultFontColor, card.LogoFontColor)
	assert.Equal(t, "P", card.Initial)
}

func TestRenderCardDefaults(t *testing.T) {
	r := NewRenderer()

	card := r.RenderCard(nil, ownerData())

	assert.Equal(t, "Ada", card.PrimaryText)
	assert.Equal(t, "Lovelace", card.SecondaryText)
	assert.Equal(t, DefaultBackgroundColor, card.BackgroundColor)
	assert.Empty(t, card.Initial)

	card = r.RenderCard(&model.ProcivisOneSchema{
		Name:             "Permit",
		LayoutProperties: model.ProcivisOneLayoutProperties{Logo: model.ProcivisOneLogo{Image: "logo.png"}},
	}, model.Record{})
	assert.Empty(t, card.PrimaryText)
	assert.Empty(t, card.Initial)
}
