package render

import (
	"strings"
	"unicode/utf8"

	"github.com/sourceplane/designbridge/internal/format"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
	"github.com/sourceplane/designbridge/internal/spec"
)

// Preview fallbacks
const (
	DefaultPermitTitle     = "Pet Permit"
	DefaultBackgroundColor = "#2C75E3"
	DefaultFontColor       = "#fff"
	DefaultPrimary         = "Firstname"
	DefaultSecondary       = "Lastname"
)

// PermitPreview is the rendered OCA design
type PermitPreview struct {
	Title           string          `json:"title" yaml:"title"`
	PrimaryField    string          `json:"primaryField" yaml:"primaryField"`
	BackgroundColor string          `json:"backgroundColor" yaml:"backgroundColor"`
	Logo            string          `json:"logo,omitempty" yaml:"logo,omitempty"`
	Language        string          `json:"language,omitempty" yaml:"language,omitempty"`
	Pets            []model.PetData `json:"pets" yaml:"pets"`
}

// CardPreview is the rendered ProcivisOne card
type CardPreview struct {
	Title               string `json:"title" yaml:"title"`
	PrimaryText         string `json:"primaryText" yaml:"primaryText"`
	SecondaryText       string `json:"secondaryText,omitempty" yaml:"secondaryText,omitempty"`
	BackgroundColor     string `json:"backgroundColor" yaml:"backgroundColor"`
	BackgroundImage     string `json:"backgroundImage,omitempty" yaml:"backgroundImage,omitempty"`
	Logo                string `json:"logo,omitempty" yaml:"logo,omitempty"`
	LogoFontColor       string `json:"logoFontColor" yaml:"logoFontColor"`
	LogoBackgroundColor string `json:"logoBackgroundColor" yaml:"logoBackgroundColor"`
	// Initial stands in for a missing logo
	Initial string `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// RenderPermit binds data to an OCA design. It never fails. Meta and branding
// in another language stand in for a missing translation, and missing overlays
// fall back to defaults.
func (r *Renderer) RenderPermit(s *model.DesignSpecification, data model.Record, language string) *PermitPreview {
	preview := &PermitPreview{
		Title:           DefaultPermitTitle,
		BackgroundColor: DefaultBackgroundColor,
		Language:        language,
		Pets:            pets(data),
	}

	if meta, ok := spec.LocalizedMeta(s, language); ok && meta.Name != "" {
		preview.Title = meta.Name
	}
	if branding, ok := spec.LocalizedBranding(s, language); ok {
		if branding.PrimaryBackgroundColor != "" {
			preview.BackgroundColor = branding.PrimaryBackgroundColor
		}
		preview.Logo = branding.Logo
		preview.PrimaryField = format.FormatPrimaryField(branding.PrimaryField, data)
	}
	return preview
}

func pets(data model.Record) []model.PetData {
	objects := data.Objects("pets")
	result := make([]model.PetData, 0, len(objects))
	for _, obj := range objects {
		result = append(result, model.PetData{Name: obj["name"], Race: obj["race"]})
	}
	return result
}

// RenderCard binds data to a ProcivisOne schema. The primary and secondary
// attributes are looked up by normalized key, first on the record root and
// then in any group.
func (r *Renderer) RenderCard(schema *model.ProcivisOneSchema, data model.Record) *CardPreview {
	if schema == nil {
		schema = &model.ProcivisOneSchema{}
	}
	lp := schema.LayoutProperties

	primaryAttr := lp.PrimaryAttribute
	if primaryAttr == "" {
		primaryAttr = DefaultPrimary
	}
	secondaryAttr := lp.SecondaryAttribute
	if secondaryAttr == "" {
		secondaryAttr = DefaultSecondary
	}

	card := &CardPreview{
		Title:               schema.Name,
		PrimaryText:         lookupAttribute(data, primaryAttr),
		SecondaryText:       lookupAttribute(data, secondaryAttr),
		BackgroundColor:     firstNonEmpty(lp.Background.Color, DefaultBackgroundColor),
		BackgroundImage:     lp.Background.Image,
		Logo:                lp.Logo.Image,
		LogoFontColor:       firstNonEmpty(lp.Logo.FontColor, DefaultFontColor),
		LogoBackgroundColor: firstNonEmpty(lp.Logo.BackgroundColor, lp.Background.Color, DefaultBackgroundColor),
	}
	if card.Logo == "" && card.Title != "" {
		first, _ := utf8.DecodeRuneInString(card.Title)
		card.Initial = strings.ToUpper(string(first))
	}
	return card
}

func lookupAttribute(data model.Record, attribute string) string {
	key := normalize.Key(attribute)
	if v, ok := data.String(key); ok {
		return v
	}
	for _, name := range sortedRecordKeys(data) {
		group, ok := data[name].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := group[key].(string); ok {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
