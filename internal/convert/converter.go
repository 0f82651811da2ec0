// Package convert translates between OCA design specifications and
// ProcivisOne credential schemas.
//
// The conversion is lossy by construction. Attribute names, labels, branding
// colour and logo, the meta name and the pets/address grouping survive a round
// trip. Digests, additional languages and the exact primary field template do
// not. Inputs are never mutated; every call builds new documents.
package convert

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sourceplane/designbridge/internal/diagnostic"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
	"github.com/sourceplane/designbridge/internal/spec"
)

// Fallback values used when a document leaves them out
const (
	DefaultSchemaName      = "Unnamed Schema"
	DefaultBackgroundColor = "#2C75E3"
	DefaultFontColor       = "#fff"
	DefaultLanguage        = "en"
	DefaultTheme           = "light"
	DefaultPrimary         = "Firstname"
	DefaultSecondary       = "Lastname"

	dataSourceFormat = "json"
	petsAttribute    = "pets"
	countryToken     = "address_country"
)

// Warning codes reported by the converter
const (
	CodeDroppedArray       = "dropped_array"
	CodeDroppedNesting     = "dropped_nesting"
	CodeDuplicateAttribute = "duplicate_attribute"
	CodeMissingArrayBase   = "missing_array_base"
)

// OriginClause controls the " from {{address_country}}" suffix of synthesized
// primary field templates
type OriginClause int

const (
	// OriginAuto appends the clause only when an address_country attribute exists
	OriginAuto OriginClause = iota
	// OriginAlways appends the clause unconditionally
	OriginAlways
	// OriginNever omits the clause
	OriginNever
)

// String returns the flag form of the mode
func (o OriginClause) String() string {
	switch o {
	case OriginAlways:
		return "always"
	case OriginNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseOriginClause parses "auto", "always" or "never"
func ParseOriginClause(s string) (OriginClause, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return OriginAuto, nil
	case "always":
		return OriginAlways, nil
	case "never":
		return OriginNever, nil
	default:
		return OriginAuto, fmt.Errorf("unknown origin clause mode %q (expected auto, always or never)", s)
	}
}

// Converter holds conversion options
type Converter struct {
	language string
	origin   OriginClause
}

// Option configures a Converter
type Option func(*Converter)

// WithLanguage selects the overlays read when converting from OCA and the
// language tag emitted when converting to OCA
func WithLanguage(language string) Option {
	return func(c *Converter) {
		c.language = language
	}
}

// WithOriginClause sets the origin clause policy for primary field synthesis
func WithOriginClause(mode OriginClause) Option {
	return func(c *Converter) {
		c.origin = mode
	}
}

// NewConverter creates a converter
func NewConverter(opts ...Option) *Converter {
	c := &Converter{origin: OriginAuto}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OCAToProcivisOne converts with default options, discarding warnings
func OCAToProcivisOne(s *model.DesignSpecification) *model.ProcivisOneSchema {
	schema, _ := NewConverter().ToProcivisOne(s)
	return schema
}

// ProcivisOneToOCA converts with default options, discarding warnings
func ProcivisOneToOCA(schema *model.ProcivisOneSchema) *model.DesignSpecification {
	s, _ := NewConverter().ToOCA(schema)
	return s
}

// outputLanguage is the language tag written to generated overlays
func (c *Converter) outputLanguage() string {
	if c.language == "" {
		return DefaultLanguage
	}
	return c.language
}

// ToProcivisOne builds a ProcivisOne schema from an OCA specification.
// Attributes bound to "$.group.field" become sub-claims of one OBJECT claim per
// group rather than flat STRING leaves, so the grouping survives a round trip.
// Meta, branding and labels prefer the configured language and fall back to
// any language.
func (c *Converter) ToProcivisOne(s *model.DesignSpecification) (*model.ProcivisOneSchema, *diagnostic.Diagnostics) {
	diags := diagnostic.New()
	if s == nil {
		s = &model.DesignSpecification{}
	}

	name := DefaultSchemaName
	if meta, ok := spec.LocalizedMeta(s, c.language); ok && meta.Name != "" {
		name = meta.Name
	}

	color := DefaultBackgroundColor
	logo := ""
	if branding, ok := spec.LocalizedBranding(s, c.language); ok {
		if branding.PrimaryBackgroundColor != "" {
			color = branding.PrimaryBackgroundColor
		}
		logo = branding.Logo
	}

	elements := spec.ArrayElementBases(s)
	claims := make([]model.ProcivisOneClaim, 0)
	for i := range s.CaptureBases {
		cb := &s.CaptureBases[i]
		if _, isElement := elements[cb.Digest]; isElement {
			continue
		}
		claims = append(claims, c.claimsFor(s, cb, diags)...)
	}

	schema := &model.ProcivisOneSchema{
		Name:              name,
		Format:            model.ProcivisFormat,
		RevocationMethod:  model.ProcivisRevocationMethod,
		Claims:            claims,
		WalletStorageType: model.ProcivisWalletStorage,
		SchemaType:        model.ProcivisSchemaType,
		LayoutType:        model.ProcivisLayoutType,
		LayoutProperties: model.ProcivisOneLayoutProperties{
			Background: model.ProcivisOneBackground{Color: color},
			Logo: model.ProcivisOneLogo{
				Image:           logo,
				FontColor:       DefaultFontColor,
				BackgroundColor: color,
			},
			PrimaryAttribute:   DefaultPrimary,
			SecondaryAttribute: DefaultSecondary,
		},
	}
	return schema, diags
}

// claimsFor turns the attributes of one capture base into claims. Attributes
// bound to "$.group.field" are gathered into one OBJECT claim per group,
// placed where the first member was declared.
func (c *Converter) claimsFor(s *model.DesignSpecification, cb *model.CaptureBase, diags *diagnostic.Diagnostics) []model.ProcivisOneClaim {
	groups := groupedAttributes(s, cb.Digest)
	groupIndex := make(map[string]int)
	claims := make([]model.ProcivisOneClaim, 0, len(cb.Attributes))

	for _, attr := range cb.AttributeNames() {
		tag := cb.Attributes[attr]
		label := spec.AttributeLabel(s, cb.Digest, attr, c.language)

		if ref, isArray := model.ParseArrayRef(tag); isArray || attr == petsAttribute {
			if !isArray {
				ref = model.PetDigest
			}
			claims = append(claims, c.arrayClaim(s, attr, label, ref, diags))
			continue
		}

		group, grouped := groups[attr]
		if !grouped {
			claims = append(claims, newClaim(label, model.DatatypeForAttribute(tag), false))
			continue
		}

		idx, exists := groupIndex[group]
		if !exists {
			groupLabel, ok := spec.ClusterLabel(s, cb.Digest, group, c.language)
			if !ok {
				groupLabel = titleCase(group)
			}
			claims = append(claims, newClaim(groupLabel, model.DatatypeObject, false))
			idx = len(claims) - 1
			groupIndex[group] = idx
		}
		claims[idx].Claims = append(claims[idx].Claims, newClaim(label, model.DatatypeForAttribute(tag), false))
	}

	return claims
}

// arrayClaim builds the OBJECT/array claim for an attribute referencing the
// capture base with the given digest
func (c *Converter) arrayClaim(s *model.DesignSpecification, attr, label, digest string, diags *diagnostic.Diagnostics) model.ProcivisOneClaim {
	claim := newClaim(label, model.DatatypeObject, true)

	element, ok := spec.CaptureBaseByID(s, digest)
	if !ok {
		diags.AddWarning(CodeMissingArrayBase,
			fmt.Sprintf("attribute %q references missing capture base %q; emitted without sub-claims", attr, digest), attr)
		return claim
	}

	for _, name := range element.AttributeNames() {
		tag := element.Attributes[name]
		if _, nested := model.ParseArrayRef(tag); nested {
			diags.AddWarning(CodeDroppedNesting,
				fmt.Sprintf("attribute %q of %q nests another array; dropped", name, attr), attr+"."+name)
			continue
		}
		subLabel := spec.AttributeLabel(s, digest, name, c.language)
		claim.Claims = append(claim.Claims, newClaim(subLabel, model.DatatypeForAttribute(tag), false))
	}
	return claim
}

// groupedAttributes maps attributes of a capture base bound to "$.group.field"
// to their group name
func groupedAttributes(s *model.DesignSpecification, digest string) map[string]string {
	groups := make(map[string]string)
	for _, ds := range spec.DataSources(s) {
		if ds.CaptureBase != digest {
			continue
		}
		for attr, expr := range ds.AttributeSources {
			path, err := normalize.ParseSourcePath(expr)
			if err != nil || path.HasWildcard() || len(path.Segments) != 2 {
				continue
			}
			if _, seen := groups[attr]; !seen {
				groups[attr] = path.Segments[0].Name
			}
		}
	}
	return groups
}

func newClaim(key string, datatype model.Datatype, array bool) model.ProcivisOneClaim {
	return model.ProcivisOneClaim{
		Key:      key,
		Datatype: datatype,
		Required: true,
		Array:    array,
		Claims:   []model.ProcivisOneClaim{},
	}
}

// titleCase upper-cases the first letter of each underscore separated word
func titleCase(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || unicode.IsSpace(r) })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
