package convert

import (
	"fmt"

	"github.com/sourceplane/designbridge/internal/diagnostic"
	"github.com/sourceplane/designbridge/internal/format"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
)

// ocaBuilder accumulates the owner and pet halves of a generated specification
type ocaBuilder struct {
	owner, pet               model.CaptureBase
	ownerSources, petSources map[string]string
	ownerLabels, petLabels   map[string]string

	clusterOrder  map[string]int
	clusterLabels map[string]string
	clusterAttrs  map[string]map[string]int

	hasPets bool
	diags   *diagnostic.Diagnostics
}

func newOCABuilder(diags *diagnostic.Diagnostics) *ocaBuilder {
	return &ocaBuilder{
		owner:         model.NewCaptureBase(model.OwnerDigest),
		pet:           model.NewCaptureBase(model.PetDigest),
		ownerSources:  make(map[string]string),
		petSources:    make(map[string]string),
		ownerLabels:   make(map[string]string),
		petLabels:     make(map[string]string),
		clusterOrder:  make(map[string]int),
		clusterLabels: make(map[string]string),
		clusterAttrs:  make(map[string]map[string]int),
		diags:         diags,
	}
}

// ToOCA builds an OCA specification from a ProcivisOne schema
func (c *Converter) ToOCA(schema *model.ProcivisOneSchema) (*model.DesignSpecification, *diagnostic.Diagnostics) {
	diags := diagnostic.New()
	if schema == nil {
		schema = &model.ProcivisOneSchema{}
	}

	b := newOCABuilder(diags)
	for i := range schema.Claims {
		claim := &schema.Claims[i]
		path := fmt.Sprintf("claims[%d]", i)
		key := normalize.Key(claim.Key)

		switch {
		case claim.IsRepeatableGroup():
			if key != petsAttribute || b.hasPets {
				diags.AddWarning(CodeDroppedArray,
					fmt.Sprintf("%s: repeatable claim %q has no OCA counterpart; dropped", path, claim.Key), path)
				continue
			}
			b.addPets(claim, path)
		case claim.IsGroup():
			b.addGroup(key, claim, path)
		default:
			b.addOwner(key, claim.Key, model.AttributeForDatatype(claim.Datatype), normalize.FieldPath("", key), path)
		}
	}

	lang := c.outputLanguage()
	lp := schema.LayoutProperties
	color := lp.Background.Color
	if color == "" {
		color = DefaultBackgroundColor
	}

	overlays := []model.Overlay{
		&model.DataSourceOverlay{
			Type:             model.TypeDataSource,
			CaptureBase:      model.OwnerDigest,
			Format:           dataSourceFormat,
			AttributeSources: b.ownerSources,
		},
		&model.DataSourceOverlay{
			Type:             model.TypeDataSource,
			CaptureBase:      model.PetDigest,
			Format:           dataSourceFormat,
			AttributeSources: b.petSources,
		},
		&model.BrandingOverlay{
			Type:                   model.TypeBranding,
			CaptureBase:            model.OwnerDigest,
			Language:               lang,
			Theme:                  DefaultTheme,
			Logo:                   lp.Logo.Image,
			PrimaryBackgroundColor: color,
			PrimaryField:           c.primaryField(lp, &b.owner),
		},
		&model.MetaOverlay{
			Type:        model.TypeMeta,
			CaptureBase: model.OwnerDigest,
			Language:    lang,
			Name:        schema.Name,
		},
		&model.LabelOverlay{
			Type:            model.TypeLabel,
			CaptureBase:     model.OwnerDigest,
			Language:        lang,
			AttributeLabels: b.ownerLabels,
		},
		&model.LabelOverlay{
			Type:            model.TypeLabel,
			CaptureBase:     model.PetDigest,
			Language:        lang,
			AttributeLabels: b.petLabels,
		},
	}
	if len(b.clusterOrder) > 0 {
		overlays = append(overlays, &model.ClusterOrderingOverlay{
			Type:                  model.TypeClusterOrdering,
			CaptureBase:           model.OwnerDigest,
			Language:              lang,
			ClusterOrder:          b.clusterOrder,
			ClusterLabels:         b.clusterLabels,
			AttributeClusterOrder: b.clusterAttrs,
		})
	}

	return &model.DesignSpecification{
		CaptureBases: []model.CaptureBase{b.owner, b.pet},
		Overlays:     overlays,
	}, diags
}

// addOwner declares a scalar owner attribute
func (b *ocaBuilder) addOwner(attr, label, tag, source, path string) {
	if _, exists := b.owner.Attributes[attr]; exists {
		b.diags.AddWarning(CodeDuplicateAttribute,
			fmt.Sprintf("%s: attribute %q declared more than once; last declaration wins", path, attr), path)
	}
	b.owner.SetAttribute(attr, tag)
	b.ownerSources[attr] = source
	b.ownerLabels[attr] = label
}

// addPets fills the pet capture base from the Pets claim
func (b *ocaBuilder) addPets(claim *model.ProcivisOneClaim, path string) {
	for j := range claim.Claims {
		sub := &claim.Claims[j]
		subPath := fmt.Sprintf("%s.claims[%d]", path, j)
		if sub.Datatype == model.DatatypeObject {
			b.diags.AddWarning(CodeDroppedNesting,
				fmt.Sprintf("%s: nested object %q inside %q is not supported; dropped", subPath, sub.Key, claim.Key), subPath)
			continue
		}
		attr := normalize.Key(sub.Key)
		b.pet.SetAttribute(attr, model.AttrText)
		b.petLabels[attr] = sub.Key
		b.petSources[attr] = normalize.ArrayFieldPath(petsAttribute, attr)
	}

	b.owner.SetAttribute(petsAttribute, model.ArrayRefTag(model.PetDigest))
	b.ownerSources[petsAttribute] = normalize.FieldPath("", petsAttribute)
	b.ownerLabels[petsAttribute] = claim.Key
	b.hasPets = true
}

// addGroup flattens a non-repeating OBJECT claim into group_field attributes
func (b *ocaBuilder) addGroup(group string, claim *model.ProcivisOneClaim, path string) {
	if _, exists := b.clusterOrder[group]; !exists {
		b.clusterOrder[group] = len(b.clusterOrder)
		b.clusterAttrs[group] = make(map[string]int)
	}
	b.clusterLabels[group] = claim.Key

	for j := range claim.Claims {
		sub := &claim.Claims[j]
		subPath := fmt.Sprintf("%s.claims[%d]", path, j)
		if sub.Datatype == model.DatatypeObject {
			b.diags.AddWarning(CodeDroppedNesting,
				fmt.Sprintf("%s: nested object %q inside %q is not supported; dropped", subPath, sub.Key, claim.Key), subPath)
			continue
		}
		field := normalize.Key(sub.Key)
		attr := format.GroupedToken(group, field)
		b.addOwner(attr, sub.Key, model.AttributeForDatatype(sub.Datatype), normalize.FieldPath(group, field), subPath)
		b.clusterAttrs[group][attr] = len(b.clusterAttrs[group])
	}
}

// primaryField synthesizes the branding template from the layout attributes
func (c *Converter) primaryField(lp model.ProcivisOneLayoutProperties, owner *model.CaptureBase) string {
	primary := tokenFor(normalize.Key(lp.PrimaryAttribute), owner)
	secondary := tokenFor(normalize.Key(lp.SecondaryAttribute), owner)

	var template string
	switch {
	case primary == "firstname" && secondary == "lastname":
		template = "{{firstname}} {{lastname}}"
	case primary == "lastname" && secondary == "firstname":
		template = "{{lastname}}, {{firstname}}"
	case primary == "" && secondary == "":
		return ""
	case primary == "":
		template = placeholder(secondary)
	case secondary == "":
		template = placeholder(primary)
	default:
		template = placeholder(primary) + " " + placeholder(secondary)
	}

	switch c.origin {
	case OriginAlways:
		template += " from " + placeholder(countryToken)
	case OriginAuto:
		if _, ok := owner.Attributes[countryToken]; ok {
			template += " from " + placeholder(countryToken)
		}
	}
	return template
}

// tokenFor resolves a layout attribute key to the owner attribute that holds
// it: an exact match, else a group member ending in "_key"
func tokenFor(key string, owner *model.CaptureBase) string {
	if key == "" {
		return ""
	}
	if _, ok := owner.Attributes[key]; ok {
		return key
	}
	for _, attr := range owner.AttributeNames() {
		if len(attr) > len(key) && attr[len(attr)-len(key)-1:] == "_"+key {
			return attr
		}
	}
	return key
}

func placeholder(token string) string {
	return "{{" + token + "}}"
}
