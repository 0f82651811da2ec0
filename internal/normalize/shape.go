// Package normalize infers the editable data shape of a specification.
//
// Both formats reduce to the same description: simple groups of fields
// (the synthetic "root" group plus one level of nested groups such as
// "address") and repeatable arrays of objects (such as "pets"). The shape
// drives generic data editing and seeds default data records.
package normalize

import (
	"strings"
	"unicode"

	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/spec"
)

// RootGroup holds fields that live directly on the record
const RootGroup = "root"

// ArrayShape lists the fields of each element of a repeatable array
type ArrayShape struct {
	Fields []string `json:"fields" yaml:"fields"`
}

// Shape is the normalized description of the data a specification expects
type Shape struct {
	Simple map[string][]string    `json:"simple" yaml:"simple"`
	Arrays map[string]*ArrayShape `json:"arrays" yaml:"arrays"`
	// Skipped holds expressions nested deeper than the supported levels.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	groupOrder []string
	arrayOrder []string
}

// NewShape returns an empty shape
func NewShape() *Shape {
	return &Shape{
		Simple: make(map[string][]string),
		Arrays: make(map[string]*ArrayShape),
	}
}

// Groups returns simple group names in insertion order
func (s *Shape) Groups() []string {
	return append([]string(nil), s.groupOrder...)
}

// ArrayNames returns array names in insertion order
func (s *Shape) ArrayNames() []string {
	return append([]string(nil), s.arrayOrder...)
}

// AddField registers field under group, ignoring duplicates
func (s *Shape) AddField(group, field string) {
	fields, exists := s.Simple[group]
	if !exists {
		s.groupOrder = append(s.groupOrder, group)
	}
	if !contains(fields, field) {
		fields = append(fields, field)
	}
	s.Simple[group] = fields
}

// AddArray registers an array, optionally with one element field
func (s *Shape) AddArray(name, field string) {
	arr, exists := s.Arrays[name]
	if !exists {
		arr = &ArrayShape{Fields: []string{}}
		s.Arrays[name] = arr
		s.arrayOrder = append(s.arrayOrder, name)
	}
	if field != "" && !contains(arr.Fields, field) {
		arr.Fields = append(arr.Fields, field)
	}
}

// removeField drops field from group, and the group when it becomes empty
func (s *Shape) removeField(group, field string) {
	fields, exists := s.Simple[group]
	if !exists {
		return
	}
	kept := fields[:0]
	for _, f := range fields {
		if f != field {
			kept = append(kept, f)
		}
	}
	if len(kept) > 0 {
		s.Simple[group] = kept
		return
	}
	delete(s.Simple, group)
	order := s.groupOrder[:0]
	for _, g := range s.groupOrder {
		if g != group {
			order = append(order, g)
		}
	}
	s.groupOrder = order
}

// FromOCA infers the shape from the data source overlays of an OCA specification.
// "$.a" registers field a under the root group, "$.a.b" field b under group a,
// and "$.a[*].b" element field b of array a. A root field that also names an
// array (the owner's "$.pets" next to the pet base's "$.pets[*].name") is the
// array itself and is not listed under root.
func FromOCA(s *model.DesignSpecification) *Shape {
	shape := NewShape()

	for _, ds := range spec.DataSources(s) {
		for _, attr := range sourceOrder(s, ds) {
			expr := ds.AttributeSources[attr]
			path, err := ParseSourcePath(expr)
			if err != nil {
				shape.Skipped = append(shape.Skipped, expr)
				continue
			}

			if path.HasWildcard() {
				first := path.Segments[0]
				if !first.Wildcard || len(path.Segments) > 2 {
					shape.Skipped = append(shape.Skipped, expr)
					continue
				}
				field := ""
				if len(path.Segments) == 2 {
					field = path.Segments[1].Name
				}
				shape.AddArray(first.Name, field)
				continue
			}

			switch len(path.Segments) {
			case 1:
				shape.AddField(RootGroup, path.Segments[0].Name)
			case 2:
				shape.AddField(path.Segments[0].Name, path.Segments[1].Name)
			default:
				shape.Skipped = append(shape.Skipped, expr)
			}
		}
	}

	// "$.pets" on the owner refers to the array itself
	for _, name := range shape.arrayOrder {
		shape.removeField(RootGroup, name)
	}

	return shape
}

// sourceOrder lists the attributes of a data source overlay in the declaration
// order of its capture base, followed by any undeclared attributes
func sourceOrder(s *model.DesignSpecification, ds *model.DataSourceOverlay) []string {
	cb, ok := spec.CaptureBaseByID(s, ds.CaptureBase)
	if !ok {
		return sortedKeys(ds.AttributeSources)
	}
	names := make([]string, 0, len(ds.AttributeSources))
	for _, attr := range cb.AttributeNames() {
		if _, ok := ds.AttributeSources[attr]; ok {
			names = append(names, attr)
		}
	}
	for _, attr := range sortedKeys(ds.AttributeSources) {
		if _, declared := cb.Attributes[attr]; !declared {
			names = append(names, attr)
		}
	}
	return names
}

// FromProcivisOne infers the shape from a ProcivisOne claim tree
func FromProcivisOne(schema *model.ProcivisOneSchema) *Shape {
	shape := NewShape()
	if schema == nil {
		return shape
	}
	walkClaims(shape, schema.Claims, "")
	return shape
}

func walkClaims(shape *Shape, claims []model.ProcivisOneClaim, parent string) {
	for i := range claims {
		claim := &claims[i]
		key := Key(claim.Key)

		switch {
		case claim.IsRepeatableGroup():
			shape.AddArray(key, "")
			for j := range claim.Claims {
				if claim.Claims[j].Datatype != model.DatatypeObject {
					shape.AddArray(key, Key(claim.Claims[j].Key))
				}
			}
		case claim.IsGroup():
			if _, exists := shape.Simple[key]; !exists {
				shape.groupOrder = append(shape.groupOrder, key)
				shape.Simple[key] = []string{}
			}
			walkClaims(shape, claim.Claims, key)
		case parent != "":
			shape.AddField(parent, key)
		default:
			shape.AddField(RootGroup, key)
		}
	}
}

// Key normalizes a display name into a record key: lower case with
// whitespace runs replaced by underscores
func Key(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(name)), unicode.IsSpace)
	return strings.Join(fields, "_")
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
