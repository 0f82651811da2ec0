package render

import (
	"fmt"
	"strings"

	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
	"github.com/sourceplane/designbridge/internal/spec"
)

const rule = "═══════════════════════════════════════════════════════════\n"

// Viewer provides human-readable tree views of documents and shapes
type Viewer struct{}

// NewViewer creates a new viewer
func NewViewer() *Viewer {
	return &Viewer{}
}

// ViewClaims returns a tree of the claims of a ProcivisOne schema
func (v *Viewer) ViewClaims(schema *model.ProcivisOneSchema) string {
	if schema == nil || len(schema.Claims) == 0 {
		return "No claims in schema"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s [%s]\n", schema.Name, schema.Format))
	total := writeClaims(&sb, schema.Claims, "")

	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Summary: %d top-level claims, %d claims\n", len(schema.Claims), total))
	return sb.String()
}

func writeClaims(sb *strings.Builder, claims []model.ProcivisOneClaim, indent string) int {
	count := 0
	for i := range claims {
		claim := &claims[i]
		prefix, connector := branch(indent, i == len(claims)-1)

		line := fmt.Sprintf("%s%s (%s)", prefix, claim.Key, claim.Datatype)
		if claim.Array {
			line += " []"
		}
		if !claim.Required {
			line += " optional"
		}
		sb.WriteString(line + "\n")

		count++
		if len(claim.Claims) > 0 {
			count += writeClaims(sb, claim.Claims, connector)
		}
	}
	return count
}

// ViewSpecification lists capture bases with their labelled attributes and
// the overlays attached to each
func (v *Viewer) ViewSpecification(s *model.DesignSpecification, language string) string {
	if s == nil || len(s.CaptureBases) == 0 {
		return "No capture bases in specification"
	}

	var sb strings.Builder
	for i := range s.CaptureBases {
		cb := &s.CaptureBases[i]
		prefix, connector := branch("", i == len(s.CaptureBases)-1)
		sb.WriteString(fmt.Sprintf("%s%s\n", prefix, cb.Digest))

		names := cb.AttributeNames()
		attached := overlaysOf(s, cb.Digest)
		for j, name := range names {
			attrPrefix, _ := branch(connector, j == len(names)-1 && len(attached) == 0)
			label := spec.AttributeLabel(s, cb.Digest, name, language)
			line := fmt.Sprintf("%s%s: %s", attrPrefix, name, cb.Attributes[name])
			if label != name {
				line += fmt.Sprintf(" %q", label)
			}
			sb.WriteString(line + "\n")
		}
		for j, ov := range attached {
			ovPrefix, _ := branch(connector, j == len(attached)-1)
			line := fmt.Sprintf("%s(overlay) %s", ovPrefix, ov.TypeTag())
			if lang := ov.Lang(); lang != "" {
				line += fmt.Sprintf(" [%s]", lang)
			}
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Summary: %d capture bases, %d overlays, languages: %s\n",
		len(s.CaptureBases), len(s.Overlays), strings.Join(spec.AvailableLanguages(s), ", ")))
	return sb.String()
}

func overlaysOf(s *model.DesignSpecification, digest string) []model.Overlay {
	var result []model.Overlay
	for _, ov := range s.Overlays {
		if ov.CaptureBaseDigest() == digest {
			result = append(result, ov)
		}
	}
	return result
}

// ViewShape returns a tree of an inferred data shape
func (v *Viewer) ViewShape(shape *normalize.Shape) string {
	if shape == nil {
		return "No fields in shape"
	}
	groups := shape.Groups()
	arrays := shape.ArrayNames()
	if len(groups) == 0 && len(arrays) == 0 {
		return "No fields in shape"
	}

	var sb strings.Builder
	entries := len(groups) + len(arrays)
	n := 0
	for _, group := range groups {
		n++
		prefix, connector := branch("", n == entries)
		sb.WriteString(fmt.Sprintf("%s%s\n", prefix, group))
		writeLeaves(&sb, shape.Simple[group], connector)
	}
	for _, name := range arrays {
		n++
		prefix, connector := branch("", n == entries)
		sb.WriteString(fmt.Sprintf("%s%s[*]\n", prefix, name))
		writeLeaves(&sb, shape.Arrays[name].Fields, connector)
	}

	if len(shape.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("(skipped) %s\n", strings.Join(shape.Skipped, ", ")))
	}
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Summary: %d groups, %d arrays\n", len(groups), len(arrays)))
	return sb.String()
}

func writeLeaves(sb *strings.Builder, fields []string, indent string) {
	for i, f := range fields {
		prefix, _ := branch(indent, i == len(fields)-1)
		sb.WriteString(prefix + f + "\n")
	}
}

// branch returns the line prefix for an entry and the indent for its children
func branch(indent string, last bool) (string, string) {
	if last {
		return indent + "└─ ", indent + "   "
	}
	return indent + "├─ ", indent + "│  "
}
