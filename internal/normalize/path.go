package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// SourceSegment is one step of a data source expression
type SourceSegment struct {
	Name     string
	Wildcard bool // segment is followed by [*]
}

// SourcePath is a parsed data source expression such as "$.pets[*].name"
type SourcePath struct {
	Segments []SourceSegment
}

// ParseSourcePath parses "$.field", "$.group.field", "$.array[*]" and
// "$.array[*].field". The "$." prefix is optional.
func ParseSourcePath(expr string) (SourcePath, error) {
	if expr == "" {
		return SourcePath{}, errors.New("empty path")
	}

	body := strings.TrimPrefix(strings.TrimPrefix(expr, "$"), ".")
	if body == "" {
		return SourcePath{}, fmt.Errorf("invalid path %q: no segments", expr)
	}

	var segments []SourceSegment
	for _, part := range strings.Split(body, ".") {
		if part == "" {
			return SourcePath{}, fmt.Errorf("invalid path %q: empty segment", expr)
		}

		wildcard := false
		name := part
		if strings.HasSuffix(part, "[*]") {
			wildcard = true
			name = strings.TrimSuffix(part, "[*]")
			if name == "" {
				return SourcePath{}, fmt.Errorf("invalid path %q: wildcard without field name", expr)
			}
		}

		if !isValidName(name) {
			return SourcePath{}, fmt.Errorf("invalid path %q: invalid segment %q", expr, name)
		}

		segments = append(segments, SourceSegment{Name: name, Wildcard: wildcard})
	}

	return SourcePath{Segments: segments}, nil
}

// HasWildcard reports whether any segment iterates an array
func (p SourcePath) HasWildcard() bool {
	for _, seg := range p.Segments {
		if seg.Wildcard {
			return true
		}
	}
	return false
}

// String renders the path back into "$." form
func (p SourcePath) String() string {
	parts := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		parts[i] = seg.Name
		if seg.Wildcard {
			parts[i] += "[*]"
		}
	}
	return "$." + strings.Join(parts, ".")
}

// FieldPath builds "$.field" or "$.group.field"
func FieldPath(group, field string) string {
	if group == "" {
		return "$." + field
	}
	return "$." + group + "." + field
}

// ArrayFieldPath builds "$.array[*].field"
func ArrayFieldPath(array, field string) string {
	return "$." + array + "[*]." + field
}

// isValidName accepts letters, digits, underscores and hyphens
func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isLetter(r) && !isDigit(r) && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
