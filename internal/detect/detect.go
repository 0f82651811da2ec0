// Package detect recognizes which of the supported document formats a decoded
// JSON value is.
package detect

import (
	"fmt"
	"strings"

	"github.com/sourceplane/designbridge/internal/model"
)

// FormatType names a document format
type FormatType string

const (
	FormatOCA         FormatType = "OCA"
	FormatProcivisOne FormatType = "ProcivisOne"
	FormatUnknown     FormatType = "Unknown"
)

// ocaMarkers are the overlay types that identify an OCA document
var ocaMarkers = map[string]bool{
	model.TypeMeta:     true,
	model.TypeBranding: true,
	model.TypeLabel:    true,
}

// DetectFormatType classifies v. Typed documents are inspected through their
// JSON encoding.
func DetectFormatType(v any) FormatType {
	generic, err := model.ToGeneric(v)
	if err != nil {
		return FormatUnknown
	}
	doc, ok := generic.(map[string]any)
	if !ok {
		return FormatUnknown
	}

	if isOCA(doc) {
		return FormatOCA
	}
	if isProcivisOne(doc) {
		return FormatProcivisOne
	}
	return FormatUnknown
}

func isOCA(doc map[string]any) bool {
	if _, ok := doc["capture_bases"].([]any); !ok {
		return false
	}
	overlays, ok := doc["overlays"].([]any)
	if !ok {
		return false
	}
	for _, item := range overlays {
		ov, _ := item.(map[string]any)
		if tag, _ := ov["type"].(string); ocaMarkers[tag] {
			return true
		}
	}
	return false
}

func isProcivisOne(doc map[string]any) bool {
	if _, ok := doc["name"].(string); !ok {
		return false
	}
	if doc["format"] != model.ProcivisFormat || doc["schemaType"] != model.ProcivisSchemaType {
		return false
	}
	if _, ok := doc["claims"].([]any); !ok {
		return false
	}
	layout, ok := doc["layoutProperties"].(map[string]any)
	if !ok {
		return false
	}
	return present(layout["background"]) && present(layout["logo"])
}

// present mirrors a truthiness check on an object member
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

// IsConvertibleFormat reports whether v can be turned into target: it is
// already in target, or the pair is OCA and ProcivisOne in either direction.
func IsConvertibleFormat(v any, target FormatType) bool {
	source := DetectFormatType(v)
	if source == FormatUnknown {
		return false
	}
	if source == target {
		return true
	}
	return (source == FormatOCA && target == FormatProcivisOne) ||
		(source == FormatProcivisOne && target == FormatOCA)
}

// ParseFormatType parses a format name case-insensitively. "procivis" and
// "p1" are accepted for ProcivisOne.
func ParseFormatType(s string) (FormatType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oca":
		return FormatOCA, nil
	case "procivisone", "procivis", "p1":
		return FormatProcivisOne, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown format %q (expected OCA or ProcivisOne)", s)
	}
}
