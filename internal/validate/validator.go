// Package validate checks the structural soundness of OCA design specifications.
//
// ValidateSpecification is fail-fast and reports the first violation only, in
// this order:
//
//  1. capture_bases and overlays are present and are arrays
//  2. every capture base has a non-empty type and digest and an attributes object
//  3. every overlay has a string type and capture_base referencing a known digest
//  4. data source, branding and meta overlays carry their required fields
//  5. at least one branding, meta and data source overlay exists
//
// ValidateAll walks the same rules but collects every violation, plus warnings.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/sourceplane/designbridge/internal/diagnostic"
	"github.com/sourceplane/designbridge/internal/format"
	"github.com/sourceplane/designbridge/internal/model"
)

// Diagnostic codes
const (
	CodeNotObject             = "not_object"
	CodeMissingField          = "missing_field"
	CodeInvalidCaptureBase    = "invalid_capture_base"
	CodeInvalidOverlay        = "invalid_overlay"
	CodeDanglingCaptureBase   = "dangling_capture_base"
	CodeMissingOverlay        = "missing_overlay"
	CodeUnknownOverlayType    = "unknown_overlay_type"
	CodeUnresolvedPlaceholder = "unresolved_placeholder"
)

// Result is the outcome of ValidateSpecification
type Result struct {
	Valid bool
	Error string
}

// MarshalJSON encodes an absent error as null
func (r Result) MarshalJSON() ([]byte, error) {
	var errField *string
	if !r.Valid {
		errField = &r.Error
	}
	return json.Marshal(struct {
		Valid bool    `json:"valid"`
		Error *string `json:"error"`
	}{Valid: r.Valid, Error: errField})
}

// reporter receives violations; returning false stops the walk
type reporter func(code, message, path string) bool

// ValidateSpecification returns the first structural defect of candidate
func ValidateSpecification(candidate any) Result {
	result := Result{Valid: true}
	check(candidate, func(code, message, path string) bool {
		result = Result{Valid: false, Error: message}
		return false
	})
	return result
}

// ValidateAll returns every structural defect of candidate along with warnings
func ValidateAll(candidate any) *diagnostic.Diagnostics {
	diags := diagnostic.New()
	completed := check(candidate, func(code, message, path string) bool {
		diags.AddError(code, message, path)
		return true
	})
	if completed {
		warn(candidate, diags)
	}
	return diags
}

// check walks the rules in order. It returns false if the walk stopped early
// or the document was too malformed to continue.
func check(candidate any, report reporter) bool {
	generic, err := model.ToGeneric(candidate)
	if err != nil {
		report(CodeNotObject, fmt.Sprintf("specification could not be read: %v", err), "")
		return false
	}

	doc, ok := generic.(map[string]any)
	if !ok {
		report(CodeNotObject, "specification must be a JSON object", "")
		return false
	}

	captureBases, ok := requireArray(doc, "capture_bases", report)
	if !ok {
		return false
	}
	overlays, ok := requireArray(doc, "overlays", report)
	if !ok {
		return false
	}

	digests := make(map[string]bool)
	for i, item := range captureBases {
		path := fmt.Sprintf("capture_bases[%d]", i)
		cb, ok := item.(map[string]any)
		if !ok {
			if !report(CodeInvalidCaptureBase, path+" must be an object", path) {
				return false
			}
			continue
		}
		if !nonEmptyString(cb["type"]) {
			if !report(CodeInvalidCaptureBase, path+": type must be a non-empty string", path) {
				return false
			}
		}
		if digest, _ := cb["digest"].(string); digest == "" {
			if !report(CodeInvalidCaptureBase, path+": digest must be a non-empty string", path) {
				return false
			}
		} else {
			digests[digest] = true
		}
		if _, ok := cb["attributes"].(map[string]any); !ok {
			if !report(CodeInvalidCaptureBase, path+": attributes must be an object", path) {
				return false
			}
		}
	}

	seen := make(map[model.OverlayKind]bool)
	for i, item := range overlays {
		path := fmt.Sprintf("overlays[%d]", i)
		ov, ok := item.(map[string]any)
		if !ok {
			if !report(CodeInvalidOverlay, path+" must be an object", path) {
				return false
			}
			continue
		}

		typeTag, typeOK := ov["type"].(string)
		if !typeOK {
			if !report(CodeInvalidOverlay, path+": type must be a string", path) {
				return false
			}
		}
		captureBase, cbOK := ov["capture_base"].(string)
		if !cbOK {
			if !report(CodeInvalidOverlay, path+": capture_base must be a string", path) {
				return false
			}
		} else if !digests[captureBase] {
			msg := fmt.Sprintf("%s: references non-existent capture_base %q", path, captureBase)
			if !report(CodeDanglingCaptureBase, msg, path) {
				return false
			}
		}
		if !typeOK {
			continue
		}

		kind := model.KindOf(typeTag)
		if !checkOverlayFields(ov, kind, fmt.Sprintf("%s (%s)", path, typeTag), report) {
			return false
		}
		seen[kind] = true
	}

	for _, kind := range []model.OverlayKind{model.KindBranding, model.KindMeta, model.KindDataSource} {
		if seen[kind] {
			continue
		}
		msg := fmt.Sprintf("specification requires at least one %s overlay (%s)", kindTitle(kind), kind.TypeTag())
		if !report(CodeMissingOverlay, msg, "overlays") {
			return false
		}
	}

	return true
}

// requiredFields lists the type-specific fields and whether each must be an object
var requiredFields = map[model.OverlayKind][]struct {
	name   string
	object bool
}{
	model.KindDataSource: {{"format", false}, {"attribute_sources", true}},
	model.KindBranding:   {{"language", false}, {"primary_background_color", false}},
	model.KindMeta:       {{"language", false}, {"name", false}},
}

func checkOverlayFields(ov map[string]any, kind model.OverlayKind, path string, report reporter) bool {
	for _, field := range requiredFields[kind] {
		if field.object {
			if _, ok := ov[field.name].(map[string]any); !ok {
				if !report(CodeInvalidOverlay, fmt.Sprintf("%s: %s must be an object", path, field.name), path) {
					return false
				}
			}
			continue
		}
		if _, ok := ov[field.name].(string); !ok {
			if !report(CodeInvalidOverlay, fmt.Sprintf("%s: %s must be a string", path, field.name), path) {
				return false
			}
		}
	}
	return true
}

func requireArray(doc map[string]any, field string, report reporter) ([]any, bool) {
	value, present := doc[field]
	if !present || value == nil {
		report(CodeMissingField, fmt.Sprintf("specification is missing required field %q", field), field)
		return nil, false
	}
	items, ok := value.([]any)
	if !ok {
		report(CodeMissingField, fmt.Sprintf("field %q must be an array", field), field)
		return nil, false
	}
	return items, true
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

func kindTitle(kind model.OverlayKind) string {
	switch kind {
	case model.KindDataSource:
		return "data source"
	case model.KindClusterOrdering:
		return "cluster ordering"
	default:
		return kind.String()
	}
}

// warn adds non-fatal findings to a structurally valid document
func warn(candidate any, diags *diagnostic.Diagnostics) {
	generic, err := model.ToGeneric(candidate)
	if err != nil {
		return
	}
	doc, _ := generic.(map[string]any)
	overlays, _ := doc["overlays"].([]any)

	tokens := make(map[string]bool)
	var templates []struct{ path, template string }

	for i, item := range overlays {
		ov, _ := item.(map[string]any)
		path := fmt.Sprintf("overlays[%d]", i)
		typeTag, _ := ov["type"].(string)

		switch model.KindOf(typeTag) {
		case model.KindUnknown:
			diags.AddWarning(CodeUnknownOverlayType, fmt.Sprintf("%s: overlay type %q is not interpreted", path, typeTag), path)
		case model.KindDataSource:
			sources, _ := ov["attribute_sources"].(map[string]any)
			for attr, expr := range sources {
				tokens[attr] = true
				if s, ok := expr.(string); ok {
					tokens[pathToken(s)] = true
				}
			}
		case model.KindBranding:
			if tpl, ok := ov["primary_field"].(string); ok {
				templates = append(templates, struct{ path, template string }{path, tpl})
			}
		}
	}

	for _, t := range templates {
		for _, token := range format.Placeholders(t.template) {
			if tokens[token] {
				continue
			}
			diags.AddWarning(CodeUnresolvedPlaceholder,
				fmt.Sprintf("%s: primary_field placeholder {{%s}} matches no data source attribute", t.path, token), t.path)
		}
	}
}

// pathToken turns "$.address.street" into "address_street"
func pathToken(expr string) string {
	token := make([]byte, 0, len(expr))
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case i == 0 && c == '$':
		case c == '.':
			if len(token) > 0 {
				token = append(token, '_')
			}
		default:
			token = append(token, c)
		}
	}
	return string(token)
}
