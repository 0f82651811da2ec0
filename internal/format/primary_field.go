// Package format binds primary field display templates against a data record.
//
// Templates embed two kinds of placeholders:
//
//	{{field}}        top-level string value, e.g. {{firstname}}
//	{{group_field}}  value of field inside the nested group object, e.g. {{address_country}}
//
// Grouped placeholders are resolved before flat ones. A placeholder that cannot be
// resolved to a string is left in the output literally.
package format

import (
	"regexp"
	"strings"

	"github.com/sourceplane/designbridge/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// FormatPrimaryField renders template against data
func FormatPrimaryField(template string, data model.Record) string {
	if template == "" {
		return ""
	}

	// Grouped lookups take precedence over flat ones. A single scan keeps
	// substituted values from being expanded again.
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		token := tokenOf(match)
		if value, ok := lookupGrouped(data, token); ok {
			return value
		}
		if value, ok := data[token].(string); ok {
			return value
		}
		return match
	})
}

// Placeholders lists the distinct placeholder tokens of template in order
func Placeholders(template string) []string {
	tokens := make([]string, 0)
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		tokens = append(tokens, m[1])
	}
	return tokens
}

// GroupedToken joins a group and field into the placeholder token form
func GroupedToken(group, field string) string {
	return group + "_" + field
}

func tokenOf(match string) string {
	return strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}")
}

// lookupGrouped splits token at each underscore, left to right, and returns the
// first string found under data[group][field]
func lookupGrouped(data model.Record, token string) (string, bool) {
	for i := 0; i < len(token); i++ {
		if token[i] != '_' {
			continue
		}
		group, field := token[:i], token[i+1:]
		if group == "" || field == "" {
			continue
		}
		obj, ok := data[group].(map[string]any)
		if !ok {
			continue
		}
		if value, ok := obj[field].(string); ok {
			return value, true
		}
	}
	return "", false
}
