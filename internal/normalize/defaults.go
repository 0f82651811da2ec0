package normalize

import (
	"sort"

	"github.com/sourceplane/designbridge/internal/model"
)

// DefaultRecord builds an empty, fully keyed record for a ProcivisOne schema.
// Scalars become "", repeatable groups an empty array and groups an object
// of empty children.
func DefaultRecord(schema *model.ProcivisOneSchema) model.Record {
	record := model.Record{}
	if schema == nil {
		return record
	}
	for k, v := range defaultsFor(schema.Claims) {
		record[k] = v
	}
	return record
}

func defaultsFor(claims []model.ProcivisOneClaim) map[string]any {
	values := make(map[string]any, len(claims))
	for i := range claims {
		claim := &claims[i]
		key := Key(claim.Key)
		switch {
		case claim.IsRepeatableGroup():
			values[key] = []any{}
		case claim.IsGroup():
			values[key] = defaultsFor(claim.Claims)
		default:
			values[key] = ""
		}
	}
	return values
}

// DefaultRecordFromShape builds an empty record matching an inferred shape
func DefaultRecordFromShape(shape *Shape) model.Record {
	record := model.Record{}
	if shape == nil {
		return record
	}
	for _, group := range shape.groupOrder {
		fields := shape.Simple[group]
		if group == RootGroup {
			for _, f := range fields {
				record[f] = ""
			}
			continue
		}
		obj := make(map[string]any, len(fields))
		for _, f := range fields {
			obj[f] = ""
		}
		record[group] = obj
	}
	for _, name := range shape.arrayOrder {
		record[name] = []any{}
	}
	return record
}

// Seed fills keys of defaults missing from data without overwriting values
func Seed(data, defaults model.Record) model.Record {
	seeded := data.Clone()
	if seeded == nil {
		seeded = model.Record{}
	}
	for k, v := range defaults {
		existing, present := seeded[k]
		if !present {
			seeded[k] = v
			continue
		}
		group, isGroup := v.(map[string]any)
		target, targetIsGroup := existing.(map[string]any)
		if !isGroup || !targetIsGroup {
			continue
		}
		for field, fv := range group {
			if _, ok := target[field]; !ok {
				target[field] = fv
			}
		}
	}
	return seeded
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
