package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedPath is returned for record paths deeper than group.field or array[i].field
var ErrUnsupportedPath = errors.New("unsupported record path")

// Record is the data bound to a specification. Values are strings, one level of
// nested objects (map[string]any) and arrays of objects ([]any of map[string]any).
type Record map[string]any

// PetData is one entry of the pets array
type PetData struct {
	Name string `json:"name" yaml:"name"`
	Race string `json:"race" yaml:"race"`
}

// Address is the nested owner address
type Address struct {
	Street  string `json:"street" yaml:"street"`
	City    string `json:"city" yaml:"city"`
	Country string `json:"country" yaml:"country"`
}

// OwnerData is the typed form of the pet permit record
type OwnerData struct {
	Firstname string            `json:"firstname" yaml:"firstname"`
	Lastname  string            `json:"lastname" yaml:"lastname"`
	Address   Address           `json:"address" yaml:"address"`
	Pets      []PetData         `json:"pets" yaml:"pets"`
	Extra     map[string]string `json:"-" yaml:"-"`
}

// Record converts the typed owner data into a generic record
func (o OwnerData) Record() Record {
	pets := make([]any, 0, len(o.Pets))
	for _, p := range o.Pets {
		pets = append(pets, map[string]any{"name": p.Name, "race": p.Race})
	}

	r := Record{
		"firstname": o.Firstname,
		"lastname":  o.Lastname,
		"address": map[string]any{
			"street":  o.Address.Street,
			"city":    o.Address.City,
			"country": o.Address.Country,
		},
		"pets": pets,
	}
	for k, v := range o.Extra {
		if _, taken := r[k]; !taken {
			r[k] = v
		}
	}
	return r
}

// recordPath is a parsed "field", "group.field" or "array[i].field" path
type recordPath struct {
	head  string
	index int // -1 when head is not indexed
	field string
}

func parseRecordPath(path string) (recordPath, error) {
	if path == "" {
		return recordPath{}, fmt.Errorf("%w: empty path", ErrUnsupportedPath)
	}

	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return recordPath{}, fmt.Errorf("%w: %q nests deeper than one level", ErrUnsupportedPath, path)
	}

	rp := recordPath{head: parts[0], index: -1}
	if len(parts) == 2 {
		rp.field = parts[1]
		if rp.field == "" {
			return recordPath{}, fmt.Errorf("%w: %q has an empty field", ErrUnsupportedPath, path)
		}
	}

	if open := strings.IndexByte(rp.head, '['); open >= 0 {
		if !strings.HasSuffix(rp.head, "]") {
			return recordPath{}, fmt.Errorf("%w: %q has an unterminated index", ErrUnsupportedPath, path)
		}
		idx, err := strconv.Atoi(rp.head[open+1 : len(rp.head)-1])
		if err != nil || idx < 0 {
			return recordPath{}, fmt.Errorf("%w: %q has an invalid index", ErrUnsupportedPath, path)
		}
		rp.head = rp.head[:open]
		rp.index = idx
		if rp.field == "" {
			return recordPath{}, fmt.Errorf("%w: %q must name a field of the array element", ErrUnsupportedPath, path)
		}
	}

	if rp.head == "" {
		return recordPath{}, fmt.Errorf("%w: %q has an empty name", ErrUnsupportedPath, path)
	}
	return rp, nil
}

// Get reads the value at path
func (r Record) Get(path string) (any, bool) {
	rp, err := parseRecordPath(path)
	if err != nil {
		return nil, false
	}

	v, ok := r[rp.head]
	if !ok {
		return nil, false
	}
	if rp.index >= 0 {
		items, ok := v.([]any)
		if !ok || rp.index >= len(items) {
			return nil, false
		}
		v = items[rp.index]
	}
	if rp.field == "" {
		return v, true
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	fv, ok := obj[rp.field]
	return fv, ok
}

// String reads a string value at path
func (r Record) String(path string) (string, bool) {
	v, ok := r.Get(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set writes value at path, creating the intermediate group object or array
// element when missing. Indexing one past the end of an array appends.
func (r Record) Set(path string, value any) error {
	rp, err := parseRecordPath(path)
	if err != nil {
		return err
	}

	if rp.field == "" {
		r[rp.head] = value
		return nil
	}

	if rp.index < 0 {
		obj, err := r.group(rp.head)
		if err != nil {
			return err
		}
		obj[rp.field] = value
		return nil
	}

	var items []any
	switch existing := r[rp.head].(type) {
	case nil:
	case []any:
		items = existing
	default:
		return fmt.Errorf("field %q is %T, not an array", rp.head, existing)
	}

	if rp.index > len(items) {
		return fmt.Errorf("index %d out of range for %q (length %d)", rp.index, rp.head, len(items))
	}
	if rp.index == len(items) {
		items = append(items, map[string]any{})
	}

	obj, ok := items[rp.index].(map[string]any)
	if !ok {
		obj = map[string]any{}
		items[rp.index] = obj
	}
	obj[rp.field] = value
	r[rp.head] = items
	return nil
}

func (r Record) group(name string) (map[string]any, error) {
	switch existing := r[name].(type) {
	case nil:
		obj := map[string]any{}
		r[name] = obj
		return obj, nil
	case map[string]any:
		return existing, nil
	default:
		return nil, fmt.Errorf("field %q is %T, not an object", name, existing)
	}
}

// Objects returns the string fields of every object in the named array
func (r Record) Objects(name string) []map[string]string {
	items, _ := r[name].([]any)
	result := make([]map[string]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := make(map[string]string, len(obj))
		for k, v := range obj {
			if s, ok := v.(string); ok {
				entry[k] = s
			}
		}
		result = append(result, entry)
	}
	return result
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Record:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}
