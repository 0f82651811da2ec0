package model

import "encoding/json"

// ToGeneric turns a typed document into decoded JSON values (map[string]any,
// []any, strings, float64, bool). Generic input is returned as is.
func ToGeneric(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any, []any, string, float64, bool, nil:
		return v, nil
	case Record:
		return map[string]any(t), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}
