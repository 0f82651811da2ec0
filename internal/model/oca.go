package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Reserved capture base digests for the owner and pet records
const (
	OwnerDigest = "IH9w8JN_ZE4maSfcs27R33JdV_ClH7jilM9mnlS9j_0j"
	PetDigest   = "IKLvtGx1NU0007DUTTmI_6Zw-hnGRFicZ5R4vAxg4j2j"
)

// CaptureBaseType is the type tag emitted for generated capture bases
const CaptureBaseType = "spec/capture_base/1.0"

// Attribute type tags
const (
	AttrText     = "Text"
	AttrNumeric  = "Numeric"
	AttrBoolean  = "Boolean"
	AttrDateTime = "DateTime"

	arrayRefPrefix = "Array[refs:"
)

// ArrayRefTag builds the attribute type tag for an array of records of the given capture base
func ArrayRefTag(digest string) string {
	return arrayRefPrefix + digest + "]"
}

// ParseArrayRef returns the referenced digest of an "Array[refs:<digest>]" tag
func ParseArrayRef(tag string) (string, bool) {
	if !strings.HasPrefix(tag, arrayRefPrefix) || !strings.HasSuffix(tag, "]") {
		return "", false
	}
	digest := strings.TrimSuffix(strings.TrimPrefix(tag, arrayRefPrefix), "]")
	if digest == "" {
		return "", false
	}
	return digest, true
}

// CaptureBase is a digest-identified record shape. Attribute declaration
// order is kept from the decoded document.
type CaptureBase struct {
	Type       string            `json:"type" yaml:"type"`
	Digest     string            `json:"digest" yaml:"digest"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`

	order []string
}

// NewCaptureBase returns an empty capture base
func NewCaptureBase(digest string) CaptureBase {
	return CaptureBase{
		Type:       CaptureBaseType,
		Digest:     digest,
		Attributes: make(map[string]string),
	}
}

// SetAttribute declares or redeclares an attribute, keeping first-declaration order
func (cb *CaptureBase) SetAttribute(name, tag string) {
	if cb.Attributes == nil {
		cb.Attributes = make(map[string]string)
	}
	if _, exists := cb.Attributes[name]; !exists {
		cb.order = append(cb.order, name)
	}
	cb.Attributes[name] = tag
}

// AttributeNames returns attribute names in declaration order. Names without a
// recorded position follow in lexical order.
func (cb *CaptureBase) AttributeNames() []string {
	names := make([]string, 0, len(cb.Attributes))
	seen := make(map[string]bool, len(cb.Attributes))
	for _, name := range cb.order {
		if _, ok := cb.Attributes[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	rest := make([]string, 0)
	for name := range cb.Attributes {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// UnmarshalJSON decodes the capture base and records attribute order
func (cb *CaptureBase) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       string          `json:"type"`
		Digest     string          `json:"digest"`
		Attributes json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	cb.Type = raw.Type
	cb.Digest = raw.Digest
	cb.Attributes = nil
	cb.order = nil
	if len(raw.Attributes) == 0 || string(raw.Attributes) == "null" {
		return nil
	}

	if err := json.Unmarshal(raw.Attributes, &cb.Attributes); err != nil {
		return fmt.Errorf("capture base %q: %w", raw.Digest, err)
	}
	order, err := objectKeys(raw.Attributes)
	if err != nil {
		return fmt.Errorf("capture base %q: %w", raw.Digest, err)
	}
	cb.order = order
	return nil
}

// MarshalJSON encodes attributes in declaration order
func (cb CaptureBase) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	if err := writeJSON(&buf, cb.Type); err != nil {
		return nil, err
	}
	buf.WriteString(`,"digest":`)
	if err := writeJSON(&buf, cb.Digest); err != nil {
		return nil, err
	}
	buf.WriteString(`,"attributes":{`)
	for i, name := range cb.AttributeNames() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, cb.Attributes[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// objectKeys lists the keys of a JSON object in document order
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// DesignSpecification is an OCA-style design: capture bases plus typed overlays
type DesignSpecification struct {
	CaptureBases []CaptureBase `json:"capture_bases"`
	Overlays     []Overlay     `json:"overlays"`
}

type rawSpecification struct {
	CaptureBases []CaptureBase    `json:"capture_bases"`
	Overlays     []json.RawMessage `json:"overlays"`
}

// UnmarshalJSON decodes overlays into their concrete variants by type tag
func (s *DesignSpecification) UnmarshalJSON(data []byte) error {
	var raw rawSpecification
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.CaptureBases = raw.CaptureBases
	s.Overlays = make([]Overlay, 0, len(raw.Overlays))
	for i, msg := range raw.Overlays {
		ov, err := DecodeOverlay(msg)
		if err != nil {
			return fmt.Errorf("overlays[%d]: %w", i, err)
		}
		s.Overlays = append(s.Overlays, ov)
	}
	return nil
}

// CaptureBase returns the capture base with the given digest, or nil
func (s *DesignSpecification) CaptureBase(digest string) *CaptureBase {
	for i := range s.CaptureBases {
		if s.CaptureBases[i].Digest == digest {
			return &s.CaptureBases[i]
		}
	}
	return nil
}
