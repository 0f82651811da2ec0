package model

import (
	"encoding/json"
	"fmt"
)

// Overlay type tags
const (
	TypeDataSource      = "extend/overlays/data_source/1.0"
	TypeBranding        = "aries/overlays/branding/1.1"
	TypeMeta            = "spec/overlays/meta/1.0"
	TypeClusterOrdering = "extend/overlays/cluster_ordering/1.0"
	TypeLabel           = "spec/overlays/label/1.0"
)

// OverlayKind is the closed set of overlay variants
type OverlayKind int

const (
	KindUnknown OverlayKind = iota
	KindDataSource
	KindBranding
	KindMeta
	KindClusterOrdering
	KindLabel
)

// String returns the short name of the kind
func (k OverlayKind) String() string {
	switch k {
	case KindDataSource:
		return "data_source"
	case KindBranding:
		return "branding"
	case KindMeta:
		return "meta"
	case KindClusterOrdering:
		return "cluster_ordering"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// TypeTag returns the canonical type string of the kind
func (k OverlayKind) TypeTag() string {
	switch k {
	case KindDataSource:
		return TypeDataSource
	case KindBranding:
		return TypeBranding
	case KindMeta:
		return TypeMeta
	case KindClusterOrdering:
		return TypeClusterOrdering
	case KindLabel:
		return TypeLabel
	default:
		return ""
	}
}

// KindOf maps a type tag to its overlay kind
func KindOf(typeTag string) OverlayKind {
	switch typeTag {
	case TypeDataSource:
		return KindDataSource
	case TypeBranding:
		return KindBranding
	case TypeMeta:
		return KindMeta
	case TypeClusterOrdering:
		return KindClusterOrdering
	case TypeLabel:
		return KindLabel
	default:
		return KindUnknown
	}
}

// Overlay is implemented by every overlay variant. The type tag of the typed
// variants follows from their Go type; their Type field is only informative
// and is replaced by the canonical tag on encoding.
type Overlay interface {
	Kind() OverlayKind
	TypeTag() string
	CaptureBaseDigest() string
	// Lang is empty for overlays without a language dimension
	Lang() string
}

// DataSourceOverlay binds attributes to JSONPath-like expressions into the data record
type DataSourceOverlay struct {
	Type             string            `json:"type"`
	CaptureBase      string            `json:"capture_base"`
	Format           string            `json:"format"`
	AttributeSources map[string]string `json:"attribute_sources"`
}

// BrandingOverlay carries colours, logo and the primary field template
type BrandingOverlay struct {
	Type                   string `json:"type"`
	CaptureBase            string `json:"capture_base"`
	Language               string `json:"language"`
	Theme                  string `json:"theme"`
	Logo                   string `json:"logo"`
	PrimaryBackgroundColor string `json:"primary_background_color"`
	PrimaryField           string `json:"primary_field"`
}

// MetaOverlay names the design in one language
type MetaOverlay struct {
	Type        string `json:"type"`
	CaptureBase string `json:"capture_base"`
	Language    string `json:"language"`
	Name        string `json:"name"`
}

// ClusterOrderingOverlay groups attributes into labelled, ordered clusters
type ClusterOrderingOverlay struct {
	Type                  string                    `json:"type"`
	CaptureBase           string                    `json:"capture_base"`
	Language              string                    `json:"language"`
	ClusterOrder          map[string]int            `json:"cluster_order"`
	ClusterLabels         map[string]string         `json:"cluster_labels"`
	AttributeClusterOrder map[string]map[string]int `json:"attribute_cluster_order"`
}

// LabelOverlay maps attribute names to display labels in one language
type LabelOverlay struct {
	Type            string            `json:"type"`
	CaptureBase     string            `json:"capture_base"`
	Language        string            `json:"language"`
	AttributeLabels map[string]string `json:"attribute_labels"`
}

// UnknownOverlay keeps overlays of foreign types verbatim
type UnknownOverlay struct {
	Fields map[string]any
}

func (o *DataSourceOverlay) Kind() OverlayKind         { return KindDataSource }
func (o *DataSourceOverlay) TypeTag() string           { return o.Kind().TypeTag() }
func (o *DataSourceOverlay) CaptureBaseDigest() string { return o.CaptureBase }
func (o *DataSourceOverlay) Lang() string              { return "" }

func (o *BrandingOverlay) Kind() OverlayKind         { return KindBranding }
func (o *BrandingOverlay) TypeTag() string           { return o.Kind().TypeTag() }
func (o *BrandingOverlay) CaptureBaseDigest() string { return o.CaptureBase }
func (o *BrandingOverlay) Lang() string              { return o.Language }

func (o *MetaOverlay) Kind() OverlayKind         { return KindMeta }
func (o *MetaOverlay) TypeTag() string           { return o.Kind().TypeTag() }
func (o *MetaOverlay) CaptureBaseDigest() string { return o.CaptureBase }
func (o *MetaOverlay) Lang() string              { return o.Language }

func (o *ClusterOrderingOverlay) Kind() OverlayKind         { return KindClusterOrdering }
func (o *ClusterOrderingOverlay) TypeTag() string           { return o.Kind().TypeTag() }
func (o *ClusterOrderingOverlay) CaptureBaseDigest() string { return o.CaptureBase }
func (o *ClusterOrderingOverlay) Lang() string              { return o.Language }

func (o *LabelOverlay) Kind() OverlayKind         { return KindLabel }
func (o *LabelOverlay) TypeTag() string           { return o.Kind().TypeTag() }
func (o *LabelOverlay) CaptureBaseDigest() string { return o.CaptureBase }
func (o *LabelOverlay) Lang() string              { return o.Language }

func (o *UnknownOverlay) Kind() OverlayKind         { return KindUnknown }
func (o *UnknownOverlay) TypeTag() string           { return o.stringField("type") }
func (o *UnknownOverlay) CaptureBaseDigest() string { return o.stringField("capture_base") }
func (o *UnknownOverlay) Lang() string              { return o.stringField("language") }

func (o *UnknownOverlay) stringField(name string) string {
	s, _ := o.Fields[name].(string)
	return s
}

// MarshalJSON emits the preserved fields unchanged
func (o *UnknownOverlay) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Fields)
}

// The MarshalJSON methods below write the canonical tag whatever Type holds

func (o DataSourceOverlay) MarshalJSON() ([]byte, error) {
	type plain DataSourceOverlay
	o.Type = TypeDataSource
	return json.Marshal(plain(o))
}

func (o BrandingOverlay) MarshalJSON() ([]byte, error) {
	type plain BrandingOverlay
	o.Type = TypeBranding
	return json.Marshal(plain(o))
}

func (o MetaOverlay) MarshalJSON() ([]byte, error) {
	type plain MetaOverlay
	o.Type = TypeMeta
	return json.Marshal(plain(o))
}

func (o ClusterOrderingOverlay) MarshalJSON() ([]byte, error) {
	type plain ClusterOrderingOverlay
	o.Type = TypeClusterOrdering
	return json.Marshal(plain(o))
}

func (o LabelOverlay) MarshalJSON() ([]byte, error) {
	type plain LabelOverlay
	o.Type = TypeLabel
	return json.Marshal(plain(o))
}

// DecodeOverlay decodes one overlay object into its concrete variant
func DecodeOverlay(data []byte) (Overlay, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode overlay: %w", err)
	}

	var ov Overlay
	switch KindOf(head.Type) {
	case KindDataSource:
		ov = &DataSourceOverlay{}
	case KindBranding:
		ov = &BrandingOverlay{}
	case KindMeta:
		ov = &MetaOverlay{}
	case KindClusterOrdering:
		ov = &ClusterOrderingOverlay{}
	case KindLabel:
		ov = &LabelOverlay{}
	default:
		unknown := &UnknownOverlay{}
		if err := json.Unmarshal(data, &unknown.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode overlay %q: %w", head.Type, err)
		}
		return unknown, nil
	}

	if err := json.Unmarshal(data, ov); err != nil {
		return nil, fmt.Errorf("failed to decode %s overlay: %w", ov.Kind(), err)
	}
	return ov, nil
}
