// Package spec provides lookups over the overlays of a design specification.
//
// All lookups are linear scans in declared order. When several overlays share
// a kind and no language narrows the set, the first one wins. Overlays without
// a language dimension (data source) match any language filter.
package spec

import "github.com/sourceplane/designbridge/internal/model"

// matchesLanguage reports whether an overlay passes the optional language filter
func matchesLanguage(ov model.Overlay, language string) bool {
	if language == "" {
		return true
	}
	lang := ov.Lang()
	return lang == "" || lang == language
}

// OverlayByType returns the first overlay of kind, optionally filtered by language
func OverlayByType(s *model.DesignSpecification, kind model.OverlayKind, language string) (model.Overlay, bool) {
	if s == nil {
		return nil, false
	}
	for _, ov := range s.Overlays {
		if ov.Kind() == kind && matchesLanguage(ov, language) {
			return ov, true
		}
	}
	return nil, false
}

// OverlaysByType returns every overlay of kind, optionally filtered by language
func OverlaysByType(s *model.DesignSpecification, kind model.OverlayKind, language string) []model.Overlay {
	result := make([]model.Overlay, 0)
	if s == nil {
		return result
	}
	for _, ov := range s.Overlays {
		if ov.Kind() == kind && matchesLanguage(ov, language) {
			result = append(result, ov)
		}
	}
	return result
}

// First returns the first overlay of variant T
func First[T model.Overlay](s *model.DesignSpecification, language string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	for _, ov := range s.Overlays {
		if typed, ok := ov.(T); ok && matchesLanguage(ov, language) {
			return typed, true
		}
	}
	return zero, false
}

// All returns every overlay of variant T
func All[T model.Overlay](s *model.DesignSpecification, language string) []T {
	result := make([]T, 0)
	if s == nil {
		return result
	}
	for _, ov := range s.Overlays {
		if typed, ok := ov.(T); ok && matchesLanguage(ov, language) {
			result = append(result, typed)
		}
	}
	return result
}

// Branding returns the first branding overlay
func Branding(s *model.DesignSpecification, language string) (*model.BrandingOverlay, bool) {
	return First[*model.BrandingOverlay](s, language)
}

// Meta returns the first meta overlay
func Meta(s *model.DesignSpecification, language string) (*model.MetaOverlay, bool) {
	return First[*model.MetaOverlay](s, language)
}

// LocalizedBranding returns the branding overlay of the language, else the first
// branding overlay in any language
func LocalizedBranding(s *model.DesignSpecification, language string) (*model.BrandingOverlay, bool) {
	if b, ok := Branding(s, language); ok || language == "" {
		return b, ok
	}
	return Branding(s, "")
}

// LocalizedMeta returns the meta overlay of the language, else the first meta
// overlay in any language
func LocalizedMeta(s *model.DesignSpecification, language string) (*model.MetaOverlay, bool) {
	if m, ok := Meta(s, language); ok || language == "" {
		return m, ok
	}
	return Meta(s, "")
}

// DataSources returns all data source overlays
func DataSources(s *model.DesignSpecification) []*model.DataSourceOverlay {
	return All[*model.DataSourceOverlay](s, "")
}

// Labels returns all label overlays in the language
func Labels(s *model.DesignSpecification, language string) []*model.LabelOverlay {
	return All[*model.LabelOverlay](s, language)
}

// ClusterOrderings returns all cluster ordering overlays in the language
func ClusterOrderings(s *model.DesignSpecification, language string) []*model.ClusterOrderingOverlay {
	return All[*model.ClusterOrderingOverlay](s, language)
}

// AvailableLanguages collects the distinct overlay languages in order of first appearance
func AvailableLanguages(s *model.DesignSpecification) []string {
	languages := make([]string, 0)
	if s == nil {
		return languages
	}
	seen := make(map[string]bool)
	for _, ov := range s.Overlays {
		lang := ov.Lang()
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		languages = append(languages, lang)
	}
	return languages
}

// CaptureBaseByID returns the capture base with the given digest
func CaptureBaseByID(s *model.DesignSpecification, digest string) (*model.CaptureBase, bool) {
	if s == nil {
		return nil, false
	}
	cb := s.CaptureBase(digest)
	return cb, cb != nil
}

// AttributeLabel resolves the display label of an attribute. A label in the
// language wins, then one in any language, then the attribute name itself.
func AttributeLabel(s *model.DesignSpecification, digest, attribute, language string) string {
	if label, ok := attributeLabel(s, digest, attribute, language); ok {
		return label
	}
	if language != "" {
		if label, ok := attributeLabel(s, digest, attribute, ""); ok {
			return label
		}
	}
	return attribute
}

func attributeLabel(s *model.DesignSpecification, digest, attribute, language string) (string, bool) {
	for _, lo := range Labels(s, language) {
		if lo.CaptureBase != digest {
			continue
		}
		if label := lo.AttributeLabels[attribute]; label != "" {
			return label, true
		}
	}
	return "", false
}

// ClusterLabel resolves the display label of an attribute group, preferring
// the language and falling back to any language
func ClusterLabel(s *model.DesignSpecification, digest, group, language string) (string, bool) {
	if label, ok := clusterLabel(s, digest, group, language); ok || language == "" {
		return label, ok
	}
	return clusterLabel(s, digest, group, "")
}

func clusterLabel(s *model.DesignSpecification, digest, group, language string) (string, bool) {
	for _, co := range ClusterOrderings(s, language) {
		if co.CaptureBase != digest {
			continue
		}
		if label := co.ClusterLabels[group]; label != "" {
			return label, true
		}
	}
	return "", false
}

// ArrayElementBases maps every digest referenced by an Array[refs:] attribute to
// the attribute that references it
func ArrayElementBases(s *model.DesignSpecification) map[string]string {
	refs := make(map[string]string)
	if s == nil {
		return refs
	}
	for i := range s.CaptureBases {
		cb := &s.CaptureBases[i]
		for _, attr := range cb.AttributeNames() {
			digest, ok := model.ParseArrayRef(cb.Attributes[attr])
			if !ok {
				continue
			}
			if _, seen := refs[digest]; !seen {
				refs[digest] = attr
			}
		}
	}
	return refs
}
