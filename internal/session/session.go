// Package session holds the editing state around one design: the OCA
// specification, its bound data, the active format and the ProcivisOne form.
//
// The core packages stay pure; a Session only sequences them. A Session is not
// safe for concurrent use; Store serializes access per session.
package session

import (
	"errors"
	"fmt"

	"github.com/sourceplane/designbridge/internal/convert"
	"github.com/sourceplane/designbridge/internal/detect"
	"github.com/sourceplane/designbridge/internal/diagnostic"
	"github.com/sourceplane/designbridge/internal/loader"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
	"github.com/sourceplane/designbridge/internal/render"
	"github.com/sourceplane/designbridge/internal/validate"
)

var (
	// ErrInvalidSpecification wraps validator rejections; the previous specification stays active
	ErrInvalidSpecification = errors.New("invalid specification")
	// ErrUnknownFormat is returned for documents that are neither OCA nor ProcivisOne
	ErrUnknownFormat = errors.New("unknown document format")
	// ErrNoDocument is returned when an operation needs a document that was never loaded
	ErrNoDocument = errors.New("no document loaded")
)

// Session is the explicit editing context
type Session struct {
	Specification *model.DesignSpecification
	Data          model.Record
	Format        detect.FormatType
	ProcivisSpec  *model.ProcivisOneSchema

	language  string
	converter *convert.Converter
	renderer  *render.Renderer
	warnings  []diagnostic.Diagnostic
}

// Option configures a Session
type Option func(*Session)

// WithLanguage selects the language used for previews and conversions
func WithLanguage(language string) Option {
	return func(s *Session) {
		s.language = language
	}
}

// WithConverter replaces the default converter
func WithConverter(c *convert.Converter) Option {
	return func(s *Session) {
		s.converter = c
	}
}

// New creates a session around an optional OCA specification and data record
func New(spec *model.DesignSpecification, data model.Record, opts ...Option) *Session {
	s := &Session{
		Specification: spec,
		Data:          data.Clone(),
		Format:        detect.FormatUnknown,
		renderer:      render.NewRenderer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.converter == nil {
		s.converter = convert.NewConverter(convert.WithLanguage(s.language))
	}
	if s.Data == nil {
		s.Data = model.Record{}
	}
	if spec != nil {
		s.Format = detect.FormatOCA
	}
	return s
}

// Language returns the configured language filter
func (s *Session) Language() string {
	return s.language
}

// Warnings returns the findings of the last format switch
func (s *Session) Warnings() []diagnostic.Diagnostic {
	return append([]diagnostic.Diagnostic(nil), s.warnings...)
}

// ApplyDocument replaces the active document. raw is a decoded JSON value, a
// typed document or a *loader.Document. OCA documents must pass the validator;
// on rejection the previous specification is kept. Missing data keys are
// seeded from the document's shape.
func (s *Session) ApplyDocument(raw interface{}) error {
	doc, ok := raw.(*loader.Document)
	if !ok {
		generic, err := model.ToGeneric(raw)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		doc = &loader.Document{Format: detect.DetectFormatType(generic), Raw: generic}
	}

	switch doc.Format {
	case detect.FormatOCA:
		result := validate.ValidateSpecification(doc.Raw)
		if !result.Valid {
			return fmt.Errorf("%w: %s", ErrInvalidSpecification, result.Error)
		}
		spec := doc.OCA
		if spec == nil {
			var err error
			if spec, err = loader.DecodeOCA(doc.Raw); err != nil {
				return err
			}
		}
		s.Specification = spec
		s.Format = detect.FormatOCA
		s.Data = normalize.Seed(s.Data, normalize.DefaultRecordFromShape(normalize.FromOCA(spec)))

	case detect.FormatProcivisOne:
		schema := doc.Procivis
		if schema == nil {
			var err error
			if schema, err = loader.DecodeProcivisOne(doc.Raw); err != nil {
				return err
			}
		}
		s.ProcivisSpec = schema
		s.Format = detect.FormatProcivisOne
		s.Data = normalize.Seed(s.Data, normalize.DefaultRecord(schema))

	default:
		return ErrUnknownFormat
	}

	s.warnings = nil
	return nil
}

// SetField writes one value into the bound data
func (s *Session) SetField(path string, value interface{}) error {
	if s.Data == nil {
		s.Data = model.Record{}
	}
	if err := s.Data.Set(path, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// ReplaceData replaces the bound data with a decoded JSON object
func (s *Session) ReplaceData(raw interface{}) error {
	generic, err := model.ToGeneric(raw)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	obj, ok := generic.(map[string]interface{})
	if !ok {
		return fmt.Errorf("data must be a JSON object, got %T", generic)
	}
	s.Data = model.Record(obj).Clone()
	return nil
}

// SwitchFormat converts the active document into target and makes it active
func (s *Session) SwitchFormat(target detect.FormatType) error {
	if target == s.Format {
		return nil
	}

	switch target {
	case detect.FormatProcivisOne:
		if s.Specification == nil {
			return fmt.Errorf("cannot switch to %s: %w", target, ErrNoDocument)
		}
		schema, diags := s.converter.ToProcivisOne(s.Specification)
		s.ProcivisSpec = schema
		s.warnings = diags.Warnings
		s.Data = normalize.Seed(s.Data, normalize.DefaultRecord(schema))

	case detect.FormatOCA:
		if s.ProcivisSpec == nil {
			return fmt.Errorf("cannot switch to %s: %w", target, ErrNoDocument)
		}
		spec, diags := s.converter.ToOCA(s.ProcivisSpec)
		if result := validate.ValidateSpecification(spec); !result.Valid {
			return fmt.Errorf("%w: %s", ErrInvalidSpecification, result.Error)
		}
		s.Specification = spec
		s.warnings = diags.Warnings
		s.Data = normalize.Seed(s.Data, normalize.DefaultRecordFromShape(normalize.FromOCA(spec)))

	default:
		return fmt.Errorf("cannot switch to %s: %w", target, ErrUnknownFormat)
	}

	s.Format = target
	return nil
}

// Shape infers the data shape of the active document
func (s *Session) Shape() *normalize.Shape {
	switch s.Format {
	case detect.FormatOCA:
		return normalize.FromOCA(s.Specification)
	case detect.FormatProcivisOne:
		return normalize.FromProcivisOne(s.ProcivisSpec)
	default:
		return normalize.NewShape()
	}
}

// Preview renders the active document with the bound data. It returns a
// *render.PermitPreview for OCA, a *render.CardPreview for ProcivisOne and nil
// when nothing is loaded.
func (s *Session) Preview() interface{} {
	switch s.Format {
	case detect.FormatOCA:
		return s.renderer.RenderPermit(s.Specification, s.Data, s.language)
	case detect.FormatProcivisOne:
		return s.renderer.RenderCard(s.ProcivisSpec, s.Data)
	default:
		return nil
	}
}

// Document returns the active document
func (s *Session) Document() interface{} {
	switch s.Format {
	case detect.FormatOCA:
		return s.Specification
	case detect.FormatProcivisOne:
		return s.ProcivisSpec
	default:
		return nil
	}
}
