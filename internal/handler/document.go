package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sourceplane/designbridge/internal/convert"
	"github.com/sourceplane/designbridge/internal/detect"
	"github.com/sourceplane/designbridge/internal/diagnostic"
	"github.com/sourceplane/designbridge/internal/loader"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
	"github.com/sourceplane/designbridge/internal/render"
	"github.com/sourceplane/designbridge/internal/schema"
	"github.com/sourceplane/designbridge/internal/validate"
)

// DocumentHandler serves the stateless document operations
type DocumentHandler struct {
	converter *convert.Converter
	validator *schema.Validator
	renderer  *render.Renderer
	language  string
}

// NewDocumentHandler creates a document handler
func NewDocumentHandler(converter *convert.Converter, validator *schema.Validator, language string) *DocumentHandler {
	return &DocumentHandler{
		converter: converter,
		validator: validator,
		renderer:  render.NewRenderer(),
		language:  language,
	}
}

// readDocument parses the request body as a JSON or YAML document
func readDocument(c *gin.Context) (*loader.Document, bool) {
	body, err := c.GetRawData()
	if err != nil {
		Error(c, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	doc, err := loader.ParseDocument(body)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return doc, true
}

// Detect reports the format of the posted document
func (h *DocumentHandler) Detect(c *gin.Context) {
	doc, ok := readDocument(c)
	if !ok {
		return
	}
	Success(c, gin.H{"format": doc.Format})
}

// Validate checks an OCA specification. ?all=true collects every violation
// and warning; ?strict=true also applies the JSON Schema.
func (h *DocumentHandler) Validate(c *gin.Context) {
	doc, ok := readDocument(c)
	if !ok {
		return
	}

	if c.Query("strict") == "true" {
		if err := h.strictCheck(doc); err != nil {
			ValidationError(c, []ErrorItem{{Code: "schema", Message: err.Error()}})
			return
		}
	}

	if c.Query("all") == "true" {
		diags := validate.ValidateAll(doc.Raw)
		if !diags.IsValid() {
			ValidationError(c, errorItems(diags.Errors))
			return
		}
		Success(c, diags)
		return
	}

	Success(c, validate.ValidateSpecification(doc.Raw))
}

func (h *DocumentHandler) strictCheck(doc *loader.Document) error {
	switch doc.Format {
	case detect.FormatProcivisOne:
		return h.validator.ValidateProcivisOne(doc.Raw)
	default:
		return h.validator.ValidateOCA(doc.Raw)
	}
}

// ConvertResult is the reply of Convert
type ConvertResult struct {
	Format   detect.FormatType       `json:"format"`
	Document interface{}             `json:"document"`
	Warnings []diagnostic.Diagnostic `json:"warnings"`
}

// Convert turns the posted document into ?target= (default: the other format)
func (h *DocumentHandler) Convert(c *gin.Context) {
	doc, ok := readDocument(c)
	if !ok {
		return
	}

	target, err := targetFormat(c.Query("target"), doc.Format)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !detect.IsConvertibleFormat(doc.Raw, target) {
		Error(c, http.StatusUnprocessableEntity, fmt.Sprintf("cannot convert %s document to %s", doc.Format, target))
		return
	}

	result, err := h.convert(doc, target)
	if err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	Success(c, result)
}

func (h *DocumentHandler) convert(doc *loader.Document, target detect.FormatType) (*ConvertResult, error) {
	result := &ConvertResult{Format: target, Warnings: []diagnostic.Diagnostic{}}

	switch {
	case doc.Format == target && target == detect.FormatOCA:
		s, err := doc.Specification()
		if err != nil {
			return nil, err
		}
		result.Document = s
	case doc.Format == target:
		result.Document = doc.Value()
	case target == detect.FormatProcivisOne:
		if v := validate.ValidateSpecification(doc.Raw); !v.Valid {
			return nil, errors.New(v.Error)
		}
		s, err := doc.Specification()
		if err != nil {
			return nil, err
		}
		out, diags := h.converter.ToProcivisOne(s)
		result.Document, result.Warnings = out, diags.Warnings
	default:
		out, diags := h.converter.ToOCA(doc.Procivis)
		result.Document, result.Warnings = out, diags.Warnings
	}
	return result, nil
}

// targetFormat parses ?target=, defaulting to the opposite of source
func targetFormat(query string, source detect.FormatType) (detect.FormatType, error) {
	if query != "" {
		return detect.ParseFormatType(query)
	}
	switch source {
	case detect.FormatOCA:
		return detect.FormatProcivisOne, nil
	case detect.FormatProcivisOne:
		return detect.FormatOCA, nil
	default:
		return detect.FormatUnknown, errors.New("document format not recognized")
	}
}

// Infer returns the data shape of the posted document
func (h *DocumentHandler) Infer(c *gin.Context) {
	doc, ok := readDocument(c)
	if !ok {
		return
	}

	switch doc.Format {
	case detect.FormatOCA:
		s, err := doc.Specification()
		if err != nil {
			Error(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		Success(c, normalize.FromOCA(s))
	case detect.FormatProcivisOne:
		Success(c, normalize.FromProcivisOne(doc.Procivis))
	default:
		Error(c, http.StatusUnprocessableEntity, "document format not recognized")
	}
}

// PreviewRequest is the body of Preview
type PreviewRequest struct {
	Document json.RawMessage `json:"document"`
	Data     model.Record    `json:"data"`
	Language string          `json:"language"`
}

// Preview renders a document with bound data. Missing data keys are filled
// with empty defaults.
func (h *DocumentHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Document) == 0 {
		ValidationError(c, []ErrorItem{{Field: "document", Message: "document is required"}})
		return
	}

	doc, err := loader.ParseDocument(req.Document)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	language := req.Language
	if language == "" {
		language = h.language
	}

	switch doc.Format {
	case detect.FormatOCA:
		s, err := doc.Specification()
		if err != nil {
			Error(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		data := normalize.Seed(req.Data, normalize.DefaultRecordFromShape(normalize.FromOCA(s)))
		Success(c, h.renderer.RenderPermit(s, data, language))
	case detect.FormatProcivisOne:
		data := normalize.Seed(req.Data, normalize.DefaultRecord(doc.Procivis))
		Success(c, h.renderer.RenderCard(doc.Procivis, data))
	default:
		Error(c, http.StatusUnprocessableEntity, "document format not recognized")
	}
}
