package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sourceplane/designbridge/internal/config"
	"github.com/sourceplane/designbridge/internal/convert"
	"github.com/sourceplane/designbridge/internal/detect"
	"github.com/sourceplane/designbridge/internal/diagnostic"
	"github.com/sourceplane/designbridge/internal/format"
	"github.com/sourceplane/designbridge/internal/handler"
	"github.com/sourceplane/designbridge/internal/loader"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
	"github.com/sourceplane/designbridge/internal/render"
	"github.com/sourceplane/designbridge/internal/schema"
	"github.com/sourceplane/designbridge/internal/session"
	"github.com/sourceplane/designbridge/internal/spec"
	"github.com/sourceplane/designbridge/internal/validate"
)

// Progress lines go to stderr so documents printed to stdout stay clean
func step(msg string) {
	fmt.Fprintln(os.Stderr, "□ "+msg)
}

func done(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "✓ "+msg+"\n", args...)
}

func loadDocument(path string) (*loader.Document, error) {
	step("Loading document...")
	doc, err := loader.LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if debugMode {
		fmt.Fprintf(os.Stderr, "  Detected format: %s\n", doc.Format)
	}
	return doc, nil
}

func detectDocument(args []string) error {
	path := inputFile
	if len(args) > 0 {
		path = args[0]
	}
	doc, err := loader.LoadDocument(path)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	fmt.Println(doc.Format)
	if doc.Format == detect.FormatUnknown {
		return fmt.Errorf("%s is neither an OCA specification nor a ProcivisOne schema", path)
	}
	return nil
}

func validateDocument() error {
	doc, err := loadDocument(inputFile)
	if err != nil {
		return err
	}

	if strictMode {
		step("Validating against JSON Schema...")
		validator, err := schema.NewValidator()
		if err != nil {
			return fmt.Errorf("failed to initialize schema validator: %w", err)
		}
		switch doc.Format {
		case detect.FormatProcivisOne:
			err = validator.ValidateProcivisOne(doc.Raw)
		default:
			err = validator.ValidateOCA(doc.Raw)
		}
		if err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		done("Document matches the %s schema", doc.Format)
	}

	if doc.Format == detect.FormatProcivisOne {
		done("ProcivisOne schema %q is valid (%d claims)", doc.Procivis.Name, len(doc.Procivis.Claims))
		return nil
	}

	step("Validating specification...")
	if allErrors {
		diags := validate.ValidateAll(doc.Raw)
		for _, w := range diags.Warnings {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
		}
		for _, e := range diags.Errors {
			fmt.Fprintf(os.Stderr, "  error: %s\n", e)
		}
		if err := diags.Err(); err != nil {
			return err
		}
	} else if result := validate.ValidateSpecification(doc.Raw); !result.Valid {
		return fmt.Errorf("specification is invalid: %s", result.Error)
	}

	done("Specification is valid")
	return nil
}

func newConverter() (*convert.Converter, error) {
	origin, err := convert.ParseOriginClause(originMode)
	if err != nil {
		return nil, err
	}
	return convert.NewConverter(convert.WithLanguage(language), convert.WithOriginClause(origin)), nil
}

func convertDocument() error {
	doc, err := loadDocument(inputFile)
	if err != nil {
		return err
	}

	target := detect.FormatUnknown
	switch {
	case targetFormat != "":
		if target, err = detect.ParseFormatType(targetFormat); err != nil {
			return err
		}
	case doc.Format == detect.FormatOCA:
		target = detect.FormatProcivisOne
	case doc.Format == detect.FormatProcivisOne:
		target = detect.FormatOCA
	}
	if !detect.IsConvertibleFormat(doc.Raw, target) {
		return fmt.Errorf("cannot convert %s document to %s", doc.Format, target)
	}

	converter, err := newConverter()
	if err != nil {
		return err
	}

	var out interface{}
	switch {
	case doc.Format == target && target == detect.FormatOCA:
		if out, err = doc.Specification(); err != nil {
			return err
		}
	case doc.Format == target:
		out = doc.Value()
	case target == detect.FormatProcivisOne:
		step("Validating specification...")
		if result := validate.ValidateSpecification(doc.Raw); !result.Valid {
			return fmt.Errorf("specification is invalid: %s", result.Error)
		}
		s, err := doc.Specification()
		if err != nil {
			return err
		}
		step("Converting OCA → ProcivisOne...")
		p1, diags := converter.ToProcivisOne(s)
		printWarnings(diags.Warnings)
		out = p1
	default:
		step("Converting ProcivisOne → OCA...")
		s, diags := converter.ToOCA(doc.Procivis)
		printWarnings(diags.Warnings)
		out = s
	}

	renderer := render.NewRenderer()
	if debugMode {
		fmt.Fprintln(os.Stderr, "\n"+renderer.DebugDump(out))
	}

	if outputFile == "" {
		data, err := renderer.Render(out, outputFormat)
		if err != nil {
			return fmt.Errorf("failed to render document: %w", err)
		}
		fmt.Println(string(data))
		done("Converted to %s", target)
		return nil
	}

	if err := renderer.WriteDocument(out, outputFile); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	done("Converted to %s", target)
	done("Saved to: %s", outputFile)
	return nil
}

func printWarnings(warnings []diagnostic.Diagnostic) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}
}

func inferShape() error {
	doc, err := loadDocument(inputFile)
	if err != nil {
		return err
	}

	step("Inferring data shape...")
	var shape *normalize.Shape
	var defaults model.Record
	switch doc.Format {
	case detect.FormatOCA:
		s, err := doc.Specification()
		if err != nil {
			return err
		}
		shape = normalize.FromOCA(s)
		defaults = normalize.DefaultRecordFromShape(shape)
	case detect.FormatProcivisOne:
		shape = normalize.FromProcivisOne(doc.Procivis)
		defaults = normalize.DefaultRecord(doc.Procivis)
	default:
		return fmt.Errorf("cannot infer the shape of an %s document", doc.Format)
	}
	for _, expr := range shape.Skipped {
		fmt.Fprintf(os.Stderr, "  skipped: %s (nested too deep)\n", expr)
	}

	renderer := render.NewRenderer()
	var out []byte
	switch viewMode {
	case "tree":
		fmt.Println(render.NewViewer().ViewShape(shape))
		return nil
	case "defaults":
		out, err = renderer.Render(defaults, outputFormat)
	default:
		out, err = renderer.Render(shape, outputFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to render shape: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func previewDocument() error {
	doc, err := loadDocument(inputFile)
	if err != nil {
		return err
	}

	var data model.Record
	if dataFile != "" {
		step("Loading data...")
		if data, err = loader.LoadRecord(dataFile); err != nil {
			return fmt.Errorf("failed to load data: %w", err)
		}
	}

	sess := session.New(nil, data, session.WithLanguage(language))
	if err := sess.ApplyDocument(doc); err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	step("Rendering preview...")
	out, err := render.NewRenderer().Render(sess.Preview(), outputFormat)
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	fmt.Println(string(out))

	if explainMode && doc.Format == detect.FormatOCA {
		explainPrimaryField(sess.Specification, sess.Data)
	}
	return nil
}

// explainPrimaryField lists how each placeholder of the branding template resolves
func explainPrimaryField(s *model.DesignSpecification, data model.Record) {
	branding, ok := spec.LocalizedBranding(s, language)
	if !ok {
		fmt.Println("\nNo branding overlay; primary field is empty")
		return
	}

	fmt.Printf("\nPrimary field: %s\n", branding.PrimaryField)
	tokens := format.Placeholders(branding.PrimaryField)
	for i, token := range tokens {
		prefix := "├─ "
		if i == len(tokens)-1 {
			prefix = "└─ "
		}
		placeholder := "{{" + token + "}}"
		resolved := format.FormatPrimaryField(placeholder, data)
		if resolved == placeholder {
			fmt.Printf("%s%s (unresolved)\n", prefix, placeholder)
			continue
		}
		fmt.Printf("%s%s = %q\n", prefix, placeholder, resolved)
	}
}

func debugDocument() error {
	doc, err := loadDocument(inputFile)
	if err != nil {
		return err
	}

	renderer := render.NewRenderer()
	viewer := render.NewViewer()

	fmt.Printf("\nFormat: %s\n", doc.Format)
	switch doc.Format {
	case detect.FormatOCA:
		s, err := doc.Specification()
		if err != nil {
			return err
		}
		fmt.Printf("Languages: %s\n\n", strings.Join(spec.AvailableLanguages(s), ", "))
		fmt.Println(viewer.ViewSpecification(s, language))
	case detect.FormatProcivisOne:
		fmt.Println()
		fmt.Println(viewer.ViewClaims(doc.Procivis))
	}

	fmt.Println(renderer.DebugDump(doc.Value()))
	return nil
}

func serve() error {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listenPort != "" {
		cfg.Server.Port = listenPort
	}

	gin.SetMode(cfg.Server.Mode)

	validator, err := schema.NewValidator()
	if err != nil {
		return fmt.Errorf("failed to initialize schema validator: %w", err)
	}
	store := session.NewBoundedStore(
		session.Limits{MaxSessions: cfg.Session.MaxSessions, IdleTTL: cfg.Session.IdleTTL},
		session.WithLanguage(cfg.Convert.Language),
		session.WithConverter(cfg.Converter()),
	)

	router := handler.NewRouter(cfg, validator, store)

	addr := cfg.Addr()
	log.Printf("Server starting on %s", addr)
	log.Printf("API available at http://localhost%s/api/v1", addr)
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
