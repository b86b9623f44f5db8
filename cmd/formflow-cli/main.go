package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bndr/gotabulate"
	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
)

var errFormInvalid = errors.New("form is not valid")

type config struct {
	source       string
	openapi      string
	schemaName   string
	operation    string
	format       string
	output       string
	locale       string
	valuesPath   string
	externalPath string
	verbose      bool
	validateOnly bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.source, "source", "", "form document path or URL (JSON or YAML)")
	flag.StringVar(&cfg.openapi, "openapi", "", "OpenAPI document path or URL to import the form from")
	flag.StringVar(&cfg.schemaName, "schema", "", "component schema to import (with -openapi)")
	flag.StringVar(&cfg.operation, "operation", "", "operationId whose request body is imported (with -openapi)")
	flag.StringVar(&cfg.format, "format", string(tui.OutputFormatJSON), "output format: json or pretty")
	flag.StringVar(&cfg.output, "output", "", "output file (stdout if empty)")
	flag.StringVar(&cfg.locale, "locale", "", "BCP 47 locale used to read and show numbers")
	flag.StringVar(&cfg.valuesPath, "values", "", "JSON file with initial values")
	flag.StringVar(&cfg.externalPath, "external", "", "JSON file with the external model")
	flag.BoolVar(&cfg.verbose, "verbose", false, "log controller activity to stderr")
	flag.BoolVar(&cfg.validateOnly, "validate", false, "validate the initial values without prompting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		if errors.Is(err, errFormInvalid) {
			os.Exit(1)
		}
		log.Fatalf("formflow: %v", err)
	}
}

func run(ctx context.Context, cfg config, stdout io.Writer, extra ...tui.Option) error {
	doc, values, err := loadForm(ctx, cfg)
	if err != nil {
		return err
	}
	external, err := readValues(cfg.externalPath)
	if err != nil {
		return err
	}

	formOptions := []form.Option{form.WithLogger(newLogger(cfg.verbose))}
	if cfg.locale != "" {
		formOptions = append(formOptions, form.WithOptions(form.Options{Locale: cfg.locale}))
	}
	props := form.Props{
		Model:              values,
		ExternalModel:      external,
		DynamicValidations: doc.DynamicValidations,
	}

	if cfg.validateOnly {
		ctrl, err := formflow.NewController(ctx, doc, props, formOptions...)
		if err != nil {
			return err
		}
		valid, err := ctrl.IsValid(ctx)
		if err != nil {
			return err
		}
		if !valid {
			fmt.Fprintln(stdout, errorTable(doc.Fields, ctrl.Errors()))
			return errFormInvalid
		}
		fmt.Fprintln(stdout, "valid")
		return nil
	}

	options := append([]tui.Option{
		tui.WithProps(props),
		tui.WithFormOptions(formOptions...),
		tui.WithOutputFormat(tui.OutputFormat(cfg.format)),
	}, extra...)
	session, err := tui.New(doc.Fields, options...)
	if err != nil {
		return err
	}
	result, err := session.Run(ctx)
	if err != nil {
		return err
	}
	payload, err := session.Encode(result.Values)
	if err != nil {
		return err
	}
	if err := writeOutput(cfg.output, payload, stdout); err != nil {
		return err
	}
	if !result.Valid {
		fmt.Fprintln(stdout, errorTable(doc.Fields, result.Errors))
		return errFormInvalid
	}
	return nil
}

// loadForm reads the form document, or imports it from an OpenAPI document,
// and overlays the values file on the imported defaults.
func loadForm(ctx context.Context, cfg config) (schema.Document, model.Values, error) {
	values, err := readValues(cfg.valuesPath)
	if err != nil {
		return schema.Document{}, nil, err
	}

	if cfg.openapi != "" {
		name := cfg.schemaName
		if name == "" {
			name = cfg.operation
		}
		if name == "" {
			return schema.Document{}, nil, errors.New("-openapi needs -schema or -operation")
		}
		doc, defaults, err := formflow.ImportOpenAPI(ctx, cfg.openapi, name)
		if err != nil {
			return schema.Document{}, nil, err
		}
		merged := defaults.Clone()
		if merged == nil {
			merged = model.Values{}
		}
		for id, value := range values {
			merged[id] = value
		}
		return doc, merged, nil
	}

	if strings.TrimSpace(cfg.source) == "" {
		return schema.Document{}, nil, errors.New("-source or -openapi is required")
	}
	doc, err := formflow.LoadDocument(ctx, cfg.source)
	if err != nil {
		return schema.Document{}, nil, err
	}
	return doc, values, nil
}

func readValues(path string) (model.Values, error) {
	if path == "" {
		return model.Values{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	var values model.Values
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode values %s: %w", path, err)
	}
	if values == nil {
		values = model.Values{}
	}
	return values, nil
}

func writeOutput(path string, payload []byte, stdout io.Writer) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, string(payload))
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(stdout, "Values written to %s\n", path)
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func errorTable(fields []schema.Field, errs validation.ErrorMap) string {
	failed := errs.Failed()
	rows := make([][]string, 0, len(failed))
	for _, id := range failed {
		label := id
		if field, ok := schema.Find(fields, id); ok {
			label = field.DisplayLabel()
		}
		rows = append(rows, []string{label, id, errs.Get(id)})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Field", "ID", "Error"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(60)
	return t.Render("grid")
}
