// Package formflow is the top-level entry point of the module. It re-exports
// the core types and wires the loader, the OpenAPI importer and the form
// controller for callers that do not need the individual packages.
package formflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// DefaultRequestTimeout bounds URL fetches made through LoadDocument.
const DefaultRequestTimeout = 15 * time.Second

// Field aliases schema.Field.
type Field = schema.Field

// Document aliases schema.Document.
type Document = schema.Document

// Values aliases model.Values.
type Values = model.Values

// ErrorMap aliases validation.ErrorMap.
type ErrorMap = validation.ErrorMap

// Controller aliases form.Controller.
type Controller = form.Controller

// Props aliases form.Props.
type Props = form.Props

// ParseSource picks a URL source for http(s) locations and a file source
// otherwise.
func ParseSource(raw string) (schema.Source, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return nil, errors.New("formflow: source is empty")
	}
	if isURL(location) {
		return schema.SourceFromURL(location), nil
	}
	return schema.SourceFromFile(location), nil
}

// LoadDocument loads the form document at raw, a path or an http(s) URL.
// URL sources use a default client; pass schema.WithHTTPClient to override it.
func LoadDocument(ctx context.Context, raw string, options ...schema.LoaderOption) (Document, error) {
	src, err := ParseSource(raw)
	if err != nil {
		return Document{}, err
	}
	defaults := []schema.LoaderOption{
		schema.WithHTTPClient(http.DefaultClient),
		schema.WithRequestTimeout(DefaultRequestTimeout),
	}
	loader := schema.NewLoader(append(defaults, options...)...)
	return loader.Load(ctx, src)
}

// NewController builds a controller for doc and applies the initial props.
// The document's dynamic validations are used unless props carries its own.
func NewController(ctx context.Context, doc Document, props Props, options ...form.Option) (*Controller, error) {
	ctrl, err := form.New(doc.Fields, options...)
	if err != nil {
		return nil, fmt.Errorf("formflow: %s: %w", documentName(doc), err)
	}
	if props.DynamicValidations == nil {
		props.DynamicValidations = doc.DynamicValidations
	}
	if err := ctrl.Update(ctx, props); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func documentName(doc Document) string {
	switch {
	case doc.ID != "":
		return doc.ID
	case doc.Location() != "":
		return doc.Location()
	default:
		return "document"
	}
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
