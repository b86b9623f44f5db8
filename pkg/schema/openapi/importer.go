// Package openapi builds form structures from OpenAPI 3 documents. Object
// schemas become field trees: scalar properties map to leaf fields, nested
// objects to groups, and JSON Schema constraints to rule expressions.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// Extension keys read from schema objects.
const (
	// ExtensionType forces the field type, e.g. "autocomplete" or "duration".
	ExtensionType = "x-formflow-type"
	// ExtensionOrder sorts properties; ordered ones come first, lower first,
	// the rest by name.
	ExtensionOrder = "x-order"
	// ExtensionDisplayProperty names the label key of enum items.
	ExtensionDisplayProperty = "x-formflow-display-property"
)

var (
	// ErrSchemaNotFound is returned when the named component schema or
	// operation does not exist.
	ErrSchemaNotFound = errors.New("openapi: schema not found")
	// ErrNotObject is returned when the selected schema has no properties.
	ErrNotObject = errors.New("openapi: schema is not an object")
)

// Result is an imported form.
type Result struct {
	Document schema.Document
	// Defaults holds the schema defaults keyed by field id.
	Defaults model.Values
	// Skipped lists properties that have no field equivalent (arrays,
	// nesting deeper than the interpreter supports).
	Skipped []string
}

// Option configures an Importer.
type Option func(*Importer)

// WithExternalRefs allows $ref to other files or URLs.
func WithExternalRefs(allowed bool) Option {
	return func(i *Importer) {
		i.externalRefs = allowed
	}
}

// WithValidation runs the kin-openapi document validator before importing.
func WithValidation() Option {
	return func(i *Importer) {
		i.validate = true
	}
}

// Importer loads an OpenAPI document once and imports forms from it.
type Importer struct {
	externalRefs bool
	validate     bool

	doc *openapi3.T
}

// Load parses data (JSON or YAML) and returns an Importer over it.
func Load(ctx context.Context, data []byte, options ...Option) (*Importer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	imp := &Importer{}
	for _, opt := range options {
		if opt != nil {
			opt(imp)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: imp.externalRefs,
	}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if imp.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	imp.doc = doc
	return imp, nil
}

// SchemaNames lists the component schemas in name order.
func (i *Importer) SchemaNames() []string {
	if i.doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(i.doc.Components.Schemas))
	for name := range i.doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema imports the component schema called name.
func (i *Importer) Schema(name string) (Result, error) {
	if i.doc.Components == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	ref, ok := i.doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	return convert(name, ref.Value)
}

// Operation imports the JSON request body of the operation with the given
// operationId.
func (i *Importer) Operation(operationID string) (Result, error) {
	if i.doc.Paths != nil {
		for _, item := range i.doc.Paths.Map() {
			if item == nil {
				continue
			}
			for _, op := range item.Operations() {
				if op == nil || op.OperationID != operationID {
					continue
				}
				body := requestSchema(op.RequestBody)
				if body == nil {
					return Result{}, fmt.Errorf("%w: operation %q has no request body", ErrSchemaNotFound, operationID)
				}
				result, err := convert(operationID, body)
				if err != nil {
					return Result{}, err
				}
				if result.Document.Title == "" {
					result.Document.Title = op.Summary
				}
				return result, nil
			}
		}
	}
	return Result{}, fmt.Errorf("%w: operation %q", ErrSchemaNotFound, operationID)
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

type converter struct {
	defaults model.Values
	skipped  []string
	used     map[string]struct{}
}

func convert(id string, src *openapi3.Schema) (Result, error) {
	if len(src.Properties) == 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrNotObject, id)
	}
	c := &converter{defaults: model.Values{}, used: make(map[string]struct{})}
	fields := c.properties("", src, 0)

	doc := schema.Document{
		Version: schema.DefaultVersion,
		ID:      id,
		Title:   schema.SanitizeText(src.Title),
		Fields:  schema.SanitizeFields(fields),
	}
	if err := schema.Check(doc.Fields); err != nil {
		return Result{}, fmt.Errorf("openapi: %s: %w", id, err)
	}
	return Result{Document: doc, Defaults: c.defaults, Skipped: c.skipped}, nil
}

// properties converts the properties of an object schema in display order.
func (c *converter) properties(prefix string, src *openapi3.Schema, depth int) []schema.Field {
	required := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		required[name] = true
	}

	var fields []schema.Field
	for _, name := range orderedNames(src.Properties) {
		ref := src.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		field, ok := c.property(path, name, ref.Value, required[name], depth)
		if !ok {
			c.skipped = append(c.skipped, path)
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

func (c *converter) property(path, name string, prop *openapi3.Schema, required bool, depth int) (schema.Field, bool) {
	field := schema.Field{
		ID:          c.id(path, name),
		Label:       prop.Title,
		Placeholder: prop.Description,
		Disabled:    prop.ReadOnly,
	}
	if field.Label == "" {
		field.Label = humanize(name)
	}

	kind := schemaType(prop)
	switch {
	case kind == "object" && len(prop.Properties) > 0:
		if depth >= schema.MaxDepth {
			return schema.Field{}, false
		}
		field.Type = schema.FieldTypeGroup
		field.Childs = c.properties(path, prop, depth+1)
		if len(field.Childs) == 0 {
			return schema.Field{}, false
		}
		return field, true
	case kind == "object" || kind == "array":
		return schema.Field{}, false
	}

	field.Type = fieldType(kind, prop)
	if forced, ok := prop.Extensions[ExtensionType].(string); ok && schema.FieldType(forced).Known() && !schema.FieldType(forced).Decorative() {
		field.Type = schema.FieldType(forced)
	}
	if len(prop.Enum) > 0 {
		field.Options = append([]any(nil), prop.Enum...)
		if display, ok := prop.Extensions[ExtensionDisplayProperty].(string); ok {
			field.DisplayProperty = display
		}
	}
	field.Validation = rules(kind, prop, required)
	field.IsMandatory = required
	if prop.Default != nil {
		c.defaults[field.ID] = prop.Default
	}
	return field, true
}

// id prefers the bare property name; a name already taken by another
// branch falls back to the dotted path.
func (c *converter) id(path, name string) string {
	id := name
	if _, taken := c.used[id]; taken {
		id = path
	}
	c.used[id] = struct{}{}
	return id
}

func fieldType(kind string, prop *openapi3.Schema) schema.FieldType {
	switch kind {
	case "boolean":
		return schema.FieldTypeCheckbox
	case "integer", "number":
		if prop.Format == "duration" || prop.Format == "minutes" {
			return schema.FieldTypeDuration
		}
		if len(prop.Enum) > 0 {
			return schema.FieldTypeSegment
		}
		return schema.FieldTypeNumber
	default:
		switch {
		case prop.Format == "date" || prop.Format == "date-time":
			return schema.FieldTypeDate
		case len(prop.Enum) > 0:
			return schema.FieldTypeSelect
		default:
			return schema.FieldTypeText
		}
	}
}

// rules translates JSON Schema constraints to a rule expression.
func rules(kind string, prop *openapi3.Schema, required bool) schema.RuleExpr {
	var expr schema.RuleExpr
	add := func(name string, args ...any) {
		expr = append(expr, schema.Rule{Name: name, Args: args})
	}

	switch kind {
	case "boolean":
		add("boolean")
	case "integer":
		add("number")
		add("integer")
	case "number":
		add("number")
	default:
		if prop.Format == "date" || prop.Format == "date-time" {
			add("date")
		} else {
			add("string")
		}
	}
	if required {
		add("required")
	}

	switch kind {
	case "integer", "number":
		if prop.Min != nil {
			add("min", *prop.Min)
		}
		if prop.Max != nil {
			add("max", *prop.Max)
		}
	case "string", "":
		if prop.MinLength > 0 {
			add("min", float64(prop.MinLength))
		}
		if prop.MaxLength != nil {
			add("max", float64(*prop.MaxLength))
		}
		if prop.Pattern != "" {
			add("matches", prop.Pattern)
		}
		switch prop.Format {
		case "email":
			add("email")
		case "uri", "url":
			add("url")
		}
	}
	if len(prop.Enum) > 0 {
		add("oneOf", append([]any(nil), prop.Enum...))
	}

	if len(expr) == 1 {
		// A bare type rule adds nothing the field type does not already say.
		return nil
	}
	return expr
}

func schemaType(prop *openapi3.Schema) string {
	if prop.Type == nil {
		if len(prop.Properties) > 0 {
			return "object"
		}
		return ""
	}
	for _, t := range prop.Type.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}

func orderedNames(properties openapi3.Schemas) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	order := func(name string) (float64, bool) {
		ref := properties[name]
		if ref == nil || ref.Value == nil {
			return 0, false
		}
		return model.Number(ref.Value.Extensions[ExtensionOrder])
	}
	sort.SliceStable(names, func(a, b int) bool {
		oa, okA := order(names[a])
		ob, okB := order(names[b])
		switch {
		case okA != okB:
			return okA
		case okA && oa != ob:
			return oa < ob
		}
		return names[a] < names[b]
	})
	return names
}

// humanize turns "firstName" or "first_name" into "First name".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			b.WriteRune(r + ('a' - 'A'))
		case i == 0 && r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
