package tui

import (
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

// OutputFormat controls how the collected model is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits an indented JSON object.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits one "id: value" line per field.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional prefixes the session applies to messages. Keep
// minimal to avoid coupling session logic to ANSI specifics.
type Theme struct {
	HeaderPrefix string
	InfoPrefix   string
	ErrorPrefix  string
	// MandatoryMark is appended to the label of mandatory fields.
	MandatoryMark string
}

// DefaultTheme is used when no theme is configured.
var DefaultTheme = Theme{
	HeaderPrefix:  "== ",
	ErrorPrefix:   "! ",
	MandatoryMark: " *",
}

// DefaultMaxAttempts bounds how often a field or the whole form is prompted
// again after rejected input.
const DefaultMaxAttempts = 3

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutputFormat selects the serialization used by Encode.
func WithOutputFormat(format OutputFormat) Option {
	return func(s *Session) {
		if format != "" {
			s.outputFormat = format
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithMaxAttempts bounds re-prompting; values below one are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithProps seeds the model, the external model and the mappers handed to
// the controller.
func WithProps(props form.Props) Option {
	return func(s *Session) {
		s.props = props
	}
}

// WithFormOptions forwards options to the underlying controller. OnChange
// is owned by the session and is always overridden.
func WithFormOptions(opts ...form.Option) Option {
	return func(s *Session) {
		s.formOptions = append(s.formOptions, opts...)
	}
}

// WithCustomWidget replaces the terminal widget for one field type.
func WithCustomWidget(t schema.FieldType, widget widgets.Widget) Option {
	return func(s *Session) {
		if s.custom == nil {
			s.custom = make(map[schema.FieldType]widgets.Widget)
		}
		s.custom[t] = widget
	}
}
