package form

import (
	"fmt"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

// Colors are the palette handed to widgets.
type Colors struct {
	Primary     string
	Text        string
	Placeholder string
	Error       string
	Border      string
	Background  string
}

// FieldTheme overrides the look of one field type.
type FieldTheme struct {
	Padding int
	Colors  Colors
}

// Options is the presentation configuration. Zero values mean "inherit".
type Options struct {
	Padding int
	Colors  Colors
	Themes  map[schema.FieldType]FieldTheme
	// Theme supplies design tokens; ThemeVariant picks one of its variants.
	Theme        *theme.Manifest
	ThemeVariant string
	// Locale drives the default number formatter, e.g. "en" or "es-ES".
	Locale string
}

// token names read from a theme manifest.
const (
	TokenPrimary     = "primary"
	TokenText        = "text"
	TokenPlaceholder = "placeholder"
	TokenError       = "error"
	TokenBorder      = "border"
	TokenBackground  = "background"
)

// Merge returns o overlaid with the non-zero values of over.
func (o Options) Merge(over Options) Options {
	out := o
	if over.Padding != 0 {
		out.Padding = over.Padding
	}
	out.Colors = mergeColors(o.Colors, over.Colors)
	if len(o.Themes) > 0 || len(over.Themes) > 0 {
		out.Themes = make(map[schema.FieldType]FieldTheme, len(o.Themes)+len(over.Themes))
		for t, ft := range o.Themes {
			out.Themes[t] = ft
		}
		for t, ft := range over.Themes {
			base := out.Themes[t]
			if ft.Padding != 0 {
				base.Padding = ft.Padding
			}
			base.Colors = mergeColors(base.Colors, ft.Colors)
			out.Themes[t] = base
		}
	}
	if over.Theme != nil {
		out.Theme = over.Theme
	}
	if over.ThemeVariant != "" {
		out.ThemeVariant = over.ThemeVariant
	}
	if over.Locale != "" {
		out.Locale = over.Locale
	}
	return out
}

// Tokens flattens the manifest tokens with the selected variant on top.
func (o Options) Tokens() map[string]string {
	if o.Theme == nil {
		return nil
	}
	tokens := make(map[string]string, len(o.Theme.Tokens))
	for key, value := range o.Theme.Tokens {
		tokens[key] = value
	}
	if variant, ok := o.Theme.Variants[o.ThemeVariant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}
	return tokens
}

// Resolve fills colours left empty from the theme tokens. Explicit colours
// win over tokens.
func (o Options) Resolve() Options {
	tokens := o.Tokens()
	if len(tokens) == 0 {
		return o
	}
	fromTokens := Colors{
		Primary:     tokens[TokenPrimary],
		Text:        tokens[TokenText],
		Placeholder: tokens[TokenPlaceholder],
		Error:       tokens[TokenError],
		Border:      tokens[TokenBorder],
		Background:  tokens[TokenBackground],
	}
	o.Colors = mergeColors(fromTokens, o.Colors)
	return o
}

// FieldTheme returns the theme for t with the global padding and colours as
// fallbacks.
func (o Options) FieldTheme(t schema.FieldType) FieldTheme {
	out := FieldTheme{Padding: o.Padding, Colors: o.Colors}
	ft, ok := o.Themes[t]
	if !ok {
		return out
	}
	if ft.Padding != 0 {
		out.Padding = ft.Padding
	}
	out.Colors = mergeColors(out.Colors, ft.Colors)
	return out
}

func mergeColors(base, over Colors) Colors {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	return Colors{
		Primary:     pick(base.Primary, over.Primary),
		Text:        pick(base.Text, over.Text),
		Placeholder: pick(base.Placeholder, over.Placeholder),
		Error:       pick(base.Error, over.Error),
		Border:      pick(base.Border, over.Border),
		Background:  pick(base.Background, over.Background),
	}
}

// Config holds the defaults shared by every controller created with it.
type Config struct {
	mu       sync.RWMutex
	defaults Options
	custom   map[schema.FieldType]widgets.Widget
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{}
}

// SetDefaultOptions replaces the default options.
func (c *Config) SetDefaultOptions(options Options) {
	c.mu.Lock()
	c.defaults = options
	c.mu.Unlock()
}

// DefaultOptions returns the default options.
func (c *Config) DefaultOptions() Options {
	if c == nil {
		return Options{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults
}

// SetCustomComponents replaces the widgets used instead of the built-ins,
// keyed by field type.
func (c *Config) SetCustomComponents(components map[schema.FieldType]widgets.Widget) {
	copied := make(map[schema.FieldType]widgets.Widget, len(components))
	for t, w := range components {
		copied[t] = w
	}
	c.mu.Lock()
	c.custom = copied
	c.mu.Unlock()
}

// CustomComponents returns a copy of the custom widget mapping.
func (c *Config) CustomComponents() map[schema.FieldType]widgets.Widget {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[schema.FieldType]widgets.Widget, len(c.custom))
	for t, w := range c.custom {
		out[t] = w
	}
	return out
}

// ApplyComponents registers the custom components on reg.
func (c *Config) ApplyComponents(reg *widgets.Registry) {
	for t, w := range c.CustomComponents() {
		reg.Override(t, w)
	}
}

// SelectTheme resolves a theme through a go-theme selector and stores it in
// the default options.
func (c *Config) SelectTheme(selector theme.ThemeSelector, name, variant string) error {
	if selector == nil {
		return fmt.Errorf("form: theme selector is nil")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return fmt.Errorf("form: select theme %q: %w", name, err)
	}
	if selection == nil || selection.Manifest == nil {
		return fmt.Errorf("form: theme %q has no manifest", name)
	}
	c.mu.Lock()
	c.defaults.Theme = selection.Manifest
	c.defaults.ThemeVariant = selection.Variant
	c.mu.Unlock()
	return nil
}
