package widgets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetText         = "text"
	WidgetNumber       = "number"
	WidgetCheckbox     = "checkbox"
	WidgetToggle       = "toggle"
	WidgetSelect       = "select"
	WidgetAutocomplete = "autocomplete"
	WidgetSegment      = "segment"
	WidgetDate         = "date"
	WidgetDuration     = "duration"
	WidgetMap          = "map"
	WidgetHeader       = "header"
	WidgetTitle        = "title"
	WidgetSeparator    = "separator"
	WidgetGroup        = "group"
	WidgetInline       = "inline"
)

// customPriority outranks every built-in matcher.
const customPriority = 1000

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields based on registered matchers. Higher
// priority wins; ties fall back to registration order. Names resolve to
// Widget implementations bound with Bind.
type Registry struct {
	mu      sync.RWMutex
	rules   []rule
	widgets map[string]Widget
}

// NewRegistry constructs a registry with the built-in matchers registered.
// No widget implementations are bound; renderers bind their own.
func NewRegistry() *Registry {
	reg := &Registry{widgets: make(map[string]Widget)}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Bind attaches an implementation to a widget name. A later bind replaces
// the earlier one.
func (r *Registry) Bind(name string, widget Widget) {
	if r == nil || widget == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.widgets == nil {
		r.widgets = make(map[string]Widget)
	}
	r.widgets[strings.TrimSpace(name)] = widget
}

// Override routes every field of type t to widget, ahead of the built-ins.
// It backs the custom component mapping of the form configuration.
func (r *Registry) Override(t schema.FieldType, widget Widget) {
	if r == nil || widget == nil {
		return
	}
	name := "custom:" + string(t)
	r.Bind(name, widget)
	if r.hasRule(name) {
		return
	}
	r.Register(name, customPriority, func(field schema.Field) bool {
		return field.Type == t
	})
}

func (r *Registry) hasRule(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.rules {
		if entry.name == name {
			return true
		}
	}
	return false
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(field schema.Field) (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Widget returns the implementation that renders field. Unknown types and
// resolved names without a bound implementation are configuration errors.
func (r *Registry) Widget(field schema.Field) (Widget, error) {
	name, ok := r.Resolve(field)
	if !ok {
		return nil, schema.NewConfigError(field.ID, fmt.Errorf("%w %q", schema.ErrUnsupportedType, field.Type))
	}
	r.mu.RLock()
	widget, bound := r.widgets[name]
	r.mu.RUnlock()
	if !bound {
		return nil, schema.NewConfigError(field.ID, fmt.Errorf("%w %q: no widget bound to %q", schema.ErrUnsupportedType, field.Type, name))
	}
	return widget, nil
}

// Check resolves every field of the structure up front so unsupported types
// fail before anything is rendered.
func (r *Registry) Check(fields []schema.Field) error {
	return schema.Walk(fields, func(field schema.Field, _ int) (bool, error) {
		if _, err := r.Widget(field); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (r *Registry) registerBuiltins() {
	byType := func(t schema.FieldType) Matcher {
		return func(field schema.Field) bool { return field.Type == t }
	}

	r.Register(WidgetSegment, 90, byType(schema.FieldTypeSegment))
	r.Register(WidgetAutocomplete, 80, byType(schema.FieldTypeAutocomplete))
	r.Register(WidgetSelect, 70, byType(schema.FieldTypeSelect))
	r.Register(WidgetToggle, 60, byType(schema.FieldTypeToggle))
	r.Register(WidgetCheckbox, 60, byType(schema.FieldTypeCheckbox))

	for _, entry := range []struct {
		name string
		t    schema.FieldType
	}{
		{WidgetText, schema.FieldTypeText},
		{WidgetNumber, schema.FieldTypeNumber},
		{WidgetDate, schema.FieldTypeDate},
		{WidgetDuration, schema.FieldTypeDuration},
		{WidgetMap, schema.FieldTypeMap},
		{WidgetHeader, schema.FieldTypeHeader},
		{WidgetTitle, schema.FieldTypeTitle},
		{WidgetSeparator, schema.FieldTypeSeparator},
		{WidgetGroup, schema.FieldTypeGroup},
		{WidgetInline, schema.FieldTypeInline},
	} {
		r.Register(entry.name, 50, byType(entry.t))
	}
}
