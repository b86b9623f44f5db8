package schema

import "strings"

// FieldType enumerates the controls a form structure can declare.
type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeNumber       FieldType = "number"
	FieldTypeCheckbox     FieldType = "checkbox"
	FieldTypeToggle       FieldType = "toggle"
	FieldTypeSelect       FieldType = "select"
	FieldTypeAutocomplete FieldType = "autocomplete"
	FieldTypeDate         FieldType = "date"
	FieldTypeDuration     FieldType = "duration"
	FieldTypeMap          FieldType = "map"
	FieldTypeSegment      FieldType = "segment"
	FieldTypeHeader       FieldType = "header"
	FieldTypeGroup        FieldType = "group"
	FieldTypeInline       FieldType = "inline"
	FieldTypeTitle        FieldType = "title"
	FieldTypeSeparator    FieldType = "separator"
)

var knownTypes = map[FieldType]struct{}{
	FieldTypeText:         {},
	FieldTypeNumber:       {},
	FieldTypeCheckbox:     {},
	FieldTypeToggle:       {},
	FieldTypeSelect:       {},
	FieldTypeAutocomplete: {},
	FieldTypeDate:         {},
	FieldTypeDuration:     {},
	FieldTypeMap:          {},
	FieldTypeSegment:      {},
	FieldTypeHeader:       {},
	FieldTypeGroup:        {},
	FieldTypeInline:       {},
	FieldTypeTitle:        {},
	FieldTypeSeparator:    {},
}

// Known reports whether the type is one of the supported field types.
func (t FieldType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Decorative reports whether the type renders static chrome and never holds
// a model value.
func (t FieldType) Decorative() bool {
	switch t {
	case FieldTypeHeader, FieldTypeTitle, FieldTypeSeparator:
		return true
	default:
		return false
	}
}

// Kind classifies a field as a leaf or one of the two container variants.
type Kind int

const (
	KindLeaf Kind = iota
	KindGroup
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindInline:
		return "inline"
	default:
		return "leaf"
	}
}

// MaxDepth is the deepest container level the interpreter walks. Containers
// may nest once (group of inlines, inline of groups); children of a container
// found at MaxDepth are rejected.
const MaxDepth = 2

// Field is a node of the form structure. Nesting is presentational only: every
// field, however deep, reads and writes the flat model under its own ID.
type Field struct {
	ID    string    `json:"id" yaml:"id"`
	Type  FieldType `json:"type" yaml:"type"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`

	Placeholder string  `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Disabled    bool    `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	AutoFocus   bool    `json:"autoFocus,omitempty" yaml:"autoFocus,omitempty"`
	Flex        float64 `json:"flex,omitempty" yaml:"flex,omitempty"`
	Childs      []Field `json:"childs,omitempty" yaml:"childs,omitempty"`

	Validation     RuleExpr `json:"validation,omitempty" yaml:"validation,omitempty"`
	SkipValidation bool     `json:"skipValidation,omitempty" yaml:"skipValidation,omitempty"`
	IsMandatory    bool     `json:"isMandatory,omitempty" yaml:"isMandatory,omitempty"`

	VisibilityFieldID             string `json:"visibilityFieldId,omitempty" yaml:"visibilityFieldId,omitempty"`
	VisibilityFieldValue          any    `json:"visibilityFieldValue,omitempty" yaml:"visibilityFieldValue,omitempty"`
	IsVisibilityFieldExternal     bool   `json:"isVisibilityFieldExternal,omitempty" yaml:"isVisibilityFieldExternal,omitempty"`
	IsVisibilityConditionInverted bool   `json:"isVisibilityConditionInverted,omitempty" yaml:"isVisibilityConditionInverted,omitempty"`
	PersistentValue               bool   `json:"persistentValue,omitempty" yaml:"persistentValue,omitempty"`

	Options                []any  `json:"options,omitempty" yaml:"options,omitempty"`
	DisplayProperty        string `json:"displayProperty,omitempty" yaml:"displayProperty,omitempty"`
	KeyProperty            string `json:"keyProperty,omitempty" yaml:"keyProperty,omitempty"`
	ShouldReturnKey        bool   `json:"shouldReturnKey,omitempty" yaml:"shouldReturnKey,omitempty"`
	UpdateFieldID          string `json:"updateFieldId,omitempty" yaml:"updateFieldId,omitempty"`
	UpdateFieldKeyProperty string `json:"updateFieldKeyProperty,omitempty" yaml:"updateFieldKeyProperty,omitempty"`
}

// Kind returns the variant of the field derived from its type.
func (f Field) Kind() Kind {
	switch f.Type {
	case FieldTypeGroup:
		return KindGroup
	case FieldTypeInline:
		return KindInline
	default:
		return KindLeaf
	}
}

// IsContainer reports whether the field groups children.
func (f Field) IsContainer() bool {
	return f.Kind() != KindLeaf
}

// HasValidation reports whether a rule expression is attached.
func (f Field) HasValidation() bool {
	return len(f.Validation) > 0
}

// HasVisibilityRule reports whether both halves of the visibility rule are set.
func (f Field) HasVisibilityRule() bool {
	return strings.TrimSpace(f.VisibilityFieldID) != "" && f.VisibilityFieldValue != nil
}

// DisplayLabel falls back to the ID when no label was declared.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.ID
}

// Find locates a field by ID anywhere in the structure.
func Find(fields []Field, id string) (Field, bool) {
	for _, field := range fields {
		if field.ID == id {
			return field, true
		}
		if len(field.Childs) > 0 {
			if found, ok := Find(field.Childs, id); ok {
				return found, true
			}
		}
	}
	return Field{}, false
}

// Flatten returns every field of the structure in document order, containers
// before their children.
func Flatten(fields []Field) []Field {
	var out []Field
	for _, field := range fields {
		out = append(out, field)
		if len(field.Childs) > 0 {
			out = append(out, Flatten(field.Childs)...)
		}
	}
	return out
}
