package validation

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Validator is a compiled rule expression. It is immutable after compilation
// and safe to share.
type Validator struct {
	id          string
	label       string
	typ         string
	typeMessage string
	required    bool
	steps       []step
	messages    *messageRenderer
	catalog     map[string]string
	// parent is set on when branches, which borrow its label.
	parent *Validator
}

type step struct {
	rule string
	// presence steps run even when the value is absent.
	presence bool
	run      func(ctx context.Context, st *state) error
}

// state is threaded through the steps of one Validate call. Transforming
// rules (trim, lowercase, casts) update value for the steps that follow.
type state struct {
	value  any
	values model.Values
}

// ID returns the id the validator was compiled for.
func (v *Validator) ID() string { return v.id }

// Label returns the name used in messages.
func (v *Validator) Label() string {
	if v.label == "" && v.parent != nil {
		return v.parent.Label()
	}
	return v.label
}

// Required reports whether the expression declares an unconditional
// required (or defined) rule.
func (v *Validator) Required() bool { return v.required }

// Validate runs the steps in order against value and returns the first
// failure as a *ValidationError. Other errors are context cancellation or
// failing custom tests.
func (v *Validator) Validate(ctx context.Context, value any, values model.Values) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st := &state{value: value, values: values}

	if !absent(st.value) {
		if err := v.checkType(st); err != nil {
			return err
		}
	}

	for _, s := range v.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.presence && absent(st.value) {
			continue
		}
		if err := s.run(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// ReportsRequired validates an empty value against the current model and
// reports whether the outcome is a required-class failure. Conditional rules
// (when) take part, so a field can become mandatory because of another field.
func (v *Validator) ReportsRequired(ctx context.Context, values model.Values) bool {
	return IsRequired(v.Validate(ctx, nil, values))
}

func (v *Validator) fail(kind Kind, key, custom string, params map[string]any) error {
	source := custom
	if source == "" {
		source = v.catalog[key]
	}
	if source == "" {
		source = v.catalog["defaultError"]
	}
	if params == nil {
		params = make(map[string]any, 2)
	}
	params["label"] = v.Label()
	params["path"] = v.Label()
	return &ValidationError{
		Field:   v.id,
		Kind:    kind,
		Message: v.messages.render(source, params),
	}
}

// checkType casts or rejects a present value according to the declared type.
func (v *Validator) checkType(st *state) error {
	switch v.typ {
	case "", "mixed":
		return nil
	case "string":
		if _, ok := st.value.(string); ok {
			return nil
		}
	case "number":
		if number, ok := model.Number(st.value); ok {
			st.value = number
			return nil
		}
		if text, ok := st.value.(string); ok {
			if number, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
				st.value = number
				return nil
			}
		}
	case "boolean":
		if _, ok := st.value.(bool); ok {
			return nil
		}
	case "date":
		if _, ok := st.value.(time.Time); ok {
			return nil
		}
		if text, ok := st.value.(string); ok {
			if parsed, err := model.ParseDate(text); err == nil {
				st.value = parsed
				return nil
			}
		}
	case "array":
		if _, ok := asSlice(st.value); ok {
			return nil
		}
	case "object":
		if model.IsItem(st.value) {
			return nil
		}
	}
	return v.fail(KindType, "typeError", v.typeMessage, map[string]any{"type": v.typ})
}

// absent treats nil and the empty string as "no value": only presence rules
// look at them.
func absent(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	default:
		return false
	}
}

func asSlice(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		return typed, true
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

// valueKind infers how size rules apply when no type rule was declared.
func (v *Validator) valueKind(value any) string {
	if v.typ != "" && v.typ != "mixed" {
		return v.typ
	}
	switch value.(type) {
	case string:
		return "string"
	case time.Time:
		return "date"
	}
	if _, ok := model.Number(value); ok {
		return "number"
	}
	if _, ok := asSlice(value); ok {
		return "array"
	}
	return ""
}
