package visibility

import (
	"github.com/samber/lo"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// Evaluator decides whether a field is shown for the supplied data.
type Evaluator interface {
	Eval(field schema.Field, ctx Context) (bool, error)
}

// Context provides the inputs a visibility rule reads. Values is the form
// model; External is the optional read-only model consulted by fields flagged
// isVisibilityFieldExternal.
type Context struct {
	Values   model.Values
	External model.Values
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field schema.Field, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(field schema.Field, ctx Context) (bool, error) {
	return fn(field, ctx)
}

// Default evaluates the declarative visibilityField* attributes.
var Default Evaluator = EvaluatorFunc(func(field schema.Field, ctx Context) (bool, error) {
	return IsFieldVisible(field, ctx.Values, ctx.External)
})

// IsFieldVisible reports whether field is shown given the model and the
// optional external model. It is pure and cheap enough to call on every
// render.
//
// A rule needs both visibilityFieldId and visibilityFieldValue. Without
// inversion the field stays visible while the dependency differs from the
// configured value (every value, for a list). Inversion flips the result and
// switches the list combination to "any", so an inverted list rule shows the
// field only when the dependency matches all of the values.
//
// Evaluating an external rule without an external model is a configuration
// error.
func IsFieldVisible(field schema.Field, values, external model.Values) (bool, error) {
	if !field.HasVisibilityRule() {
		return true, nil
	}

	source := values
	if field.IsVisibilityFieldExternal {
		if external == nil {
			return false, schema.NewConfigError(field.ID, schema.ErrExternalModelMissing)
		}
		source = external
	}
	actual := source.Value(field.VisibilityFieldID)

	differs := func(candidate any) bool {
		if field.KeyProperty != "" && model.IsItem(candidate) && model.IsItem(actual) {
			want, _ := model.Property(candidate, field.KeyProperty)
			got, _ := model.Property(actual, field.KeyProperty)
			return !model.Equal(want, got)
		}
		return !model.Truthy(actual) || !model.Equal(candidate, actual)
	}

	var visible bool
	if candidates, ok := asList(field.VisibilityFieldValue); ok {
		if field.IsVisibilityConditionInverted {
			visible = lo.SomeBy(candidates, differs)
		} else {
			visible = lo.EveryBy(candidates, differs)
		}
	} else {
		visible = differs(field.VisibilityFieldValue)
	}

	return visible != field.IsVisibilityConditionInverted, nil
}

// Resolver binds a model snapshot so renderers can ask per field.
type Resolver struct {
	evaluator Evaluator
	ctx       Context
}

// NewResolver returns a Resolver over the given snapshot. A nil evaluator
// falls back to Default.
func NewResolver(evaluator Evaluator, values, external model.Values) Resolver {
	if evaluator == nil {
		evaluator = Default
	}
	return Resolver{evaluator: evaluator, ctx: Context{Values: values, External: external}}
}

// Visible evaluates field against the bound snapshot.
func (r Resolver) Visible(field schema.Field) (bool, error) {
	evaluator := r.evaluator
	if evaluator == nil {
		evaluator = Default
	}
	return evaluator.Eval(field, r.ctx)
}

func asList(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		return typed, true
	case []string:
		return lo.Map(typed, func(item string, _ int) any { return item }), true
	case []map[string]any:
		return lo.Map(typed, func(item map[string]any, _ int) any { return item }), true
	default:
		return nil, false
	}
}
