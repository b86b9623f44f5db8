package validation

import (
	"context"
	"errors"
	"sort"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// dynamicPrefix keeps dynamic validators apart from field validators in the
// compiler cache.
const dynamicPrefix = "dynamic:"

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithEvaluator swaps the visibility evaluator used to skip hidden fields.
func WithEvaluator(evaluator visibility.Evaluator) EngineOption {
	return func(e *Engine) {
		if evaluator != nil {
			e.evaluator = evaluator
		}
	}
}

// Engine validates single fields and whole forms.
type Engine struct {
	compiler  *Compiler
	evaluator visibility.Evaluator
}

// NewEngine wires an engine around compiler. A nil compiler gets a default
// one.
func NewEngine(compiler *Compiler, opts ...EngineOption) *Engine {
	if compiler == nil {
		compiler = NewCompiler()
	}
	e := &Engine{compiler: compiler, evaluator: visibility.Default}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Compiler returns the underlying compiler.
func (e *Engine) Compiler() *Compiler {
	return e.compiler
}

// ValidateField validates the current value of one leaf field and returns
// its first failure message, or "" when the value passes. Visibility is not
// consulted. The error is non-nil only for configuration problems,
// cancellation and failing custom tests.
func (e *Engine) ValidateField(ctx context.Context, field schema.Field, values model.Values) (string, error) {
	if field.IsContainer() || !field.HasValidation() {
		return "", nil
	}
	validator, err := e.compiler.CompileField(field)
	if err != nil {
		return "", err
	}
	return outcome(validator.Validate(ctx, values.Value(field.ID), values))
}

// ValidateForm validates every visible leaf of fields (up to MaxDepth) that
// declares a rule and does not skip validation, then runs the dynamic
// validations in key order. A failing dynamic rule replaces the message of
// its field; a passing one leaves it alone.
func (e *Engine) ValidateForm(ctx context.Context, fields []schema.Field, values, external model.Values, dynamic map[string]schema.RuleExpr) (ErrorMap, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resolver := visibility.NewResolver(e.evaluator, values, external)
	errs := ErrorMap{}

	err := schema.Walk(fields, func(field schema.Field, _ int) (bool, error) {
		visible, err := resolver.Visible(field)
		if err != nil {
			return false, err
		}
		if !visible || field.SkipValidation {
			return false, nil
		}
		if field.IsContainer() {
			return true, nil
		}
		message, err := e.ValidateField(ctx, field, values)
		if err != nil {
			return false, err
		}
		if message != "" {
			errs[field.ID] = message
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(dynamic))
	for id := range dynamic {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		label := id
		if field, ok := schema.Find(fields, id); ok {
			label = field.DisplayLabel()
		}
		validator, err := e.compiler.Compile(dynamicPrefix+id, label, dynamic[id])
		if err != nil {
			return nil, err
		}
		message, err := outcome(validator.Validate(ctx, values.Value(id), values))
		if err != nil {
			return nil, err
		}
		if message != "" {
			errs[id] = message
		}
	}
	return errs, nil
}

// outcome turns a validation failure into its message and passes every
// other error through.
func outcome(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message, nil
	}
	return "", err
}
