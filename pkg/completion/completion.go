// Package completion decides whether every mandatory visible field of a form
// holds a value.
package completion

import (
	"context"

	"github.com/samber/lo"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Tracker computes completion against a shared compiler so validators are
// compiled once per field id.
type Tracker struct {
	compiler  *validation.Compiler
	evaluator visibility.Evaluator
}

// NewTracker returns a tracker. Nil arguments fall back to a fresh compiler
// and the default visibility evaluator.
func NewTracker(compiler *validation.Compiler, evaluator visibility.Evaluator) *Tracker {
	if compiler == nil {
		compiler = validation.NewCompiler()
	}
	if evaluator == nil {
		evaluator = visibility.Default
	}
	return &Tracker{compiler: compiler, evaluator: evaluator}
}

// MandatoryFields lists, in document order, the visible leaves whose rules
// reject an empty value under the current model. Hidden containers hide
// their children.
func (t *Tracker) MandatoryFields(ctx context.Context, fields []schema.Field, values, external model.Values) ([]schema.Field, error) {
	resolver := visibility.NewResolver(t.evaluator, values, external)
	var mandatory []schema.Field

	err := schema.Walk(fields, func(field schema.Field, _ int) (bool, error) {
		visible, err := resolver.Visible(field)
		if err != nil {
			return false, err
		}
		if !visible {
			return false, nil
		}
		if field.IsContainer() {
			return true, nil
		}
		if !field.HasValidation() {
			return false, nil
		}
		validator, err := t.compiler.CompileField(field)
		if err != nil {
			return false, err
		}
		if validator.ReportsRequired(ctx, values) {
			mandatory = append(mandatory, field)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return mandatory, nil
}

// IsFormFilled reports whether no mandatory field is empty (nil, "" or
// false).
func (t *Tracker) IsFormFilled(ctx context.Context, fields []schema.Field, values, external model.Values) (bool, error) {
	mandatory, err := t.MandatoryFields(ctx, fields, values, external)
	if err != nil {
		return false, err
	}
	return lo.EveryBy(mandatory, func(field schema.Field) bool {
		return !model.IsEmpty(values.Value(field.ID))
	}), nil
}

// IsFormFilled is a convenience wrapper over a one-off Tracker.
func IsFormFilled(ctx context.Context, fields []schema.Field, values, external model.Values, compiler *validation.Compiler) (bool, error) {
	return NewTracker(compiler, nil).IsFormFilled(ctx, fields, values, external)
}
