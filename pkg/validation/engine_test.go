package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

func expenseFields() []schema.Field {
	return []schema.Field{
		{ID: "title", Type: schema.FieldTypeText, Label: "Title", Validation: schema.MustParseRuleExpr([]any{[]any{"string"}, []any{"required"}})},
		{ID: "amount", Type: schema.FieldTypeNumber, Label: "Amount", Validation: schema.MustParseRuleExpr([]any{[]any{"number"}, []any{"positive"}})},
		{
			ID:   "extra",
			Type: schema.FieldTypeGroup,
			// group rules are ignored
			Validation: schema.MustParseRuleExpr([]any{"required"}),
			Childs: []schema.Field{
				{ID: "notes", Type: schema.FieldTypeText, Label: "Notes", Validation: schema.MustParseRuleExpr([]any{"max", 5.0})},
				{
					ID:                   "reason",
					Type:                 schema.FieldTypeText,
					Label:                "Reason",
					Validation:           schema.MustParseRuleExpr([]any{"required"}),
					VisibilityFieldID:    "title",
					VisibilityFieldValue: "lunch",
				},
			},
		},
		{ID: "internal", Type: schema.FieldTypeText, SkipValidation: true, Validation: schema.MustParseRuleExpr([]any{"required"})},
	}
}

func TestEngine_ValidateForm(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	values := model.Values{"title": "lunch", "amount": -3, "notes": "too long"}

	errs, err := engine.ValidateForm(context.Background(), expenseFields(), values, nil, nil)
	if err != nil {
		t.Fatalf("ValidateForm: %v", err)
	}
	want := ErrorMap{
		"amount": "Amount must be a positive number",
		"notes":  "Notes must be at most 5 characters",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if errs.Valid() {
		t.Fatalf("expected invalid form")
	}
}

func TestEngine_ValidateFormVisibleNestedField(t *testing.T) {
	t.Parallel()

	errs, err := NewEngine(nil).ValidateForm(context.Background(), expenseFields(), model.Values{"title": "taxi"}, nil, nil)
	if err != nil {
		t.Fatalf("ValidateForm: %v", err)
	}
	if got := errs.Get("reason"); got != "Reason is a required field" {
		t.Fatalf("reason error = %q", got)
	}
	if _, ok := errs["internal"]; ok {
		t.Fatalf("skipValidation field must not be validated")
	}
	if _, ok := errs["extra"]; ok {
		t.Fatalf("container rules must be ignored")
	}
}

func TestEngine_DynamicValidationsOverrideOnFailure(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{ID: "amount", Type: schema.FieldTypeNumber, Label: "Amount", Validation: schema.MustParseRuleExpr([]any{"required"})},
		{ID: "title", Type: schema.FieldTypeText, Label: "Title", Validation: schema.MustParseRuleExpr([]any{"required"})},
	}
	dynamic := map[string]schema.RuleExpr{
		"amount": schema.MustParseRuleExpr([]any{"max", map[string]any{"ref": "budget"}, "Amount exceeds budget"}),
		"title":  schema.MustParseRuleExpr([]any{"max", 100.0}),
	}

	errs, err := NewEngine(nil).ValidateForm(context.Background(), fields, model.Values{"amount": 50, "budget": 10}, nil, dynamic)
	if err != nil {
		t.Fatalf("ValidateForm: %v", err)
	}
	want := ErrorMap{
		"amount": "Amount exceeds budget",
		"title":  "Title is a required field",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_DynamicValidationsRunForEveryKey(t *testing.T) {
	t.Parallel()

	engine := NewEngine(NewCompiler())
	values := model.Values{"title": "lunch", "amount": 5}
	dynamic := map[string]schema.RuleExpr{
		"reason":   schema.MustParseRuleExpr([]any{"required"}),
		"internal": schema.MustParseRuleExpr([]any{"required"}),
	}

	reason, _ := schema.Find(expenseFields(), "reason")
	if visible, err := visibility.IsFieldVisible(reason, values, nil); err != nil || visible {
		t.Fatalf("reason should be hidden by title=lunch (visible=%v, err=%v)", visible, err)
	}

	errs, err := engine.ValidateForm(context.Background(), expenseFields(), values, nil, dynamic)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := ErrorMap{
		"reason":   "Reason is a required field",
		"internal": "internal is a required field",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ValidateFormIsIdempotent(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	values := model.Values{"title": "", "amount": 2}
	first, err := engine.ValidateForm(context.Background(), expenseFields(), values, nil, nil)
	if err != nil {
		t.Fatalf("ValidateForm: %v", err)
	}
	second, err := engine.ValidateForm(context.Background(), expenseFields(), values, nil, nil)
	if err != nil {
		t.Fatalf("ValidateForm: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second pass differs (-first +second):\n%s", diff)
	}
}

func TestEngine_ConfigurationErrorsEscape(t *testing.T) {
	t.Parallel()

	external := []schema.Field{{
		ID:                        "x",
		Type:                      schema.FieldTypeText,
		VisibilityFieldID:         "mode",
		VisibilityFieldValue:      "a",
		IsVisibilityFieldExternal: true,
	}}
	_, err := NewEngine(nil).ValidateForm(context.Background(), external, model.Values{}, nil, nil)
	if !errors.Is(err, schema.ErrExternalModelMissing) {
		t.Fatalf("expected external model error, got %v", err)
	}

	deep := []schema.Field{{
		ID: "g", Type: schema.FieldTypeGroup, Childs: []schema.Field{{
			ID: "i", Type: schema.FieldTypeInline, Childs: []schema.Field{{
				ID: "g2", Type: schema.FieldTypeGroup, Childs: []schema.Field{{ID: "leaf", Type: schema.FieldTypeText}},
			}},
		}},
	}}
	_, err = NewEngine(nil).ValidateForm(context.Background(), deep, model.Values{}, nil, nil)
	if !errors.Is(err, schema.ErrNestingTooDeep) {
		t.Fatalf("expected nesting error, got %v", err)
	}
}

func TestEngine_ValidateFieldIgnoresVisibility(t *testing.T) {
	t.Parallel()

	field := schema.Field{
		ID:                   "reason",
		Type:                 schema.FieldTypeText,
		Label:                "Reason",
		Validation:           schema.MustParseRuleExpr([]any{"required"}),
		VisibilityFieldID:    "title",
		VisibilityFieldValue: "lunch",
	}
	message, err := NewEngine(nil).ValidateField(context.Background(), field, model.Values{"title": "lunch"})
	if err != nil {
		t.Fatalf("ValidateField: %v", err)
	}
	if message != "Reason is a required field" {
		t.Fatalf("message = %q", message)
	}
}
