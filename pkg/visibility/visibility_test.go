package visibility

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
)

func TestIsFieldVisible_ListAndInversionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		value    any
		inverted bool
		model    model.Values
		want     bool
	}{
		{name: "scalar equal", value: "a", model: model.Values{"x": "a"}, want: false},
		{name: "scalar equal inverted", value: "a", inverted: true, model: model.Values{"x": "a"}, want: true},
		{name: "scalar differs", value: "a", model: model.Values{"x": "c"}, want: true},
		{name: "scalar differs inverted", value: "a", inverted: true, model: model.Values{"x": "c"}, want: false},
		{name: "list one match", value: []any{"a", "b"}, model: model.Values{"x": "a"}, want: false},
		{name: "list one match inverted", value: []any{"a", "b"}, inverted: true, model: model.Values{"x": "a"}, want: false},
		{name: "list no match", value: []any{"a", "b"}, model: model.Values{"x": "c"}, want: true},
		{name: "list no match inverted", value: []any{"a", "b"}, inverted: true, model: model.Values{"x": "c"}, want: false},
		{name: "string slice", value: []string{"a", "b"}, model: model.Values{"x": "b"}, want: false},
		{name: "dependency unset", value: true, model: model.Values{}, want: true},
		{name: "dependency unset inverted", value: true, inverted: true, model: model.Values{}, want: false},
		{name: "numeric kinds compare by value", value: 1, model: model.Values{"x": 1.0}, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			field := schema.Field{
				ID:                            "target",
				Type:                          schema.FieldTypeText,
				VisibilityFieldID:             "x",
				VisibilityFieldValue:          tc.value,
				IsVisibilityConditionInverted: tc.inverted,
			}
			got, err := IsFieldVisible(field, tc.model, nil)
			if err != nil {
				t.Fatalf("IsFieldVisible returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("visible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsFieldVisible_IncompleteRuleIsVisible(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{ID: "a", Type: schema.FieldTypeText, VisibilityFieldID: "x"},
		{ID: "b", Type: schema.FieldTypeText, VisibilityFieldValue: "x"},
		{ID: "c", Type: schema.FieldTypeText, VisibilityFieldValue: "x", IsVisibilityFieldExternal: true},
	}
	for _, field := range fields {
		got, err := IsFieldVisible(field, model.Values{"x": "x"}, nil)
		if err != nil {
			t.Fatalf("field %s: unexpected error %v", field.ID, err)
		}
		if !got {
			t.Fatalf("field %s: expected visible without a complete rule", field.ID)
		}
	}
}

func TestIsFieldVisible_KeyPropertyComparesKeys(t *testing.T) {
	t.Parallel()

	field := schema.Field{
		ID:                   "city",
		Type:                 schema.FieldTypeSelect,
		VisibilityFieldID:    "country",
		VisibilityFieldValue: map[string]any{"id": 1, "name": "Spain"},
		KeyProperty:          "id",
	}

	got, err := IsFieldVisible(field, model.Values{"country": map[string]any{"id": 1.0, "name": "España"}}, nil)
	if err != nil {
		t.Fatalf("IsFieldVisible: %v", err)
	}
	if got {
		t.Fatalf("expected matching keys to hide the field")
	}

	got, err = IsFieldVisible(field, model.Values{"country": map[string]any{"id": 2, "name": "Spain"}}, nil)
	if err != nil {
		t.Fatalf("IsFieldVisible: %v", err)
	}
	if !got {
		t.Fatalf("expected different keys to show the field")
	}
}

func TestIsFieldVisible_ExternalModel(t *testing.T) {
	t.Parallel()

	field := schema.Field{
		ID:                        "notes",
		Type:                      schema.FieldTypeText,
		VisibilityFieldID:         "mode",
		VisibilityFieldValue:      "simple",
		IsVisibilityFieldExternal: true,
	}

	_, err := IsFieldVisible(field, model.Values{"mode": "simple"}, nil)
	if err == nil {
		t.Fatalf("expected configuration error without external model")
	}
	if !errors.Is(err, schema.ErrConfiguration) || !errors.Is(err, schema.ErrExternalModelMissing) {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := IsFieldVisible(field, model.Values{"mode": "other"}, model.Values{"mode": "simple"})
	if err != nil {
		t.Fatalf("IsFieldVisible: %v", err)
	}
	if got {
		t.Fatalf("expected the external value, not the form value, to drive the rule")
	}
}

func TestResolver_UsesCustomEvaluator(t *testing.T) {
	t.Parallel()

	calls := 0
	resolver := NewResolver(EvaluatorFunc(func(field schema.Field, ctx Context) (bool, error) {
		calls++
		return ctx.Values["on"] == true, nil
	}), model.Values{"on": true}, nil)

	ok, err := resolver.Visible(schema.Field{ID: "a", Type: schema.FieldTypeText})
	if err != nil || !ok {
		t.Fatalf("Visible = %v, %v", ok, err)
	}
	if calls != 1 {
		t.Fatalf("expected evaluator call, got %d", calls)
	}
}
