package schema

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func TestParseRuleExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  any
		want RuleExpr
	}{
		{name: "nil", raw: nil, want: nil},
		{name: "bare name", raw: "required", want: RuleExpr{{Name: "required"}}},
		{name: "single tuple", raw: []any{"min", 3}, want: RuleExpr{{Name: "min", Args: []any{3.0}}}},
		{
			name: "list of tuples",
			raw:  []any{[]any{"string"}, "required", []any{"oneOf", []any{1, "b"}, "pick one"}},
			want: RuleExpr{
				{Name: "string"},
				{Name: "required"},
				{Name: "oneOf", Args: []any{[]any{1.0, "b"}, "pick one"}},
			},
		},
		{
			name: "nested maps are normalized",
			raw:  []any{"when", "kind", map[string]any{"is": int64(2), "then": []any{"required"}}},
			want: RuleExpr{{Name: "when", Args: []any{"kind", map[string]any{"is": 2.0, "then": []any{"required"}}}}},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRuleExpr(tc.raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(tc.want, got, cmp.Comparer(func(a, b RuleExpr) bool {
				return len(a) == 0 && len(b) == 0 || cmp.Equal([]Rule(a), []Rule(b))
			})); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRuleExpr_Invalid(t *testing.T) {
	t.Parallel()

	invalid := []any{
		"",
		[]any{[]any{}},
		[]any{[]any{3}},
		[]any{[]any{"min"}, 5},
		42,
		[]any{"string", "required"},
		[]any{"trim", "lowercase", "email"},
	}
	for _, raw := range invalid {
		if _, err := ParseRuleExpr(raw); !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("ParseRuleExpr(%#v): expected ErrInvalidRule, got %v", raw, err)
		}
	}
}

func TestParseRuleExpr_TupleMessageMayNameARule(t *testing.T) {
	t.Parallel()

	expr, err := ParseRuleExpr([]any{"matches", "^x+$", "required"})
	if err != nil {
		t.Fatalf("ParseRuleExpr: %v", err)
	}
	if diff := cmp.Diff(RuleExpr{{Name: "matches", Args: []any{"^x+$", "required"}}}, expr); diff != "" {
		t.Fatalf("expr mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleExpr_JSONUsesListForm(t *testing.T) {
	t.Parallel()

	var expr RuleExpr
	if err := json.Unmarshal([]byte(`["max", 10, "too long"]`), &expr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(expr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `[["max",10,"too long"]]` {
		t.Fatalf("marshal = %s", out)
	}
	if !expr.Has("max") || expr.Has("min") {
		t.Fatalf("Has mismatch")
	}
}
