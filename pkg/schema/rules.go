package schema

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Rule is a single tuple of a rule expression: a rule name followed by its
// arguments, e.g. ["min", 3, "too short"].
type Rule struct {
	Name string
	Args []any
}

// RuleExpr is the declarative validation attached to a field. It decodes from
// either a single tuple (["required"]) or a list of tuples
// ([["string"], ["required"], ["max", 10]]). A bare string is shorthand for a
// rule without arguments.
type RuleExpr []Rule

// Has reports whether the expression contains a rule with the given name.
func (e RuleExpr) Has(name string) bool {
	for _, rule := range e {
		if rule.Name == name {
			return true
		}
	}
	return false
}

// ParseRuleExpr converts a decoded JSON/YAML value into a rule expression.
// A list that starts with a string is read as one tuple, so
// ["min", 3, "too short"] is a single rule. A list of bare rule names such as
// ["string", "required"] would silently become a "string" rule with the
// message "required" and is rejected; write [["string"], ["required"]].
func ParseRuleExpr(raw any) (RuleExpr, error) {
	switch typed := raw.(type) {
	case nil:
		return nil, nil
	case RuleExpr:
		return typed, nil
	case string:
		name := strings.TrimSpace(typed)
		if name == "" {
			return nil, fmt.Errorf("%w: empty rule name", ErrInvalidRule)
		}
		return RuleExpr{{Name: name}}, nil
	case []any:
		if len(typed) == 0 {
			return nil, nil
		}
		if _, ok := typed[0].(string); ok {
			if bareRuleNames(typed) {
				return nil, fmt.Errorf("%w: %v reads as one tuple; wrap each rule in its own list", ErrInvalidRule, typed)
			}
			rule, err := parseTuple(typed)
			if err != nil {
				return nil, err
			}
			return RuleExpr{rule}, nil
		}
		out := make(RuleExpr, 0, len(typed))
		for idx, item := range typed {
			switch entry := item.(type) {
			case []any:
				rule, err := parseTuple(entry)
				if err != nil {
					return nil, fmt.Errorf("rule %d: %w", idx, err)
				}
				out = append(out, rule)
			case string:
				name := strings.TrimSpace(entry)
				if name == "" {
					return nil, fmt.Errorf("%w: rule %d has an empty name", ErrInvalidRule, idx)
				}
				out = append(out, Rule{Name: name})
			default:
				return nil, fmt.Errorf("%w: rule %d must be a tuple, got %T", ErrInvalidRule, idx, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported expression %T", ErrInvalidRule, raw)
	}
}

var knownRuleNames = map[string]struct{}{
	"string": {}, "number": {}, "boolean": {}, "date": {}, "array": {}, "object": {}, "mixed": {},
	"required": {}, "notRequired": {}, "optional": {}, "nullable": {}, "defined": {}, "strict": {},
	"min": {}, "max": {}, "length": {}, "matches": {}, "email": {}, "url": {},
	"trim": {}, "lowercase": {}, "uppercase": {},
	"moreThan": {}, "lessThan": {}, "positive": {}, "negative": {}, "integer": {},
	"oneOf": {}, "notOneOf": {}, "shape": {}, "when": {}, "test": {},
}

// bareRuleNames reports whether every element of a multi-element list is a
// string naming a known rule.
func bareRuleNames(list []any) bool {
	if len(list) < 2 {
		return false
	}
	for _, item := range list {
		name, ok := item.(string)
		if !ok {
			return false
		}
		if _, known := knownRuleNames[strings.TrimSpace(name)]; !known {
			return false
		}
	}
	return true
}

// MustParseRuleExpr panics when raw is not a valid expression. Intended for
// tests and static structures.
func MustParseRuleExpr(raw any) RuleExpr {
	expr, err := ParseRuleExpr(raw)
	if err != nil {
		panic(err)
	}
	return expr
}

func parseTuple(tuple []any) (Rule, error) {
	if len(tuple) == 0 {
		return Rule{}, fmt.Errorf("%w: empty tuple", ErrInvalidRule)
	}
	name, ok := tuple[0].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return Rule{}, fmt.Errorf("%w: tuple must start with a rule name", ErrInvalidRule)
	}
	args := make([]any, 0, len(tuple)-1)
	for _, arg := range tuple[1:] {
		args = append(args, normalizeArg(arg))
	}
	return Rule{Name: strings.TrimSpace(name), Args: args}, nil
}

// normalizeArg folds the integer types produced by YAML decoding into float64
// so rule arguments look the same regardless of the document format.
func normalizeArg(value any) any {
	switch typed := value.(type) {
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint64:
		return float64(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizeArg(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = normalizeArg(item)
		}
		return out
	default:
		return value
	}
}

// UnmarshalJSON accepts the tuple and list forms.
func (e *RuleExpr) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	expr, err := ParseRuleExpr(raw)
	if err != nil {
		return err
	}
	*e = expr
	return nil
}

// MarshalJSON always emits the list-of-tuples form.
func (e RuleExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.tuples())
}

// UnmarshalYAML accepts the tuple and list forms.
func (e *RuleExpr) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	expr, err := ParseRuleExpr(raw)
	if err != nil {
		return err
	}
	*e = expr
	return nil
}

// MarshalYAML emits the list-of-tuples form.
func (e RuleExpr) MarshalYAML() (any, error) {
	return e.tuples(), nil
}

func (e RuleExpr) tuples() [][]any {
	out := make([][]any, 0, len(e))
	for _, rule := range e {
		tuple := make([]any, 0, len(rule.Args)+1)
		tuple = append(tuple, rule.Name)
		tuple = append(tuple, rule.Args...)
		out = append(out, tuple)
	}
	return out
}
