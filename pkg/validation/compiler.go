package validation

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// CompilerOption customises a Compiler.
type CompilerOption func(*Compiler)

// WithTests makes the named custom checks available to ["test", ...] rules.
func WithTests(tests *Tests) CompilerOption {
	return func(c *Compiler) {
		if tests != nil {
			c.tests = tests
		}
	}
}

// WithMessages overrides default message templates by key (for example
// "required" or "string.min").
func WithMessages(messages map[string]string) CompilerOption {
	return func(c *Compiler) {
		for key, source := range messages {
			c.catalog[key] = source
		}
	}
}

// Compiler turns rule expressions into validators and keeps one compiled
// validator per id for its lifetime.
type Compiler struct {
	mu       sync.Mutex
	cache    map[string]compiled
	tests    *Tests
	messages *messageRenderer
	catalog  map[string]string
}

type compiled struct {
	label     string
	expr      schema.RuleExpr
	validator *Validator
}

// NewCompiler returns a Compiler with the default message catalog.
func NewCompiler(opts ...CompilerOption) *Compiler {
	catalog := make(map[string]string, len(defaultMessages))
	for key, source := range defaultMessages {
		catalog[key] = source
	}
	c := &Compiler{
		cache:    make(map[string]compiled),
		tests:    NewTests(),
		messages: newMessageRenderer(),
		catalog:  catalog,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Tests exposes the custom check registry.
func (c *Compiler) Tests() *Tests {
	return c.tests
}

// CompileField compiles the validation attached to field, labelled with its
// display label.
func (c *Compiler) CompileField(field schema.Field) (*Validator, error) {
	return c.Compile(field.ID, field.DisplayLabel(), field.Validation)
}

// Compile returns the validator for id, compiling expr on first use. A later
// call with a different expression or label for the same id replaces the
// cached entry. Compile errors match schema.ErrConfiguration.
func (c *Compiler) Compile(id, label string, expr schema.RuleExpr) (*Validator, error) {
	c.mu.Lock()
	entry, ok := c.cache[id]
	c.mu.Unlock()
	if ok && entry.label == label && cmp.Equal(entry.expr, expr) {
		return entry.validator, nil
	}

	validator, err := c.build(id, label, expr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[id] = compiled{label: label, expr: expr, validator: validator}
	c.mu.Unlock()
	return validator, nil
}

// Len reports how many validators are cached.
func (c *Compiler) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Reset drops every cached validator.
func (c *Compiler) Reset() {
	c.mu.Lock()
	c.cache = make(map[string]compiled)
	c.mu.Unlock()
}

func (c *Compiler) build(id, label string, expr schema.RuleExpr) (*Validator, error) {
	v := &Validator{
		id:       id,
		label:    label,
		messages: c.messages,
		catalog:  c.catalog,
	}
	for _, rule := range expr {
		if err := c.apply(v, rule); err != nil {
			return nil, schema.NewConfigError(id, fmt.Errorf("%w: %s: %v", schema.ErrInvalidRule, rule.Name, err))
		}
	}
	return v, nil
}

var typeRules = map[string]struct{}{
	"string": {}, "number": {}, "boolean": {}, "bool": {}, "date": {},
	"array": {}, "object": {}, "mixed": {},
}

func (c *Compiler) apply(v *Validator, rule schema.Rule) error {
	name := rule.Name
	if _, ok := typeRules[name]; ok {
		if name == "bool" {
			name = "boolean"
		}
		if v.typ != "" && v.typ != name {
			return fmt.Errorf("conflicts with type %q", v.typ)
		}
		v.typ = name
		if msg := messageArg(rule, 0); msg != "" {
			v.typeMessage = msg
		}
		return nil
	}

	switch name {
	case "nullable", "optional", "notRequired", "strict":
		return nil
	case "typeError":
		msg := messageArg(rule, 0)
		if msg == "" {
			return fmt.Errorf("expects a message")
		}
		v.typeMessage = msg
		return nil
	case "label":
		text := messageArg(rule, 0)
		if text == "" {
			return fmt.Errorf("expects a label")
		}
		v.label = text
		return nil
	case "required":
		v.required = true
		custom := messageArg(rule, 0)
		v.steps = append(v.steps, step{rule: name, presence: true, run: func(_ context.Context, st *state) error {
			if missing(st.value) {
				return v.fail(KindRequired, "required", custom, nil)
			}
			return nil
		}})
		return nil
	case "defined":
		v.required = true
		custom := messageArg(rule, 0)
		v.steps = append(v.steps, step{rule: name, presence: true, run: func(_ context.Context, st *state) error {
			if st.value == nil {
				return v.fail(KindDefined, "defined", custom, nil)
			}
			return nil
		}})
		return nil
	case "min", "max", "length":
		return c.size(v, rule)
	case "moreThan", "lessThan":
		return c.bound(v, rule)
	case "positive", "negative", "integer":
		return c.sign(v, rule)
	case "matches":
		return c.matches(v, rule)
	case "email":
		return c.format(v, rule, KindEmail, func(text string) bool {
			return emailPattern.MatchString(text)
		})
	case "url":
		return c.format(v, rule, KindURL, func(text string) bool {
			parsed, err := url.ParseRequestURI(text)
			return err == nil && parsed.Scheme != "" && parsed.Host != ""
		})
	case "trim":
		v.steps = append(v.steps, step{rule: name, run: func(_ context.Context, st *state) error {
			if text, ok := st.value.(string); ok {
				st.value = strings.TrimSpace(text)
			}
			return nil
		}})
		return nil
	case "lowercase":
		return c.format(v, rule, KindMatches, func(text string) bool {
			return text == strings.ToLower(text)
		})
	case "uppercase":
		return c.format(v, rule, KindMatches, func(text string) bool {
			return text == strings.ToUpper(text)
		})
	case "oneOf", "notOneOf":
		return c.membership(v, rule)
	case "shape":
		return c.shape(v, rule)
	case "when":
		return c.when(v, rule)
	case "test":
		return c.test(v, rule)
	default:
		return fmt.Errorf("unknown rule")
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// size handles min, max and length, whose meaning depends on the value kind.
func (c *Compiler) size(v *Validator, rule schema.Rule) error {
	if len(rule.Args) == 0 {
		return fmt.Errorf("expects a limit")
	}
	limit := rule.Args[0]
	if !isRef(limit) && !isNumeric(limit) {
		if _, ok := limit.(string); !ok {
			return fmt.Errorf("limit must be a number, a date or a ref, got %T", limit)
		}
	}
	custom := messageArg(rule, 1)
	name := rule.Name

	v.steps = append(v.steps, step{rule: name, run: func(_ context.Context, st *state) error {
		resolved := resolveArg(limit, st.values)
		if resolved == nil {
			return nil
		}
		kind := v.valueKind(st.value)
		if kind == "date" {
			return v.dateSize(name, custom, st.value, resolved)
		}
		bound, ok := model.Number(resolved)
		if !ok {
			return nil
		}

		var measured float64
		switch kind {
		case "string":
			text, _ := st.value.(string)
			measured = float64(utf8.RuneCountInString(text))
		case "array":
			items, _ := asSlice(st.value)
			measured = float64(len(items))
		case "number":
			measured, ok = model.Number(st.value)
			if !ok {
				return nil
			}
		default:
			return nil
		}

		if name == "length" {
			if kind == "number" || measured == bound {
				return nil
			}
			return v.fail(KindLength, kind+".len", custom, map[string]any{"length": bound})
		}
		if name == "min" && measured < bound {
			return v.fail(KindMin, kind+".min", custom, map[string]any{"min": bound})
		}
		if name == "max" && measured > bound {
			return v.fail(KindMax, kind+".max", custom, map[string]any{"max": bound})
		}
		return nil
	}})
	return nil
}

func (v *Validator) dateSize(name, custom string, value, limit any) error {
	actual, ok := toTime(value)
	if !ok {
		return nil
	}
	bound, ok := toTime(limit)
	if !ok {
		return nil
	}
	switch name {
	case "min":
		if actual.Before(bound) {
			return v.fail(KindMin, "date.min", custom, map[string]any{"min": bound})
		}
	case "max":
		if actual.After(bound) {
			return v.fail(KindMax, "date.max", custom, map[string]any{"max": bound})
		}
	}
	return nil
}

func (c *Compiler) bound(v *Validator, rule schema.Rule) error {
	if len(rule.Args) == 0 {
		return fmt.Errorf("expects a limit")
	}
	limit := rule.Args[0]
	if !isRef(limit) && !isNumeric(limit) {
		return fmt.Errorf("limit must be a number or a ref, got %T", limit)
	}
	custom := messageArg(rule, 1)
	more := rule.Name == "moreThan"

	v.steps = append(v.steps, step{rule: rule.Name, run: func(_ context.Context, st *state) error {
		bound, ok := model.Number(resolveArg(limit, st.values))
		if !ok {
			return nil
		}
		actual, ok := model.Number(st.value)
		if !ok {
			return nil
		}
		if more && actual <= bound {
			return v.fail(KindMoreThan, "moreThan", custom, map[string]any{"more": bound})
		}
		if !more && actual >= bound {
			return v.fail(KindLessThan, "lessThan", custom, map[string]any{"less": bound})
		}
		return nil
	}})
	return nil
}

func (c *Compiler) sign(v *Validator, rule schema.Rule) error {
	custom := messageArg(rule, 0)
	name := rule.Name
	v.steps = append(v.steps, step{rule: name, run: func(_ context.Context, st *state) error {
		actual, ok := model.Number(st.value)
		if !ok {
			return nil
		}
		switch name {
		case "positive":
			if actual <= 0 {
				return v.fail(KindPositive, "positive", custom, nil)
			}
		case "negative":
			if actual >= 0 {
				return v.fail(KindNegative, "negative", custom, nil)
			}
		case "integer":
			if actual != math.Trunc(actual) {
				return v.fail(KindInteger, "integer", custom, nil)
			}
		}
		return nil
	}})
	return nil
}

func (c *Compiler) matches(v *Validator, rule schema.Rule) error {
	if len(rule.Args) == 0 {
		return fmt.Errorf("expects a pattern")
	}
	source, ok := rule.Args[0].(string)
	if !ok {
		return fmt.Errorf("pattern must be a string, got %T", rule.Args[0])
	}
	pattern, err := regexp.Compile(source)
	if err != nil {
		return err
	}
	custom := messageArg(rule, 1)
	v.steps = append(v.steps, step{rule: rule.Name, run: func(_ context.Context, st *state) error {
		if pattern.MatchString(stringify(st.value)) {
			return nil
		}
		return v.fail(KindMatches, "matches", custom, map[string]any{"regex": source})
	}})
	return nil
}

func (c *Compiler) format(v *Validator, rule schema.Rule, kind Kind, ok func(string) bool) error {
	custom := messageArg(rule, 0)
	key := rule.Name
	v.steps = append(v.steps, step{rule: key, run: func(_ context.Context, st *state) error {
		text, isText := st.value.(string)
		if !isText || ok(text) {
			return nil
		}
		return v.fail(kind, key, custom, nil)
	}})
	return nil
}

func (c *Compiler) membership(v *Validator, rule schema.Rule) error {
	if len(rule.Args) == 0 {
		return fmt.Errorf("expects a list of values")
	}
	allowed, ok := rule.Args[0].([]any)
	if !ok {
		return fmt.Errorf("values must be a list, got %T", rule.Args[0])
	}
	custom := messageArg(rule, 1)
	negate := rule.Name == "notOneOf"

	v.steps = append(v.steps, step{rule: rule.Name, run: func(_ context.Context, st *state) error {
		resolved := make([]any, 0, len(allowed))
		found := false
		for _, candidate := range allowed {
			value := resolveArg(candidate, st.values)
			resolved = append(resolved, value)
			if model.Equal(value, st.value) {
				found = true
			}
		}
		if negate && found {
			return v.fail(KindNotOneOf, "notOneOf", custom, map[string]any{"values": resolved})
		}
		if !negate && !found {
			return v.fail(KindOneOf, "oneOf", custom, map[string]any{"values": resolved})
		}
		return nil
	}})
	return nil
}

// shape validates an object value key by key. Nested validators are not
// cached under their own ids.
func (c *Compiler) shape(v *Validator, rule schema.Rule) error {
	if len(rule.Args) == 0 {
		return fmt.Errorf("expects a map of rule expressions")
	}
	raw, ok := rule.Args[0].(map[string]any)
	if !ok {
		return fmt.Errorf("shape must be an object, got %T", rule.Args[0])
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	children := make([]*Validator, 0, len(keys))
	for _, key := range keys {
		expr, err := schema.ParseRuleExpr(raw[key])
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		child, err := c.build(v.id+"."+key, key, expr)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		children = append(children, child)
	}
	custom := messageArg(rule, 1)

	v.steps = append(v.steps, step{rule: rule.Name, run: func(ctx context.Context, st *state) error {
		if !model.IsItem(st.value) {
			return v.fail(KindType, "shape", custom, nil)
		}
		for i, key := range keys {
			nested, _ := model.Property(st.value, key)
			if err := children[i].Validate(ctx, nested, st.values); err != nil {
				return err
			}
		}
		return nil
	}})
	return nil
}

// when switches between two expressions depending on another field:
// ["when", "otherId", {"is": value, "then": expr, "otherwise": expr}].
// Without "is" the branch follows the truthiness of the other field.
func (c *Compiler) when(v *Validator, rule schema.Rule) error {
	if len(rule.Args) < 2 {
		return fmt.Errorf("expects a field id and a condition")
	}
	other, ok := rule.Args[0].(string)
	if !ok || strings.TrimSpace(other) == "" {
		return fmt.Errorf("field id must be a non-empty string")
	}
	cond, ok := rule.Args[1].(map[string]any)
	if !ok {
		return fmt.Errorf("condition must be an object, got %T", rule.Args[1])
	}

	branch := func(key string) (*Validator, error) {
		raw, exists := cond[key]
		if !exists {
			return nil, nil
		}
		expr, err := schema.ParseRuleExpr(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		nested, err := c.build(v.id, "", expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		nested.parent = v
		return nested, nil
	}
	then, err := branch("then")
	if err != nil {
		return err
	}
	otherwise, err := branch("otherwise")
	if err != nil {
		return err
	}
	is, hasIs := cond["is"]

	v.steps = append(v.steps, step{rule: rule.Name, presence: true, run: func(ctx context.Context, st *state) error {
		actual := st.values.Value(other)
		var matched bool
		switch {
		case !hasIs:
			matched = model.Truthy(actual)
		default:
			if candidates, ok := is.([]any); ok {
				for _, candidate := range candidates {
					if model.Equal(candidate, actual) {
						matched = true
						break
					}
				}
			} else {
				matched = model.Equal(is, actual)
			}
		}

		target := otherwise
		if matched {
			target = then
		}
		if target == nil {
			return nil
		}
		return target.Validate(ctx, st.value, st.values)
	}})
	return nil
}

func (c *Compiler) test(v *Validator, rule schema.Rule) error {
	if len(rule.Args) == 0 {
		return fmt.Errorf("expects a test name")
	}
	name, ok := rule.Args[0].(string)
	if !ok {
		return fmt.Errorf("test name must be a string, got %T", rule.Args[0])
	}
	fn, ok := c.tests.Lookup(name)
	if !ok {
		return fmt.Errorf("test %q is not registered", name)
	}
	custom := messageArg(rule, 1)

	v.steps = append(v.steps, step{rule: rule.Name, run: func(ctx context.Context, st *state) error {
		passed, err := fn(ctx, st.value, st.values)
		if err != nil {
			return fmt.Errorf("validation: test %q: %w", name, err)
		}
		if !passed {
			return v.fail(KindTest, "test", custom, map[string]any{"test": name})
		}
		return nil
	}})
	return nil
}

// messageArg returns the optional message template following the first n
// positional arguments.
func messageArg(rule schema.Rule, n int) string {
	if len(rule.Args) <= n {
		return ""
	}
	text, _ := rule.Args[n].(string)
	return text
}

// missing is the required check: nil, the empty string and empty lists.
func missing(value any) bool {
	if absent(value) {
		return true
	}
	if items, ok := asSlice(value); ok {
		return len(items) == 0
	}
	return false
}

func isRef(arg any) bool {
	item, ok := arg.(map[string]any)
	if !ok {
		return false
	}
	_, ok = item["ref"].(string)
	return ok
}

func isNumeric(arg any) bool {
	_, ok := model.Number(arg)
	return ok
}

// resolveArg replaces {"ref": "fieldId"} with the current value of that
// field.
func resolveArg(arg any, values model.Values) any {
	item, ok := arg.(map[string]any)
	if !ok {
		return arg
	}
	ref, ok := item["ref"].(string)
	if !ok {
		return arg
	}
	return values.Value(ref)
}

func toTime(value any) (time.Time, bool) {
	switch typed := value.(type) {
	case time.Time:
		return typed, true
	case string:
		parsed, err := model.ParseDate(typed)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}
