// Package form interprets a field structure against a caller-owned model. The
// Controller resolves visibility, tracks completion, validates on demand and
// turns widget edits into OnChange calls; it never mutates the model.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/goliatone/go-formflow/pkg/completion"
	"github.com/goliatone/go-formflow/pkg/format"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// ErrUnmounted is returned by operations attempted after Unmount.
var ErrUnmounted = errors.New("form: controller unmounted")

// State is the lifecycle state of a Controller.
type State int

const (
	StateIdle State = iota
	StateFocusing
	StateValidating
	StateUnmounted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFocusing:
		return "focusing"
	case StateValidating:
		return "validating"
	case StateUnmounted:
		return "unmounted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChangeFunc receives every proposed model change. A nil value means "unset".
type ChangeFunc func(id string, value any)

// FilledFunc is told whether the form is complete after each model change.
type FilledFunc func(filled bool)

// FocusFunc is told which field received focus.
type FocusFunc func(id string)

// Props are the caller-owned inputs, replaced wholesale by Update.
type Props struct {
	Model         model.Values
	ExternalModel model.Values
	// LoadingMapper flags fields whose options are being fetched.
	LoadingMapper map[string]bool
	// PickerMapper replaces the static options of select fields.
	PickerMapper map[string][]any
	// SearchMapper provides remote filtering for autocomplete fields.
	SearchMapper        map[string]FilterFunc
	CreateNewItemMapper map[string]CreateFunc
	DynamicValidations  map[string]schema.RuleExpr
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnChange sets the single mutation channel.
func WithOnChange(fn ChangeFunc) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOnFormFilled sets the completion callback.
func WithOnFormFilled(fn FilledFunc) Option {
	return func(c *Controller) { c.onFilled = fn }
}

// WithOnFocus sets the focus callback.
func WithOnFocus(fn FocusFunc) Option {
	return func(c *Controller) { c.onFocus = fn }
}

// WithConfig shares defaults and custom components across controllers.
func WithConfig(cfg *Config) Option {
	return func(c *Controller) {
		if cfg != nil {
			c.cfg = cfg
		}
	}
}

// WithOptions sets instance options merged over the config defaults.
func WithOptions(options Options) Option {
	return func(c *Controller) { c.options = options }
}

// WithNumberFormatter overrides the locale number formatter.
func WithNumberFormatter(formatter format.NumberFormatter) Option {
	return func(c *Controller) { c.numbers = formatter }
}

// WithDateFormatter overrides how dates are displayed.
func WithDateFormatter(formatter format.DateFormatter) Option {
	return func(c *Controller) { c.dates = formatter }
}

// WithOverlay sets the overlay collaborator used by OpenPicker.
func WithOverlay(overlay Overlay) Option {
	return func(c *Controller) { c.overlay = overlay }
}

// WithTests makes custom checks available to rule expressions.
func WithTests(tests *validation.Tests) Option {
	return func(c *Controller) { c.tests = tests }
}

// WithLogger enables debug logging of clears and validation passes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller interprets one form structure.
type Controller struct {
	fields   []schema.Field
	cfg      *Config
	options  Options
	onChange ChangeFunc
	onFilled FilledFunc
	onFocus  FocusFunc
	numbers  format.NumberFormatter
	dates    format.DateFormatter
	overlay  Overlay
	tests    *validation.Tests
	logger   *slog.Logger

	compiler *validation.Compiler
	engine   *validation.Engine
	tracker  *completion.Tracker

	mu          sync.Mutex
	props       Props
	last        model.Values
	seen        bool
	errors      validation.ErrorMap
	state       State
	release     []func()
	focus       map[string]*focusEntry
	focused     string
	autoFocused bool
	// autoFocusPending is the autofocus target still waiting for a handle.
	autoFocusPending string
	keyboard    bool
	numberText  map[string]string
}

// New checks structure and returns a controller for it.
func New(structure []schema.Field, opts ...Option) (*Controller, error) {
	if err := schema.Check(structure); err != nil {
		return nil, err
	}
	c := &Controller{
		fields:     structure,
		cfg:        NewConfig(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		errors:     validation.ErrorMap{},
		focus:      make(map[string]*focusEntry),
		numberText: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.numbers == nil {
		locale := c.Options().Locale
		tag := language.English
		if locale != "" {
			parsed, err := language.Parse(locale)
			if err != nil {
				return nil, fmt.Errorf("form: locale %q: %w", locale, err)
			}
			tag = parsed
		}
		c.numbers = format.NewLocaleNumber(tag)
	}
	if c.dates == nil {
		c.dates = format.ISODate
	}

	var compilerOpts []validation.CompilerOption
	if c.tests != nil {
		compilerOpts = append(compilerOpts, validation.WithTests(c.tests))
	}
	c.compiler = validation.NewCompiler(compilerOpts...)
	c.engine = validation.NewEngine(c.compiler)
	c.tracker = completion.NewTracker(c.compiler, nil)
	return c, nil
}

// Fields returns the structure.
func (c *Controller) Fields() []schema.Field {
	return c.fields
}

// Options merges the instance options over the config defaults and resolves
// theme tokens.
func (c *Controller) Options() Options {
	return c.cfg.DefaultOptions().Merge(c.options).Resolve()
}

// Config returns the shared configuration.
func (c *Controller) Config() *Config {
	return c.cfg
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Props returns the props of the last Update.
func (c *Controller) Props() Props {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props
}

// Mount subscribes to keyboard and screen focus signals. A nil source is
// allowed.
func (c *Controller) Mount(events EventSource) error {
	c.mu.Lock()
	if c.state == StateUnmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	c.mu.Unlock()
	if events == nil {
		return nil
	}

	keyboard := events.SubscribeKeyboard(c.keyboardChanged)
	screen := events.SubscribeScreenFocus(c.screenFocused)

	acquired := []func(){keyboard, screen}
	c.mu.Lock()
	if c.state == StateUnmounted {
		c.mu.Unlock()
		for _, release := range acquired {
			if release != nil {
				release()
			}
		}
		return ErrUnmounted
	}
	defer c.mu.Unlock()
	for _, release := range acquired {
		if release != nil {
			c.release = append(c.release, release)
		}
	}
	return nil
}

// Unmount releases every subscription and focus handle. It is idempotent
// and safe to call while IsValid is running; that pass then leaves the
// stored errors alone.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.state = StateUnmounted
	release := c.release
	c.release = nil
	c.focus = make(map[string]*focusEntry)
	c.focused = ""
	c.mu.Unlock()

	for i := len(release) - 1; i >= 0; i-- {
		release[i]()
	}
}

// Update is the reaction to new props. When the model differs from the
// previous one it recomputes completion, reports it through OnFormFilled and
// clears the values of hidden fields that are not persistent.
func (c *Controller) Update(ctx context.Context, props Props) error {
	c.mu.Lock()
	if c.state == StateUnmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	c.props = props
	if c.seen && model.Equal(c.last, props.Model) {
		c.mu.Unlock()
		return nil
	}
	c.seen = true
	c.last = props.Model.Clone()
	onFilled := c.onFilled
	c.mu.Unlock()

	filled, err := c.tracker.IsFormFilled(ctx, c.fields, props.Model, props.ExternalModel)
	if err != nil {
		return err
	}
	if onFilled != nil {
		onFilled(filled)
	}

	stale, err := c.hiddenValues(props)
	if err != nil {
		return err
	}
	for _, id := range stale {
		c.logger.Debug("clearing hidden field", "field", id)
		c.emit(id, nil)
	}
	return nil
}

// hiddenValues lists the hidden, non-persistent fields that still hold a
// value. Children of a hidden container count as hidden.
func (c *Controller) hiddenValues(props Props) ([]string, error) {
	resolver := visibility.NewResolver(nil, props.Model, props.ExternalModel)
	var stale []string
	collect := func(field schema.Field) {
		if field.PersistentValue || field.IsContainer() || field.Type.Decorative() {
			return
		}
		if !model.IsEmpty(props.Model.Value(field.ID)) {
			stale = append(stale, field.ID)
		}
	}

	err := schema.Walk(c.fields, func(field schema.Field, _ int) (bool, error) {
		visible, err := resolver.Visible(field)
		if err != nil {
			return false, err
		}
		if visible {
			return true, nil
		}
		for _, hidden := range schema.Flatten([]schema.Field{field}) {
			collect(hidden)
		}
		return false, nil
	})
	return stale, err
}

// IsValid clears the stored errors, validates the whole form and stores the
// new errors. Validation failures are not errors; the error is reserved for
// configuration problems, cancellation and failing custom tests.
func (c *Controller) IsValid(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state == StateUnmounted {
		c.mu.Unlock()
		return false, ErrUnmounted
	}
	c.errors = validation.ErrorMap{}
	c.state = StateValidating
	props := c.props
	c.mu.Unlock()

	errs, err := c.engine.ValidateForm(ctx, c.fields, props.Model, props.ExternalModel, props.DynamicValidations)

	c.mu.Lock()
	if c.state != StateUnmounted {
		c.state = StateIdle
		if c.focused != "" {
			c.state = StateFocusing
		}
		if err == nil {
			c.errors = errs
		}
	}
	c.mu.Unlock()

	if err != nil {
		return false, err
	}
	c.logger.Debug("form validated", "valid", errs.Valid(), "failed", errs.Failed())
	return errs.Valid(), nil
}

// Errors returns a copy of the stored error map.
func (c *Controller) Errors() validation.ErrorMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// Error returns the stored message for id.
func (c *Controller) Error(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Get(id)
}

// InlineError combines the messages of an inline row's children, one per
// line, so the row can show them under the whole line.
func (c *Controller) InlineError(field schema.Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if field.Kind() != schema.KindInline {
		return c.errors.Get(field.ID)
	}
	var messages []string
	for _, child := range schema.Flatten(field.Childs) {
		if message := c.errors.Get(child.ID); message != "" {
			messages = append(messages, message)
		}
	}
	return strings.Join(messages, "\n")
}

// IsFieldVisible resolves the field against the current props.
func (c *Controller) IsFieldVisible(field schema.Field) (bool, error) {
	c.mu.Lock()
	resolver := c.resolverLocked()
	c.mu.Unlock()
	return resolver.Visible(field)
}

// IsMandatory reports whether the field currently rejects an empty value.
func (c *Controller) IsMandatory(ctx context.Context, field schema.Field) bool {
	if field.IsContainer() || !field.HasValidation() {
		return false
	}
	validator, err := c.compiler.CompileField(field)
	if err != nil {
		return false
	}
	return validator.ReportsRequired(ctx, c.Props().Model)
}

func (c *Controller) resolverLocked() visibility.Resolver {
	return visibility.NewResolver(nil, c.props.Model, c.props.ExternalModel)
}

// field looks up id in the structure.
func (c *Controller) field(id string) (schema.Field, error) {
	field, ok := schema.Find(c.fields, id)
	if !ok {
		return schema.Field{}, schema.NewConfigError(id, fmt.Errorf("%w: unknown field", schema.ErrInvalidStructure))
	}
	return field, nil
}

// emit patches the error entry and forwards the change.
func (c *Controller) emit(id string, value any) {
	c.mu.Lock()
	c.errors[id] = ""
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(id, value)
	}
}

// flattenVisible returns visible fields in document order, skipping the
// children of hidden containers. Fields whose rule cannot be evaluated are
// treated as hidden.
func flattenVisible(fields []schema.Field, resolver visibility.Resolver) []schema.Field {
	var out []schema.Field
	_ = schema.Walk(fields, func(field schema.Field, _ int) (bool, error) {
		visible, err := resolver.Visible(field)
		if err != nil || !visible {
			return false, nil
		}
		out = append(out, field)
		return true, nil
	})
	return out
}
