package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

// Result is the outcome of a session.
type Result struct {
	Values model.Values
	Errors validation.ErrorMap
	Valid  bool
}

// Session walks a form in the terminal. It owns the model on behalf of the
// caller: every change proposed by the controller is merged and fed back
// until the model settles.
type Session struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	maxAttempts  int
	props        form.Props
	formOptions  []form.Option
	custom       map[schema.FieldType]widgets.Widget

	ctrl     *form.Controller
	registry *widgets.Registry

	values   model.Values
	updating bool
	pending  bool

	screenFocus []func(bool)
	focusTarget string
}

// New constructs a session over fields with defaults (survey driver, JSON
// output).
func New(fields []schema.Field, options ...Option) (*Session, error) {
	s := &Session{
		driver:       newSurveyDriver(),
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme,
		maxAttempts:  DefaultMaxAttempts,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.values = s.props.Model.Clone()
	if s.values == nil {
		s.values = model.Values{}
	}

	formOptions := append([]form.Option{}, s.formOptions...)
	formOptions = append(formOptions,
		form.WithOnChange(s.changed),
		form.WithOverlay(&overlay{session: s}),
	)
	ctrl, err := form.New(fields, formOptions...)
	if err != nil {
		return nil, err
	}
	s.ctrl = ctrl

	s.registry = widgets.NewRegistry()
	bindWidgets(s.registry, s)
	ctrl.Config().ApplyComponents(s.registry)
	for t, w := range s.custom {
		s.registry.Override(t, w)
	}
	if err := s.registry.Check(fields); err != nil {
		return nil, err
	}
	return s, nil
}

// Controller exposes the underlying controller.
func (s *Session) Controller() *form.Controller {
	return s.ctrl
}

// Values returns a copy of the current model.
func (s *Session) Values() model.Values {
	return s.values.Clone()
}

// Run prompts every visible field, validates and re-prompts the fields that
// failed, up to the configured number of attempts. An invalid form after
// the last attempt is reported in the Result, not as an error.
func (s *Session) Run(ctx context.Context) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("tui: context is required")
	}
	if err := s.sync(ctx); err != nil {
		return Result{}, err
	}
	if err := s.ctrl.Mount(s); err != nil {
		return Result{}, err
	}
	defer s.ctrl.Unmount()

	releases := s.registerFocus()
	defer func() {
		for _, release := range releases {
			release()
		}
	}()
	for _, fn := range s.screenFocus {
		fn(true)
	}

	done := map[string]bool{}
	if target := s.focusTarget; target != "" {
		if err := s.promptFields(ctx, s.ctrl.Fields(), 0, map[string]bool{target: true}, nil); err != nil {
			return Result{}, err
		}
		done[target] = true
	}
	if err := s.promptFields(ctx, s.ctrl.Fields(), 0, nil, done); err != nil {
		return Result{}, err
	}

	for attempt := 1; ; attempt++ {
		valid, err := s.ctrl.IsValid(ctx)
		if err != nil {
			return Result{}, err
		}
		errs := s.ctrl.Errors()
		if valid || attempt >= s.maxAttempts {
			return Result{Values: s.Values(), Errors: errs, Valid: valid}, nil
		}

		failed := errs.Failed()
		for _, id := range failed {
			if err := s.report(ctx, errs.Get(id)); err != nil {
				return Result{}, err
			}
		}
		only := make(map[string]bool, len(failed))
		for _, id := range failed {
			only[id] = true
		}
		if err := s.promptFields(ctx, s.ctrl.Fields(), 0, only, nil); err != nil {
			return Result{}, err
		}
	}
}

// report prints an error line. A failing driver (interrupt, cancelled
// context) ends the session like a failing prompt does.
func (s *Session) report(ctx context.Context, message string) error {
	return translateSurveyErr(s.driver.Info(ctx, s.theme.ErrorPrefix+message))
}

// promptFields renders fields in document order. Visibility is resolved per
// field so answers given earlier in the walk take effect immediately. When
// only is set, containers and decorative fields are skipped and only the
// listed leaves are prompted.
func (s *Session) promptFields(ctx context.Context, fields []schema.Field, depth int, only, skip map[string]bool) error {
	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		visible, err := s.ctrl.IsFieldVisible(field)
		if err != nil {
			return err
		}
		if !visible || skip[field.ID] {
			continue
		}
		if field.IsContainer() {
			if only == nil {
				if err := s.render(ctx, field, depth); err != nil {
					return err
				}
			}
			if err := s.promptFields(ctx, field.Childs, depth+1, only, skip); err != nil {
				return err
			}
			continue
		}
		if only != nil && !only[field.ID] {
			continue
		}
		if err := s.render(ctx, field, depth); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) render(ctx context.Context, field schema.Field, depth int) error {
	widget, err := s.registry.Widget(field)
	if err != nil {
		return err
	}
	return widget.Render(ctx, s.widgetProps(ctx, field, depth))
}

// widgetProps binds the type-specific controller edits to the widget hooks.
func (s *Session) widgetProps(ctx context.Context, field schema.Field, depth int) widgets.Props {
	id := field.ID
	current := s.ctrl.Props()
	props := widgets.Props{
		Field:     field,
		Value:     current.Model.Value(id),
		Error:     s.ctrl.Error(id),
		Mandatory: s.ctrl.IsMandatory(ctx, field),
		Disabled:  field.Disabled,
		Loading:   current.LoadingMapper[id],
		Depth:     depth,
		OnFocus:   func() { s.ctrl.Focus(id) },
		OnBlur: func() error {
			s.ctrl.Blur(id)
			return nil
		},
		OnChange: func(value any) error { return s.ctrl.Change(id, value) },
	}

	switch field.Type {
	case schema.FieldTypeText:
		props.Display, _, _ = model.Access(current.Model).Text(field)
		props.OnChange = func(value any) error { return s.ctrl.ChangeText(id, fmt.Sprint(value)) }
		props.OnBlur = func() error { return s.ctrl.BlurText(id) }
	case schema.FieldTypeNumber:
		props.Display = s.ctrl.NumberDisplay(id)
		props.OnChange = func(value any) error { return s.ctrl.ChangeNumberText(id, fmt.Sprint(value)) }
		props.OnBlur = func() error {
			s.ctrl.BlurNumber(id)
			return nil
		}
	case schema.FieldTypeCheckbox, schema.FieldTypeToggle:
		props.OnChange = func(value any) error {
			checked, _ := value.(bool)
			if checked == model.Truthy(s.ctrl.Props().Model.Value(id)) {
				return nil
			}
			return s.ctrl.Toggle(id)
		}
	case schema.FieldTypeSelect, schema.FieldTypeAutocomplete, schema.FieldTypeSegment:
		selected, _ := s.ctrl.SelectedItem(id)
		props.Display = form.ItemLabel(field, selected)
		props.OnChange = func(value any) error { return s.ctrl.SelectItem(id, value) }
		props.OnOpen = func(ctx context.Context) error { return s.ctrl.OpenPicker(ctx, id) }
	case schema.FieldTypeDate:
		props.Display = s.ctrl.DateDisplay(id)
		props.OnOpen = func(ctx context.Context) error { return s.ctrl.OpenPicker(ctx, id) }
	case schema.FieldTypeDuration:
		props.Display = s.ctrl.DurationDisplay(id)
		props.OnOpen = func(ctx context.Context) error { return s.ctrl.OpenPicker(ctx, id) }
	case schema.FieldTypeMap:
		if location, ok, _ := model.Access(current.Model).Location(field); ok {
			props.Display = formatLocation(location)
		}
		props.OnOpen = func(ctx context.Context) error { return s.ctrl.OpenPicker(ctx, id) }
	}
	return props
}

// changed is the controller's OnChange. Changes proposed while the model is
// being fed back are batched into the next round.
func (s *Session) changed(id string, value any) {
	s.values = s.values.With(id, value)
	if s.updating {
		s.pending = true
		return
	}
	_ = s.sync(context.Background())
}

func (s *Session) sync(ctx context.Context) error {
	s.updating = true
	defer func() { s.updating = false }()
	for round := 0; round < 16; round++ {
		s.pending = false
		props := s.props
		props.Model = s.values
		if err := s.ctrl.Update(ctx, props); err != nil {
			return err
		}
		if !s.pending {
			return nil
		}
	}
	return fmt.Errorf("tui: model did not settle")
}

// registerFocus registers a handle per leaf. Focusing a field before the
// walk starts makes it the first prompt.
func (s *Session) registerFocus() []func() {
	var releases []func()
	for _, field := range schema.Flatten(s.ctrl.Fields()) {
		if field.IsContainer() || field.Type.Decorative() {
			continue
		}
		id := field.ID
		releases = append(releases, s.ctrl.RegisterFocus(id, form.FocusHandleFunc(func() {
			s.focusTarget = id
		})))
	}
	return releases
}

// SubscribeKeyboard satisfies form.EventSource. Terminals have no soft
// keyboard.
func (s *Session) SubscribeKeyboard(func(bool)) func() {
	return func() {}
}

// SubscribeScreenFocus satisfies form.EventSource; the session signals focus
// once when Run starts.
func (s *Session) SubscribeScreenFocus(fn func(bool)) func() {
	s.screenFocus = append(s.screenFocus, fn)
	idx := len(s.screenFocus) - 1
	return func() {
		if idx < len(s.screenFocus) {
			s.screenFocus[idx] = func(bool) {}
		}
	}
}

// Encode serializes values in the configured output format.
func (s *Session) Encode(values model.Values) ([]byte, error) {
	switch s.outputFormat {
	case OutputFormatPrettyText:
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, key := range keys {
			fmt.Fprintf(&b, "%s: %v\n", key, values[key])
		}
		return []byte(b.String()), nil
	default:
		if values == nil {
			values = model.Values{}
		}
		out, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return out, nil
	}
}

func formatLocation(location map[string]any) string {
	lat, latOK := model.Number(location["latitude"])
	lng, lngOK := model.Number(location["longitude"])
	if latOK && lngOK {
		return fmt.Sprintf("%g,%g", lat, lng)
	}
	if address, ok := location["address"].(string); ok {
		return address
	}
	return ""
}
