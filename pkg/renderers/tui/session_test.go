package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	prompts      []string
	options      [][]string
	infoMessages []string
	infoErr      error
	inputPos     int
	selectPos    int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	s.options = append(s.options, cfg.Options)
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return s.infoErr
}

func (s *stubDriver) saw(message string) bool {
	for _, info := range s.infoMessages {
		if strings.Contains(info, message) {
			return true
		}
	}
	return false
}

func runSession(t *testing.T, driver *stubDriver, fields []schema.Field, opts ...Option) Result {
	t.Helper()
	session, err := New(fields, append([]Option{WithPromptDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result
}

func TestSession_TextSelectAndCheckbox(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		inputs:    []string{"Ada"},
		selectIdx: []int{1},
		confirm:   []bool{true},
	}
	fields := []schema.Field{
		{ID: "name", Type: schema.FieldTypeText, Label: "Name", Validation: schema.MustParseRuleExpr([]any{"required"})},
		{
			ID:              "country",
			Type:            schema.FieldTypeSelect,
			Label:           "Country",
			KeyProperty:     "id",
			DisplayProperty: "name",
			ShouldReturnKey: true,
			Options: []any{
				map[string]any{"id": "es", "name": "Spain"},
				map[string]any{"id": "us", "name": "USA"},
			},
		},
		{ID: "agree", Type: schema.FieldTypeCheckbox, Label: "Agree"},
	}

	result := runSession(t, driver, fields)

	if !result.Valid {
		t.Fatalf("expected valid result, errors %v", result.Errors)
	}
	want := model.Values{"name": "Ada", "country": "us", "agree": true}
	if diff := cmp.Diff(want, result.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Name *", "Country", "Agree"}, driver.prompts); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"Spain", "USA"}}, driver.options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_HiddenFieldIsSkippedAndCleared(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{selectIdx: []int{0}}
	fields := []schema.Field{
		{ID: "kind", Type: schema.FieldTypeSelect, Options: []any{"simple", "full"}},
		{ID: "detail", Type: schema.FieldTypeText, VisibilityFieldID: "kind", VisibilityFieldValue: "simple"},
	}

	result := runSession(t, driver, fields, WithProps(form.Props{Model: model.Values{"detail": "old"}}))

	if diff := cmp.Diff(model.Values{"kind": "simple"}, result.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != 0 {
		t.Fatalf("hidden field must not be prompted")
	}
}

func TestSession_NumberValidation(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"abc", "12.5"}}
	fields := []schema.Field{{ID: "amount", Type: schema.FieldTypeNumber, Label: "Amount"}}

	result := runSession(t, driver, fields)

	if got := result.Values["amount"]; got != 12.5 {
		t.Fatalf("amount = %v", got)
	}
	if len(driver.infoMessages) == 0 {
		t.Fatalf("expected a message for the first invalid input")
	}
}

func TestSession_RepromptsFailedFields(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"", "Ada"}}
	fields := []schema.Field{{ID: "name", Type: schema.FieldTypeText, Label: "Name", Validation: schema.MustParseRuleExpr([]any{"required"})}}

	result := runSession(t, driver, fields)

	if !result.Valid || result.Values["name"] != "Ada" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !driver.saw("Name is a required field") {
		t.Fatalf("expected the validation message, got %v", driver.infoMessages)
	}
}

func TestSession_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"", ""}}
	fields := []schema.Field{{ID: "name", Type: schema.FieldTypeText, Label: "Name", Validation: schema.MustParseRuleExpr([]any{"required"})}}

	result := runSession(t, driver, fields, WithMaxAttempts(2))

	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if diff := cmp.Diff([]string{"name"}, result.Errors.Failed()); diff != "" {
		t.Fatalf("failed ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_InterruptWhileReportingErrorsAborts(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"", "Ada"}, infoErr: terminal.InterruptErr}
	fields := []schema.Field{{ID: "name", Type: schema.FieldTypeText, Label: "Name", Validation: schema.MustParseRuleExpr([]any{"required"})}}

	session, err := New(fields, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := session.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if driver.inputPos != 1 {
		t.Fatalf("expected no prompt after the interrupted banner, got %d inputs", driver.inputPos)
	}
}

func TestSession_AutocompleteCreatesItem(t *testing.T) {
	t.Parallel()

	var queries []string
	driver := &stubDriver{inputs: []string{"go"}, selectIdx: []int{0}}
	fields := []schema.Field{{
		ID:              "tag",
		Type:            schema.FieldTypeAutocomplete,
		Label:           "Tag",
		KeyProperty:     "id",
		DisplayProperty: "name",
		ShouldReturnKey: true,
	}}
	props := form.Props{
		SearchMapper: map[string]form.FilterFunc{
			"tag": func(_ context.Context, query string) ([]any, error) {
				queries = append(queries, query)
				return nil, nil
			},
		},
		CreateNewItemMapper: map[string]form.CreateFunc{
			"tag": func(_ context.Context, text string) (any, error) {
				return map[string]any{"id": text, "name": text}, nil
			},
		},
	}

	result := runSession(t, driver, fields, WithProps(props))

	if diff := cmp.Diff(model.Values{"tag": "go"}, result.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"go"}, queries); diff != "" {
		t.Fatalf("queries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"(create) go"}}, driver.options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_AutoFocusFieldIsPromptedFirst(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"B", "A"}}
	fields := []schema.Field{
		{ID: "a", Type: schema.FieldTypeText},
		{ID: "b", Type: schema.FieldTypeText, AutoFocus: true},
	}

	result := runSession(t, driver, fields)

	if diff := cmp.Diff([]string{"b", "a"}, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Values{"a": "A", "b": "B"}, result.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_OverlayInputs(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"2024-02-30", "2024-02-29", "1h 30m", "41.38, 2.17"}}
	fields := []schema.Field{
		{
			ID:   "trip",
			Type: schema.FieldTypeGroup,
			Childs: []schema.Field{
				{ID: "day", Type: schema.FieldTypeDate},
				{ID: "spent", Type: schema.FieldTypeDuration},
				{ID: "where", Type: schema.FieldTypeMap},
			},
		},
	}

	result := runSession(t, driver, fields)

	want := model.Values{
		"day":   "2024-02-29",
		"spent": 90,
		"where": map[string]any{"latitude": 41.38, "longitude": 2.17},
	}
	if diff := cmp.Diff(want, result.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_CustomWidgetAndEncode(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{}
	custom := widgets.WidgetFunc(func(_ context.Context, props widgets.Props) error {
		return props.OnChange("fixed")
	})
	session, err := New(
		[]schema.Field{{ID: "name", Type: schema.FieldTypeText}},
		WithPromptDriver(driver),
		WithCustomWidget(schema.FieldTypeText, custom),
		WithOutputFormat(OutputFormatPrettyText),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out, err := session.Encode(result.Values)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != "name: fixed\n" {
		t.Fatalf("encoded = %q", out)
	}
}

func TestNew_RejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := New([]schema.Field{{ID: "x", Type: "slider"}}, WithPromptDriver(&stubDriver{}))
	if !errors.Is(err, schema.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
