package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/widgets"
)

// bindWidgets binds a terminal implementation to every built-in widget name.
func bindWidgets(reg *widgets.Registry, s *Session) {
	reg.Bind(widgets.WidgetText, widgets.WidgetFunc(s.textWidget))
	reg.Bind(widgets.WidgetNumber, widgets.WidgetFunc(s.textWidget))
	reg.Bind(widgets.WidgetCheckbox, widgets.WidgetFunc(s.confirmWidget))
	reg.Bind(widgets.WidgetToggle, widgets.WidgetFunc(s.confirmWidget))
	for _, name := range []string{
		widgets.WidgetSelect,
		widgets.WidgetAutocomplete,
		widgets.WidgetSegment,
		widgets.WidgetDate,
		widgets.WidgetDuration,
		widgets.WidgetMap,
	} {
		reg.Bind(name, widgets.WidgetFunc(s.pickerWidget))
	}
	reg.Bind(widgets.WidgetHeader, widgets.WidgetFunc(s.headingWidget))
	reg.Bind(widgets.WidgetTitle, widgets.WidgetFunc(s.headingWidget))
	reg.Bind(widgets.WidgetGroup, widgets.WidgetFunc(s.headingWidget))
	reg.Bind(widgets.WidgetInline, widgets.WidgetFunc(s.headingWidget))
	reg.Bind(widgets.WidgetSeparator, widgets.WidgetFunc(func(ctx context.Context, _ widgets.Props) error {
		return s.driver.Info(ctx, strings.Repeat("-", 24))
	}))
}

func (s *Session) label(props widgets.Props) string {
	label := props.Field.DisplayLabel()
	if props.Depth > 0 {
		label = strings.Repeat("  ", props.Depth) + label
	}
	if props.Mandatory {
		label += s.theme.MandatoryMark
	}
	return label
}

// readOnly prints a disabled field instead of prompting for it.
func (s *Session) readOnly(ctx context.Context, props widgets.Props) error {
	return s.driver.Info(ctx, fmt.Sprintf("%s%s: %s", s.theme.InfoPrefix, s.label(props), props.Display))
}

// textWidget prompts text and number fields. Rejected input is reported and
// prompted again.
func (s *Session) textWidget(ctx context.Context, props widgets.Props) error {
	if props.Disabled {
		return s.readOnly(ctx, props)
	}
	if props.OnFocus != nil {
		props.OnFocus()
	}
	if props.Error != "" {
		if err := s.report(ctx, props.Error); err != nil {
			return err
		}
	}

	answer := props.Display
	for attempt := 0; ; attempt++ {
		if attempt >= s.maxAttempts {
			return fmt.Errorf("%w: field %q", ErrTooManyAttempts, props.Field.ID)
		}
		response, err := s.driver.Input(ctx, InputConfig{
			Message: s.label(props),
			Default: answer,
			Help:    props.Field.Placeholder,
		})
		if err != nil {
			return err
		}
		if err := props.OnChange(response); err != nil {
			if err := s.report(ctx, err.Error()); err != nil {
				return err
			}
			answer = response
			continue
		}
		break
	}
	if props.OnBlur != nil {
		return props.OnBlur()
	}
	return nil
}

func (s *Session) confirmWidget(ctx context.Context, props widgets.Props) error {
	if props.Disabled {
		props.Display = fmt.Sprint(model.Truthy(props.Value))
		return s.readOnly(ctx, props)
	}
	if props.OnFocus != nil {
		props.OnFocus()
	}
	checked, err := s.driver.Confirm(ctx, ConfirmConfig{
		Message: s.label(props),
		Default: model.Truthy(props.Value),
		Help:    props.Field.Placeholder,
	})
	if err != nil {
		return err
	}
	if err := props.OnChange(checked); err != nil {
		return err
	}
	if props.OnBlur != nil {
		return props.OnBlur()
	}
	return nil
}

// pickerWidget hands the field to the overlay through the controller.
func (s *Session) pickerWidget(ctx context.Context, props widgets.Props) error {
	if props.Disabled {
		return s.readOnly(ctx, props)
	}
	if props.OnOpen == nil {
		return fmt.Errorf("tui: field %q cannot be opened", props.Field.ID)
	}
	if props.OnFocus != nil {
		props.OnFocus()
	}
	if props.Error != "" {
		if err := s.report(ctx, props.Error); err != nil {
			return err
		}
	}
	if err := props.OnOpen(ctx); err != nil {
		return err
	}
	if props.OnBlur != nil {
		return props.OnBlur()
	}
	return nil
}

func (s *Session) headingWidget(ctx context.Context, props widgets.Props) error {
	label := props.Field.Label
	if strings.TrimSpace(label) == "" {
		return nil
	}
	return s.driver.Info(ctx, strings.Repeat("  ", props.Depth)+s.theme.HeaderPrefix+label)
}
