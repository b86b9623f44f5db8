package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/format"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
)

const (
	clearOption  = "(clear)"
	createPrefix = "(create) "
)

// overlay presents pickers as terminal prompts.
type overlay struct {
	session *Session
}

func (o *overlay) Open(ctx context.Context, kind form.OverlayKind, payload form.PickerPayload, onPick form.PickFunc) error {
	switch kind {
	case form.OverlayPicker:
		return o.pick(ctx, payload, payload.Items, "", onPick)
	case form.OverlayAutocomplete:
		return o.autocomplete(ctx, payload, onPick)
	case form.OverlayCalendar:
		return o.input(ctx, payload, "YYYY-MM-DD", onPick, func(text string) (any, error) {
			day, err := model.ParseDate(text)
			if err != nil {
				return nil, fmt.Errorf("expected a date like 2024-01-31")
			}
			return day, nil
		})
	case form.OverlayDuration:
		return o.input(ctx, payload, "minutes or 1h 30m", onPick, parseMinutes)
	case form.OverlayMap:
		return o.input(ctx, payload, "latitude,longitude", onPick, parseLocation)
	default:
		return fmt.Errorf("tui: unsupported overlay %q", kind)
	}
}

func (o *overlay) driver() PromptDriver {
	return o.session.driver
}

// pick shows items in a select prompt. The clear entry is offered when
// something is selected; the create entry when query is not empty and the
// payload can create items.
func (o *overlay) pick(ctx context.Context, payload form.PickerPayload, items []any, query string, onPick form.PickFunc) error {
	labeled := schema.Field{DisplayProperty: payload.DisplayProperty}
	labels := make([]string, 0, len(items)+2)
	defaultIndex := -1
	for i, item := range items {
		labels = append(labels, form.ItemLabel(labeled, item))
		if defaultIndex < 0 && payload.Selected != nil && sameItem(item, payload.Selected, payload.KeyProperty) {
			defaultIndex = i
		}
	}
	canCreate := payload.OnCreate != nil && strings.TrimSpace(query) != ""
	if canCreate {
		labels = append(labels, createPrefix+query)
	}
	if payload.Selected != nil {
		labels = append(labels, clearOption)
	}
	if len(labels) == 0 {
		return o.driver().Info(ctx, fmt.Sprintf("%s%s: %s", o.session.theme.InfoPrefix, payload.Title, ErrNoOptions))
	}

	idx, err := o.driver().Select(ctx, SelectConfig{
		Message:      payload.Title,
		Options:      labels,
		DefaultIndex: defaultIndex,
	})
	if err != nil {
		return err
	}
	switch {
	case idx < 0 || idx >= len(labels):
		return nil
	case idx < len(items):
		return onPick(items[idx])
	case labels[idx] == clearOption:
		return onPick(nil)
	default:
		return payload.OnCreate(ctx, query)
	}
}

// autocomplete asks for a query, filters remotely through the payload's
// FilterFunc or locally over the items, then picks from the matches.
func (o *overlay) autocomplete(ctx context.Context, payload form.PickerPayload, onPick form.PickFunc) error {
	query, err := o.driver().Input(ctx, InputConfig{Message: payload.Title, Help: "type to search"})
	if err != nil {
		return err
	}
	query = strings.TrimSpace(query)

	items := payload.Items
	if payload.Filter != nil {
		search := form.NewSearch(payload.Filter)
		if items, err = search.Query(ctx, query); err != nil {
			return err
		}
	} else if query != "" {
		labeled := schema.Field{DisplayProperty: payload.DisplayProperty}
		var matches []any
		for _, item := range items {
			if strings.Contains(strings.ToLower(form.ItemLabel(labeled, item)), strings.ToLower(query)) {
				matches = append(matches, item)
			}
		}
		items = matches
	}
	return o.pick(ctx, payload, items, query, onPick)
}

// input reads free text; blank text clears the value and rejected text is
// prompted again.
func (o *overlay) input(ctx context.Context, payload form.PickerPayload, help string, onPick form.PickFunc, parse func(string) (any, error)) error {
	current := ""
	if payload.Selected != nil {
		current = displayValue(payload.Selected)
	}
	for attempt := 0; attempt < o.session.maxAttempts; attempt++ {
		text, err := o.driver().Input(ctx, InputConfig{Message: payload.Title, Default: current, Help: help})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return onPick(nil)
		}
		value, err := parse(text)
		if err != nil {
			if err := o.session.report(ctx, err.Error()); err != nil {
				return err
			}
			current = text
			continue
		}
		return onPick(value)
	}
	return fmt.Errorf("%w: field %q", ErrTooManyAttempts, payload.FieldID)
}

func sameItem(item, selected any, keyProperty string) bool {
	if keyProperty != "" {
		want, ok := model.Property(item, keyProperty)
		if ok {
			if got, ok := model.Property(selected, keyProperty); ok {
				return model.Equal(want, got)
			}
			return model.Equal(want, selected)
		}
	}
	return model.Equal(item, selected)
}

func displayValue(value any) string {
	switch typed := value.(type) {
	case map[string]any:
		return formatLocation(typed)
	case int:
		return format.Minutes(typed)
	case float64:
		return format.Minutes(int(typed))
	default:
		return fmt.Sprint(value)
	}
}

// parseMinutes accepts whole minutes ("95") or a Go-style duration with
// optional spaces ("1h 35m").
func parseMinutes(text string) (any, error) {
	if minutes, err := strconv.Atoi(text); err == nil {
		if minutes < 0 {
			return nil, fmt.Errorf("duration cannot be negative")
		}
		return minutes, nil
	}
	d, err := time.ParseDuration(strings.ReplaceAll(text, " ", ""))
	if err != nil || d < 0 {
		return nil, fmt.Errorf("expected minutes or a duration like 1h 30m")
	}
	return int(d / time.Minute), nil
}

func parseLocation(text string) (any, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected latitude,longitude")
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("expected latitude,longitude in degrees")
	}
	return map[string]any{"latitude": lat, "longitude": lng}, nil
}
