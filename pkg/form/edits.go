package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/format"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// ErrNoOverlay is returned by OpenPicker when no overlay was configured.
var ErrNoOverlay = errors.New("form: no overlay configured")

// Change proposes value for id as is.
func (c *Controller) Change(id string, value any) error {
	if _, err := c.field(id); err != nil {
		return err
	}
	c.emit(id, value)
	return nil
}

// ChangeText proposes the raw text of a text field.
func (c *Controller) ChangeText(id, text string) error {
	return c.Change(id, text)
}

// BlurText trims the text on focus loss; blank text unsets the value.
func (c *Controller) BlurText(id string) error {
	field, err := c.field(id)
	if err != nil {
		return err
	}
	defer c.Blur(id)

	text, ok, err := model.Access(c.Props().Model).Text(field)
	if err != nil || !ok {
		return err
	}
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		c.emit(id, nil)
	case trimmed != text:
		c.emit(id, trimmed)
	}
	return nil
}

// ChangeNumberText parses locale text typed into a number field and
// proposes the number. The typed text is kept for display until blur, so
// "12," stays on screen while the model holds 12. Empty text unsets the
// value. Text that does not parse is kept for display and reported.
func (c *Controller) ChangeNumberText(id, text string) error {
	if _, err := c.field(id); err != nil {
		return err
	}
	c.mu.Lock()
	c.numberText[id] = text
	c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		c.emit(id, nil)
		return nil
	}
	value, err := c.numbers.Parse(text)
	if err != nil {
		return fmt.Errorf("form: field %q: %w", id, err)
	}
	c.emit(id, value)
	return nil
}

// BlurNumber drops the typed text so the display is recomputed from the
// model value.
func (c *Controller) BlurNumber(id string) {
	c.mu.Lock()
	delete(c.numberText, id)
	c.mu.Unlock()
	c.Blur(id)
}

// NumberDisplay returns the text to show in a number field.
func (c *Controller) NumberDisplay(id string) string {
	c.mu.Lock()
	text, typing := c.numberText[id]
	c.mu.Unlock()
	if typing {
		return text
	}
	field, err := c.field(id)
	if err != nil {
		return ""
	}
	value, ok, err := model.Access(c.Props().Model).Number(field)
	if err != nil || !ok {
		return ""
	}
	return c.numbers.Format(value)
}

// SelectItem proposes a picked item for a select, autocomplete or segment
// field. With shouldReturnKey only item[keyProperty] is stored. A linked
// updateFieldId receives item[updateFieldKeyProperty] in a second change.
// A nil item clears both.
func (c *Controller) SelectItem(id string, item any) error {
	field, err := c.field(id)
	if err != nil {
		return err
	}
	if field.ShouldReturnKey && strings.TrimSpace(field.KeyProperty) == "" {
		return schema.NewConfigError(id, schema.ErrMissingKeyProperty)
	}

	value := item
	if field.ShouldReturnKey && item != nil {
		value, _ = model.Property(item, field.KeyProperty)
	}
	c.emit(id, value)

	if field.UpdateFieldID != "" && field.UpdateFieldKeyProperty != "" {
		var linked any
		if item != nil {
			linked, _ = model.Property(item, field.UpdateFieldKeyProperty)
		}
		c.emit(field.UpdateFieldID, linked)
	}
	return nil
}

// SelectedItem resolves the model value of a picker field back to one of
// its options, so a stored key can be displayed with its label.
func (c *Controller) SelectedItem(id string) (any, bool) {
	field, err := c.field(id)
	if err != nil {
		return nil, false
	}
	value, ok, err := model.Access(c.Props().Model).Item(field)
	if err != nil || !ok {
		return nil, false
	}
	if !field.ShouldReturnKey || field.KeyProperty == "" {
		return value, true
	}
	for _, option := range c.pickerItems(field) {
		if key, ok := model.Property(option, field.KeyProperty); ok && model.Equal(key, value) {
			return option, true
		}
	}
	return value, true
}

// ItemLabel renders an option or stored item with the display property.
func ItemLabel(field schema.Field, item any) string {
	if item == nil {
		return ""
	}
	if field.DisplayProperty != "" {
		if label, ok := model.Property(item, field.DisplayProperty); ok {
			return fmt.Sprint(label)
		}
	}
	if text, ok := item.(string); ok {
		return text
	}
	return fmt.Sprint(item)
}

// ChangeDate proposes the canonical ISO date. The zero time unsets the
// value.
func (c *Controller) ChangeDate(id string, day time.Time) error {
	if _, err := c.field(id); err != nil {
		return err
	}
	if day.IsZero() {
		c.emit(id, nil)
		return nil
	}
	c.emit(id, day.Format(model.DateLayout))
	return nil
}

// DateDisplay formats the stored date for display.
func (c *Controller) DateDisplay(id string) string {
	field, err := c.field(id)
	if err != nil {
		return ""
	}
	day, ok, err := model.Access(c.Props().Model).Date(field)
	if err != nil || !ok {
		return ""
	}
	return c.dates.FormatDate(day)
}

// ChangeDuration proposes a duration in whole minutes.
func (c *Controller) ChangeDuration(id string, minutes int) error {
	if _, err := c.field(id); err != nil {
		return err
	}
	if minutes < 0 {
		return fmt.Errorf("form: field %q: negative duration %d", id, minutes)
	}
	c.emit(id, minutes)
	return nil
}

// DurationDisplay formats the stored minutes for display.
func (c *Controller) DurationDisplay(id string) string {
	field, err := c.field(id)
	if err != nil {
		return ""
	}
	minutes, ok, err := model.Access(c.Props().Model).Minutes(field)
	if err != nil || !ok {
		return ""
	}
	return format.Minutes(minutes)
}

// Toggle flips a checkbox or toggle field.
func (c *Controller) Toggle(id string) error {
	field, err := c.field(id)
	if err != nil {
		return err
	}
	current, _, err := model.Access(c.Props().Model).Bool(field)
	if err != nil {
		return err
	}
	c.emit(id, !current)
	return nil
}

// ChangeLocation proposes a location picked on a map field.
func (c *Controller) ChangeLocation(id string, location map[string]any) error {
	if _, err := c.field(id); err != nil {
		return err
	}
	if location == nil {
		c.emit(id, nil)
		return nil
	}
	c.emit(id, location)
	return nil
}

// OpenPicker asks the overlay to present the field and routes the picked
// value through the matching edit.
func (c *Controller) OpenPicker(ctx context.Context, id string) error {
	field, err := c.field(id)
	if err != nil {
		return err
	}
	if c.overlay == nil {
		return ErrNoOverlay
	}

	var kind OverlayKind
	switch field.Type {
	case schema.FieldTypeSelect, schema.FieldTypeSegment:
		kind = OverlayPicker
	case schema.FieldTypeAutocomplete:
		kind = OverlayAutocomplete
	case schema.FieldTypeDate:
		kind = OverlayCalendar
	case schema.FieldTypeDuration:
		kind = OverlayDuration
	case schema.FieldTypeMap:
		kind = OverlayMap
	default:
		return schema.NewConfigError(id, fmt.Errorf("%w %q: no overlay for this type", schema.ErrUnsupportedType, field.Type))
	}

	props := c.Props()
	selected, _ := c.SelectedItem(id)
	if selected == nil {
		selected = props.Model.Value(id)
	}
	payload := PickerPayload{
		FieldID:         id,
		Title:           field.DisplayLabel(),
		Items:           c.pickerItems(field),
		Selected:        selected,
		DisplayProperty: field.DisplayProperty,
		KeyProperty:     field.KeyProperty,
		Loading:         props.LoadingMapper[id],
		Filter:          props.SearchMapper[id],
	}
	if create := props.CreateNewItemMapper[id]; create != nil {
		payload.OnCreate = func(ctx context.Context, text string) error {
			item, err := create(ctx, text)
			if err != nil {
				return err
			}
			if item == nil {
				return nil
			}
			return c.SelectItem(id, item)
		}
	}

	return c.overlay.Open(ctx, kind, payload, func(value any) error {
		return c.pick(field, value)
	})
}

func (c *Controller) pick(field schema.Field, value any) error {
	switch field.Type {
	case schema.FieldTypeDate:
		switch typed := value.(type) {
		case time.Time:
			return c.ChangeDate(field.ID, typed)
		case string:
			day, err := model.ParseDate(typed)
			if err != nil {
				return fmt.Errorf("form: field %q: %w", field.ID, err)
			}
			return c.ChangeDate(field.ID, day)
		case nil:
			return c.ChangeDate(field.ID, time.Time{})
		}
	case schema.FieldTypeDuration:
		if value == nil {
			return c.Change(field.ID, nil)
		}
		if minutes, ok := model.Number(value); ok {
			return c.ChangeDuration(field.ID, int(minutes))
		}
	case schema.FieldTypeMap:
		if value == nil {
			return c.ChangeLocation(field.ID, nil)
		}
		if location, ok := value.(map[string]any); ok {
			return c.ChangeLocation(field.ID, location)
		}
	default:
		return c.SelectItem(field.ID, value)
	}
	return fmt.Errorf("form: field %q: %w: picked %T", field.ID, model.ErrTypeMismatch, value)
}

// pickerItems returns the mapped picker items, falling back to the static
// options of the field.
func (c *Controller) pickerItems(field schema.Field) []any {
	if items, ok := c.Props().PickerMapper[field.ID]; ok {
		return items
	}
	return field.Options
}
