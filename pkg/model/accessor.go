package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// DateLayout is the canonical ISO date stored for date fields.
const DateLayout = "2006-01-02"

// ErrTypeMismatch signals a model value that does not match the declared
// field type.
var ErrTypeMismatch = errors.New("model: value does not match field type")

// Accessor is the single typed entry point over a Values bag. Each getter
// checks the field's declared type and the stored value's shape; missing
// values return ok=false without error.
type Accessor struct {
	values Values
}

// Access wraps values in an Accessor.
func Access(values Values) Accessor {
	return Accessor{values: values}
}

// Values returns the wrapped bag.
func (a Accessor) Values() Values {
	return a.values
}

func (a Accessor) raw(field schema.Field, allowed ...schema.FieldType) (any, bool, error) {
	if !typeIn(field.Type, allowed) {
		return nil, false, fmt.Errorf("%w: field %q is %q", ErrTypeMismatch, field.ID, field.Type)
	}
	value, ok := a.values.Get(field.ID)
	if !ok || value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

// Text reads a text field.
func (a Accessor) Text(field schema.Field) (string, bool, error) {
	value, ok, err := a.raw(field, schema.FieldTypeText)
	if err != nil || !ok {
		return "", ok, err
	}
	text, isString := value.(string)
	if !isString {
		return "", false, mismatch(field, value)
	}
	return text, true, nil
}

// Number reads a number field.
func (a Accessor) Number(field schema.Field) (float64, bool, error) {
	value, ok, err := a.raw(field, schema.FieldTypeNumber)
	if err != nil || !ok {
		return 0, ok, err
	}
	number, isNumber := Number(value)
	if !isNumber {
		return 0, false, mismatch(field, value)
	}
	return number, true, nil
}

// Bool reads a checkbox or toggle field.
func (a Accessor) Bool(field schema.Field) (bool, bool, error) {
	value, ok, err := a.raw(field, schema.FieldTypeCheckbox, schema.FieldTypeToggle)
	if err != nil || !ok {
		return false, ok, err
	}
	flag, isBool := value.(bool)
	if !isBool {
		return false, false, mismatch(field, value)
	}
	return flag, true, nil
}

// Date reads a date field stored as an ISO date string.
func (a Accessor) Date(field schema.Field) (time.Time, bool, error) {
	value, ok, err := a.raw(field, schema.FieldTypeDate)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	text, isString := value.(string)
	if !isString {
		return time.Time{}, false, mismatch(field, value)
	}
	parsed, perr := ParseDate(text)
	if perr != nil {
		return time.Time{}, false, fmt.Errorf("%w: field %q: %v", ErrTypeMismatch, field.ID, perr)
	}
	return parsed, true, nil
}

// Minutes reads a duration field stored as whole minutes.
func (a Accessor) Minutes(field schema.Field) (int, bool, error) {
	value, ok, err := a.raw(field, schema.FieldTypeDuration)
	if err != nil || !ok {
		return 0, ok, err
	}
	number, isNumber := Number(value)
	if !isNumber || number != math.Trunc(number) {
		return 0, false, mismatch(field, value)
	}
	return int(number), true, nil
}

// Item reads a picker-backed value: a structured item, a plain string, or a
// returned key.
func (a Accessor) Item(field schema.Field) (any, bool, error) {
	return a.raw(field, schema.FieldTypeSelect, schema.FieldTypeAutocomplete, schema.FieldTypeSegment)
}

// Location reads a map field.
func (a Accessor) Location(field schema.Field) (map[string]any, bool, error) {
	value, ok, err := a.raw(field, schema.FieldTypeMap)
	if err != nil || !ok {
		return nil, ok, err
	}
	switch typed := value.(type) {
	case map[string]any:
		return typed, true, nil
	case Values:
		return map[string]any(typed), true, nil
	default:
		return nil, false, mismatch(field, value)
	}
}

// ParseDate accepts the canonical ISO date and full RFC 3339 timestamps.
func ParseDate(text string) (time.Time, error) {
	if parsed, err := time.Parse(DateLayout, text); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, text)
}

func mismatch(field schema.Field, value any) error {
	return fmt.Errorf("%w: field %q (%s) holds %T", ErrTypeMismatch, field.ID, field.Type, value)
}

func typeIn(t schema.FieldType, allowed []schema.FieldType) bool {
	for _, candidate := range allowed {
		if candidate == t {
			return true
		}
	}
	return false
}
