package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every malformed-schema failure. Use errors.Is to
	// tell configuration bugs apart from runtime conditions.
	ErrConfiguration = errors.New("schema: configuration error")
	// ErrExternalModelMissing signals an external visibility rule evaluated
	// without an external model.
	ErrExternalModelMissing = errors.New("external model is required for external visibility fields")
	// ErrMissingKeyProperty signals shouldReturnKey without keyProperty.
	ErrMissingKeyProperty = errors.New("keyProperty is required when shouldReturnKey is set")
	// ErrUnsupportedType signals a field type no widget can render.
	ErrUnsupportedType = errors.New("unsupported field type")
	// ErrNestingTooDeep signals containers nested past MaxDepth.
	ErrNestingTooDeep = errors.New("containers nested deeper than supported")
	// ErrInvalidStructure covers ids, duplicate keys and misplaced childs.
	ErrInvalidStructure = errors.New("invalid structure")
	// ErrInvalidRule signals a rule expression that cannot be decoded or compiled.
	ErrInvalidRule = errors.New("invalid validation rule")
)

// ConfigError ties a configuration failure to the offending field.
type ConfigError struct {
	Field string
	Err   error
}

// NewConfigError wraps err for the supplied field id.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("schema: %v", e.Err)
	}
	return fmt.Sprintf("schema: field %q: %v", e.Field, e.Err)
}

// Unwrap exposes the specific sentinel.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is makes every ConfigError match ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}
