package validation

import (
	"errors"
	"sort"
)

// Kind classifies a validation failure. KindRequired failures drive the
// completion tracker.
type Kind string

const (
	KindRequired Kind = "required"
	KindDefined  Kind = "defined"
	KindType     Kind = "typeError"
	KindMin      Kind = "min"
	KindMax      Kind = "max"
	KindLength   Kind = "length"
	KindMoreThan Kind = "moreThan"
	KindLessThan Kind = "lessThan"
	KindPositive Kind = "positive"
	KindNegative Kind = "negative"
	KindInteger  Kind = "integer"
	KindMatches  Kind = "matches"
	KindEmail    Kind = "email"
	KindURL      Kind = "url"
	KindOneOf    Kind = "oneOf"
	KindNotOneOf Kind = "notOneOf"
	KindTest     Kind = "test"
)

// ValidationError is a user-facing failure. It never escapes the engine: the
// engine records Message in the ErrorMap instead.
type ValidationError struct {
	Field   string
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// IsRequired reports whether err is a required-class failure.
func IsRequired(err error) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	return verr.Kind == KindRequired || verr.Kind == KindDefined
}

// ErrorMap holds the message of the most recent failure per field id. A
// missing key means "no error"; an empty string is the optimistic marker left
// when a field is edited after a failed pass.
type ErrorMap map[string]string

// Valid reports whether no entry carries a message.
func (m ErrorMap) Valid() bool {
	for _, message := range m {
		if message != "" {
			return false
		}
	}
	return true
}

// Get returns the message for id, or "".
func (m ErrorMap) Get(id string) string {
	if m == nil {
		return ""
	}
	return m[id]
}

// Failed lists the ids carrying a message, sorted.
func (m ErrorMap) Failed() []string {
	var ids []string
	for id, message := range m {
		if message != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clone copies the map.
func (m ErrorMap) Clone() ErrorMap {
	if m == nil {
		return nil
	}
	out := make(ErrorMap, len(m))
	for id, message := range m {
		out[id] = message
	}
	return out
}
