package schema

import (
	"errors"
	"fmt"
	"strings"
)

// VisitFunc is called for every field reached by Walk. Returning descend=false
// skips the children of a container.
type VisitFunc func(field Field, depth int) (descend bool, err error)

// Walk visits fields depth-first in document order. Top-level fields have
// depth 0. A container sitting at MaxDepth that still declares children fails
// with ErrNestingTooDeep instead of being silently ignored.
func Walk(fields []Field, fn VisitFunc) error {
	return walk(fields, 0, fn)
}

func walk(fields []Field, depth int, fn VisitFunc) error {
	for _, field := range fields {
		descend, err := fn(field, depth)
		if err != nil {
			return err
		}
		if !descend || !field.IsContainer() || len(field.Childs) == 0 {
			continue
		}
		if depth >= MaxDepth {
			return NewConfigError(field.ID, ErrNestingTooDeep)
		}
		if err := walk(field.Childs, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Check verifies the structural invariants of a form: known types, non-empty
// unique ids, childs only on containers and nesting within MaxDepth. All
// problems are joined into a single error matching ErrConfiguration.
func Check(fields []Field) error {
	seen := make(map[string]struct{})
	var problems []error

	err := Walk(fields, func(field Field, _ int) (bool, error) {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			problems = append(problems, NewConfigError("", fmt.Errorf("%w: field of type %q has no id", ErrInvalidStructure, field.Type)))
		} else if _, dup := seen[id]; dup {
			problems = append(problems, NewConfigError(id, fmt.Errorf("%w: duplicate id", ErrInvalidStructure)))
		} else {
			seen[id] = struct{}{}
		}

		if !field.Type.Known() {
			problems = append(problems, NewConfigError(id, fmt.Errorf("%w %q", ErrUnsupportedType, field.Type)))
		}
		if !field.IsContainer() && len(field.Childs) > 0 {
			problems = append(problems, NewConfigError(id, fmt.Errorf("%w: only group and inline fields may declare childs", ErrInvalidStructure)))
		}
		return true, nil
	})
	if err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}
