package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// TestFunc is a named custom check referenced from rule expressions as
// ["test", "name", "message"]. It receives the field value and the whole
// model, so it can implement cross-field or remote checks. Returning an error
// reports a collaborator failure, not an invalid value.
type TestFunc func(ctx context.Context, value any, values model.Values) (bool, error)

// Tests stores custom checks by name.
type Tests struct {
	mu    sync.RWMutex
	funcs map[string]TestFunc
}

// NewTests creates an empty registry.
func NewTests() *Tests {
	return &Tests{funcs: make(map[string]TestFunc)}
}

// Register adds fn under name. Duplicate names return an error.
func (t *Tests) Register(name string, fn TestFunc) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("validation: test name is required")
	}
	if fn == nil {
		return fmt.Errorf("validation: test %q has no function", trimmed)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.funcs[trimmed]; exists {
		return fmt.Errorf("validation: test %q already registered", trimmed)
	}
	t.funcs[trimmed] = fn
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (t *Tests) MustRegister(name string, fn TestFunc) {
	if err := t.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the function registered under name.
func (t *Tests) Lookup(name string) (TestFunc, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	return fn, ok
}

// List returns the registered names, sorted.
func (t *Tests) List() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
