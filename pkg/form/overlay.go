package form

import (
	"context"
	"sync"
)

// OverlayKind tells the overlay collaborator what to present.
type OverlayKind string

const (
	OverlayPicker       OverlayKind = "picker"
	OverlayAutocomplete OverlayKind = "autocomplete"
	OverlayCalendar     OverlayKind = "calendar"
	OverlayDuration     OverlayKind = "duration"
	OverlayMap          OverlayKind = "map"
)

// FilterFunc loads the items matching query. The empty query resets the
// list.
type FilterFunc func(ctx context.Context, query string) ([]any, error)

// CreateFunc creates a new item from the text typed in a picker. A non-nil
// item is selected right away.
type CreateFunc func(ctx context.Context, text string) (any, error)

// PickFunc receives the value chosen in an overlay.
type PickFunc func(value any) error

// PickerPayload is what an overlay needs to present a field.
type PickerPayload struct {
	FieldID         string
	Title           string
	Items           []any
	Selected        any
	DisplayProperty string
	KeyProperty     string
	Loading         bool
	Filter          FilterFunc
	OnCreate        func(ctx context.Context, text string) error
}

// Overlay presents pickers, calendars and map lookups. Open may return
// before the user picks; onPick runs whenever a value is chosen.
type Overlay interface {
	Open(ctx context.Context, kind OverlayKind, payload PickerPayload, onPick PickFunc) error
}

// OverlayFunc adapts a function to Overlay.
type OverlayFunc func(ctx context.Context, kind OverlayKind, payload PickerPayload, onPick PickFunc) error

// Open calls fn.
func (fn OverlayFunc) Open(ctx context.Context, kind OverlayKind, payload PickerPayload, onPick PickFunc) error {
	return fn(ctx, kind, payload, onPick)
}

// Search drives a FilterFunc from an autocomplete overlay and tracks its
// loading flag. Collaborator errors are returned unchanged; loading is
// cleared either way.
type Search struct {
	filter FilterFunc

	mu      sync.Mutex
	loading bool
	items   []any
}

// NewSearch wraps filter. A nil filter yields an always-empty search.
func NewSearch(filter FilterFunc) *Search {
	return &Search{filter: filter}
}

// Open resets the results by querying with the empty string.
func (s *Search) Open(ctx context.Context) ([]any, error) {
	return s.Query(ctx, "")
}

// Query runs the filter for query and stores the results.
func (s *Search) Query(ctx context.Context, query string) ([]any, error) {
	if s.filter == nil {
		return nil, nil
	}
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	items, err := s.filter(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		return nil, err
	}
	s.items = items
	return items, nil
}

// Loading reports whether a query is in flight.
func (s *Search) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Items returns the last successful results.
func (s *Search) Items() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.items...)
}
