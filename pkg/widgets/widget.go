package widgets

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Props is everything a widget needs to draw one field and report edits.
// Value is the raw model value; Display is the projection to show (formatted
// number, date or duration, or the display property of a picked item).
type Props struct {
	Field     schema.Field
	Value     any
	Display   string
	Error     string
	Mandatory bool
	Disabled  bool
	Loading   bool
	Depth     int

	// OnChange receives the widget-level value (raw text for text and number
	// fields, the picked item for selects). The controller transforms it.
	OnChange func(value any) error
	OnFocus  func()
	OnBlur   func() error
	// OnOpen asks the controller to present the picker overlay.
	OnOpen func(ctx context.Context) error
}

// Widget renders a field. Implementations report edits through the Props
// hooks and never touch the model directly.
type Widget interface {
	Render(ctx context.Context, props Props) error
}

// WidgetFunc adapts a function to Widget.
type WidgetFunc func(ctx context.Context, props Props) error

// Render calls fn.
func (fn WidgetFunc) Render(ctx context.Context, props Props) error {
	return fn(ctx, props)
}
