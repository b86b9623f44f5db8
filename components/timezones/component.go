package timezones

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Component bundles the zone list with its search and validation wiring.
type Component struct {
	opts  Options
	zones []string
	known map[string]struct{}
}

// New constructs a component with default options plus any overrides. The
// embedded list is used unless WithZones supplies one.
func New(fns ...OptionFn) (*Component, error) {
	opts := NewOptions(fns...)
	zones := opts.Zones
	if zones == nil {
		var err error
		zones, err = DefaultZones()
		if err != nil {
			return nil, err
		}
	}
	known := make(map[string]struct{}, len(zones))
	for _, zone := range zones {
		known[zone] = struct{}{}
	}
	return &Component{opts: opts, zones: zones, known: known}, nil
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Filter returns the search callback for an autocomplete field.
func (c *Component) Filter() form.FilterFunc {
	return func(ctx context.Context, query string) ([]any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return SearchItems(c.zones, query, 0, c.opts), nil
	}
}

// Known reports whether zone is in the list.
func (c *Component) Known(zone string) bool {
	_, ok := c.known[zone]
	return ok
}

// Register adds the TestName validation test to tests. Empty values pass so
// the test composes with "required".
func (c *Component) Register(tests *validation.Tests) error {
	return tests.Register(TestName, func(_ context.Context, value any, _ model.Values) (bool, error) {
		switch typed := value.(type) {
		case nil:
			return true, nil
		case string:
			return typed == "" || c.Known(typed), nil
		case map[string]any:
			zone, _ := typed[ValueKey].(string)
			return c.Known(zone), nil
		default:
			return false, nil
		}
	})
}

// Field returns an autocomplete field that stores the zone name and checks it
// with the registered test.
func (c *Component) Field(id, label string) schema.Field {
	return schema.Field{
		ID:              id,
		Type:            schema.FieldTypeAutocomplete,
		Label:           label,
		DisplayProperty: LabelKey,
		KeyProperty:     ValueKey,
		ShouldReturnKey: true,
		Validation: schema.RuleExpr{
			{Name: "string"},
			{Name: "test", Args: []any{TestName, c.opts.Message}},
		},
	}
}
