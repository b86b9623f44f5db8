package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
)

var defaultMessages = map[string]string{
	"required":     "{{ label }} is a required field",
	"defined":      "{{ label }} must be defined",
	"typeError":    "{{ label }} must be a `{{ type }}` type",
	"string.min":   "{{ label }} must be at least {{ min }} characters",
	"string.max":   "{{ label }} must be at most {{ max }} characters",
	"string.len":   "{{ label }} must be exactly {{ length }} characters",
	"number.min":   "{{ label }} must be greater than or equal to {{ min }}",
	"number.max":   "{{ label }} must be less than or equal to {{ max }}",
	"array.min":    "{{ label }} field must have at least {{ min }} items",
	"array.max":    "{{ label }} field must have less than or equal to {{ max }} items",
	"array.len":    "{{ label }} must have {{ length }} items",
	"date.min":     "{{ label }} field must be later than {{ min }}",
	"date.max":     "{{ label }} field must be at earlier than {{ max }}",
	"moreThan":     "{{ label }} must be greater than {{ more }}",
	"lessThan":     "{{ label }} must be less than {{ less }}",
	"positive":     "{{ label }} must be a positive number",
	"negative":     "{{ label }} must be a negative number",
	"integer":      "{{ label }} must be an integer",
	"matches":      "{{ label }} must match the following: \"{{ regex }}\"",
	"email":        "{{ label }} must be a valid email",
	"url":          "{{ label }} must be a valid URL",
	"oneOf":        "{{ label }} must be one of the following values: {{ values }}",
	"notOneOf":     "{{ label }} must not be one of the following values: {{ values }}",
	"lowercase":    "{{ label }} must be a lowercase string",
	"uppercase":    "{{ label }} must be a upper case string",
	"test":         "{{ label }} is invalid",
	"shape":        "{{ label }} must be an object",
	"defaultError": "{{ label }} is invalid",
}

// legacyPlaceholder matches ${name} placeholders so messages written for
// other schema DSLs keep working.
var legacyPlaceholder = regexp.MustCompile(`\$\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}`)

// messageRenderer compiles pongo2 templates once per source string.
type messageRenderer struct {
	mu        sync.RWMutex
	templates map[string]*pongo2.Template
}

func newMessageRenderer() *messageRenderer {
	return &messageRenderer{templates: make(map[string]*pongo2.Template)}
}

func (r *messageRenderer) template(source string) (*pongo2.Template, error) {
	r.mu.RLock()
	tpl, ok := r.templates[source]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	converted := legacyPlaceholder.ReplaceAllStringFunc(source, func(match string) string {
		name := legacyPlaceholder.FindStringSubmatch(match)[1]
		if name == "path" {
			name = "label"
		}
		return "{{ " + name + " }}"
	})
	tpl, err := pongo2.FromString(converted)
	if err != nil {
		return nil, fmt.Errorf("validation: message template %q: %w", source, err)
	}

	r.mu.Lock()
	r.templates[source] = tpl
	r.mu.Unlock()
	return tpl, nil
}

// render executes source with params. Values are marked safe: messages are
// plain text and must not be HTML-escaped.
func (r *messageRenderer) render(source string, params map[string]any) string {
	if !strings.Contains(source, "{{") && !strings.Contains(source, "${") {
		return source
	}
	tpl, err := r.template(source)
	if err != nil {
		return source
	}
	ctx := make(pongo2.Context, len(params))
	for key, value := range params {
		ctx[key] = pongo2.AsSafeValue(stringify(value))
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return source
	}
	return out
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case time.Time:
		if typed.Equal(typed.Truncate(24 * time.Hour)) {
			return typed.Format("2006-01-02")
		}
		return typed.Format(time.RFC3339)
	case []any:
		return formatValues(typed)
	default:
		return fmt.Sprint(value)
	}
}

func formatValues(values []any) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, stringify(value))
	}
	return strings.Join(parts, ", ")
}
