package schema

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func plainTextPolicy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// SanitizeText strips markup from user-facing schema strings. Entities the
// policy escapes are decoded again because widgets render plain text.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}
	cleaned := plainTextPolicy().Sanitize(value)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// SanitizeFields returns a copy of the structure with labels and placeholders
// stripped of markup.
func SanitizeFields(fields []Field) []Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]Field, len(fields))
	for idx, field := range fields {
		field.Label = SanitizeText(field.Label)
		field.Placeholder = SanitizeText(field.Placeholder)
		if len(field.Childs) > 0 {
			field.Childs = SanitizeFields(field.Childs)
		}
		out[idx] = field
	}
	return out
}
