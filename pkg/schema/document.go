package schema

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Document is a decoded form definition: the field structure plus the optional
// whole-form dynamic validations keyed by field id.
type Document struct {
	Version            string              `json:"version,omitempty" yaml:"version,omitempty"`
	ID                 string              `json:"id,omitempty" yaml:"id,omitempty"`
	Title              string              `json:"title,omitempty" yaml:"title,omitempty"`
	Fields             []Field             `json:"fields" yaml:"fields"`
	DynamicValidations map[string]RuleExpr `json:"dynamicValidations,omitempty" yaml:"dynamicValidations,omitempty"`

	source Source
}

// Source returns where the document was read from, if known.
func (d Document) Source() Source {
	return d.source
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// DynamicKeys returns the dynamic validation keys in a stable order.
func (d Document) DynamicKeys() []string {
	keys := make([]string, 0, len(d.DynamicValidations))
	for key := range d.DynamicValidations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func decodeDocument(data []byte, location string) (Document, error) {
	var doc Document
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, fmt.Errorf("schema: document %s is empty", location)
	}

	jsonErr := json.Unmarshal(data, &doc)
	if jsonErr == nil {
		return doc, nil
	}
	if looksLikeJSON(data, location) {
		return Document{}, fmt.Errorf("schema: parse %s: %w", location, jsonErr)
	}

	doc = Document{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML: %w", location, err)
	}
	return doc, nil
}

func looksLikeJSON(data []byte, location string) bool {
	if strings.HasSuffix(strings.ToLower(location), ".json") {
		return true
	}
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "{")
}
