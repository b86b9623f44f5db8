package schema

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

const expenseJSON = `{
  "version": "1.2.0",
  "id": "expense",
  "title": "<b>New</b> expense",
  "fields": [
    {"id": "concept", "type": "text", "label": "Concept <script>x()</script>", "validation": [["string"], ["required"], ["max", 40]]},
    {"id": "kind", "type": "select", "options": ["meal", "travel"]},
    {
      "id": "travel", "type": "group", "label": "Travel",
      "visibilityFieldId": "kind", "visibilityFieldValue": "meal",
      "childs": [{"id": "plate", "type": "text"}]
    }
  ],
  "dynamicValidations": {"plate": ["required"], "concept": [["min", 3]]}
}`

const expenseYAML = `
version: 1.0.0
id: expense
fields:
  - id: concept
    type: text
    label: Concept
    validation:
      - [string]
      - [required]
      - [max, 40]
  - id: range
    type: inline
    childs:
      - id: from
        type: date
        flex: 1
      - id: to
        type: date
        flex: 1
`

func TestParse_JSONDocument(t *testing.T) {
	t.Parallel()

	doc, err := Parse("expense.json", []byte(expenseJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if doc.Title != "New expense" {
		t.Fatalf("title not sanitized: %q", doc.Title)
	}
	if got := doc.Fields[0].Label; got != "Concept" {
		t.Fatalf("label not sanitized: %q", got)
	}
	wantRules := RuleExpr{{Name: "string"}, {Name: "required"}, {Name: "max", Args: []any{40.0}}}
	if diff := cmp.Diff(wantRules, doc.Fields[0].Validation); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"concept", "plate"}, doc.DynamicKeys()); diff != "" {
		t.Fatalf("dynamic keys mismatch (-want +got):\n%s", diff)
	}
	if doc.Fields[2].Kind() != KindGroup || doc.Fields[2].Childs[0].ID != "plate" {
		t.Fatalf("group not decoded: %+v", doc.Fields[2])
	}
	if doc.Location() != "expense.json" {
		t.Fatalf("location = %q", doc.Location())
	}
}

func TestParse_YAMLDocument(t *testing.T) {
	t.Parallel()

	doc, err := Parse("expense.yaml", []byte(expenseYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ids := make([]string, 0)
	for _, field := range Flatten(doc.Fields) {
		ids = append(ids, field.ID)
	}
	if diff := cmp.Diff([]string{"concept", "range", "from", "to"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got := doc.Fields[0].Validation; !got.Has("required") || got[2].Args[0] != 40.0 {
		t.Fatalf("unexpected rules %+v", got)
	}
	if doc.Fields[1].Childs[0].Flex != 1 {
		t.Fatalf("flex not decoded")
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "version too new", data: `{"version": "2.0.0", "fields": []}`, want: ErrUnsupportedVersion},
		{name: "version garbage", data: `{"version": "next", "fields": []}`, want: ErrUnsupportedVersion},
		{name: "unknown type", data: `{"fields": [{"id": "a", "type": "slider"}]}`, want: ErrUnsupportedType},
		{name: "bad rule", data: `{"fields": [{"id": "a", "type": "text", "validation": [42]}]}`, want: ErrInvalidRule},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse("doc.json", []byte(tc.data))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := Parse("empty.yaml", []byte("  ")); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestLoader_VersionConstraintOverride(t *testing.T) {
	t.Parallel()

	loader := NewLoader(WithVersionConstraint(">= 2.0.0"))
	if _, err := loader.Parse(SourceInline("v2"), []byte(`{"version": "2.1.0", "fields": []}`)); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := loader.Parse(SourceInline("v1"), []byte(`{"fields": []}`)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected unversioned document to default to 1.0.0 and fail, got %v", err)
	}
}

func TestLoader_LoadFromFSAndURL(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"forms/expense.yaml": &fstest.MapFile{Data: []byte(expenseYAML)}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/expense.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(expenseJSON))
	}))
	t.Cleanup(server.Close)

	loader := NewLoader(WithFS(fsys), WithHTTPClient(server.Client()))
	ctx := context.Background()

	doc, err := loader.Load(ctx, SourceFromFS("forms/expense.yaml"))
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if doc.Source().Kind() != SourceKindFS || len(doc.Fields) != 2 {
		t.Fatalf("unexpected fs document %+v", doc)
	}

	doc, err = loader.Load(ctx, SourceFromURL(server.URL+"/expense.json"))
	if err != nil {
		t.Fatalf("load url: %v", err)
	}
	if doc.ID != "expense" {
		t.Fatalf("unexpected url document %+v", doc)
	}

	if _, err := loader.Load(ctx, SourceFromURL(server.URL+"/missing.json")); err == nil {
		t.Fatalf("expected error for missing document")
	}
	if _, err := NewLoader().Load(ctx, SourceFromURL(server.URL+"/expense.json")); err == nil {
		t.Fatalf("expected URL sources to be disabled without a client")
	}
}

func TestLoader_WithoutSanitizeKeepsMarkup(t *testing.T) {
	t.Parallel()

	doc, err := NewLoader(WithoutSanitize()).Parse(SourceInline("raw"), []byte(expenseJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "<b>New</b> expense" {
		t.Fatalf("title = %q", doc.Title)
	}
}
