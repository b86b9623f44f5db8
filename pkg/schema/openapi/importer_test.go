package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/schema"
)

const petstore = `
openapi: 3.0.3
info:
  title: Expenses
  version: 1.0.0
paths:
  /expenses:
    post:
      operationId: createExpense
      summary: Create expense
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Expense'
      responses:
        '201':
          description: created
components:
  schemas:
    Expense:
      type: object
      title: Expense
      required: [concept, amount]
      properties:
        concept:
          type: string
          minLength: 3
          maxLength: 40
          x-order: 1
        amount:
          type: number
          minimum: 0
          x-order: 2
        kind:
          type: string
          enum: [meal, travel]
          default: meal
          x-order: 3
        day:
          type: string
          format: date
        contact:
          type: string
          format: email
        paid:
          type: boolean
        tags:
          type: array
          items:
            type: string
        trip:
          type: object
          properties:
            spent:
              type: integer
              format: minutes
              title: Time spent
            origin:
              type: object
              properties:
                city:
                  type: string
                geo:
                  type: object
                  properties:
                    lat:
                      type: number
`

func loadPetstore(t *testing.T) *Importer {
	t.Helper()
	imp, err := Load(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return imp
}

func TestImporter_SchemaFields(t *testing.T) {
	t.Parallel()

	result, err := loadPetstore(t).Schema("Expense")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	ids := []string{}
	types := map[string]schema.FieldType{}
	for _, field := range schema.Flatten(result.Document.Fields) {
		ids = append(ids, field.ID)
		types[field.ID] = field.Type
	}
	wantIDs := []string{"concept", "amount", "kind", "contact", "day", "paid", "trip", "origin", "city", "spent"}
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	wantTypes := map[string]schema.FieldType{
		"concept": schema.FieldTypeText,
		"amount":  schema.FieldTypeNumber,
		"kind":    schema.FieldTypeSelect,
		"contact": schema.FieldTypeText,
		"day":     schema.FieldTypeDate,
		"paid":    schema.FieldTypeCheckbox,
		"trip":    schema.FieldTypeGroup,
		"origin":  schema.FieldTypeGroup,
		"city":    schema.FieldTypeText,
		"spent":   schema.FieldTypeDuration,
	}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"tags", "trip.origin.geo"}, result.Skipped); diff != "" {
		t.Fatalf("skipped mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Values{"kind": "meal"}, result.Defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if result.Document.Title != "Expense" {
		t.Fatalf("title = %q", result.Document.Title)
	}
}

func TestImporter_Rules(t *testing.T) {
	t.Parallel()

	result, err := loadPetstore(t).Schema("Expense")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	tests := map[string]schema.RuleExpr{
		"concept": {
			{Name: "string"},
			{Name: "required"},
			{Name: "min", Args: []any{3.0}},
			{Name: "max", Args: []any{40.0}},
		},
		"amount": {
			{Name: "number"},
			{Name: "required"},
			{Name: "min", Args: []any{0.0}},
		},
		"kind": {
			{Name: "string"},
			{Name: "oneOf", Args: []any{[]any{"meal", "travel"}}},
		},
		"contact": {
			{Name: "string"},
			{Name: "email"},
		},
		"day":  nil,
		"paid": nil,
	}
	for id, want := range tests {
		field, ok := schema.Find(result.Document.Fields, id)
		if !ok {
			t.Fatalf("field %q missing", id)
		}
		if diff := cmp.Diff(want, field.Validation); diff != "" {
			t.Fatalf("%s rules mismatch (-want +got):\n%s", id, diff)
		}
	}

	spent, _ := schema.Find(result.Document.Fields, "spent")
	if spent.Label != "Time spent" {
		t.Fatalf("spent label = %q", spent.Label)
	}
	contact, _ := schema.Find(result.Document.Fields, "contact")
	if contact.Label != "Contact" {
		t.Fatalf("contact label = %q", contact.Label)
	}
}

func TestImporter_Operation(t *testing.T) {
	t.Parallel()

	imp := loadPetstore(t)
	result, err := imp.Operation("createExpense")
	if err != nil {
		t.Fatalf("operation: %v", err)
	}
	if result.Document.ID != "createExpense" || len(result.Document.Fields) == 0 {
		t.Fatalf("unexpected document %+v", result.Document)
	}

	if _, err := imp.Operation("missing"); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
	if _, err := imp.Schema("Missing"); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
	if diff := cmp.Diff([]string{"Expense"}, imp.SchemaNames()); diff != "" {
		t.Fatalf("schema names mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_RejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	if _, err := Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestHumanize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"firstName":  "First name",
		"first_name": "First name",
		"city":       "City",
	}
	for in, want := range cases {
		if got := humanize(in); got != want {
			t.Fatalf("humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
