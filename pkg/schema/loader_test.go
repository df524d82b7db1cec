package schema_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/schema"
)

func TestLoadFS_ResolvesAcrossFiles(t *testing.T) {
	catalog, err := schema.LoadFS(os.DirFS("testdata/catalog"))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if diff := cmp.Diff([]string{"Address", "Person"}, catalog.Names()); diff != "" {
		t.Fatalf("schema names mismatch (-want +got):\n%s", diff)
	}

	person, _ := catalog.Schema("Person")
	if diff := cmp.Diff([]string{"name", "age", "color", "tags", "address"}, person.Names()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	age, _ := person.Field("age")
	if age.Default != 18 {
		t.Fatalf("expected default 18, got %#v", age.Default)
	}
	if age.Owner != person {
		t.Fatalf("expected owner to be set")
	}

	color, _ := person.Field("color")
	term, err := color.Vocabulary.Term("green")
	if err != nil {
		t.Fatalf("term lookup: %v", err)
	}
	if term.Title != "Green" || term.Token != "green" {
		t.Fatalf("unexpected term %#v", term)
	}

	address, _ := person.Field("address")
	target, _ := catalog.Schema("Address")
	if address.Schema != target {
		t.Fatalf("expected object field to reference Address schema")
	}
}

func TestParse_RejectsUnknownReference(t *testing.T) {
	doc := []byte(`
schemas:
  Order:
    fields:
      - name: customer
        kind: object
        schema: Customer
`)
	if _, err := schema.Parse(doc, "order.yaml"); err == nil {
		t.Fatalf("expected unknown schema reference to fail")
	}
}

func TestParse_NamedVocabulary(t *testing.T) {
	schema.RegisterVocabulary("test-sizes", func(any) (*schema.Vocabulary, error) {
		return schema.SimpleVocabulary("s", "m", "l"), nil
	})
	catalog, err := schema.Parse([]byte(`
schemas:
  Shirt:
    fields:
      - name: size
        kind: choice
        vocabulary: test-sizes
`), "shirt.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	shirt, _ := catalog.Schema("Shirt")
	size, _ := shirt.Field("size")
	bound, err := size.Bind(nil)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !bound.Vocabulary.Contains("m") {
		t.Fatalf("expected the named vocabulary to be bound")
	}

	_, err = schema.Parse([]byte(`
schemas:
  Shirt:
    fields:
      - name: size
        kind: choice
        vocabulary: nope
`), "shirt.yaml")
	if err == nil {
		t.Fatalf("expected an unknown vocabulary to fail")
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	if _, err := schema.Parse([]byte("  "), "empty.yaml"); err == nil {
		t.Fatalf("expected empty document error")
	}
}

func TestFromOpenAPI(t *testing.T) {
	data, err := os.ReadFile("testdata/openapi.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	catalog, err := schema.FromOpenAPI(context.Background(), data)
	if err != nil {
		t.Fatalf("FromOpenAPI: %v", err)
	}

	person, ok := catalog.Schema("Person")
	if !ok {
		t.Fatalf("Person schema missing")
	}
	want := []string{"name", "born", "address", "phones", "scores", "status"}
	if diff := cmp.Diff(want, person.Names()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	kinds := map[string]schema.Kind{}
	for _, f := range person.Fields() {
		kinds[f.Name] = f.Kind
	}
	wantKinds := map[string]schema.Kind{
		"name":    schema.KindText,
		"born":    schema.KindDate,
		"address": schema.KindObject,
		"phones":  schema.KindList,
		"scores":  schema.KindDict,
		"status":  schema.KindChoice,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kind mismatch (-want +got):\n%s", diff)
	}

	name, _ := person.Field("name")
	if !name.Required || name.Title != "Full name" {
		t.Fatalf("unexpected name field %#v", name)
	}
	status, _ := person.Field("status")
	if status.Default != "active" {
		t.Fatalf("expected enum default, got %#v", status.Default)
	}
	phones, _ := person.Field("phones")
	if phones.MinLength != 1 || phones.ValueType == nil || phones.ValueType.Kind != schema.KindText {
		t.Fatalf("unexpected phones field %#v", phones)
	}
	address, _ := person.Field("address")
	if target, _ := catalog.Schema("Address"); address.Schema != target {
		t.Fatalf("expected address to reference Address component")
	}
}

func TestVocabulary(t *testing.T) {
	vocab := schema.MustVocabulary(
		schema.Term{Value: 1, Title: "One"},
		schema.Term{Value: "two words"},
	)
	if vocab.Len() != 2 {
		t.Fatalf("expected 2 terms, got %d", vocab.Len())
	}
	one, err := vocab.TermByToken("1")
	if err != nil || one.Value != 1 {
		t.Fatalf("lookup by token: %#v %v", one, err)
	}
	spaced, err := vocab.Term("two words")
	if err != nil {
		t.Fatalf("lookup by value: %v", err)
	}
	if spaced.Token == "two words" {
		t.Fatalf("expected unsafe value to get an opaque token")
	}
	if again := schema.Token("two words"); again != spaced.Token {
		t.Fatalf("expected stable token, got %q and %q", again, spaced.Token)
	}
	if _, err := vocab.TermByToken("missing"); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := vocab.Add(schema.Term{Value: 1}); err == nil {
		t.Fatalf("expected duplicate value to be rejected")
	}
	if err := vocab.Add(schema.Term{Value: 3}); err != nil || !vocab.Contains(3) {
		t.Fatalf("expected vocabulary to grow: %v", err)
	}
}

func TestSchemaInvariants(t *testing.T) {
	s := schema.MustNew("Range",
		&schema.Field{Name: "start", Kind: schema.KindDate},
		&schema.Field{Name: "end", Kind: schema.KindDate},
	).WithInvariant(func(r schema.Record) error {
		start, err := r.Get("start")
		if err != nil {
			return err
		}
		end, err := r.Get("end")
		if err != nil {
			return err
		}
		if end.(time.Time).Before(start.(time.Time)) {
			return schema.NewInvalid("End must follow start.", "start", "end")
		}
		return nil
	})

	rec := mapRecord{
		"start": time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		"end":   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	errs := s.ValidateInvariants(rec)
	if len(errs) != 1 || errs[0].Error() != "End must follow start. (start, end)" {
		t.Fatalf("unexpected invariant errors %v", errs)
	}
}

type mapRecord map[string]any

func (m mapRecord) Get(name string) (any, error) {
	v, ok := m[name]
	if !ok {
		return nil, &schema.NoInputData{Name: name}
	}
	return v, nil
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := schema.New("Dup", &schema.Field{Name: "a"}, &schema.Field{Name: "a"})
	if err == nil {
		t.Fatalf("expected duplicate field error")
	}
}
