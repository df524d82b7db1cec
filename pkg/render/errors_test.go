package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/schema"
)

func TestMapErrors_SplitsWidgetAndFormErrors(t *testing.T) {
	s := schema.MustNew("range",
		&schema.Field{Name: "low", Kind: schema.KindInt},
		&schema.Field{Name: "high", Kind: schema.KindInt},
		&schema.Field{Name: "step", Kind: schema.KindInt},
	).WithInvariant(func(schema.Record) error {
		return schema.NewInvalid("low must not exceed high", "low", "high")
	})
	req := newRequest("form.widgets.low", "5", "form.widgets.high", "1", "form.widgets.step", "x")
	f := form.New(nil, req, form.MustFields(s), form.WithIgnoreContext(true))
	if err := f.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, _, err := f.ExtractData(); err != nil {
		t.Fatalf("ExtractData: %v", err)
	}

	mapped := render.MapErrors(f)
	if diff := cmp.Diff(map[string][]string{"step": {form.ValueErrorMessage}}, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"low must not exceed high"}, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrors_CleanForm(t *testing.T) {
	s := schema.MustNew("range", &schema.Field{Name: "low", Kind: schema.KindInt})
	f := form.New(nil, newRequest("form.widgets.low", "1"), form.MustFields(s), form.WithIgnoreContext(true))
	if err := f.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, _, err := f.ExtractData(); err != nil {
		t.Fatalf("ExtractData: %v", err)
	}
	mapped := render.MapErrors(f)
	if mapped.Fields != nil || mapped.Form != nil {
		t.Fatalf("expected no errors, got %+v", mapped)
	}
}
