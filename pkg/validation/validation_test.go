package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/schema"
)

type span struct {
	Start int
	End   int
}

func spanSchema() *schema.Schema {
	s := schema.MustNew("Span",
		&schema.Field{Name: "start", Kind: schema.KindInt},
		&schema.Field{Name: "end", Kind: schema.KindInt},
	)
	return s.WithInvariant(func(r schema.Record) error {
		start, err := r.Get("start")
		if err != nil {
			return err
		}
		end, err := r.Get("end")
		if err != nil {
			return err
		}
		if start.(int) > end.(int) {
			return schema.NewInvalid("Start must not be after end.", "start", "end")
		}
		return nil
	})
}

func TestInvariants(t *testing.T) {
	cases := []struct {
		name    string
		data    *Data
		invalid bool
	}{
		{name: "valid", data: &Data{Values: map[string]any{"start": 1, "end": 2}}},
		{name: "violated", data: &Data{Values: map[string]any{"start": 3, "end": 2}}, invalid: true},
		{name: "context fills gaps", data: &Data{Values: map[string]any{"start": 3}, Content: &span{End: 1}}, invalid: true},
		{name: "ignored context", data: &Data{Values: map[string]any{"start": 3}, Content: &span{End: 1}, IgnoreContext: true}},
		{name: "no input", data: &Data{Values: map[string]any{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.data.Schema = spanSchema()
			errs := Invariants(tc.data)
			if tc.invalid != (len(errs) == 1) {
				t.Fatalf("expected invalid=%v, got %v", tc.invalid, errs)
			}
			for _, err := range errs {
				var invalid *schema.Invalid
				if !errors.As(err, &invalid) {
					t.Fatalf("expected *schema.Invalid, got %T", err)
				}
			}
		})
	}
}

func TestDataUnknownField(t *testing.T) {
	d := &Data{Schema: spanSchema()}
	if _, err := d.Get("nope"); err == nil || schema.IsNoInputData(err) {
		t.Fatalf("expected a hard error for unknown fields, got %v", err)
	}
}

func TestFieldPath(t *testing.T) {
	cases := map[string]string{
		"form.widgets.name":                   "name",
		"form.widgets.address.widgets.street": "address.street",
		"form.widgets.tags.1":                 "tags.1",
		"form.group.widgets.phones.key.0":     "phones.key.0",
		"plain":                               "plain",
		"":                                    "",
	}
	for in, want := range cases {
		if got := FieldPath(in); got != want {
			t.Errorf("FieldPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIssueFromError(t *testing.T) {
	got := []Issue{
		IssueFromError("form.widgets.age", schema.NewValidationError(schema.TooSmall, "age", -1)),
		IssueFromError("", schema.NewInvalid("Start must not be after end.", "start", "end")),
		IssueFromError("form.widgets.born", schema.NewValueError("bad date", "x", nil)),
		IssueFromError("form.widgets.x", fmt.Errorf("schema: boom")),
	}
	want := []Issue{
		{Path: "form.widgets.age", Field: "age", Code: string(schema.TooSmall), Message: schema.NewValidationError(schema.TooSmall, "age", -1).Doc()},
		{Field: "start,end", Code: "Invalid", Message: "Start must not be after end."},
		{Path: "form.widgets.born", Field: "born", Code: "ValueError", Message: "bad date"},
		{Path: "form.widgets.x", Field: "x", Message: "boom"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}
