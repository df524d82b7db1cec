package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/schema"
)

func accountSchema() *schema.Schema {
	return schema.MustNew("account",
		&schema.Field{Name: "id", Kind: schema.KindInt, ReadOnly: true},
		&schema.Field{Name: "email", Kind: schema.KindText, Required: true},
		&schema.Field{Name: "nickname", Kind: schema.KindText},
	)
}

func TestNewFields(t *testing.T) {
	s := accountSchema()
	fields, err := NewFields(s)
	if err != nil {
		t.Fatalf("NewFields: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "email", "nickname"}, fields.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	email, _ := fields.Get("email")
	if email.Interface != s || email.Def.Owner != s {
		t.Fatalf("expected the field to remember its schema")
	}

	if _, err := NewFields(s, s); err == nil {
		t.Fatalf("expected duplicate names to be rejected")
	}
	if _, err := NewFields(42); err == nil {
		t.Fatalf("expected unsupported items to be rejected")
	}

	prefixed := MustFields(s, WithFieldPrefix("billing"), OmitReadOnly())
	if diff := cmp.Diff([]string{"billing.email", "billing.nickname"}, prefixed.Names()); diff != "" {
		t.Fatalf("prefixed names mismatch (-want +got):\n%s", diff)
	}
	selected, err := prefixed.SelectPrefixed("billing", "nickname")
	if err != nil {
		t.Fatalf("SelectPrefixed: %v", err)
	}
	if got := selected.Names(); len(got) != 1 || got[0] != "billing.nickname" {
		t.Fatalf("unexpected SelectPrefixed result %v", got)
	}
	if _, err := prefixed.SelectPrefixed("billing", "id"); err == nil {
		t.Fatalf("expected an omitted field to be unknown")
	}
}

func TestFields_Transformations(t *testing.T) {
	fields := MustFields(accountSchema())

	selected, err := fields.Select("nickname", "email")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if diff := cmp.Diff([]string{"nickname", "email"}, selected.Names()); diff != "" {
		t.Fatalf("select mismatch (-want +got):\n%s", diff)
	}
	if _, err := fields.Select("nickname", "missing"); err == nil {
		t.Fatalf("expected unknown names to be rejected")
	}
	if diff := cmp.Diff([]string{"id", "nickname"}, fields.Omit("email").Names()); diff != "" {
		t.Fatalf("omit mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"email", "nickname"}, fields.OmitReadOnly().Names()); diff != "" {
		t.Fatalf("omit read only mismatch (-want +got):\n%s", diff)
	}

	if _, err := fields.Merge(fields.MustSelect("email")); err == nil {
		t.Fatalf("expected merge duplicates to fail")
	}
	extra := MustFields(schema.MustNew("profile", &schema.Field{Name: "bio", Kind: schema.KindText, Multiline: true}))
	merged, err := fields.Merge(extra)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Len() != 4 {
		t.Fatalf("expected four fields, got %v", merged.Names())
	}

	modified, err := fields.Modify("id", func(f *Field) { f.Mode = ModeHidden })
	if err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if got, _ := modified.Get("id"); got.Mode != ModeHidden {
		t.Fatalf("expected the copy to be modified")
	}
	if got, _ := fields.Get("id"); got.Mode != "" {
		t.Fatalf("the original must not change")
	}
	if _, err := fields.Modify("id", func(f *Field) { f.Name = "key" }); err == nil {
		t.Fatalf("expected renames to be rejected")
	}
	if _, err := fields.Modify("missing", func(*Field) {}); err == nil {
		t.Fatalf("expected unknown names to be rejected")
	}
}

func TestIDFromName(t *testing.T) {
	if got := idFromName("form.widgets.home.widgets.street"); got != "form-widgets-home-widgets-street" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := expandPrefix("form"); got != "form." {
		t.Fatalf("unexpected prefix %q", got)
	}
}
