package datamanager_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/datamanager"
	"github.com/goliatone/go-formkit/pkg/schema"
)

type address struct {
	Street string
}

type person struct {
	FullName string `form:"name"`
	Age      int64
	Nickname *string
	Tags     []string
	Scores   map[string]int
	Home     *address
	secret   string
}

type guarded struct {
	person
	hidden map[string]bool
}

func (g *guarded) CanAccess(name string) bool { return !g.hidden[name] }
func (g *guarded) CanWrite(name string) bool  { return !g.hidden[name] && name != "age" }

func TestAttribute_QueryAndSet(t *testing.T) {
	nick := "bob"
	home := &address{Street: "Main"}
	p := &person{FullName: "Robert", Age: 40, Nickname: &nick, Home: home}

	cases := []struct {
		name   string
		field  *schema.Field
		expect any
		ok     bool
	}{
		{name: "form tag", field: &schema.Field{Name: "name", Kind: schema.KindText}, expect: "Robert", ok: true},
		{name: "folded name", field: &schema.Field{Name: "age", Kind: schema.KindInt}, expect: int64(40), ok: true},
		{name: "scalar pointer", field: &schema.Field{Name: "nickname", Kind: schema.KindText}, expect: "bob", ok: true},
		{name: "nil slice", field: &schema.Field{Name: "tags", Kind: schema.KindList}, expect: nil, ok: true},
		{name: "object keeps pointer", field: &schema.Field{Name: "home", Kind: schema.KindObject}, expect: home, ok: true},
		{name: "absent", field: &schema.Field{Name: "missing", Kind: schema.KindText}, ok: false},
		{name: "unexported", field: &schema.Field{Name: "secret", Kind: schema.KindText}, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dm, err := datamanager.For(p, tc.field)
			if err != nil {
				t.Fatalf("For: %v", err)
			}
			got, ok, err := dm.Query()
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.expect {
				t.Fatalf("expected %#v, got %#v", tc.expect, got)
			}
		})
	}

	_, err := datamanager.NewAttribute(p, &schema.Field{Name: "missing"}).Get()
	if !errors.Is(err, datamanager.ErrNoValue) {
		t.Fatalf("expected ErrNoValue, got %v", err)
	}
}

func TestAttribute_SetConvertsGenericShapes(t *testing.T) {
	p := &person{}
	set := func(field *schema.Field, value any) {
		t.Helper()
		dm, err := datamanager.For(p, field)
		if err != nil {
			t.Fatalf("For: %v", err)
		}
		if !dm.CanWrite() {
			t.Fatalf("expected %q to be writable", field.Name)
		}
		if err := dm.Set(value); err != nil {
			t.Fatalf("Set %q: %v", field.Name, err)
		}
	}
	set(&schema.Field{Name: "age", Kind: schema.KindInt}, 41)
	set(&schema.Field{Name: "nickname", Kind: schema.KindText}, "rob")
	set(&schema.Field{Name: "tags", Kind: schema.KindList}, []any{"a", "b"})
	set(&schema.Field{Name: "scores", Kind: schema.KindDict}, schema.Dict{{Key: "math", Value: 9}})

	if p.Age != 41 || p.Nickname == nil || *p.Nickname != "rob" {
		t.Fatalf("unexpected scalars %#v", p)
	}
	if diff := cmp.Diff([]string{"a", "b"}, p.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"math": 9}, p.Scores); diff != "" {
		t.Fatalf("scores mismatch (-want +got):\n%s", diff)
	}
}

func TestAttribute_ReadOnlyAndValueContent(t *testing.T) {
	ro := &schema.Field{Name: "name", Kind: schema.KindText, ReadOnly: true}
	dm := datamanager.NewAttribute(&person{}, ro)
	if dm.CanWrite() {
		t.Fatalf("read only field must not be writable")
	}
	if err := dm.Set("x"); !errors.Is(err, datamanager.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}

	byValue := datamanager.NewAttribute(person{FullName: "x"}, &schema.Field{Name: "name"})
	if byValue.CanWrite() {
		t.Fatalf("struct values are not addressable")
	}
	if v, ok, _ := byValue.Query(); !ok || v != "x" {
		t.Fatalf("expected struct values to be readable, got %v", v)
	}
}

func TestAttribute_GuardIsNotMissing(t *testing.T) {
	g := &guarded{hidden: map[string]bool{"name": true}}
	dm := datamanager.NewAttribute(g, &schema.Field{Name: "name", Kind: schema.KindText})
	if dm.CanAccess() {
		t.Fatalf("expected access to be refused")
	}
	if _, _, err := dm.Query(); !errors.Is(err, datamanager.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	age := datamanager.NewAttribute(g, &schema.Field{Name: "age", Kind: schema.KindInt})
	if age.CanWrite() {
		t.Fatalf("expected guard to refuse writes")
	}
	if err := age.Set(3); !errors.Is(err, datamanager.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAttribute_SchemaAdapter(t *testing.T) {
	type wrapper struct{ Inner *address }
	s := schema.MustNew("Address", &schema.Field{Name: "street", Kind: schema.KindText})
	s.Adapter = func(content any) any { return content.(*wrapper).Inner }
	field, _ := s.Field("street")

	w := &wrapper{Inner: &address{Street: "Elm"}}
	dm, err := datamanager.For(w, field)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if v, _, _ := dm.Query(); v != "Elm" {
		t.Fatalf("expected adapted read, got %v", v)
	}
}

func TestMapping(t *testing.T) {
	data := map[string]any{"title": "hello"}
	title := &schema.Field{Name: "title", Kind: schema.KindText}
	dm, err := datamanager.For(data, title)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if _, ok := dm.(*datamanager.Mapping); !ok {
		t.Fatalf("expected mapping manager, got %T", dm)
	}
	if v, ok, _ := dm.Query(); !ok || v != "hello" {
		t.Fatalf("unexpected query %v %v", v, ok)
	}
	if err := dm.Set("bye"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data["title"] != "bye" {
		t.Fatalf("expected map to be updated, got %v", data["title"])
	}

	missing := &schema.Field{Name: "body"}
	mdm, _ := datamanager.For(data, missing)
	if _, ok, _ := mdm.Query(); ok {
		t.Fatalf("expected no value for absent key")
	}

	typed := map[string]int{}
	tdm, _ := datamanager.For(typed, &schema.Field{Name: "n", Kind: schema.KindInt})
	if err := tdm.Set(int64(3)); err != nil || typed["n"] != 3 {
		t.Fatalf("expected typed map assignment, got %v %v", typed, err)
	}
}

func TestForRejectsNil(t *testing.T) {
	if _, err := datamanager.For(nil, &schema.Field{Name: "x"}); !errors.Is(err, datamanager.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestAssignErrors(t *testing.T) {
	var n int8
	if err := datamanager.Assign(reflect.ValueOf(&n).Elem(), 1000); err == nil {
		t.Fatalf("expected overflow error")
	}
	var s string
	if err := datamanager.Assign(reflect.ValueOf(&s).Elem(), 5); err == nil {
		t.Fatalf("expected int to string assignment to fail")
	}
}
