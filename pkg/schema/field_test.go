package schema_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-formkit/pkg/schema"
)

func floatPtr(v float64) *float64 { return &v }

func TestFieldValidate(t *testing.T) {
	colors := schema.SimpleVocabulary("red", "green")
	cases := []struct {
		name  string
		field *schema.Field
		value any
		code  schema.Code
	}{
		{name: "required missing", field: &schema.Field{Name: "a", Kind: schema.KindText, Required: true}, value: nil, code: schema.RequiredMissing},
		{name: "optional missing", field: &schema.Field{Name: "a", Kind: schema.KindText}, value: nil},
		{name: "wrong type", field: &schema.Field{Name: "a", Kind: schema.KindInt}, value: "1", code: schema.WrongType},
		{name: "too short", field: &schema.Field{Name: "a", Kind: schema.KindText, MinLength: 3}, value: "ab", code: schema.TooShort},
		{name: "too long", field: &schema.Field{Name: "a", Kind: schema.KindText, MaxLength: 2}, value: "abc", code: schema.TooLong},
		{name: "too small", field: &schema.Field{Name: "a", Kind: schema.KindInt, Min: floatPtr(1)}, value: 0, code: schema.TooSmall},
		{name: "too big", field: &schema.Field{Name: "a", Kind: schema.KindFloat, Max: floatPtr(1)}, value: 1.5, code: schema.TooBig},
		{name: "choice ok", field: &schema.Field{Name: "a", Kind: schema.KindChoice, Vocabulary: colors}, value: "red"},
		{name: "choice miss", field: &schema.Field{Name: "a", Kind: schema.KindChoice, Vocabulary: colors}, value: "blue", code: schema.NotInVocabulary},
		{
			name:  "contained type",
			field: &schema.Field{Name: "a", Kind: schema.KindList, ValueType: &schema.Field{Kind: schema.KindInt}},
			value: []any{1, "x"},
			code:  schema.WrongContainedType,
		},
		{
			name:  "not unique",
			field: &schema.Field{Name: "a", Kind: schema.KindList, Unique: true},
			value: []any{"x", "x"},
			code:  schema.NotUnique,
		},
		{name: "date", field: &schema.Field{Name: "a", Kind: schema.KindDate}, value: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{name: "uuid", field: &schema.Field{Name: "a", Kind: schema.KindUUID}, value: uuid.New()},
		{
			name:  "dict keys",
			field: &schema.Field{Name: "a", Kind: schema.KindDict, KeyType: &schema.Field{Kind: schema.KindText}, ValueType: &schema.Field{Kind: schema.KindInt}},
			value: schema.Dict{{Key: "x", Value: 1}, {Key: 2, Value: 1}},
			code:  schema.WrongContainedType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.field.Validate(tc.value)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var verr *schema.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Code != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, verr.Code)
			}
		})
	}
}

func TestFieldConstraint(t *testing.T) {
	field := &schema.Field{Name: "even", Kind: schema.KindInt, Constraint: func(v any) error {
		if v.(int)%2 != 0 {
			return errors.New("must be even")
		}
		return nil
	}}
	err := field.Validate(3)
	if !errors.Is(err, &schema.ValidationError{Code: schema.ConstraintNotSatisfied}) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if got := err.(*schema.ValidationError).Doc(); got != "must be even" {
		t.Fatalf("unexpected message %q", got)
	}
}

type staged struct{ target any }

func (s staged) Target() any { return s.target }

func TestFieldValidatePending(t *testing.T) {
	type point struct{ X int }
	s := schema.MustNew("point", &schema.Field{Name: "x", Kind: schema.KindInt})
	s.Implements = func(v any) bool {
		_, ok := v.(*point)
		return ok
	}
	field := &schema.Field{Name: "origin", Kind: schema.KindObject, Schema: s, Required: true}
	if err := field.Validate(staged{target: &point{}}); err != nil {
		t.Fatalf("expected the staged target to validate, got %v", err)
	}
	if err := field.Validate(staged{target: "point"}); !errors.Is(err, &schema.ValidationError{Code: schema.WrongType}) {
		t.Fatalf("expected wrong type, got %v", err)
	}
	if err := field.Validate(staged{}); !errors.Is(err, &schema.ValidationError{Code: schema.RequiredMissing}) {
		t.Fatalf("expected required missing, got %v", err)
	}
}

func TestFieldFromString(t *testing.T) {
	id := uuid.MustParse("9f0c3c1e-8a8b-4b53-9a32-1f8f7b6d2c10")
	cases := []struct {
		name   string
		field  *schema.Field
		input  string
		expect any
	}{
		{name: "text", field: &schema.Field{Kind: schema.KindText}, input: "hello", expect: "hello"},
		{name: "int", field: &schema.Field{Kind: schema.KindInt}, input: " 42 ", expect: 42},
		{name: "float", field: &schema.Field{Kind: schema.KindFloat}, input: "1.5", expect: 1.5},
		{name: "decimal", field: &schema.Field{Kind: schema.KindDecimal}, input: "10.25", expect: schema.Decimal("10.25")},
		{name: "bool", field: &schema.Field{Kind: schema.KindBool}, input: "true", expect: true},
		{name: "uuid", field: &schema.Field{Kind: schema.KindUUID}, input: id.String(), expect: id},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.field.FromString(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.expect, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldFromStringRejectsGarbage(t *testing.T) {
	field := &schema.Field{Name: "age", Kind: schema.KindInt}
	_, err := field.FromString("not-a-number")
	var verr *schema.ValueError
	if !errors.As(err, &verr) {
		t.Fatalf("expected value error, got %v", err)
	}
	if verr.Error() != "The entered value is not a valid integer literal." {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}

func TestFieldIsMissing(t *testing.T) {
	field := &schema.Field{Kind: schema.KindText, MissingValue: ""}
	if !field.IsMissing("") || !field.IsMissing(nil) {
		t.Fatalf("expected empty string and nil to be missing")
	}
	if field.IsMissing("x") {
		t.Fatalf("expected x to be present")
	}
	zero := &schema.Field{Kind: schema.KindInt}
	if zero.IsMissing(0) {
		t.Fatalf("zero must not count as missing")
	}
}

func TestFieldBindResolvesVocabulary(t *testing.T) {
	field := &schema.Field{Name: "owner", Kind: schema.KindChoice, VocabularyFunc: func(ctx any) (*schema.Vocabulary, error) {
		return schema.SimpleVocabulary(ctx.([]any)...), nil
	}}
	bound, err := field.Bind([]any{"ann", "bob"})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if bound == field {
		t.Fatalf("expected a copy")
	}
	if err := bound.Validate("bob"); err != nil {
		t.Fatalf("expected bob to validate, got %v", err)
	}
	if err := bound.Validate("eve"); err == nil {
		t.Fatalf("expected eve to fail")
	}
}

func TestNewCollection(t *testing.T) {
	items := []any{1, 2, 2}
	if got := (&schema.Field{Kind: schema.KindTuple}).NewCollection(items); cmp.Diff(schema.Tuple{1, 2, 2}, got) != "" {
		t.Fatalf("unexpected tuple %#v", got)
	}
	if got := (&schema.Field{Kind: schema.KindSet}).NewCollection(items); cmp.Diff(schema.Set{1, 2}, got) != "" {
		t.Fatalf("unexpected set %#v", got)
	}
	if got := (&schema.Field{Kind: schema.KindList}).NewCollection(nil); cmp.Diff([]any{}, got) != "" {
		t.Fatalf("unexpected list %#v", got)
	}
}

func TestHashKeyNormalisesNestedValues(t *testing.T) {
	a := schema.HashKey([]any{"x", []any{1, 2}})
	b := schema.HashKey([]any{"x", []any{1, 2}})
	if a != b {
		t.Fatalf("expected equal keys, got %v and %v", a, b)
	}
	m1 := schema.HashKey(map[string]any{"a": 1, "b": []int{2}})
	m2 := schema.HashKey(map[string]any{"b": []int{2}, "a": 1})
	if m1 != m2 {
		t.Fatalf("expected map keys to normalise, got %v and %v", m1, m2)
	}
	if schema.HashKey("x") != "x" {
		t.Fatalf("expected comparable values to pass through")
	}
}
