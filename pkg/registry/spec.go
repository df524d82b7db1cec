package registry

import "reflect"

// Match weights. A lookup compares the scores of its discriminators left to
// right, so the first discriminator is the most significant.
const (
	scoreAny       = 0
	scoreInterface = 1000
	scoreTag       = 2000
	scoreType      = 3000
	scoreIdentity  = 4000
)

// Spec matches one positional discriminator of a lookup.
type Spec interface {
	// Score reports how specifically obj satisfies the spec. ok is false
	// when obj does not match at all.
	Score(obj any) (score int, ok bool)
}

// Tagged values describe themselves with capability tags ordered from the
// most to the least specific.
type Tagged interface {
	Tags() []string
}

type anySpec struct{}

// Any matches every value, including nil, with the lowest weight.
func Any() Spec { return anySpec{} }

func (anySpec) Score(any) (int, bool) { return scoreAny, true }

type typeSpec struct {
	typ reflect.Type
}

// Type matches values of the concrete type T or, when T is an interface,
// values implementing it. Exact types outrank interfaces.
func Type[T any]() Spec {
	return typeSpec{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

func (s typeSpec) Score(obj any) (int, bool) {
	if obj == nil {
		return 0, false
	}
	ot := reflect.TypeOf(obj)
	if s.typ.Kind() == reflect.Interface {
		if ot.Implements(s.typ) {
			return scoreInterface, true
		}
		return 0, false
	}
	if ot == s.typ {
		return scoreType, true
	}
	return 0, false
}

type tagSpec string

// Tag matches Tagged values carrying name. Tags earlier in the value's list
// score higher, so a handler for "int" beats one for "field" on an int
// field.
func Tag(name string) Spec { return tagSpec(name) }

func (s tagSpec) Score(obj any) (int, bool) {
	tagged, ok := obj.(Tagged)
	if !ok {
		return 0, false
	}
	for idx, tag := range tagged.Tags() {
		if tag == string(s) {
			return scoreTag - idx, true
		}
	}
	return 0, false
}

type identitySpec struct {
	value any
}

// Is matches one specific value, typically a pointer such as a single
// schema field, and outranks every other spec.
func Is(value any) Spec { return identitySpec{value: value} }

func (s identitySpec) Score(obj any) (int, bool) {
	if obj == nil || s.value == nil {
		return 0, false
	}
	ot := reflect.TypeOf(obj)
	if ot != reflect.TypeOf(s.value) || !ot.Comparable() {
		return 0, false
	}
	if obj == s.value {
		return scoreIdentity, true
	}
	return 0, false
}
