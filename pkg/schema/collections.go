package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Tuple is the native value of a tuple field.
type Tuple []any

// Set is the native value of a set field: unique elements kept in
// insertion order.
type Set []any

// NewSet builds a Set dropping repeated elements.
func NewSet(items ...any) Set {
	out := make(Set, 0, len(items))
	seen := make(map[any]struct{}, len(items))
	for _, item := range items {
		key := HashKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Contains reports whether item is in the set.
func (s Set) Contains(item any) bool {
	key := HashKey(item)
	for _, candidate := range s {
		if HashKey(candidate) == key {
			return true
		}
	}
	return false
}

// Pair is one key/value entry of a Dict.
type Pair struct {
	Key   any
	Value any
}

// Dict is the native value of a dict field. Entries keep insertion order
// and keys may be values Go maps cannot hold, such as slices.
type Dict []Pair

// Get returns the value stored under key.
func (d Dict) Get(key any) (any, bool) {
	hashed := HashKey(key)
	for _, pair := range d {
		if HashKey(pair.Key) == hashed {
			return pair.Value, true
		}
	}
	return nil, false
}

// Keys lists the keys in order.
func (d Dict) Keys() []any {
	out := make([]any, len(d))
	for i, pair := range d {
		out[i] = pair.Key
	}
	return out
}

// Elements flattens any slice or array value into a []any.
func Elements(v any) ([]any, bool) {
	switch typed := v.(type) {
	case []any:
		return typed, true
	case Tuple:
		return []any(typed), true
	case Set:
		return []any(typed), true
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// Pairs flattens a Dict or any Go map into ordered pairs. Map entries are
// sorted by their formatted key so the order is stable.
func Pairs(v any) ([]Pair, bool) {
	if d, ok := v.(Dict); ok {
		return d, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make([]Pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, Pair{Key: iter.Key().Interface(), Value: iter.Value().Interface()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return canonical(reflect.ValueOf(out[i].Key)) < canonical(reflect.ValueOf(out[j].Key))
	})
	return out, true
}

type canonicalKey string

// HashKey returns a value usable as a Go map key that identifies v.
// Comparable values are returned as is; slices, maps and values holding
// them are reduced to a canonical form at every depth.
func HashKey(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if hashable(rv.Type()) {
		return v
	}
	return canonicalKey(canonical(rv))
}

func hashable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Interface:
		return false
	case reflect.Array:
		return hashable(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !hashable(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return t.Comparable()
}

func canonical(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
		if rv.Kind() == reflect.Interface {
			return canonical(rv.Elem())
		}
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = canonical(rv.Index(i))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case reflect.Map:
		parts := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			parts = append(parts, canonical(iter.Key())+": "+canonical(iter.Value()))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(Pair{}) {
			pair := rv.Interface().(Pair)
			return canonical(reflect.ValueOf(pair.Key)) + "=" + canonical(reflect.ValueOf(pair.Value))
		}
	}
	return fmt.Sprintf("%T:%#v", rv.Interface(), rv.Interface())
}
