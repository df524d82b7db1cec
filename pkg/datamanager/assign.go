package datamanager

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Assign stores value into dst converting between the generic field value
// shapes ([]any, schema.Tuple, schema.Set, schema.Dict, int, float64) and
// the concrete Go type of dst.
//
// Supports:
//   - nil to the zero value
//   - directly assignable values
//   - numeric conversions with overflow checks
//   - values behind pointers, allocating when needed
//   - slices and arrays element by element
//   - dicts and maps entry by entry
//   - strings through encoding.TextUnmarshaler
func Assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.SetZero()
		return nil
	}
	src := reflect.ValueOf(value)
	dt := dst.Type()

	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}

	switch dt.Kind() {
	case reflect.Pointer:
		elem := reflect.New(dt.Elem())
		if err := Assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := schema.AsInt(value)
		if !ok {
			break
		}
		if dst.OverflowInt(int64(n)) {
			return fmt.Errorf("value %d overflows %s", n, dt)
		}
		dst.SetInt(int64(n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := schema.AsInt(value)
		if !ok || n < 0 {
			break
		}
		if dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, dt)
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := schema.AsFloat(value)
		if !ok {
			break
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("value %v overflows %s", f, dt)
		}
		dst.SetFloat(f)
		return nil
	case reflect.String:
		if src.Kind() == reflect.String {
			dst.SetString(src.String())
			return nil
		}
	case reflect.Slice:
		if dt.Elem().Kind() == reflect.Uint8 && src.Kind() == reflect.String {
			dst.SetBytes([]byte(src.String()))
			return nil
		}
		items, ok := schema.Elements(value)
		if !ok {
			break
		}
		out := reflect.MakeSlice(dt, len(items), len(items))
		for i, item := range items {
			if err := Assign(out.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Array:
		items, ok := schema.Elements(value)
		if !ok || len(items) != dt.Len() {
			break
		}
		for i, item := range items {
			if err := Assign(dst.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	case reflect.Map:
		pairs, ok := schema.Pairs(value)
		if !ok {
			break
		}
		out := reflect.MakeMapWithSize(dt, len(pairs))
		for _, pair := range pairs {
			key := reflect.New(dt.Key()).Elem()
			if err := Assign(key, pair.Key); err != nil {
				return fmt.Errorf("key %v: %w", pair.Key, err)
			}
			val := reflect.New(dt.Elem()).Elem()
			if err := Assign(val, pair.Value); err != nil {
				return fmt.Errorf("value for %v: %w", pair.Key, err)
			}
			out.SetMapIndex(key, val)
		}
		dst.Set(out)
		return nil
	}

	if s, ok := value.(string); ok && dst.CanAddr() {
		if unmarshaler, ok := dst.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return unmarshaler.UnmarshalText([]byte(s))
		}
	}
	if src.Type().ConvertibleTo(dt) && src.Kind() == dt.Kind() {
		dst.Set(src.Convert(dt))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, dt)
}
