package datamanager

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Attribute manages a named attribute of a struct, a pointer to a struct or
// an Accessor. The content is first adapted through the owning schema.
type Attribute struct {
	field   *schema.Field
	content any
	target  any
}

// NewAttribute binds field to content.
func NewAttribute(content any, field *schema.Field) *Attribute {
	return &Attribute{field: field, content: content, target: field.Owner.Adapt(content)}
}

// Content returns the adapted object the manager reads from.
func (a *Attribute) Content() any { return a.target }

func (a *Attribute) Get() (any, error) {
	value, ok, err := a.Query()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoValue, a.field.Name)
	}
	return value, nil
}

func (a *Attribute) Query() (any, bool, error) {
	if !guardAllows(a.target, a.field.Name, false) {
		return nil, false, fmt.Errorf("%w: read %q", ErrForbidden, a.field.Name)
	}
	if accessor, ok := a.target.(Accessor); ok {
		value, found := accessor.Attr(a.field.Name)
		return value, found, nil
	}
	fv, ok := a.lookup()
	if !ok {
		return nil, false, nil
	}
	return read(fv, a.field), true, nil
}

func (a *Attribute) Set(value any) error {
	if a.field.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, a.field.Name)
	}
	if !guardAllows(a.target, a.field.Name, true) {
		return fmt.Errorf("%w: write %q", ErrForbidden, a.field.Name)
	}
	if accessor, ok := a.target.(Accessor); ok {
		return accessor.SetAttr(a.field.Name, value)
	}
	fv, ok := a.lookup()
	if !ok {
		return fmt.Errorf("%w: %T has no attribute %q", ErrUnsupported, a.target, a.field.Name)
	}
	if !fv.CanSet() {
		return fmt.Errorf("%w: attribute %q of %T is not addressable", ErrUnsupported, a.field.Name, a.target)
	}
	if err := Assign(fv, value); err != nil {
		return fmt.Errorf("datamanager: set %q: %w", a.field.Name, err)
	}
	return nil
}

func (a *Attribute) CanAccess() bool {
	return guardAllows(a.target, a.field.Name, false)
}

func (a *Attribute) CanWrite() bool {
	if a.field.ReadOnly || !guardAllows(a.target, a.field.Name, true) {
		return false
	}
	if _, ok := a.target.(Accessor); ok {
		return true
	}
	fv, ok := a.lookup()
	return ok && fv.CanSet()
}

func (a *Attribute) lookup() (reflect.Value, bool) {
	rv := reflect.ValueOf(a.target)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	idx, ok := fieldIndex(rv.Type(), a.field.Name)
	if !ok {
		return reflect.Value{}, false
	}
	fv, err := rv.FieldByIndexErr(idx)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}

// read unwraps scalar pointers; object fields keep their pointer so the
// identity of nested objects survives.
func read(fv reflect.Value, field *schema.Field) any {
	if fv.Kind() == reflect.Pointer && field.Kind != schema.KindObject {
		if fv.IsNil() {
			return nil
		}
		if fv.Elem().Kind() != reflect.Struct {
			return fv.Elem().Interface()
		}
	}
	if (fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map || fv.Kind() == reflect.Interface || fv.Kind() == reflect.Pointer) && fv.IsNil() {
		return nil
	}
	return fv.Interface()
}

var indexCache sync.Map

type cacheKey struct {
	typ  reflect.Type
	name string
}

// fieldIndex finds the exported struct field for name. A `form` tag wins,
// then a `json` tag, then a case and underscore insensitive name match.
func fieldIndex(t reflect.Type, name string) ([]int, bool) {
	key := cacheKey{typ: t, name: name}
	if cached, ok := indexCache.Load(key); ok {
		idx, _ := cached.([]int)
		return idx, idx != nil
	}
	var byTag, byJSON, byName []int
	folded := foldName(name)
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if tag := tagName(sf.Tag.Get("form")); tag == name && byTag == nil {
			byTag = sf.Index
		}
		if tag := tagName(sf.Tag.Get("json")); tag == name && byJSON == nil {
			byJSON = sf.Index
		}
		if foldName(sf.Name) == folded && byName == nil {
			byName = sf.Index
		}
	}
	var idx []int
	switch {
	case byTag != nil:
		idx = byTag
	case byJSON != nil:
		idx = byJSON
	default:
		idx = byName
	}
	indexCache.Store(key, idx)
	return idx, idx != nil
}

func tagName(tag string) string {
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
