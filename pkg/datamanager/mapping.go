package datamanager

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Mapping manages a key of a map keyed by strings.
type Mapping struct {
	field *schema.Field
	data  reflect.Value
}

// NewMapping binds field to the map content.
func NewMapping(content any, field *schema.Field) (*Mapping, error) {
	rv := reflect.ValueOf(content)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %T is not a string keyed map", ErrUnsupported, content)
	}
	return &Mapping{field: field, data: rv}, nil
}

func (m *Mapping) key() reflect.Value {
	return reflect.ValueOf(m.field.Name).Convert(m.data.Type().Key())
}

func (m *Mapping) Get() (any, error) {
	value, ok, err := m.Query()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoValue, m.field.Name)
	}
	return value, nil
}

func (m *Mapping) Query() (any, bool, error) {
	if m.data.IsNil() {
		return nil, false, nil
	}
	v := m.data.MapIndex(m.key())
	if !v.IsValid() {
		return nil, false, nil
	}
	return v.Interface(), true, nil
}

func (m *Mapping) Set(value any) error {
	if m.field.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, m.field.Name)
	}
	if m.data.IsNil() {
		return fmt.Errorf("%w: nil map for %q", ErrUnsupported, m.field.Name)
	}
	elem := reflect.New(m.data.Type().Elem()).Elem()
	if err := Assign(elem, value); err != nil {
		return fmt.Errorf("datamanager: set %q: %w", m.field.Name, err)
	}
	m.data.SetMapIndex(m.key(), elem)
	return nil
}

func (m *Mapping) CanAccess() bool { return true }

func (m *Mapping) CanWrite() bool { return !m.field.ReadOnly && !m.data.IsNil() }
