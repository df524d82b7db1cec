// Package datamanager is the read/write gateway between form fields and the
// content objects they edit.
package datamanager

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-formkit/pkg/schema"
)

var (
	// ErrNoValue is returned by Get when the content holds no value.
	ErrNoValue = errors.New("datamanager: no value")
	// ErrForbidden reports a security policy refusal. It must never be
	// treated as a missing value.
	ErrForbidden = errors.New("datamanager: forbidden attribute")
	// ErrReadOnly reports a write to a read only field.
	ErrReadOnly = errors.New("datamanager: attribute is read only")
	// ErrUnsupported reports content the manager cannot address.
	ErrUnsupported = errors.New("datamanager: unsupported content")
)

// DataManager reads and writes the value of one field on one content
// object.
type DataManager interface {
	// Get returns the stored value or ErrNoValue.
	Get() (any, error)
	// Query returns the stored value; ok is false when there is none. The
	// error is reserved for refusals such as ErrForbidden.
	Query() (value any, ok bool, err error)
	// Set stores value.
	Set(value any) error
	CanAccess() bool
	CanWrite() bool
}

// Guard lets content objects veto access to individual attributes.
type Guard interface {
	CanAccess(name string) bool
	CanWrite(name string) bool
}

// Accessor lets content objects expose attributes without reflection.
type Accessor interface {
	Attr(name string) (any, bool)
	SetAttr(name string, value any) error
}

// Factory builds a DataManager for content and field.
type Factory func(content any, field *schema.Field) (DataManager, error)

// For picks the manager matching the shape of content: Mapping for maps
// keyed by strings, Attribute for structs, pointers to structs and
// Accessors.
func For(content any, field *schema.Field) (DataManager, error) {
	if field == nil {
		return nil, errors.New("datamanager: field is required")
	}
	if content == nil {
		return nil, fmt.Errorf("%w: nil content for %q", ErrUnsupported, field.Name)
	}
	if _, ok := content.(Accessor); ok {
		return NewAttribute(content, field), nil
	}
	rv := reflect.ValueOf(content)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return NewMapping(content, field)
	}
	return NewAttribute(content, field), nil
}

func guardAllows(target any, name string, write bool) bool {
	guard, ok := target.(Guard)
	if !ok {
		return true
	}
	if write {
		return guard.CanWrite(name)
	}
	return guard.CanAccess(name)
}
