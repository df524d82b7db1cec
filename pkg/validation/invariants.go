// Package validation evaluates cross-field schema invariants over extracted
// form data and exports validation failures as flat issues.
package validation

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formkit/pkg/datamanager"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Data is the record invariants see: extracted values first, then the
// value stored on the content object unless the context is ignored.
type Data struct {
	Schema        *schema.Schema
	Values        map[string]any
	Content       any
	IgnoreContext bool
}

// Get implements schema.Record. Names without a submitted or stored value
// yield a *schema.NoInputData error.
func (d *Data) Get(name string) (any, error) {
	if value, ok := d.Values[name]; ok {
		if pending, ok := value.(schema.Pending); ok {
			return pending.Target(), nil
		}
		return value, nil
	}
	field, ok := d.Schema.Field(name)
	if !ok {
		return nil, fmt.Errorf("validation: %q is not a field of %s", name, d.Schema.Name)
	}
	if d.Content == nil || d.IgnoreContext {
		return nil, &schema.NoInputData{Name: name}
	}
	dm, err := datamanager.For(d.Content, field)
	if err != nil {
		if errors.Is(err, datamanager.ErrUnsupported) {
			return nil, &schema.NoInputData{Name: name}
		}
		return nil, err
	}
	value, ok, err := dm.Query()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &schema.NoInputData{Name: name}
	}
	return value, nil
}

// Invariants runs the invariants of data.Schema. Invariants failing only
// because an input is missing are dropped; the field level validation
// already reports those.
func Invariants(data *Data) []error {
	if data == nil || data.Schema == nil {
		return nil
	}
	var out []error
	for _, err := range data.Schema.ValidateInvariants(data) {
		if schema.IsNoInputData(err) {
			continue
		}
		out = append(out, err)
	}
	return out
}
