package request

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON reports a JSON body that cannot be flattened.
var ErrInvalidJSON = errors.New("request: invalid JSON payload")

// FromJSON flattens a JSON object into request values. Nested objects join
// their keys with '.', arrays submit each element under the same name and
// null submits nothing.
//
//	{"form.widgets.name": "x", "form": {"widgets": {"tags": ["a", "b"]}}}
//
// yields form.widgets.name=x and form.widgets.tags=[a b].
func FromJSON(data []byte) (*Values, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidJSON)
	}
	v := &Values{fields: make(map[string][]string)}
	flatten(v, "", root)
	return v, nil
}

func flatten(v *Values, prefix string, node gjson.Result) {
	switch {
	case node.IsObject():
		node.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if prefix != "" {
				name = prefix + "." + name
			}
			flatten(v, name, value)
			return true
		})
	case node.IsArray():
		node.ForEach(func(_, value gjson.Result) bool {
			if value.IsObject() {
				flatten(v, prefix, value)
				return true
			}
			if value.Type != gjson.Null {
				v.Add(prefix, scalar(value))
			}
			return true
		})
		if _, ok := v.fields[prefix]; !ok && len(node.Array()) == 0 {
			v.fields[prefix] = []string{}
		}
	case node.Type == gjson.Null:
	default:
		v.Add(prefix, scalar(node))
	}
}

func scalar(node gjson.Result) string {
	switch node.Type {
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Number:
		return node.Raw
	default:
		return node.String()
	}
}
