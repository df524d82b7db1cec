package render

import (
	"fmt"
	"slices"
	"strings"
)

// HiddenField is an input rendered after the widgets of a form. Forms
// carry the record version and anti forgery tokens this way so a
// submission can be checked before it is applied.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a hidden field holding the text form of value.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken returns the hidden field carrying an anti forgery token.
func CSRFToken(name, token string) HiddenField { return Hidden(name, token) }

// VersionField returns the hidden field carrying the version a form was
// rendered from, compared against the stored version on submit.
func VersionField(name string, version int) HiddenField { return Hidden(name, version) }

// MergeHiddenFields copies base and sets fields on the copy. A field
// without a name is skipped and a repeated name keeps the last value.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields lists fields by name, the order forms render them in.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	clean := MergeHiddenFields(fields)
	if clean == nil {
		return nil
	}
	out := make([]HiddenField, 0, len(clean))
	names := make([]string, 0, len(clean))
	for name := range clean {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: clean[name]})
	}
	return out
}
