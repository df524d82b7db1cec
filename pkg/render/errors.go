package render

import (
	"strings"

	"github.com/samber/lo"

	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// ErrorMapping splits the error views of a form into messages keyed by
// dotted field path and messages about the form as a whole.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapErrors groups the error views of the last extraction of f. Views
// without a widget, such as invariant failures, are form level.
func MapErrors(f *form.Form) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	for _, view := range f.Errors {
		if view == nil {
			continue
		}
		path := ""
		if view.Widget != nil {
			path = validation.FieldPath(view.Widget.Common().Name)
		}
		if path == "" {
			mapping.Form = append(mapping.Form, view.Message)
			continue
		}
		mapping.Fields[path] = append(mapping.Fields[path], view.Message)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// normalizeMessages trims messages and drops blank and repeated ones.
func normalizeMessages(messages []string) []string {
	out := lo.Uniq(lo.FilterMap(messages, func(message string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(message)
		return trimmed, trimmed != ""
	}))
	if len(out) == 0 {
		return nil
	}
	return out
}
