package validation

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Issue represents a validation error with optional location metadata.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// IssueFromError flattens err into an Issue located at path, the request
// name of the widget that failed. An empty path marks a form level issue.
func IssueFromError(path string, err error) Issue {
	if err == nil {
		return Issue{Path: path, Field: FieldPath(path), Message: "unknown error"}
	}
	issue := Issue{Path: path, Field: FieldPath(path), Message: strings.TrimSpace(err.Error())}

	var validationErr *schema.ValidationError
	var invalid *schema.Invalid
	var valueErr *schema.ValueError
	switch {
	case errors.As(err, &validationErr):
		issue.Code = string(validationErr.Code)
		issue.Message = validationErr.Doc()
		if issue.Field == "" {
			issue.Field = validationErr.Field
		}
	case errors.As(err, &invalid):
		issue.Code = "Invalid"
		issue.Message = invalid.Message
		if issue.Field == "" && len(invalid.Fields) > 0 {
			issue.Field = strings.Join(invalid.Fields, ",")
		}
	case errors.As(err, &valueErr):
		issue.Code = "ValueError"
	}
	issue.Message = strings.TrimPrefix(issue.Message, "schema: ")
	return issue
}

// FieldPath turns a request name such as "form.widgets.address.widgets.street"
// or "form.widgets.tags.1" into the dotted field path "address.street" or
// "tags.1". Everything up to the first "widgets" segment is a form or group
// prefix and is dropped.
func FieldPath(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	start := 0
	for idx, segment := range parts {
		if segment == "widgets" {
			start = idx + 1
			break
		}
	}
	out := make([]string, 0, len(parts)-start)
	for _, segment := range parts[start:] {
		if segment == "" || segment == "widgets" {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, ".")
}
