package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a vocabulary lookup miss. Term lookups wrap it so
// callers can treat the selection as no longer valid.
var ErrNotFound = errors.New("schema: not found")

// Code classifies a field constraint violation.
type Code string

const (
	RequiredMissing        Code = "required_missing"
	WrongType              Code = "wrong_type"
	TooShort               Code = "too_short"
	TooLong                Code = "too_long"
	TooSmall               Code = "too_small"
	TooBig                 Code = "too_big"
	NotInVocabulary        Code = "not_in_vocabulary"
	WrongContainedType     Code = "wrong_contained_type"
	NotUnique              Code = "not_unique"
	ConstraintNotSatisfied Code = "constraint_not_satisfied"
)

var defaultMessages = map[Code]string{
	RequiredMissing:        "Required input is missing.",
	WrongType:              "Object is of wrong type.",
	TooShort:               "Value is too short",
	TooLong:                "Value is too long",
	TooSmall:               "Value is too small",
	TooBig:                 "Value is too big",
	NotInVocabulary:        "Constraint not satisfied",
	WrongContainedType:     "Wrong contained type",
	NotUnique:              "One or more entries of sequence are not unique.",
	ConstraintNotSatisfied: "Constraint not satisfied",
}

// ValidationError reports a parsed value that violates a field constraint.
type ValidationError struct {
	Code    Code
	Field   string
	Value   any
	Message string
	// Errors holds the element failures of a WrongContainedType error.
	Errors []error
}

// NewValidationError builds a ValidationError carrying the default message
// for code.
func NewValidationError(code Code, field string, value any) *ValidationError {
	return &ValidationError{Code: code, Field: field, Value: value}
}

// Doc returns the user facing message.
func (e *ValidationError) Doc() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if msg, ok := defaultMessages[e.Code]; ok {
		return msg
	}
	return string(e.Code)
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "schema: " + e.Doc()
	}
	return fmt.Sprintf("schema: field %q: %s", e.Field, e.Doc())
}

// Is matches another *ValidationError with the same code, or any
// *ValidationError when the target has no code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// ValueError reports raw input that cannot be parsed into the native type
// of a field.
type ValueError struct {
	Message string
	Input   any
	Err     error
}

// NewValueError wraps err as a parse failure for input.
func NewValueError(message string, input any, err error) *ValueError {
	return &ValueError{Message: message, Input: input, Err: err}
}

func (e *ValueError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "schema: invalid value"
}

func (e *ValueError) Unwrap() error { return e.Err }

// Invalid reports a rule violation that is not bound to a single field
// constraint: schema invariants, duplicate keys and custom constraints.
type Invalid struct {
	Message string
	Fields  []string
}

// NewInvalid returns an Invalid error optionally naming the fields involved.
func NewInvalid(message string, fields ...string) *Invalid {
	return &Invalid{Message: message, Fields: fields}
}

func (e *Invalid) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

// NoInputData is returned by records that have no value for a field, so
// invariants touching that field can be skipped.
type NoInputData struct {
	Name string
}

func (e *NoInputData) Error() string {
	return fmt.Sprintf("schema: no input data for %q", e.Name)
}

// IsNoInputData reports whether err wraps a NoInputData error.
func IsNoInputData(err error) bool {
	var target *NoInputData
	return errors.As(err, &target)
}
