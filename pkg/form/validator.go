package form

import (
	"reflect"

	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Validator checks one field value.
type Validator interface {
	Validate(value any) error
}

// ValidatorFactory builds the validator for a widget.
type ValidatorFactory func(vc ValueContext) Validator

// StrictFieldValidator validates every value against the field bound to
// the context. Required fields are relaxed when the widget ignores the
// required flag.
type StrictFieldValidator struct {
	vc ValueContext
}

// NewStrictFieldValidator returns a validator for vc.
func NewStrictFieldValidator(vc ValueContext) *StrictFieldValidator {
	return &StrictFieldValidator{vc: vc}
}

func (v *StrictFieldValidator) Validate(value any) error {
	field := v.vc.Field
	if field == nil {
		return nil
	}
	if field.Required && v.vc.Widget != nil && v.vc.Widget.Common().IgnoreRequiredOnValidation {
		relaxed := *field
		relaxed.Required = false
		field = &relaxed
	}
	if v.vc.Context != nil {
		bound, err := field.Bind(v.vc.Context)
		if err != nil {
			return err
		}
		field = bound
	}
	return field.Validate(value)
}

// SimpleFieldValidator skips values equal to the one already stored on the
// context and validates the rest strictly. Missing values are always
// checked so a required field cannot pass on an unset stored value.
type SimpleFieldValidator struct {
	StrictFieldValidator
}

func newSimpleFieldValidator(vc ValueContext) Validator {
	return &SimpleFieldValidator{StrictFieldValidator{vc: vc}}
}

func (v *SimpleFieldValidator) Validate(value any) error {
	if v.vc.Field != nil && v.vc.Field.IsMissing(value) {
		return v.StrictFieldValidator.Validate(value)
	}
	if v.unchanged(value) {
		return nil
	}
	return v.StrictFieldValidator.Validate(value)
}

func (v *SimpleFieldValidator) unchanged(value any) bool {
	vc := v.vc
	if vc.Context == nil || vc.Field == nil || vc.Widget == nil {
		return false
	}
	b := vc.Widget.Common()
	if b.IgnoreContext || b.env == nil {
		return false
	}
	dm, err := b.env.DataManager(vc.Context, vc.Field)
	if err != nil || !dm.CanAccess() {
		return false
	}
	stored, ok, err := dm.Query()
	if err != nil || !ok {
		return false
	}
	return reflect.DeepEqual(stored, value)
}

// ManagerValidator checks the invariants of one schema over the data
// extracted for it.
type ManagerValidator interface {
	Validate(data map[string]any) []error
}

// ManagerValidatorFactory builds the manager validator for a schema.
// Content is nil when the manager ignores the context.
type ManagerValidatorFactory func(content any, req request.Request, form View, s *schema.Schema, m *Manager) ManagerValidator

// InvariantsValidator runs the schema invariants.
type InvariantsValidator struct {
	Content any
	Schema  *schema.Schema
}

func newInvariantsValidator(content any, _ request.Request, _ View, s *schema.Schema, _ *Manager) ManagerValidator {
	return &InvariantsValidator{Content: content, Schema: s}
}

func (v *InvariantsValidator) Validate(data map[string]any) []error {
	return validation.Invariants(&validation.Data{
		Schema:        v.Schema,
		Values:        data,
		Content:       v.Content,
		IgnoreContext: v.Content == nil,
	})
}
