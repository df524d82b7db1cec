package form

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/datamanager"
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// View is the form a widget manager works for: the object supplying the
// fields and the request name prefix. Forms, groups and object widgets
// implement it.
type View interface {
	Prefix() string
	Fields() *Fields
}

// Widget is the stateful, request scoped representation of one field.
//
// Extract reads the widget value from the request; ok is false when the
// request does not carry the widget at all. The error is reserved for
// composite widgets whose children failed.
type Widget interface {
	Common() *Base
	Tags() []string
	Update() error
	Extract() (value any, ok bool, err error)
	Value() any
	SetValue(value any) error
	SetMode(mode Mode)
	Render() (string, error)
}

// Base carries the state shared by every widget kind. Plain text-like
// widgets use it directly.
type Base struct {
	Kind        string
	Name        string
	ID          string
	Label       string
	Title       string
	Placeholder string
	Required    bool
	Mode        Mode
	Err         *ErrorView

	Context any
	Request request.Request
	Form    View
	Field   *schema.Field

	IgnoreContext              bool
	IgnoreRequest              bool
	IgnoreRequiredOnValidation bool
	SetErrors                  bool
	ShowDefault                bool
	// Template names an explicit template, bypassing lookup.
	Template string

	value any
	self  Widget
	env   *Env
}

func (b *Base) init(kind string, self Widget) {
	b.Kind = kind
	b.Mode = ModeInput
	b.SetErrors = true
	b.ShowDefault = true
	b.self = self
}

// NewTextWidget returns a plain widget of kind: text, textarea, password,
// textlines or file.
func NewTextWidget(kind string) *Base {
	b := &Base{}
	b.init(kind, b)
	return b
}

func (b *Base) Common() *Base { return b }

func (b *Base) widget() Widget {
	if b.self != nil {
		return b.self
	}
	return b
}

// Env returns the environment the widget was built in.
func (b *Base) Env() *Env { return b.env }

func (b *Base) Tags() []string { return []string{b.Kind, "widget"} }

func (b *Base) Update() error { return updateWidget(b) }

func (b *Base) Extract() (any, bool, error) {
	if b.Request == nil {
		return nil, false, nil
	}
	value, ok := b.Request.Get(b.Name)
	return value, ok, nil
}

func (b *Base) Value() any { return b.value }

func (b *Base) SetValue(value any) error {
	b.value = value
	return nil
}

func (b *Base) SetMode(mode Mode) { b.Mode = mode }

// Render renders the widget through the Env renderer.
func (b *Base) Render() (string, error) {
	if b.env == nil || b.env.Renderer == nil {
		return "", ErrNoRenderer
	}
	return b.env.Renderer.RenderWidget(b.widget())
}

// RegisterTemplate registers the template name rendering widgets in mode.
// Specs discriminate on (context, request, form, field, widget).
func RegisterTemplate(reg *registry.Registry, mode Mode, name string, specs ...registry.Spec) error {
	return reg.Register(componentTemplate+string(mode), specs, name)
}

// TemplateName returns the template registered for the widget in its
// current mode, or the explicit Template.
func (b *Base) TemplateName() (string, bool) {
	if b.Template != "" {
		return b.Template, true
	}
	if b.env == nil {
		return "", false
	}
	return registry.Query[string](b.env.Registry, componentTemplate+string(b.Mode), b.Context, b.Request, b.Form, b.Field, b.widget())
}

func (b *Base) valueContext() ValueContext {
	return ValueContext{Context: b.Context, Request: b.Request, Form: b.Form, Field: b.Field, Widget: b.widget()}
}

func (b *Base) attribute(name string) (any, bool) {
	if b.env == nil {
		return nil, false
	}
	return lookupValue(b.env.Registry, name, b.valueContext(), b.Context, b.Request, b.Form, b.Field, b.widget())
}

func (b *Base) converter() (Converter, error) {
	if b.env == nil {
		return nil, fmt.Errorf("form: widget %q is not bound to an environment", b.Name)
	}
	return b.env.Converter(b.Field, b.widget())
}

func (b *Base) validator() (Validator, error) {
	factory, err := registry.Resolve[ValidatorFactory](b.env.Registry, ComponentValidator, b.Context, b.Request, b.Form, b.Field, b.widget())
	if err != nil {
		return nil, fmt.Errorf("form: validator: %w", err)
	}
	return factory(b.valueContext()), nil
}

// queryContext reads the stored value of the field. Content the data
// managers cannot address counts as no value; refusals are returned.
func (b *Base) queryContext() (any, bool, error) {
	dm, err := b.env.DataManager(b.Context, b.Field)
	if err != nil {
		if errors.Is(err, datamanager.ErrUnsupported) {
			return nil, false, nil
		}
		return nil, false, err
	}
	value, ok, err := dm.Query()
	if err != nil {
		if errors.Is(err, datamanager.ErrForbidden) {
			b.env.logger().Warn("attribute access refused",
				zap.String("widget", b.Name),
				zap.Error(err))
		}
		return nil, false, err
	}
	return value, ok, nil
}

// adapterAttributes updates the attributes providers may override.
func (b *Base) adapterAttributes(names ...string) {
	for _, name := range names {
		value, ok := b.attribute(name)
		if !ok {
			continue
		}
		switch name {
		case AttrLabel:
			if s, isText := value.(string); isText {
				b.Label = s
			}
		case AttrTitle:
			if s, isText := value.(string); isText {
				b.Title = s
			}
		case AttrPlaceholder:
			if s, isText := value.(string); isText {
				b.Placeholder = s
			}
		case AttrRequired:
			if flag, isBool := value.(bool); isBool {
				b.Required = flag
			}
		}
	}
}

var baseAttributes = []string{AttrLabel, AttrRequired, AttrTitle, AttrPlaceholder}

// updateWidget resolves the widget value in precedence order: the request,
// the stored value on the context, the field default and the "default"
// attribute value. Values not taken from the request go through the
// converter. Adapter attributes are refreshed last.
func updateWidget(w Widget) error {
	b := w.Common()
	var (
		value          any
		found          bool
		fromRequest    bool
		lookForDefault bool
	)

	if !b.IgnoreRequest {
		setErrors := b.SetErrors
		b.SetErrors = false
		raw, ok, err := w.Extract()
		b.SetErrors = setErrors
		if err != nil && !Recoverable(err) {
			return err
		}
		if err == nil && ok {
			if err := w.SetValue(raw); err != nil {
				return err
			}
			fromRequest = true
		}
	}

	if !fromRequest && b.Field != nil {
		if !b.IgnoreContext && b.Context != nil {
			stored, ok, err := b.queryContext()
			if err != nil {
				return fmt.Errorf("form: widget %q: %w", b.Name, err)
			}
			if ok && !b.Field.IsMissing(stored) {
				value, found = stored, true
			}
		}
		if !found && b.Field.Default != nil && b.ShowDefault {
			value, found, lookForDefault = b.Field.Default, true, true
		}
	}

	if !fromRequest && (!found || lookForDefault) {
		if adapted, ok := b.attribute(AttrDefault); ok {
			value, found = adapted, true
		}
	}

	if found {
		converter, err := b.converter()
		if err != nil {
			return err
		}
		widgetValue, err := converter.ToWidgetValue(value)
		if err != nil {
			return fmt.Errorf("form: widget %q: %w", b.Name, err)
		}
		if err := w.SetValue(widgetValue); err != nil {
			return err
		}
	}

	b.adapterAttributes(baseAttributes...)
	return nil
}

// applyValue validates value for a child widget of a composite and stores
// it reformatted. Failures become the child's error view and the raw value
// is stored as is, so the user sees what was entered.
func applyValue(parent *Base, child Widget, value any) error {
	if value == nil {
		return child.SetValue(nil)
	}
	cb := child.Common()
	converter, err := cb.converter()
	if err != nil {
		return err
	}
	fieldValue, err := converter.ToFieldValue(value)
	if err == nil {
		var validator Validator
		if validator, err = cb.validator(); err != nil {
			return err
		}
		err = validator.Validate(fieldValue)
	}
	if err == nil {
		formatted, ferr := converter.ToWidgetValue(fieldValue)
		if ferr != nil {
			return ferr
		}
		return child.SetValue(formatted)
	}
	if !Recoverable(err) {
		return err
	}
	cb.Err = NewErrorView(parent.env, err, child, cb.Field, parent.Form, parent.Context, parent.Request)
	return child.SetValue(value)
}
