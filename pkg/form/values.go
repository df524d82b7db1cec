package form

import (
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Mode selects how a widget renders and whether it is extracted.
type Mode string

const (
	ModeInput   Mode = "input"
	ModeDisplay Mode = "display"
	ModeHidden  Mode = "hidden"
)

// ValueContext is the discriminator tuple attribute values are computed
// from. Error is set for error view messages only.
type ValueContext struct {
	Context any
	Request request.Request
	Form    View
	Field   *schema.Field
	Widget  Widget
	Error   error
}

// ValueProvider supplies an adapter-overridable attribute such as the
// default value or the label of a widget.
type ValueProvider interface {
	Get(vc ValueContext) (any, bool)
}

// StaticValue always provides Value.
type StaticValue struct {
	Value any
}

func (s StaticValue) Get(ValueContext) (any, bool) { return s.Value, true }

// ComputedValue computes the value on every lookup.
type ComputedValue func(vc ValueContext) (any, bool)

func (c ComputedValue) Get(vc ValueContext) (any, bool) { return c(vc) }

// Attribute names consulted after the value is resolved.
const (
	AttrDefault     = "default"
	AttrLabel       = "label"
	AttrRequired    = "required"
	AttrTitle       = "title"
	AttrPlaceholder = "placeholder"
	AttrPrompt      = "prompt"
	AttrMessage     = "message"
)

// RegisterValue registers provider for the named attribute. Widget
// attribute specs discriminate on (context, request, form, field, widget);
// the message attribute on (error, request, widget, field, form, content).
func RegisterValue(reg *registry.Registry, name string, provider ValueProvider, specs ...registry.Spec) error {
	return reg.Register(componentValue+name, specs, provider)
}

func lookupValue(reg *registry.Registry, name string, vc ValueContext, objs ...any) (any, bool) {
	provider, ok := registry.Query[ValueProvider](reg, componentValue+name, objs...)
	if !ok {
		return nil, false
	}
	return provider.Get(vc)
}
