package form

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/datamanager"
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

// Registry component names used by the pipeline.
const (
	ComponentConverter        = "converter"
	ComponentValidator        = "validator"
	ComponentManagerValidator = "manager-validator"
	ComponentTerms            = "terms"
	ComponentDataManager      = "datamanager"
	componentWidget           = "widget:"
	componentValue            = "value:"
	componentObjectFactory    = "object-factory:"
	componentTemplate         = "template:"
)

// Renderer turns widgets, error views and forms into markup.
type Renderer interface {
	RenderWidget(w Widget) (string, error)
	RenderError(e *ErrorView) (string, error)
	RenderForm(f *Form) (string, error)
}

// Env bundles the collaborators a form needs: the component registry, the
// widget kind resolver, the logger and the renderer. Build one per process
// and hand it to every form.
type Env struct {
	Registry *registry.Registry
	Widgets  *widgets.Registry
	Logger   *zap.Logger
	Renderer Renderer
}

// EnvOption customises an Env.
type EnvOption func(*Env)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) EnvOption {
	return func(e *Env) {
		if logger != nil {
			e.Logger = logger
		}
	}
}

// WithRegistry uses reg instead of a registry holding the defaults. Call
// RegisterDefaults on it first unless every component is supplied by hand.
func WithRegistry(reg *registry.Registry) EnvOption {
	return func(e *Env) {
		e.Registry = reg
	}
}

// WithWidgetRegistry overrides the widget kind resolver.
func WithWidgetRegistry(reg *widgets.Registry) EnvOption {
	return func(e *Env) {
		e.Widgets = reg
	}
}

// WithRenderer sets the renderer used by Render methods.
func WithRenderer(renderer Renderer) EnvOption {
	return func(e *Env) {
		e.Renderer = renderer
	}
}

// NewEnv returns an Env with the default converters, validators, terms,
// data managers and widget factories registered.
func NewEnv(opts ...EnvOption) *Env {
	env := &Env{}
	for _, opt := range opts {
		if opt != nil {
			opt(env)
		}
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.Widgets == nil {
		env.Widgets = widgets.NewRegistry()
	}
	if env.Registry == nil {
		env.Registry = registry.New()
		RegisterDefaults(env.Registry)
	}
	return env
}

// RegisterDefaults registers the built-in components on reg.
func RegisterDefaults(reg *registry.Registry) {
	registerWidgetFactories(reg)
	registerConverters(reg)
	reg.MustRegister(ComponentValidator, nil, ValidatorFactory(newSimpleFieldValidator))
	reg.MustRegister(ComponentManagerValidator, nil, ManagerValidatorFactory(newInvariantsValidator))
	reg.MustRegister(ComponentTerms, nil, TermsFactory(defaultTerms))
	reg.MustRegister(ComponentDataManager, nil, datamanager.Factory(datamanager.For))
}

// WidgetFactory builds an unconfigured widget for field.
type WidgetFactory func(field *schema.Field, req request.Request) Widget

// RegisterWidget makes factory build widgets of kind. Specs discriminate on
// the schema field.
func RegisterWidget(reg *registry.Registry, kind string, factory WidgetFactory, specs ...registry.Spec) error {
	return reg.Register(componentWidget+kind, specs, factory)
}

func registerWidgetFactories(reg *registry.Registry) {
	for _, kind := range []string{widgets.WidgetText, widgets.WidgetTextArea, widgets.WidgetPassword, widgets.WidgetTextLines, widgets.WidgetFile} {
		kind := kind
		reg.MustRegister(componentWidget+kind, nil, WidgetFactory(func(*schema.Field, request.Request) Widget {
			return NewTextWidget(kind)
		}))
	}
	for _, kind := range []string{widgets.WidgetSelect, widgets.WidgetRadio, widgets.WidgetCheckbox, widgets.WidgetSingleCheckbox} {
		kind := kind
		reg.MustRegister(componentWidget+kind, nil, WidgetFactory(func(*schema.Field, request.Request) Widget {
			return NewSequenceWidget(kind)
		}))
	}
	reg.MustRegister(componentWidget+widgets.WidgetMulti, nil, WidgetFactory(func(*schema.Field, request.Request) Widget {
		return NewMultiWidget()
	}))
	reg.MustRegister(componentWidget+widgets.WidgetObject, nil, WidgetFactory(func(*schema.Field, request.Request) Widget {
		return NewObjectWidget()
	}))
}

// NewWidget resolves the widget kind of field and builds a field widget
// for it, initialised from the field: name, id, label and required flag.
func (e *Env) NewWidget(field *schema.Field, req request.Request) (Widget, error) {
	kind := e.Widgets.Resolve(field)
	factory, ok := registry.Query[WidgetFactory](e.Registry, componentWidget+kind, field)
	if !ok {
		return nil, fmt.Errorf("%w: kind %q for field %q", ErrNoWidgetFactory, kind, field.Name)
	}
	return e.fieldWidget(factory(field, req), field, req), nil
}

func (e *Env) fieldWidget(w Widget, field *schema.Field, req request.Request) Widget {
	b := w.Common()
	b.env = e
	b.Field = field
	b.Request = req
	if field != nil {
		b.Name = field.Name
		b.ID = idFromName(field.Name)
		b.Label = field.Label()
		b.Required = field.Required
	}
	return w
}

// DataManager returns the data manager for field on content.
func (e *Env) DataManager(content any, field *schema.Field) (datamanager.DataManager, error) {
	factory, err := registry.Resolve[datamanager.Factory](e.Registry, ComponentDataManager, content, field)
	if err != nil {
		return nil, err
	}
	return factory(content, field)
}

// Converter returns the data converter for the field and widget pair.
func (e *Env) Converter(field *schema.Field, w Widget) (Converter, error) {
	factory, err := registry.Resolve[ConverterFactory](e.Registry, ComponentConverter, field, w)
	if err != nil {
		return nil, fmt.Errorf("form: converter: %w", err)
	}
	return factory(field, w), nil
}

func (e *Env) logger() *zap.Logger {
	if e == nil || e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
