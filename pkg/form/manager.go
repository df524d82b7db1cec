package form

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// DefaultWidgetsPrefix is the name segment between a form prefix and the
// field names of its widgets.
const DefaultWidgetsPrefix = "widgets."

// Manager builds, updates and extracts the widgets of the fields of one
// view. The zero value is not usable; call NewManager.
type Manager struct {
	Form    View
	Request request.Request
	Content any
	// Prefix is appended to the form prefix to build widget names.
	Prefix string
	Mode   Mode

	IgnoreContext           bool
	IgnoreRequest           bool
	IgnoreReadonly          bool
	IgnoreRequiredOnExtract bool
	SetErrors               bool

	// HasRequiredFields is computed by Update.
	HasRequiredFields bool
	// Errors holds the error views of the last extraction.
	Errors Errors

	env     *Env
	order   []string
	widgets map[string]Widget
}

// NewManager returns a manager for the fields of form editing content.
func NewManager(env *Env, form View, req request.Request, content any) *Manager {
	if req == nil {
		req = request.Empty
	}
	return &Manager{
		Form:      form,
		Request:   req,
		Content:   content,
		Prefix:    DefaultWidgetsPrefix,
		Mode:      ModeInput,
		SetErrors: true,
		env:       env,
		widgets:   make(map[string]Widget),
	}
}

// Get returns the widget of the short field name.
func (m *Manager) Get(name string) (Widget, bool) {
	w, ok := m.widgets[name]
	return w, ok
}

// Names lists the short names in field order.
func (m *Manager) Names() []string { return append([]string(nil), m.order...) }

// Widgets lists the widgets in field order.
func (m *Manager) Widgets() []Widget {
	out := make([]Widget, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.widgets[name])
	}
	return out
}

// Len returns the number of widgets.
func (m *Manager) Len() int { return len(m.order) }

// fieldMode picks the widget mode of field: the field override, then
// display for read only fields, then display for content that refuses
// writes.
func (m *Manager) fieldMode(field *Field, ignoreContext bool) Mode {
	switch {
	case field.Mode != "":
		return field.Mode
	case field.Def.ReadOnly && !m.IgnoreReadonly:
		return ModeDisplay
	case !ignoreContext:
		dm, err := m.env.DataManager(m.content(field), field.Def)
		if err == nil && !dm.CanWrite() {
			return ModeDisplay
		}
	}
	return m.Mode
}

func (m *Manager) content(field *Field) any {
	if field.Interface == nil {
		return m.Content
	}
	return field.Interface.Adapt(m.Content)
}

// Update creates or reuses a widget per field and updates it. Widgets are
// reused by short name across calls.
func (m *Manager) Update() error {
	logger := m.env.logger()
	prefix := expandPrefix(m.Form.Prefix()) + expandPrefix(m.Prefix)
	previous := m.widgets
	m.order = nil
	m.widgets = make(map[string]Widget)
	m.HasRequiredFields = false

	for _, field := range m.Form.Fields().Values() {
		ignoreContext := m.IgnoreContext
		if field.IgnoreContext != nil {
			ignoreContext = *field.IgnoreContext
		}
		mode := m.fieldMode(field, ignoreContext)

		w, reused := previous[field.Name]
		if !reused {
			var err error
			if factory := field.WidgetFactory[mode]; factory != nil {
				w = m.env.fieldWidget(factory(field.Def, m.Request), field.Def, m.Request)
			} else if w, err = m.env.NewWidget(field.Def, m.Request); err != nil {
				return fmt.Errorf("form: field %q: %w", field.Name, err)
			}
		}
		b := w.Common()
		b.Name = prefix + field.Name
		b.ID = idFromName(b.Name)
		b.Context = m.Content
		b.Form = m.Form
		b.Request = m.Request
		b.IgnoreContext = ignoreContext
		b.IgnoreRequest = m.IgnoreRequest
		if field.ShowDefault != nil {
			b.ShowDefault = *field.ShowDefault
		}
		w.SetMode(mode)
		if err := w.Update(); err != nil {
			return fmt.Errorf("form: update %q: %w", field.Name, err)
		}
		logger.Debug("widget updated",
			zap.String("widget", b.Name),
			zap.String("mode", string(b.Mode)),
			zap.Bool("reused", reused))

		m.order = append(m.order, field.Name)
		m.widgets[field.Name] = w
		if b.Required {
			m.HasRequiredFields = true
		}
	}
	return nil
}

// Extract converts and validates the value of every widget not in
// display mode, then checks the schema invariants. Failures become error
// views; data holds the fields that passed. The error is reserved for
// configuration failures.
func (m *Manager) Extract() (map[string]any, Errors, error) {
	data, _, errs, err := m.extract()
	if err != nil {
		return nil, nil, err
	}
	errs = append(errs, m.Validate(data)...)
	m.Errors = errs
	return data, errs, nil
}

// ExtractRaw is Extract returning the raw widget values of the fields
// that passed. The invariants still see the converted values.
func (m *Manager) ExtractRaw() (map[string]any, Errors, error) {
	data, raw, errs, err := m.extract()
	if err != nil {
		return nil, nil, err
	}
	errs = append(errs, m.Validate(data)...)
	m.Errors = errs
	return raw, errs, nil
}

func (m *Manager) extract() (map[string]any, map[string]any, Errors, error) {
	logger := m.env.logger()
	data := make(map[string]any)
	raw := make(map[string]any)
	var errs Errors
	for _, name := range m.order {
		w := m.widgets[name]
		b := w.Common()
		if b.Mode == ModeDisplay {
			continue
		}
		b.SetErrors = m.SetErrors
		b.IgnoreRequiredOnValidation = m.IgnoreRequiredOnExtract

		value := b.Field.MissingValue
		rawValue, present, err := w.Extract()
		if err == nil && present {
			var converter Converter
			if converter, err = b.converter(); err != nil {
				return nil, nil, nil, err
			}
			value, err = converter.ToFieldValue(rawValue)
		}
		if err == nil {
			validator, verr := b.validator()
			if verr != nil {
				return nil, nil, nil, verr
			}
			err = validator.Validate(value)
		}
		if err != nil {
			if !Recoverable(err) {
				return nil, nil, nil, fmt.Errorf("form: extract %q: %w", name, err)
			}
			view := NewErrorView(m.env, err, w, b.Field, m.Form, m.Content, m.Request)
			if m.SetErrors {
				b.Err = view
			}
			errs = append(errs, view)
			logger.Debug("widget extraction failed",
				zap.String("widget", b.Name),
				zap.String("message", view.Message))
			continue
		}
		if m.SetErrors {
			b.Err = nil
		}
		data[name] = value
		raw[name] = rawValue
	}
	return data, raw, errs, nil
}

// Validate runs the manager validator of every schema the fields come
// from over the data extracted for it.
func (m *Manager) Validate(data map[string]any) Errors {
	var content any
	if !m.IgnoreContext {
		content = m.Content
	}
	var (
		schemas []*schema.Schema
		grouped = make(map[*schema.Schema]map[string]any)
	)
	for _, field := range m.Form.Fields().Values() {
		iface := field.Interface
		if iface == nil {
			continue
		}
		if _, ok := grouped[iface]; !ok {
			schemas = append(schemas, iface)
			grouped[iface] = make(map[string]any)
		}
		if value, ok := data[field.Name]; ok {
			grouped[iface][field.Def.Name] = value
		}
	}

	var errs Errors
	for _, iface := range schemas {
		factory, err := registry.Resolve[ManagerValidatorFactory](m.env.Registry, ComponentManagerValidator, content, m.Request, m.Form, iface, m)
		if err != nil {
			continue
		}
		for _, invErr := range factory(content, m.Request, m.Form, iface, m).Validate(grouped[iface]) {
			errs = append(errs, NewErrorView(m.env, invErr, nil, nil, m.Form, content, m.Request))
		}
	}
	return errs
}
