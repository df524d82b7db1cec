package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-formkit/pkg/datamanager"
	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/schema"
)

type noObject struct{}

func (noObject) String() string { return "<no object>" }

// NoObject is the Original of object values that were not read from an
// existing object.
var NoObject any = noObject{}

// ObjectValue is the widget value of an object widget: the widget values
// of the sub fields keyed by field name, plus the object they were read
// from.
type ObjectValue struct {
	Values   map[string]any
	Original any
}

// NewObjectValue returns an empty value remembering original.
func NewObjectValue(original any) *ObjectValue {
	if original == nil {
		original = NoObject
	}
	return &ObjectValue{Values: make(map[string]any), Original: original}
}

// HasOriginal reports whether the value was read from an object.
func (v *ObjectValue) HasOriginal() bool {
	return v != nil && v.Original != nil && v.Original != NoObject
}

// ObjectFactory creates the object edited by an object widget when neither
// the value nor the context supplies one.
type ObjectFactory func(vc ValueContext) (any, error)

// RegisterObjectFactory registers factory for objects of the named schema.
// Specs discriminate on (context, request, form, widget).
func RegisterObjectFactory(reg *registry.Registry, schemaName string, factory ObjectFactory, specs ...registry.Spec) error {
	return reg.Register(componentObjectFactory+schemaName, specs, factory)
}

// ObjectWidget edits an object field through a nested widget manager over
// the fields of the object schema. It is the form of its sub widgets: they
// are named after it.
type ObjectWidget struct {
	Base

	manager        *Manager
	updating       bool
	widgetsUpdated bool
}

// NewObjectWidget returns an empty object widget.
func NewObjectWidget() *ObjectWidget {
	w := &ObjectWidget{}
	w.init("object", w)
	return w
}

func (w *ObjectWidget) Tags() []string { return []string{w.Kind, "widget"} }

// Prefix is the widget name; sub widgets are named below it.
func (w *ObjectWidget) Prefix() string { return w.Name }

// Fields lists the fields of the object schema.
func (w *ObjectWidget) Fields() *Fields {
	if w.Field == nil || w.Field.Schema == nil {
		return &Fields{byName: map[string]*Field{}}
	}
	fields, err := NewFields(w.Field.Schema)
	if err != nil {
		return &Fields{byName: map[string]*Field{}}
	}
	return fields
}

// Manager returns the nested widget manager, nil before the first update.
func (w *ObjectWidget) Manager() *Manager { return w.manager }

// Widgets lists the sub widgets in field order.
func (w *ObjectWidget) Widgets() []Widget {
	if w.manager == nil {
		return nil
	}
	return w.manager.Widgets()
}

// EmptyMarkerName is posted with every rendered object widget so an
// object with no editable input still counts as submitted.
func (w *ObjectWidget) EmptyMarkerName() string { return w.Name + "-empty-marker" }

func (w *ObjectWidget) SetMode(mode Mode) {
	w.Mode = mode
	if w.manager != nil {
		w.manager.Mode = mode
		for _, child := range w.manager.Widgets() {
			child.SetMode(mode)
		}
	}
}

func (w *ObjectWidget) setupWidgets() error {
	if w.env == nil {
		return fmt.Errorf("form: widget %q is not bound to an environment", w.Name)
	}
	m := NewManager(w.env, w, w.Request, nil)
	m.Mode = w.Mode
	m.IgnoreContext = true
	m.IgnoreRequest = w.IgnoreRequest
	if err := m.Update(); err != nil {
		return err
	}
	w.manager = m
	return nil
}

// Update builds the sub widgets and resolves the value. Sub widget errors
// found while updating are shown on the sub widgets, not raised.
func (w *ObjectWidget) Update() error {
	w.updating = true
	defer func() { w.updating = false }()
	w.widgetsUpdated = false
	if err := w.setupWidgets(); err != nil {
		return err
	}
	if err := updateWidget(w); err != nil {
		return err
	}
	if !w.widgetsUpdated {
		return w.updateWidgets()
	}
	return nil
}

func (w *ObjectWidget) SetValue(value any) error {
	w.value = nil
	if typed, ok := value.(*ObjectValue); ok && typed != nil {
		w.value = typed
	}
	return w.updateWidgets()
}

func (w *ObjectWidget) current() *ObjectValue {
	value, _ := w.value.(*ObjectValue)
	return value
}

// updateWidgets pushes the value into the sub widgets. Display widgets
// show the stored object; the others get the posted widget values.
func (w *ObjectWidget) updateWidgets() error {
	if w.manager == nil {
		if err := w.setupWidgets(); err != nil {
			return err
		}
	}
	value := w.current()
	if value == nil {
		for _, child := range w.manager.Widgets() {
			cb := child.Common()
			if cb.Field != nil && cb.Field.ReadOnly {
				child.SetMode(ModeInput)
				if err := child.Update(); err != nil {
					return err
				}
			}
		}
		w.widgetsUpdated = true
		return nil
	}
	var display *ObjectValue
	for _, child := range w.manager.Widgets() {
		name := child.Common().Field.Name
		if child.Common().Mode == ModeDisplay {
			if display == nil {
				obj, err := w.GetObject(value)
				if err != nil {
					return err
				}
				converted, err := (&ObjectConverter{field: w.Field, widget: w}).ToWidgetValue(obj)
				if err != nil {
					return err
				}
				display, _ = converted.(*ObjectValue)
				if display == nil {
					display = NewObjectValue(nil)
				}
			}
			if err := child.SetValue(display.Values[name]); err != nil {
				return err
			}
			continue
		}
		if err := applyValue(&w.Base, child, value.Values[name]); err != nil {
			return err
		}
	}
	w.widgetsUpdated = true
	return nil
}

// Value collects the current values of the editable sub widgets.
func (w *ObjectWidget) Value() any {
	if w.manager == nil {
		return w.value
	}
	out := NewObjectValue(nil)
	if current := w.current(); current != nil {
		out.Original = current.Original
	}
	for _, child := range w.manager.Widgets() {
		if child.Common().Mode == ModeDisplay {
			continue
		}
		out.Values[child.Common().Field.Name] = child.Value()
	}
	return out
}

// Extract reads the raw sub widget values. Sub widget failures are
// returned as MultipleErrors, except while the widget is updating.
func (w *ObjectWidget) Extract() (any, bool, error) {
	if w.Request == nil || !w.Request.Has(w.EmptyMarkerName()) {
		return nil, false, nil
	}
	if err := w.updateWidgets(); err != nil {
		return nil, false, err
	}
	raw, errs, err := w.manager.ExtractRaw()
	if err != nil {
		return nil, false, err
	}
	value := NewObjectValue(nil)
	if current := w.current(); current != nil {
		value.Original = current.Original
	}
	for name, item := range raw {
		if child, ok := w.manager.Get(name); ok && child.Common().Field != nil {
			name = child.Common().Field.Name
		}
		value.Values[name] = item
	}
	if len(errs) > 0 && !w.updating {
		return nil, false, &MultipleErrors{Views: errs}
	}
	// Failed sub widgets keep their posted input.
	for _, view := range errs {
		if view.Widget == nil || view.Widget.Common().Field == nil {
			continue
		}
		value.Values[view.Widget.Common().Field.Name] = view.Widget.Value()
	}
	return value, true, nil
}

// GetObject returns the object value edits: the original the value was
// read from, the object stored on the context or a new one from the
// registered factory.
func (w *ObjectWidget) GetObject(value *ObjectValue) (any, error) {
	if value.HasOriginal() {
		return value.Original, nil
	}
	if !w.IgnoreContext && w.Context != nil && w.env != nil && w.Field != nil {
		dm, err := w.env.DataManager(w.Context, w.Field)
		if err == nil {
			obj, err := dm.Get()
			switch {
			case err == nil && obj != nil && !w.Field.IsMissing(obj):
				return obj, nil
			case errors.Is(err, datamanager.ErrForbidden):
				return nil, err
			}
		}
	}
	return w.createObject()
}

func (w *ObjectWidget) createObject() (any, error) {
	if w.env == nil || w.Field == nil || w.Field.Schema == nil {
		return nil, fmt.Errorf("%w: widget %q has no object schema", ErrNoObjectFactory, w.Name)
	}
	name := w.Field.Schema.Name
	factory, ok := registry.Query[ObjectFactory](w.env.Registry, componentObjectFactory+name, w.Context, w.Request, w.Form, w)
	if !ok {
		return nil, fmt.Errorf("%w: schema %q", ErrNoObjectFactory, name)
	}
	obj, err := factory(w.valueContext())
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrNoObjectFactory, name)
	}
	return obj, nil
}

// ObjectConverter maps objects onto ObjectValues field by field with the
// converters of the sub widgets.
type ObjectConverter struct {
	field  *schema.Field
	widget Widget
}

func (c *ObjectConverter) objectWidget() (*ObjectWidget, error) {
	w, ok := c.widget.(*ObjectWidget)
	if !ok {
		return nil, fmt.Errorf("form: object field %q needs an object widget, got %T", c.field.Name, c.widget)
	}
	return w, nil
}

func (c *ObjectConverter) converterFor(w *ObjectWidget, field *schema.Field) (Converter, error) {
	if w.manager != nil {
		for _, child := range w.manager.Widgets() {
			if child.Common().Field == field {
				return w.env.Converter(field, child)
			}
		}
	}
	child, err := w.env.NewWidget(field, w.Request)
	if err != nil {
		return nil, err
	}
	cb := child.Common()
	cb.Form = w
	cb.IgnoreContext = true
	return w.env.Converter(field, child)
}

func (c *ObjectConverter) fields() []*schema.Field {
	if c.field.Schema == nil {
		return nil
	}
	return c.field.Schema.Fields()
}

func (c *ObjectConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return nil, nil
	}
	w, err := c.objectWidget()
	if err != nil {
		return nil, err
	}
	out := NewObjectValue(value)
	for _, field := range c.fields() {
		stored, ok, err := c.query(w, value, field)
		if err != nil {
			return nil, err
		}
		if !ok {
			stored = field.Default
		}
		converter, err := c.converterFor(w, field)
		if err != nil {
			return nil, err
		}
		converted, err := converter.ToWidgetValue(stored)
		if err != nil {
			return nil, err
		}
		out.Values[field.Name] = converted
	}
	return out, nil
}

func (c *ObjectConverter) query(w *ObjectWidget, obj any, field *schema.Field) (any, bool, error) {
	dm, err := w.env.DataManager(obj, field)
	if err != nil {
		if errors.Is(err, datamanager.ErrUnsupported) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return dm.Query()
}

// ToFieldValue converts the posted sub values and stages them for the
// edited object. The object is not touched until the changes are applied.
func (c *ObjectConverter) ToFieldValue(value any) (any, error) {
	posted, _ := value.(*ObjectValue)
	if posted == nil {
		return c.field.MissingValue, nil
	}
	w, err := c.objectWidget()
	if err != nil {
		return nil, err
	}
	obj, err := w.GetObject(posted)
	if err != nil {
		return nil, err
	}
	changes := &ObjectChanges{Object: obj, Values: make(map[string]any), env: w.env}
	for _, field := range c.fields() {
		if field.ReadOnly {
			continue
		}
		raw, ok := posted.Values[field.Name]
		if !ok {
			continue
		}
		converter, err := c.converterFor(w, field)
		if err != nil {
			return nil, err
		}
		fieldValue, err := converter.ToFieldValue(raw)
		if err != nil {
			return nil, err
		}
		changes.Values[field.Name] = fieldValue
		changes.fields = append(changes.fields, field)
	}
	return changes, nil
}

// ObjectChanges is the field value of an object widget: the converted sub
// field values staged for the edited object.
type ObjectChanges struct {
	Object any
	Values map[string]any

	env    *Env
	fields []*schema.Field
}

// Target implements schema.Pending.
func (c *ObjectChanges) Target() any { return c.Object }

// Apply writes the staged values onto Object. Unchanged values are not
// written; nested objects are applied first and always set.
func (c *ObjectChanges) Apply() error {
	if c == nil {
		return nil
	}
	for _, field := range c.fields {
		staged, ok := c.Values[field.Name]
		if !ok {
			continue
		}
		value, err := commit(staged)
		if err != nil {
			return err
		}
		dm, err := c.env.DataManager(c.Object, field)
		if err != nil {
			return fmt.Errorf("form: apply %q: %w", field.Name, err)
		}
		if field.Kind != schema.KindObject {
			old, _, err := dm.Query()
			if err != nil {
				return err
			}
			if reflect.DeepEqual(old, value) {
				continue
			}
		}
		if err := dm.Set(value); err != nil {
			return fmt.Errorf("form: apply %q: %w", field.Name, err)
		}
	}
	return nil
}

func (c *ObjectChanges) MarshalJSON() ([]byte, error) { return json.Marshal(c.Values) }

func (c *ObjectChanges) MarshalYAML() (any, error) { return c.Values, nil }

// commit applies the object changes staged in value, including those held
// by collection items, and returns the value to store.
func commit(value any) (any, error) {
	switch typed := value.(type) {
	case *ObjectChanges:
		if err := typed.Apply(); err != nil {
			return nil, err
		}
		return typed.Object, nil
	case []any:
		return commitItems(typed)
	case schema.Tuple:
		items, err := commitItems(typed)
		if err != nil {
			return nil, err
		}
		return schema.Tuple(items), nil
	case schema.Set:
		items, err := commitItems(typed)
		if err != nil {
			return nil, err
		}
		return schema.Set(items), nil
	case schema.Dict:
		out := make(schema.Dict, len(typed))
		for i, pair := range typed {
			v, err := commit(pair.Value)
			if err != nil {
				return nil, err
			}
			out[i] = schema.Pair{Key: pair.Key, Value: v}
		}
		return out, nil
	}
	return value, nil
}

func commitItems(items []any) ([]any, error) {
	if items == nil {
		return nil, nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := commit(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
