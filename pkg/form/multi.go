package form

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// KeyValue is one entry of the widget value of a dict multi widget.
type KeyValue struct {
	Key   any
	Value any
}

// MultiWidget edits list and dict fields as a variable number of child
// widgets. Dict fields get a key widget per entry. The value is a []any of
// child widget values, or of KeyValue entries for dicts.
type MultiWidget struct {
	Base
	AllowAdding   bool
	AllowRemoving bool

	widgets        []Widget
	keyWidgets     []Widget
	widgetsUpdated bool
}

// NewMultiWidget returns an empty multi widget.
func NewMultiWidget() *MultiWidget {
	w := &MultiWidget{AllowAdding: true}
	w.init("multi", w)
	return w
}

func (w *MultiWidget) Tags() []string { return []string{w.Kind, "widget"} }

// IsDict reports whether the widget edits a dict field.
func (w *MultiWidget) IsDict() bool {
	return w.Field != nil && w.Field.Kind == schema.KindDict
}

// Widgets returns the value widgets in order.
func (w *MultiWidget) Widgets() []Widget { return append([]Widget(nil), w.widgets...) }

// KeyWidgets returns the key widgets aligned with Widgets. Entries are nil
// unless the widget edits a dict.
func (w *MultiWidget) KeyWidgets() []Widget { return append([]Widget(nil), w.keyWidgets...) }

// CounterName is the request name carrying the number of entries.
func (w *MultiWidget) CounterName() string { return w.Name + ".count" }

// AddButtonName and RemoveButtonName are the request names of the add and
// remove buttons.
func (w *MultiWidget) AddButtonName() string { return w.Name + ".buttons.add" }

func (w *MultiWidget) RemoveButtonName() string { return w.Name + ".buttons.remove" }

// RemoveName is the request name of the removal checkbox of child.
func RemoveName(child Widget) string { return child.Common().Name + ".remove" }

func (w *MultiWidget) SetValue(value any) error {
	items, _ := value.([]any)
	if value != nil && items == nil {
		if elements, ok := schema.Elements(value); ok {
			items = elements
		}
	}
	w.value = items
	return w.updateWidgets()
}

func (w *MultiWidget) SetMode(mode Mode) {
	w.Mode = mode
	for _, child := range w.widgets {
		child.SetMode(mode)
	}
	for _, child := range w.keyWidgets {
		if child != nil {
			child.SetMode(mode)
		}
	}
}

func (w *MultiWidget) items() []any {
	items, _ := w.value.([]any)
	return items
}

func (w *MultiWidget) valueField() (*schema.Field, error) {
	if w.Field == nil || w.Field.ValueType == nil {
		return nil, fmt.Errorf("form: multi widget %q needs a field with a value type", w.Name)
	}
	return w.Field.ValueType, nil
}

func (w *MultiWidget) keyField() (*schema.Field, error) {
	if w.Field == nil || w.Field.KeyType == nil {
		return nil, fmt.Errorf("form: dict widget %q needs a field with a key type", w.Name)
	}
	return w.Field.KeyType, nil
}

// newChild builds and updates the child widget for field under name.
// Children never read the context: the parent owns the stored value.
func (w *MultiWidget) newChild(field *schema.Field, name string) (Widget, error) {
	if w.env == nil {
		return nil, fmt.Errorf("form: widget %q is not bound to an environment", w.Name)
	}
	child, err := w.env.NewWidget(field, w.Request)
	if err != nil {
		return nil, err
	}
	b := child.Common()
	b.Name = name
	b.ID = idFromName(name)
	b.Form = w.Form
	b.Context = w.Context
	b.IgnoreContext = true
	b.IgnoreRequest = w.IgnoreRequest
	child.SetMode(w.Mode)
	if err := child.Update(); err != nil {
		return nil, err
	}
	return child, nil
}

func (w *MultiWidget) getWidget(idx int) (Widget, error) {
	field, err := w.valueField()
	if err != nil {
		return nil, err
	}
	return w.newChild(field, fmt.Sprintf("%s.%d", w.Name, idx))
}

func (w *MultiWidget) getKeyWidget(idx int) (Widget, error) {
	field, err := w.keyField()
	if err != nil {
		return nil, err
	}
	return w.newChild(field, fmt.Sprintf("%s.key.%d", w.Name, idx))
}

// updateWidgets rebuilds the children from the value. Input widgets that
// may still grow keep at least MinLength children.
func (w *MultiWidget) updateWidgets() error {
	oldLen := len(w.widgets)
	if w.Field != nil && w.Mode == ModeInput && w.AllowAdding && oldLen < w.Field.MinLength {
		oldLen = w.Field.MinLength
	}
	w.widgets = nil
	w.keyWidgets = nil
	seen := make(map[any]struct{})
	for idx, item := range w.items() {
		child, err := w.getWidget(idx)
		if err != nil {
			return err
		}
		if !w.IsDict() {
			if err := applyValue(&w.Base, child, item); err != nil {
				return err
			}
			w.widgets = append(w.widgets, child)
			w.keyWidgets = append(w.keyWidgets, nil)
			continue
		}
		entry, _ := item.(KeyValue)
		if err := applyValue(&w.Base, child, entry.Value); err != nil {
			return err
		}
		keyChild, err := w.getKeyWidget(idx)
		if err != nil {
			return err
		}
		if err := applyValue(&w.Base, keyChild, entry.Key); err != nil {
			return err
		}
		hash := schema.HashKey(keyChild.Value())
		if _, dup := seen[hash]; dup && keyChild.Common().Err == nil {
			kb := keyChild.Common()
			kb.Err = NewErrorView(w.env, schema.NewInvalid("Duplicate key"), keyChild, kb.Field, w.Form, w.Context, w.Request)
		}
		seen[hash] = struct{}{}
		w.widgets = append(w.widgets, child)
		w.keyWidgets = append(w.keyWidgets, keyChild)
	}
	for idx := len(w.widgets); idx < oldLen; idx++ {
		if err := w.AppendAddingWidget(); err != nil {
			return err
		}
	}
	w.widgetsUpdated = true
	return nil
}

// AppendAddingWidget adds an empty child, and its key widget for dicts.
func (w *MultiWidget) AppendAddingWidget() error {
	idx := len(w.widgets)
	child, err := w.getWidget(idx)
	if err != nil {
		return err
	}
	if err := child.SetValue(nil); err != nil {
		return err
	}
	var keyChild Widget
	if w.IsDict() {
		if keyChild, err = w.getKeyWidget(idx); err != nil {
			return err
		}
		if err := keyChild.SetValue(nil); err != nil {
			return err
		}
	}
	w.widgets = append(w.widgets, child)
	w.keyWidgets = append(w.keyWidgets, keyChild)
	return nil
}

// RemoveWidgets drops the named children and rebuilds from the values of
// the survivors. Survivors without a value leave the value; the rebuild
// pads the children back to the number of survivors with empty ones, so
// they move to the end.
func (w *MultiWidget) RemoveWidgets(names []string) error {
	var (
		widgets []Widget
		keys    []Widget
	)
	for idx, child := range w.widgets {
		if lo.Contains(names, child.Common().Name) {
			continue
		}
		widgets = append(widgets, child)
		var key Widget
		if idx < len(w.keyWidgets) {
			key = w.keyWidgets[idx]
		}
		keys = append(keys, key)
	}
	values := make([]any, 0, len(widgets))
	for idx, child := range widgets {
		if child.Value() == nil {
			continue
		}
		if w.IsDict() {
			var key any
			if keys[idx] != nil {
				key = keys[idx].Value()
			}
			values = append(values, KeyValue{Key: key, Value: child.Value()})
			continue
		}
		values = append(values, child.Value())
	}
	w.widgets = widgets
	w.keyWidgets = keys
	w.value = values
	return w.updateWidgets()
}

func (w *MultiWidget) updateAllowAddRemove() {
	n := len(w.widgets)
	maxLength, minLength := 0, 0
	if w.Field != nil {
		maxLength, minLength = w.Field.MaxLength, w.Field.MinLength
	}
	w.AllowAdding = maxLength == 0 || n < maxLength
	w.AllowRemoving = n > 0 && n > minLength
}

// Update resolves the value, builds the children and applies the add and
// remove buttons of the request.
func (w *MultiWidget) Update() error {
	// A reused widget rebuilds its children even without a value, so they
	// follow a renamed parent.
	w.widgetsUpdated = false
	if err := updateWidget(w); err != nil {
		return err
	}
	if !w.widgetsUpdated {
		if err := w.updateWidgets(); err != nil {
			return err
		}
	}
	w.updateAllowAddRemove()
	if w.Request == nil || w.IgnoreRequest {
		return nil
	}
	if w.Request.Has(w.AddButtonName()) && w.AllowAdding {
		if err := w.AppendAddingWidget(); err != nil {
			return err
		}
	}
	if w.Request.Has(w.RemoveButtonName()) && w.AllowRemoving {
		var names []string
		for _, child := range w.widgets {
			if w.Request.Has(RemoveName(child)) {
				names = append(names, child.Common().Name)
			}
		}
		if len(names) > 0 {
			if err := w.RemoveWidgets(names); err != nil {
				return err
			}
		}
	}
	w.updateAllowAddRemove()
	return nil
}

// Extract reads the counter and the value of every posted child. A request
// without the counter carries no value for the widget.
func (w *MultiWidget) Extract() (any, bool, error) {
	if w.Request == nil {
		return nil, false, nil
	}
	raw, ok := w.Request.Get(w.CounterName())
	if !ok {
		return nil, false, nil
	}
	text, _ := firstText(raw)
	count, err := strconv.Atoi(text)
	if err != nil || count < 0 {
		return nil, false, nil
	}
	values := make([]any, 0, count)
	for idx := 0; idx < count; idx++ {
		child, err := w.getWidget(idx)
		if err != nil {
			return nil, false, err
		}
		if !w.IsDict() {
			values = append(values, child.Value())
			continue
		}
		keyChild, err := w.getKeyWidget(idx)
		if err != nil {
			return nil, false, err
		}
		values = append(values, KeyValue{Key: keyChild.Value(), Value: child.Value()})
	}
	return values, true, nil
}

// MultiConverter maps collections onto the values of child widgets using
// the converters of the value type.
type MultiConverter struct {
	field  *schema.Field
	widget Widget
}

func (c *MultiConverter) childConverter(field *schema.Field) (Converter, error) {
	if field == nil {
		return nil, fmt.Errorf("form: field %q has no element type", c.field.Name)
	}
	b := c.widget.Common()
	if b.env == nil {
		return nil, fmt.Errorf("form: widget %q is not bound to an environment", b.Name)
	}
	child, err := b.env.NewWidget(field, b.Request)
	if err != nil {
		return nil, err
	}
	cb := child.Common()
	cb.Context = b.Context
	cb.Form = b.Form
	cb.IgnoreContext = true
	return b.env.Converter(field, child)
}

func (c *MultiConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return []any{}, nil
	}
	items, ok := schema.Elements(value)
	if !ok {
		return []any{}, nil
	}
	converter, err := c.childConverter(c.field.ValueType)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		converted, err := converter.ToWidgetValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func (c *MultiConverter) ToFieldValue(value any) (any, error) {
	items, _ := value.([]any)
	if len(items) == 0 {
		return c.field.MissingValue, nil
	}
	converter, err := c.childConverter(c.field.ValueType)
	if err != nil {
		return nil, err
	}
	values := make([]any, 0, len(items))
	for _, item := range items {
		converted, err := converter.ToFieldValue(item)
		if err != nil {
			return nil, err
		}
		values = append(values, converted)
	}
	collection := c.field.NewCollection(values)
	if err := c.field.Validate(collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// DictMultiConverter maps dict fields onto KeyValue entries.
type DictMultiConverter struct {
	MultiConverter
}

func (c *DictMultiConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return []any{}, nil
	}
	pairs, ok := schema.Pairs(value)
	if !ok {
		return []any{}, nil
	}
	keys, err := c.childConverter(c.field.KeyType)
	if err != nil {
		return nil, err
	}
	values, err := c.childConverter(c.field.ValueType)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(pairs))
	for _, pair := range pairs {
		key, err := keys.ToWidgetValue(pair.Key)
		if err != nil {
			return nil, err
		}
		converted, err := values.ToWidgetValue(pair.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, KeyValue{Key: key, Value: converted})
	}
	return out, nil
}

func (c *DictMultiConverter) ToFieldValue(value any) (any, error) {
	items, _ := value.([]any)
	if len(items) == 0 {
		return c.field.MissingValue, nil
	}
	keys, err := c.childConverter(c.field.KeyType)
	if err != nil {
		return nil, err
	}
	values, err := c.childConverter(c.field.ValueType)
	if err != nil {
		return nil, err
	}
	out := make(schema.Dict, 0, len(items))
	for _, item := range items {
		entry, ok := item.(KeyValue)
		if !ok {
			return nil, schema.NewValueError("", item, fmt.Errorf("form: unexpected dict entry %T", item))
		}
		key, err := keys.ToFieldValue(entry.Key)
		if err != nil {
			return nil, err
		}
		converted, err := values.ToFieldValue(entry.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, schema.Pair{Key: key, Value: converted})
	}
	if err := c.field.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
