package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Converter maps between a field value and its widget representation.
// ToWidgetValue never fails on well formed field values and turns the
// missing value into the empty representation. ToFieldValue parses and
// validates, returning a *schema.ValueError for unparsable input and a
// *schema.ValidationError for constraint violations.
type Converter interface {
	ToWidgetValue(value any) (any, error)
	ToFieldValue(value any) (any, error)
}

// ConverterFactory builds the converter for a field and widget pair.
type ConverterFactory func(field *schema.Field, w Widget) Converter

// RegisterConverter registers factory for the (field, widget)
// discriminators.
func RegisterConverter(reg *registry.Registry, factory ConverterFactory, field, widget registry.Spec) error {
	return reg.Register(ComponentConverter, []registry.Spec{field, widget}, factory)
}

func registerConverters(reg *registry.Registry) {
	add := func(factory ConverterFactory, field, widget registry.Spec) {
		if err := RegisterConverter(reg, factory, field, widget); err != nil {
			panic(err)
		}
	}
	add(func(f *schema.Field, w Widget) Converter { return &FieldConverter{field: f, widget: w} },
		registry.Tag("field"), registry.Any())
	for _, kind := range []string{"int", "float", "decimal"} {
		add(func(f *schema.Field, w Widget) Converter { return &NumberConverter{FieldConverter{field: f, widget: w}} },
			registry.Tag(kind), registry.Any())
	}
	add(func(f *schema.Field, w Widget) Converter { return &UUIDConverter{FieldConverter{field: f, widget: w}} },
		registry.Tag("uuid"), registry.Any())
	add(func(f *schema.Field, w Widget) Converter { return newTimeConverter(f, dateFormat) },
		registry.Tag("date"), registry.Any())
	add(func(f *schema.Field, w Widget) Converter { return newTimeConverter(f, timeFormat) },
		registry.Tag("time"), registry.Any())
	add(func(f *schema.Field, w Widget) Converter { return newTimeConverter(f, datetimeFormat) },
		registry.Tag("datetime"), registry.Any())
	add(func(f *schema.Field, w Widget) Converter { return &TimedeltaConverter{field: f} },
		registry.Tag("timedelta"), registry.Any())
	add(func(f *schema.Field, w Widget) Converter { return &FileUploadConverter{field: f} },
		registry.Tag("bytes"), registry.Tag("file"))
	add(func(f *schema.Field, w Widget) Converter { return &SequenceConverter{field: f, widget: w} },
		registry.Tag("field"), registry.Tag("sequence"))
	add(func(f *schema.Field, w Widget) Converter { return &CollectionSequenceConverter{field: f, widget: w} },
		registry.Tag("collection"), registry.Tag("sequence"))
	add(func(f *schema.Field, w Widget) Converter { return &SingleCheckboxConverter{field: f} },
		registry.Tag("bool"), registry.Tag("singlecheckbox"))
	add(func(f *schema.Field, w Widget) Converter { return &TextLinesConverter{field: f} },
		registry.Tag("collection"), registry.Tag("textlines"))
	add(func(f *schema.Field, w Widget) Converter { return &MultiConverter{field: f, widget: w} },
		registry.Tag("collection"), registry.Tag("multi"))
	add(func(f *schema.Field, w Widget) Converter { return &DictMultiConverter{MultiConverter{field: f, widget: w}} },
		registry.Tag("dict"), registry.Tag("multi"))
	add(func(f *schema.Field, w Widget) Converter { return &ObjectConverter{field: f, widget: w} },
		registry.Tag("object"), registry.Tag("object"))
}

// firstText reduces a request value to one string.
func firstText(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", true
	case string:
		return typed, true
	case []string:
		if len(typed) == 0 {
			return "", true
		}
		return typed[0], true
	case *request.FileUpload:
		if typed == nil {
			return "", true
		}
		return string(typed.Data), true
	}
	return "", false
}

// FieldConverter passes text through the field's string parser.
type FieldConverter struct {
	field  *schema.Field
	widget Widget
}

func (c *FieldConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return "", nil
	}
	switch typed := value.(type) {
	case string:
		return typed, nil
	case []byte:
		return string(typed), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case fmt.Stringer:
		return typed.String(), nil
	}
	return fmt.Sprint(value), nil
}

func (c *FieldConverter) ToFieldValue(value any) (any, error) {
	text, ok := firstText(value)
	if !ok {
		return nil, schema.NewValueError("", value, fmt.Errorf("form: unexpected widget value %T", value))
	}
	if text == "" {
		return c.field.MissingValue, nil
	}
	return c.field.FromString(text)
}

// NumberConverter formats int, float and decimal fields.
type NumberConverter struct {
	FieldConverter
}

func (c *NumberConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return "", nil
	}
	switch typed := value.(type) {
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), nil
	case schema.Decimal:
		return string(typed), nil
	}
	if n, ok := schema.AsInt(value); ok {
		return strconv.Itoa(n), nil
	}
	return c.FieldConverter.ToWidgetValue(value)
}

// UUIDConverter formats identifiers in their canonical form.
type UUIDConverter struct {
	FieldConverter
}

func (c *UUIDConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return "", nil
	}
	if id, ok := value.(uuid.UUID); ok {
		if id == uuid.Nil {
			return "", nil
		}
		return id.String(), nil
	}
	return c.FieldConverter.ToWidgetValue(value)
}

// FileUploadConverter reads uploads into byte fields. Files are never
// redisplayed, so the widget value is always empty.
type FileUploadConverter struct {
	field *schema.Field
}

func (c *FileUploadConverter) ToWidgetValue(any) (any, error) { return nil, nil }

func (c *FileUploadConverter) ToFieldValue(value any) (any, error) {
	var data []byte
	switch typed := value.(type) {
	case nil:
		return c.field.MissingValue, nil
	case *request.FileUpload:
		if typed.Empty() {
			return c.field.MissingValue, nil
		}
		data = typed.Data
	case string:
		if typed == "" {
			return c.field.MissingValue, nil
		}
		data = []byte(typed)
	case []byte:
		data = typed
	default:
		return nil, schema.NewValueError("", value, fmt.Errorf("form: unexpected upload %T", value))
	}
	if err := c.field.Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// SingleCheckboxConverter maps a boolean onto the one-term checkbox.
type SingleCheckboxConverter struct {
	field *schema.Field
}

// SelectedToken is the token of a checked single checkbox.
const SelectedToken = "selected"

func (c *SingleCheckboxConverter) ToWidgetValue(value any) (any, error) {
	if checked, ok := value.(bool); ok && checked {
		return []string{SelectedToken}, nil
	}
	return []string{}, nil
}

func (c *SingleCheckboxConverter) ToFieldValue(value any) (any, error) {
	tokens := request.Strings(value)
	return len(tokens) > 0 && tokens[0] == SelectedToken, nil
}

// TextLinesConverter maps collections of scalars onto newline separated
// text.
type TextLinesConverter struct {
	field *schema.Field
}

func (c *TextLinesConverter) itemField() *schema.Field {
	if c.field.ValueType != nil {
		return c.field.ValueType
	}
	return &schema.Field{Kind: schema.KindText}
}

func (c *TextLinesConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return "", nil
	}
	items, ok := schema.Elements(value)
	if !ok {
		return "", nil
	}
	item := &NumberConverter{FieldConverter{field: c.itemField()}}
	lines := make([]string, 0, len(items))
	for _, element := range items {
		text, err := item.ToWidgetValue(element)
		if err != nil {
			return nil, err
		}
		lines = append(lines, text.(string))
	}
	return strings.Join(lines, "\n"), nil
}

func (c *TextLinesConverter) ToFieldValue(value any) (any, error) {
	text, ok := firstText(value)
	if !ok {
		return nil, schema.NewValueError("", value, fmt.Errorf("form: unexpected widget value %T", value))
	}
	if strings.TrimSpace(text) == "" {
		return c.field.MissingValue, nil
	}
	itemField := c.itemField()
	var items []any
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item, err := itemField.FromString(line)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	collection := c.field.NewCollection(items)
	if err := c.field.Validate(collection); err != nil {
		return nil, err
	}
	return collection, nil
}
